package transaction

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/passiton/server/internal/domain/event"
)

// Event types.
const (
	EventCreated           = "transaction.created"
	EventHandoverConfirmed = "transaction.handover_confirmed"
	EventReturnConfirmed   = "transaction.return_confirmed"
	EventCompleted         = "transaction.completed"
	EventDisputed          = "transaction.disputed"
)

// LifecycleEvent is published after a transition has been committed.
type LifecycleEvent struct {
	event.Base
	ActorID   uuid.UUID `json:"actor_id"`
	ActorRole Role      `json:"actor_role,omitempty"`
	FromState State     `json:"from_state,omitempty"`
	ToState   State     `json:"to_state"`
	Version   int64     `json:"version"`
	Reason    string    `json:"reason,omitempty"`
}

func newLifecycleEvent(eventType string, tx *Transaction, actorID uuid.UUID, role Role, from State, at time.Time) LifecycleEvent {
	return LifecycleEvent{
		Base:      event.NewBase(eventType, tx.ID(), at),
		ActorID:   actorID,
		ActorRole: role,
		FromState: from,
		ToState:   tx.State(),
		Version:   tx.Version(),
	}
}

// EventPublisher is the outbound port the domain publishes committed transitions to.
type EventPublisher interface {
	Publish(ctx context.Context, e event.Event)
}
