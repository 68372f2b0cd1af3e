// Package event defines the envelope shared by every domain event.
package event

import (
	"time"

	"github.com/google/uuid"
)

// Event is the interface all domain events implement.
type Event interface {
	EventID() uuid.UUID

	// EventType returns the type name of the event (e.g., "transaction.handover_confirmed").
	EventType() string

	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() uuid.UUID
}

// Base carries the fields common to every event. Embed it in domain events.
type Base struct {
	ID            uuid.UUID `json:"id"`
	Type          string    `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateUUID uuid.UUID `json:"aggregate_id"`
}

func (e Base) EventID() uuid.UUID     { return e.ID }
func (e Base) EventType() string      { return e.Type }
func (e Base) OccurredAt() time.Time  { return e.Timestamp }
func (e Base) AggregateID() uuid.UUID { return e.AggregateUUID }

// NewBase creates a Base stamped with the given time.
func NewBase(eventType string, aggregateID uuid.UUID, at time.Time) Base {
	return Base{
		ID:            uuid.New(),
		Type:          eventType,
		Timestamp:     at,
		AggregateUUID: aggregateID,
	}
}
