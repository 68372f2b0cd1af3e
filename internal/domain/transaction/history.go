package transaction

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// HistoryEntry is one committed lifecycle event in a transaction's audit trail.
type HistoryEntry struct {
	ID            uuid.UUID
	TransactionID uuid.UUID
	EventType     string
	ActorID       uuid.UUID
	ActorRole     Role
	FromState     State
	ToState       State
	Version       int64
	Reason        string
	OccurredAt    time.Time
}

// HistoryEntryFromEvent converts a published lifecycle event into an audit entry.
func HistoryEntryFromEvent(e LifecycleEvent) HistoryEntry {
	return HistoryEntry{
		ID:            e.EventID(),
		TransactionID: e.AggregateID(),
		EventType:     e.EventType(),
		ActorID:       e.ActorID,
		ActorRole:     e.ActorRole,
		FromState:     e.FromState,
		ToState:       e.ToState,
		Version:       e.Version,
		Reason:        e.Reason,
		OccurredAt:    e.OccurredAt(),
	}
}

// HistoryRepository stores the append-only audit trail.
type HistoryRepository interface {
	// Append is idempotent on entry ID.
	Append(ctx context.Context, entry HistoryEntry) error
	// ListByTransaction returns entries ordered by version.
	ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]HistoryEntry, error)
}
