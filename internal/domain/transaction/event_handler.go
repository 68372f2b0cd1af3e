package transaction

import (
	"context"
	"fmt"

	"github.com/passiton/server/internal/domain/event"
	"go.uber.org/zap"
)

// LifecycleEventTypes lists every event the lifecycle publishes, creation first.
var LifecycleEventTypes = []string{
	EventCreated,
	EventHandoverConfirmed,
	EventReturnConfirmed,
	EventCompleted,
	EventDisputed,
}

// HistoryRecorder appends committed lifecycle events to the audit trail.
type HistoryRecorder struct {
	repo   HistoryRepository
	logger *zap.Logger
}

// NewHistoryRecorder creates a new history recorder.
func NewHistoryRecorder(repo HistoryRepository, logger *zap.Logger) *HistoryRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryRecorder{repo: repo, logger: logger}
}

// Handles returns the event types this handler processes.
func (h *HistoryRecorder) Handles() []string {
	return LifecycleEventTypes
}

// Handle appends the event. Redelivery is absorbed by the repository's idempotent append.
func (h *HistoryRecorder) Handle(ctx context.Context, e event.Event) error {
	le, ok := AsLifecycleEvent(e)
	if !ok {
		return fmt.Errorf("history recorder: unexpected event %T", e)
	}
	if err := h.repo.Append(ctx, HistoryEntryFromEvent(le)); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	h.logger.Debug("history recorded",
		zap.String("transaction_id", le.AggregateID().String()),
		zap.String("event", le.EventType()),
		zap.Int64("version", le.Version),
	)
	return nil
}

// AsLifecycleEvent unwraps a bus event into a LifecycleEvent.
func AsLifecycleEvent(e event.Event) (LifecycleEvent, bool) {
	switch v := e.(type) {
	case LifecycleEvent:
		return v, true
	case *LifecycleEvent:
		if v != nil {
			return *v, true
		}
	}
	return LifecycleEvent{}, false
}
