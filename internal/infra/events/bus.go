package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Bus is a synchronous in-process event bus.
// Handlers run in registration order; a failing handler does not stop the others.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *zap.Logger
}

// NewBus creates a new event bus.
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

// Register registers a handler for the events it handles.
func (b *Bus) Register(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, eventType := range handler.Handles() {
		b.handlers[eventType] = append(b.handlers[eventType], handler)
		b.logger.Debug("registered event handler", zap.String("event_type", eventType))
	}
}

// Publish dispatches an event to its handlers and to AllEvents subscribers.
func (b *Bus) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	specific := b.handlers[event.EventType()]
	wildcard := b.handlers[AllEvents]
	handlers := make([]Handler, 0, len(specific)+len(wildcard))
	handlers = append(handlers, specific...)
	handlers = append(handlers, wildcard...)
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.logger.Debug("no handlers registered for event",
			zap.String("event_type", event.EventType()),
			zap.String("event_id", event.EventID().String()),
		)
		return
	}

	for _, handler := range handlers {
		if err := handler.Handle(ctx, event); err != nil {
			b.logger.Error("event handler failed",
				zap.String("event_type", event.EventType()),
				zap.String("event_id", event.EventID().String()),
				zap.String("aggregate_id", event.AggregateID().String()),
				zap.Error(err),
			)
		}
	}
}

// PublishAll dispatches multiple events in order.
func (b *Bus) PublishAll(ctx context.Context, events []Event) {
	for _, event := range events {
		b.Publish(ctx, event)
	}
}
