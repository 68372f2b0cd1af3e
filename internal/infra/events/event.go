package events

import "github.com/passiton/server/internal/domain/event"

// Event is the domain event envelope the bus dispatches.
type Event = event.Event
