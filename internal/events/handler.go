// internal/events/handler.go
package events

import (
	"context"
)

// Handler processes records of one event kind.
type Handler interface {
	// Handle processes a record. Should not block.
	Handle(ctx context.Context, ev Event) error
}

// HandlerFunc is an adapter to allow the use of ordinary functions as event handlers.
type HandlerFunc func(ctx context.Context, ev Event) error

// Handle calls f(ctx, ev).
func (f HandlerFunc) Handle(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

// Subscription represents a subscription on the bus.
type Subscription interface {
	// Unsubscribe removes the subscription.
	Unsubscribe()
}

type subscription struct {
	id   string
	bus  *Bus
	kind string
}

// Unsubscribe removes this subscription from the event bus.
func (s *subscription) Unsubscribe() {
	s.bus.unsubscribe(s.id, s.kind)
}
