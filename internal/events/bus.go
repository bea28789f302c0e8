// internal/events/bus.go
package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Bus is an in-memory subscription sink: emitted venue records are fanned
// out asynchronously to handlers registered per event kind. It lets an
// embedder consume trade, create and complete records in-process without an
// outbound webhook.
type Bus struct {
	mu         sync.RWMutex
	handlers   map[string]map[string]Handler
	logger     *zap.Logger
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	eventChan  chan Event
	bufferSize int
}

// NewBus creates a new event bus and starts its dispatch loop.
func NewBus(logger *zap.Logger, bufferSize int) *Bus {
	ctx, cancel := context.WithCancel(context.Background())
	bus := &Bus{
		handlers:   make(map[string]map[string]Handler),
		logger:     logger.Named("event_bus"),
		ctx:        ctx,
		cancel:     cancel,
		eventChan:  make(chan Event, bufferSize),
		bufferSize: bufferSize,
	}

	bus.wg.Add(1)
	go bus.processEvents()

	return bus
}

// Subscribe registers a handler for one event kind ("create", "trade",
// "complete").
func (b *Bus) Subscribe(kind string, handler Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.New().String()

	if b.handlers[kind] == nil {
		b.handlers[kind] = make(map[string]Handler)
	}
	b.handlers[kind][id] = handler

	b.logger.Debug("Handler subscribed",
		zap.String("kind", kind),
		zap.String("subscription_id", id))

	return &subscription{
		id:   id,
		bus:  b,
		kind: kind,
	}
}

// SubscribeFunc is a convenience method for subscribing with a function.
func (b *Bus) SubscribeFunc(kind string, fn func(context.Context, Event) error) Subscription {
	return b.Subscribe(kind, HandlerFunc(fn))
}

// Emit implements Sink. The record is dispatched asynchronously; when the
// buffer is full the record is dropped, never blocking the trading path.
func (b *Bus) Emit(ev Event) {
	select {
	case <-b.ctx.Done():
	case b.eventChan <- ev:
	default:
		b.logger.Warn("Event channel full, dropping event",
			zap.String("kind", ev.Kind()))
	}
}

// dispatch delivers one record to every handler of its kind.
func (b *Bus) dispatch(ctx context.Context, ev Event) error {
	b.mu.RLock()
	handlers := b.handlers[ev.Kind()]
	// copy so handlers run without the lock held
	handlersCopy := make(map[string]Handler, len(handlers))
	for id, h := range handlers {
		handlersCopy[id] = h
	}
	b.mu.RUnlock()

	var errs []error
	for id, handler := range handlersCopy {
		if err := handler.Handle(ctx, ev); err != nil {
			b.logger.Error("Handler error",
				zap.String("kind", ev.Kind()),
				zap.String("handler_id", id),
				zap.Error(err))
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("handlers failed: %v", errs)
	}
	return nil
}

func (b *Bus) processEvents() {
	defer b.wg.Done()

	for {
		select {
		case <-b.ctx.Done():
			// drain what is already queued
			for {
				select {
				case ev := <-b.eventChan:
					_ = b.dispatch(context.Background(), ev)
				default:
					return
				}
			}
		case ev := <-b.eventChan:
			_ = b.dispatch(b.ctx, ev)
		}
	}
}

func (b *Bus) unsubscribe(id, kind string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if handlers, ok := b.handlers[kind]; ok {
		delete(handlers, id)
		if len(handlers) == 0 {
			delete(b.handlers, kind)
		}
	}

	b.logger.Debug("Handler unsubscribed",
		zap.String("kind", kind),
		zap.String("subscription_id", id))
}

// Shutdown stops dispatching after draining queued records.
func (b *Bus) Shutdown(ctx context.Context) error {
	b.cancel()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("Event bus shutdown complete")
		return nil
	case <-ctx.Done():
		b.logger.Warn("Event bus shutdown timeout")
		return ctx.Err()
	}
}
