package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"issuemap_backend/platform/logger"
)

// InMemoryBus is a process-local Bus implementation. Handlers registered
// for an event name receive every published event of that name.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	log      *logger.Logger
}

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return &InMemoryBus{
		handlers: make(map[string][]Handler),
		log:      log,
	}
}

// Subscribe registers a handler for the given event name.
func (b *InMemoryBus) Subscribe(eventName string, handler Handler) {
	b.mu.Lock()
	b.handlers[eventName] = append(b.handlers[eventName], handler)
	b.mu.Unlock()
}

// Publish dispatches the event to all handlers asynchronously. Handler
// errors and panics are logged, never propagated to the publisher.
func (b *InMemoryBus) Publish(ctx context.Context, event Event) {
	for _, handler := range b.handlersFor(event.EventName()) {
		go func(h Handler) {
			defer b.recoverHandler(event.EventName())
			if err := h.Handle(ctx, event); err != nil {
				b.log.Error("event handler failed",
					"event", event.EventName(),
					"error", err.Error(),
				)
			}
		}(handler)
	}
}

// PublishSync dispatches the event and waits for every handler,
// returning the combined handler errors.
func (b *InMemoryBus) PublishSync(ctx context.Context, event Event) error {
	var errs []error
	for _, handler := range b.handlersFor(event.EventName()) {
		if err := b.handleSync(ctx, event, handler); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *InMemoryBus) handleSync(ctx context.Context, event Event, handler Handler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("event handler panic for %s: %v", event.EventName(), r)
		}
	}()
	return handler.Handle(ctx, event)
}

func (b *InMemoryBus) handlersFor(eventName string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	registered := b.handlers[eventName]
	out := make([]Handler, len(registered))
	copy(out, registered)
	return out
}

func (b *InMemoryBus) recoverHandler(eventName string) {
	if r := recover(); r != nil {
		b.log.Error("event handler panic", "event", eventName, "panic", fmt.Sprint(r))
	}
}

var _ Bus = (*InMemoryBus)(nil)
