package memory

import (
	"context"
	"sync"

	"github.com/porflow/porflow/internal/domain"
	"github.com/porflow/porflow/internal/ports"
)

// InMemoryEventBus implements ports.EventBus with in-process handlers. Every
// subscriber of a topic receives every event, so consumers that must process
// an event exactly once guard on persisted state.
type InMemoryEventBus struct {
	subscribers map[string][]ports.EventHandler
	mu          sync.RWMutex
}

// NewInMemoryEventBus creates a new in-memory event bus.
func NewInMemoryEventBus() *InMemoryEventBus {
	return &InMemoryEventBus{
		subscribers: make(map[string][]ports.EventHandler),
	}
}

// Publish delivers an event synchronously to all subscribers of a topic.
// Synchronous delivery keeps event ordering deterministic for tests.
func (e *InMemoryEventBus) Publish(ctx context.Context, topic string, event *domain.Event) error {
	e.mu.RLock()
	handlers := make([]ports.EventHandler, len(e.subscribers[topic]))
	copy(handlers, e.subscribers[topic])
	e.mu.RUnlock()

	for _, handler := range handlers {
		// Handler errors are the handler's problem; publishing never
		// fails because a consumer did.
		_ = handler(ctx, event)
	}

	return nil
}

// Subscribe subscribes to events on a specific topic.
func (e *InMemoryEventBus) Subscribe(ctx context.Context, topic string, handler ports.EventHandler) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.subscribers[topic] = append(e.subscribers[topic], handler)
	return nil
}

// Close clears all subscribers.
func (e *InMemoryEventBus) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.subscribers = make(map[string][]ports.EventHandler)
	return nil
}
