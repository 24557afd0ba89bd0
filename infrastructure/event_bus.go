package infrastructure

import (
	"context"
	"sync"

	"fireworks/domain/events"
	"fireworks/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// LocalEventBus delivers committed events to in-process subscribers and forwards
// them to a downstream publisher (NATS, or a no-op)
type LocalEventBus struct {
	mu         sync.RWMutex
	handlers   map[events.EventType][]events.Handler
	downstream interfaces.EventPublisher
	inflight   sync.WaitGroup
}

// NewLocalEventBus creates a new event bus. downstream may be nil.
func NewLocalEventBus(downstream interfaces.EventPublisher) *LocalEventBus {
	if downstream == nil {
		downstream = discardPublisher{}
	}
	return &LocalEventBus{
		handlers:   make(map[events.EventType][]events.Handler),
		downstream: downstream,
	}
}

// Subscribe adds a handler for a specific event type
func (b *LocalEventBus) Subscribe(eventType events.EventType, handler events.Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Publish dispatches the event to subscribers asynchronously, then forwards it
// downstream. A downstream failure is returned; handler failures are not.
func (b *LocalEventBus) Publish(event events.Event) error {
	b.mu.RLock()
	handlers := make([]events.Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	ctx := context.Background()
	for i, handler := range handlers {
		b.inflight.Add(1)
		go func(h events.Handler, handlerIndex int) {
			defer b.inflight.Done()
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}

	return b.downstream.Publish(event)
}

// Wait blocks until every handler started so far has returned
func (b *LocalEventBus) Wait() {
	b.inflight.Wait()
}

// discardPublisher drops every event; used when NATS is not configured
type discardPublisher struct{}

func (discardPublisher) Publish(events.Event) error { return nil }
