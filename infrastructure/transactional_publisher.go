package infrastructure

import (
	"context"

	"fireworks/domain/events"
	"fireworks/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// TransactionalPublisher holds events until the unit of work commits, then hands
// them to the downstream publisher in the order they were raised
type TransactionalPublisher struct {
	downstream interfaces.EventPublisher
	pending    []events.Event
}

// NewTransactionalPublisher creates a new transactional publisher
func NewTransactionalPublisher(downstream interfaces.EventPublisher) *TransactionalPublisher {
	return &TransactionalPublisher{
		downstream: downstream,
		pending:    make([]events.Event, 0),
	}
}

// Publish queues an event without publishing it
func (p *TransactionalPublisher) Publish(event events.Event) error {
	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"pendingCount": len(p.pending),
	}).Debug("Adding event to transactional publisher pending queue")

	p.pending = append(p.pending, event)
	return nil
}

// Flush publishes all pending events. Called after a successful commit.
func (p *TransactionalPublisher) Flush(ctx context.Context) error {
	log.WithFields(log.Fields{
		"pendingEventCount": len(p.pending),
	}).Debug("Flushing pending events")

	for _, event := range p.pending {
		if err := p.downstream.Publish(event); err != nil {
			// The transaction is already committed; keep going with the rest
			log.WithFields(log.Fields{
				"eventType": event.Type(),
				"error":     err,
			}).Error("Failed to publish event during flush")
		}
	}

	p.pending = p.pending[:0]
	return nil
}

// Discard drops all pending events. Called on rollback.
func (p *TransactionalPublisher) Discard() {
	if len(p.pending) > 0 {
		log.WithFields(log.Fields{
			"discardedEventCount": len(p.pending),
		}).Debug("Discarding pending events")
	}
	p.pending = p.pending[:0]
}

// Pending returns the number of queued events
func (p *TransactionalPublisher) Pending() int {
	return len(p.pending)
}
