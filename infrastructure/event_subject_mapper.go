package infrastructure

import (
	"fmt"

	"fireworks/domain/events"
)

// DomainEventStream is the JetStream stream holding every published domain event
const DomainEventStream = "fireworks_events"

var eventSubjects = map[events.EventType]string{
	events.EventTypeBalanceChange:    "fireworks.accounts.balance_changed",
	events.EventTypeAccountCreated:   "fireworks.accounts.created",
	events.EventTypeUpgradePurchased: "fireworks.upgrades.purchased",
	events.EventTypePrestigeReset:    "fireworks.prestige.reset",
	events.EventTypeBetStateChange:   "fireworks.bets.state_changed",
}

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	if subject, ok := eventSubjects[event.Type()]; ok {
		return subject
	}
	return fmt.Sprintf("fireworks.unknown.%s", event.Type())
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	for eventType, s := range eventSubjects {
		if s == subject {
			return eventType
		}
	}
	return events.EventType(subject)
}

// GetAllSubjects returns all subjects this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		"fireworks.accounts.balance_changed",
		"fireworks.accounts.created",
		"fireworks.upgrades.purchased",
		"fireworks.prestige.reset",
		"fireworks.bets.state_changed",
	}
}
