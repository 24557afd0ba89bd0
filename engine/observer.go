package engine

import (
	"fireworks/domain/entities"
)

// EventKind names what an Event tells the presentation layer
type EventKind string

const (
	EventSpawn    EventKind = "spawn"
	EventRemove   EventKind = "remove"
	EventReward   EventKind = "reward"
	EventAdvisory EventKind = "advisory"
)

// RemoveReason says why a target left the field
type RemoveReason string

const (
	RemoveHit     RemoveReason = "hit"
	RemoveAuto    RemoveReason = "auto"
	RemoveExpired RemoveReason = "expired"
	RemoveReset   RemoveReason = "reset"
)

// AnonymousAdvisory is surfaced once per session when an anonymous visitor
// resolves a target
const AnonymousAdvisory = "sign in to keep the fireworks you collect"

// Event is one engine notification for the presentation layer
type Event struct {
	Kind    EventKind             `json:"kind"`
	Target  *Target               `json:"target,omitempty"`
	Reason  RemoveReason          `json:"reason,omitempty"`
	Reward  *entities.RewardEvent `json:"reward,omitempty"`
	Message string                `json:"message,omitempty"`
}

// Observer receives engine events on the engine's goroutine. Implementations must
// not block.
type Observer interface {
	OnEvent(event Event)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(Event)

func (f ObserverFunc) OnEvent(event Event) {
	f(event)
}

// RewardSink takes rewards for crediting. Submit must not block.
type RewardSink interface {
	Submit(reward entities.RewardEvent)
}

// RewardSinkFunc adapts a function to RewardSink
type RewardSinkFunc func(entities.RewardEvent)

func (f RewardSinkFunc) Submit(reward entities.RewardEvent) {
	f(reward)
}
