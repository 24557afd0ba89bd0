package events

import (
	"context"

	"fireworks/domain/entities"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange    EventType = "balance_change"
	EventTypeAccountCreated   EventType = "account_created"
	EventTypeUpgradePurchased EventType = "upgrade_purchased"
	EventTypePrestigeReset    EventType = "prestige_reset"
	EventTypeBetStateChange   EventType = "bet_state_change"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// Handler handles a committed event
type Handler func(ctx context.Context, event Event)

// BalanceChangeEvent is published for every committed balance change
type BalanceChangeEvent struct {
	UserID          string                   `json:"user_id"`
	OldBalance      int64                    `json:"old_balance"`
	NewBalance      int64                    `json:"new_balance"`
	ChangeAmount    int64                    `json:"change_amount"`
	TransactionType entities.TransactionType `json:"transaction_type"`
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// AccountCreatedEvent is published when a user signs up
type AccountCreatedEvent struct {
	UserID string `json:"user_id"`
}

func (e AccountCreatedEvent) Type() EventType {
	return EventTypeAccountCreated
}

// UpgradePurchasedEvent is published for fireworks and prestige shop purchases
type UpgradePurchasedEvent struct {
	UserID   string `json:"user_id"`
	Upgrade  string `json:"upgrade"`
	Prestige bool   `json:"prestige"`
	NewLevel int    `json:"new_level"`
	Cost     int64  `json:"cost"`
}

func (e UpgradePurchasedEvent) Type() EventType {
	return EventTypeUpgradePurchased
}

// PrestigeResetEvent is published after a committed prestige reset
type PrestigeResetEvent struct {
	UserID        string `json:"user_id"`
	PointsGained  int64  `json:"points_gained"`
	BalanceSpent  int64  `json:"balance_spent"`
	PrestigeLevel int64  `json:"prestige_level"`
	StartingLevel int    `json:"starting_level"`
}

func (e PrestigeResetEvent) Type() EventType {
	return EventTypePrestigeReset
}

// BetStateChangeEvent represents a bet lifecycle transition
type BetStateChangeEvent struct {
	BetID     string             `json:"bet_id"`
	ActorID   string             `json:"actor_id"`
	OldStatus entities.BetStatus `json:"old_status,omitempty"`
	NewStatus entities.BetStatus `json:"new_status"`
	Wager     int64              `json:"wager"`
	WinnerID  string             `json:"winner_id,omitempty"`
}

func (e BetStateChangeEvent) Type() EventType {
	return EventTypeBetStateChange
}

// UserIDs returns the accounts an event concerns
func UserIDs(event Event) []string {
	switch e := event.(type) {
	case BalanceChangeEvent:
		return []string{e.UserID}
	case AccountCreatedEvent:
		return []string{e.UserID}
	case UpgradePurchasedEvent:
		return []string{e.UserID}
	case PrestigeResetEvent:
		return []string{e.UserID}
	case BetStateChangeEvent:
		return []string{e.ActorID}
	default:
		return nil
	}
}
