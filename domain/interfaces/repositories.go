package interfaces

import (
	"context"

	"fireworks/domain/entities"
	"fireworks/domain/events"
)

// AccountRepository defines data access for ledger accounts. Implementations are
// scoped to one store transaction.
type AccountRepository interface {
	// GetByID reads an account without locking it. Returns nil, nil when missing.
	GetByID(ctx context.Context, userID string) (*entities.Account, error)

	// GetForUpdate reads an account and holds its lock until the transaction ends.
	// Returns nil, nil when missing.
	GetForUpdate(ctx context.Context, userID string) (*entities.Account, error)

	// Create inserts a zeroed account. Returns ErrAccountExists when the user already has one.
	Create(ctx context.Context, userID string) (*entities.Account, error)

	// Save writes every mutable field of a locked account
	Save(ctx context.Context, account *entities.Account) error
}

// BetRepository defines data access for peer-to-peer bets
type BetRepository interface {
	// Create inserts a new bet
	Create(ctx context.Context, bet *entities.Bet) error

	// GetByID reads a bet without locking it. Returns nil, nil when missing.
	GetByID(ctx context.Context, id string) (*entities.Bet, error)

	// GetForUpdate reads a bet and holds its lock until the transaction ends.
	// Returns nil, nil when missing.
	GetForUpdate(ctx context.Context, id string) (*entities.Bet, error)

	// Update writes a bet's state fields
	Update(ctx context.Context, bet *entities.Bet) error

	// ListOpen returns open bets, newest first
	ListOpen(ctx context.Context, limit int) ([]*entities.Bet, error)

	// ListByUser returns bets a user created or accepted, newest first
	ListByUser(ctx context.Context, userID string, limit int) ([]*entities.Bet, error)
}

// BalanceHistoryRepository defines the interface for balance history tracking
type BalanceHistoryRepository interface {
	// Record creates a new balance history entry
	Record(ctx context.Context, history *entities.BalanceHistory) error

	// GetByUser returns balance history for a specific user, newest first
	GetByUser(ctx context.Context, userID string, limit int) ([]*entities.BalanceHistory, error)
}

// PresenceRepository tracks visits outside ledger transactions. It must never
// touch balances.
type PresenceRepository interface {
	// RecordVisit increments the visit counter and stamps last_seen_at
	RecordVisit(ctx context.Context, userID string) error
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	Publish(event events.Event) error
}

// TransactionalEventPublisher buffers events until the surrounding transaction ends
type TransactionalEventPublisher interface {
	EventPublisher

	// Flush publishes all pending events. Called after commit.
	Flush(ctx context.Context) error

	// Discard drops all pending events. Called after rollback.
	Discard()
}
