package interfaces

import (
	"context"

	"fireworks/domain/entities"
)

// LedgerEntry describes why an account changes; it becomes the balance history row
type LedgerEntry struct {
	TransactionType entities.TransactionType
	Metadata        map[string]any
	RelatedID       *string
	RelatedType     *entities.RelatedType
}

// DeltaFunc derives the deltas to apply from the account as re-read inside the
// transaction. Returning an error aborts the transaction.
type DeltaFunc func(current *entities.Account) (entities.Deltas, error)

// LedgerService is the only writer of account fields
type LedgerService interface {
	// ApplyDelta locks the account, checks that deltas keep every invariant, and
	// writes them with a history row
	ApplyDelta(ctx context.Context, userID string, entry LedgerEntry, deltas entities.Deltas) (*entities.Account, error)

	// Mutate is ApplyDelta with deltas computed from the locked account
	Mutate(ctx context.Context, userID string, entry LedgerEntry, fn DeltaFunc) (*entities.Account, error)
}

// AccountService defines account lifecycle operations
type AccountService interface {
	// GetOrCreate returns the user's account, creating a zeroed one on first sign-up
	GetOrCreate(ctx context.Context, userID string) (account *entities.Account, created bool, err error)

	// Get returns the account or ErrAccountNotFound
	Get(ctx context.Context, userID string) (*entities.Account, error)

	// History returns the latest balance changes for the user
	History(ctx context.Context, userID string, limit int) ([]*entities.BalanceHistory, error)
}

// RewardService credits engine rewards
type RewardService interface {
	Credit(ctx context.Context, reward entities.RewardEvent) (*entities.Account, error)
}

// UpgradeService implements the fireworks and prestige shop purchase protocol
type UpgradeService interface {
	// Purchase buys the next level of kind. expectedLevel is the caller's view of the
	// current level; the authoritative level decides the price.
	Purchase(ctx context.Context, userID string, kind entities.UpgradeKind, expectedLevel int) (*entities.Account, error)

	// PurchasePrestige is Purchase for prestige upgrades, paid in prestige points
	PurchasePrestige(ctx context.Context, userID string, kind entities.PrestigeUpgradeKind, expectedLevel int) (*entities.Account, error)
}

// PrestigeService implements the prestige reset protocol
type PrestigeService interface {
	Prestige(ctx context.Context, userID string) (*entities.PrestigeResult, error)
}

// BetService implements the bet escrow state machine
type BetService interface {
	Create(ctx context.Context, creatorID string, wager int64) (*entities.Bet, error)
	Accept(ctx context.Context, betID, actorID string) (*entities.Bet, error)
	DeclareWinner(ctx context.Context, betID, actorID string) (*entities.Bet, error)
	Cancel(ctx context.Context, betID, actorID string) (*entities.Bet, error)
	Get(ctx context.Context, betID string) (*entities.Bet, error)
	ListOpen(ctx context.Context, limit int) ([]*entities.Bet, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]*entities.Bet, error)
}
