package entities

import (
	"fmt"
	"time"
)

// Account is a user's fireworks ledger document. It is only ever mutated through
// ApplyDeltas inside a ledger transaction.
type Account struct {
	UserID                string         `db:"user_id"`
	Balance               int64          `db:"balance"`
	TotalEarnedAllTime    int64          `db:"total_earned_all_time"` // never decreases, survives prestige
	UpgradeLevels         UpgradeLevels  `db:"upgrade_levels"`
	PrestigeLevel         int64          `db:"prestige_level"`
	PrestigePoints        int64          `db:"prestige_points"`
	PrestigeUpgradeLevels PrestigeLevels `db:"prestige_upgrade_levels"` // never reset
	VisitCount            int64          `db:"visit_count"`
	LastSeenAt            *time.Time     `db:"last_seen_at"`
	CreatedAt             time.Time      `db:"created_at"`
	UpdatedAt             time.Time      `db:"updated_at"`
}

// NewAccount returns a fresh account with every counter at zero
func NewAccount(userID string) *Account {
	return &Account{
		UserID:                userID,
		UpgradeLevels:         UpgradeLevels{},
		PrestigeUpgradeLevels: PrestigeLevels{},
	}
}

// Clone returns a deep copy safe to mutate
func (a *Account) Clone() *Account {
	out := *a
	out.UpgradeLevels = a.UpgradeLevels.Clone()
	out.PrestigeUpgradeLevels = a.PrestigeUpgradeLevels.Clone()
	if a.LastSeenAt != nil {
		seen := *a.LastSeenAt
		out.LastSeenAt = &seen
	}
	return &out
}

// Level returns the account's level for an upgrade
func (a *Account) Level(kind UpgradeKind) int {
	return a.UpgradeLevels.Get(kind)
}

// PrestigeUpgradeLevel returns the account's level for a prestige upgrade
func (a *Account) PrestigeUpgradeLevel(kind PrestigeUpgradeKind) int {
	return a.PrestigeUpgradeLevels.Get(kind)
}

// CanPrestige reports whether the balance meets the prestige threshold
func (a *Account) CanPrestige() bool {
	return a.Balance >= PrestigeThreshold
}

// Validate checks the account invariants
func (a *Account) Validate() error {
	if a.Balance < 0 {
		return fmt.Errorf("%w: balance %d is negative", ErrInvalidAmount, a.Balance)
	}
	if a.PrestigePoints < 0 || a.PrestigeLevel < 0 || a.TotalEarnedAllTime < 0 {
		return fmt.Errorf("%w: negative prestige or lifetime counter", ErrInvalidAmount)
	}
	for kind, level := range a.UpgradeLevels {
		if level < 0 || level > kind.MaxLevel() {
			return fmt.Errorf("%w: %s level %d out of range", ErrInvalidAmount, kind, level)
		}
	}
	for kind, level := range a.PrestigeUpgradeLevels {
		if level < 0 || level > kind.MaxLevel() {
			return fmt.Errorf("%w: %s level %d out of range", ErrInvalidAmount, kind, level)
		}
	}
	return nil
}

// Field names a mutable account field in a ledger delta
type Field string

const (
	FieldBalance        Field = "balance"
	FieldPrestigeLevel  Field = "prestige_level"
	FieldPrestigePoints Field = "prestige_points"

	upgradeFieldPrefix         = "upgrade:"
	prestigeUpgradeFieldPrefix = "prestige_upgrade:"
)

// UpgradeField is the delta field for an upgrade level
func UpgradeField(kind UpgradeKind) Field {
	return Field(upgradeFieldPrefix + string(kind))
}

// PrestigeUpgradeField is the delta field for a prestige upgrade level
func PrestigeUpgradeField(kind PrestigeUpgradeKind) Field {
	return Field(prestigeUpgradeFieldPrefix + string(kind))
}

// Deltas is a set of signed field changes applied to one account atomically.
// TotalEarnedAllTime is not addressable; the ledger derives it from reward credits.
type Deltas map[Field]int64

// ApplyDeltas returns a copy of acc with deltas applied, or the first invariant the
// result would break. acc is never modified. When earned is set, a positive balance
// delta is also added to TotalEarnedAllTime.
func ApplyDeltas(acc *Account, deltas Deltas, earned bool) (*Account, error) {
	if err := checkFields(deltas); err != nil {
		return nil, err
	}

	out := acc.Clone()

	if d, ok := deltas[FieldBalance]; ok {
		out.Balance += d
		if out.Balance < 0 {
			return nil, &InsufficientFundsError{Currency: CurrencyFireworks, Need: -d, Have: acc.Balance}
		}
		if earned && d > 0 {
			out.TotalEarnedAllTime += d
		}
	}

	if d, ok := deltas[FieldPrestigePoints]; ok {
		out.PrestigePoints += d
		if out.PrestigePoints < 0 {
			return nil, &InsufficientFundsError{Currency: CurrencyPrestigePoints, Need: -d, Have: acc.PrestigePoints}
		}
	}

	if d, ok := deltas[FieldPrestigeLevel]; ok {
		out.PrestigeLevel += d
		if out.PrestigeLevel < 0 {
			return nil, fmt.Errorf("%w: prestige level cannot go below zero", ErrInvalidAmount)
		}
	}

	for _, kind := range UpgradeKinds {
		d, ok := deltas[UpgradeField(kind)]
		if !ok {
			continue
		}
		level := out.UpgradeLevels.Get(kind) + int(d)
		if err := checkLevel(string(kind), level, kind.MaxLevel()); err != nil {
			return nil, err
		}
		out.UpgradeLevels[kind] = level
	}

	for _, kind := range PrestigeUpgradeKinds {
		d, ok := deltas[PrestigeUpgradeField(kind)]
		if !ok {
			continue
		}
		level := out.PrestigeUpgradeLevels.Get(kind) + int(d)
		if err := checkLevel(string(kind), level, kind.MaxLevel()); err != nil {
			return nil, err
		}
		out.PrestigeUpgradeLevels[kind] = level
	}

	return out, nil
}

func checkFields(deltas Deltas) error {
	known := map[Field]bool{FieldBalance: true, FieldPrestigeLevel: true, FieldPrestigePoints: true}
	for _, kind := range UpgradeKinds {
		known[UpgradeField(kind)] = true
	}
	for _, kind := range PrestigeUpgradeKinds {
		known[PrestigeUpgradeField(kind)] = true
	}
	for field := range deltas {
		if !known[field] {
			return fmt.Errorf("%w: unknown ledger field %q", ErrInvalidAmount, field)
		}
	}
	return nil
}

func checkLevel(name string, level, max int) error {
	if level > max {
		return fmt.Errorf("%w: %s is capped at %d", ErrLevelMaxed, name, max)
	}
	if level < 0 {
		return fmt.Errorf("%w: %s level cannot go below zero", ErrInvalidAmount, name)
	}
	return nil
}
