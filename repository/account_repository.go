package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"fireworks/database"
	"fireworks/domain/entities"

	"github.com/jackc/pgx/v5"
)

const accountColumns = `
	user_id,
	balance,
	total_earned_all_time,
	upgrade_levels,
	prestige_level,
	prestige_points,
	prestige_upgrade_levels,
	visit_count,
	last_seen_at,
	created_at,
	updated_at`

// AccountRepository implements the AccountRepository and PresenceRepository interfaces
type AccountRepository struct {
	q Queryable
}

// NewAccountRepository creates a new account repository on the pool
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{q: db.Pool}
}

// newAccountRepositoryWithTx creates a new account repository with a transaction
func newAccountRepositoryWithTx(tx Queryable) *AccountRepository {
	return &AccountRepository{q: tx}
}

// GetByID retrieves an account without locking it
func (r *AccountRepository) GetByID(ctx context.Context, userID string) (*entities.Account, error) {
	query := `SELECT` + accountColumns + ` FROM accounts WHERE user_id = $1`

	account, err := scanAccount(r.q.QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", userID, err)
	}
	return account, nil
}

// GetForUpdate retrieves an account and locks its row until the transaction ends
func (r *AccountRepository) GetForUpdate(ctx context.Context, userID string) (*entities.Account, error) {
	query := `SELECT` + accountColumns + ` FROM accounts WHERE user_id = $1 FOR UPDATE`

	account, err := scanAccount(r.q.QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock account %s: %w", userID, err)
	}
	return account, nil
}

// Create inserts a zeroed account
func (r *AccountRepository) Create(ctx context.Context, userID string) (*entities.Account, error) {
	query := `
		INSERT INTO accounts (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
		RETURNING` + accountColumns

	account, err := scanAccount(r.q.QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) || isUniqueViolation(err) {
		return nil, fmt.Errorf("%w: %s", entities.ErrAccountExists, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create account %s: %w", userID, err)
	}
	return account, nil
}

// Save writes every ledger field of an account
func (r *AccountRepository) Save(ctx context.Context, account *entities.Account) error {
	upgradeJSON, err := json.Marshal(account.UpgradeLevels)
	if err != nil {
		return fmt.Errorf("failed to marshal upgrade levels: %w", err)
	}
	prestigeJSON, err := json.Marshal(account.PrestigeUpgradeLevels)
	if err != nil {
		return fmt.Errorf("failed to marshal prestige upgrade levels: %w", err)
	}

	query := `
		UPDATE accounts
		SET balance = $2,
		    total_earned_all_time = $3,
		    upgrade_levels = $4,
		    prestige_level = $5,
		    prestige_points = $6,
		    prestige_upgrade_levels = $7,
		    updated_at = NOW()
		WHERE user_id = $1
		RETURNING updated_at
	`

	err = r.q.QueryRow(ctx, query,
		account.UserID,
		account.Balance,
		account.TotalEarnedAllTime,
		upgradeJSON,
		account.PrestigeLevel,
		account.PrestigePoints,
		prestigeJSON,
	).Scan(&account.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", entities.ErrAccountNotFound, account.UserID)
	}
	if err != nil {
		return fmt.Errorf("failed to save account %s: %w", account.UserID, err)
	}
	return nil
}

// RecordVisit bumps the presence counters with a single-statement increment
func (r *AccountRepository) RecordVisit(ctx context.Context, userID string) error {
	query := `
		UPDATE accounts
		SET visit_count = visit_count + 1,
		    last_seen_at = NOW()
		WHERE user_id = $1
	`

	result, err := r.q.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to record visit for %s: %w", userID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", entities.ErrAccountNotFound, userID)
	}
	return nil
}

func scanAccount(row pgx.Row) (*entities.Account, error) {
	var account entities.Account
	var upgradeJSON, prestigeJSON []byte

	err := row.Scan(
		&account.UserID,
		&account.Balance,
		&account.TotalEarnedAllTime,
		&upgradeJSON,
		&account.PrestigeLevel,
		&account.PrestigePoints,
		&prestigeJSON,
		&account.VisitCount,
		&account.LastSeenAt,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	account.UpgradeLevels = entities.UpgradeLevels{}
	if len(upgradeJSON) > 0 {
		if err := json.Unmarshal(upgradeJSON, &account.UpgradeLevels); err != nil {
			return nil, fmt.Errorf("failed to unmarshal upgrade levels: %w", err)
		}
	}
	account.PrestigeUpgradeLevels = entities.PrestigeLevels{}
	if len(prestigeJSON) > 0 {
		if err := json.Unmarshal(prestigeJSON, &account.PrestigeUpgradeLevels); err != nil {
			return nil, fmt.Errorf("failed to unmarshal prestige upgrade levels: %w", err)
		}
	}

	return &account, nil
}
