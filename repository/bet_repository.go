package repository

import (
	"context"
	"errors"
	"fmt"

	"fireworks/database"
	"fireworks/domain/entities"

	"github.com/jackc/pgx/v5"
)

const betColumns = `
	id::text,
	creator_id,
	opponent_id,
	wager,
	status,
	winner_id,
	created_at,
	accepted_at,
	completed_at`

// BetRepository implements the BetRepository interface
type BetRepository struct {
	q Queryable
}

// NewBetRepository creates a new bet repository on the pool
func NewBetRepository(db *database.DB) *BetRepository {
	return &BetRepository{q: db.Pool}
}

// newBetRepositoryWithTx creates a new bet repository with a transaction
func newBetRepositoryWithTx(tx Queryable) *BetRepository {
	return &BetRepository{q: tx}
}

// Create inserts a new bet
func (r *BetRepository) Create(ctx context.Context, bet *entities.Bet) error {
	query := `
		INSERT INTO bets (id, creator_id, wager, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.q.QueryRow(ctx, query,
		bet.ID,
		bet.CreatorID,
		bet.Wager,
		bet.Status,
		bet.CreatedAt,
	).Scan(&bet.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create bet %s: %w", bet.ID, err)
	}
	return nil
}

// GetByID retrieves a bet without locking it
func (r *BetRepository) GetByID(ctx context.Context, id string) (*entities.Bet, error) {
	query := `SELECT` + betColumns + ` FROM bets WHERE id = $1`

	bet, err := scanBet(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bet %s: %w", id, err)
	}
	return bet, nil
}

// GetForUpdate retrieves a bet and locks its row until the transaction ends
func (r *BetRepository) GetForUpdate(ctx context.Context, id string) (*entities.Bet, error) {
	query := `SELECT` + betColumns + ` FROM bets WHERE id = $1 FOR UPDATE`

	bet, err := scanBet(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock bet %s: %w", id, err)
	}
	return bet, nil
}

// Update writes a bet's state fields
func (r *BetRepository) Update(ctx context.Context, bet *entities.Bet) error {
	query := `
		UPDATE bets
		SET opponent_id = $2,
		    status = $3,
		    winner_id = $4,
		    accepted_at = $5,
		    completed_at = $6
		WHERE id = $1
	`

	result, err := r.q.Exec(ctx, query,
		bet.ID,
		bet.OpponentID,
		bet.Status,
		bet.WinnerID,
		bet.AcceptedAt,
		bet.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update bet %s: %w", bet.ID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", entities.ErrBetNotFound, bet.ID)
	}
	return nil
}

// ListOpen returns open bets, newest first
func (r *BetRepository) ListOpen(ctx context.Context, limit int) ([]*entities.Bet, error) {
	query := `SELECT` + betColumns + `
		FROM bets
		WHERE status = 'open'
		ORDER BY created_at DESC
		LIMIT $1`

	return r.list(ctx, query, limit)
}

// ListByUser returns bets the user created or accepted, newest first
func (r *BetRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*entities.Bet, error) {
	query := `SELECT` + betColumns + `
		FROM bets
		WHERE creator_id = $1 OR opponent_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	return r.list(ctx, query, userID, limit)
}

func (r *BetRepository) list(ctx context.Context, query string, args ...any) ([]*entities.Bet, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bets: %w", err)
	}
	defer rows.Close()

	var bets []*entities.Bet
	for rows.Next() {
		bet, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}
		bets = append(bets, bet)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bets: %w", err)
	}
	return bets, nil
}

func scanBet(row pgx.Row) (*entities.Bet, error) {
	var bet entities.Bet
	err := row.Scan(
		&bet.ID,
		&bet.CreatorID,
		&bet.OpponentID,
		&bet.Wager,
		&bet.Status,
		&bet.WinnerID,
		&bet.CreatedAt,
		&bet.AcceptedAt,
		&bet.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &bet, nil
}
