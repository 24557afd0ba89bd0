package memory

import (
	"context"
	"fmt"
	"sort"

	"fireworks/domain/entities"
)

type accountRepository struct {
	uow *unitOfWork
}

func (r *accountRepository) lookup(userID string) *entities.Account {
	if account, ok := r.uow.accounts[userID]; ok {
		return account
	}
	return r.uow.store.accounts[userID]
}

func (r *accountRepository) GetByID(_ context.Context, userID string) (*entities.Account, error) {
	account := r.lookup(userID)
	if account == nil {
		return nil, nil
	}
	return account.Clone(), nil
}

// GetForUpdate is GetByID: the store lock already excludes every other writer
func (r *accountRepository) GetForUpdate(ctx context.Context, userID string) (*entities.Account, error) {
	return r.GetByID(ctx, userID)
}

func (r *accountRepository) Create(_ context.Context, userID string) (*entities.Account, error) {
	if r.lookup(userID) != nil {
		return nil, fmt.Errorf("%w: %s", entities.ErrAccountExists, userID)
	}

	now := r.uow.store.now()
	account := entities.NewAccount(userID)
	account.CreatedAt = now
	account.UpdatedAt = now
	r.uow.accounts[userID] = account
	return account.Clone(), nil
}

func (r *accountRepository) Save(_ context.Context, account *entities.Account) error {
	if r.lookup(account.UserID) == nil {
		return fmt.Errorf("%w: %s", entities.ErrAccountNotFound, account.UserID)
	}
	// The postgres schema enforces these with CHECK constraints
	if err := account.Validate(); err != nil {
		return fmt.Errorf("failed to save account %s: %w", account.UserID, err)
	}

	account.UpdatedAt = r.uow.store.now()
	r.uow.accounts[account.UserID] = account.Clone()
	return nil
}

type betRepository struct {
	uow *unitOfWork
}

func (r *betRepository) lookup(id string) *entities.Bet {
	if bet, ok := r.uow.bets[id]; ok {
		return bet
	}
	return r.uow.store.bets[id]
}

func (r *betRepository) Create(_ context.Context, bet *entities.Bet) error {
	if r.lookup(bet.ID) != nil {
		return fmt.Errorf("failed to create bet %s: duplicate id", bet.ID)
	}
	if r.uow.accounts[bet.CreatorID] == nil && r.uow.store.accounts[bet.CreatorID] == nil {
		return fmt.Errorf("%w: %s", entities.ErrAccountNotFound, bet.CreatorID)
	}
	if bet.CreatedAt.IsZero() {
		bet.CreatedAt = r.uow.store.now()
	}
	r.uow.bets[bet.ID] = bet.Clone()
	return nil
}

func (r *betRepository) GetByID(_ context.Context, id string) (*entities.Bet, error) {
	bet := r.lookup(id)
	if bet == nil {
		return nil, nil
	}
	return bet.Clone(), nil
}

func (r *betRepository) GetForUpdate(ctx context.Context, id string) (*entities.Bet, error) {
	return r.GetByID(ctx, id)
}

func (r *betRepository) Update(_ context.Context, bet *entities.Bet) error {
	if r.lookup(bet.ID) == nil {
		return fmt.Errorf("%w: %s", entities.ErrBetNotFound, bet.ID)
	}
	r.uow.bets[bet.ID] = bet.Clone()
	return nil
}

func (r *betRepository) ListOpen(_ context.Context, limit int) ([]*entities.Bet, error) {
	return r.list(limit, func(b *entities.Bet) bool { return b.IsOpen() }), nil
}

func (r *betRepository) ListByUser(_ context.Context, userID string, limit int) ([]*entities.Bet, error) {
	return r.list(limit, func(b *entities.Bet) bool { return b.IsParticipant(userID) }), nil
}

func (r *betRepository) list(limit int, keep func(*entities.Bet) bool) []*entities.Bet {
	var bets []*entities.Bet
	for id := range r.uow.store.bets {
		if bet := r.lookup(id); keep(bet) {
			bets = append(bets, bet.Clone())
		}
	}
	for id, bet := range r.uow.bets {
		if _, committed := r.uow.store.bets[id]; !committed && keep(bet) {
			bets = append(bets, bet.Clone())
		}
	}

	sortBetsNewestFirst(bets)
	if limit > 0 && len(bets) > limit {
		bets = bets[:limit]
	}
	return bets
}

type balanceHistoryRepository struct {
	uow *unitOfWork
}

func (r *balanceHistoryRepository) Record(_ context.Context, history *entities.BalanceHistory) error {
	r.uow.store.nextHistoryID++
	history.ID = r.uow.store.nextHistoryID
	history.CreatedAt = r.uow.store.now()

	stored := *history
	r.uow.history = append(r.uow.history, &stored)
	return nil
}

func (r *balanceHistoryRepository) GetByUser(_ context.Context, userID string, limit int) ([]*entities.BalanceHistory, error) {
	var out []*entities.BalanceHistory
	for _, rows := range [][]*entities.BalanceHistory{r.uow.store.history, r.uow.history} {
		for _, h := range rows {
			if h.UserID == userID {
				row := *h
				out = append(out, &row)
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
