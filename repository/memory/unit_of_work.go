package memory

import (
	"context"
	"fmt"

	"fireworks/domain/entities"
	"fireworks/domain/interfaces"
)

// unitOfWork stages writes against a Store while holding its lock
type unitOfWork struct {
	store          *Store
	eventPublisher interfaces.EventPublisher
	active         bool

	accounts map[string]*entities.Account
	bets     map[string]*entities.Bet
	history  []*entities.BalanceHistory
}

// Begin takes the store lock
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.active {
		return fmt.Errorf("transaction already started")
	}
	if err := u.store.acquire(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.active = true
	u.accounts = make(map[string]*entities.Account)
	u.bets = make(map[string]*entities.Bet)
	u.history = nil
	return nil
}

// Commit applies the staged writes and releases the store
func (u *unitOfWork) Commit() error {
	if !u.active {
		return fmt.Errorf("no transaction to commit")
	}

	u.store.apply(u.accounts, u.bets, u.history)
	u.finish()
	return nil
}

// Rollback drops the staged writes and releases the store
func (u *unitOfWork) Rollback() error {
	if !u.active {
		return nil // Nothing to rollback
	}
	u.finish()
	return nil
}

func (u *unitOfWork) finish() {
	u.active = false
	u.accounts = nil
	u.bets = nil
	u.history = nil
	u.store.release()
}

// AccountRepository returns the account repository for this unit of work
func (u *unitOfWork) AccountRepository() interfaces.AccountRepository {
	u.mustBeActive()
	return &accountRepository{uow: u}
}

// BetRepository returns the bet repository for this unit of work
func (u *unitOfWork) BetRepository() interfaces.BetRepository {
	u.mustBeActive()
	return &betRepository{uow: u}
}

// BalanceHistoryRepository returns the balance history repository for this unit of work
func (u *unitOfWork) BalanceHistoryRepository() interfaces.BalanceHistoryRepository {
	u.mustBeActive()
	return &balanceHistoryRepository{uow: u}
}

// EventBus returns the transactional event publisher for this unit of work
func (u *unitOfWork) EventBus() interfaces.EventPublisher {
	u.mustBeActive()
	return u.eventPublisher
}

func (u *unitOfWork) mustBeActive() {
	if !u.active {
		panic("unit of work not started - call Begin() first")
	}
}
