// Package memory is an in-process Transactional Store used by tests and the headless
// simulator. One transaction runs at a time; writes are staged and applied on commit.
package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"fireworks/application"
	"fireworks/domain/entities"
	"fireworks/domain/interfaces"
)

// Store holds accounts, bets and balance history in memory
type Store struct {
	// sem is held from Begin until Commit or Rollback
	sem chan struct{}

	accounts      map[string]*entities.Account
	bets          map[string]*entities.Bet
	history       []*entities.BalanceHistory
	nextHistoryID int64
	now           func() time.Time
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		sem:      make(chan struct{}, 1),
		accounts: make(map[string]*entities.Account),
		bets:     make(map[string]*entities.Bet),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateWithPublisher creates a UnitOfWork whose EventBus is the given publisher
func (s *Store) CreateWithPublisher(eventPublisher interfaces.TransactionalEventPublisher) application.UnitOfWork {
	return &unitOfWork{store: s, eventPublisher: eventPublisher}
}

// Seed inserts or replaces an account outside any ledger transaction
func (s *Store) Seed(ctx context.Context, account *entities.Account) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	seeded := account.Clone()
	if seeded.CreatedAt.IsZero() {
		seeded.CreatedAt = s.now()
	}
	seeded.UpdatedAt = s.now()
	s.accounts[seeded.UserID] = seeded
	return nil
}

// RecordVisit bumps the presence counters of an account
func (s *Store) RecordVisit(ctx context.Context, userID string) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	account, ok := s.accounts[userID]
	if !ok {
		return fmt.Errorf("%w: %s", entities.ErrAccountNotFound, userID)
	}
	now := s.now()
	account.VisitCount++
	account.LastSeenAt = &now
	return nil
}

// TotalBalance sums every account balance
func (s *Store) TotalBalance(ctx context.Context) (int64, error) {
	if err := s.acquire(ctx); err != nil {
		return 0, err
	}
	defer s.release()

	var total int64
	for _, account := range s.accounts {
		total += account.Balance
	}
	return total, nil
}

func (s *Store) acquire(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", entities.ErrStoreUnavailable, ctx.Err())
	}
}

func (s *Store) release() {
	<-s.sem
}

// apply writes a committed transaction's staged changes
func (s *Store) apply(accounts map[string]*entities.Account, bets map[string]*entities.Bet, history []*entities.BalanceHistory) {
	for id, account := range accounts {
		s.accounts[id] = account
	}
	for id, bet := range bets {
		s.bets[id] = bet
	}
	s.history = append(s.history, history...)
}

func sortBetsNewestFirst(bets []*entities.Bet) {
	sort.SliceStable(bets, func(i, j int) bool {
		if bets[i].CreatedAt.Equal(bets[j].CreatedAt) {
			return bets[i].ID > bets[j].ID
		}
		return bets[i].CreatedAt.After(bets[j].CreatedAt)
	})
}
