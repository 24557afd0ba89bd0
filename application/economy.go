package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fireworks/domain/entities"
	"fireworks/domain/interfaces"
	"fireworks/domain/services"
	"fireworks/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

// Retrier reruns a whole transaction on store conflicts
type Retrier interface {
	Do(ctx context.Context, op string, fn func() error) error
}

// Economy is the entry point for every ledger operation. Each call runs in its
// own unit of work and either commits completely or not at all.
type Economy struct {
	uowFactory UnitOfWorkFactory
	presence   interfaces.PresenceRepository
	retrier    Retrier
	metrics    *observability.MetricsProvider
}

// NewEconomy creates a new Economy. retrier and metrics may be nil.
func NewEconomy(
	uowFactory UnitOfWorkFactory,
	presence interfaces.PresenceRepository,
	retrier Retrier,
	metrics *observability.MetricsProvider,
) *Economy {
	return &Economy{
		uowFactory: uowFactory,
		presence:   presence,
		retrier:    retrier,
		metrics:    metrics,
	}
}

// ledgerServices are the domain services bound to one unit of work
type ledgerServices struct {
	accounts interfaces.AccountService
	rewards  interfaces.RewardService
	upgrades interfaces.UpgradeService
	prestige interfaces.PrestigeService
	bets     interfaces.BetService
}

func newLedgerServices(uow UnitOfWork) *ledgerServices {
	ledger := services.NewLedgerService(uow.AccountRepository(), uow.BalanceHistoryRepository(), uow.EventBus())
	return &ledgerServices{
		accounts: services.NewAccountService(uow.AccountRepository(), uow.BalanceHistoryRepository(), uow.EventBus()),
		rewards:  services.NewRewardService(ledger),
		upgrades: services.NewUpgradeService(ledger, uow.EventBus()),
		prestige: services.NewPrestigeService(ledger, uow.EventBus()),
		bets:     services.NewBetService(uow.BetRepository(), ledger, uow.EventBus()),
	}
}

// run executes fn in a fresh unit of work, retrying the whole transaction on
// store conflicts. Business failures pass through untouched; anything else is
// reported as ErrStoreUnavailable.
func (e *Economy) run(ctx context.Context, op string, fn func(*ledgerServices) error) error {
	start := time.Now()

	attempt := func() error { return e.runOnce(ctx, fn) }
	var err error
	if e.retrier != nil {
		err = e.retrier.Do(ctx, op, attempt)
	} else {
		err = attempt()
	}
	if err != nil && !entities.IsBusinessError(err) && !errors.Is(err, entities.ErrStoreUnavailable) {
		err = fmt.Errorf("%w: %w", entities.ErrStoreUnavailable, err)
	}

	kind := entities.FailureKind(err)
	e.metrics.RecordLedgerOperation(op, kind, time.Since(start))
	if kind == entities.FailureStoreUnavailable {
		log.WithFields(log.Fields{
			"operation": op,
			"error":     err,
		}).Error("Ledger operation failed")
	}
	return err
}

func (e *Economy) runOnce(ctx context.Context, fn func(*ledgerServices) error) error {
	uow := e.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := fn(newLedgerServices(uow)); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func requireSignedIn(session entities.Session) error {
	if session.IsAnonymous() {
		return entities.ErrNotSignedIn
	}
	return nil
}

// SignUp returns the caller's account, creating it on first visit
func (e *Economy) SignUp(ctx context.Context, session entities.Session) (account *entities.Account, created bool, err error) {
	if err := requireSignedIn(session); err != nil {
		return nil, false, err
	}
	err = e.run(ctx, "sign_up", func(s *ledgerServices) error {
		account, created, err = s.accounts.GetOrCreate(ctx, session.UserID)
		return err
	})
	return account, created, err
}

// Account returns the caller's account
func (e *Economy) Account(ctx context.Context, session entities.Session) (*entities.Account, error) {
	if err := requireSignedIn(session); err != nil {
		return nil, err
	}
	return e.LoadAccount(ctx, session.UserID)
}

// LoadAccount reads any account by user id
func (e *Economy) LoadAccount(ctx context.Context, userID string) (account *entities.Account, err error) {
	err = e.run(ctx, "get_account", func(s *ledgerServices) error {
		account, err = s.accounts.Get(ctx, userID)
		return err
	})
	return account, err
}

// History returns the caller's latest balance changes
func (e *Economy) History(ctx context.Context, session entities.Session, limit int) ([]*entities.BalanceHistory, error) {
	if err := requireSignedIn(session); err != nil {
		return nil, err
	}
	return e.history(ctx, session.UserID, limit)
}

// AdminHistory returns any user's balance changes. Elevated sessions only.
func (e *Economy) AdminHistory(ctx context.Context, session entities.Session, userID string, limit int) ([]*entities.BalanceHistory, error) {
	if !session.Elevated {
		return nil, entities.ErrForbidden
	}
	return e.history(ctx, userID, limit)
}

func (e *Economy) history(ctx context.Context, userID string, limit int) (history []*entities.BalanceHistory, err error) {
	err = e.run(ctx, "history", func(s *ledgerServices) error {
		history, err = s.accounts.History(ctx, userID, limit)
		return err
	})
	return history, err
}

// Credit applies an engine reward
func (e *Economy) Credit(ctx context.Context, reward entities.RewardEvent) (account *entities.Account, err error) {
	err = e.run(ctx, "credit_reward", func(s *ledgerServices) error {
		account, err = s.rewards.Credit(ctx, reward)
		return err
	})
	return account, err
}

// PurchaseUpgrade buys the next level of a fireworks upgrade
func (e *Economy) PurchaseUpgrade(ctx context.Context, session entities.Session, kind entities.UpgradeKind, expectedLevel int) (account *entities.Account, err error) {
	if err := requireSignedIn(session); err != nil {
		return nil, err
	}
	err = e.run(ctx, "purchase_upgrade", func(s *ledgerServices) error {
		account, err = s.upgrades.Purchase(ctx, session.UserID, kind, expectedLevel)
		return err
	})
	return account, err
}

// PurchasePrestigeUpgrade buys the next level of a prestige upgrade
func (e *Economy) PurchasePrestigeUpgrade(ctx context.Context, session entities.Session, kind entities.PrestigeUpgradeKind, expectedLevel int) (account *entities.Account, err error) {
	if err := requireSignedIn(session); err != nil {
		return nil, err
	}
	err = e.run(ctx, "purchase_prestige_upgrade", func(s *ledgerServices) error {
		account, err = s.upgrades.PurchasePrestige(ctx, session.UserID, kind, expectedLevel)
		return err
	})
	return account, err
}

// Prestige trades the caller's balance for prestige points
func (e *Economy) Prestige(ctx context.Context, session entities.Session) (result *entities.PrestigeResult, err error) {
	if err := requireSignedIn(session); err != nil {
		return nil, err
	}
	err = e.run(ctx, "prestige", func(s *ledgerServices) error {
		result, err = s.prestige.Prestige(ctx, session.UserID)
		return err
	})
	return result, err
}

// CreateBet opens a bet, escrowing the wager from the caller
func (e *Economy) CreateBet(ctx context.Context, session entities.Session, wager int64) (bet *entities.Bet, err error) {
	if err := requireSignedIn(session); err != nil {
		return nil, err
	}
	err = e.run(ctx, "bet_create", func(s *ledgerServices) error {
		bet, err = s.bets.Create(ctx, session.UserID, wager)
		return err
	})
	return bet, err
}

// AcceptBet joins an open bet as the opponent
func (e *Economy) AcceptBet(ctx context.Context, session entities.Session, betID string) (*entities.Bet, error) {
	return e.betTransition(ctx, session, "bet_accept", betID, func(s *ledgerServices) func(context.Context, string, string) (*entities.Bet, error) {
		return s.bets.Accept
	})
}

// DeclareWinner claims the pot of an accepted bet for the caller
func (e *Economy) DeclareWinner(ctx context.Context, session entities.Session, betID string) (*entities.Bet, error) {
	return e.betTransition(ctx, session, "bet_declare_winner", betID, func(s *ledgerServices) func(context.Context, string, string) (*entities.Bet, error) {
		return s.bets.DeclareWinner
	})
}

// CancelBet withdraws an open bet and refunds the caller
func (e *Economy) CancelBet(ctx context.Context, session entities.Session, betID string) (*entities.Bet, error) {
	return e.betTransition(ctx, session, "bet_cancel", betID, func(s *ledgerServices) func(context.Context, string, string) (*entities.Bet, error) {
		return s.bets.Cancel
	})
}

func (e *Economy) betTransition(
	ctx context.Context,
	session entities.Session,
	op, betID string,
	pick func(*ledgerServices) func(context.Context, string, string) (*entities.Bet, error),
) (bet *entities.Bet, err error) {
	if err := requireSignedIn(session); err != nil {
		return nil, err
	}
	err = e.run(ctx, op, func(s *ledgerServices) error {
		bet, err = pick(s)(ctx, betID, session.UserID)
		return err
	})
	return bet, err
}

// Bet returns one bet
func (e *Economy) Bet(ctx context.Context, betID string) (bet *entities.Bet, err error) {
	err = e.run(ctx, "bet_get", func(s *ledgerServices) error {
		bet, err = s.bets.Get(ctx, betID)
		return err
	})
	return bet, err
}

// OpenBets lists bets waiting for an opponent, newest first
func (e *Economy) OpenBets(ctx context.Context, limit int) (bets []*entities.Bet, err error) {
	err = e.run(ctx, "bet_list_open", func(s *ledgerServices) error {
		bets, err = s.bets.ListOpen(ctx, limit)
		return err
	})
	return bets, err
}

// MyBets lists bets the caller created or accepted, newest first
func (e *Economy) MyBets(ctx context.Context, session entities.Session, limit int) (bets []*entities.Bet, err error) {
	if err := requireSignedIn(session); err != nil {
		return nil, err
	}
	err = e.run(ctx, "bet_list_mine", func(s *ledgerServices) error {
		bets, err = s.bets.ListByUser(ctx, session.UserID, limit)
		return err
	})
	return bets, err
}

// RecordVisit bumps the caller's presence counters outside any ledger transaction
func (e *Economy) RecordVisit(ctx context.Context, session entities.Session) error {
	if err := requireSignedIn(session); err != nil {
		return err
	}
	if err := e.presence.RecordVisit(ctx, session.UserID); err != nil {
		if entities.IsBusinessError(err) {
			return err
		}
		return fmt.Errorf("%w: %w", entities.ErrStoreUnavailable, err)
	}
	return nil
}
