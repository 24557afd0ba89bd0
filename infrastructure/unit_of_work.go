package infrastructure

import (
	"context"

	"fireworks/application"
	"fireworks/domain/interfaces"
)

// unitOfWork wraps a store UnitOfWork and publishes its events once it commits
type unitOfWork struct {
	inner                  application.UnitOfWork
	transactionalPublisher *TransactionalPublisher
	ctx                    context.Context
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	u.ctx = ctx
	return u.inner.Begin(ctx)
}

// Commit commits the transaction and flushes events on success
func (u *unitOfWork) Commit() error {
	if err := u.inner.Commit(); err != nil {
		u.transactionalPublisher.Discard()
		return err
	}

	// Events are best effort once the commit landed
	_ = u.transactionalPublisher.Flush(context.WithoutCancel(u.ctx))
	return nil
}

// Rollback discards pending events and rolls back the transaction
func (u *unitOfWork) Rollback() error {
	u.transactionalPublisher.Discard()
	return u.inner.Rollback()
}

func (u *unitOfWork) AccountRepository() interfaces.AccountRepository {
	return u.inner.AccountRepository()
}

func (u *unitOfWork) BetRepository() interfaces.BetRepository {
	return u.inner.BetRepository()
}

func (u *unitOfWork) BalanceHistoryRepository() interfaces.BalanceHistoryRepository {
	return u.inner.BalanceHistoryRepository()
}

// EventBus returns the transactional event publisher
func (u *unitOfWork) EventBus() interfaces.EventPublisher {
	return u.inner.EventBus()
}
