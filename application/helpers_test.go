package application_test

import (
	"context"
	"testing"

	"fireworks/application"
	"fireworks/domain/entities"
	"fireworks/infrastructure"
	"fireworks/repository/memory"

	"github.com/stretchr/testify/require"
)

type testEconomy struct {
	economy *application.Economy
	store   *memory.Store
	bus     *infrastructure.LocalEventBus
}

func newTestEconomy(t *testing.T) *testEconomy {
	t.Helper()
	store := memory.NewStore()
	bus := infrastructure.NewLocalEventBus(nil)
	factory := infrastructure.NewUnitOfWorkFactory(store, bus)
	return &testEconomy{
		economy: application.NewEconomy(factory, store, nil, nil),
		store:   store,
		bus:     bus,
	}
}

func (te *testEconomy) seed(t *testing.T, userID string, balance int64) entities.Session {
	t.Helper()
	account := entities.NewAccount(userID)
	account.Balance = balance
	require.NoError(t, te.store.Seed(context.Background(), account))
	return entities.Session{UserID: userID}
}

func (te *testEconomy) balance(t *testing.T, userID string) int64 {
	t.Helper()
	account, err := te.economy.LoadAccount(context.Background(), userID)
	require.NoError(t, err)
	return account.Balance
}

func (te *testEconomy) total(t *testing.T) int64 {
	t.Helper()
	total, err := te.store.TotalBalance(context.Background())
	require.NoError(t, err)
	return total
}

// brokenUoW fails to begin, like a database that refuses connections
type brokenUoW struct {
	application.UnitOfWork
	err error
}

func (u *brokenUoW) Begin(context.Context) error { return u.err }

type brokenFactory struct {
	err error
}

func (f brokenFactory) Create() application.UnitOfWork {
	return &brokenUoW{err: f.err}
}
