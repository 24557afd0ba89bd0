package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"fireworks/domain/entities"
	"fireworks/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopPublisher struct{}

func (nopPublisher) Publish(events.Event) error  { return nil }
func (nopPublisher) Flush(context.Context) error { return nil }
func (nopPublisher) Discard()                    {}

func TestStore_RollbackDiscardsStagedWrites(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.Seed(ctx, &entities.Account{UserID: "alice", Balance: 10}))

	uow := store.CreateWithPublisher(nopPublisher{})
	require.NoError(t, uow.Begin(ctx))

	account, err := uow.AccountRepository().GetForUpdate(ctx, "alice")
	require.NoError(t, err)
	account.Balance = 0
	require.NoError(t, uow.AccountRepository().Save(ctx, account))

	staged, err := uow.AccountRepository().GetByID(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(0), staged.Balance)

	require.NoError(t, uow.Rollback())

	total, err := store.TotalBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(10), total)
}

func TestStore_CommitAppliesWrites(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	uow := store.CreateWithPublisher(nopPublisher{})
	require.NoError(t, uow.Begin(ctx))
	_, err := uow.AccountRepository().Create(ctx, "bob")
	require.NoError(t, err)

	_, err = uow.AccountRepository().Create(ctx, "bob")
	assert.True(t, errors.Is(err, entities.ErrAccountExists))

	bet := &entities.Bet{ID: "b1", CreatorID: "bob", Wager: 5, Status: entities.BetStatusOpen}
	require.NoError(t, uow.BetRepository().Create(ctx, bet))

	open, err := uow.BetRepository().ListOpen(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, open, 1)
	require.NoError(t, uow.Commit())

	check := store.CreateWithPublisher(nopPublisher{})
	require.NoError(t, check.Begin(ctx))
	defer check.Rollback()

	got, err := check.BetRepository().GetByID(ctx, "b1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(5), got.Wager)

	mine, err := check.BetRepository().ListByUser(ctx, "bob", 10)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestStore_SaveRejectsNegativeBalance(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.Seed(ctx, entities.NewAccount("carol")))

	uow := store.CreateWithPublisher(nopPublisher{})
	require.NoError(t, uow.Begin(ctx))
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetForUpdate(ctx, "carol")
	require.NoError(t, err)
	account.Balance = -1
	assert.Error(t, uow.AccountRepository().Save(ctx, account))
}

func TestStore_BeginWaitsForLock(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	first := store.CreateWithPublisher(nopPublisher{})
	require.NoError(t, first.Begin(ctx))

	waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	second := store.CreateWithPublisher(nopPublisher{})
	err := second.Begin(waitCtx)
	assert.True(t, errors.Is(err, entities.ErrStoreUnavailable))

	require.NoError(t, first.Commit())
	require.NoError(t, second.Begin(ctx))
	require.NoError(t, second.Rollback())
}

func TestStore_RecordVisit(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.Seed(ctx, entities.NewAccount("dave")))

	require.NoError(t, store.RecordVisit(ctx, "dave"))
	assert.True(t, errors.Is(store.RecordVisit(ctx, "nobody"), entities.ErrAccountNotFound))

	uow := store.CreateWithPublisher(nopPublisher{})
	require.NoError(t, uow.Begin(ctx))
	defer uow.Rollback()
	account, err := uow.AccountRepository().GetByID(ctx, "dave")
	require.NoError(t, err)
	assert.Equal(t, int64(1), account.VisitCount)
	assert.NotNil(t, account.LastSeenAt)
}

func TestStore_HistoryNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.Seed(ctx, entities.NewAccount("erin")))

	uow := store.CreateWithPublisher(nopPublisher{})
	require.NoError(t, uow.Begin(ctx))
	for i := int64(1); i <= 3; i++ {
		require.NoError(t, uow.BalanceHistoryRepository().Record(ctx, &entities.BalanceHistory{
			UserID:          "erin",
			BalanceBefore:   i - 1,
			BalanceAfter:    i,
			ChangeAmount:    1,
			TransactionType: entities.TransactionTypeRewardManual,
		}))
	}
	require.NoError(t, uow.Commit())

	read := store.CreateWithPublisher(nopPublisher{})
	require.NoError(t, read.Begin(ctx))
	defer read.Rollback()
	history, err := read.BalanceHistoryRepository().GetByUser(ctx, "erin", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, int64(3), history[0].BalanceAfter)
}
