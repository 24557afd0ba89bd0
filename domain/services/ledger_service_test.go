package services

import (
	"context"
	"errors"
	"testing"

	"fireworks/domain/entities"
	"fireworks/domain/events"
	"fireworks/domain/interfaces"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestLedgerService_ApplyDelta(t *testing.T) {
	ctx := context.Background()

	t.Run("reward credit increments lifetime total", func(t *testing.T) {
		mocks := NewTestMocks()
		mocks.ExpectAccountLock(accountWith(TestUser1ID, 100))
		mocks.ExpectAccountSave(func(a *entities.Account) bool {
			return a.Balance == 104 && a.TotalEarnedAllTime == 104
		})
		mocks.ExpectHistory(TestUser1ID, 4, entities.TransactionTypeRewardManual)
		mocks.ExpectEventPublish(events.EventTypeBalanceChange)

		account, err := mocks.Ledger().ApplyDelta(ctx, TestUser1ID,
			interfaces.LedgerEntry{TransactionType: entities.TransactionTypeRewardManual},
			entities.Deltas{entities.FieldBalance: 4})

		require.NoError(t, err)
		assert.Equal(t, int64(104), account.Balance)
		assert.Equal(t, int64(104), account.TotalEarnedAllTime)
		mocks.AssertAllExpectations(t)
	})

	t.Run("bet payout does not count as earned", func(t *testing.T) {
		mocks := NewTestMocks()
		mocks.ExpectAccountLock(accountWith(TestUser1ID, 100))
		mocks.ExpectAccountSave(func(a *entities.Account) bool {
			return a.Balance == 300 && a.TotalEarnedAllTime == 100
		})
		mocks.ExpectHistory(TestUser1ID, 200, entities.TransactionTypeBetPayout)
		mocks.ExpectEventPublish(events.EventTypeBalanceChange)

		account, err := mocks.Ledger().ApplyDelta(ctx, TestUser1ID,
			interfaces.LedgerEntry{TransactionType: entities.TransactionTypeBetPayout},
			entities.Deltas{entities.FieldBalance: 200})

		require.NoError(t, err)
		assert.Equal(t, int64(100), account.TotalEarnedAllTime)
		mocks.AssertAllExpectations(t)
	})

	t.Run("overdraft is rejected without writes", func(t *testing.T) {
		mocks := NewTestMocks()
		original := accountWith(TestUser1ID, 120)
		mocks.ExpectAccountLock(original)

		_, err := mocks.Ledger().ApplyDelta(ctx, TestUser1ID,
			interfaces.LedgerEntry{TransactionType: entities.TransactionTypeUpgradePurchase},
			entities.Deltas{entities.FieldBalance: -1600})

		require.Error(t, err)
		assert.True(t, errors.Is(err, entities.ErrInsufficientBalance))
		assert.Equal(t, "not enough fireworks: need 1.6k, have 120", err.Error())
		assert.Equal(t, int64(120), original.Balance)
		mocks.AccountRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		mocks.BalanceHistoryRepo.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
		mocks.AssertAllExpectations(t)
	})

	t.Run("missing account", func(t *testing.T) {
		mocks := NewTestMocks()
		mocks.AccountRepo.On("GetForUpdate", mock.Anything, TestUser3ID).Return(nil, nil)

		_, err := mocks.Ledger().ApplyDelta(ctx, TestUser3ID,
			interfaces.LedgerEntry{TransactionType: entities.TransactionTypeRewardAuto},
			entities.Deltas{entities.FieldBalance: 1})

		assert.True(t, errors.Is(err, entities.ErrAccountNotFound))
		mocks.AssertAllExpectations(t)
	})

	t.Run("level-only change writes no history", func(t *testing.T) {
		mocks := NewTestMocks()
		mocks.ExpectAccountLock(accountWith(TestUser1ID, 0))
		mocks.ExpectAccountSave(func(a *entities.Account) bool {
			return a.Level(entities.UpgradeGoldRush) == 1
		})

		_, err := mocks.Ledger().ApplyDelta(ctx, TestUser1ID,
			interfaces.LedgerEntry{TransactionType: entities.TransactionTypeAdjustment},
			entities.Deltas{entities.UpgradeField(entities.UpgradeGoldRush): 1})

		require.NoError(t, err)
		mocks.AssertAllExpectations(t)
	})

	t.Run("repository failure is wrapped", func(t *testing.T) {
		mocks := NewTestMocks()
		mocks.AccountRepo.On("GetForUpdate", mock.Anything, TestUser1ID).Return(nil, errors.New("connection reset"))

		_, err := mocks.Ledger().ApplyDelta(ctx, TestUser1ID,
			interfaces.LedgerEntry{TransactionType: entities.TransactionTypeRewardAuto},
			entities.Deltas{entities.FieldBalance: 1})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to lock account")
		assert.False(t, entities.IsBusinessError(err))
	})
}

func TestLedgerService_Mutate_PassesCopy(t *testing.T) {
	mocks := NewTestMocks()
	locked := accountWith(TestUser1ID, 50)
	mocks.ExpectAccountLock(locked)

	_, err := mocks.Ledger().Mutate(context.Background(), TestUser1ID,
		interfaces.LedgerEntry{TransactionType: entities.TransactionTypeAdjustment},
		func(current *entities.Account) (entities.Deltas, error) {
			current.Balance = 1_000_000
			return nil, entities.ErrBelowThreshold
		})

	assert.True(t, errors.Is(err, entities.ErrBelowThreshold))
	assert.Equal(t, int64(50), locked.Balance)
	mocks.AssertAllExpectations(t)
}
