package application_test

import (
	"context"
	"testing"
	"time"

	"fireworks/application"
	"fireworks/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type creditOutcome struct {
	account *entities.Account
	err     error
}

func collect(results chan<- creditOutcome) application.CreditResult {
	return func(account *entities.Account, err error) {
		results <- creditOutcome{account: account, err: err}
	}
}

func TestRewardCrediter_CreditsInBackground(t *testing.T) {
	te := newTestEconomy(t)
	te.seed(t, "alice", 0)
	crediter := application.NewRewardCrediter(te.economy, nil, time.Second, 2, 8)
	defer crediter.Close()

	results := make(chan creditOutcome, 3)
	for _, amount := range []int64{1, 5, 10} {
		crediter.Submit(entities.RewardEvent{UserID: "alice", Amount: amount, Source: entities.RewardSourceManualClick}, collect(results))
	}

	for i := 0; i < 3; i++ {
		select {
		case out := <-results:
			require.NoError(t, out.err)
			assert.Equal(t, "alice", out.account.UserID)
		case <-time.After(5 * time.Second):
			t.Fatal("credit never finished")
		}
	}

	account, err := te.economy.LoadAccount(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(16), account.Balance)
	assert.Equal(t, int64(16), account.TotalEarnedAllTime)
}

func TestRewardCrediter_ReportsLedgerRejections(t *testing.T) {
	te := newTestEconomy(t)
	crediter := application.NewRewardCrediter(te.economy, nil, time.Second, 1, 1)
	defer crediter.Close()

	results := make(chan creditOutcome, 1)
	crediter.Submit(entities.RewardEvent{UserID: "ghost", Amount: 1, Source: entities.RewardSourceAutoClick}, collect(results))

	out := <-results
	assert.ErrorIs(t, out.err, entities.ErrAccountNotFound)
	assert.Nil(t, out.account)
}

func TestRewardCrediter_DropsAfterClose(t *testing.T) {
	te := newTestEconomy(t)
	te.seed(t, "alice", 0)
	crediter := application.NewRewardCrediter(te.economy, nil, time.Second, 1, 1)
	crediter.Close()
	crediter.Close()

	results := make(chan creditOutcome, 1)
	crediter.Submit(entities.RewardEvent{UserID: "alice", Amount: 1}, collect(results))

	out := <-results
	assert.ErrorIs(t, out.err, entities.ErrStoreUnavailable)
	assert.Equal(t, int64(0), te.balance(t, "alice"))
}

func TestRewardCrediter_DropsWhenQueueIsFull(t *testing.T) {
	te := newTestEconomy(t)
	te.seed(t, "alice", 0)

	// Hold the store so the single worker blocks on its first credit
	uow := te.store.CreateWithPublisher(nil)
	require.NoError(t, uow.Begin(context.Background()))

	crediter := application.NewRewardCrediter(te.economy, nil, 5*time.Second, 1, 1)
	defer crediter.Close()

	results := make(chan creditOutcome, 8)
	reward := entities.RewardEvent{UserID: "alice", Amount: 1, Source: entities.RewardSourceManualClick}

	var dropped int
	for i := 0; i < 8; i++ {
		crediter.Submit(reward, collect(results))
	}
	require.Eventually(t, func() bool {
		for {
			select {
			case out := <-results:
				if assert.ErrorIs(t, out.err, entities.ErrStoreUnavailable) {
					dropped++
				}
			default:
				return dropped >= 6
			}
		}
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, uow.Rollback())
}
