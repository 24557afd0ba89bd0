package testutil

import (
	"time"

	"fireworks/domain/entities"

	"github.com/google/uuid"
)

// CreateTestAccount creates an account with a balance and some purchased upgrades
func CreateTestAccount(userID string, balance int64) *entities.Account {
	account := entities.NewAccount(userID)
	account.Balance = balance
	account.TotalEarnedAllTime = balance
	account.UpgradeLevels[entities.UpgradeRewardWorth] = 2
	account.UpgradeLevels[entities.UpgradeClickMultiplier] = 3
	return account
}

// CreateTestBet creates an open bet
func CreateTestBet(creatorID string, wager int64) *entities.Bet {
	return &entities.Bet{
		ID:        uuid.NewString(),
		CreatorID: creatorID,
		Wager:     wager,
		Status:    entities.BetStatusOpen,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

// CreateTestBalanceHistory creates a test balance history entry
func CreateTestBalanceHistory(userID string, transactionType entities.TransactionType) *entities.BalanceHistory {
	return &entities.BalanceHistory{
		UserID:          userID,
		BalanceBefore:   0,
		BalanceAfter:    100,
		ChangeAmount:    100,
		TransactionType: transactionType,
		TransactionMetadata: map[string]any{
			"test": true,
		},
	}
}
