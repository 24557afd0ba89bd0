package utils

import (
	"context"
	"fmt"

	"fireworks/domain/entities"
	"fireworks/domain/events"
	"fireworks/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// RecordBalanceChange writes the audit row for a committed-to-be balance change and
// raises the matching BalanceChangeEvent on the transaction's publisher. The event only
// leaves the process if the surrounding unit of work commits.
func RecordBalanceChange(ctx context.Context, historyRepo interfaces.BalanceHistoryRepository, publisher interfaces.EventPublisher, history *entities.BalanceHistory) error {
	if err := history.ValidateTransaction(); err != nil {
		return fmt.Errorf("invalid balance change for user %s: %w", history.UserID, err)
	}
	if err := historyRepo.Record(ctx, history); err != nil {
		return fmt.Errorf("failed to record balance history: %w", err)
	}

	// A lost notification must not undo the ledger write
	if err := publisher.Publish(balanceChanged(history)); err != nil {
		log.WithFields(log.Fields{
			"userID":          history.UserID,
			"transactionType": history.TransactionType,
			"error":           err,
		}).Warn("Balance change recorded but event not queued")
	}
	return nil
}

func balanceChanged(history *entities.BalanceHistory) events.BalanceChangeEvent {
	return events.BalanceChangeEvent{
		UserID:          history.UserID,
		OldBalance:      history.BalanceBefore,
		NewBalance:      history.BalanceAfter,
		ChangeAmount:    history.ChangeAmount,
		TransactionType: history.TransactionType,
	}
}
