package services

import (
	"context"
	"fmt"

	"fireworks/domain/entities"
	"fireworks/domain/interfaces"
	"fireworks/domain/utils"

	log "github.com/sirupsen/logrus"
)

// ledgerService applies field deltas to one account inside the caller's transaction.
// Every check runs against the row as locked by this transaction, so a concurrent
// writer is either fully visible or fully excluded.
type ledgerService struct {
	accountRepo        interfaces.AccountRepository
	balanceHistoryRepo interfaces.BalanceHistoryRepository
	eventPublisher     interfaces.EventPublisher
}

// NewLedgerService creates a new ledger service
func NewLedgerService(
	accountRepo interfaces.AccountRepository,
	balanceHistoryRepo interfaces.BalanceHistoryRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.LedgerService {
	return &ledgerService{
		accountRepo:        accountRepo,
		balanceHistoryRepo: balanceHistoryRepo,
		eventPublisher:     eventPublisher,
	}
}

// ApplyDelta applies a fixed set of deltas
func (s *ledgerService) ApplyDelta(ctx context.Context, userID string, entry interfaces.LedgerEntry, deltas entities.Deltas) (*entities.Account, error) {
	return s.Mutate(ctx, userID, entry, func(*entities.Account) (entities.Deltas, error) {
		return deltas, nil
	})
}

// Mutate locks the account, derives deltas from it and commits them with a history row
func (s *ledgerService) Mutate(ctx context.Context, userID string, entry interfaces.LedgerEntry, fn interfaces.DeltaFunc) (*entities.Account, error) {
	current, err := s.accountRepo.GetForUpdate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}
	if current == nil {
		return nil, fmt.Errorf("%w: %s", entities.ErrAccountNotFound, userID)
	}

	deltas, err := fn(current.Clone())
	if err != nil {
		return nil, err
	}

	updated, err := entities.ApplyDeltas(current, deltas, entry.TransactionType.IsReward())
	if err != nil {
		log.WithFields(log.Fields{
			"userID":          userID,
			"transactionType": entry.TransactionType,
			"error":           err,
		}).Debug("Ledger delta rejected")
		return nil, err
	}

	if err := s.accountRepo.Save(ctx, updated); err != nil {
		return nil, fmt.Errorf("failed to save account: %w", err)
	}

	if change := updated.Balance - current.Balance; change != 0 {
		history := &entities.BalanceHistory{
			UserID:              userID,
			BalanceBefore:       current.Balance,
			BalanceAfter:        updated.Balance,
			ChangeAmount:        change,
			TransactionType:     entry.TransactionType,
			TransactionMetadata: entry.Metadata,
			RelatedID:           entry.RelatedID,
			RelatedType:         entry.RelatedType,
		}
		if err := utils.RecordBalanceChange(ctx, s.balanceHistoryRepo, s.eventPublisher, history); err != nil {
			return nil, fmt.Errorf("failed to record balance change: %w", err)
		}
	}

	return updated, nil
}
