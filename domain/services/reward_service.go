package services

import (
	"context"
	"fmt"

	"fireworks/domain/entities"
	"fireworks/domain/interfaces"
)

type rewardService struct {
	ledger interfaces.LedgerService
}

// NewRewardService creates a reward service that credits through the ledger
func NewRewardService(ledger interfaces.LedgerService) interfaces.RewardService {
	return &rewardService{ledger: ledger}
}

// Credit adds a resolved target's reward to the user's balance and lifetime total
func (s *rewardService) Credit(ctx context.Context, reward entities.RewardEvent) (*entities.Account, error) {
	if reward.UserID == "" {
		return nil, entities.ErrNotSignedIn
	}
	if reward.Amount <= 0 {
		return nil, fmt.Errorf("%w: reward of %d", entities.ErrInvalidAmount, reward.Amount)
	}

	entry := interfaces.LedgerEntry{
		TransactionType: reward.TransactionType(),
		Metadata: map[string]any{
			"source": string(reward.Source),
			"golden": reward.Golden,
			"lucky":  reward.Lucky,
		},
	}
	return s.ledger.ApplyDelta(ctx, reward.UserID, entry, entities.Deltas{entities.FieldBalance: reward.Amount})
}
