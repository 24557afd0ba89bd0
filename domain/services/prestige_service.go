package services

import (
	"context"
	"fmt"

	"fireworks/domain/entities"
	"fireworks/domain/events"
	"fireworks/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

type prestigeService struct {
	ledger         interfaces.LedgerService
	eventPublisher interfaces.EventPublisher
}

// NewPrestigeService creates a new prestige service
func NewPrestigeService(ledger interfaces.LedgerService, eventPublisher interfaces.EventPublisher) interfaces.PrestigeService {
	return &prestigeService{
		ledger:         ledger,
		eventPublisher: eventPublisher,
	}
}

// Prestige trades the whole balance for prestige points and resets every upgrade
// to the account's starting bonus level
func (s *prestigeService) Prestige(ctx context.Context, userID string) (*entities.PrestigeResult, error) {
	if userID == "" {
		return nil, entities.ErrNotSignedIn
	}

	result := &entities.PrestigeResult{}
	metadata := map[string]any{}
	entry := interfaces.LedgerEntry{
		TransactionType: entities.TransactionTypePrestigeReset,
		Metadata:        metadata,
	}

	account, err := s.ledger.Mutate(ctx, userID, entry, func(current *entities.Account) (entities.Deltas, error) {
		if !current.CanPrestige() {
			return nil, fmt.Errorf("%w: have %d, need %d", entities.ErrBelowThreshold, current.Balance, entities.PrestigeThreshold)
		}

		result.BalanceSpent = current.Balance
		result.PointsGained = entities.PrestigePointsFor(current.Balance)
		result.StartingLevel = current.PrestigeUpgradeLevel(entities.PrestigeStartingBonus)

		deltas := entities.Deltas{
			entities.FieldBalance:        -current.Balance,
			entities.FieldPrestigePoints: result.PointsGained,
			entities.FieldPrestigeLevel:  1,
		}
		for _, kind := range entities.UpgradeKinds {
			if d := int64(result.StartingLevel - current.Level(kind)); d != 0 {
				deltas[entities.UpgradeField(kind)] = d
			}
		}

		metadata["points_gained"] = result.PointsGained
		metadata["starting_level"] = result.StartingLevel
		metadata["prestige_level"] = current.PrestigeLevel + 1
		return deltas, nil
	})
	if err != nil {
		return nil, err
	}
	result.Account = account

	log.WithFields(log.Fields{
		"userID":        userID,
		"pointsGained":  result.PointsGained,
		"balanceSpent":  result.BalanceSpent,
		"prestigeLevel": account.PrestigeLevel,
	}).Info("Prestige reset committed")

	if err := s.eventPublisher.Publish(events.PrestigeResetEvent{
		UserID:        userID,
		PointsGained:  result.PointsGained,
		BalanceSpent:  result.BalanceSpent,
		PrestigeLevel: account.PrestigeLevel,
		StartingLevel: result.StartingLevel,
	}); err != nil {
		log.WithError(err).Error("Failed to publish prestige reset event")
	}

	return result, nil
}
