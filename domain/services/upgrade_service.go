package services

import (
	"context"
	"fmt"

	"fireworks/domain/entities"
	"fireworks/domain/events"
	"fireworks/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

type upgradeService struct {
	ledger         interfaces.LedgerService
	eventPublisher interfaces.EventPublisher
}

// NewUpgradeService creates a new upgrade service
func NewUpgradeService(ledger interfaces.LedgerService, eventPublisher interfaces.EventPublisher) interfaces.UpgradeService {
	return &upgradeService{
		ledger:         ledger,
		eventPublisher: eventPublisher,
	}
}

// Purchase buys the next level of a fireworks upgrade
func (s *upgradeService) Purchase(ctx context.Context, userID string, kind entities.UpgradeKind, expectedLevel int) (*entities.Account, error) {
	if _, err := entities.ParseUpgradeKind(string(kind)); err != nil {
		return nil, err
	}
	if expectedLevel >= kind.MaxLevel() {
		return nil, fmt.Errorf("%w: %s is capped at %d", entities.ErrLevelMaxed, kind, kind.MaxLevel())
	}

	var cost int64
	var level int
	relatedType := entities.RelatedTypeUpgrade
	relatedID := string(kind)
	metadata := map[string]any{"upgrade": string(kind), "expected_level": expectedLevel}
	entry := interfaces.LedgerEntry{
		TransactionType: entities.TransactionTypeUpgradePurchase,
		Metadata:        metadata,
		RelatedID:       &relatedID,
		RelatedType:     &relatedType,
	}

	account, err := s.ledger.Mutate(ctx, userID, entry, func(current *entities.Account) (entities.Deltas, error) {
		// The locked level decides the price; expectedLevel only guards the request
		level = current.Level(kind)
		price, ok := kind.Cost(level)
		if !ok {
			return nil, fmt.Errorf("%w: %s is capped at %d", entities.ErrLevelMaxed, kind, kind.MaxLevel())
		}
		cost = price
		metadata["from_level"] = level
		metadata["cost"] = cost
		return entities.Deltas{
			entities.FieldBalance:       -cost,
			entities.UpgradeField(kind): 1,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	if level != expectedLevel {
		log.WithFields(log.Fields{
			"userID":        userID,
			"upgrade":       kind,
			"expectedLevel": expectedLevel,
			"actualLevel":   level,
		}).Debug("Upgrade priced from authoritative level")
	}

	s.publish(events.UpgradePurchasedEvent{
		UserID:   userID,
		Upgrade:  string(kind),
		NewLevel: account.Level(kind),
		Cost:     cost,
	})
	return account, nil
}

// PurchasePrestige buys the next level of a prestige upgrade with prestige points
func (s *upgradeService) PurchasePrestige(ctx context.Context, userID string, kind entities.PrestigeUpgradeKind, expectedLevel int) (*entities.Account, error) {
	if _, err := entities.ParsePrestigeUpgradeKind(string(kind)); err != nil {
		return nil, err
	}
	if expectedLevel >= kind.MaxLevel() {
		return nil, fmt.Errorf("%w: %s is capped at %d", entities.ErrLevelMaxed, kind, kind.MaxLevel())
	}

	var cost int64
	entry := interfaces.LedgerEntry{TransactionType: entities.TransactionTypePrestigeUpgradePurchase}

	account, err := s.ledger.Mutate(ctx, userID, entry, func(current *entities.Account) (entities.Deltas, error) {
		price, ok := kind.Cost(current.PrestigeUpgradeLevel(kind))
		if !ok {
			return nil, fmt.Errorf("%w: %s is capped at %d", entities.ErrLevelMaxed, kind, kind.MaxLevel())
		}
		cost = price
		return entities.Deltas{
			entities.FieldPrestigePoints:        -cost,
			entities.PrestigeUpgradeField(kind): 1,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(events.UpgradePurchasedEvent{
		UserID:   userID,
		Upgrade:  string(kind),
		Prestige: true,
		NewLevel: account.PrestigeUpgradeLevel(kind),
		Cost:     cost,
	})
	return account, nil
}

func (s *upgradeService) publish(event events.UpgradePurchasedEvent) {
	if err := s.eventPublisher.Publish(event); err != nil {
		log.WithError(err).Error("Failed to publish upgrade purchased event")
	}
}
