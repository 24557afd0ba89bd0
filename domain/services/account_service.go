package services

import (
	"context"
	"errors"
	"fmt"

	"fireworks/domain/entities"
	"fireworks/domain/events"
	"fireworks/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// maxHistoryLimit caps history reads
const maxHistoryLimit = 500

type accountService struct {
	accountRepo        interfaces.AccountRepository
	balanceHistoryRepo interfaces.BalanceHistoryRepository
	eventPublisher     interfaces.EventPublisher
}

// NewAccountService creates a new account service
func NewAccountService(
	accountRepo interfaces.AccountRepository,
	balanceHistoryRepo interfaces.BalanceHistoryRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.AccountService {
	return &accountService{
		accountRepo:        accountRepo,
		balanceHistoryRepo: balanceHistoryRepo,
		eventPublisher:     eventPublisher,
	}
}

// GetOrCreate returns the user's account, creating it on first sign-up
func (s *accountService) GetOrCreate(ctx context.Context, userID string) (*entities.Account, bool, error) {
	if userID == "" {
		return nil, false, entities.ErrNotSignedIn
	}

	account, err := s.accountRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get account: %w", err)
	}
	if account != nil {
		return account, false, nil
	}

	account, err = s.accountRepo.Create(ctx, userID)
	if errors.Is(err, entities.ErrAccountExists) {
		// Lost a sign-up race with another session of the same user
		account, err = s.accountRepo.GetByID(ctx, userID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to get account: %w", err)
		}
		if account == nil {
			return nil, false, fmt.Errorf("%w: %s", entities.ErrAccountNotFound, userID)
		}
		return account, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to create account: %w", err)
	}

	log.WithField("userID", userID).Info("Created fireworks account")
	if err := s.eventPublisher.Publish(events.AccountCreatedEvent{UserID: userID}); err != nil {
		log.WithError(err).Error("Failed to publish account created event")
	}

	return account, true, nil
}

// Get returns the account or ErrAccountNotFound
func (s *accountService) Get(ctx context.Context, userID string) (*entities.Account, error) {
	account, err := s.accountRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, fmt.Errorf("%w: %s", entities.ErrAccountNotFound, userID)
	}
	return account, nil
}

// History returns the latest balance changes for the user
func (s *accountService) History(ctx context.Context, userID string, limit int) ([]*entities.BalanceHistory, error) {
	if limit <= 0 || limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	if _, err := s.Get(ctx, userID); err != nil {
		return nil, err
	}

	history, err := s.balanceHistoryRepo.GetByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance history: %w", err)
	}
	return history, nil
}
