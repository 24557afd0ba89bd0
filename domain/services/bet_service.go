package services

import (
	"context"
	"fmt"
	"time"

	"fireworks/domain/entities"
	"fireworks/domain/events"
	"fireworks/domain/interfaces"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// maxBetListLimit caps bet listings
const maxBetListLimit = 100

type betService struct {
	betRepo        interfaces.BetRepository
	ledger         interfaces.LedgerService
	eventPublisher interfaces.EventPublisher
}

// NewBetService creates a new bet service. Every transition locks the bet first and
// then moves money on exactly one account through the ledger.
func NewBetService(
	betRepo interfaces.BetRepository,
	ledger interfaces.LedgerService,
	eventPublisher interfaces.EventPublisher,
) interfaces.BetService {
	return &betService{
		betRepo:        betRepo,
		ledger:         ledger,
		eventPublisher: eventPublisher,
	}
}

// Create opens a bet and escrows the creator's stake
func (s *betService) Create(ctx context.Context, creatorID string, wager int64) (*entities.Bet, error) {
	if creatorID == "" {
		return nil, entities.ErrNotSignedIn
	}
	if wager <= 0 {
		return nil, fmt.Errorf("%w: wager of %d", entities.ErrInvalidAmount, wager)
	}

	bet := &entities.Bet{
		ID:        uuid.NewString(),
		CreatorID: creatorID,
		Wager:     wager,
		Status:    entities.BetStatusOpen,
		CreatedAt: time.Now().UTC(),
	}

	if _, err := s.ledger.ApplyDelta(ctx, creatorID, betEntry(bet, entities.TransactionTypeBetEscrow), entities.Deltas{
		entities.FieldBalance: -wager,
	}); err != nil {
		return nil, err
	}

	if err := s.betRepo.Create(ctx, bet); err != nil {
		return nil, fmt.Errorf("failed to create bet: %w", err)
	}

	log.WithFields(log.Fields{
		"betID":     bet.ID,
		"creatorID": creatorID,
		"wager":     wager,
	}).Info("Bet opened")

	s.publish(bet, creatorID, "")
	return bet, nil
}

// Accept escrows the opponent's stake on an open bet
func (s *betService) Accept(ctx context.Context, betID, actorID string) (*entities.Bet, error) {
	if actorID == "" {
		return nil, entities.ErrNotSignedIn
	}

	bet, err := s.lockBet(ctx, betID)
	if err != nil {
		return nil, err
	}
	if !bet.IsOpen() {
		return nil, fmt.Errorf("%w: bet %s is %s", entities.ErrInvalidBetState, betID, bet.Status)
	}
	if bet.CreatorID == actorID {
		return nil, fmt.Errorf("%w: cannot accept your own bet", entities.ErrInvalidBetState)
	}

	if _, err := s.ledger.ApplyDelta(ctx, actorID, betEntry(bet, entities.TransactionTypeBetEscrow), entities.Deltas{
		entities.FieldBalance: -bet.Wager,
	}); err != nil {
		return nil, err
	}

	updated := bet.Clone()
	now := time.Now().UTC()
	updated.Status = entities.BetStatusAccepted
	updated.OpponentID = &actorID
	updated.AcceptedAt = &now

	if err := s.betRepo.Update(ctx, updated); err != nil {
		return nil, fmt.Errorf("failed to update bet: %w", err)
	}

	s.publish(updated, actorID, bet.Status)
	return updated, nil
}

// DeclareWinner pays the whole pot to the participant who declares first
func (s *betService) DeclareWinner(ctx context.Context, betID, actorID string) (*entities.Bet, error) {
	if actorID == "" {
		return nil, entities.ErrNotSignedIn
	}

	bet, err := s.lockBet(ctx, betID)
	if err != nil {
		return nil, err
	}
	if !bet.IsAccepted() || bet.WinnerID != nil {
		return nil, fmt.Errorf("%w: bet %s is %s", entities.ErrInvalidBetState, betID, bet.Status)
	}
	if !bet.IsParticipant(actorID) {
		return nil, fmt.Errorf("%w: only participants can declare a winner", entities.ErrInvalidBetState)
	}

	if _, err := s.ledger.ApplyDelta(ctx, actorID, betEntry(bet, entities.TransactionTypeBetPayout), entities.Deltas{
		entities.FieldBalance: bet.Pot(),
	}); err != nil {
		return nil, err
	}

	updated := bet.Clone()
	now := time.Now().UTC()
	updated.Status = entities.BetStatusCompleted
	updated.WinnerID = &actorID
	updated.CompletedAt = &now

	if err := s.betRepo.Update(ctx, updated); err != nil {
		return nil, fmt.Errorf("failed to update bet: %w", err)
	}

	log.WithFields(log.Fields{
		"betID":    betID,
		"winnerID": actorID,
		"pot":      bet.Pot(),
	}).Info("Bet winner declared")

	s.publish(updated, actorID, bet.Status)
	return updated, nil
}

// Cancel withdraws an open bet and refunds the creator
func (s *betService) Cancel(ctx context.Context, betID, actorID string) (*entities.Bet, error) {
	if actorID == "" {
		return nil, entities.ErrNotSignedIn
	}

	bet, err := s.lockBet(ctx, betID)
	if err != nil {
		return nil, err
	}
	if !bet.IsOpen() {
		return nil, fmt.Errorf("%w: bet %s is %s", entities.ErrInvalidBetState, betID, bet.Status)
	}
	if bet.CreatorID != actorID {
		return nil, fmt.Errorf("%w: only the creator can cancel a bet", entities.ErrInvalidBetState)
	}

	if _, err := s.ledger.ApplyDelta(ctx, bet.CreatorID, betEntry(bet, entities.TransactionTypeBetRefund), entities.Deltas{
		entities.FieldBalance: bet.Wager,
	}); err != nil {
		return nil, err
	}

	updated := bet.Clone()
	now := time.Now().UTC()
	cancelled := entities.BetWinnerCancelled
	updated.Status = entities.BetStatusCompleted
	updated.WinnerID = &cancelled
	updated.CompletedAt = &now

	if err := s.betRepo.Update(ctx, updated); err != nil {
		return nil, fmt.Errorf("failed to update bet: %w", err)
	}

	s.publish(updated, actorID, bet.Status)
	return updated, nil
}

// Get returns a bet or ErrBetNotFound
func (s *betService) Get(ctx context.Context, betID string) (*entities.Bet, error) {
	bet, err := s.betRepo.GetByID(ctx, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet: %w", err)
	}
	if bet == nil {
		return nil, fmt.Errorf("%w: %s", entities.ErrBetNotFound, betID)
	}
	return bet, nil
}

// ListOpen returns bets waiting for an opponent
func (s *betService) ListOpen(ctx context.Context, limit int) ([]*entities.Bet, error) {
	bets, err := s.betRepo.ListOpen(ctx, clampBetLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list open bets: %w", err)
	}
	return bets, nil
}

// ListByUser returns bets the user created or accepted
func (s *betService) ListByUser(ctx context.Context, userID string, limit int) ([]*entities.Bet, error) {
	bets, err := s.betRepo.ListByUser(ctx, userID, clampBetLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list bets: %w", err)
	}
	return bets, nil
}

func (s *betService) lockBet(ctx context.Context, betID string) (*entities.Bet, error) {
	if _, err := uuid.Parse(betID); err != nil {
		return nil, fmt.Errorf("%w: %s", entities.ErrBetNotFound, betID)
	}
	bet, err := s.betRepo.GetForUpdate(ctx, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock bet: %w", err)
	}
	if bet == nil {
		return nil, fmt.Errorf("%w: %s", entities.ErrBetNotFound, betID)
	}
	return bet, nil
}

func (s *betService) publish(bet *entities.Bet, actorID string, oldStatus entities.BetStatus) {
	event := events.BetStateChangeEvent{
		BetID:     bet.ID,
		ActorID:   actorID,
		OldStatus: oldStatus,
		NewStatus: bet.Status,
		Wager:     bet.Wager,
	}
	if bet.WinnerID != nil {
		event.WinnerID = *bet.WinnerID
	}
	if err := s.eventPublisher.Publish(event); err != nil {
		log.WithError(err).Error("Failed to publish bet state change event")
	}
}

func betEntry(bet *entities.Bet, txType entities.TransactionType) interfaces.LedgerEntry {
	relatedID := bet.ID
	relatedType := entities.RelatedTypeBet
	return interfaces.LedgerEntry{
		TransactionType: txType,
		Metadata:        map[string]any{"bet_id": bet.ID, "wager": bet.Wager},
		RelatedID:       &relatedID,
		RelatedType:     &relatedType,
	}
}

func clampBetLimit(limit int) int {
	if limit <= 0 || limit > maxBetListLimit {
		return maxBetListLimit
	}
	return limit
}
