package services

import (
	"testing"

	"fireworks/domain/entities"
	"fireworks/domain/events"
	"fireworks/domain/interfaces"
	"fireworks/domain/testhelpers"

	"github.com/stretchr/testify/mock"
)

// Test constants for consistent test data
const (
	TestUser1ID        = "user-1"
	TestUser2ID        = "user-2"
	TestUser3ID        = "user-3"
	TestBetID          = "6f1c2b8e-3d4a-4f5b-9c6d-7e8f9a0b1c2d"
	TestInitialBalance = int64(10_000)
)

// TestMocks aggregates all repository mocks for testing
type TestMocks struct {
	AccountRepo        *testhelpers.MockAccountRepository
	BetRepo            *testhelpers.MockBetRepository
	BalanceHistoryRepo *testhelpers.MockBalanceHistoryRepository
	EventPublisher     *testhelpers.MockEventPublisher
}

// NewTestMocks creates a new set of mocks
func NewTestMocks() *TestMocks {
	return &TestMocks{
		AccountRepo:        &testhelpers.MockAccountRepository{},
		BetRepo:            &testhelpers.MockBetRepository{},
		BalanceHistoryRepo: &testhelpers.MockBalanceHistoryRepository{},
		EventPublisher:     &testhelpers.MockEventPublisher{},
	}
}

// AssertAllExpectations verifies all mock expectations were met
func (m *TestMocks) AssertAllExpectations(t *testing.T) {
	m.AccountRepo.AssertExpectations(t)
	m.BetRepo.AssertExpectations(t)
	m.BalanceHistoryRepo.AssertExpectations(t)
	m.EventPublisher.AssertExpectations(t)
}

// Ledger builds a ledger over the mocks
func (m *TestMocks) Ledger() interfaces.LedgerService {
	return NewLedgerService(m.AccountRepo, m.BalanceHistoryRepo, m.EventPublisher)
}

// ExpectAccountLock sets up the locked read of an account
func (m *TestMocks) ExpectAccountLock(account *entities.Account) {
	m.AccountRepo.On("GetForUpdate", mock.Anything, account.UserID).Return(account, nil).Once()
}

// ExpectAccountSave expects the saved account to match check
func (m *TestMocks) ExpectAccountSave(check func(*entities.Account) bool) {
	m.AccountRepo.On("Save", mock.Anything, mock.MatchedBy(check)).Return(nil).Once()
}

// ExpectHistory expects one balance history row for userID
func (m *TestMocks) ExpectHistory(userID string, change int64, txType entities.TransactionType) {
	m.BalanceHistoryRepo.On("Record", mock.Anything, mock.MatchedBy(func(h *entities.BalanceHistory) bool {
		return h.UserID == userID && h.ChangeAmount == change && h.TransactionType == txType
	})).Return(nil).Once()
}

// ExpectEventPublish sets up event publisher mock expectations
func (m *TestMocks) ExpectEventPublish(eventType events.EventType) {
	m.EventPublisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
		return e.Type() == eventType
	})).Return(nil)
}

// accountWith returns an account holding balance
func accountWith(userID string, balance int64) *entities.Account {
	account := entities.NewAccount(userID)
	account.Balance = balance
	account.TotalEarnedAllTime = balance
	return account
}

func openBet(wager int64) *entities.Bet {
	return &entities.Bet{
		ID:        TestBetID,
		CreatorID: TestUser1ID,
		Wager:     wager,
		Status:    entities.BetStatusOpen,
	}
}

func acceptedBet(wager int64) *entities.Bet {
	bet := openBet(wager)
	opponent := TestUser2ID
	bet.OpponentID = &opponent
	bet.Status = entities.BetStatusAccepted
	return bet
}
