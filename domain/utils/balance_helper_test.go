package utils

import (
	"context"
	"errors"
	"testing"

	"fireworks/domain/entities"
	"fireworks/domain/events"
	"fireworks/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestRecordBalanceChange(t *testing.T) {
	ctx := context.Background()

	mockBalanceHistoryRepo := new(testhelpers.MockBalanceHistoryRepository)
	mockEventPublisher := new(testhelpers.MockEventPublisher)

	mockBalanceHistoryRepo.On("Record", ctx, mock.Anything).Return(nil)
	mockEventPublisher.On("Publish", mock.MatchedBy(func(event events.Event) bool {
		e, ok := event.(events.BalanceChangeEvent)
		return ok && e.UserID == "user-1" && e.NewBalance == 1500 && e.TransactionType == entities.TransactionTypeRewardManual
	})).Return(nil)

	history := &entities.BalanceHistory{
		UserID:          "user-1",
		BalanceBefore:   1000,
		BalanceAfter:    1500,
		ChangeAmount:    500,
		TransactionType: entities.TransactionTypeRewardManual,
	}

	err := RecordBalanceChange(ctx, mockBalanceHistoryRepo, mockEventPublisher, history)
	assert.NoError(t, err)

	mockBalanceHistoryRepo.AssertExpectations(t)
	mockEventPublisher.AssertExpectations(t)
}

func TestRecordBalanceChange_RejectsInconsistentHistory(t *testing.T) {
	mockBalanceHistoryRepo := new(testhelpers.MockBalanceHistoryRepository)
	mockEventPublisher := new(testhelpers.MockEventPublisher)

	history := &entities.BalanceHistory{
		UserID:          "user-1",
		BalanceBefore:   1000,
		BalanceAfter:    900,
		ChangeAmount:    -50,
		TransactionType: entities.TransactionTypeUpgradePurchase,
	}

	err := RecordBalanceChange(context.Background(), mockBalanceHistoryRepo, mockEventPublisher, history)
	assert.Error(t, err)

	mockBalanceHistoryRepo.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
	mockEventPublisher.AssertNotCalled(t, "Publish", mock.Anything)
}

func TestRecordBalanceChange_PublishFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	mockBalanceHistoryRepo := new(testhelpers.MockBalanceHistoryRepository)
	mockEventPublisher := new(testhelpers.MockEventPublisher)

	mockBalanceHistoryRepo.On("Record", ctx, mock.Anything).Return(nil)
	mockEventPublisher.On("Publish", mock.Anything).Return(errors.New("bus closed"))

	history := &entities.BalanceHistory{
		UserID:          "user-1",
		BalanceBefore:   0,
		BalanceAfter:    40,
		ChangeAmount:    40,
		TransactionType: entities.TransactionTypeBetRefund,
	}

	assert.NoError(t, RecordBalanceChange(ctx, mockBalanceHistoryRepo, mockEventPublisher, history))
}
