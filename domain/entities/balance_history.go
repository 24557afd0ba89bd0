package entities

import (
	"errors"
	"time"
)

// RelatedType represents what type of entity the related_id refers to
type RelatedType string

const (
	RelatedTypeBet     RelatedType = "bet"
	RelatedTypeUpgrade RelatedType = "upgrade"
)

// BalanceHistory is the audit row written with every committed balance change
type BalanceHistory struct {
	ID                  int64           `db:"id"`
	UserID              string          `db:"user_id"`
	BalanceBefore       int64           `db:"balance_before"`
	BalanceAfter        int64           `db:"balance_after"`
	ChangeAmount        int64           `db:"change_amount"`
	TransactionType     TransactionType `db:"transaction_type"`
	TransactionMetadata map[string]any  `db:"transaction_metadata"`
	RelatedID           *string         `db:"related_id"`
	RelatedType         *RelatedType    `db:"related_type"`
	CreatedAt           time.Time       `db:"created_at"`
}

// IsPositiveChange returns true if the change amount is positive
func (bh *BalanceHistory) IsPositiveChange() bool {
	return bh.ChangeAmount > 0
}

// GetTransactionDescription returns a human-readable description of the transaction
func (bh *BalanceHistory) GetTransactionDescription() string {
	switch bh.TransactionType {
	case TransactionTypeRewardManual:
		return "Firework popped"
	case TransactionTypeRewardAuto:
		return "Auto-clicker reward"
	case TransactionTypeUpgradePurchase:
		return "Upgrade purchased"
	case TransactionTypePrestigeUpgradePurchase:
		return "Prestige upgrade purchased"
	case TransactionTypePrestigeReset:
		return "Prestige reset"
	case TransactionTypeBetEscrow:
		return "Bet stake"
	case TransactionTypeBetPayout:
		return "Bet won"
	case TransactionTypeBetRefund:
		return "Bet cancelled"
	default:
		return string(bh.TransactionType)
	}
}

// ValidateTransaction performs basic validation on the transaction
func (bh *BalanceHistory) ValidateTransaction() error {
	if bh.ChangeAmount == 0 {
		return errors.New("change amount cannot be zero")
	}

	if bh.BalanceAfter != bh.BalanceBefore+bh.ChangeAmount {
		return errors.New("balance calculation is inconsistent")
	}

	if bh.BalanceAfter < 0 {
		return errors.New("balance after cannot be negative")
	}

	return nil
}
