package entities

// TransactionType represents the reason for a balance change
type TransactionType string

const (
	// Rewards credited by the spawn engine
	TransactionTypeRewardManual TransactionType = "reward_manual"
	TransactionTypeRewardAuto   TransactionType = "reward_auto"

	// Spending
	TransactionTypeUpgradePurchase         TransactionType = "upgrade_purchase"
	TransactionTypePrestigeUpgradePurchase TransactionType = "prestige_upgrade_purchase"
	TransactionTypePrestigeReset           TransactionType = "prestige_reset"

	// Bet escrow
	TransactionTypeBetEscrow TransactionType = "bet_escrow"
	TransactionTypeBetPayout TransactionType = "bet_payout"
	TransactionTypeBetRefund TransactionType = "bet_refund"

	// Administrative corrections
	TransactionTypeAdjustment TransactionType = "adjustment"
)

// IsReward returns true if positive balance changes of this type count towards
// TotalEarnedAllTime. Bet payouts and refunds recirculate money that was already
// counted when first earned.
func (tt TransactionType) IsReward() bool {
	return tt == TransactionTypeRewardManual || tt == TransactionTypeRewardAuto
}

// IsBetType returns true if the transaction moves bet escrow
func (tt TransactionType) IsBetType() bool {
	return tt == TransactionTypeBetEscrow ||
		tt == TransactionTypeBetPayout ||
		tt == TransactionTypeBetRefund
}

// String returns the string representation of the transaction type
func (tt TransactionType) String() string {
	return string(tt)
}
