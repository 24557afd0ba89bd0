package entities

// RewardSource says how a target was resolved
type RewardSource string

const (
	RewardSourceManualClick RewardSource = "manual-click"
	RewardSourceAutoClick   RewardSource = "auto-click"
)

// RewardEvent is an ephemeral credit produced by the spawn engine and consumed once
// by the ledger
type RewardEvent struct {
	UserID string       `json:"user_id"`
	Amount int64        `json:"amount"`
	Source RewardSource `json:"source"`
	Golden bool         `json:"golden"`
	Lucky  bool         `json:"lucky"`
}

// TransactionType maps the reward source onto its ledger transaction type
func (r RewardEvent) TransactionType() TransactionType {
	if r.Source == RewardSourceAutoClick {
		return TransactionTypeRewardAuto
	}
	return TransactionTypeRewardManual
}

// Session identifies the caller. UserID is empty for anonymous visitors.
type Session struct {
	UserID   string
	Elevated bool
}

// IsAnonymous returns true if no user is signed in
func (s Session) IsAnonymous() bool {
	return s.UserID == ""
}
