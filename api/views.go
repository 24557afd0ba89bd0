package api

import (
	"time"

	"fireworks/application"
	"fireworks/domain/entities"
	"fireworks/engine"
)

type accountView struct {
	UserID                string                  `json:"user_id"`
	Balance               int64                   `json:"balance"`
	BalanceDisplay        string                  `json:"balance_display"`
	TotalEarnedAllTime    int64                   `json:"total_earned_all_time"`
	UpgradeLevels         entities.UpgradeLevels  `json:"upgrade_levels"`
	PrestigeLevel         int64                   `json:"prestige_level"`
	PrestigePoints        int64                   `json:"prestige_points"`
	PrestigeUpgradeLevels entities.PrestigeLevels `json:"prestige_upgrade_levels"`
	CanPrestige           bool                    `json:"can_prestige"`
	VisitCount            int64                   `json:"visit_count"`
	LastSeenAt            *time.Time              `json:"last_seen_at,omitempty"`
	CreatedAt             time.Time               `json:"created_at"`
	UpdatedAt             time.Time               `json:"updated_at"`
}

func newAccountView(a *entities.Account) *accountView {
	if a == nil {
		return nil
	}
	return &accountView{
		UserID:                a.UserID,
		Balance:               a.Balance,
		BalanceDisplay:        entities.FormatShortNotation(a.Balance),
		TotalEarnedAllTime:    a.TotalEarnedAllTime,
		UpgradeLevels:         a.UpgradeLevels,
		PrestigeLevel:         a.PrestigeLevel,
		PrestigePoints:        a.PrestigePoints,
		PrestigeUpgradeLevels: a.PrestigeUpgradeLevels,
		CanPrestige:           a.CanPrestige(),
		VisitCount:            a.VisitCount,
		LastSeenAt:            a.LastSeenAt,
		CreatedAt:             a.CreatedAt,
		UpdatedAt:             a.UpdatedAt,
	}
}

type betView struct {
	ID          string             `json:"id"`
	CreatorID   string             `json:"creator_id"`
	OpponentID  *string            `json:"opponent_id,omitempty"`
	Wager       int64              `json:"wager"`
	Status      entities.BetStatus `json:"status"`
	WinnerID    *string            `json:"winner_id,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	AcceptedAt  *time.Time         `json:"accepted_at,omitempty"`
	CompletedAt *time.Time         `json:"completed_at,omitempty"`
}

func newBetView(b *entities.Bet) *betView {
	return &betView{
		ID:          b.ID,
		CreatorID:   b.CreatorID,
		OpponentID:  b.OpponentID,
		Wager:       b.Wager,
		Status:      b.Status,
		WinnerID:    b.WinnerID,
		CreatedAt:   b.CreatedAt,
		AcceptedAt:  b.AcceptedAt,
		CompletedAt: b.CompletedAt,
	}
}

func newBetViews(bets []*entities.Bet) []*betView {
	out := make([]*betView, len(bets))
	for i, b := range bets {
		out[i] = newBetView(b)
	}
	return out
}

type historyView struct {
	ID            int64                    `json:"id"`
	Type          entities.TransactionType `json:"type"`
	Description   string                   `json:"description"`
	BalanceBefore int64                    `json:"balance_before"`
	BalanceAfter  int64                    `json:"balance_after"`
	ChangeAmount  int64                    `json:"change_amount"`
	Metadata      map[string]any           `json:"metadata,omitempty"`
	RelatedID     *string                  `json:"related_id,omitempty"`
	CreatedAt     time.Time                `json:"created_at"`
}

func newHistoryViews(history []*entities.BalanceHistory) []*historyView {
	out := make([]*historyView, len(history))
	for i, h := range history {
		out[i] = &historyView{
			ID:            h.ID,
			Type:          h.TransactionType,
			Description:   h.GetTransactionDescription(),
			BalanceBefore: h.BalanceBefore,
			BalanceAfter:  h.BalanceAfter,
			ChangeAmount:  h.ChangeAmount,
			Metadata:      h.TransactionMetadata,
			RelatedID:     h.RelatedID,
			CreatedAt:     h.CreatedAt,
		}
	}
	return out
}

type prestigeView struct {
	Account       *accountView `json:"account"`
	PointsGained  int64        `json:"points_gained"`
	BalanceSpent  int64        `json:"balance_spent"`
	StartingLevel int          `json:"starting_level"`
}

type snapshotView struct {
	Targets []engine.Target `json:"targets"`
	Events  []engine.Event  `json:"events"`
	Dropped int             `json:"dropped"`
	Account *accountView    `json:"account,omitempty"`
}

func newSnapshotView(s *application.Snapshot) *snapshotView {
	return &snapshotView{
		Targets: s.Targets,
		Events:  s.Events,
		Dropped: s.Dropped,
		Account: newAccountView(s.Account),
	}
}
