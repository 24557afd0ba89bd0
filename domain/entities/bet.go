package entities

import "time"

// BetStatus represents the escrow state of a peer-to-peer bet
type BetStatus string

const (
	BetStatusOpen      BetStatus = "open"
	BetStatusAccepted  BetStatus = "accepted"
	BetStatusCompleted BetStatus = "completed"
)

// BetWinnerCancelled is stored as the winner of a bet its creator cancelled
const BetWinnerCancelled = "cancelled"

// Bet is a two-party wager. Both stakes leave the participants' balances when they
// commit, and the full pot is paid out to the declared winner.
type Bet struct {
	ID          string     `db:"id"`
	CreatorID   string     `db:"creator_id"`
	OpponentID  *string    `db:"opponent_id"`
	Wager       int64      `db:"wager"`
	Status      BetStatus  `db:"status"`
	WinnerID    *string    `db:"winner_id"`
	CreatedAt   time.Time  `db:"created_at"`
	AcceptedAt  *time.Time `db:"accepted_at"`
	CompletedAt *time.Time `db:"completed_at"`
}

// IsOpen returns true if the bet is waiting for an opponent
func (b *Bet) IsOpen() bool {
	return b.Status == BetStatusOpen
}

// IsAccepted returns true if both stakes are escrowed and no winner is declared
func (b *Bet) IsAccepted() bool {
	return b.Status == BetStatusAccepted
}

// IsCompleted returns true if the bet reached its terminal state
func (b *Bet) IsCompleted() bool {
	return b.Status == BetStatusCompleted
}

// IsCancelled returns true if the creator withdrew the bet before anyone accepted
func (b *Bet) IsCancelled() bool {
	return b.IsCompleted() && b.WinnerID != nil && *b.WinnerID == BetWinnerCancelled
}

// IsParticipant returns true if userID is the creator or the opponent
func (b *Bet) IsParticipant(userID string) bool {
	if b.CreatorID == userID {
		return true
	}
	return b.OpponentID != nil && *b.OpponentID == userID
}

// Pot returns the payout owed to the winner
func (b *Bet) Pot() int64 {
	return 2 * b.Wager
}

// Clone returns a deep copy safe to mutate
func (b *Bet) Clone() *Bet {
	out := *b
	out.OpponentID = cloneString(b.OpponentID)
	out.WinnerID = cloneString(b.WinnerID)
	out.AcceptedAt = cloneTime(b.AcceptedAt)
	out.CompletedAt = cloneTime(b.CompletedAt)
	return &out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
