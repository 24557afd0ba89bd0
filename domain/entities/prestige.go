package entities

// PrestigeThreshold is the minimum balance that can be traded for prestige points,
// and the number of fireworks each point is worth.
const PrestigeThreshold int64 = 10_000

// PrestigePointsFor returns the points a reset at balance would award
func PrestigePointsFor(balance int64) int64 {
	if balance < PrestigeThreshold {
		return 0
	}
	return balance / PrestigeThreshold
}

// PrestigeResult describes a committed prestige reset
type PrestigeResult struct {
	Account       *Account
	PointsGained  int64
	BalanceSpent  int64
	StartingLevel int // level every upgrade was reset to
}
