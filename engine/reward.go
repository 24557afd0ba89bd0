package engine

import (
	"math"

	"fireworks/domain/entities"
)

// RewardAmount applies the reward formula once the golden and lucky draws are known
func RewardAmount(levels Levels, golden, lucky bool) int64 {
	amount := float64(levels.upgrade(entities.UpgradeRewardWorth) + 1)
	if golden {
		amount *= goldenMultiplier
	}
	if lucky {
		amount *= luckyMultiplier
	}
	amount *= 1 + float64(levels.upgrade(entities.UpgradeClickMultiplier))*clickMultiplierPerLevel
	amount *= 1 + float64(levels.prestige(entities.PrestigeRewardMultiplier))*prestigeRewardPerLevel
	return int64(math.Round(amount))
}
