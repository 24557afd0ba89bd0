package engine

import (
	"math"
	"time"

	"fireworks/domain/entities"
)

// SpawnInterval is the spawn timer period for the given levels
func SpawnInterval(levels Levels) time.Duration {
	period := float64(SpawnBase) *
		math.Pow(spawnDecay, float64(levels.upgrade(entities.UpgradeSpawnSpeed))) *
		prestigeTimerFactor(levels.prestige(entities.PrestigeSpawnBoost))
	return maxDuration(SpawnFloor, time.Duration(period))
}

// AutoInterval is the auto-clicker period, and false when the auto-clicker is
// not unlocked
func AutoInterval(levels Levels) (time.Duration, bool) {
	level := levels.upgrade(entities.UpgradeAutoClicker)
	if level <= 0 {
		return 0, false
	}

	period := maxDuration(AutoFloor, AutoBase-time.Duration(level)*AutoStep)
	period = time.Duration(float64(period) * prestigeTimerFactor(levels.prestige(entities.PrestigeAutoClickerBoost)))
	return maxDuration(AutoFloor, period), true
}

// GoldenChances are the two independent spawn-time draws that make a target golden
func GoldenChances(levels Levels) (upgrade, prestige float64) {
	return float64(levels.upgrade(entities.UpgradeGoldRush)) * goldChancePerLevel,
		float64(levels.prestige(entities.PrestigeGoldBoost)) * prestigeGoldChancePerLevel
}

// LuckyChance is the resolution-time chance of doubling a reward
func LuckyChance(levels Levels) float64 {
	return float64(levels.upgrade(entities.UpgradeLuckyClick))*luckyChancePerLevel +
		float64(levels.prestige(entities.PrestigeLuckyBoost))*prestigeLuckyChancePerLevel
}

func prestigeTimerFactor(level int) float64 {
	return math.Max(0, 1-float64(level)*prestigeTimerCutPerLevel)
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}
