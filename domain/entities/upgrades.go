package entities

import "fmt"

// UpgradeKind identifies a fireworks-priced upgrade
type UpgradeKind string

const (
	UpgradeAutoClicker     UpgradeKind = "auto_clicker"
	UpgradeSpawnSpeed      UpgradeKind = "spawn_speed"
	UpgradeRewardWorth     UpgradeKind = "reward_worth"
	UpgradeLuckyClick      UpgradeKind = "lucky_click"
	UpgradeGoldRush        UpgradeKind = "gold_rush"
	UpgradeClickMultiplier UpgradeKind = "click_multiplier"
)

// UpgradeKinds lists every upgrade in shop order
var UpgradeKinds = []UpgradeKind{
	UpgradeAutoClicker,
	UpgradeSpawnSpeed,
	UpgradeRewardWorth,
	UpgradeLuckyClick,
	UpgradeGoldRush,
	UpgradeClickMultiplier,
}

// MaxUpgradeLevel bounds every fireworks upgrade
const MaxUpgradeLevel = 10

// upgradeCosts[kind][level] is the price of going from level to level+1
var upgradeCosts = map[UpgradeKind][MaxUpgradeLevel]int64{
	UpgradeAutoClicker:     {50, 100, 200, 400, 800, 1600, 3200, 6400, 12800, 25600},
	UpgradeSpawnSpeed:      {25, 50, 100, 200, 400, 800, 1600, 3200, 6400, 12800},
	UpgradeRewardWorth:     {20, 40, 80, 160, 320, 640, 1280, 2560, 5120, 10240},
	UpgradeLuckyClick:      {100, 200, 400, 800, 1600, 3200, 6400, 12800, 25600, 51200},
	UpgradeGoldRush:        {150, 300, 600, 1200, 2400, 4800, 9600, 19200, 38400, 76800},
	UpgradeClickMultiplier: {75, 150, 300, 600, 1200, 2400, 4800, 9600, 19200, 38400},
}

// ParseUpgradeKind validates a client-supplied upgrade name
func ParseUpgradeKind(s string) (UpgradeKind, error) {
	kind := UpgradeKind(s)
	if _, ok := upgradeCosts[kind]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownUpgrade, s)
	}
	return kind, nil
}

// MaxLevel returns the level cap for the kind
func (k UpgradeKind) MaxLevel() int {
	return MaxUpgradeLevel
}

// Cost returns the fireworks price of buying the next level from level.
// ok is false when level is at or above the cap.
func (k UpgradeKind) Cost(level int) (cost int64, ok bool) {
	table, known := upgradeCosts[k]
	if !known || level < 0 || level >= MaxUpgradeLevel {
		return 0, false
	}
	return table[level], true
}

// PrestigeUpgradeKind identifies a prestige-point priced upgrade. These never reset.
type PrestigeUpgradeKind string

const (
	PrestigeRewardMultiplier PrestigeUpgradeKind = "reward_multiplier"
	PrestigeAutoClickerBoost PrestigeUpgradeKind = "auto_clicker_boost"
	PrestigeSpawnBoost       PrestigeUpgradeKind = "spawn_boost"
	PrestigeStartingBonus    PrestigeUpgradeKind = "starting_bonus"
	PrestigeLuckyBoost       PrestigeUpgradeKind = "lucky_boost"
	PrestigeGoldBoost        PrestigeUpgradeKind = "gold_boost"
)

// PrestigeUpgradeKinds lists every prestige upgrade in shop order
var PrestigeUpgradeKinds = []PrestigeUpgradeKind{
	PrestigeRewardMultiplier,
	PrestigeAutoClickerBoost,
	PrestigeSpawnBoost,
	PrestigeStartingBonus,
	PrestigeLuckyBoost,
	PrestigeGoldBoost,
}

var prestigeUpgradeCosts = map[PrestigeUpgradeKind][]int64{
	PrestigeRewardMultiplier: {1, 2, 3, 5, 8, 13, 21, 34, 55, 89},
	PrestigeAutoClickerBoost: {1, 2, 4, 6, 9, 13, 18, 24, 31, 40},
	PrestigeSpawnBoost:       {1, 2, 4, 6, 9, 13, 18, 24, 31, 40},
	PrestigeStartingBonus:    {2, 4, 8, 16, 32},
	PrestigeLuckyBoost:       {2, 3, 5, 8, 12, 17, 23, 30, 38, 47},
	PrestigeGoldBoost:        {2, 3, 5, 8, 12, 17, 23, 30, 38, 47},
}

// ParsePrestigeUpgradeKind validates a client-supplied prestige upgrade name
func ParsePrestigeUpgradeKind(s string) (PrestigeUpgradeKind, error) {
	kind := PrestigeUpgradeKind(s)
	if _, ok := prestigeUpgradeCosts[kind]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownUpgrade, s)
	}
	return kind, nil
}

// MaxLevel returns the level cap for the kind (5 for StartingBonus, 10 otherwise)
func (k PrestigeUpgradeKind) MaxLevel() int {
	return len(prestigeUpgradeCosts[k])
}

// Cost returns the prestige point price of buying the next level from level
func (k PrestigeUpgradeKind) Cost(level int) (cost int64, ok bool) {
	table := prestigeUpgradeCosts[k]
	if level < 0 || level >= len(table) {
		return 0, false
	}
	return table[level], true
}

// UpgradeLevels maps each upgrade to its purchased level. Missing kinds are level 0.
type UpgradeLevels map[UpgradeKind]int

// Get returns the level for kind, 0 when unset
func (l UpgradeLevels) Get(kind UpgradeKind) int {
	return l[kind]
}

// Clone returns an independent copy
func (l UpgradeLevels) Clone() UpgradeLevels {
	out := make(UpgradeLevels, len(l))
	for k, v := range l {
		out[k] = v
	}
	return out
}

// PrestigeLevels maps each prestige upgrade to its purchased level
type PrestigeLevels map[PrestigeUpgradeKind]int

// Get returns the level for kind, 0 when unset
func (l PrestigeLevels) Get(kind PrestigeUpgradeKind) int {
	return l[kind]
}

// Clone returns an independent copy
func (l PrestigeLevels) Clone() PrestigeLevels {
	out := make(PrestigeLevels, len(l))
	for k, v := range l {
		out[k] = v
	}
	return out
}
