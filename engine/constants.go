package engine

import "time"

// Spawn timer
const (
	SpawnBase  = 2 * time.Second
	SpawnFloor = SpawnBase / 5
	spawnDecay = 0.8
)

// Auto-clicker timer
const (
	AutoBase  = 3 * time.Second
	AutoStep  = 250 * time.Millisecond
	AutoFloor = 500 * time.Millisecond
)

// Per-level modifiers
const (
	goldChancePerLevel          = 0.03
	prestigeGoldChancePerLevel  = 0.05
	luckyChancePerLevel         = 0.05
	prestigeLuckyChancePerLevel = 0.05
	clickMultiplierPerLevel     = 0.1
	prestigeRewardPerLevel      = 0.10
	prestigeTimerCutPerLevel    = 0.05

	goldenMultiplier = 5
	luckyMultiplier  = 2
)

// Field geometry, in viewport pixels
const (
	// TopMargin is reserved for the fixed page header; targets never spawn above it
	TopMargin     = 80.0
	TargetSize    = 48.0
	minDriftSpeed = 60.0
	maxDriftSpeed = 140.0
)

// MaxTickStep bounds the simulated time one Tick may advance. A longer gap (a
// suspended tab, a stalled runner) is treated as MaxTickStep.
const MaxTickStep = time.Second
