package engine

import (
	"math/rand/v2"
	"testing"
	"time"

	"fireworks/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	events  []Event
	rewards []entities.RewardEvent
}

func (r *recorder) OnEvent(event Event) {
	r.events = append(r.events, event)
}

func (r *recorder) Submit(reward entities.RewardEvent) {
	r.rewards = append(r.rewards, reward)
}

func (r *recorder) kinds() []EventKind {
	kinds := make([]EventKind, len(r.events))
	for i, e := range r.events {
		kinds[i] = e.Kind
	}
	return kinds
}

func newTestEngine(t *testing.T, userID string) (*Engine, *recorder) {
	t.Helper()
	rec := &recorder{}
	e := New(rand.New(rand.NewPCG(1, 2)), rec, rec)
	e.SetSession(entities.Session{UserID: userID})
	e.Resize(800, 600)
	return e, rec
}

// place puts a stationary target on the field
func place(e *Engine, x, y float64) *Target {
	e.nextID++
	t := &Target{ID: e.nextID, X: x, Y: y, Size: TargetSize, Side: SideLeft}
	e.targets = append(e.targets, t)
	return t
}

func tickFor(e *Engine, total, step time.Duration) {
	for elapsed := time.Duration(0); elapsed < total; elapsed += step {
		e.Tick(step)
	}
}

func TestEngine_SpawnsOnSchedule(t *testing.T) {
	e, rec := newTestEngine(t, "alice")

	tickFor(e, 1900*time.Millisecond, 100*time.Millisecond)
	assert.Empty(t, e.Targets())

	e.Tick(100 * time.Millisecond)
	require.Len(t, e.Targets(), 1)
	target := e.Targets()[0]
	assert.GreaterOrEqual(t, target.Y, TopMargin+target.Radius())
	assert.LessOrEqual(t, target.Y, 600-target.Radius())
	assert.Equal(t, 2*time.Second, target.SpawnedAt)
	assert.Equal(t, []EventKind{EventSpawn}, rec.kinds())

	if target.Side == SideLeft {
		assert.Positive(t, target.VX)
	} else {
		assert.Negative(t, target.VX)
	}
}

func TestEngine_NoSpawnWithoutViewport(t *testing.T) {
	e := New(rand.New(rand.NewPCG(1, 2)), nil, nil)
	tickFor(e, 3*time.Second, 100*time.Millisecond)
	assert.Empty(t, e.Targets())
}

func TestEngine_TickIsClamped(t *testing.T) {
	e, _ := newTestEngine(t, "alice")
	e.Tick(time.Hour)
	assert.Equal(t, MaxTickStep, e.Now())
}

func TestEngine_ClickResolvesMostRecentFirst(t *testing.T) {
	e, rec := newTestEngine(t, "alice")
	older := place(e, 100, 200)
	newer := place(e, 110, 200)

	assert.True(t, e.Click(105, 200))
	require.Len(t, e.Targets(), 1)
	assert.Equal(t, older.ID, e.Targets()[0].ID)

	require.Len(t, rec.rewards, 1)
	assert.Equal(t, entities.RewardEvent{UserID: "alice", Amount: 1, Source: entities.RewardSourceManualClick}, rec.rewards[0])
	assert.Equal(t, []EventKind{EventRemove, EventReward}, rec.kinds())
	assert.Equal(t, newer.ID, rec.events[0].Target.ID)
	assert.Equal(t, RemoveHit, rec.events[0].Reason)

	assert.True(t, e.Click(105, 200))
	assert.Empty(t, e.Targets())
}

func TestEngine_ClickMiss(t *testing.T) {
	e, rec := newTestEngine(t, "alice")
	place(e, 100, 200)

	assert.False(t, e.Click(100+TargetSize, 200))
	assert.Len(t, e.Targets(), 1)
	assert.Empty(t, rec.events)
	assert.Empty(t, rec.rewards)
}

func TestEngine_RewardUsesLevels(t *testing.T) {
	e, rec := newTestEngine(t, "alice")
	e.SetLevels(Levels{
		Upgrades: entities.UpgradeLevels{
			entities.UpgradeRewardWorth:     2,
			entities.UpgradeClickMultiplier: 3,
		},
	})
	place(e, 300, 300)

	require.True(t, e.Click(300, 300))
	require.Len(t, rec.rewards, 1)
	assert.Equal(t, int64(4), rec.rewards[0].Amount)
	assert.False(t, rec.rewards[0].Lucky)
}

func TestEngine_AnonymousDiscardsRewardAndAdvisesOnce(t *testing.T) {
	e, rec := newTestEngine(t, "")
	place(e, 100, 200)
	place(e, 400, 200)

	assert.True(t, e.Click(100, 200))
	assert.True(t, e.Click(400, 200))

	assert.Empty(t, rec.rewards)
	assert.Empty(t, e.Targets())
	assert.Equal(t, []EventKind{EventRemove, EventAdvisory, EventRemove}, rec.kinds())
	assert.Equal(t, AnonymousAdvisory, rec.events[1].Message)
}

func TestEngine_AutoClicker(t *testing.T) {
	e, rec := newTestEngine(t, "alice")
	for i := 0; i < 3; i++ {
		place(e, 200+float64(i)*100, 300)
	}

	e.SetLevels(Levels{Upgrades: entities.UpgradeLevels{entities.UpgradeAutoClicker: 10}})
	tickFor(e, 500*time.Millisecond, 100*time.Millisecond)

	assert.Len(t, e.Targets(), 2)
	require.Len(t, rec.rewards, 1)
	assert.Equal(t, entities.RewardSourceAutoClick, rec.rewards[0].Source)
	assert.Equal(t, RemoveAuto, rec.events[0].Reason)

	// Disabling stops it
	e.SetLevels(LevelsFor(nil))
	tickFor(e, time.Second, 100*time.Millisecond)
	assert.Len(t, rec.rewards, 1)
}

func TestEngine_AutoClickerWithEmptyField(t *testing.T) {
	e, rec := newTestEngine(t, "alice")
	e.SetLevels(Levels{Upgrades: entities.UpgradeLevels{entities.UpgradeAutoClicker: 10}})
	tickFor(e, time.Second, 100*time.Millisecond)
	assert.Empty(t, rec.rewards)
}

func TestEngine_TargetsExpire(t *testing.T) {
	e, rec := newTestEngine(t, "alice")
	target := place(e, 790, 300)
	target.VX = 100

	e.Tick(time.Second)
	assert.Empty(t, e.Targets())
	require.Len(t, rec.events, 1)
	assert.Equal(t, RemoveExpired, rec.events[0].Reason)
	assert.Empty(t, rec.rewards)
}

func TestEngine_ResizeClearsTargets(t *testing.T) {
	e, rec := newTestEngine(t, "alice")
	place(e, 100, 200)
	place(e, 200, 200)

	e.Resize(1024, 768)
	assert.Empty(t, e.Targets())
	assert.Equal(t, []EventKind{EventRemove, EventRemove}, rec.kinds())
	assert.Equal(t, RemoveReset, rec.events[0].Reason)
}

func TestEngine_SetLevelsRearmsSpawnTimer(t *testing.T) {
	e, _ := newTestEngine(t, "alice")
	tickFor(e, time.Second, 100*time.Millisecond)

	e.SetLevels(Levels{Upgrades: entities.UpgradeLevels{entities.UpgradeSpawnSpeed: 1}})
	tickFor(e, 1500*time.Millisecond, 100*time.Millisecond)
	assert.Empty(t, e.Targets())

	e.Tick(100 * time.Millisecond)
	assert.Len(t, e.Targets(), 1)
}

func TestEngine_SetSessionRearmsAdvisory(t *testing.T) {
	e, rec := newTestEngine(t, "")
	place(e, 100, 200)
	e.Click(100, 200)

	e.SetSession(entities.Session{UserID: "bob"})
	e.SetSession(entities.Session{})
	place(e, 100, 200)
	e.Click(100, 200)

	advisories := 0
	for _, ev := range rec.events {
		if ev.Kind == EventAdvisory {
			advisories++
		}
	}
	assert.Equal(t, 2, advisories)
}

func TestEngine_SameSeedSameField(t *testing.T) {
	run := func() []Target {
		e := New(rand.New(rand.NewPCG(7, 7)), nil, nil)
		e.Resize(800, 600)
		e.SetLevels(Levels{Upgrades: entities.UpgradeLevels{entities.UpgradeSpawnSpeed: 10}})
		tickFor(e, 2*time.Second, 50*time.Millisecond)
		return e.Targets()
	}
	assert.Equal(t, run(), run())
}
