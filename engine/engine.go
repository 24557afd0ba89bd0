package engine

import (
	"math/rand/v2"
	"time"

	"fireworks/domain/entities"

	log "github.com/sirupsen/logrus"
)

// Engine is the spawn field of one session
type Engine struct {
	rng      *rand.Rand
	sink     RewardSink
	observer Observer

	session entities.Session
	levels  Levels
	advised bool

	width, height float64
	targets       []*Target // spawn order, oldest first
	nextID        uint64

	now       time.Duration // simulation time
	nextSpawn time.Duration
	nextAuto  time.Duration
	autoOn    bool
}

// New creates an engine with an empty field. sink and observer may be nil.
func New(rng *rand.Rand, sink RewardSink, observer Observer) *Engine {
	if sink == nil {
		sink = RewardSinkFunc(func(entities.RewardEvent) {})
	}
	if observer == nil {
		observer = ObserverFunc(func(Event) {})
	}
	e := &Engine{
		rng:      rng,
		sink:     sink,
		observer: observer,
		levels:   LevelsFor(nil),
	}
	e.nextSpawn = SpawnInterval(e.levels)
	return e
}

// SetSession switches the identity rewards are credited to. Switching identity
// re-arms the anonymous advisory.
func (e *Engine) SetSession(session entities.Session) {
	if session.UserID != e.session.UserID {
		e.advised = false
	}
	e.session = session
}

// Session returns the current identity
func (e *Engine) Session() entities.Session {
	return e.session
}

// SetLevels re-parametrizes the timers. A timer whose period changed is re-armed
// from now.
func (e *Engine) SetLevels(levels Levels) {
	oldSpawn := SpawnInterval(e.levels)
	oldAuto, wasOn := AutoInterval(e.levels)
	e.levels = levels

	if spawn := SpawnInterval(levels); spawn != oldSpawn {
		e.nextSpawn = e.now + spawn
	}

	auto, on := AutoInterval(levels)
	switch {
	case !on:
		e.autoOn = false
	case !wasOn || auto != oldAuto:
		e.autoOn = true
		e.nextAuto = e.now + auto
	}
}

// Levels returns the current levels
func (e *Engine) Levels() Levels {
	return e.levels
}

// Resize sets the viewport and clears every live target
func (e *Engine) Resize(width, height float64) {
	e.width, e.height = width, height
	for _, t := range e.targets {
		e.observer.OnEvent(Event{Kind: EventRemove, Target: t.snapshot(), Reason: RemoveReset})
	}
	e.targets = e.targets[:0]
}

// Targets returns a copy of the live targets, oldest first
func (e *Engine) Targets() []Target {
	out := make([]Target, len(e.targets))
	for i, t := range e.targets {
		out[i] = *t
	}
	return out
}

// Now returns the simulation time
func (e *Engine) Now() time.Duration {
	return e.now
}

// Tick advances the simulation by dt: targets drift, expire, and the spawn and
// auto-clicker timers fire as many times as dt covers
func (e *Engine) Tick(dt time.Duration) {
	if dt <= 0 {
		return
	}
	if dt > MaxTickStep {
		dt = MaxTickStep
	}
	end := e.now + dt

	for {
		next := e.nextSpawn
		if e.autoOn && e.nextAuto < next {
			next = e.nextAuto
		}
		if next > end {
			break
		}

		e.advance(next - e.now)
		if e.now >= e.nextSpawn {
			e.spawn()
			e.nextSpawn += SpawnInterval(e.levels)
		}
		if e.autoOn && e.now >= e.nextAuto {
			e.autoClick()
			interval, _ := AutoInterval(e.levels)
			e.nextAuto += interval
		}
	}

	e.advance(end - e.now)
}

// advance moves every target and expires the ones that left the viewport
func (e *Engine) advance(dt time.Duration) {
	e.now += dt
	if dt <= 0 || len(e.targets) == 0 {
		return
	}

	seconds := dt.Seconds()
	live := e.targets[:0]
	for _, t := range e.targets {
		t.X += t.VX * seconds
		if t.outside(e.width) {
			e.observer.OnEvent(Event{Kind: EventRemove, Target: t.snapshot(), Reason: RemoveExpired})
			continue
		}
		live = append(live, t)
	}
	clear(e.targets[len(live):])
	e.targets = live
}

// Click resolves the most recently spawned target under the point. Returns false
// on a miss.
func (e *Engine) Click(x, y float64) bool {
	for i := len(e.targets) - 1; i >= 0; i-- {
		t := e.targets[i]
		if !t.Contains(x, y) {
			continue
		}
		e.remove(i)
		e.resolve(t, entities.RewardSourceManualClick, RemoveHit)
		return true
	}
	return false
}

func (e *Engine) spawn() {
	if e.width <= 0 || e.height <= 0 {
		return
	}

	e.nextID++
	t := &Target{
		ID:        e.nextID,
		Size:      TargetSize,
		SpawnedAt: e.now,
	}

	speed := minDriftSpeed + e.rng.Float64()*(maxDriftSpeed-minDriftSpeed)
	if e.rng.IntN(2) == 0 {
		t.Side = SideLeft
		t.X = -t.Radius()
		t.VX = speed
	} else {
		t.Side = SideRight
		t.X = e.width + t.Radius()
		t.VX = -speed
	}

	top := TopMargin + t.Radius()
	span := e.height - t.Radius() - top
	if span < 0 {
		span = 0
	}
	t.Y = top + e.rng.Float64()*span

	upgrade, prestige := GoldenChances(e.levels)
	byUpgrade := e.rng.Float64() < upgrade
	byPrestige := e.rng.Float64() < prestige
	t.Golden = byUpgrade || byPrestige

	e.targets = append(e.targets, t)
	e.observer.OnEvent(Event{Kind: EventSpawn, Target: t.snapshot()})
}

func (e *Engine) autoClick() {
	if len(e.targets) == 0 {
		return
	}
	i := e.rng.IntN(len(e.targets))
	t := e.targets[i]
	e.remove(i)
	e.resolve(t, entities.RewardSourceAutoClick, RemoveAuto)
}

func (e *Engine) remove(i int) {
	copy(e.targets[i:], e.targets[i+1:])
	e.targets[len(e.targets)-1] = nil
	e.targets = e.targets[:len(e.targets)-1]
}

func (e *Engine) resolve(t *Target, source entities.RewardSource, reason RemoveReason) {
	e.observer.OnEvent(Event{Kind: EventRemove, Target: t.snapshot(), Reason: reason})

	lucky := e.rng.Float64() < LuckyChance(e.levels)

	if e.session.IsAnonymous() {
		if !e.advised {
			e.advised = true
			e.observer.OnEvent(Event{Kind: EventAdvisory, Message: AnonymousAdvisory})
		}
		return
	}

	reward := entities.RewardEvent{
		UserID: e.session.UserID,
		Amount: RewardAmount(e.levels, t.Golden, lucky),
		Source: source,
		Golden: t.Golden,
		Lucky:  lucky,
	}

	log.WithFields(log.Fields{
		"userID": reward.UserID,
		"amount": reward.Amount,
		"source": reward.Source,
	}).Debug("Target resolved")

	e.observer.OnEvent(Event{Kind: EventReward, Target: t.snapshot(), Reward: &reward})
	e.sink.Submit(reward)
}
