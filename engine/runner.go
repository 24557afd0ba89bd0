package engine

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
)

// ErrRunnerStopped is returned for inputs sent to a runner that has exited
var ErrRunnerStopped = errors.New("engine runner stopped")

type command struct {
	fn   func(*Engine)
	done chan struct{}
}

// Runner owns an Engine on one goroutine, driving Tick from a clock and applying
// inputs in arrival order between ticks
type Runner struct {
	engine *Engine
	clock  Clock
	tick   time.Duration
	inputs chan command
	done   chan struct{}
}

// NewRunner creates a runner. Run must be called to start it.
func NewRunner(engine *Engine, clock Clock, tick time.Duration) *Runner {
	return &Runner{
		engine: engine,
		clock:  clock,
		tick:   tick,
		inputs: make(chan command),
		done:   make(chan struct{}),
	}
}

// Run drives the engine until ctx is done
func (r *Runner) Run(ctx context.Context) {
	defer close(r.done)

	ticker := r.clock.NewTicker(r.tick)
	defer ticker.Stop()
	last := r.clock.Now()

	log.WithField("tick", r.tick).Debug("Engine runner started")
	for {
		select {
		case <-ctx.Done():
			log.Debug("Engine runner stopped")
			return
		case cmd := <-r.inputs:
			cmd.fn(r.engine)
			close(cmd.done)
		case now := <-ticker.C():
			r.engine.Tick(now.Sub(last))
			last = now
		}
	}
}

// Do runs fn on the engine goroutine and waits for it to finish
func (r *Runner) Do(ctx context.Context, fn func(*Engine)) error {
	cmd := command{fn: fn, done: make(chan struct{})}
	select {
	case r.inputs <- cmd:
	case <-r.done:
		return ErrRunnerStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	// Once accepted the command always runs before the next select
	<-cmd.done
	return nil
}

// Click forwards an interaction and reports whether it resolved a target
func (r *Runner) Click(ctx context.Context, x, y float64) (bool, error) {
	var hit bool
	err := r.Do(ctx, func(e *Engine) { hit = e.Click(x, y) })
	return hit, err
}

// Resize forwards a viewport change
func (r *Runner) Resize(ctx context.Context, width, height float64) error {
	return r.Do(ctx, func(e *Engine) { e.Resize(width, height) })
}

// SetLevels forwards new upgrade levels
func (r *Runner) SetLevels(ctx context.Context, levels Levels) error {
	return r.Do(ctx, func(e *Engine) { e.SetLevels(levels) })
}

// Targets returns a copy of the live targets
func (r *Runner) Targets(ctx context.Context) ([]Target, error) {
	var targets []Target
	err := r.Do(ctx, func(e *Engine) { targets = e.Targets() })
	return targets, err
}

// Done is closed once Run has returned
func (r *Runner) Done() <-chan struct{} {
	return r.done
}
