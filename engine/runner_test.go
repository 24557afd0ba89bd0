package engine

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_SerializesInputsAndTicks(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	e := New(rand.New(rand.NewPCG(1, 2)), nil, nil)
	runner := NewRunner(e, clock, 16*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go runner.Run(ctx)

	require.NoError(t, runner.Resize(ctx, 800, 600))
	require.NoError(t, runner.Do(ctx, func(e *Engine) { place(e, 100, 100) }))

	hit, err := runner.Click(ctx, 100, 100)
	require.NoError(t, err)
	assert.True(t, hit)

	hit, err = runner.Click(ctx, 100, 100)
	require.NoError(t, err)
	assert.False(t, hit)

	clock.Advance(100 * time.Millisecond)
	assert.Eventually(t, func() bool {
		var now time.Duration
		_ = runner.Do(ctx, func(e *Engine) { now = e.Now() })
		return now == 100*time.Millisecond
	}, time.Second, 5*time.Millisecond)
}

func TestRunner_StopsWithContext(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	runner := NewRunner(New(rand.New(rand.NewPCG(1, 2)), nil, nil), clock, 16*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	go runner.Run(ctx)
	cancel()

	select {
	case <-runner.Done():
	case <-time.After(time.Second):
		t.Fatal("runner did not stop")
	}

	err := runner.Do(context.Background(), func(*Engine) {})
	assert.True(t, errors.Is(err, ErrRunnerStopped))
}
