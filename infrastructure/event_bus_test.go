package infrastructure

import (
	"context"
	"errors"
	"sync"
	"testing"

	"fireworks/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalEventBus_DeliversToSubscribersAndDownstream(t *testing.T) {
	downstream := &MockEventPublisher{}
	bus := NewLocalEventBus(downstream)

	var mu sync.Mutex
	var received []string
	bus.Subscribe(events.EventTypeBalanceChange, func(ctx context.Context, event events.Event) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, event.(events.BalanceChangeEvent).UserID)
	})
	bus.Subscribe(events.EventTypePrestigeReset, func(ctx context.Context, event events.Event) {
		t.Error("prestige handler must not see balance events")
	})

	require.NoError(t, bus.Publish(events.BalanceChangeEvent{UserID: "alice", ChangeAmount: 1}))
	bus.Wait()

	mu.Lock()
	assert.Equal(t, []string{"alice"}, received)
	mu.Unlock()
	assert.Len(t, downstream.Published(), 1)
}

func TestLocalEventBus_RecoversFromPanickingHandler(t *testing.T) {
	bus := NewLocalEventBus(nil)

	called := make(chan struct{}, 1)
	bus.Subscribe(events.EventTypeAccountCreated, func(ctx context.Context, event events.Event) {
		panic("boom")
	})
	bus.Subscribe(events.EventTypeAccountCreated, func(ctx context.Context, event events.Event) {
		called <- struct{}{}
	})

	require.NoError(t, bus.Publish(events.AccountCreatedEvent{UserID: "bob"}))
	bus.Wait()

	select {
	case <-called:
	default:
		t.Fatal("second handler did not run")
	}
}

func TestLocalEventBus_ReturnsDownstreamError(t *testing.T) {
	bus := NewLocalEventBus(&MockEventPublisher{PublishError: errors.New("nats down")})
	assert.Error(t, bus.Publish(events.AccountCreatedEvent{UserID: "carol"}))
}
