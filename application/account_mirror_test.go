package application

import (
	"testing"
	"time"

	"fireworks/domain/entities"
	"fireworks/engine"

	"github.com/stretchr/testify/assert"
)

func mirroredAccount(balance int64, updatedAt time.Time) *entities.Account {
	account := entities.NewAccount("alice")
	account.Balance = balance
	account.UpdatedAt = updatedAt
	return account
}

func TestAccountMirror_TentativeChanges(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mirror := NewAccountMirror(mirroredAccount(10, t0))

	first := mirror.ApplyTentative(entities.Deltas{entities.FieldBalance: 5}, true)
	second := mirror.ApplyTentative(entities.Deltas{entities.FieldBalance: 2}, true)

	assert.Equal(t, int64(17), mirror.View().Balance)
	assert.Equal(t, int64(7), mirror.View().TotalEarnedAllTime)
	assert.Equal(t, int64(10), mirror.Confirmed().Balance)
	assert.Equal(t, 2, mirror.Pending())

	mirror.Reject(second)
	assert.Equal(t, int64(15), mirror.View().Balance)

	confirmed := mirroredAccount(15, t0.Add(time.Second))
	confirmed.TotalEarnedAllTime = 5
	mirror.Confirm(first, confirmed)

	assert.Equal(t, 0, mirror.Pending())
	assert.Equal(t, int64(15), mirror.View().Balance)
	assert.Equal(t, int64(15), mirror.Confirmed().Balance)
}

func TestAccountMirror_IgnoresStaleReads(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mirror := NewAccountMirror(mirroredAccount(10, t0))

	mirror.Refresh(mirroredAccount(30, t0.Add(2*time.Second)))
	mirror.Refresh(mirroredAccount(20, t0.Add(time.Second)))
	mirror.Refresh(nil)

	assert.Equal(t, int64(30), mirror.Confirmed().Balance)
}

func TestAccountMirror_ViewSkipsChangesThatNoLongerFit(t *testing.T) {
	mirror := NewAccountMirror(mirroredAccount(10, time.Time{}))

	mirror.ApplyTentative(entities.Deltas{entities.FieldBalance: -25}, false)
	mirror.ApplyTentative(entities.Deltas{entities.FieldBalance: 3}, true)

	assert.Equal(t, int64(13), mirror.View().Balance)
}

func TestEventQueue_DropsOldest(t *testing.T) {
	q := newEventQueue(2)
	for _, msg := range []string{"a", "b", "c"} {
		q.push(testAdvisory(msg))
	}

	out, dropped := q.drain(0)
	assert.Equal(t, 1, dropped)
	assert.Equal(t, []string{"b", "c"}, messages(out))

	q.push(testAdvisory("d"))
	q.push(testAdvisory("e"))
	out, dropped = q.drain(1)
	assert.Equal(t, 0, dropped)
	assert.Equal(t, []string{"d"}, messages(out))

	out, _ = q.drain(0)
	assert.Equal(t, []string{"e"}, messages(out))
}

func testAdvisory(msg string) engine.Event {
	return engine.Event{Kind: engine.EventAdvisory, Message: msg}
}

func messages(events []engine.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Message
	}
	return out
}
