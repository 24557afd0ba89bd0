package application

import (
	"sync"

	"fireworks/engine"
)

// eventQueue buffers engine events for a session until the presentation layer
// drains them. When full, the oldest events are dropped.
type eventQueue struct {
	mu      sync.Mutex
	buf     []engine.Event
	head    int
	size    int
	dropped int
}

func newEventQueue(capacity int) *eventQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &eventQueue{buf: make([]engine.Event, capacity)}
}

func (q *eventQueue) push(event engine.Event) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.size == len(q.buf) {
		q.head = (q.head + 1) % len(q.buf)
		q.size--
		q.dropped++
	}
	q.buf[(q.head+q.size)%len(q.buf)] = event
	q.size++
}

// drain removes up to max events, oldest first, and reports how many were
// dropped since the last drain. max <= 0 drains everything.
func (q *eventQueue) drain(max int) ([]engine.Event, int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := q.size
	if max > 0 && max < n {
		n = max
	}
	out := make([]engine.Event, n)
	for i := 0; i < n; i++ {
		idx := (q.head + i) % len(q.buf)
		out[i] = q.buf[idx]
		q.buf[idx] = engine.Event{}
	}
	q.head = (q.head + n) % len(q.buf)
	q.size -= n

	dropped := q.dropped
	q.dropped = 0
	return out, dropped
}
