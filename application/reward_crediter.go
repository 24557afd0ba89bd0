package application

import (
	"context"
	"sync"
	"time"

	"fireworks/domain/entities"
	"fireworks/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

// CreditResult is delivered once a submitted reward's transaction has finished
type CreditResult func(account *entities.Account, err error)

type pendingCredit struct {
	reward entities.RewardEvent
	done   CreditResult
}

// RewardCrediter credits engine rewards off the simulation goroutine. Submit never
// blocks; each credit runs with its own deadline, detached from the session that
// produced it.
type RewardCrediter struct {
	economy *Economy
	metrics *observability.MetricsProvider
	timeout time.Duration
	queue   chan pendingCredit
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewRewardCrediter starts workers goroutines draining a queue of queueSize
func NewRewardCrediter(economy *Economy, metrics *observability.MetricsProvider, timeout time.Duration, workers, queueSize int) *RewardCrediter {
	if workers < 1 {
		workers = 1
	}
	c := &RewardCrediter{
		economy: economy,
		metrics: metrics,
		timeout: timeout,
		queue:   make(chan pendingCredit, queueSize),
	}
	for i := 0; i < workers; i++ {
		c.wg.Add(1)
		go c.work()
	}
	return c
}

// Submit queues a reward. done may be nil and is called from a worker goroutine.
// When the queue is full the reward is dropped and done receives ErrStoreUnavailable.
func (c *RewardCrediter) Submit(reward entities.RewardEvent, done CreditResult) {
	if done == nil {
		done = func(*entities.Account, error) {}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		c.drop(reward, done, "closed")
		return
	}

	select {
	case c.queue <- pendingCredit{reward: reward, done: done}:
	default:
		c.drop(reward, done, "queue_full")
	}
}

func (c *RewardCrediter) drop(reward entities.RewardEvent, done CreditResult, reason string) {
	log.WithFields(log.Fields{
		"userID": reward.UserID,
		"amount": reward.Amount,
		"reason": reason,
	}).Warn("Dropping reward")
	c.metrics.RecordRewardDropped(string(reward.Source), entities.FailureStoreUnavailable)
	done(nil, entities.ErrStoreUnavailable)
}

func (c *RewardCrediter) work() {
	defer c.wg.Done()
	for credit := range c.queue {
		c.credit(credit)
	}
}

func (c *RewardCrediter) credit(credit pendingCredit) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	account, err := c.economy.Credit(ctx, credit.reward)
	if err != nil {
		log.WithFields(log.Fields{
			"userID": credit.reward.UserID,
			"amount": credit.reward.Amount,
			"error":  err,
		}).Warn("Failed to credit reward")
		c.metrics.RecordRewardDropped(string(credit.reward.Source), entities.FailureKind(err))
	} else {
		c.metrics.RecordReward(string(credit.reward.Source), credit.reward.Amount)
	}
	credit.done(account, err)
}

// Close stops accepting rewards and waits for queued ones to finish
func (c *RewardCrediter) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.queue)
	c.mu.Unlock()

	c.wg.Wait()
}
