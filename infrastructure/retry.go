package infrastructure

import (
	"context"
	"time"

	"fireworks/infrastructure/observability"
	"fireworks/repository"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
)

// ConflictRetrier reruns a whole store transaction when the store reports a
// serialization failure or deadlock. Anything else is returned as is.
type ConflictRetrier struct {
	maxElapsed time.Duration
	isConflict func(error) bool
	metrics    *observability.MetricsProvider
}

// NewConflictRetrier creates a retrier that gives up after maxElapsed. metrics may be nil.
func NewConflictRetrier(maxElapsed time.Duration, metrics *observability.MetricsProvider) *ConflictRetrier {
	return &ConflictRetrier{
		maxElapsed: maxElapsed,
		isConflict: repository.IsConflict,
		metrics:    metrics,
	}
}

// Do runs fn until it succeeds, fails with a non-conflict error, or the retry
// budget runs out
func (r *ConflictRetrier) Do(ctx context.Context, op string, fn func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 10 * time.Millisecond
	policy.MaxInterval = 250 * time.Millisecond
	policy.MaxElapsedTime = r.maxElapsed

	attempt := 0
	err := backoff.RetryNotify(func() error {
		attempt++
		err := fn()
		if err == nil || !r.isConflict(err) {
			if err != nil {
				return backoff.Permanent(err)
			}
			return nil
		}
		return err
	}, backoff.WithContext(policy, ctx), func(err error, wait time.Duration) {
		r.metrics.RecordConflictRetry(op)
		log.WithFields(log.Fields{
			"operation": op,
			"attempt":   attempt,
			"wait":      wait,
			"error":     err,
		}).Warn("Store conflict, retrying transaction")
	})
	return err
}
