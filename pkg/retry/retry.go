// Package retry retries transient failures with capped exponential backoff.
package retry

import (
	"context"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy bounds how a transient failure is retried. The delay starts at
// BaseDelay, doubles on every attempt and never exceeds MaxDelay.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// Retryable selects the errors worth another attempt. Everything else fails fast.
	Retryable func(error) bool
}

// DefaultPolicy returns the policy used when nothing is configured
func DefaultPolicy(retryable func(error) bool) Policy {
	return Policy{
		MaxAttempts: 5,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    2 * time.Second,
		Retryable:   retryable,
	}
}

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.MaxInterval = p.MaxDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)
}

// Do runs fn until it succeeds, fails with a non-retryable error, the
// attempts are used up or ctx is done. The last error is returned.
func (p Policy) Do(ctx context.Context, name string, fn func() error) error {
	attempt := 0
	op := func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}
		if p.Retryable == nil || !p.Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		log.Printf("[retry] %s attempt %d failed, retrying in %v: %v", name, attempt, wait, err)
	}
	return backoff.RetryNotify(op, p.backOff(ctx), notify)
}

// Value is Do for functions that produce a result
func Value[T any](ctx context.Context, p Policy, name string, fn func() (T, error)) (T, error) {
	var out T
	err := p.Do(ctx, name, func() error {
		v, err := fn()
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
