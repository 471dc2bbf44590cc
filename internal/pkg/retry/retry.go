// Package retry provides the bounded retry combinator used around record
// store lookups.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy bounds a retried operation.
type Policy struct {
	// Attempts is the total number of calls, including the first one.
	Attempts int
	// Delay is the wait before the first retry; later waits grow exponentially.
	Delay time.Duration
	// MaxDelay caps a single wait. Zero means 10 × Delay.
	MaxDelay time.Duration
	// Jitter is the randomization factor applied to each wait, 0..1.
	Jitter float64
}

// Notify is called before each retry with the failed attempt's error.
type Notify func(err error, attempt int, wait time.Duration)

// Permanent marks err as non-retryable. Do returns the unwrapped error.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do runs op until it succeeds, returns a permanent error, the context ends or
// the policy's attempts are exhausted. The last error is returned.
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error, notify Notify) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	b := p.backOff()
	retries := backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)

	attempt := 0
	operation := func() error {
		attempt++
		return op(ctx)
	}

	var onRetry backoff.Notify
	if notify != nil {
		onRetry = func(err error, wait time.Duration) {
			notify(err, attempt, wait)
		}
	}

	err := backoff.RetryNotify(operation, retries, onRetry)
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return permanent.Err
	}
	return err
}

func (p Policy) backOff() *backoff.ExponentialBackOff {
	delay := p.Delay
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}
	maxDelay := p.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 10 * delay
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = delay
	b.MaxInterval = maxDelay
	b.RandomizationFactor = p.Jitter
	b.Multiplier = 2
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}
