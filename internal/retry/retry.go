// Package retry provides a transport-agnostic retry loop with exponential
// backoff.
package retry

import (
	"context"
	"time"
)

// Config controls the retry loop.
type Config struct {
	// MaxAttempts is the total number of invocations, first try included.
	MaxAttempts int
	// BaseDelay is the wait before the second attempt; it doubles after
	// each failure.
	BaseDelay time.Duration
	// Retryable reports whether a failure is transient. A nil predicate
	// treats every error as retryable.
	Retryable func(error) bool
}

// Do invokes fn until it succeeds, the predicate rejects the error, or the
// attempt budget is exhausted. The delay between attempts respects context
// cancellation; the last error is returned unchanged.
func Do[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	var zero T

	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	backoff := cfg.BaseDelay
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}

	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		v, err := fn()
		if err == nil {
			return v, nil
		}
		lastErr = err

		if cfg.Retryable != nil && !cfg.Retryable(err) {
			return zero, lastErr
		}

		if attempt == attempts {
			return zero, lastErr
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}

		backoff *= 2
	}

	return zero, lastErr
}
