// Package retry provides exponential backoff with jitter for outbound
// catalog calls. The retry predicate is error-kind aware: permanent kinds
// (auth, rate limit, parse) are never retried.
package retry

import (
	"context"
	"math/rand"
	"time"

	"github.com/arguspanoptes/argus-server/internal/errors"
)

// Options tunes one retry loop.
type Options struct {
	// MaxRetries is the number of retries after the initial attempt, so at
	// most 1+MaxRetries calls are made.
	MaxRetries int
	// BaseDelay seeds the exponential backoff: attempt n waits
	// BaseDelay * 2^(n-1), plus or minus 25% jitter.
	BaseDelay time.Duration
	// ShouldRetry overrides the default predicate (errors.Retryable).
	ShouldRetry func(error) bool
}

// Do calls fn until it succeeds, the predicate rejects the error, retries
// are exhausted, or ctx is done. Context cancellation propagates
// immediately, including out of a backoff wait.
func Do(ctx context.Context, fn func(ctx context.Context) error, opts Options) error {
	shouldRetry := opts.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = errors.Retryable
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = 500 * time.Millisecond
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt >= opts.MaxRetries || !shouldRetry(lastErr) {
			return lastErr
		}

		if err := sleep(ctx, Backoff(opts.BaseDelay, attempt+1)); err != nil {
			return err
		}
	}
}

// Backoff computes the delay before retry n (1-indexed):
// base * 2^(n-1), with ±25% uniform jitter.
func Backoff(base time.Duration, n int) time.Duration {
	d := base << (n - 1)
	jitter := 0.75 + rand.Float64()*0.5 //nolint:gosec // jitter needs no crypto rand
	return time.Duration(float64(d) * jitter)
}

// sleep waits for d or until ctx is done, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
