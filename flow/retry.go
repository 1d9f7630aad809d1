package flow

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// itemRetry runs fn up to policy.MaxAttempts times, applying exponential
// backoff between attempts (spec.md §4.6). It returns the first
// successful result, or the last error once attempts are exhausted. A
// zero or negative MaxAttempts is treated as one attempt.
func itemRetry[O any](ctx context.Context, policy RetryPolicy, observe func(attempt int, delay time.Duration, err error), fn func() (O, error)) (O, error) {
	maxAttempts := policy.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	delay := policy.BaseDelay
	if delay <= 0 {
		delay = 50 * time.Millisecond
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == maxAttempts {
			break
		}

		wait := delay
		if policy.Jitter {
			//nolint:gosec // jitter spread, not security sensitive
			wait += time.Duration(float64(delay) * 0.25 * (2*rand.Float64() - 1))
		}
		if observe != nil {
			observe(attempt, wait, err)
		}

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			var zero O
			return zero, ctx.Err()
		}

		delay = time.Duration(math.Min(float64(delay)*2, float64(time.Minute)))
	}

	var zero O
	return zero, lastErr
}

// withTimeout races fn against a timeout derived from ctx, matching the
// AnnotationTimeout annotation (spec.md §5, §6 supplement). A zero
// timeout disables the race and runs fn directly on ctx.
func withTimeout[O any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (O, error)) (O, error) {
	if timeout <= 0 {
		return fn(ctx)
	}

	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		value O
		err   error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(tctx)
		done <- result{value: v, err: err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-tctx.Done():
		var zero O
		return zero, tctx.Err()
	}
}
