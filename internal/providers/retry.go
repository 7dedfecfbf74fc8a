package providers

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"

	"github.com/chainguard-dev/clog"

	"github.com/chatlens/chatlens/internal/config"
)

// maxBackoff caps the exponential delay between attempts.
const maxBackoff = 60 * time.Second

// maxJitter is the random spread added to each delay to avoid thundering
// herd when several providers throttle at once.
const maxJitter = 500 * time.Millisecond

// withRetry runs fn up to policy.MaxAttempts times, backing off exponentially
// between attempts. Only retryable errors earn another attempt. The returned
// attempt count includes the final (failed or successful) attempt.
func withRetry[T any](ctx context.Context, policy config.RetryPolicy, operation string, fn func(ctx context.Context) (T, error)) (T, int, error) {
	var result T
	var lastErr error

	delay := policy.InitialDelay()
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		result, lastErr = fn(ctx)
		if lastErr == nil {
			return result, attempt, nil
		}

		if !IsRetryable(lastErr) || attempt == policy.MaxAttempts {
			return result, attempt, lastErr
		}

		wait := min(delay, maxBackoff) + jitter()
		clog.FromContext(ctx).With("operation", operation).
			With("attempt", attempt).
			With("max_attempts", policy.MaxAttempts).
			With("backoff", wait).
			Warn("transient provider failure, retrying", "error", lastErr)

		select {
		case <-ctx.Done():
			return result, attempt, ctx.Err()
		case <-time.After(wait):
		}

		delay = time.Duration(float64(delay) * policy.Multiplier)
	}

	return result, policy.MaxAttempts, lastErr
}

func jitter() time.Duration {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(maxJitter)))
	if err != nil {
		return 0
	}
	return time.Duration(n.Int64())
}
