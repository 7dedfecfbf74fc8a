package providers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatlens/chatlens/internal/config"
)

func fastRetry(maxAttempts int) config.RetryPolicy {
	return config.RetryPolicy{MaxAttempts: maxAttempts, InitialDelayMs: 1, Multiplier: 2}
}

func TestWithRetrySucceedsFirstAttempt(t *testing.T) {
	v, attempts, err := withRetry(context.Background(), fastRetry(3), "test", func(ctx context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, attempts)
}

func TestWithRetryRecoversFromTransientFailure(t *testing.T) {
	calls := 0
	v, attempts, err := withRetry(context.Background(), fastRetry(3), "test", func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", &CallError{StatusCode: 429, Retryable: true, Err: errors.New("throttled")}
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 3, attempts)
}

func TestWithRetryStopsOnPermanentFailure(t *testing.T) {
	calls := 0
	_, attempts, err := withRetry(context.Background(), fastRetry(5), "test", func(ctx context.Context) (int, error) {
		calls++
		return 0, &CallError{StatusCode: 401, Retryable: false, Err: errors.New("bad key")}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, attempts)
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	_, attempts, err := withRetry(context.Background(), fastRetry(3), "test", func(ctx context.Context) (int, error) {
		calls++
		return 0, &CallError{StatusCode: 503, Retryable: true, Err: errors.New("overloaded")}
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, attempts)

	var call *CallError
	assert.ErrorAs(t, err, &call)
}

func TestWithRetryHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	_, _, err := withRetry(ctx, fastRetry(5), "test", func(ctx context.Context) (int, error) {
		calls++
		cancel()
		return 0, &CallError{StatusCode: 429, Retryable: true, Err: errors.New("throttled")}
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
