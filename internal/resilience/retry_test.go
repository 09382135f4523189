package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, Backoff: time.Millisecond, Multiplier: 1.0}
}

func TestDoValSucceedsFirstTry(t *testing.T) {
	calls := 0
	v, err := DoVal(context.Background(), fastRetry(3), func(context.Context) (int, error) {
		calls++
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, calls)
}

func TestDoValRetriesUntilSuccess(t *testing.T) {
	calls := 0
	v, err := DoVal(context.Background(), fastRetry(3), func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 3, calls)
}

func TestDoValExhaustsAttempts(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	_, err := DoVal(context.Background(), fastRetry(3), func(context.Context) (int, error) {
		calls++
		return 0, boom
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestDoValNonRetryableStopsEarly(t *testing.T) {
	cfg := fastRetry(5)
	fatal := errors.New("fatal")
	cfg.ShouldRetry = func(err error) bool { return !errors.Is(err, fatal) }

	calls := 0
	_, err := DoVal(context.Background(), cfg, func(context.Context) (int, error) {
		calls++
		return 0, fatal
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoValContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	_, err := DoVal(ctx, fastRetry(10), func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, errors.New("transient")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls, "no retries after cancellation")
}

func TestDoValOnRetryCallback(t *testing.T) {
	cfg := fastRetry(3)
	var attempts []int
	cfg.OnRetry = func(attempt int, err error) {
		attempts = append(attempts, attempt)
	}

	_, _ = DoVal(context.Background(), cfg, func(context.Context) (int, error) {
		return 0, errors.New("transient")
	})
	assert.Equal(t, []int{1, 2}, attempts)
}

func TestDoWrapsDoVal(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastRetry(2), func(context.Context) error {
		calls++
		return errors.New("always")
	})
	require.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Backoff)
	assert.Equal(t, 1.0, cfg.Multiplier)
}
