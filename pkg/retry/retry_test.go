package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/therapistdirectory/pkg/retry"
)

func fastConfig(attempts int) retry.Config {
	return retry.Config{
		MaxAttempts:     attempts,
		InitialDelay:    time.Millisecond,
		MaxDelay:        5 * time.Millisecond,
		BackoffFactor:   2,
		MaxTotalTimeout: time.Second,
	}
}

func TestDo_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := retry.Do(context.Background(), fastConfig(5), func() error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoWithLog_StopsAtMaxAttempts(t *testing.T) {
	calls := 0
	var logged []int
	boom := errors.New("connection refused")

	err := retry.DoWithLog(context.Background(), fastConfig(3), "postgres", func() error {
		calls++
		return boom
	}, func(attempt int, err error, _ time.Duration) {
		logged = append(logged, attempt)
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "postgres")
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, logged)
}

func TestDoWithLog_PermanentError(t *testing.T) {
	calls := 0
	bad := errors.New("bad credentials")

	err := retry.Do(context.Background(), fastConfig(5), func() error {
		calls++
		return retry.Permanent(bad)
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, bad)
	assert.Equal(t, 1, calls)
}

func TestDoWithLog_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := retry.Do(ctx, fastConfig(5), func() error {
		return errors.New("unreachable")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
