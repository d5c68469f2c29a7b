package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), "extract", func(ctx context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	var observed []int

	err := Do(context.Background(), "extract",
		func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		},
		WithMaxAttempts(5),
		WithInitialDelay(time.Millisecond),
		WithOnRetry(func(attempt int, err error) {
			observed = append(observed, attempt)
		}),
	)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, observed, "observer sees each failed attempt")
}

func TestDoExhaustsAttempts(t *testing.T) {
	sentinel := errors.New("connection refused")
	calls := 0

	err := Do(context.Background(), "load",
		func(ctx context.Context) error {
			calls++
			return sentinel
		},
		WithMaxAttempts(3),
		WithInitialDelay(time.Millisecond),
	)

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, sentinel, "last error is preserved in the chain")
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestDoRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	err := Do(ctx, "extract",
		func(ctx context.Context) error {
			calls++
			cancel()
			return errors.New("transient")
		},
		WithMaxAttempts(10),
		WithInitialDelay(50*time.Millisecond),
	)

	require.Error(t, err)
	assert.Equal(t, 1, calls, "no further attempts after cancellation")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBackoffDelayGrows(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, 3, opts.MaxAttempts)
	assert.Equal(t, time.Second, opts.InitialDelay)
	assert.Equal(t, 2.0, opts.BackoffFactor)
}
