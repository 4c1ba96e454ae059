package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("dial tcp: connection refused")
		}
		return nil
	}, WithMaxAttempts(5), WithInitialDelay(time.Millisecond), WithJitter(0))

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsOnPermanent(t *testing.T) {
	bad := errors.New("bad password")
	calls := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		return Permanent(bad)
	}, WithMaxAttempts(5), WithInitialDelay(time.Millisecond))

	assert.ErrorIs(t, err, bad)
	assert.False(t, IsPermanent(err))
	assert.Equal(t, 1, calls)
}

func TestDo_ReturnsLastErrorWhenExhausted(t *testing.T) {
	var retries []int
	err := Do(context.Background(), func(ctx context.Context) error {
		return errors.New("still down")
	},
		WithMaxAttempts(3),
		WithInitialDelay(time.Millisecond),
		WithOnRetry(func(attempt int, err error, delay time.Duration) {
			retries = append(retries, attempt)
		}),
	)

	assert.EqualError(t, err, "still down")
	assert.Equal(t, []int{1, 2}, retries)
}

func TestDo_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDelay_Capped(t *testing.T) {
	cfg := Config{InitialDelay: time.Second, MaxDelay: 2 * time.Second, Multiplier: 10}
	assert.Equal(t, time.Second, cfg.delay(1))
	assert.Equal(t, 2*time.Second, cfg.delay(3))
}
