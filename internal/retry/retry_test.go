package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pressrun/pressrun/internal/retry"
)

func fastConfig() retry.Config {
	return retry.Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	t.Parallel()

	calls := 0
	err := retry.Do(context.Background(), fastConfig(), func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesThenSucceeds(t *testing.T) {
	t.Parallel()

	calls := 0
	err := retry.Do(context.Background(), fastConfig(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	t.Parallel()

	calls := 0
	boom := errors.New("boom")
	err := retry.Do(context.Background(), fastConfig(), func() error {
		calls++
		return boom
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, retry.ErrMaxAttemptsExceeded)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestDo_NonRetryableFailsImmediately(t *testing.T) {
	t.Parallel()

	cfg := fastConfig()
	cfg.IsRetryable = func(error) bool { return false }

	calls := 0
	fatal := errors.New("bad request")
	err := retry.Do(context.Background(), cfg, func() error {
		calls++
		return fatal
	})

	require.ErrorIs(t, err, fatal)
	assert.NotErrorIs(t, err, retry.ErrMaxAttemptsExceeded)
	assert.Equal(t, 1, calls)
}

func TestDo_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := retry.Do(ctx, fastConfig(), func() error {
		t.Fatal("fn should not run with cancelled context")
		return nil
	})

	assert.ErrorIs(t, err, retry.ErrContextCancelled)
}

func TestDo_CancelledDuringBackoff(t *testing.T) {
	t.Parallel()

	cfg := fastConfig()
	cfg.InitialDelay = 250 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	errCh := make(chan error, 1)
	go func() {
		errCh <- retry.Do(ctx, cfg, func() error {
			calls++
			return errors.New("transient")
		})
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, retry.ErrContextCancelled)
		assert.Equal(t, 1, calls)
	case <-time.After(time.Second):
		t.Fatal("retry did not observe cancellation")
	}
}
