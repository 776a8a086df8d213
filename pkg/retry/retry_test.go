package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")

func fastConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	calls := 0

	err := Do(context.Background(), fastConfig(), func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0

	err := Do(context.Background(), fastConfig(), func() error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustionWrapsLastError(t *testing.T) {
	calls := 0

	err := Do(context.Background(), fastConfig(), func() error {
		calls++
		return errTransient
	})

	require.Error(t, err)
	assert.Equal(t, 4, calls, "one initial attempt plus MaxAttempts retries")
	assert.ErrorIs(t, err, errTransient, "the cause survives the exhaustion wrap")
}

func TestDo_NonRetryableFailsImmediately(t *testing.T) {
	cfg := fastConfig()
	cfg.RetryableErrors = []error{errTransient}
	fatal := errors.New("fatal")
	calls := 0

	err := Do(context.Background(), cfg, func() error {
		calls++
		return fatal
	})

	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls)
}

func TestDo_RetryableMatchesWrappedErrors(t *testing.T) {
	cfg := fastConfig()
	cfg.RetryableErrors = []error{errTransient}
	calls := 0

	err := Do(context.Background(), cfg, func() error {
		calls++
		if calls == 1 {
			return fmt.Errorf("saving doc: %w", errTransient)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestDo_ContextCancellationStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	err := Do(ctx, fastConfig(), func() error {
		calls++
		cancel()
		return errTransient
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDoWithResult_ReturnsValue(t *testing.T) {
	calls := 0

	got, err := DoWithResult(context.Background(), fastConfig(), func() (int, error) {
		calls++
		if calls < 2 {
			return 0, errTransient
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestDelay_RespectsMaxAndJitterBounds(t *testing.T) {
	cfg := Config{
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     40 * time.Millisecond,
		Multiplier:   2.0,
		Jitter:       true,
	}

	for attempt := 0; attempt < 8; attempt++ {
		d := delay(cfg, attempt)
		assert.GreaterOrEqual(t, d, 7500*time.Microsecond)
		assert.LessOrEqual(t, d, cfg.MaxDelay+cfg.MaxDelay/4)
	}
}
