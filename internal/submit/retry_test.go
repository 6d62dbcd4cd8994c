package submit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRetrier(maxAttempts int) (*Retrier, *[]time.Duration) {
	var sleeps []time.Duration
	r := NewRetrier(maxAttempts, 5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r.Sleep = func(d time.Duration) { sleeps = append(sleeps, d) }
	return r, &sleeps
}

func TestRetrier_SucceedsOnThirdAttempt(t *testing.T) {
	r, sleeps := testRetrier(3)

	calls := 0
	outcome, err := r.Run(context.Background(), func(ctx context.Context, attempt int) (*Outcome, error) {
		calls++
		assert.Equal(t, calls, attempt)
		if calls < 3 {
			return Retryable("bytecode not found"), nil
		}
		return Succeeded("https://explorer.example.com/contract/0xabc"), nil
	})

	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, outcome.Status)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, outcome.Attempts)
	// Exactly two delayed waits, both of the fixed duration.
	assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second}, *sleeps)
}

func TestRetrier_ExhaustsAttempts(t *testing.T) {
	r, sleeps := testRetrier(3)

	calls := 0
	outcome, err := r.Run(context.Background(), func(ctx context.Context, attempt int) (*Outcome, error) {
		calls++
		return Retryable("bytecode not found"), nil
	})

	require.NoError(t, err)
	assert.Equal(t, StatusFailed, outcome.Status)
	assert.Contains(t, outcome.Reason, "gave up after 3 attempts")
	assert.Contains(t, outcome.Reason, "bytecode not found")
	// Never a 4th attempt, and no wait after the last one.
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, outcome.Attempts)
	assert.Len(t, *sleeps, 2)
}

func TestRetrier_TerminalFailureNotRetried(t *testing.T) {
	r, sleeps := testRetrier(3)

	calls := 0
	outcome, err := r.Run(context.Background(), func(ctx context.Context, attempt int) (*Outcome, error) {
		calls++
		return Failed("compiler version mismatch"), nil
	})

	require.NoError(t, err)
	assert.Equal(t, StatusFailed, outcome.Status)
	assert.Equal(t, "compiler version mismatch", outcome.Reason)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, outcome.Attempts)
	assert.Empty(t, *sleeps)
}

func TestRetrier_ErrorIsTerminal(t *testing.T) {
	r, sleeps := testRetrier(3)

	wantErr := errors.New("no bytecode match")
	calls := 0
	_, err := r.Run(context.Background(), func(ctx context.Context, attempt int) (*Outcome, error) {
		calls++
		return nil, wantErr
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, wantErr))
	assert.Equal(t, 1, calls)
	assert.Empty(t, *sleeps)
}

func TestRetrier_SuccessFirstAttempt(t *testing.T) {
	r, sleeps := testRetrier(3)

	outcome, err := r.Run(context.Background(), func(ctx context.Context, attempt int) (*Outcome, error) {
		return Succeeded("https://explorer.example.com/contract/0xabc"), nil
	})

	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, outcome.Status)
	assert.Empty(t, *sleeps)
}

func TestNewRetrier_Defaults(t *testing.T) {
	r := NewRetrier(0, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Equal(t, DefaultMaxAttempts, r.MaxAttempts)
	assert.Equal(t, DefaultRetryDelay, r.Delay)
}
