package submit

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Defaults for the retry policy.
const (
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 5 * time.Second
)

// retryState is the explicit state of the retry machine. Modeling the
// loop as enumerated states keeps attempt counting and delay behavior
// testable without timing a real network.
type retryState int

const (
	stateAttempting retryState = iota
	stateRetryWait
	stateSucceeded
	stateFailedTerminal
)

// AttemptFunc performs one full verification attempt: fetch the deployed
// code, match it, and submit. It returns a retryable outcome when the
// bytecode is not yet visible; any returned error is terminal.
type AttemptFunc func(ctx context.Context, attempt int) (*Outcome, error)

// Retrier applies the bounded retry policy around verification attempts.
type Retrier struct {
	MaxAttempts int
	Delay       time.Duration
	Logger      *slog.Logger

	// Sleep performs the inter-attempt wait. Swapped out in tests.
	Sleep func(time.Duration)
}

// NewRetrier creates a retrier with the given bounds, falling back to the
// defaults for non-positive values.
func NewRetrier(maxAttempts int, delay time.Duration, logger *slog.Logger) *Retrier {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if delay <= 0 {
		delay = DefaultRetryDelay
	}
	return &Retrier{
		MaxAttempts: maxAttempts,
		Delay:       delay,
		Logger:      logger,
		Sleep:       time.Sleep,
	}
}

// Run drives attempts to a terminal state. Transitions: a successful
// attempt ends in StatusSucceeded; a retryable failure moves to a fixed
// delay wait while attempts remain, then back to attempting; any other
// failure, or exhausting MaxAttempts, ends in StatusFailed carrying the
// last observed reason verbatim.
func (r *Retrier) Run(ctx context.Context, attempt AttemptFunc) (*Outcome, error) {
	state := stateAttempting
	attemptNo := 1
	var last *Outcome

	for {
		switch state {
		case stateAttempting:
			outcome, err := attempt(ctx, attemptNo)
			if err != nil {
				return nil, err
			}
			last = outcome

			switch outcome.Status {
			case StatusSucceeded:
				state = stateSucceeded
			case StatusRetryable:
				if attemptNo < r.MaxAttempts {
					state = stateRetryWait
				} else {
					state = stateFailedTerminal
				}
			default:
				state = stateFailedTerminal
			}

		case stateRetryWait:
			r.Logger.Info("bytecode not yet visible, waiting before retry",
				"attempt", attemptNo,
				"max_attempts", r.MaxAttempts,
				"delay", r.Delay)
			r.Sleep(r.Delay)
			attemptNo++
			state = stateAttempting

		case stateSucceeded:
			last.Attempts = attemptNo
			return last, nil

		case stateFailedTerminal:
			if last.Status == StatusRetryable {
				last = Failed(fmt.Sprintf("gave up after %d attempts: %s", attemptNo, last.Reason))
			}
			last.Attempts = attemptNo
			return last, nil
		}
	}
}
