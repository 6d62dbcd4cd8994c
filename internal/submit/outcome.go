// Package submit drives the verification handshake with the explorer
// service, including the bounded retry policy for not-yet-visible
// bytecode.
package submit

// Status classifies the result of a verification attempt.
type Status string

const (
	// StatusSucceeded means the service accepted the submission.
	StatusSucceeded Status = "succeeded"
	// StatusFailed means the attempt failed permanently. Callers must
	// not retry.
	StatusFailed Status = "failed"
	// StatusRetryable means the deployed bytecode was not yet visible
	// to the service. The retry policy may absorb it.
	StatusRetryable Status = "retryable"
)

// Outcome is the closed result of a verification attempt. Exactly one of
// ExplorerURL (on success) or Reason (on failure) is meaningful.
type Outcome struct {
	Status      Status
	ExplorerURL string
	Reason      string

	// Attempts is the number of attempts performed before this outcome
	// became terminal. Zero until filled in by the retry policy.
	Attempts int
}

// Succeeded returns a successful outcome pointing at the verified
// contract on the explorer.
func Succeeded(explorerURL string) *Outcome {
	return &Outcome{Status: StatusSucceeded, ExplorerURL: explorerURL}
}

// Failed returns a terminal failure outcome.
func Failed(reason string) *Outcome {
	return &Outcome{Status: StatusFailed, Reason: reason}
}

// Retryable returns a transient failure outcome.
func Retryable(reason string) *Outcome {
	return &Outcome{Status: StatusRetryable, Reason: reason}
}
