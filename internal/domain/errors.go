package domain

import "fmt"

// PolicyRejectedError reports that the downstream compliance policy refused a
// well-formed stage submission for a specific identity. Not retryable without
// an out-of-band allowlist change.
type PolicyRejectedError struct {
	Identity string
	Message  string
}

func (e *PolicyRejectedError) Error() string {
	return fmt.Sprintf("policy rejected identity %s: %s", e.Identity, e.Message)
}

// TransportError reports that a stage submission failed before or during
// delivery. Effects of earlier stages stand; the outcome records how far the
// pipeline got.
type TransportError struct {
	Message string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("report submission failed: %s", e.Message)
}
