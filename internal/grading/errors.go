package grading

import "errors"

// Sentinel errors returned by the grading engine. Callers match them
// with errors.Is to decide how to react: ErrAttemptInFlight means the
// submit control should be disabled rather than retried, while
// ErrSemanticUnavailable is an expected internal condition that never
// escapes Submit (it triggers the exact-match fallback instead).
var (
	// ErrInvalidAttempt indicates a submission that violates the engine's
	// contract, such as an empty answer or a malformed exercise.
	ErrInvalidAttempt = errors.New("invalid attempt")

	// ErrAttemptInFlight indicates a submission arrived for an exercise
	// whose previous submission is still being checked.
	ErrAttemptInFlight = errors.New("attempt already in flight")

	// ErrAttemptResolved indicates a submission arrived for an exercise
	// that has already reached a terminal state.
	ErrAttemptResolved = errors.New("attempt already resolved")

	// ErrSemanticUnavailable indicates the semantic grading service could
	// not produce a verdict in time.
	ErrSemanticUnavailable = errors.New("semantic grading unavailable")
)
