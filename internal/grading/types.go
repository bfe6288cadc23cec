package grading

import "context"

// Status is the graded outcome of a single attempt.
type Status string

// Possible attempt outcomes
const (
	StatusCorrect   Status = "correct"
	StatusIncorrect Status = "incorrect"

	// StatusUnscored means the exercise carried too little answer data to
	// grade the attempt either way.
	StatusUnscored Status = "unscored"
)

// Method records which grading tier produced the outcome.
type Method string

// Grading tiers, in the order they are tried
const (
	// MethodExact means the normalized attempt matched an expected answer,
	// or no further tier was configured to consult.
	MethodExact Method = "exact"

	// MethodSemantic means the semantic grading service produced the verdict.
	MethodSemantic Method = "semantic"

	// MethodFallback means the semantic tier was consulted but failed or
	// timed out, so the exact-match result stands.
	MethodFallback Method = "fallback"

	// MethodUnscored means no tier could grade the attempt.
	MethodUnscored Method = "unscored"
)

// Phase is the current position of an exercise in the attempt state
// machine.
type Phase string

// Attempt phases
const (
	// PhaseIdle means no attempt has been submitted yet.
	PhaseIdle Phase = "idle"

	// PhaseChecking means a submission is being graded; further
	// submissions for the same exercise are rejected until it finishes.
	PhaseChecking Phase = "checking"

	// PhaseLocked means the last attempt missed and a retry is allowed.
	PhaseLocked Phase = "locked"

	// PhaseResolved is terminal; see Resolution for how it ended.
	PhaseResolved Phase = "resolved"
)

// Resolution says how a resolved exercise ended.
type Resolution string

// Terminal resolutions
const (
	// ResolutionCorrect means the learner answered correctly.
	ResolutionCorrect Resolution = "correct"

	// ResolutionForcedChoice means the attempt budget ran out and the
	// learner must pick from presented options instead of free-typing.
	ResolutionForcedChoice Resolution = "forced_choice"

	// ResolutionUnscored means the exercise could not be graded at all.
	ResolutionUnscored Resolution = "unscored"
)

// ChallengeState is the externally visible state of an exercise after a
// transition, carried on every Response.
type ChallengeState struct {
	Phase      Phase      `json:"phase"`
	Resolution Resolution `json:"resolution,omitempty"`
}

// Resolved reports whether the exercise has reached a terminal state.
func (s ChallengeState) Resolved() bool {
	return s.Phase == PhaseResolved
}

// Response is the engine's answer to a single submission. AttemptNumber
// and UsedHint are echoed so the orchestrator can derive a quality
// signal without reaching back into the engine's session state.
type Response struct {
	Status         Status         `json:"status"`
	Method         Method         `json:"method"`
	MicroHint      string         `json:"micro_hint,omitempty"`
	Feedback       string         `json:"feedback"`
	ChallengeState ChallengeState `json:"challenge_state"`
	AttemptNumber  int            `json:"attempt_number"`
	UsedHint       bool           `json:"used_hint"`

	// Options is populated on a forced-choice resolution so the caller
	// can present tiles instead of a free-text field.
	Options []string `json:"options,omitempty"`

	// CorrectAnswer is revealed once the exercise resolves without a
	// correct attempt.
	CorrectAnswer string `json:"correct_answer,omitempty"`
}

// Verdict is the semantic grading service's judgement of an attempt.
type Verdict struct {
	Correct  bool   `json:"correct"`
	Feedback string `json:"feedback,omitempty"`
}

// SemanticGrader judges a free-text attempt against a translation
// target. Implementations are expected to be slow and unreliable
// relative to local grading; the engine bounds every Grade call with a
// timeout and consults Healthy first so a missing service costs a
// cheap probe rather than a full timeout per attempt.
type SemanticGrader interface {
	// Grade returns the service's verdict on the attempt, or an error if
	// it could not produce one before ctx expires.
	Grade(ctx context.Context, attempt, target string) (*Verdict, error)

	// Healthy reports whether the service is reachable enough to be
	// worth consulting.
	Healthy(ctx context.Context) bool
}
