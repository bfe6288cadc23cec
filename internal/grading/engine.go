package grading

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/phrazzld/lingua-engine/internal/domain"
)

// Learner-facing feedback strings.
const (
	feedbackCorrect      = "Correct. Nice work."
	feedbackRetry        = "Not quite. Try again."
	feedbackForcedChoice = "Out of tries. Pick the right answer below."
	feedbackUnscored     = "This one can't be auto-graded. Marked as reviewed."
)

// Config controls the grading engine's behavior. Values come from the
// application's grading configuration section.
type Config struct {
	// MaxAttempts is the number of free-text misses allowed before the
	// exercise resolves to a forced choice.
	MaxAttempts int

	// SemanticEnabled gates the semantic grading tier entirely.
	SemanticEnabled bool

	// SemanticTimeout bounds the whole semantic tier for one attempt,
	// health probe included.
	SemanticTimeout time.Duration
}

// AttemptState is a snapshot of one exercise's position in the attempt
// state machine. It lives only for the duration of a session and is
// never persisted.
type AttemptState struct {
	Phase         Phase
	AttemptNumber int
	UsedHint      bool
}

// Engine grades learner attempts through the tiered pipeline and tracks
// per-exercise attempt state.
type Engine interface {
	// Submit grades one attempt against the exercise's content and
	// advances the exercise's attempt state machine. It returns
	// ErrAttemptInFlight while a previous submission for the same
	// exercise is still checking, and ErrAttemptResolved once the
	// exercise has reached a terminal state.
	Submit(ctx context.Context, exercise *domain.Exercise, answer string) (*Response, error)

	// State returns the current attempt state for an exercise. An
	// exercise that has never been submitted reports PhaseIdle.
	State(exerciseID uuid.UUID) AttemptState

	// Reset discards the attempt state for an exercise, returning it to
	// idle. Used when a lesson restarts.
	Reset(exerciseID uuid.UUID)
}

type engine struct {
	cfg    Config
	grader SemanticGrader
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*AttemptState
}

var _ Engine = (*engine)(nil)

// NewEngine creates a grading engine. grader may be nil when the
// semantic tier is disabled or unconfigured; the engine then grades on
// exact matches alone.
func NewEngine(cfg Config, grader SemanticGrader, logger *slog.Logger) Engine {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &engine{
		cfg:      cfg,
		grader:   grader,
		logger:   logger.With(slog.String("component", "grading_engine")),
		sessions: make(map[uuid.UUID]*AttemptState),
	}
}

func (e *engine) Submit(ctx context.Context, exercise *domain.Exercise, answer string) (*Response, error) {
	if exercise == nil {
		return nil, fmt.Errorf("%w: exercise is nil", ErrInvalidAttempt)
	}
	if err := exercise.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAttempt, err)
	}
	if Normalize(answer) == "" {
		return nil, fmt.Errorf("%w: empty answer", ErrInvalidAttempt)
	}

	attemptNumber, usedHint, err := e.beginCheck(exercise.ID)
	if err != nil {
		return nil, err
	}

	// The session stays in checking while we grade, so the only lock
	// held across the semantic tier's network round-trip is the
	// per-exercise phase itself.
	resp := e.grade(ctx, exercise, answer)
	resp.AttemptNumber = attemptNumber
	resp.UsedHint = usedHint

	e.finishCheck(exercise, resp)

	e.logger.DebugContext(ctx, "attempt graded",
		slog.String("exercise_id", exercise.ID.String()),
		slog.String("status", string(resp.Status)),
		slog.String("method", string(resp.Method)),
		slog.Int("attempt_number", resp.AttemptNumber),
		slog.String("phase", string(resp.ChallengeState.Phase)))

	return resp, nil
}

func (e *engine) State(exerciseID uuid.UUID) AttemptState {
	e.mu.Lock()
	defer e.mu.Unlock()

	if s, ok := e.sessions[exerciseID]; ok {
		return *s
	}
	return AttemptState{Phase: PhaseIdle}
}

func (e *engine) Reset(exerciseID uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.sessions, exerciseID)
}

// beginCheck transitions the exercise into the checking phase and
// claims the next attempt number, enforcing the double-submit guard.
func (e *engine) beginCheck(exerciseID uuid.UUID) (attemptNumber int, usedHint bool, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sessions[exerciseID]
	if !ok {
		s = &AttemptState{Phase: PhaseIdle}
		e.sessions[exerciseID] = s
	}

	switch s.Phase {
	case PhaseChecking:
		return 0, false, fmt.Errorf("%w: exercise %s", ErrAttemptInFlight, exerciseID)
	case PhaseResolved:
		return 0, false, fmt.Errorf("%w: exercise %s", ErrAttemptResolved, exerciseID)
	}

	s.Phase = PhaseChecking
	s.AttemptNumber++
	return s.AttemptNumber, s.UsedHint, nil
}

// finishCheck applies the graded outcome to the state machine and fills
// in the transition-dependent parts of the response.
func (e *engine) finishCheck(exercise *domain.Exercise, resp *Response) {
	e.mu.Lock()
	defer e.mu.Unlock()

	// A concurrent Reset may have dropped the session while grading ran
	// outside the lock. The response is still filled in for the caller,
	// but the vacated state stays untouched.
	s, tracked := e.sessions[exercise.ID]

	switch resp.Status {
	case StatusCorrect:
		if tracked {
			s.Phase = PhaseResolved
		}
		resp.ChallengeState = ChallengeState{Phase: PhaseResolved, Resolution: ResolutionCorrect}
		if resp.Feedback == "" {
			resp.Feedback = feedbackCorrect
		}

	case StatusUnscored:
		if tracked {
			s.Phase = PhaseResolved
		}
		resp.ChallengeState = ChallengeState{Phase: PhaseResolved, Resolution: ResolutionUnscored}
		resp.Feedback = feedbackUnscored

	case StatusIncorrect:
		if resp.AttemptNumber >= e.cfg.MaxAttempts {
			if tracked {
				s.Phase = PhaseResolved
			}
			resp.ChallengeState = ChallengeState{Phase: PhaseResolved, Resolution: ResolutionForcedChoice}
			resp.Feedback = feedbackForcedChoice
			resp.Options = choiceOptions(exercise)
			resp.CorrectAnswer = canonicalAnswer(exercise)
		} else {
			if tracked {
				s.Phase = PhaseLocked
				s.UsedHint = true
			}
			resp.ChallengeState = ChallengeState{Phase: PhaseLocked}
			resp.Feedback = feedbackRetry
			resp.MicroHint = microHint(canonicalAnswer(exercise))
			resp.UsedHint = true
		}
	}
}

// grade runs the tiered pipeline over the exercise content and returns
// status, method, and any semantic feedback. Attempt state is handled
// by the caller.
func (e *engine) grade(ctx context.Context, exercise *domain.Exercise, answer string) *Response {
	switch exercise.Content.Kind {
	case domain.ExerciseContentChoiceTiles:
		return e.gradeChoice(exercise.Content.ChoiceTiles, answer)
	default:
		return e.gradeFreeText(ctx, exercise, answer)
	}
}

func (e *engine) gradeChoice(content *domain.ChoiceTilesContent, answer string) *Response {
	status := StatusIncorrect
	if Normalize(answer) == Normalize(content.CorrectTileID) {
		status = StatusCorrect
	}
	return &Response{Status: status, Method: MethodExact}
}

func (e *engine) gradeFreeText(ctx context.Context, exercise *domain.Exercise, answer string) *Response {
	content := exercise.Content.FreeText
	exactPossible := len(content.ExpectedAnswers) > 0
	semanticPossible := content.TranslationTarget != ""

	if !exactPossible && !semanticPossible {
		return &Response{Status: StatusUnscored, Method: MethodUnscored}
	}

	if exactPossible && matchesAny(answer, content.ExpectedAnswers) {
		return &Response{Status: StatusCorrect, Method: MethodExact}
	}

	// missStatus is what the attempt grades to when the semantic tier
	// cannot help. Without expected answers there is nothing to compare
	// against, so the honest outcome is unscored rather than a guess.
	missStatus := StatusIncorrect
	if !exactPossible {
		missStatus = StatusUnscored
	}

	if !e.cfg.SemanticEnabled || e.grader == nil || !semanticPossible {
		method := MethodExact
		if missStatus == StatusUnscored {
			method = MethodUnscored
		}
		return &Response{Status: missStatus, Method: method}
	}

	verdict, err := e.gradeSemantic(ctx, answer, content.TranslationTarget)
	if err != nil {
		e.logger.WarnContext(ctx, "semantic grading failed, falling back to exact match",
			slog.String("exercise_id", exercise.ID.String()),
			slog.String("error", err.Error()))
		method := MethodFallback
		if missStatus == StatusUnscored {
			method = MethodUnscored
		}
		return &Response{Status: missStatus, Method: method}
	}

	status := StatusIncorrect
	if verdict.Correct {
		status = StatusCorrect
	}
	return &Response{Status: status, Method: MethodSemantic, Feedback: verdict.Feedback}
}

// gradeSemantic runs the health probe and the grade call under one
// shared deadline so a dead service costs at most SemanticTimeout.
func (e *engine) gradeSemantic(ctx context.Context, answer, target string) (*Verdict, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.SemanticTimeout)
	defer cancel()

	if !e.grader.Healthy(ctx) {
		return nil, ErrSemanticUnavailable
	}

	verdict, err := e.grader.Grade(ctx, answer, target)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSemanticUnavailable, err)
	}
	return verdict, nil
}

// canonicalAnswer picks the answer text revealed to the learner when
// the exercise resolves without a correct attempt.
func canonicalAnswer(exercise *domain.Exercise) string {
	switch exercise.Content.Kind {
	case domain.ExerciseContentFreeText:
		if len(exercise.Content.FreeText.ExpectedAnswers) > 0 {
			return exercise.Content.FreeText.ExpectedAnswers[0]
		}
		return exercise.Content.FreeText.TranslationTarget
	case domain.ExerciseContentChoiceTiles:
		for _, tile := range exercise.Content.ChoiceTiles.Tiles {
			if tile.ID == exercise.Content.ChoiceTiles.CorrectTileID {
				return tile.Label
			}
		}
	}
	return ""
}

// choiceOptions builds the tiles offered on a forced-choice resolution.
// Tile exercises reuse their own tiles; free-text exercises offer the
// accepted answers, with the caller expected to mix in distractors from
// lesson content.
func choiceOptions(exercise *domain.Exercise) []string {
	switch exercise.Content.Kind {
	case domain.ExerciseContentChoiceTiles:
		options := make([]string, 0, len(exercise.Content.ChoiceTiles.Tiles))
		for _, tile := range exercise.Content.ChoiceTiles.Tiles {
			options = append(options, tile.Label)
		}
		return options
	case domain.ExerciseContentFreeText:
		return append([]string(nil), exercise.Content.FreeText.ExpectedAnswers...)
	}
	return nil
}

// microHint reveals the first letter and length of the expected answer,
// enough to nudge without giving it away.
func microHint(answer string) string {
	answer = Normalize(answer)
	if answer == "" {
		return ""
	}
	first, _ := utf8.DecodeRuneInString(answer)
	return fmt.Sprintf("Starts with %q, %d letters.", first, utf8.RuneCountInString(answer))
}
