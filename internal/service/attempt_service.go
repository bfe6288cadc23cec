package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/phrazzld/lingua-engine/internal/domain"
	"github.com/phrazzld/lingua-engine/internal/domain/srs"
	"github.com/phrazzld/lingua-engine/internal/grading"
	"github.com/phrazzld/lingua-engine/internal/remote"
	"github.com/phrazzld/lingua-engine/internal/store"
	"github.com/phrazzld/lingua-engine/internal/syncer"
)

// defaultHintedQualityCap bounds the quality a hint-assisted correct
// answer can earn, so hinted success never looks like effortless recall
// to the scheduler.
const defaultHintedQualityCap = 3

// Storage is the slice of the local store the services operate on.
// *sqlite.DB satisfies it.
type Storage interface {
	Items() store.ScheduledItemStore
	Progress() store.ProgressStore
	Queue() store.MutationQueueStore
	Cache() store.ContentCacheStore
	SelfChecks() store.SelfCheckStore
	RunInTransaction(ctx context.Context, fn store.TxFn) error
}

// Flusher triggers an opportunistic drain of the sync queue after an
// operation commits. The syncer.Manager satisfies it.
type Flusher interface {
	Flush(ctx context.Context) (syncer.Result, error)
}

// AttemptResult is everything SubmitAttempt produces for one submission.
// Quality and Item are set only once the exercise resolves; until then
// the response alone carries the transition.
type AttemptResult struct {
	Response *grading.Response

	// Quality is the confidence-adjusted 0-5 signal fed to the scheduler.
	Quality int

	// Item is the item's updated scheduling state after the review.
	Item *domain.ScheduledItem
}

// AttemptService orchestrates one graded submission end to end:
// grading, quality derivation, scheduling, persistence, opportunistic
// sync.
type AttemptService interface {
	// SubmitAttempt grades the answer and, if the exercise resolves,
	// advances the item's schedule and persists the review atomically.
	// A verdict is never withheld because persistence failed: in that
	// case both the result and an error wrapping ErrPersistenceFailed
	// are returned, and the caller surfaces the error as a retryable
	// background condition.
	SubmitAttempt(ctx context.Context, exercise *domain.Exercise, answer string) (*AttemptResult, error)
}

type attemptService struct {
	storage          Storage
	engine           grading.Engine
	scheduler        srs.Service
	flusher          Flusher
	hintedQualityCap int
	logger           *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

var _ AttemptService = (*attemptService)(nil)

// NewAttemptService creates the attempt orchestrator. flusher may be
// nil, which disables opportunistic sync. A hintedQualityCap of zero
// selects the default cap.
func NewAttemptService(
	storage Storage,
	engine grading.Engine,
	scheduler srs.Service,
	flusher Flusher,
	hintedQualityCap int,
	logger *slog.Logger,
) AttemptService {
	if hintedQualityCap <= 0 {
		hintedQualityCap = defaultHintedQualityCap
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &attemptService{
		storage:          storage,
		engine:           engine,
		scheduler:        scheduler,
		flusher:          flusher,
		hintedQualityCap: hintedQualityCap,
		logger:           logger.With(slog.String("component", "attempt_service")),
		now:              time.Now,
	}
}

func (s *attemptService) SubmitAttempt(ctx context.Context, exercise *domain.Exercise, answer string) (*AttemptResult, error) {
	response, err := s.engine.Submit(ctx, exercise, answer)
	if err != nil {
		return nil, err
	}

	result := &AttemptResult{Response: response}

	submission, err := domain.NewPendingMutation(domain.MutationTypeExerciseSubmission, remote.SubmissionPayload{
		ExerciseID:    exercise.ID,
		Answer:        answer,
		AttemptNumber: response.AttemptNumber,
		UsedHint:      response.UsedHint,
	})
	if err != nil {
		return result, NewServiceError("submit_attempt", "building submission mutation",
			fmt.Errorf("%w: %w", ErrPersistenceFailed, err))
	}

	if !response.ChallengeState.Resolved() {
		// Not terminal yet: record the attempt for the remote, nothing
		// to schedule.
		if _, err := s.storage.Queue().Enqueue(ctx, submission); err != nil {
			return result, s.persistenceError(ctx, "submit_attempt", "enqueueing submission", err)
		}
		s.opportunisticFlush(ctx)
		return result, nil
	}

	quality := s.deriveQuality(response)
	result.Quality = quality

	updated, err := s.advanceSchedule(ctx, exercise, quality)
	if err != nil {
		return result, s.persistenceError(ctx, "submit_attempt", "advancing schedule", err)
	}

	review, err := domain.NewPendingMutation(domain.MutationTypeReview, remote.ReviewPayload{
		ItemID:   exercise.ItemID,
		ItemType: string(exercise.ItemType),
		Quality:  quality,
	})
	if err != nil {
		return result, NewServiceError("submit_attempt", "building review mutation",
			fmt.Errorf("%w: %w", ErrPersistenceFailed, err))
	}

	// The schedule update and both queue entries commit together; a
	// verdict shown to the learner is never silently detached from the
	// stored learning state.
	err = s.storage.RunInTransaction(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := s.storage.Items().WithTx(tx).Put(ctx, updated); err != nil {
			return err
		}
		if _, err := s.storage.Queue().WithTx(tx).Enqueue(ctx, submission); err != nil {
			return err
		}
		_, err := s.storage.Queue().WithTx(tx).Enqueue(ctx, review)
		return err
	})
	if err != nil {
		return result, s.persistenceError(ctx, "submit_attempt", "persisting review", err)
	}

	result.Item = updated
	s.logger.InfoContext(ctx, "attempt resolved",
		slog.String("exercise_id", exercise.ID.String()),
		slog.String("item_id", exercise.ItemID.String()),
		slog.String("resolution", string(response.ChallengeState.Resolution)),
		slog.Int("quality", quality),
		slog.Int("interval_days", updated.Interval))

	s.opportunisticFlush(ctx)
	return result, nil
}

// deriveQuality maps a terminal grading response onto the scheduler's
// 0-5 scale. Unaided first-try correctness earns 5, each extra attempt
// costs a point down to a floor of 3, hinted success is capped, a
// forced choice grades as a lapse, and unscored stays neutral.
func (s *attemptService) deriveQuality(response *grading.Response) int {
	switch response.ChallengeState.Resolution {
	case grading.ResolutionForcedChoice:
		return 2
	case grading.ResolutionUnscored:
		return 3
	}

	quality := 6 - response.AttemptNumber
	if quality < 3 {
		quality = 3
	}
	if response.UsedHint && quality > s.hintedQualityCap {
		quality = s.hintedQualityCap
	}
	return quality
}

// advanceSchedule loads (or creates) the item's scheduling state and
// runs the scheduler over it.
func (s *attemptService) advanceSchedule(ctx context.Context, exercise *domain.Exercise, quality int) (*domain.ScheduledItem, error) {
	item, err := s.storage.Items().Get(ctx, exercise.ItemID)
	if errors.Is(err, store.ErrItemNotFound) {
		item, err = domain.NewScheduledItem(exercise.ItemID, exercise.ItemType)
	}
	if err != nil {
		return nil, err
	}

	return s.scheduler.Advance(item, quality, s.now())
}

func (s *attemptService) persistenceError(ctx context.Context, operation, message string, err error) error {
	s.logger.ErrorContext(ctx, "verdict produced but local effects are not durable",
		slog.String("operation", operation),
		slog.String("detail", message),
		slog.String("error", err.Error()))
	return NewServiceError(operation, message, fmt.Errorf("%w: %w", ErrPersistenceFailed, err))
}

// opportunisticFlush tries to drain the sync queue right after a commit.
// Offline or already-flushing states make it a no-op, and failures only
// log: background sync never blocks a learner-facing operation.
func (s *attemptService) opportunisticFlush(ctx context.Context) {
	if s.flusher == nil {
		return
	}
	if _, err := s.flusher.Flush(ctx); err != nil {
		s.logger.WarnContext(ctx, "opportunistic flush failed",
			slog.String("error", err.Error()))
	}
}
