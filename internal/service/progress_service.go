package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/phrazzld/lingua-engine/internal/domain"
	"github.com/phrazzld/lingua-engine/internal/remote"
)

// ProgressService handles lesson-level outcomes: completions,
// self-assessments, and the content cache.
type ProgressService interface {
	// CompleteLesson overwrites the lesson's progress record and
	// enqueues its sync mutation atomically, then opportunistically
	// flushes the queue. The returned record starts unsynced unless the
	// flush already confirmed it.
	CompleteLesson(ctx context.Context, lessonID uuid.UUID, score, timeSpent int) (*domain.ProgressRecord, error)

	// RecordSelfCheck appends a learner self-assessment and enqueues its
	// sync mutation atomically. Self-checks never touch scheduling.
	RecordSelfCheck(ctx context.Context, exerciseID uuid.UUID, rating int, note string) error

	// GetProgress returns the lesson's local progress record.
	GetProgress(ctx context.Context, lessonID uuid.UUID) (*domain.ProgressRecord, error)

	// ClearCache wipes the content cache. Progress, scheduling, and the
	// sync queue are untouched.
	ClearCache(ctx context.Context) error
}

type progressService struct {
	storage Storage
	flusher Flusher
	logger  *slog.Logger
}

var _ ProgressService = (*progressService)(nil)

// NewProgressService creates the lesson progress service. flusher may
// be nil, which disables opportunistic sync.
func NewProgressService(storage Storage, flusher Flusher, logger *slog.Logger) ProgressService {
	if logger == nil {
		logger = slog.Default()
	}
	return &progressService{
		storage: storage,
		flusher: flusher,
		logger:  logger.With(slog.String("component", "progress_service")),
	}
}

func (s *progressService) CompleteLesson(ctx context.Context, lessonID uuid.UUID, score, timeSpent int) (*domain.ProgressRecord, error) {
	record, err := domain.NewProgressRecord(lessonID, score, timeSpent)
	if err != nil {
		return nil, err
	}

	mutation, err := domain.NewPendingMutation(domain.MutationTypeProgress, remote.ProgressPayload{
		LessonID:  record.LessonID,
		Score:     record.Score,
		TimeSpent: record.TimeSpent,
		Timestamp: record.Timestamp.Format(time.RFC3339),
	})
	if err != nil {
		return nil, NewServiceError("complete_lesson", "building progress mutation", err)
	}

	err = s.storage.RunInTransaction(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := s.storage.Progress().WithTx(tx).Put(ctx, record); err != nil {
			return err
		}
		_, err := s.storage.Queue().WithTx(tx).Enqueue(ctx, mutation)
		return err
	})
	if err != nil {
		return nil, NewServiceError("complete_lesson", "persisting completion",
			fmt.Errorf("%w: %w", ErrPersistenceFailed, err))
	}

	s.logger.InfoContext(ctx, "lesson completed",
		slog.String("lesson_id", lessonID.String()),
		slog.Int("score", score))

	s.opportunisticFlush(ctx)
	return record, nil
}

func (s *progressService) RecordSelfCheck(ctx context.Context, exerciseID uuid.UUID, rating int, note string) error {
	record, err := domain.NewSelfCheckRecord(exerciseID, rating, note)
	if err != nil {
		return err
	}

	mutation, err := domain.NewPendingMutation(domain.MutationTypeSelfCheck, remote.SelfCheckPayload{
		ExerciseID: record.ExerciseID,
		Rating:     record.Rating,
		Note:       record.Note,
		CreatedAt:  record.CreatedAt.Format(time.RFC3339),
	})
	if err != nil {
		return NewServiceError("record_self_check", "building self-check mutation", err)
	}

	err = s.storage.RunInTransaction(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := s.storage.SelfChecks().WithTx(tx).Append(ctx, record); err != nil {
			return err
		}
		_, err := s.storage.Queue().WithTx(tx).Enqueue(ctx, mutation)
		return err
	})
	if err != nil {
		return NewServiceError("record_self_check", "persisting self-check",
			fmt.Errorf("%w: %w", ErrPersistenceFailed, err))
	}

	s.opportunisticFlush(ctx)
	return nil
}

func (s *progressService) GetProgress(ctx context.Context, lessonID uuid.UUID) (*domain.ProgressRecord, error) {
	return s.storage.Progress().Get(ctx, lessonID)
}

func (s *progressService) ClearCache(ctx context.Context) error {
	if err := s.storage.Cache().Clear(ctx); err != nil {
		return NewServiceError("clear_cache", "wiping content cache", err)
	}
	s.logger.InfoContext(ctx, "content cache cleared")
	return nil
}

func (s *progressService) opportunisticFlush(ctx context.Context) {
	if s.flusher == nil {
		return
	}
	if _, err := s.flusher.Flush(ctx); err != nil {
		s.logger.WarnContext(ctx, "opportunistic flush failed",
			slog.String("error", err.Error()))
	}
}
