package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for ProgressRecord
var (
	ErrEmptyLessonID = errors.New("progress record lesson ID cannot be empty")
)

// ProgressRecord captures the completion state of a single lesson on this
// device. There is at most one authoritative record per lesson locally: a
// new completion overwrites the previous record, it does not append.
//
// Synced is false while the record has only been confirmed locally; only
// the sync manager flips it to true, after the remote Progress Service
// acknowledges the completion.
type ProgressRecord struct {
	LessonID  uuid.UUID `json:"lesson_id"  db:"lesson_id"`
	Completed bool      `json:"completed"  db:"completed"`
	Score     int       `json:"score"      db:"score"` // 0-100
	TimeSpent int       `json:"time_spent" db:"time_spent"` // Seconds spent on the lesson
	Timestamp time.Time `json:"timestamp"  db:"timestamp"`
	Synced    bool      `json:"synced"     db:"synced"`
}

// NewProgressRecord creates a completion record for a lesson. The record
// starts unsynced; the sync manager marks it synced after the remote
// accepts it.
func NewProgressRecord(lessonID uuid.UUID, score, timeSpent int) (*ProgressRecord, error) {
	record := &ProgressRecord{
		LessonID:  lessonID,
		Completed: true,
		Score:     score,
		TimeSpent: timeSpent,
		Timestamp: time.Now().UTC(),
		Synced:    false,
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}

	return record, nil
}

// Validate checks if the ProgressRecord has valid data.
func (p *ProgressRecord) Validate() error {
	if p.LessonID == uuid.Nil {
		return ErrEmptyLessonID
	}

	if p.Score < 0 || p.Score > 100 {
		return ErrInvalidScore
	}

	return nil
}
