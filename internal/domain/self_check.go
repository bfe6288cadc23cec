package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for SelfCheckRecord
var (
	ErrEmptyExerciseID   = errors.New("self check exercise ID cannot be empty")
	ErrInvalidSelfRating = errors.New("self rating must be between 1 and 5")
)

// SelfCheckRecord is a free-form learner self-assessment, for example a
// pronunciation check. Records are append-only and never mutated; they
// feed analytics, not scheduling.
type SelfCheckRecord struct {
	ExerciseID uuid.UUID `json:"exercise_id" db:"exercise_id"`
	Rating     int       `json:"rating"      db:"rating"` // 1-5 self assessment
	Note       string    `json:"note"        db:"note"`
	CreatedAt  time.Time `json:"created_at"  db:"created_at"`
}

// NewSelfCheckRecord creates a self-assessment record for an exercise.
func NewSelfCheckRecord(exerciseID uuid.UUID, rating int, note string) (*SelfCheckRecord, error) {
	record := &SelfCheckRecord{
		ExerciseID: exerciseID,
		Rating:     rating,
		Note:       note,
		CreatedAt:  time.Now().UTC(),
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}

	return record, nil
}

// Validate checks if the SelfCheckRecord has valid data.
func (r *SelfCheckRecord) Validate() error {
	if r.ExerciseID == uuid.Nil {
		return ErrEmptyExerciseID
	}

	if r.Rating < 1 || r.Rating > 5 {
		return ErrInvalidSelfRating
	}

	return nil
}
