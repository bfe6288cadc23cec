package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ItemType distinguishes the kinds of reviewable units.
type ItemType string

// Possible item type values
const (
	ItemTypeWord     ItemType = "word"
	ItemTypeSentence ItemType = "sentence"
)

// Common validation errors for ScheduledItem
var (
	ErrEmptyItemID       = errors.New("scheduled item ID cannot be empty")
	ErrInvalidInterval   = errors.New("interval must be greater than or equal to 0")
	ErrInvalidEaseFactor = errors.New("ease factor must be greater than 1.0")
	ErrInvalidRepetition = errors.New("repetitions must be greater than or equal to 0")
)

// ScheduledItem tracks the spaced repetition state of a single reviewable
// unit (a vocabulary word or a sentence). It carries the SM-2 inputs for
// the scheduler: the current interval in days, the count of successful
// repetitions in a row, and the ease factor controlling interval growth.
//
// ScheduledItem values are immutable from the scheduler's point of view:
// srs.Service returns a new value and callers persist the result. Items
// are created when a unit first enters the learner's active set and are
// reset on lapses, never deleted.
type ScheduledItem struct {
	ID           uuid.UUID  `json:"id"            db:"id"`
	ItemType     ItemType   `json:"item_type"     db:"item_type"`
	Interval     int        `json:"interval"      db:"interval"`     // Current interval in days
	Repetitions  int        `json:"repetitions"   db:"repetitions"`  // Successful repetitions in a row
	EaseFactor   float64    `json:"ease_factor"   db:"ease_factor"`  // Ease factor (1.3 floor, 2.5 default)
	NextReviewAt *time.Time `json:"next_review_at" db:"next_review_at"` // nil means due now
	IsNew        bool       `json:"is_new"        db:"is_new"`
	CreatedAt    time.Time  `json:"created_at"    db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"    db:"updated_at"`
}

// NewScheduledItem creates scheduling state for an item entering the
// learner's active set. New items are due immediately.
func NewScheduledItem(id uuid.UUID, itemType ItemType) (*ScheduledItem, error) {
	now := time.Now().UTC()
	item := &ScheduledItem{
		ID:           id,
		ItemType:     itemType,
		Interval:     0,
		Repetitions:  0,
		EaseFactor:   2.5, // Default ease factor
		NextReviewAt: nil, // Due now
		IsNew:        true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := item.Validate(); err != nil {
		return nil, err
	}

	return item, nil
}

// Validate checks if the ScheduledItem has valid data.
// Returns an error if any field fails validation.
func (i *ScheduledItem) Validate() error {
	if i.ID == uuid.Nil {
		return ErrEmptyItemID
	}

	switch i.ItemType {
	case ItemTypeWord, ItemTypeSentence:
	default:
		return ErrInvalidItemType
	}

	if i.Interval < 0 {
		return ErrInvalidInterval
	}

	if i.Repetitions < 0 {
		return ErrInvalidRepetition
	}

	if i.EaseFactor <= 1.0 {
		return ErrInvalidEaseFactor
	}

	return nil
}

// IsDue reports whether the item is due for review at the given time.
// Items without a scheduled review time are always due.
func (i *ScheduledItem) IsDue(now time.Time) bool {
	if i.NextReviewAt == nil {
		return true
	}
	return !i.NextReviewAt.After(now)
}
