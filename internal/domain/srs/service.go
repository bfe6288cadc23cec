package srs

import (
	"errors"
	"time"

	"github.com/phrazzld/lingua-engine/internal/domain"
)

// Quality rating bounds for the 0-5 recall signal.
const (
	MinQuality = 0
	MaxQuality = 5
)

// Common errors
var (
	ErrNilItem        = errors.New("scheduled item cannot be nil")
	ErrInvalidQuality = errors.New("quality rating must be between 0 and 5")
	ErrInvalidDays    = errors.New("postpone days must be at least 1")
)

// Service defines the interface for spaced repetition scheduling
// operations. Implementations are pure over values: they never touch
// storage, and callers persist the returned item.
type Service interface {
	// Advance computes the item's next scheduling state for a review with
	// the given quality rating (0-5). Quality ratings outside that range
	// are rejected with ErrInvalidQuality; callers validate (and cap
	// hinted attempts) before invoking the scheduler.
	Advance(
		item *domain.ScheduledItem,
		quality int,
		now time.Time,
	) (*domain.ScheduledItem, error)

	// Postpone pushes the item's next review time forward by the given
	// number of days without altering repetition progress.
	Postpone(
		item *domain.ScheduledItem,
		days int,
		now time.Time,
	) (*domain.ScheduledItem, error)
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new scheduling service with default SM-2
// parameters.
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new scheduling service with custom
// parameters.
func NewServiceWithParams(params *Params) Service {
	return &defaultService{
		params: params,
	}
}

// Advance implements the Service interface.
func (s *defaultService) Advance(
	item *domain.ScheduledItem,
	quality int,
	now time.Time,
) (*domain.ScheduledItem, error) {
	if item == nil {
		return nil, ErrNilItem
	}

	if quality < MinQuality || quality > MaxQuality {
		return nil, ErrInvalidQuality
	}

	return calculateNextItem(item, quality, now, s.params), nil
}

// Postpone implements the Service interface.
func (s *defaultService) Postpone(
	item *domain.ScheduledItem,
	days int,
	now time.Time,
) (*domain.ScheduledItem, error) {
	if item == nil {
		return nil, ErrNilItem
	}

	if days < 1 {
		return nil, ErrInvalidDays
	}

	newItem := *item
	var base time.Time
	if item.NextReviewAt != nil {
		base = *item.NextReviewAt
	} else {
		base = now
	}

	nextReview := base.AddDate(0, 0, days)
	newItem.NextReviewAt = &nextReview
	newItem.UpdatedAt = now

	return &newItem, nil
}
