package srs

import (
	"math"
	"time"

	"github.com/phrazzld/lingua-engine/internal/domain"
)

// calculateNewEaseFactor determines the new ease factor for a review with
// the given quality rating.
//
// This is the standard SM-2 ease update: quality 5 raises the ease factor
// slightly, quality 4 leaves it unchanged, and everything below pulls it
// down, bounded from below by params.MinEaseFactor. The update applies on
// every review, including lapses, so repeatedly missed items drift toward
// the floor and their intervals grow more slowly once relearned.
func calculateNewEaseFactor(currentEF float64, quality int, params *Params) float64 {
	q := float64(quality)
	newEF := currentEF + (0.1 - (5-q)*(0.08+(5-q)*0.02))

	if newEF < params.MinEaseFactor {
		newEF = params.MinEaseFactor
	}

	return newEF
}

// calculateNewInterval determines the next interval in days for a
// successful repetition.
//
// The interval ladder follows SM-2: the first successful repetition waits
// params.FirstInterval days, the second params.SecondInterval days, and
// later ones multiply the previous interval by the ease factor the item
// carried into this review. The result is capped at params.MaxInterval
// when a cap is configured.
//
// repetitions is the count of successful repetitions including the one
// being recorded.
func calculateNewInterval(
	currentInterval int,
	repetitions int,
	easeFactor float64,
	params *Params,
) int {
	var interval int
	switch {
	case repetitions <= 1:
		interval = params.FirstInterval
	case repetitions == 2:
		interval = params.SecondInterval
	default:
		interval = int(math.Round(float64(currentInterval) * easeFactor))
	}

	if params.MaxInterval > 0 && interval > params.MaxInterval {
		interval = params.MaxInterval
	}

	return interval
}

// calculateNextItem creates a new ScheduledItem with updated values for a
// review with the given quality rating.
//
// The function never mutates the input: it copies the item, applies the
// SM-2 update, and returns the copy. Callers persist the result.
//
// A quality rating below params.PassThreshold is a lapse: repetitions
// reset to zero and the item comes back after params.LapseInterval days.
// Otherwise the repetition count advances and the interval follows the
// SM-2 ladder. In both cases the ease factor is recalculated from the
// quality rating.
func calculateNextItem(
	item *domain.ScheduledItem,
	quality int,
	now time.Time,
	params *Params,
) *domain.ScheduledItem {
	newItem := *item

	newItem.EaseFactor = calculateNewEaseFactor(item.EaseFactor, quality, params)

	if quality < params.PassThreshold {
		// Lapse: reset repetition progress, review again tomorrow.
		newItem.Repetitions = 0
		newItem.Interval = params.LapseInterval
	} else {
		newItem.Repetitions = item.Repetitions + 1
		newItem.Interval = calculateNewInterval(
			item.Interval,
			newItem.Repetitions,
			item.EaseFactor,
			params,
		)
	}

	nextReview := now.AddDate(0, 0, newItem.Interval)
	newItem.NextReviewAt = &nextReview
	newItem.IsNew = false
	newItem.UpdatedAt = now

	return &newItem
}
