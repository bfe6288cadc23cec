package srs

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/lingua-engine/internal/domain"
)

func newTestItem(interval, repetitions int, ef float64) *domain.ScheduledItem {
	now := time.Now().UTC()
	return &domain.ScheduledItem{
		ID:          uuid.New(),
		ItemType:    domain.ItemTypeWord,
		Interval:    interval,
		Repetitions: repetitions,
		EaseFactor:  ef,
		IsNew:       repetitions == 0 && interval == 0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestCalculateNewEaseFactor(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()

	testCases := []struct {
		name     string
		current  float64
		quality  int
		expected float64
	}{
		{
			name:     "quality 5 raises ease factor",
			current:  2.5,
			quality:  5,
			expected: 2.6,
		},
		{
			name:     "quality 4 leaves ease factor unchanged",
			current:  2.5,
			quality:  4,
			expected: 2.5,
		},
		{
			name:     "quality 3 lowers ease factor",
			current:  2.5,
			quality:  3,
			expected: 2.36,
		},
		{
			name:     "quality 0 lowers ease factor sharply",
			current:  2.5,
			quality:  0,
			expected: 1.7,
		},
		{
			name:     "floor holds at 1.3",
			current:  1.3,
			quality:  0,
			expected: 1.3,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := calculateNewEaseFactor(tc.current, tc.quality, params)
			if math.Abs(got-tc.expected) > 1e-9 {
				t.Errorf("Expected ease factor %f, got %f", tc.expected, got)
			}
		})
	}
}

func TestEaseFactorNeverFallsBelowFloor(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()

	// Hammer the ease factor with the worst possible ratings; it must
	// stay clamped at the floor for any length of sequence.
	ef := 2.5
	for i := 0; i < 50; i++ {
		ef = calculateNewEaseFactor(ef, 0, params)
		if ef < params.MinEaseFactor {
			t.Fatalf("Ease factor fell below %f after %d reviews: %f",
				params.MinEaseFactor, i+1, ef)
		}
	}
}

func TestCalculateNewInterval(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()

	testCases := []struct {
		name     string
		current  int
		reps     int // repetitions including the one being recorded
		ef       float64
		expected int
	}{
		{
			name:     "first successful repetition",
			current:  0,
			reps:     1,
			ef:       2.5,
			expected: 1,
		},
		{
			name:     "second successful repetition",
			current:  1,
			reps:     2,
			ef:       2.5,
			expected: 6,
		},
		{
			name:     "third repetition multiplies by ease factor",
			current:  6,
			reps:     3,
			ef:       2.5,
			expected: 15, // round(6 * 2.5)
		},
		{
			name:     "rounding is to nearest",
			current:  10,
			reps:     4,
			ef:       2.36,
			expected: 24, // round(23.6)
		},
		{
			name:     "interval caps at max",
			current:  300,
			reps:     9,
			ef:       2.5,
			expected: params.MaxInterval,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := calculateNewInterval(tc.current, tc.reps, tc.ef, params)
			if got != tc.expected {
				t.Errorf("Expected interval %d, got %d", tc.expected, got)
			}
		})
	}
}

func TestCalculateNextItemLapse(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	now := time.Now().UTC()

	// All failing qualities reset repetition progress regardless of how
	// far along the item was.
	for quality := 0; quality <= 2; quality++ {
		item := newTestItem(42, 7, 2.5)
		next := calculateNextItem(item, quality, now, params)

		if next.Repetitions != 0 {
			t.Errorf("quality %d: expected repetitions reset to 0, got %d",
				quality, next.Repetitions)
		}
		if next.Interval != 1 {
			t.Errorf("quality %d: expected interval 1, got %d", quality, next.Interval)
		}
		if next.NextReviewAt == nil || !next.NextReviewAt.Equal(now.AddDate(0, 0, 1)) {
			t.Errorf("quality %d: expected next review tomorrow, got %v",
				quality, next.NextReviewAt)
		}

		// Input must be untouched.
		if item.Repetitions != 7 || item.Interval != 42 {
			t.Errorf("quality %d: input item was mutated: %+v", quality, item)
		}
	}
}

func TestCalculateNextItemSuccessLadder(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	now := time.Now().UTC()

	for quality := 3; quality <= 5; quality++ {
		first := calculateNextItem(newTestItem(0, 0, 2.5), quality, now, params)
		if first.Interval != 1 {
			t.Errorf("quality %d: expected first interval 1, got %d", quality, first.Interval)
		}
		if first.Repetitions != 1 {
			t.Errorf("quality %d: expected repetitions 1, got %d", quality, first.Repetitions)
		}
		if first.IsNew {
			t.Errorf("quality %d: expected reviewed item to lose IsNew", quality)
		}

		second := calculateNextItem(newTestItem(1, 1, 2.5), quality, now, params)
		if second.Interval != 6 {
			t.Errorf("quality %d: expected second interval 6, got %d", quality, second.Interval)
		}

		later := calculateNextItem(newTestItem(6, 2, 2.5), quality, now, params)
		if later.Interval != 15 {
			t.Errorf("quality %d: expected interval round(6*2.5)=15, got %d",
				quality, later.Interval)
		}
		if later.NextReviewAt == nil ||
			!later.NextReviewAt.Equal(now.AddDate(0, 0, later.Interval)) {
			t.Errorf("quality %d: next review not interval days out: %v",
				quality, later.NextReviewAt)
		}
	}
}

func TestCappedQualityNeverBeatsUncapped(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	now := time.Now().UTC()

	// A hint-capped correct answer (quality 3) must never earn a longer
	// interval than the same answer uncapped (quality 5). The effect
	// compounds through the ease factor, so run several reviews deep.
	capped := newTestItem(6, 2, 2.5)
	uncapped := newTestItem(6, 2, 2.5)

	for i := 0; i < 5; i++ {
		capped = calculateNextItem(capped, 3, now, params)
		uncapped = calculateNextItem(uncapped, 5, now, params)

		if capped.Interval > uncapped.Interval {
			t.Fatalf("review %d: capped interval %d exceeds uncapped %d",
				i+1, capped.Interval, uncapped.Interval)
		}
	}
}
