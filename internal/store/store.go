package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/phrazzld/lingua-engine/internal/domain"
)

// ScheduledItemStore persists the per-item spaced repetition state.
type ScheduledItemStore interface {
	// Get retrieves an item's scheduling state by ID.
	// Returns ErrItemNotFound if no state exists for the item.
	Get(ctx context.Context, id uuid.UUID) (*domain.ScheduledItem, error)

	// GetAll retrieves every scheduled item.
	GetAll(ctx context.Context) ([]*domain.ScheduledItem, error)

	// GetDue retrieves the items due for review at the given time,
	// soonest first, capped at limit (0 means no cap).
	GetDue(ctx context.Context, now time.Time, limit int) ([]*domain.ScheduledItem, error)

	// Put creates or overwrites the item's scheduling state.
	Put(ctx context.Context, item *domain.ScheduledItem) error

	// Delete removes the item's scheduling state.
	// Returns ErrItemNotFound if no state exists for the item.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new store instance bound to the given transaction.
	WithTx(tx *sqlx.Tx) ScheduledItemStore
}

// ProgressStore persists lesson completion records. At most one
// authoritative record exists per lesson: Put overwrites.
type ProgressStore interface {
	// Get retrieves the progress record for a lesson.
	// Returns ErrProgressNotFound if the lesson has no record.
	Get(ctx context.Context, lessonID uuid.UUID) (*domain.ProgressRecord, error)

	// GetAll retrieves every progress record.
	GetAll(ctx context.Context) ([]*domain.ProgressRecord, error)

	// Put creates or overwrites the lesson's progress record.
	Put(ctx context.Context, record *domain.ProgressRecord) error

	// MarkSynced flips the record's synced flag after confirmed remote
	// acceptance. Returns ErrProgressNotFound if the lesson has no record.
	MarkSynced(ctx context.Context, lessonID uuid.UUID) error

	// Delete removes the lesson's progress record.
	// Returns ErrProgressNotFound if the lesson has no record.
	Delete(ctx context.Context, lessonID uuid.UUID) error

	// WithTx returns a new store instance bound to the given transaction.
	WithTx(tx *sqlx.Tx) ProgressStore
}

// MutationQueueStore persists the pending-mutation sync queue. Sequence
// numbers are assigned monotonically on enqueue and define FIFO replay
// order.
type MutationQueueStore interface {
	// Enqueue appends a mutation to the queue and returns it with its
	// assigned sequence number.
	Enqueue(ctx context.Context, mutation *domain.PendingMutation) (*domain.PendingMutation, error)

	// GetAll retrieves every queued mutation in FIFO order.
	GetAll(ctx context.Context) ([]*domain.PendingMutation, error)

	// Delete removes a single mutation by sequence number, typically
	// after its remote replay was confirmed.
	// Returns ErrMutationNotFound if no such entry exists.
	Delete(ctx context.Context, seq int64) error

	// Clear removes every queued mutation.
	Clear(ctx context.Context) error

	// WithTx returns a new store instance bound to the given transaction.
	WithTx(tx *sqlx.Tx) MutationQueueStore
}

// ContentCacheStore persists read-only cached copies of remote content.
type ContentCacheStore interface {
	// Get retrieves a cache entry by content ID.
	// Returns ErrCacheEntryNotFound if the entry does not exist.
	Get(ctx context.Context, id string) (*domain.ContentCacheEntry, error)

	// GetAll retrieves every cache entry.
	GetAll(ctx context.Context) ([]*domain.ContentCacheEntry, error)

	// Put creates or overwrites a cache entry.
	Put(ctx context.Context, entry *domain.ContentCacheEntry) error

	// Delete removes a cache entry.
	// Returns ErrCacheEntryNotFound if the entry does not exist.
	Delete(ctx context.Context, id string) error

	// Clear removes every cache entry.
	Clear(ctx context.Context) error

	// WithTx returns a new store instance bound to the given transaction.
	WithTx(tx *sqlx.Tx) ContentCacheStore
}

// SelfCheckStore persists append-only learner self-assessments.
type SelfCheckStore interface {
	// Append stores a new self-check record. Records are never mutated.
	Append(ctx context.Context, record *domain.SelfCheckRecord) error

	// GetByExercise retrieves the self-check history for an exercise,
	// oldest first.
	GetByExercise(ctx context.Context, exerciseID uuid.UUID) ([]*domain.SelfCheckRecord, error)

	// WithTx returns a new store instance bound to the given transaction.
	WithTx(tx *sqlx.Tx) SelfCheckStore
}
