package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/phrazzld/lingua-engine/internal/domain"
	"github.com/phrazzld/lingua-engine/internal/store"
)

// ScheduledItemStore implements store.ScheduledItemStore on sqlite.
type ScheduledItemStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewScheduledItemStore creates a sqlite-backed scheduled item store.
// It accepts a database connection or transaction managed by the caller.
func NewScheduledItemStore(db store.DBTX, logger *slog.Logger) *ScheduledItemStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ScheduledItemStore{
		db:     db,
		logger: logger.With(slog.String("component", "scheduled_item_store")),
	}
}

// Ensure ScheduledItemStore implements store.ScheduledItemStore
var _ store.ScheduledItemStore = (*ScheduledItemStore)(nil)

// scheduledItemRow maps the scheduled_items table; IDs are stored as text.
type scheduledItemRow struct {
	ID           string     `db:"id"`
	ItemType     string     `db:"item_type"`
	Interval     int        `db:"interval"`
	Repetitions  int        `db:"repetitions"`
	EaseFactor   float64    `db:"ease_factor"`
	NextReviewAt *time.Time `db:"next_review_at"`
	IsNew        bool       `db:"is_new"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

func (r *scheduledItemRow) toDomain() (*domain.ScheduledItem, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, store.NewStoreError("scheduled_item", "scan", "malformed item ID", err)
	}

	return &domain.ScheduledItem{
		ID:           id,
		ItemType:     domain.ItemType(r.ItemType),
		Interval:     r.Interval,
		Repetitions:  r.Repetitions,
		EaseFactor:   r.EaseFactor,
		NextReviewAt: r.NextReviewAt,
		IsNew:        r.IsNew,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}, nil
}

// Get implements store.ScheduledItemStore.Get.
func (s *ScheduledItemStore) Get(ctx context.Context, id uuid.UUID) (*domain.ScheduledItem, error) {
	var row scheduledItemRow
	err := s.db.GetContext(ctx, &row,
		`SELECT id, item_type, interval, repetitions, ease_factor,
		        next_review_at, is_new, created_at, updated_at
		   FROM scheduled_items WHERE id = ?`, id.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrItemNotFound
		}
		return nil, store.NewStoreError("scheduled_item", "get", "query failed",
			store.ErrTransactionFailed)
	}

	return row.toDomain()
}

// GetAll implements store.ScheduledItemStore.GetAll.
func (s *ScheduledItemStore) GetAll(ctx context.Context) ([]*domain.ScheduledItem, error) {
	var rows []scheduledItemRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, item_type, interval, repetitions, ease_factor,
		        next_review_at, is_new, created_at, updated_at
		   FROM scheduled_items ORDER BY created_at`)
	if err != nil {
		return nil, store.NewStoreError("scheduled_item", "get_all", "query failed",
			store.ErrTransactionFailed)
	}

	return rowsToItems(rows)
}

// GetDue implements store.ScheduledItemStore.GetDue. Items with a NULL
// next_review_at have never been scheduled and are always due; they sort
// first.
func (s *ScheduledItemStore) GetDue(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]*domain.ScheduledItem, error) {
	query := `SELECT id, item_type, interval, repetitions, ease_factor,
	                 next_review_at, is_new, created_at, updated_at
	            FROM scheduled_items
	           WHERE next_review_at IS NULL OR next_review_at <= ?
	           ORDER BY next_review_at IS NOT NULL, next_review_at, created_at`
	args := []any{now.UTC()}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var rows []scheduledItemRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, store.NewStoreError("scheduled_item", "get_due", "query failed",
			store.ErrTransactionFailed)
	}

	return rowsToItems(rows)
}

// Put implements store.ScheduledItemStore.Put as an upsert keyed on the
// item ID.
func (s *ScheduledItemStore) Put(ctx context.Context, item *domain.ScheduledItem) error {
	if err := item.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scheduled_items
		        (id, item_type, interval, repetitions, ease_factor,
		         next_review_at, is_new, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		        item_type = excluded.item_type,
		        interval = excluded.interval,
		        repetitions = excluded.repetitions,
		        ease_factor = excluded.ease_factor,
		        next_review_at = excluded.next_review_at,
		        is_new = excluded.is_new,
		        updated_at = excluded.updated_at`,
		item.ID.String(), string(item.ItemType), item.Interval, item.Repetitions,
		item.EaseFactor, item.NextReviewAt, item.IsNew, item.CreatedAt, item.UpdatedAt)
	if err != nil {
		s.logger.Error("failed to put scheduled item",
			slog.String("error", err.Error()),
			slog.String("item_id", item.ID.String()))
		return store.NewStoreError("scheduled_item", "put", "write failed",
			store.ErrTransactionFailed)
	}

	return nil
}

// Delete implements store.ScheduledItemStore.Delete.
func (s *ScheduledItemStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM scheduled_items WHERE id = ?`, id.String())
	if err != nil {
		return store.NewStoreError("scheduled_item", "delete", "write failed",
			store.ErrTransactionFailed)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return store.NewStoreError("scheduled_item", "delete", "result unavailable",
			store.ErrTransactionFailed)
	}
	if affected == 0 {
		return store.ErrItemNotFound
	}

	return nil
}

// WithTx implements store.ScheduledItemStore.WithTx.
func (s *ScheduledItemStore) WithTx(tx *sqlx.Tx) store.ScheduledItemStore {
	return &ScheduledItemStore{db: tx, logger: s.logger}
}

func rowsToItems(rows []scheduledItemRow) ([]*domain.ScheduledItem, error) {
	items := make([]*domain.ScheduledItem, 0, len(rows))
	for i := range rows {
		item, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
