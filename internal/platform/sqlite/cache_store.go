package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/phrazzld/lingua-engine/internal/domain"
	"github.com/phrazzld/lingua-engine/internal/store"
)

// ContentCacheStore implements store.ContentCacheStore on sqlite.
type ContentCacheStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewContentCacheStore creates a sqlite-backed content cache store.
func NewContentCacheStore(db store.DBTX, logger *slog.Logger) *ContentCacheStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ContentCacheStore{
		db:     db,
		logger: logger.With(slog.String("component", "content_cache_store")),
	}
}

// Ensure ContentCacheStore implements store.ContentCacheStore
var _ store.ContentCacheStore = (*ContentCacheStore)(nil)

type cacheRow struct {
	ID       string    `db:"id"`
	Data     string    `db:"data"`
	CachedAt time.Time `db:"cached_at"`
}

// Get implements store.ContentCacheStore.Get.
func (s *ContentCacheStore) Get(ctx context.Context, id string) (*domain.ContentCacheEntry, error) {
	var row cacheRow
	err := s.db.GetContext(ctx, &row,
		`SELECT id, data, cached_at FROM content_cache WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrCacheEntryNotFound
		}
		return nil, store.NewStoreError("content_cache", "get", "query failed",
			store.ErrTransactionFailed)
	}

	return &domain.ContentCacheEntry{
		ID:       row.ID,
		Data:     json.RawMessage(row.Data),
		CachedAt: row.CachedAt,
	}, nil
}

// GetAll implements store.ContentCacheStore.GetAll.
func (s *ContentCacheStore) GetAll(ctx context.Context) ([]*domain.ContentCacheEntry, error) {
	var rows []cacheRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, data, cached_at FROM content_cache ORDER BY cached_at`)
	if err != nil {
		return nil, store.NewStoreError("content_cache", "get_all", "query failed",
			store.ErrTransactionFailed)
	}

	entries := make([]*domain.ContentCacheEntry, 0, len(rows))
	for i := range rows {
		entries = append(entries, &domain.ContentCacheEntry{
			ID:       rows[i].ID,
			Data:     json.RawMessage(rows[i].Data),
			CachedAt: rows[i].CachedAt,
		})
	}

	return entries, nil
}

// Put implements store.ContentCacheStore.Put as an upsert keyed on the
// content ID.
func (s *ContentCacheStore) Put(ctx context.Context, entry *domain.ContentCacheEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO content_cache (id, data, cached_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		        data = excluded.data,
		        cached_at = excluded.cached_at`,
		entry.ID, string(entry.Data), entry.CachedAt)
	if err != nil {
		s.logger.Error("failed to put cache entry",
			slog.String("error", err.Error()),
			slog.String("content_id", entry.ID))
		return store.NewStoreError("content_cache", "put", "write failed",
			store.ErrTransactionFailed)
	}

	return nil
}

// Delete implements store.ContentCacheStore.Delete.
func (s *ContentCacheStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM content_cache WHERE id = ?`, id)
	if err != nil {
		return store.NewStoreError("content_cache", "delete", "write failed",
			store.ErrTransactionFailed)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return store.NewStoreError("content_cache", "delete", "result unavailable",
			store.ErrTransactionFailed)
	}
	if affected == 0 {
		return store.ErrCacheEntryNotFound
	}

	return nil
}

// Clear implements store.ContentCacheStore.Clear.
func (s *ContentCacheStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM content_cache`); err != nil {
		return store.NewStoreError("content_cache", "clear", "write failed",
			store.ErrTransactionFailed)
	}
	return nil
}

// WithTx implements store.ContentCacheStore.WithTx.
func (s *ContentCacheStore) WithTx(tx *sqlx.Tx) store.ContentCacheStore {
	return &ContentCacheStore{db: tx, logger: s.logger}
}
