package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // sqlite driver

	"github.com/phrazzld/lingua-engine/internal/store"
)

// DB is the engine's client-local store: one sqlite database holding the
// four logical collections (scheduled items, progress records, the
// pending-mutation queue, and the content cache, plus self-check records).
// It is the sole writer of persisted entities.
type DB struct {
	db     *sqlx.DB
	logger *slog.Logger

	items      store.ScheduledItemStore
	progress   store.ProgressStore
	queue      store.MutationQueueStore
	cache      store.ContentCacheStore
	selfChecks store.SelfCheckStore
}

// Open opens (creating if necessary) the sqlite database at path, runs
// pending schema migrations, and returns the ready store.
//
// Failures to open or migrate are fatal for the session and wrap
// store.ErrStorageUnavailable, except a schema written by a newer build,
// which wraps store.ErrUnsupportedSchema. ":memory:" is accepted for
// ephemeral sessions.
func Open(ctx context.Context, path string, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With(slog.String("component", "sqlite_store"))

	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("%w: failed to create data directory %s: %v",
					store.ErrStorageUnavailable, dir, err)
			}
		}
	}

	db, err := sqlx.ConnectContext(ctx, "sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open %s: %v",
			store.ErrStorageUnavailable, path, err)
	}

	// sqlite supports a single writer; serializing all access through one
	// connection also keeps :memory: databases visible across calls.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := migrate(db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}

	log.Debug("local store opened", slog.String("path", path))

	return &DB{
		db:         db,
		logger:     log,
		items:      NewScheduledItemStore(db, log),
		progress:   NewProgressStore(db, log),
		queue:      NewMutationQueueStore(db, log),
		cache:      NewContentCacheStore(db, log),
		selfChecks: NewSelfCheckStore(db, log),
	}, nil
}

// dsn builds the sqlite connection string. Foreign keys on, busy timeout
// for the single-writer pool, UTC timestamps.
func dsn(path string) string {
	params := url.Values{}
	params.Set("_foreign_keys", "on")
	params.Set("_busy_timeout", "5000")
	params.Set("_loc", "UTC")
	return fmt.Sprintf("file:%s?%s", path, params.Encode())
}

// Items returns the scheduled item collection.
func (d *DB) Items() store.ScheduledItemStore { return d.items }

// Progress returns the progress record collection.
func (d *DB) Progress() store.ProgressStore { return d.progress }

// Queue returns the pending-mutation queue collection.
func (d *DB) Queue() store.MutationQueueStore { return d.queue }

// Cache returns the content cache collection.
func (d *DB) Cache() store.ContentCacheStore { return d.cache }

// SelfChecks returns the self-check record collection.
func (d *DB) SelfChecks() store.SelfCheckStore { return d.selfChecks }

// RunInTransaction executes fn within a single database transaction.
// Collection stores are rebound to the transaction with their WithTx
// methods; this is how compound writes spanning two collections stay
// atomic.
func (d *DB) RunInTransaction(ctx context.Context, fn store.TxFn) error {
	return store.RunInTransaction(ctx, d.db, fn)
}

// Close closes the underlying database.
func (d *DB) Close() error {
	return d.db.Close()
}
