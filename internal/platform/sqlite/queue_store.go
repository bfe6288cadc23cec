package sqlite

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/phrazzld/lingua-engine/internal/domain"
	"github.com/phrazzld/lingua-engine/internal/store"
)

// MutationQueueStore implements store.MutationQueueStore on sqlite.
// Sequence numbers come from the AUTOINCREMENT rowid, which sqlite
// guarantees never reuses, so replay order survives deletes.
type MutationQueueStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewMutationQueueStore creates a sqlite-backed mutation queue store.
func NewMutationQueueStore(db store.DBTX, logger *slog.Logger) *MutationQueueStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &MutationQueueStore{
		db:     db,
		logger: logger.With(slog.String("component", "mutation_queue_store")),
	}
}

// Ensure MutationQueueStore implements store.MutationQueueStore
var _ store.MutationQueueStore = (*MutationQueueStore)(nil)

type mutationRow struct {
	Seq       int64     `db:"seq"`
	Type      string    `db:"type"`
	Payload   string    `db:"payload"`
	CreatedAt time.Time `db:"created_at"`
}

func (r *mutationRow) toDomain() *domain.PendingMutation {
	return &domain.PendingMutation{
		Seq:       r.Seq,
		Type:      domain.MutationType(r.Type),
		Payload:   json.RawMessage(r.Payload),
		CreatedAt: r.CreatedAt,
	}
}

// Enqueue implements store.MutationQueueStore.Enqueue.
func (s *MutationQueueStore) Enqueue(
	ctx context.Context,
	mutation *domain.PendingMutation,
) (*domain.PendingMutation, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO pending_mutations (type, payload, created_at) VALUES (?, ?, ?)`,
		string(mutation.Type), string(mutation.Payload), mutation.CreatedAt)
	if err != nil {
		s.logger.Error("failed to enqueue mutation",
			slog.String("error", err.Error()),
			slog.String("mutation_type", string(mutation.Type)))
		return nil, store.NewStoreError("queue", "enqueue", "write failed",
			store.ErrTransactionFailed)
	}

	seq, err := result.LastInsertId()
	if err != nil {
		return nil, store.NewStoreError("queue", "enqueue", "sequence unavailable",
			store.ErrTransactionFailed)
	}

	enqueued := *mutation
	enqueued.Seq = seq
	return &enqueued, nil
}

// GetAll implements store.MutationQueueStore.GetAll. Rows come back in
// ascending sequence order, which is the FIFO replay order.
func (s *MutationQueueStore) GetAll(ctx context.Context) ([]*domain.PendingMutation, error) {
	var rows []mutationRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT seq, type, payload, created_at FROM pending_mutations ORDER BY seq`)
	if err != nil {
		return nil, store.NewStoreError("queue", "get_all", "query failed",
			store.ErrTransactionFailed)
	}

	mutations := make([]*domain.PendingMutation, 0, len(rows))
	for i := range rows {
		mutations = append(mutations, rows[i].toDomain())
	}

	return mutations, nil
}

// Delete implements store.MutationQueueStore.Delete.
func (s *MutationQueueStore) Delete(ctx context.Context, seq int64) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM pending_mutations WHERE seq = ?`, seq)
	if err != nil {
		return store.NewStoreError("queue", "delete", "write failed",
			store.ErrTransactionFailed)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return store.NewStoreError("queue", "delete", "result unavailable",
			store.ErrTransactionFailed)
	}
	if affected == 0 {
		return store.ErrMutationNotFound
	}

	return nil
}

// Clear implements store.MutationQueueStore.Clear.
func (s *MutationQueueStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM pending_mutations`); err != nil {
		return store.NewStoreError("queue", "clear", "write failed",
			store.ErrTransactionFailed)
	}
	return nil
}

// WithTx implements store.MutationQueueStore.WithTx.
func (s *MutationQueueStore) WithTx(tx *sqlx.Tx) store.MutationQueueStore {
	return &MutationQueueStore{db: tx, logger: s.logger}
}
