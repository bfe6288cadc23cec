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

// ProgressStore implements store.ProgressStore on sqlite.
type ProgressStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewProgressStore creates a sqlite-backed progress record store.
func NewProgressStore(db store.DBTX, logger *slog.Logger) *ProgressStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ProgressStore{
		db:     db,
		logger: logger.With(slog.String("component", "progress_store")),
	}
}

// Ensure ProgressStore implements store.ProgressStore
var _ store.ProgressStore = (*ProgressStore)(nil)

type progressRow struct {
	LessonID  string    `db:"lesson_id"`
	Completed bool      `db:"completed"`
	Score     int       `db:"score"`
	TimeSpent int       `db:"time_spent"`
	Timestamp time.Time `db:"timestamp"`
	Synced    bool      `db:"synced"`
}

func (r *progressRow) toDomain() (*domain.ProgressRecord, error) {
	lessonID, err := uuid.Parse(r.LessonID)
	if err != nil {
		return nil, store.NewStoreError("progress", "scan", "malformed lesson ID", err)
	}

	return &domain.ProgressRecord{
		LessonID:  lessonID,
		Completed: r.Completed,
		Score:     r.Score,
		TimeSpent: r.TimeSpent,
		Timestamp: r.Timestamp,
		Synced:    r.Synced,
	}, nil
}

// Get implements store.ProgressStore.Get.
func (s *ProgressStore) Get(ctx context.Context, lessonID uuid.UUID) (*domain.ProgressRecord, error) {
	var row progressRow
	err := s.db.GetContext(ctx, &row,
		`SELECT lesson_id, completed, score, time_spent, timestamp, synced
		   FROM progress_records WHERE lesson_id = ?`, lessonID.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrProgressNotFound
		}
		return nil, store.NewStoreError("progress", "get", "query failed",
			store.ErrTransactionFailed)
	}

	return row.toDomain()
}

// GetAll implements store.ProgressStore.GetAll.
func (s *ProgressStore) GetAll(ctx context.Context) ([]*domain.ProgressRecord, error) {
	var rows []progressRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT lesson_id, completed, score, time_spent, timestamp, synced
		   FROM progress_records ORDER BY timestamp`)
	if err != nil {
		return nil, store.NewStoreError("progress", "get_all", "query failed",
			store.ErrTransactionFailed)
	}

	records := make([]*domain.ProgressRecord, 0, len(rows))
	for i := range rows {
		record, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, nil
}

// Put implements store.ProgressStore.Put. A new completion overwrites the
// lesson's existing record entirely; there is never more than one
// authoritative record per lesson.
func (s *ProgressStore) Put(ctx context.Context, record *domain.ProgressRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO progress_records
		        (lesson_id, completed, score, time_spent, timestamp, synced)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(lesson_id) DO UPDATE SET
		        completed = excluded.completed,
		        score = excluded.score,
		        time_spent = excluded.time_spent,
		        timestamp = excluded.timestamp,
		        synced = excluded.synced`,
		record.LessonID.String(), record.Completed, record.Score,
		record.TimeSpent, record.Timestamp, record.Synced)
	if err != nil {
		s.logger.Error("failed to put progress record",
			slog.String("error", err.Error()),
			slog.String("lesson_id", record.LessonID.String()))
		return store.NewStoreError("progress", "put", "write failed",
			store.ErrTransactionFailed)
	}

	return nil
}

// MarkSynced implements store.ProgressStore.MarkSynced.
func (s *ProgressStore) MarkSynced(ctx context.Context, lessonID uuid.UUID) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE progress_records SET synced = TRUE WHERE lesson_id = ?`,
		lessonID.String())
	if err != nil {
		return store.NewStoreError("progress", "mark_synced", "write failed",
			store.ErrTransactionFailed)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return store.NewStoreError("progress", "mark_synced", "result unavailable",
			store.ErrTransactionFailed)
	}
	if affected == 0 {
		return store.ErrProgressNotFound
	}

	return nil
}

// Delete implements store.ProgressStore.Delete.
func (s *ProgressStore) Delete(ctx context.Context, lessonID uuid.UUID) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM progress_records WHERE lesson_id = ?`, lessonID.String())
	if err != nil {
		return store.NewStoreError("progress", "delete", "write failed",
			store.ErrTransactionFailed)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return store.NewStoreError("progress", "delete", "result unavailable",
			store.ErrTransactionFailed)
	}
	if affected == 0 {
		return store.ErrProgressNotFound
	}

	return nil
}

// WithTx implements store.ProgressStore.WithTx.
func (s *ProgressStore) WithTx(tx *sqlx.Tx) store.ProgressStore {
	return &ProgressStore{db: tx, logger: s.logger}
}
