package sqlite

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/phrazzld/lingua-engine/internal/domain"
	"github.com/phrazzld/lingua-engine/internal/store"
)

// SelfCheckStore implements store.SelfCheckStore on sqlite. The table is
// append-only; there are deliberately no update or delete operations.
type SelfCheckStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewSelfCheckStore creates a sqlite-backed self-check store.
func NewSelfCheckStore(db store.DBTX, logger *slog.Logger) *SelfCheckStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &SelfCheckStore{
		db:     db,
		logger: logger.With(slog.String("component", "self_check_store")),
	}
}

// Ensure SelfCheckStore implements store.SelfCheckStore
var _ store.SelfCheckStore = (*SelfCheckStore)(nil)

type selfCheckRow struct {
	ExerciseID string    `db:"exercise_id"`
	Rating     int       `db:"rating"`
	Note       string    `db:"note"`
	CreatedAt  time.Time `db:"created_at"`
}

// Append implements store.SelfCheckStore.Append.
func (s *SelfCheckStore) Append(ctx context.Context, record *domain.SelfCheckRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO self_checks (exercise_id, rating, note, created_at)
		 VALUES (?, ?, ?, ?)`,
		record.ExerciseID.String(), record.Rating, record.Note, record.CreatedAt)
	if err != nil {
		s.logger.Error("failed to append self check",
			slog.String("error", err.Error()),
			slog.String("exercise_id", record.ExerciseID.String()))
		return store.NewStoreError("self_check", "append", "write failed",
			store.ErrTransactionFailed)
	}

	return nil
}

// GetByExercise implements store.SelfCheckStore.GetByExercise.
func (s *SelfCheckStore) GetByExercise(
	ctx context.Context,
	exerciseID uuid.UUID,
) ([]*domain.SelfCheckRecord, error) {
	var rows []selfCheckRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT exercise_id, rating, note, created_at
		   FROM self_checks WHERE exercise_id = ? ORDER BY created_at`,
		exerciseID.String())
	if err != nil {
		return nil, store.NewStoreError("self_check", "get_by_exercise", "query failed",
			store.ErrTransactionFailed)
	}

	records := make([]*domain.SelfCheckRecord, 0, len(rows))
	for i := range rows {
		id, err := uuid.Parse(rows[i].ExerciseID)
		if err != nil {
			return nil, store.NewStoreError("self_check", "scan", "malformed exercise ID", err)
		}
		records = append(records, &domain.SelfCheckRecord{
			ExerciseID: id,
			Rating:     rows[i].Rating,
			Note:       rows[i].Note,
			CreatedAt:  rows[i].CreatedAt,
		})
	}

	return records, nil
}

// WithTx implements store.SelfCheckStore.WithTx.
func (s *SelfCheckStore) WithTx(tx *sqlx.Tx) store.SelfCheckStore {
	return &SelfCheckStore{db: tx, logger: s.logger}
}
