package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/lingua-engine/internal/domain"
	"github.com/phrazzld/lingua-engine/internal/store"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(context.Background(), ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func TestOpenRunsMigrations(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	// All collections queryable on a fresh database.
	_, err := db.Items().GetAll(ctx)
	assert.NoError(t, err)
	_, err = db.Progress().GetAll(ctx)
	assert.NoError(t, err)
	_, err = db.Queue().GetAll(ctx)
	assert.NoError(t, err)
	_, err = db.Cache().GetAll(ctx)
	assert.NoError(t, err)
	_, err = db.SelfChecks().GetByExercise(ctx, uuid.New())
	assert.NoError(t, err)
}

func TestOpenReportsStorageUnavailable(t *testing.T) {
	// A directory path is not a usable database file.
	dir := t.TempDir()
	_, err := Open(context.Background(), dir, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrStorageUnavailable)
}

func TestOpenRejectsNewerSchema(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "lingua.db")

	db, err := Open(ctx, path, nil)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// Simulate a database written by a future build.
	raw, err := sqlx.Connect("sqlite3", dsn(path))
	require.NoError(t, err)
	_, err = raw.Exec(
		`INSERT INTO goose_db_version (version_id, is_applied, tstamp) VALUES (99, TRUE, ?)`,
		time.Now())
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	_, err = Open(ctx, path, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrUnsupportedSchema)
}

func TestScheduledItemStoreRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	item, err := domain.NewScheduledItem(uuid.New(), domain.ItemTypeWord)
	require.NoError(t, err)

	require.NoError(t, db.Items().Put(ctx, item))

	got, err := db.Items().Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, got.ID)
	assert.Equal(t, domain.ItemTypeWord, got.ItemType)
	assert.Equal(t, 2.5, got.EaseFactor)
	assert.Nil(t, got.NextReviewAt)
	assert.True(t, got.IsNew)

	// Put is an upsert: a reschedule overwrites in place.
	next := time.Now().UTC().AddDate(0, 0, 6).Truncate(time.Second)
	item.Interval = 6
	item.Repetitions = 2
	item.NextReviewAt = &next
	item.IsNew = false
	require.NoError(t, db.Items().Put(ctx, item))

	got, err = db.Items().Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, got.Interval)
	assert.Equal(t, 2, got.Repetitions)
	require.NotNil(t, got.NextReviewAt)
	assert.True(t, got.NextReviewAt.Equal(next))

	all, err := db.Items().GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = db.Items().Get(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrItemNotFound)

	require.NoError(t, db.Items().Delete(ctx, item.ID))
	assert.ErrorIs(t, db.Items().Delete(ctx, item.ID), store.ErrItemNotFound)
}

func TestScheduledItemStoreGetDue(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	newItem, err := domain.NewScheduledItem(uuid.New(), domain.ItemTypeWord)
	require.NoError(t, err)

	overdue, err := domain.NewScheduledItem(uuid.New(), domain.ItemTypeSentence)
	require.NoError(t, err)
	past := now.Add(-24 * time.Hour)
	overdue.NextReviewAt = &past
	overdue.IsNew = false

	future, err := domain.NewScheduledItem(uuid.New(), domain.ItemTypeWord)
	require.NoError(t, err)
	ahead := now.Add(48 * time.Hour)
	future.NextReviewAt = &ahead
	future.IsNew = false

	for _, item := range []*domain.ScheduledItem{newItem, overdue, future} {
		require.NoError(t, db.Items().Put(ctx, item))
	}

	due, err := db.Items().GetDue(ctx, now, 0)
	require.NoError(t, err)
	require.Len(t, due, 2)
	// Never-scheduled items sort before dated ones.
	assert.Equal(t, newItem.ID, due[0].ID)
	assert.Equal(t, overdue.ID, due[1].ID)

	limited, err := db.Items().GetDue(ctx, now, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestProgressStoreOverwriteAndMarkSynced(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	lessonID := uuid.New()
	first, err := domain.NewProgressRecord(lessonID, 70, 90)
	require.NoError(t, err)
	require.NoError(t, db.Progress().Put(ctx, first))

	// A second completion replaces the record, it does not append.
	second, err := domain.NewProgressRecord(lessonID, 95, 60)
	require.NoError(t, err)
	require.NoError(t, db.Progress().Put(ctx, second))

	all, err := db.Progress().GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 95, all[0].Score)
	assert.False(t, all[0].Synced)

	require.NoError(t, db.Progress().MarkSynced(ctx, lessonID))
	got, err := db.Progress().Get(ctx, lessonID)
	require.NoError(t, err)
	assert.True(t, got.Synced)

	assert.ErrorIs(t, db.Progress().MarkSynced(ctx, uuid.New()), store.ErrProgressNotFound)
	_, err = db.Progress().Get(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrProgressNotFound)
}

func TestMutationQueueFIFO(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	var seqs []int64
	for i := 0; i < 3; i++ {
		m, err := domain.NewPendingMutation(domain.MutationTypeProgress,
			map[string]int{"ordinal": i})
		require.NoError(t, err)

		enqueued, err := db.Queue().Enqueue(ctx, m)
		require.NoError(t, err)
		seqs = append(seqs, enqueued.Seq)
	}

	// Sequence numbers are strictly increasing.
	assert.Less(t, seqs[0], seqs[1])
	assert.Less(t, seqs[1], seqs[2])

	queued, err := db.Queue().GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, queued, 3)
	for i, m := range queued {
		var payload map[string]int
		require.NoError(t, m.UnmarshalPayload(&payload))
		assert.Equal(t, i, payload["ordinal"], "queue must replay in enqueue order")
	}

	// Deleting the middle entry keeps the rest in order.
	require.NoError(t, db.Queue().Delete(ctx, seqs[1]))
	queued, err = db.Queue().GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, queued, 2)
	assert.Equal(t, seqs[0], queued[0].Seq)
	assert.Equal(t, seqs[2], queued[1].Seq)

	assert.ErrorIs(t, db.Queue().Delete(ctx, seqs[1]), store.ErrMutationNotFound)

	require.NoError(t, db.Queue().Clear(ctx))
	queued, err = db.Queue().GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, queued)
}

func TestCompoundWriteIsAtomic(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	lessonID := uuid.New()
	record, err := domain.NewProgressRecord(lessonID, 80, 45)
	require.NoError(t, err)
	mutation, err := domain.NewPendingMutation(domain.MutationTypeProgress,
		map[string]string{"lesson_id": lessonID.String()})
	require.NoError(t, err)

	boom := errors.New("boom")

	// A failure after both writes must roll back both collections.
	err = db.RunInTransaction(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := db.Progress().WithTx(tx).Put(ctx, record); err != nil {
			return err
		}
		if _, err := db.Queue().WithTx(tx).Enqueue(ctx, mutation); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = db.Progress().Get(ctx, lessonID)
	assert.ErrorIs(t, err, store.ErrProgressNotFound)
	queued, err := db.Queue().GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, queued)

	// The same compound write commits both when the fn succeeds.
	err = db.RunInTransaction(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := db.Progress().WithTx(tx).Put(ctx, record); err != nil {
			return err
		}
		_, err := db.Queue().WithTx(tx).Enqueue(ctx, mutation)
		return err
	})
	require.NoError(t, err)

	_, err = db.Progress().Get(ctx, lessonID)
	assert.NoError(t, err)
	queued, err = db.Queue().GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, queued, 1)
}

func TestContentCacheStore(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	entry, err := domain.NewContentCacheEntry("lesson-3",
		json.RawMessage(`{"title":"Greetings"}`))
	require.NoError(t, err)
	require.NoError(t, db.Cache().Put(ctx, entry))

	got, err := db.Cache().Get(ctx, "lesson-3")
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Greetings"}`, string(got.Data))

	// Upsert refreshes stale content in place.
	entry.Data = json.RawMessage(`{"title":"Greetings v2"}`)
	require.NoError(t, db.Cache().Put(ctx, entry))
	got, err = db.Cache().Get(ctx, "lesson-3")
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Greetings v2"}`, string(got.Data))

	_, err = db.Cache().Get(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrCacheEntryNotFound)

	require.NoError(t, db.Cache().Clear(ctx))
	all, err := db.Cache().GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSelfCheckStoreAppendOnly(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	exerciseID := uuid.New()
	for _, rating := range []int{2, 4} {
		record, err := domain.NewSelfCheckRecord(exerciseID, rating, "pronunciation")
		require.NoError(t, err)
		require.NoError(t, db.SelfChecks().Append(ctx, record))
	}

	records, err := db.SelfChecks().GetByExercise(ctx, exerciseID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 2, records[0].Rating)
	assert.Equal(t, 4, records[1].Rating)
}
