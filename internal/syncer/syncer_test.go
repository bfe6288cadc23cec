package syncer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/lingua-engine/internal/domain"
	"github.com/phrazzld/lingua-engine/internal/events"
	"github.com/phrazzld/lingua-engine/internal/platform/sqlite"
	"github.com/phrazzld/lingua-engine/internal/remote"
)

// fakeClient records replays and answers them via a configurable
// respond function.
type fakeClient struct {
	mu      sync.Mutex
	seqs    []int64
	respond func(call int, mutation *domain.PendingMutation) error
}

func (f *fakeClient) Replay(_ context.Context, mutation *domain.PendingMutation) error {
	f.mu.Lock()
	f.seqs = append(f.seqs, mutation.Seq)
	call := len(f.seqs)
	respond := f.respond
	f.mu.Unlock()

	if respond == nil {
		return nil
	}
	return respond(call, mutation)
}

func (f *fakeClient) calls() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.seqs...)
}

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(context.Background(), ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestManager(t *testing.T, db *sqlite.DB, client remote.ProgressClient, state events.ConnectivityState) (*Manager, *events.ConnectivityBus) {
	t.Helper()
	bus := events.NewConnectivityBus(state, nil)
	manager := NewManager(db, client, bus, Config{MaxRetries: 2, RetryBase: time.Millisecond}, nil)
	return manager, bus
}

// recordCompletion persists an unsynced progress record and enqueues
// its sync mutation, the way the progress service does on completion.
func recordCompletion(t *testing.T, db *sqlite.DB) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	record, err := domain.NewProgressRecord(uuid.New(), 85, 240)
	require.NoError(t, err)
	require.NoError(t, db.Progress().Put(ctx, record))

	mutation, err := domain.NewPendingMutation(domain.MutationTypeProgress, remote.ProgressPayload{
		LessonID:  record.LessonID,
		Score:     record.Score,
		TimeSpent: record.TimeSpent,
		Timestamp: record.Timestamp.Format(time.RFC3339),
	})
	require.NoError(t, err)
	_, err = db.Queue().Enqueue(ctx, mutation)
	require.NoError(t, err)

	return record.LessonID
}

func TestFlushOfflineIsNoOp(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := newTestDB(t)
	recordCompletion(t, db)
	client := &fakeClient{}
	manager, _ := newTestManager(t, db, client, events.ConnectivityOffline)

	result, err := manager.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{}, result)
	assert.Empty(t, client.calls(), "offline flush must not touch the network")

	queued, err := db.Queue().GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, queued, 1, "offline flush must not consume the queue")
}

func TestFlushReplaysInOrderAndMarksSynced(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := newTestDB(t)
	first := recordCompletion(t, db)
	second := recordCompletion(t, db)
	client := &fakeClient{}
	manager, _ := newTestManager(t, db, client, events.ConnectivityOnline)

	result, err := manager.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{Synced: 2}, result)

	calls := client.calls()
	require.Len(t, calls, 2)
	assert.Less(t, calls[0], calls[1], "replay must follow enqueue order")

	queued, err := db.Queue().GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, queued)

	for _, lessonID := range []uuid.UUID{first, second} {
		record, err := db.Progress().Get(ctx, lessonID)
		require.NoError(t, err)
		assert.True(t, record.Synced)
	}
}

func TestFlushKeepsRejectedItemQueued(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := newTestDB(t)
	rejected := recordCompletion(t, db)
	accepted := recordCompletion(t, db)

	client := &fakeClient{}
	client.respond = func(_ int, mutation *domain.PendingMutation) error {
		var payload remote.ProgressPayload
		if err := mutation.UnmarshalPayload(&payload); err != nil {
			return err
		}
		if payload.LessonID == rejected {
			return remote.ErrRejected
		}
		return nil
	}
	manager, _ := newTestManager(t, db, client, events.ConnectivityOnline)

	result, err := manager.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{Synced: 1, Failed: 1}, result)

	queued, err := db.Queue().GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, queued, 1, "the rejected item stays queued for retry")

	record, err := db.Progress().Get(ctx, accepted)
	require.NoError(t, err)
	assert.True(t, record.Synced)

	record, err = db.Progress().Get(ctx, rejected)
	require.NoError(t, err)
	assert.False(t, record.Synced)
}

func TestFlushRetriesTransientFailures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := newTestDB(t)
	recordCompletion(t, db)

	client := &fakeClient{}
	client.respond = func(call int, _ *domain.PendingMutation) error {
		if call < 3 {
			return remote.ErrUnavailable
		}
		return nil
	}
	manager, _ := newTestManager(t, db, client, events.ConnectivityOnline)

	result, err := manager.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{Synced: 1}, result)
	assert.Len(t, client.calls(), 3)
}

func TestFlushDoesNotRetryRejections(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := newTestDB(t)
	recordCompletion(t, db)

	client := &fakeClient{respond: func(int, *domain.PendingMutation) error {
		return remote.ErrRejected
	}}
	manager, _ := newTestManager(t, db, client, events.ConnectivityOnline)

	result, err := manager.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{Failed: 1}, result)
	assert.Len(t, client.calls(), 1, "rejections are permanent, no retries")
}

func TestFlushSingleFlight(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := newTestDB(t)
	recordCompletion(t, db)

	entered := make(chan struct{})
	release := make(chan struct{})
	client := &fakeClient{respond: func(int, *domain.PendingMutation) error {
		close(entered)
		<-release
		return nil
	}}
	manager, _ := newTestManager(t, db, client, events.ConnectivityOnline)

	done := make(chan Result, 1)
	go func() {
		result, err := manager.Flush(ctx)
		assert.NoError(t, err)
		done <- result
	}()

	<-entered
	second, err := manager.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{}, second, "concurrent flush returns immediately")

	close(release)
	assert.Equal(t, Result{Synced: 1}, <-done)
	assert.Len(t, client.calls(), 1, "only one flush performed network work")
}

func TestReconnectTriggersExactlyOneFlush(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db := newTestDB(t)
	first := recordCompletion(t, db)
	second := recordCompletion(t, db)

	client := &fakeClient{}
	manager, bus := newTestManager(t, db, client, events.ConnectivityOffline)

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		manager.Run(ctx)
	}()

	// Give Run time to subscribe before the edge fires.
	time.Sleep(50 * time.Millisecond)

	// Duplicate reconnect signals collapse into one online edge.
	bus.Publish(events.ConnectivityOnline)
	bus.Publish(events.ConnectivityOnline)
	bus.Publish(events.ConnectivityOnline)

	require.Eventually(t, func() bool {
		queued, err := db.Queue().GetAll(context.Background())
		return err == nil && len(queued) == 0
	}, 2*time.Second, 10*time.Millisecond)

	assert.Len(t, client.calls(), 2, "one flush drained both queued mutations")

	for _, lessonID := range []uuid.UUID{first, second} {
		record, err := db.Progress().Get(context.Background(), lessonID)
		require.NoError(t, err)
		assert.True(t, record.Synced)
	}

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on context cancellation")
	}
}
