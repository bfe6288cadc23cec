// Package syncer drains the pending-mutation queue against the remote
// Progress Service. Flushes are single-flight, gated on connectivity,
// and replay the queue strictly in enqueue order with per-item
// isolation, so one rejected mutation never blocks the rest.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sethvargo/go-retry"

	"github.com/phrazzld/lingua-engine/internal/domain"
	"github.com/phrazzld/lingua-engine/internal/events"
	"github.com/phrazzld/lingua-engine/internal/remote"
	"github.com/phrazzld/lingua-engine/internal/store"
)

// ErrRemoteRejected is the rejection sentinel surfaced by this package.
// It aliases the remote contract's sentinel so callers can match either.
var ErrRemoteRejected = remote.ErrRejected

// Result reports what one flush accomplished. A flush skipped for being
// offline or because another flush is running reports zero for both.
type Result struct {
	Synced int `json:"synced"`
	Failed int `json:"failed"`
}

// Storage is the slice of the local store the sync manager needs:
// queue access, progress records for the synced flag, and transactions
// to make the post-success bookkeeping atomic.
type Storage interface {
	Queue() store.MutationQueueStore
	Progress() store.ProgressStore
	RunInTransaction(ctx context.Context, fn store.TxFn) error
}

// Config controls flush retry behavior.
type Config struct {
	// MaxRetries is how many times a transiently failing replay is
	// retried within one flush before counting the item failed.
	MaxRetries uint64

	// RetryBase is the initial backoff delay between retries.
	RetryBase time.Duration
}

// Manager owns the offline sync queue's lifecycle. It is safe for
// concurrent use; the single-flight guard makes overlapping Flush calls
// cheap no-ops rather than races.
type Manager struct {
	storage Storage
	client  remote.ProgressClient
	bus     *events.ConnectivityBus
	cfg     Config
	logger  *slog.Logger

	// inFlight is the single-flight token. It must be released on every
	// path out of Flush or future flushes wedge permanently.
	inFlight atomic.Bool
}

// NewManager creates a sync manager. The bus provides the connectivity
// gate and the reconnect trigger consumed by Run.
func NewManager(storage Storage, client remote.ProgressClient, bus *events.ConnectivityBus, cfg Config, logger *slog.Logger) *Manager {
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		storage: storage,
		client:  client,
		bus:     bus,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "sync_manager")),
	}
}

// Flush replays every queued mutation in FIFO order. It returns {0,0}
// immediately when offline or when another flush is already running.
// Each item is replayed independently: a rejection or exhausted retry
// counts it failed and leaves it queued, while a confirmed success
// deletes its queue entry and, for progress mutations, marks the
// corresponding record synced, both in one transaction.
func (m *Manager) Flush(ctx context.Context) (Result, error) {
	if !m.inFlight.CompareAndSwap(false, true) {
		m.logger.DebugContext(ctx, "flush already in progress, skipping")
		return Result{}, nil
	}
	defer m.inFlight.Store(false)

	if !m.bus.Online() {
		m.logger.DebugContext(ctx, "offline, flush is a no-op")
		return Result{}, nil
	}

	mutations, err := m.storage.Queue().GetAll(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("reading mutation queue: %w", err)
	}
	if len(mutations) == 0 {
		return Result{}, nil
	}

	m.logger.InfoContext(ctx, "flush started",
		slog.Int("queued", len(mutations)))

	var result Result
	for _, mutation := range mutations {
		if ctx.Err() != nil {
			m.logger.WarnContext(ctx, "flush cancelled",
				slog.Int("synced", result.Synced),
				slog.Int("failed", result.Failed))
			return result, ctx.Err()
		}

		if err := m.replayOne(ctx, mutation); err != nil {
			result.Failed++
			m.logger.WarnContext(ctx, "mutation replay failed, keeping it queued",
				slog.Int64("seq", mutation.Seq),
				slog.String("type", string(mutation.Type)),
				slog.String("error", err.Error()))
			continue
		}
		result.Synced++
	}

	m.logger.InfoContext(ctx, "flush finished",
		slog.Int("synced", result.Synced),
		slog.Int("failed", result.Failed))
	return result, nil
}

// Run blocks waiting for connectivity transitions and triggers exactly
// one flush per offline-to-online edge. It returns when ctx is done or
// the bus subscription closes.
func (m *Manager) Run(ctx context.Context) {
	id, ch := m.bus.Subscribe()
	defer m.bus.Unsubscribe(id)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if event.State != events.ConnectivityOnline {
				continue
			}
			m.logger.InfoContext(ctx, "connectivity restored, flushing queue")
			if _, err := m.Flush(ctx); err != nil {
				m.logger.ErrorContext(ctx, "reconnect flush failed",
					slog.String("error", err.Error()))
			}
		}
	}
}

// replayOne sends a single mutation, retrying transient failures with
// exponential backoff, then finalizes local state on success.
func (m *Manager) replayOne(ctx context.Context, mutation *domain.PendingMutation) error {
	backoff := retry.WithMaxRetries(m.cfg.MaxRetries, retry.NewExponential(m.cfg.RetryBase))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		replayErr := m.client.Replay(ctx, mutation)
		if replayErr == nil {
			return nil
		}
		if errors.Is(replayErr, remote.ErrUnavailable) {
			return retry.RetryableError(replayErr)
		}
		// Rejections are permanent; retrying the same payload cannot help.
		return replayErr
	})
	if err != nil {
		return err
	}

	return m.finalize(ctx, mutation)
}

// finalize removes the confirmed mutation from the queue and, for
// progress mutations, marks the lesson's record synced. Both writes
// commit together or not at all.
func (m *Manager) finalize(ctx context.Context, mutation *domain.PendingMutation) error {
	return m.storage.RunInTransaction(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := m.storage.Queue().WithTx(tx).Delete(ctx, mutation.Seq); err != nil {
			return fmt.Errorf("deleting queue entry %d: %w", mutation.Seq, err)
		}

		if mutation.Type != domain.MutationTypeProgress {
			return nil
		}

		var payload remote.ProgressPayload
		if err := mutation.UnmarshalPayload(&payload); err != nil {
			return fmt.Errorf("decoding progress payload for seq %d: %w", mutation.Seq, err)
		}
		if err := m.storage.Progress().WithTx(tx).MarkSynced(ctx, payload.LessonID); err != nil {
			// The record may have been deleted locally since enqueue;
			// the remote ack still stands, so the queue entry goes.
			if errors.Is(err, store.ErrProgressNotFound) {
				m.logger.WarnContext(ctx, "synced progress record no longer exists locally",
					slog.String("lesson_id", payload.LessonID.String()))
				return nil
			}
			return fmt.Errorf("marking lesson %s synced: %w", payload.LessonID, err)
		}
		return nil
	})
}
