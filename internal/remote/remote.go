// Package remote defines the contract with the remote Progress Service:
// the client interface the sync manager replays mutations through, the
// JSON payload shapes queued mutations carry, and the error taxonomy
// that decides whether a failed replay counts as rejected (keep the item,
// count it failed) or unavailable (transient, worth retrying).
package remote

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/phrazzld/lingua-engine/internal/domain"
)

var (
	// ErrRejected indicates the remote service received the mutation and
	// refused it on validation grounds. Replaying the same payload again
	// will not help.
	ErrRejected = errors.New("mutation rejected by remote")

	// ErrUnavailable indicates the remote service could not be reached
	// or answered with a server-side failure. The mutation stays queued
	// and a later replay may succeed.
	ErrUnavailable = errors.New("remote unavailable")
)

// ProgressClient replays queued mutations against the remote Progress
// Service. The remote is idempotent per logical id, so resending an
// already-applied mutation is safe.
type ProgressClient interface {
	// Replay sends one queued mutation. It returns nil once the remote
	// acknowledges it, ErrRejected on a validation refusal, and
	// ErrUnavailable on transport or server failures.
	Replay(ctx context.Context, mutation *domain.PendingMutation) error
}

// ProgressPayload is the wire shape of a lesson completion mutation.
type ProgressPayload struct {
	LessonID  uuid.UUID `json:"lesson_id"`
	Score     int       `json:"score"`
	TimeSpent int       `json:"time_spent"`
	Timestamp string    `json:"timestamp"`
}

// ReviewPayload is the wire shape of a scheduling review mutation.
type ReviewPayload struct {
	ItemID   uuid.UUID `json:"item_id"`
	ItemType string    `json:"item_type"`
	Quality  int       `json:"quality"`
}

// SubmissionPayload is the wire shape of an exercise submission mutation.
type SubmissionPayload struct {
	ExerciseID    uuid.UUID `json:"exercise_id"`
	Answer        string    `json:"answer"`
	AttemptNumber int       `json:"attempt_number"`
	UsedHint      bool      `json:"used_hint"`
}

// SelfCheckPayload is the wire shape of a self-assessment mutation.
type SelfCheckPayload struct {
	ExerciseID uuid.UUID `json:"exercise_id"`
	Rating     int       `json:"rating"`
	Note       string    `json:"note,omitempty"`
	CreatedAt  string    `json:"created_at"`
}
