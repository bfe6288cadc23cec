package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// MutationType identifies the remote operation a queued mutation replays.
type MutationType string

// Possible mutation type values
const (
	MutationTypeProgress           MutationType = "progress"
	MutationTypeExerciseSubmission MutationType = "exercise_submission"
	MutationTypeReview             MutationType = "review"
	MutationTypeSelfCheck          MutationType = "self_check"
)

// PendingMutation is one entry in the offline sync queue: a remote
// mutation that could not be confirmed immediately and must be replayed
// when connectivity returns. The store assigns Seq monotonically on
// enqueue; replay order is strictly ascending Seq (FIFO).
type PendingMutation struct {
	Seq       int64           `json:"seq"        db:"seq"`
	Type      MutationType    `json:"type"       db:"type"`
	Payload   json.RawMessage `json:"payload"    db:"payload"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// NewPendingMutation creates a queue entry for the given mutation type,
// serializing the payload to JSON. Seq is assigned by the store on enqueue.
func NewPendingMutation(mutationType MutationType, payload interface{}) (*PendingMutation, error) {
	switch mutationType {
	case MutationTypeProgress,
		MutationTypeExerciseSubmission,
		MutationTypeReview,
		MutationTypeSelfCheck:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMutationType, mutationType)
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize mutation payload: %w", err)
	}

	return &PendingMutation{
		Type:      mutationType,
		Payload:   payloadBytes,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// UnmarshalPayload decodes the mutation payload into the provided structure.
func (m *PendingMutation) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(m.Payload, v)
}
