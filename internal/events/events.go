package events

import (
	"time"

	"github.com/google/uuid"
)

// ConnectivityState is the device's network reachability as reported by
// the embedding platform.
type ConnectivityState string

// Possible connectivity states
const (
	ConnectivityOnline  ConnectivityState = "online"
	ConnectivityOffline ConnectivityState = "offline"
)

// ConnectivityEvent records a single connectivity transition.
type ConnectivityEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// State is the connectivity state after the transition
	State ConnectivityState `json:"state"`

	// At is the timestamp when the transition was observed
	At time.Time `json:"at"`
}

// NewConnectivityEvent creates an event for the given state transition.
func NewConnectivityEvent(state ConnectivityState) ConnectivityEvent {
	return ConnectivityEvent{
		ID:    uuid.New(),
		State: state,
		At:    time.Now().UTC(),
	}
}
