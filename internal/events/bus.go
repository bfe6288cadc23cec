package events

import (
	"log/slog"
	"sync"
)

// subscriberBuffer is the channel capacity per subscriber. A slow
// subscriber drops transitions rather than blocking the publisher; the
// latest state is always available via Current.
const subscriberBuffer = 4

// ConnectivityBus fans connectivity transitions out to subscribers and
// remembers the latest state. Publishing never blocks: subscribers with
// full buffers miss intermediate transitions, which is safe because
// consumers only care about the current state and edge direction.
type ConnectivityBus struct {
	mu          sync.RWMutex
	current     ConnectivityState
	subscribers map[int]chan ConnectivityEvent
	nextID      int
	logger      *slog.Logger
}

// NewConnectivityBus creates a bus with the given initial state.
func NewConnectivityBus(initial ConnectivityState, logger *slog.Logger) *ConnectivityBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConnectivityBus{
		current:     initial,
		subscribers: make(map[int]chan ConnectivityEvent),
		logger:      logger.With(slog.String("component", "connectivity_bus")),
	}
}

// Current returns the latest published connectivity state.
func (b *ConnectivityBus) Current() ConnectivityState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.current
}

// Online reports whether the latest published state is online.
func (b *ConnectivityBus) Online() bool {
	return b.Current() == ConnectivityOnline
}

// Subscribe registers a new subscriber and returns its ID along with the
// channel transitions arrive on. The channel is closed on Unsubscribe.
func (b *ConnectivityBus) Subscribe() (int, <-chan ConnectivityEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan ConnectivityEvent, subscriberBuffer)
	b.subscribers[id] = ch

	b.logger.Debug("connectivity subscriber registered",
		slog.Int("subscriber_id", id),
		slog.Int("subscriber_count", len(b.subscribers)))

	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel. Calling it
// with an unknown or already-removed ID is a no-op, so cancellation is
// idempotent.
func (b *ConnectivityBus) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, ok := b.subscribers[id]
	if !ok {
		return
	}
	delete(b.subscribers, id)
	close(ch)

	b.logger.Debug("connectivity subscriber removed",
		slog.Int("subscriber_id", id),
		slog.Int("subscriber_count", len(b.subscribers)))
}

// Publish records a connectivity transition and fans it out to every
// subscriber. Repeated publishes of the same state are suppressed so a
// flapping platform signal does not produce duplicate edges.
func (b *ConnectivityBus) Publish(state ConnectivityState) {
	b.mu.Lock()
	if b.current == state {
		b.mu.Unlock()
		return
	}
	b.current = state
	event := NewConnectivityEvent(state)

	delivered := 0
	for id, ch := range b.subscribers {
		select {
		case ch <- event:
			delivered++
		default:
			b.logger.Warn("dropping connectivity event for slow subscriber",
				slog.Int("subscriber_id", id),
				slog.String("state", string(state)))
		}
	}
	b.mu.Unlock()

	b.logger.Debug("connectivity transition published",
		slog.String("state", string(state)),
		slog.Int("delivered", delivered))
}
