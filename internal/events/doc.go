// Package events provides the connectivity event bus the sync manager
// subscribes to. It decouples the engine from whatever platform API
// actually detects connectivity changes: the embedding application feeds
// online/offline transitions into the bus, and subscribers receive them
// over plain channels.
package events
