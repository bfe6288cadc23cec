package domain

import (
	"encoding/json"
	"time"
)

// ContentCacheEntry is a read-only cached copy of remote content, kept
// purely so lessons remain browsable offline. Staleness is tolerated;
// cache contents are never used to satisfy correctness invariants.
type ContentCacheEntry struct {
	ID       string          `json:"id"        db:"id"`
	Data     json.RawMessage `json:"data"      db:"data"`
	CachedAt time.Time       `json:"cached_at" db:"cached_at"`
}

// NewContentCacheEntry creates a cache entry for the given content ID.
func NewContentCacheEntry(id string, data json.RawMessage) (*ContentCacheEntry, error) {
	if id == "" {
		return nil, ErrInvalidID
	}
	if len(data) == 0 {
		return nil, ErrEmptyContent
	}

	return &ContentCacheEntry{
		ID:       id,
		Data:     data,
		CachedAt: time.Now().UTC(),
	}, nil
}
