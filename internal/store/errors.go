package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrStorageUnavailable is returned when the local store cannot be
	// opened at all (corrupt file, quota exceeded, unsupported
	// environment). Fatal for the session: the caller degrades to an
	// in-memory, no-offline mode.
	ErrStorageUnavailable = errors.New("local storage unavailable")

	// ErrUnsupportedSchema is returned when the on-disk schema version is
	// newer than this build knows about. Fatal; downgrades are not
	// supported.
	ErrUnsupportedSchema = errors.New("unsupported schema version")

	// ErrTransactionFailed is returned when a single storage operation or
	// transaction fails. Retryable; other collections are unaffected.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrNotFound is returned when a requested entity does not exist in
	// the store. This is the generic version of the entity-specific not
	// found errors.
	ErrNotFound = errors.New("entity not found")

	// Entity-specific "not found" errors

	// ErrItemNotFound indicates that the requested scheduled item does not exist.
	ErrItemNotFound = fmt.Errorf("%w: scheduled item", ErrNotFound)

	// ErrProgressNotFound indicates that no progress record exists for the lesson.
	ErrProgressNotFound = fmt.Errorf("%w: progress record", ErrNotFound)

	// ErrMutationNotFound indicates that the queued mutation does not exist.
	ErrMutationNotFound = fmt.Errorf("%w: pending mutation", ErrNotFound)

	// ErrCacheEntryNotFound indicates that the content cache entry does not exist.
	ErrCacheEntryNotFound = fmt.Errorf("%w: content cache entry", ErrNotFound)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsFatalError checks if the error makes the store unusable for the rest
// of the session. Only open failures and schema mismatches qualify;
// everything else is retryable.
func IsFatalError(err error) bool {
	return errors.Is(err, ErrStorageUnavailable) || errors.Is(err, ErrUnsupportedSchema)
}

// StoreError is a custom error type for store-specific errors with additional context.
type StoreError struct {
	Entity    string // The entity type (e.g., "progress", "queue")
	Operation string // The operation that failed (e.g., "put", "delete")
	Message   string // Error message
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf(
			"%s operation on %s failed: %s: %v",
			e.Operation,
			e.Entity,
			e.Message,
			e.Err,
		)
	}
	return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError with the given entity, operation,
// message, and wrapped error.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
