// Package store defines the persistence contracts for the engine's four
// client-local collections and the shared error taxonomy for storage
// failures.
package store
