package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidScore is returned when a lesson score is outside 0-100.
	ErrInvalidScore = errors.New("score must be between 0 and 100")

	// ErrInvalidItemType is returned when a scheduled item type is not recognized.
	ErrInvalidItemType = errors.New("invalid item type")

	// ErrInvalidMutationType is returned when a pending mutation carries an
	// unknown type tag.
	ErrInvalidMutationType = errors.New("invalid mutation type")

	// ErrInvalidExerciseContent is returned when exercise content does not
	// match its declared kind.
	ErrInvalidExerciseContent = errors.New("invalid exercise content")

	// ErrEmptyContent is returned when required content is empty.
	ErrEmptyContent = errors.New("content cannot be empty")
)
