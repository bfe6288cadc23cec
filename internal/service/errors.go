package service

import (
	"errors"
	"fmt"
)

// ErrPersistenceFailed indicates an operation produced its learner-facing
// result but could not make the matching local writes durable. The result
// is still valid; the caller should surface the condition as a retryable
// background failure rather than discard the verdict.
var ErrPersistenceFailed = errors.New("failed to persist operation effects")

// ServiceError wraps unexpected failures from service operations with
// the operation name for context. Expected conditions use sentinel
// errors; callers match both with errors.Is/errors.As.
type ServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
