package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates a missing service, pattern, or dependency.
	ErrNotFound = errors.New("not found")

	// ErrApplyTimeout indicates the apply collaborator did not answer in time.
	ErrApplyTimeout = errors.New("apply timed out")

	// ErrApplyRejected indicates the apply collaborator refused the request.
	ErrApplyRejected = errors.New("apply rejected")
)

// ValidationError indicates input that failed shape or range validation.
// It is surfaced as HTTP 400 and never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// CycleError indicates a dependency edge that would close a cycle.
// Rejected at write time, before any state mutation.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	if len(e.Path) == 0 {
		return "dependency graph contains a cycle"
	}
	return "dependency cycle: " + strings.Join(e.Path, " -> ")
}

// InconsistencyError indicates a cycle discovered at resolve time despite
// write-time checks. Resolution aborts only for the affected services.
type InconsistencyError struct {
	Services []string
	Reason   string
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("internal inconsistency (%s): affected services %s",
		e.Reason, strings.Join(e.Services, ", "))
}
