/*
errors.go - Centralized error types for the staffing engine

PURPOSE:
  All error categories in one place. Callers classify with errors.Is and
  the helpers at the bottom; the HTTP layer maps categories to status codes.

ERROR CATEGORIES:
  1. Validation errors - recoverable by correcting input (date ranges,
     blank reasons, closed projects, duplicate assignments)
  2. State conflicts   - the targeted record moved on (non-pending request,
     stale assignment, concurrent pending request)
  3. Not found         - unknown identifiers
  4. Capacity conflict - deletion blocked by active assignments

SEE ALSO:
  - validate.go: produces ValidationError values
  - workflow.go: produces StateConflictError values
*/
package staffing

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the root of all input-rule violations.
	ErrValidation = errors.New("validation failed")

	// ErrStateConflict is returned when an operation targets a record whose
	// state has moved on. Retrying without re-fetching will not help.
	ErrStateConflict = errors.New("state conflict")

	// ErrNotFound is returned for unknown identifiers.
	ErrNotFound = errors.New("not found")

	// ErrCapacityConflict is returned when a delete is blocked by active
	// assignments.
	ErrCapacityConflict = errors.New("capacity conflict")

	// ErrDuplicatePendingRequest is returned when an assignment already has
	// an open request. Enforced by a uniqueness constraint at insert time,
	// not a check-then-insert.
	ErrDuplicatePendingRequest = errors.New("assignment already has a pending request")

	// ErrForbidden is returned when the actor's role does not permit the
	// operation (e.g. a manager calling a direct mutation path).
	ErrForbidden = errors.New("operation not permitted for role")
)

// =============================================================================
// VALIDATION ERRORS - Carry a machine-readable code
// =============================================================================

type ValidationCode string

const (
	CodeInvalidRange        ValidationCode = "INVALID_RANGE"
	CodeProjectClosed       ValidationCode = "PROJECT_CLOSED"
	CodeNotAnExtension      ValidationCode = "NOT_AN_EXTENSION"
	CodeReasonRequired      ValidationCode = "REASON_REQUIRED"
	CodeNameRequired        ValidationCode = "NAME_REQUIRED"
	CodeDuplicateAssignment ValidationCode = "DUPLICATE_ASSIGNMENT"
)

// ValidationError is a business-rule violation. Always recoverable by the
// caller correcting input.
type ValidationError struct {
	Code    ValidationCode
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func validationf(code ValidationCode, format string, args ...any) *ValidationError {
	return &ValidationError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// NotFoundError identifies which record was missing.
type NotFoundError struct {
	Kind string // "resource", "project", "assignment", "request", "user"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// StateConflictError describes why the operation could not proceed against
// the record's current state.
type StateConflictError struct {
	Kind    string
	ID      string
	Message string
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Kind, e.ID, e.Message)
}

func (e *StateConflictError) Unwrap() error { return ErrStateConflict }

// CapacityConflictError is returned when deletion is refused while active
// assignments remain.
type CapacityConflictError struct {
	Kind        string
	ID          string
	ActiveCount int
}

func (e *CapacityConflictError) Error() string {
	return fmt.Sprintf("cannot delete %s %s: %d active assignment(s) remain", e.Kind, e.ID, e.ActiveCount)
}

func (e *CapacityConflictError) Unwrap() error { return ErrCapacityConflict }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation reports whether the caller can recover by correcting input.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsStateConflict reports a conflict that requires re-fetching state.
func IsStateConflict(err error) bool {
	return errors.Is(err, ErrStateConflict) || errors.Is(err, ErrDuplicatePendingRequest)
}

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func IsCapacityConflict(err error) bool { return errors.Is(err, ErrCapacityConflict) }
