/*
errors.go - Centralized error types for the lifecycle engine

PURPOSE:
  All error kinds in one place for consistency and discoverability.
  Domain packages wrap these errors with additional context.

ERROR TAXONOMY:
  1. NotFound         - resource/record absent
  2. Conflict         - exclusivity or overlap invariant violated
  3. Validation       - malformed dates, missing required payload
  4. PermissionDenied - self-approval, reviewer not allowed
  5. Internal         - defensive consistency check failed

USAGE:
  Callers classify with the helpers:

    if generic.IsConflict(err) {
        // map to HTTP 409
    }

SEE ALSO:
  - guard.go, workflow.go: produce these errors
  - api/handlers.go: maps kinds to HTTP statuses
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced resource or record doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when an exclusivity or overlap invariant would
	// be violated (double claim, overlapping interval, wrong lifecycle state).
	ErrConflict = errors.New("conflict")

	// ErrValidation is returned for malformed input (bad dates, missing payload).
	ErrValidation = errors.New("validation failed")

	// ErrPermissionDenied is returned when the acting identity may not perform
	// the transition (self-approval, insufficient role).
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInternal is returned when a defensive consistency check fails and
	// proceeding could corrupt state further.
	ErrInternal = errors.New("internal error")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NotFoundError identifies which entity was missing.
type NotFoundError struct {
	Kind string // "resource", "record"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ConflictError reports an exclusivity violation, carrying the record that
// already holds the claim so callers can surface it.
type ConflictError struct {
	Message  string
	Existing *ClaimRecord
}

func (e *ConflictError) Error() string {
	if e.Existing != nil {
		return fmt.Sprintf("%s (existing record %s)", e.Message, e.Existing.ID)
	}
	return e.Message
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// OverlapError reports two intervals for the same subject that share days.
type OverlapError struct {
	SubjectID SubjectID
	Requested Interval
	Existing  *ClaimRecord
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("interval %s overlaps approved record %s (%s) for subject %s",
		e.Requested, e.Existing.ID, e.Existing.Interval, e.SubjectID)
}

func (e *OverlapError) Unwrap() error { return ErrConflict }

// ValidationFieldError identifies which field failed validation.
type ValidationFieldError struct {
	Field   string
	Message string
}

func (e *ValidationFieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationFieldError) Unwrap() error { return ErrValidation }

// PermissionError explains why the identity may not act.
type PermissionError struct {
	ActorID string
	Message string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("%s: %s", e.ActorID, e.Message)
}

func (e *PermissionError) Unwrap() error { return ErrPermissionDenied }

// InconsistentStateError is raised by defensive checks (e.g. the active
// record count for a resource is not exactly 1 at release time).
type InconsistentStateError struct {
	ResourceID ResourceID
	Message    string
}

func (e *InconsistentStateError) Error() string {
	return fmt.Sprintf("inconsistent state for resource %s: %s", e.ResourceID, e.Message)
}

func (e *InconsistentStateError) Unwrap() error { return ErrInternal }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing entity.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsConflict returns true for exclusivity/overlap violations.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsValidation returns true for malformed input.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsPermissionDenied returns true for identity/role failures.
func IsPermissionDenied(err error) bool { return errors.Is(err, ErrPermissionDenied) }

// IsClientError returns true if the error is due to invalid client input
// rather than a server-side fault.
func IsClientError(err error) bool {
	return IsNotFound(err) || IsConflict(err) || IsValidation(err) || IsPermissionDenied(err)
}
