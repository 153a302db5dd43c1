/*
errors.go - Centralized error types for the back-office engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers match with errors.Is/errors.As; the store wraps driver errors
  into these before they cross a package boundary.

ERROR CATEGORIES:
  1. Input-absence conditions - short-circuit to zero/no-op, logged only
  2. Persistence failures - surfaced per record, never abort a batch
  3. Lookup failures - missing agents/applications
*/
package domain

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrDuplicateReference is returned when a commission reference number
	// already exists. Surfaced to the caller of the single create; a
	// surrounding batch records it and continues.
	ErrDuplicateReference = errors.New("duplicate commission reference number")

	// ErrAgentNotFound is returned when a referenced agent doesn't exist.
	ErrAgentNotFound = errors.New("agent not found")

	// ErrApplicationNotFound is returned when a referenced application
	// doesn't exist.
	ErrApplicationNotFound = errors.New("application not found")

	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrMissingNationalID is returned when an FCB check cannot resolve a
	// national ID from the form. The check is skipped, nothing is written.
	ErrMissingNationalID = errors.New("no national id in application form")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// DuplicateReferenceError carries the colliding reference number.
type DuplicateReferenceError struct {
	Reference string
}

func (e *DuplicateReferenceError) Error() string {
	return fmt.Sprintf("commission reference already exists: %s", e.Reference)
}

func (e *DuplicateReferenceError) Unwrap() error { return ErrDuplicateReference }

// IsNotFound reports whether the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAgentNotFound) || errors.Is(err, ErrApplicationNotFound)
}
