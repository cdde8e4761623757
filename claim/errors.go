/*
errors.go - Centralized error types for the claim domain

PURPOSE:
  All domain error types in one place for consistency and discoverability.
  Other packages wrap these with additional context.

ERROR CATEGORIES:
  1. Validation errors - Missing or malformed intake fields
  2. Lookup errors - Missing claims or policies
  3. Transition errors - Illegal status transitions

USAGE:
  if errors.Is(err, claim.ErrClaimNotFound) {
      // 404
  }

SEE ALSO:
  - types.go: Status values referenced by StatusError
  - store.go: Store operations returning these errors
*/
package claim

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrClaimNotFound is returned when a referenced claim does not exist.
	ErrClaimNotFound = errors.New("claim not found")

	// ErrPolicyNotFound is returned when a policy name resolves to nothing.
	ErrPolicyNotFound = errors.New("policy not found")

	// ErrValidation is the base error for intake validation failures.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidTransition is the base error for illegal status moves.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError names the intake field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// StatusError reports a transition attempted from the wrong status.
// The message is user-facing and names the required status.
type StatusError struct {
	Required Status
	Current  Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("claim must be in '%s' status to submit. Current status: %s",
		e.Required, e.Current)
}

func (e *StatusError) Unwrap() error { return ErrInvalidTransition }

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrPolicyNotFound)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrClaimNotFound)
}
