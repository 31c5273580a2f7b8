/*
errors.go - Centralized error types for the leave engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Every operation returns one of four families so callers can tell a
  caller-correctable rejection from a failed, rolled-back transaction.

ERROR CATEGORIES:
  1. Validation errors - malformed input, rejected before any store access
  2. Overlap errors    - the request collides with leave it may not replace
  3. Not-found errors  - the target record is gone, refresh and retry
  4. Storage errors    - a transaction failed and was rolled back

USAGE:
  if errors.Is(err, generic.ErrIllegalOverlap) {
      var overlap *generic.IllegalOverlapError
      errors.As(err, &overlap)
  }

SEE ALSO:
  - leave/service.go: Wraps store failures into StorageError
  - api/handlers.go: Maps families to HTTP statuses
*/
package generic

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is returned for malformed requests. No store access happened.
	ErrValidation = errors.New("validation failed")

	// ErrIllegalOverlap is returned when a request overlaps leave that is not
	// of the splittable type. Nothing was written.
	ErrIllegalOverlap = errors.New("illegal overlap")

	// ErrNotFound is returned when the target of an operation does not exist.
	ErrNotFound = errors.New("not found")

	// ErrStorage is returned when a store operation fails. The surrounding
	// transaction has been rolled back.
	ErrStorage = errors.New("storage failure")

	// ErrDeclined is returned when the confirmation hook refused a replacement.
	ErrDeclined = errors.New("replacement declined")

	// ErrStaleConfirmation is returned when the leave a replacement would
	// cancel changed between confirmation and commit. Nothing was written.
	ErrStaleConfirmation = errors.New("overlapping leave changed since confirmation")

	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError names the offending field.
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

func (e *ValidationError) Unwrap() error { return ErrValidation }

// IllegalOverlapError names the disallowed type combination.
type IllegalOverlapError struct {
	RequestedType string
	BlockingTypes []string
	BlockingIDs   []int64
}

func (e *IllegalOverlapError) Error() string {
	return fmt.Sprintf("illegal overlap: %s cannot replace %s leave (ids %v); only annual leave may be replaced",
		e.RequestedType, strings.Join(e.BlockingTypes, ", "), e.BlockingIDs)
}

func (e *IllegalOverlapError) Unwrap() error { return ErrIllegalOverlap }

// NotFoundError identifies the missing record.
type NotFoundError struct {
	Kind string // "leave", "agent", "holiday"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// StorageError wraps the driver error of a failed operation.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap exposes both the sentinel and the driver error to errors.Is.
func (e *StorageError) Unwrap() []error { return []error{ErrStorage, e.Err} }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// Storage wraps err as a StorageError unless it already belongs to a family.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStorage) || IsClientError(err) || IsNotFound(err) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrIllegalOverlap) ||
		errors.Is(err, ErrDeclined) ||
		errors.Is(err, ErrStaleConfirmation) ||
		errors.Is(err, ErrInvalidPeriod)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
