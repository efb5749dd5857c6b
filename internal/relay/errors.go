package relay

import (
	"errors"
	"fmt"
)

// ValidationError reports a malformed Push or Pull request. A request that
// fails validation leaves all relay state unchanged.
type ValidationError struct {
	// Code identifies the error category.
	Code ValidationErrorCode

	// Field names the offending request field.
	Field string

	// Message is a human-readable description.
	Message string
}

// ValidationErrorCode categorizes validation errors.
type ValidationErrorCode string

const (
	// ErrCodeInvalidSource indicates a push named neither A nor B.
	ErrCodeInvalidSource ValidationErrorCode = "INVALID_SOURCE"

	// ErrCodeInvalidTarget indicates a pull named neither A nor B.
	ErrCodeInvalidTarget ValidationErrorCode = "INVALID_TARGET"

	// ErrCodeInvalidBatch indicates the pushed changes are not a sequence
	// of change records.
	ErrCodeInvalidBatch ValidationErrorCode = "INVALID_BATCH"
)

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field=%s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsValidationError returns true if err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NewSourceError creates a ValidationError for an invalid push source.
func NewSourceError(detail string) *ValidationError {
	return &ValidationError{
		Code:    ErrCodeInvalidSource,
		Field:   "source",
		Message: fmt.Sprintf("source must be A or B: %s", detail),
	}
}

// NewTargetError creates a ValidationError for an invalid pull target.
func NewTargetError(detail string) *ValidationError {
	return &ValidationError{
		Code:    ErrCodeInvalidTarget,
		Field:   "target",
		Message: fmt.Sprintf("target must be A or B: %s", detail),
	}
}

// NewBatchError creates a ValidationError for a malformed change batch.
func NewBatchError(detail string) *ValidationError {
	return &ValidationError{
		Code:    ErrCodeInvalidBatch,
		Field:   "changes",
		Message: detail,
	}
}
