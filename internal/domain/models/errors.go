package models

import (
	"errors"
	"fmt"
)

// ErrNotFound signals that a remote resource lookup returned no record.
var ErrNotFound = errors.New("resource not found")

// ValidationError marks malformed input records. It aborts the whole
// invocation and is surfaced to the caller as a 4xx-class failure; it is
// never retried.
type ValidationError struct {
	Msg   string
	Cause error
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

func (e *ValidationError) Unwrap() error { return e.Cause }

// NewValidationError wraps cause as a user-facing validation failure.
func NewValidationError(msg string, cause error) *ValidationError {
	return &ValidationError{Msg: msg, Cause: cause}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
