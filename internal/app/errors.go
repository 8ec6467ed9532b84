package app

import (
	"errors"
	"fmt"
)

var (
	// ErrPermissionDenied is returned before any mutation when the
	// acting user lacks the required group or manager rights.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrCalendarDisabled rejects writes against a disabled calendar.
	ErrCalendarDisabled = errors.New("calendar is disabled")
)

// ValidationError is a user input error: always recoverable by fixing
// the named field, never a system fault.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return ValidationError{Field: field, Reason: reason}
}
