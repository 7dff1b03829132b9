package leave

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrOverlap             = errors.New("overlapping leave request")
	ErrConflict            = errors.New("conflict")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidState        = errors.New("invalid state transition")
	ErrInsufficientBalance = errors.New("insufficient leave balance")
	ErrNoWorkflow          = errors.New("no approval workflow matches duration")
)

// ValidationError is returned before any side effect when input fails a
// business rule. Handlers surface Field/Reason to the caller.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
