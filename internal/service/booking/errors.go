package booking

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the session id does not resolve.
	ErrNotFound = errors.New("session not found")
	// ErrForbidden indicates the actor is not the session's student or
	// mentor for the requested operation.
	ErrForbidden = errors.New("actor is not a party to this session")
	// ErrInvalidTransition indicates the current status does not permit
	// the requested operation.
	ErrInvalidTransition = errors.New("operation not permitted in current status")
	// ErrRepository wraps unexpected persistence failures. Callers must
	// not mistake these for guard failures.
	ErrRepository = errors.New("session repository failure")
)

// ValidationError reports a missing or out-of-range input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalidField(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
