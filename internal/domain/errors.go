package domain

import (
	"errors"
	"fmt"
)

var (
	ErrReferentialIntegrity = errors.New("referenced record does not exist")
	ErrNotFound             = errors.New("not found")
	ErrStoreUnavailable     = errors.New("store unavailable")
	ErrForbidden            = errors.New("forbidden")
)

// ValidationError reports a malformed or missing field. Nothing is persisted
// when one is returned.
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

func Invalid(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err carries a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
