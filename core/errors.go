package core

import "github.com/pkg/errors"

// FieldError ties an error message to a specific struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError carries user-facing validation failures. With no Fields it
// renders as a single message, otherwise as a per-field map.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// shutdown signals that the integrity of the service is compromised and the
// server should stop.
type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
