package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared by all layers. Adapters map storage errors onto
// these; transports map them onto HTTP status codes.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation error")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrConflict      = errors.New("conflict")
)

// FieldError describes a validation failure on a single input field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError aggregates field-level validation failures so a caller
// gets every problem in one round trip. It unwraps to ErrValidation, so
// errors.Is(err, ErrValidation) holds for any ValidationError.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("validation:")
	for i, fe := range e.Errors {
		if i > 0 {
			b.WriteByte(';')
		}
		fmt.Fprintf(&b, " %s %s", fe.Field, fe.Message)
	}
	return b.String()
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return NewValidationErrors([]FieldError{{Field: field, Message: message}})
}

// NewValidationErrors builds a ValidationError from collected field errors.
func NewValidationErrors(errs []FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}
