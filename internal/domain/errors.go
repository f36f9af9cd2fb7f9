package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation error")
	ErrConflict      = errors.New("conflict")

	// ErrNotReady is returned when a decision targets a candidate whose
	// translation is still in flight.
	ErrNotReady = errors.New("not ready")
)

// Translation fetch failures. Only ErrTranslationTimeout is retried.
var (
	ErrNetworkUnavailable = errors.New("network unavailable")
	ErrTranslationTimeout = errors.New("translation timeout")
	ErrNoTranslationFound = errors.New("no translation found")
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// NewValidationErrors creates a ValidationError from multiple field errors.
func NewValidationErrors(errs []FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}

// FetchErrorKind returns the fetch failure category of err, or "" when err
// is not one of the translation sentinels.
func FetchErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrNetworkUnavailable):
		return "network_unavailable"
	case errors.Is(err, ErrTranslationTimeout):
		return "timeout"
	case errors.Is(err, ErrNoTranslationFound):
		return "no_translation_found"
	}
	return ""
}
