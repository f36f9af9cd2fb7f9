package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError_SingleField(t *testing.T) {
	t.Parallel()

	err := NewValidationError("lemma", "required")

	if got := err.Error(); got != "validation: lemma: required" {
		t.Fatalf("unexpected Error(): %q", got)
	}
	if !errors.Is(err, ErrValidation) {
		t.Fatal("errors.Is(err, ErrValidation) = false")
	}
}

func TestValidationError_MultipleFields(t *testing.T) {
	t.Parallel()

	err := NewValidationErrors([]FieldError{
		{Field: "lemma", Message: "required"},
		{Field: "pos", Message: "invalid value"},
	})

	if got := err.Error(); got != "validation: 2 errors" {
		t.Fatalf("unexpected Error(): %q", got)
	}
	if !errors.Is(err, ErrValidation) {
		t.Fatal("errors.Is(err, ErrValidation) = false")
	}
}

func TestFetchErrorKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("wiktionary: %w", ErrNetworkUnavailable), "network_unavailable"},
		{fmt.Errorf("attempt 3: %w", ErrTranslationTimeout), "timeout"},
		{ErrNoTranslationFound, "no_translation_found"},
		{errors.New("boom"), ""},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := FetchErrorKind(tt.err); got != tt.want {
			t.Errorf("FetchErrorKind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
