package promotion

import (
	"errors"
	"strings"

	"github.com/heartmarshall/vocab-harvester/internal/domain"
)

// AcceptInput holds the parameters for accepting a candidate.
type AcceptInput struct {
	Key domain.Key
	// Tags replaces the candidate's proposed tags when non-nil.
	Tags       []string
	Difficulty *int
	// Translation overrides the fetched one when non-nil; blank clears it.
	Translation *string
}

// Validate checks all fields and collects all errors.
func (i AcceptInput) Validate() error {
	var errs []domain.FieldError

	var keyErr *domain.ValidationError
	if errors.As(i.Key.Validate(), &keyErr) {
		errs = append(errs, keyErr.Errors...)
	}
	if i.Difficulty != nil && (*i.Difficulty < domain.MinDifficulty || *i.Difficulty > domain.MaxDifficulty) {
		errs = append(errs, domain.FieldError{Field: "difficulty", Message: "must be between 0 and 4"})
	}
	if i.Translation != nil && len(*i.Translation) > 1000 {
		errs = append(errs, domain.FieldError{Field: "translation", Message: "max 1000 characters"})
	}
	for _, t := range i.Tags {
		if len(t) > 100 {
			errs = append(errs, domain.FieldError{Field: "tags", Message: "tag name max 100 characters"})
			break
		}
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// AcceptResult reports how an accept ended. Entry is the stored vocabulary
// entry in both outcomes.
type AcceptResult struct {
	Outcome domain.AcceptOutcome
	Entry   *domain.VocabularyEntry
}

// trimOrNil trims whitespace. Returns nil if result is empty.
func trimOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
