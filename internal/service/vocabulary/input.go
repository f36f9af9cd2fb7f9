package vocabulary

import (
	"fmt"
	"strings"

	"github.com/heartmarshall/vocab-harvester/internal/domain"
)

// MaxPageSize caps ListInput.Limit.
const MaxPageSize = 200

// ListInput holds the parameters for listing vocabulary entries.
type ListInput struct {
	Search     *string
	Difficulty *int
	POS        *string
	Tag        *string
	Limit      int
	Offset     int
}

// Validate checks all fields and collects all errors.
func (i ListInput) Validate() error {
	var errs []domain.FieldError

	if i.Limit < 0 || i.Limit > MaxPageSize {
		errs = append(errs, domain.FieldError{Field: "limit", Message: fmt.Sprintf("must be between 0 and %d", MaxPageSize)})
	}
	if i.Offset < 0 {
		errs = append(errs, domain.FieldError{Field: "offset", Message: "must be >= 0"})
	}
	if i.Difficulty != nil && (*i.Difficulty < domain.MinDifficulty || *i.Difficulty > domain.MaxDifficulty) {
		errs = append(errs, domain.FieldError{Field: "difficulty", Message: "must be between 0 and 4"})
	}
	if i.POS != nil && !domain.PartOfSpeech(strings.ToUpper(strings.TrimSpace(*i.POS))).IsValid() {
		errs = append(errs, domain.FieldError{Field: "pos", Message: "invalid value"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// filter converts validated input into a store filter.
func (i ListInput) filter() domain.VocabularyFilter {
	f := domain.VocabularyFilter{
		Search:     trimOrNil(i.Search),
		Difficulty: i.Difficulty,
		Limit:      i.Limit,
		Offset:     i.Offset,
	}
	if i.POS != nil {
		pos := domain.ParsePartOfSpeech(*i.POS)
		f.POS = &pos
	}
	if i.Tag != nil {
		if name := domain.NormalizeTagName(*i.Tag); name != "" {
			f.Tag = &name
		}
	}
	return f
}

// ListResult is one page of entries plus the total match count.
type ListResult struct {
	Entries    []domain.VocabularyEntry
	TotalCount int
}

// CreateTagInput holds the parameters for creating a tag.
type CreateTagInput struct {
	Name        string
	Description *string
}

// Validate checks all fields and collects all errors.
func (i CreateTagInput) Validate() error {
	var errs []domain.FieldError
	name := strings.TrimSpace(i.Name)
	if name == "" {
		errs = append(errs, domain.FieldError{Field: "name", Message: "required"})
	}
	if len(name) > 100 {
		errs = append(errs, domain.FieldError{Field: "name", Message: "max 100 characters"})
	}
	if i.Description != nil && len(*i.Description) > 500 {
		errs = append(errs, domain.FieldError{Field: "description", Message: "max 500 characters"})
	}
	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
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
