package harvest

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/heartmarshall/vocab-harvester/internal/domain"
)

// MaxTextBytes bounds a single ProcessText input.
const MaxTextBytes = 1 << 20

// ProcessInput holds the parameters for processing a text.
type ProcessInput struct {
	Text     string
	Progress ProgressFunc
}

// Validate checks all fields and collects all errors.
func (i ProcessInput) Validate() error {
	if len(i.Text) > MaxTextBytes {
		return domain.NewValidationError("text", fmt.Sprintf("max %d bytes", MaxTextBytes))
	}
	return nil
}

// ProcessURLInput holds the parameters for processing a web article.
type ProcessURLInput struct {
	URL      string
	Progress ProgressFunc
}

// Validate checks all fields and collects all errors.
func (i ProcessURLInput) Validate() error {
	raw := strings.TrimSpace(i.URL)
	if raw == "" {
		return domain.NewValidationError("url", "required")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return domain.NewValidationError("url", "must be an absolute http(s) URL")
	}
	return nil
}

// UpsertInput holds the parameters for adding a candidate by hand.
type UpsertInput struct {
	Token       domain.Token
	Translation *string
}

// Validate checks all fields and collects all errors.
func (i UpsertInput) Validate() error {
	var errs []domain.FieldError
	key := i.Token.Key()
	if key.Lemma == "" {
		errs = append(errs, domain.FieldError{Field: "lemma", Message: "required"})
	}
	if i.Translation != nil && len(*i.Translation) > 1000 {
		errs = append(errs, domain.FieldError{Field: "translation", Message: "max 1000 characters"})
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
