package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Difficulty bounds for vocabulary entries.
const (
	MinDifficulty     = 0
	MaxDifficulty     = 4
	DefaultDifficulty = 3
)

// Key identifies a word in both stores.
type Key struct {
	Lemma string
	POS   PartOfSpeech
}

// NewKey builds a normalized key. Unknown POS values become OTHER.
func NewKey(lemma string, pos PartOfSpeech) Key {
	return Key{Lemma: NormalizeLemma(lemma), POS: ParsePartOfSpeech(string(pos))}
}

func (k Key) String() string { return fmt.Sprintf("%s [%s]", k.Lemma, k.POS) }

// Validate checks that the key is usable as a store key.
func (k Key) Validate() error {
	var errs []FieldError
	if k.Lemma == "" {
		errs = append(errs, FieldError{Field: "lemma", Message: "required"})
	}
	if !k.POS.IsValid() {
		errs = append(errs, FieldError{Field: "pos", Message: "invalid value"})
	}
	if len(errs) > 0 {
		return NewValidationErrors(errs)
	}
	return nil
}

// Gender is grammatical gender as reported by the annotator's morphology.
type Gender string

const (
	GenderMasculine Gender = "Masc"
	GenderFeminine  Gender = "Fem"
	GenderNeuter    Gender = "Neut"
)

// Article returns the nominative definite article for the gender, or "".
func (g Gender) Article() string {
	switch g {
	case GenderMasculine:
		return "der"
	case GenderFeminine:
		return "die"
	case GenderNeuter:
		return "das"
	}
	return ""
}

// ParseGender accepts the first recognized value of a morphology feature list.
func ParseGender(values ...string) Gender {
	for _, v := range values {
		switch g := Gender(v); g {
		case GenderMasculine, GenderFeminine, GenderNeuter:
			return g
		}
	}
	return ""
}

// Token is one annotated word of the input text. Tokens are never persisted.
type Token struct {
	Surface    string
	Lemma      string
	POS        PartOfSpeech
	Meaningful bool
	Gender     Gender
}

// Key returns the normalized store key for the token.
func (t Token) Key() Key { return NewKey(t.Lemma, t.POS) }

// VocabularyEntry is a word the user has accepted into permanent vocabulary.
type VocabularyEntry struct {
	ID          uuid.UUID
	Key         Key
	Translation *string
	Article     *string
	IsRegular   bool
	Difficulty  int
	CreatedAt   time.Time

	Tags []Tag
}

// TagNames returns the names of the entry's tags in stored order.
func (e *VocabularyEntry) TagNames() []string {
	names := make([]string, len(e.Tags))
	for i, t := range e.Tags {
		names[i] = t.Name
	}
	return names
}

// Tag is a reusable label. Tags outlive their last association.
type Tag struct {
	ID          uuid.UUID
	Name        string
	Description *string
	CreatedAt   time.Time
	EntryCount  int // computed field, not stored in DB
}

// VocabularyFilter contains filtering/pagination parameters for vocabulary listings.
type VocabularyFilter struct {
	Search     *string
	Difficulty *int
	POS        *PartOfSpeech
	Tag        *string
	Limit      int
	Offset     int
}

// ValidateDifficulty checks the 0..4 range.
func ValidateDifficulty(d int) error {
	if d < MinDifficulty || d > MaxDifficulty {
		return NewValidationError("difficulty", fmt.Sprintf("must be between %d and %d", MinDifficulty, MaxDifficulty))
	}
	return nil
}

// Stats summarizes both stores.
type Stats struct {
	Pending      map[CandidateState]int
	PendingTotal int
	Vocabulary   int
	Tags         int
}
