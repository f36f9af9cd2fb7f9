// Package translate holds the offline translation source.
package translate

import (
	"context"
	"fmt"

	"github.com/heartmarshall/vocab-harvester/internal/domain"
)

// Stub is a translation source for offline configs. It is always reachable
// and never finds a translation, so candidates go straight to the decision
// loop where the user types the translation.
type Stub struct{}

// NewStub creates a new offline translation source.
func NewStub() *Stub { return &Stub{} }

// Translate always reports domain.ErrNoTranslationFound.
func (s *Stub) Translate(_ context.Context, lemma string, pos domain.PartOfSpeech) (string, error) {
	return "", fmt.Errorf("stub: %s [%s]: %w", lemma, pos, domain.ErrNoTranslationFound)
}

// IsReachable always reports true.
func (s *Stub) IsReachable(context.Context) bool { return true }
