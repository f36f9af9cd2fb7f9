// Package filter reduces an annotated token stream to the keys that are new
// to both stores.
package filter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/vocab-harvester/internal/domain"
)

type keyLocator interface {
	Locate(ctx context.Context, keys []domain.Key) (map[domain.Key]domain.KeyLocation, error)
}

// Result splits the distinct meaningful keys of a text by where they live.
// Each slice keeps first-occurrence order.
type Result struct {
	// New holds the first token of every key found in neither store.
	New []domain.Token
	// Repeats holds the first token of every key already pending.
	Repeats []domain.Token
	// Known holds keys already in the vocabulary.
	Known []domain.Key
	// TokensSeen counts meaningful tokens, duplicates included.
	TokensSeen int
}

// Service is the candidate filter. It only reads the stores.
type Service struct {
	keys keyLocator
	log  *slog.Logger
}

// NewService creates a new filter service.
func NewService(log *slog.Logger, keys keyLocator) *Service {
	return &Service{
		keys: keys,
		log:  log.With("service", "filter"),
	}
}

// Filter drops non-meaningful tokens, collapses repeats of the same
// (lemma, POS) and classifies each distinct key with one store lookup.
// The same lemma under two POS tags yields two keys.
func (s *Service) Filter(ctx context.Context, tokens []domain.Token) (*Result, error) {
	res := &Result{
		New:     []domain.Token{},
		Repeats: []domain.Token{},
		Known:   []domain.Key{},
	}

	var (
		order []domain.Key
		first = make(map[domain.Key]domain.Token)
	)
	for _, tok := range tokens {
		if !tok.Meaningful {
			continue
		}
		key := tok.Key()
		if key.Lemma == "" {
			continue
		}
		res.TokensSeen++
		if _, dup := first[key]; dup {
			continue
		}
		first[key] = tok
		order = append(order, key)
	}
	if len(order) == 0 {
		return res, nil
	}

	locs, err := s.keys.Locate(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("locate keys: %w", err)
	}

	for _, key := range order {
		switch locs[key] {
		case domain.KeyLocationVocabulary:
			res.Known = append(res.Known, key)
		case domain.KeyLocationPending:
			res.Repeats = append(res.Repeats, first[key])
		default:
			res.New = append(res.New, first[key])
		}
	}

	s.log.DebugContext(ctx, "tokens filtered",
		slog.Int("tokens", res.TokensSeen),
		slog.Int("distinct", len(order)),
		slog.Int("new", len(res.New)),
		slog.Int("pending", len(res.Repeats)),
		slog.Int("known", len(res.Known)),
	)
	return res, nil
}
