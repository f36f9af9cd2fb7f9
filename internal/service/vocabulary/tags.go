package vocabulary

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/vocab-harvester/internal/domain"
)

// ListTags returns all tags with their entry counts.
func (s *Service) ListTags(ctx context.Context) ([]domain.Tag, error) {
	tags, err := s.tags.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

// CreateTag creates a tag or updates the description of an existing one.
func (s *Service) CreateTag(ctx context.Context, in CreateTagInput) (*domain.Tag, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	name := domain.NormalizeTagName(in.Name)
	tag, err := s.tags.Create(ctx, name, trimOrNil(in.Description))
	if err != nil {
		return nil, fmt.Errorf("create tag: %w", err)
	}
	s.log.InfoContext(ctx, "tag saved", slog.String("tag", name))
	return tag, nil
}

// ---------------------------------------------------------------------------
// Stats
// ---------------------------------------------------------------------------

// Stats summarizes the pending store and the vocabulary.
func (s *Service) Stats(ctx context.Context) (*domain.Stats, error) {
	byState, err := s.candidates.CountByState(ctx)
	if err != nil {
		return nil, fmt.Errorf("count candidates: %w", err)
	}
	entries, err := s.entries.Count(ctx, domain.VocabularyFilter{})
	if err != nil {
		return nil, fmt.Errorf("count entries: %w", err)
	}
	tags, err := s.tags.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count tags: %w", err)
	}

	st := &domain.Stats{
		Pending:    make(map[domain.CandidateState]int, 3),
		Vocabulary: entries,
		Tags:       tags,
	}
	for _, state := range []domain.CandidateState{
		domain.CandidateStateNew,
		domain.CandidateStateTranslating,
		domain.CandidateStateAwaitingDecision,
	} {
		st.Pending[state] = byState[state]
		st.PendingTotal += byState[state]
	}
	return st, nil
}
