package vocabulary

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/vocab-harvester/internal/domain"
)

// List returns one page of entries matching the input, alphabetically.
func (s *Service) List(ctx context.Context, in ListInput) (*ListResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	f := in.filter()

	entries, err := s.entries.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	total, err := s.entries.Count(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("count entries: %w", err)
	}
	return &ListResult{Entries: entries, TotalCount: total}, nil
}

// Count returns the number of entries matching the input's filters.
func (s *Service) Count(ctx context.Context, in ListInput) (int, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	n, err := s.entries.Count(ctx, in.filter())
	if err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

// Get returns one entry with its tags.
func (s *Service) Get(ctx context.Context, key domain.Key) (*domain.VocabularyEntry, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	return s.entries.GetByKey(ctx, key)
}

// Delete removes an entry. Its tags are kept.
func (s *Service) Delete(ctx context.Context, key domain.Key) error {
	if err := key.Validate(); err != nil {
		return err
	}
	unlock, err := s.locks.LockContext(ctx, key)
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.entries.DeleteByKey(ctx, key); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "entry deleted", slog.String("key", key.String()))
	return nil
}

// AddTag attaches a tag to an entry, creating the tag if needed.
func (s *Service) AddTag(ctx context.Context, key domain.Key, name string) (*domain.VocabularyEntry, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	name = domain.NormalizeTagName(name)
	if name == "" {
		return nil, domain.NewValidationError("tag", "required")
	}

	var updated *domain.VocabularyEntry
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		e, err := s.entries.GetByKey(txCtx, key)
		if err != nil {
			return err
		}
		tags, err := s.tags.Ensure(txCtx, []string{name})
		if err != nil {
			return fmt.Errorf("ensure tag: %w", err)
		}
		if err := s.tags.Link(txCtx, e.ID, []uuid.UUID{tags[0].ID}); err != nil {
			return fmt.Errorf("link tag: %w", err)
		}
		updated, err = s.entries.GetByKey(txCtx, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// RemoveTag detaches a tag from an entry. The tag itself is kept.
func (s *Service) RemoveTag(ctx context.Context, key domain.Key, name string) (*domain.VocabularyEntry, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	name = domain.NormalizeTagName(name)
	if name == "" {
		return nil, domain.NewValidationError("tag", "required")
	}

	var updated *domain.VocabularyEntry
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		e, err := s.entries.GetByKey(txCtx, key)
		if err != nil {
			return err
		}
		tag, err := s.tags.GetByName(txCtx, name)
		if err != nil {
			return err
		}
		if err := s.tags.Unlink(txCtx, e.ID, tag.ID); err != nil {
			return err
		}
		updated, err = s.entries.GetByKey(txCtx, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
