package promotion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/vocab-harvester/internal/domain"
)

// Accept moves a candidate into the vocabulary in one transaction: the
// candidate row is locked, the entry inserted and tagged, and the candidate
// deleted. Losing a race to another accept of the same key is not an
// error; the result then carries domain.OutcomeAlreadyExists.
func (s *Service) Accept(ctx context.Context, in AcceptInput) (*AcceptResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	key := in.Key

	unlock, err := s.locks.LockContext(ctx, key)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var res AcceptResult
	txErr := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		c, err := s.candidates.GetForUpdate(txCtx, key)
		if errors.Is(err, domain.ErrNotFound) {
			existing, getErr := s.entries.GetByKey(txCtx, key)
			if getErr != nil {
				if errors.Is(getErr, domain.ErrNotFound) {
					return fmt.Errorf("candidate %s: %w", key, domain.ErrNotFound)
				}
				return fmt.Errorf("get entry: %w", getErr)
			}
			res = AcceptResult{Outcome: domain.OutcomeAlreadyExists, Entry: existing}
			return nil
		}
		if err != nil {
			return fmt.Errorf("lock candidate: %w", err)
		}
		if err := c.CheckAccept(); err != nil {
			return err
		}

		entry := s.buildEntry(c, in)
		inserted, err := s.entries.Insert(txCtx, entry)
		if err != nil {
			return fmt.Errorf("insert entry: %w", err)
		}
		if !inserted {
			// The key reached the vocabulary by another path; the pending
			// copy must still go.
			if err := s.candidates.Delete(txCtx, key); err != nil {
				return fmt.Errorf("delete candidate: %w", err)
			}
			existing, err := s.entries.GetByKey(txCtx, key)
			if err != nil {
				return fmt.Errorf("get entry: %w", err)
			}
			res = AcceptResult{Outcome: domain.OutcomeAlreadyExists, Entry: existing}
			return nil
		}

		if err := s.linkTags(txCtx, entry.ID, s.tagNames(c, in)); err != nil {
			return err
		}
		if err := s.candidates.Delete(txCtx, key); err != nil {
			return fmt.Errorf("delete candidate: %w", err)
		}

		stored, err := s.entries.GetByKey(txCtx, key)
		if err != nil {
			return fmt.Errorf("get entry: %w", err)
		}
		res = AcceptResult{Outcome: domain.OutcomeAccepted, Entry: stored}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.log.InfoContext(ctx, "candidate accepted",
		slog.String("key", key.String()),
		slog.String("outcome", res.Outcome.String()),
	)
	return &res, nil
}

func (s *Service) buildEntry(c *domain.PendingCandidate, in AcceptInput) *domain.VocabularyEntry {
	translation := c.Translation
	if in.Translation != nil {
		translation = trimOrNil(in.Translation)
	}
	difficulty := s.cfg.DefaultDifficulty
	if in.Difficulty != nil {
		difficulty = *in.Difficulty
	}
	if domain.ValidateDifficulty(difficulty) != nil {
		difficulty = domain.DefaultDifficulty
	}
	return &domain.VocabularyEntry{
		ID:          uuid.New(),
		Key:         c.Key,
		Translation: translation,
		Article:     c.Article,
		IsRegular:   c.IsRegular,
		Difficulty:  difficulty,
		CreatedAt:   s.now(),
	}
}

// tagNames returns the tags the entry gets: the supplied ones, or the
// candidate's proposal when none were supplied, plus POS tags if enabled.
func (s *Service) tagNames(c *domain.PendingCandidate, in AcceptInput) []string {
	names := c.Tags
	if in.Tags != nil {
		names = in.Tags
	}
	if s.cfg.AutoPOSTags {
		names = append(append([]string{}, names...), domain.AutoTags(c.Key, c.IsRegular)...)
	}
	return domain.NormalizeTagNames(names)
}

func (s *Service) linkTags(ctx context.Context, entryID uuid.UUID, names []string) error {
	if len(names) == 0 {
		return nil
	}
	tags, err := s.tags.Ensure(ctx, names)
	if err != nil {
		return fmt.Errorf("ensure tags: %w", err)
	}
	ids := make([]uuid.UUID, len(tags))
	for i, t := range tags {
		ids[i] = t.ID
	}
	if err := s.tags.Link(ctx, entryID, ids); err != nil {
		return fmt.Errorf("link tags: %w", err)
	}
	return nil
}
