package harvest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/vocab-harvester/internal/domain"
)

// manualBatchID marks candidates added by hand rather than from a text.
const manualBatchID = "manual"

// ListPending returns every pending candidate, oldest first.
func (s *Service) ListPending(ctx context.Context) ([]domain.PendingCandidate, error) {
	list, err := s.candidates.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	return list, nil
}

// GetPending returns one candidate or domain.ErrNotFound.
func (s *Service) GetPending(ctx context.Context, key domain.Key) (*domain.PendingCandidate, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	return s.candidates.Get(ctx, key)
}

// Upsert adds a candidate by hand or refreshes an existing one. With a
// translation the candidate is ready for a decision at once; without one it
// starts as NEW and is picked up by RetryPending. Keys already in the
// vocabulary are rejected with domain.ErrAlreadyExists.
func (s *Service) Upsert(ctx context.Context, in UpsertInput) (*domain.PendingCandidate, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	key := in.Token.Key()
	translation := trimOrNil(in.Translation)

	unlock, err := s.locks.LockContext(ctx, key)
	if err != nil {
		return nil, err
	}
	defer unlock()

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		loc, err := s.keys.KeyExists(ctx, key)
		if err != nil {
			return err
		}
		switch loc {
		case domain.KeyLocationVocabulary:
			return fmt.Errorf("entry %s: %w", key, domain.ErrAlreadyExists)

		case domain.KeyLocationNone:
			state := domain.CandidateStateNew
			if translation != nil {
				state = domain.CandidateStateAwaitingDecision
			}
			c := s.newCandidate(in.Token, state, manualBatchID, s.now())
			c.Translation = translation
			return s.candidates.Insert(ctx, c)
		}

		if err := s.candidates.Touch(ctx, key, in.Token.Surface, manualBatchID, s.now()); err != nil {
			return err
		}
		if translation == nil {
			return nil
		}
		c, err := s.candidates.Get(ctx, key)
		if err != nil {
			return err
		}
		switch c.State {
		case domain.CandidateStateAwaitingDecision:
			return s.candidates.SetTranslation(ctx, key, translation)
		case domain.CandidateStateNew:
			if err := s.candidates.Transition(ctx, key, domain.CandidateStateNew, domain.CandidateStateTranslating); err != nil {
				return err
			}
			return s.candidates.Resolve(ctx, key, translation)
		}
		return c.CheckEdit()
	})
	if err != nil {
		return nil, fmt.Errorf("upsert candidate: %w", err)
	}

	s.log.InfoContext(ctx, "candidate upserted", slog.String("key", key.String()))
	return s.candidates.Get(ctx, key)
}

// SetTags replaces the proposed tags of a candidate. Not allowed while its
// translation is being fetched.
func (s *Service) SetTags(ctx context.Context, key domain.Key, tags []string) (*domain.PendingCandidate, error) {
	return s.edit(ctx, key, func(ctx context.Context, c *domain.PendingCandidate) error {
		if err := c.CheckEdit(); err != nil {
			return err
		}
		return s.candidates.SetTags(ctx, key, domain.NormalizeTagNames(tags))
	})
}

// SetTranslation replaces or clears the translation of a candidate awaiting
// a decision.
func (s *Service) SetTranslation(ctx context.Context, key domain.Key, translation *string) (*domain.PendingCandidate, error) {
	return s.edit(ctx, key, func(ctx context.Context, c *domain.PendingCandidate) error {
		if c.State != domain.CandidateStateAwaitingDecision {
			return fmt.Errorf("set translation of %s in state %s: %w", key, c.State, domain.ErrNotReady)
		}
		return s.candidates.SetTranslation(ctx, key, trimOrNil(translation))
	})
}

// Remove deletes a candidate that is not being fetched. Unlike a discard it
// reports domain.ErrNotFound for an unknown key.
func (s *Service) Remove(ctx context.Context, key domain.Key) error {
	if err := key.Validate(); err != nil {
		return err
	}
	unlock, err := s.locks.LockContext(ctx, key)
	if err != nil {
		return err
	}
	defer unlock()

	c, err := s.candidates.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := c.CheckEdit(); err != nil {
		return err
	}
	if err := s.candidates.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete candidate: %w", err)
	}
	s.log.InfoContext(ctx, "candidate removed", slog.String("key", key.String()))
	return nil
}

func (s *Service) edit(ctx context.Context, key domain.Key, fn func(ctx context.Context, c *domain.PendingCandidate) error) (*domain.PendingCandidate, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	unlock, err := s.locks.LockContext(ctx, key)
	if err != nil {
		return nil, err
	}
	defer unlock()

	c, err := s.candidates.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := fn(ctx, c); err != nil {
		if errors.Is(err, domain.ErrNotReady) {
			return nil, err
		}
		return nil, fmt.Errorf("edit candidate: %w", err)
	}
	return s.candidates.Get(ctx, key)
}
