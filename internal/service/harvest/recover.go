package harvest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/heartmarshall/vocab-harvester/internal/domain"
)

// RecoverStale puts candidates that have been TRANSLATING since before
// cutoff back to NEW, so RetryPending can fetch them again. A process that
// dies mid-batch leaves such rows behind. No batch may be running while it
// is called, in this process or another.
func (s *Service) RecoverStale(ctx context.Context, cutoff time.Time) ([]domain.Key, error) {
	list, err := s.candidates.List(ctx, domain.CandidateStateTranslating)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	var recovered []domain.Key
	for _, c := range list {
		if !c.LastSeenAt.Before(cutoff) {
			continue
		}
		ok, err := s.recoverOne(ctx, c.Key)
		if err != nil {
			return recovered, err
		}
		if ok {
			recovered = append(recovered, c.Key)
		}
	}

	if len(recovered) > 0 {
		s.log.WarnContext(ctx, "stale candidates reset",
			slog.Int("count", len(recovered)),
			slog.Time("cutoff", cutoff),
		)
	}
	return recovered, nil
}

func (s *Service) recoverOne(ctx context.Context, key domain.Key) (bool, error) {
	unlock, err := s.locks.LockContext(ctx, key)
	if err != nil {
		return false, err
	}
	defer unlock()

	err = s.candidates.Transition(ctx, key, domain.CandidateStateTranslating, domain.CandidateStateNew)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrConflict):
		// Finished or decided while we waited for the lock.
		return false, nil
	default:
		return false, fmt.Errorf("reset %s: %w", key, err)
	}
}
