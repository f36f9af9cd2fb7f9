package promotion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/vocab-harvester/internal/domain"
)

// Discard drops a candidate. Discarding a key that is not pending succeeds,
// so a repeated discard is harmless. A candidate whose translation is being
// fetched cannot be discarded.
func (s *Service) Discard(ctx context.Context, key domain.Key) error {
	if err := key.Validate(); err != nil {
		return err
	}

	unlock, err := s.locks.LockContext(ctx, key)
	if err != nil {
		return err
	}
	defer unlock()

	removed := false
	txErr := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		c, err := s.candidates.GetForUpdate(txCtx, key)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("lock candidate: %w", err)
		}
		if err := c.CheckDiscard(); err != nil {
			return err
		}
		if err := s.candidates.Delete(txCtx, key); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("delete candidate: %w", err)
		}
		removed = true
		return nil
	})
	if txErr != nil {
		return txErr
	}

	if removed {
		s.log.InfoContext(ctx, "candidate discarded", slog.String("key", key.String()))
	}
	return nil
}
