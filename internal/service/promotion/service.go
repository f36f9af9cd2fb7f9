// Package promotion moves candidates out of the pending store: accept into
// the permanent vocabulary, or discard.
package promotion

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/vocab-harvester/internal/config"
	"github.com/heartmarshall/vocab-harvester/internal/domain"
	"github.com/heartmarshall/vocab-harvester/pkg/keylock"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type candidateRepo interface {
	GetForUpdate(ctx context.Context, key domain.Key) (*domain.PendingCandidate, error)
	Delete(ctx context.Context, key domain.Key) error
}

type entryRepo interface {
	GetByKey(ctx context.Context, key domain.Key) (*domain.VocabularyEntry, error)
	Insert(ctx context.Context, e *domain.VocabularyEntry) (bool, error)
}

type tagRepo interface {
	Ensure(ctx context.Context, names []string) ([]domain.Tag, error)
	Link(ctx context.Context, entryID uuid.UUID, tagIDs []uuid.UUID) error
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service implements the accept/discard decisions.
type Service struct {
	candidates candidateRepo
	entries    entryRepo
	tags       tagRepo
	tx         txManager
	locks      *keylock.Locker[domain.Key]
	cfg        config.HarvestConfig
	log        *slog.Logger

	now func() time.Time
}

// NewService creates a new promotion service. locks must be the locker the
// harvest service uses.
func NewService(
	log *slog.Logger,
	candidates candidateRepo,
	entries entryRepo,
	tags tagRepo,
	tx txManager,
	locks *keylock.Locker[domain.Key],
	cfg config.HarvestConfig,
) *Service {
	return &Service{
		candidates: candidates,
		entries:    entries,
		tags:       tags,
		tx:         tx,
		locks:      locks,
		cfg:        cfg,
		log:        log.With("service", "promotion"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}
