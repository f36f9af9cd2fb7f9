// Package vocabulary exposes the permanent vocabulary and its tags for
// browsing and light editing.
package vocabulary

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/vocab-harvester/internal/domain"
	"github.com/heartmarshall/vocab-harvester/pkg/keylock"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type entryRepo interface {
	GetByKey(ctx context.Context, key domain.Key) (*domain.VocabularyEntry, error)
	List(ctx context.Context, filter domain.VocabularyFilter) ([]domain.VocabularyEntry, error)
	Count(ctx context.Context, filter domain.VocabularyFilter) (int, error)
	DeleteByKey(ctx context.Context, key domain.Key) error
}

type tagRepo interface {
	List(ctx context.Context) ([]domain.Tag, error)
	GetByName(ctx context.Context, name string) (*domain.Tag, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, name string, description *string) (*domain.Tag, error)
	Ensure(ctx context.Context, names []string) ([]domain.Tag, error)
	Link(ctx context.Context, entryID uuid.UUID, tagIDs []uuid.UUID) error
	Unlink(ctx context.Context, entryID, tagID uuid.UUID) error
}

type candidateCounter interface {
	CountByState(ctx context.Context) (map[domain.CandidateState]int, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service implements vocabulary browsing, tagging and stats.
type Service struct {
	entries    entryRepo
	tags       tagRepo
	candidates candidateCounter
	tx         txManager
	locks      *keylock.Locker[domain.Key]
	log        *slog.Logger
}

// NewService creates a new vocabulary service.
func NewService(
	log *slog.Logger,
	entries entryRepo,
	tags tagRepo,
	candidates candidateCounter,
	tx txManager,
	locks *keylock.Locker[domain.Key],
) *Service {
	return &Service{
		entries:    entries,
		tags:       tags,
		candidates: candidates,
		tx:         tx,
		locks:      locks,
		log:        log.With("service", "vocabulary"),
	}
}
