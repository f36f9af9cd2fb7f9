package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/vocab-harvester/internal/adapter/postgres"
	pgcandidate "github.com/heartmarshall/vocab-harvester/internal/adapter/postgres/candidate"
	pgkeyspace "github.com/heartmarshall/vocab-harvester/internal/adapter/postgres/keyspace"
	pgtag "github.com/heartmarshall/vocab-harvester/internal/adapter/postgres/tag"
	pgvocabulary "github.com/heartmarshall/vocab-harvester/internal/adapter/postgres/vocabulary"
	"github.com/heartmarshall/vocab-harvester/internal/adapter/sqlite"
	"github.com/heartmarshall/vocab-harvester/internal/config"
	"github.com/heartmarshall/vocab-harvester/internal/domain"
)

// ---------------------------------------------------------------------------
// Store method sets shared by the sqlite and postgres adapters
// ---------------------------------------------------------------------------

type candidateStore interface {
	Get(ctx context.Context, key domain.Key) (*domain.PendingCandidate, error)
	GetForUpdate(ctx context.Context, key domain.Key) (*domain.PendingCandidate, error)
	List(ctx context.Context, states ...domain.CandidateState) ([]domain.PendingCandidate, error)
	CountByState(ctx context.Context) (map[domain.CandidateState]int, error)
	Insert(ctx context.Context, c *domain.PendingCandidate) error
	Touch(ctx context.Context, key domain.Key, surface, batchID string, seenAt time.Time) error
	Transition(ctx context.Context, key domain.Key, from, to domain.CandidateState) error
	Resolve(ctx context.Context, key domain.Key, translation *string) error
	SetTags(ctx context.Context, key domain.Key, tags []string) error
	SetTranslation(ctx context.Context, key domain.Key, translation *string) error
	Delete(ctx context.Context, key domain.Key) error
}

type keyStore interface {
	KeyExists(ctx context.Context, key domain.Key) (domain.KeyLocation, error)
	Locate(ctx context.Context, keys []domain.Key) (map[domain.Key]domain.KeyLocation, error)
}

type entryStore interface {
	GetByKey(ctx context.Context, key domain.Key) (*domain.VocabularyEntry, error)
	List(ctx context.Context, filter domain.VocabularyFilter) ([]domain.VocabularyEntry, error)
	Count(ctx context.Context, filter domain.VocabularyFilter) (int, error)
	Insert(ctx context.Context, e *domain.VocabularyEntry) (bool, error)
	DeleteByKey(ctx context.Context, key domain.Key) error
}

type tagStore interface {
	List(ctx context.Context) ([]domain.Tag, error)
	GetByName(ctx context.Context, name string) (*domain.Tag, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, name string, description *string) (*domain.Tag, error)
	Ensure(ctx context.Context, names []string) ([]domain.Tag, error)
	Link(ctx context.Context, entryID uuid.UUID, tagIDs []uuid.UUID) error
	Unlink(ctx context.Context, entryID, tagID uuid.UUID) error
}

type txRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// store is one opened backend.
type store struct {
	candidates candidateStore
	keys       keyStore
	entries    entryStore
	tags       tagStore
	tx         txRunner
	ping       func(ctx context.Context) error
	close      func()
}

// Migrate applies pending migrations for the configured driver and returns
// how many were applied.
func Migrate(ctx context.Context, cfg config.DatabaseConfig) (int, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return postgres.Migrate(ctx, cfg.DSN)
	case config.DriverSQLite:
		return sqlite.Migrate(ctx, cfg.Path)
	default:
		return 0, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func openStore(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*store, error) {
	if cfg.MigrateOnStart {
		n, err := Migrate(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		logger.Info("migrations applied", slog.String("driver", cfg.Driver), slog.Int("count", n))
	}

	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		logger.Info("database connected", slog.String("driver", cfg.Driver))
		return &store{
			candidates: pgcandidate.New(pool),
			keys:       pgkeyspace.New(pool),
			entries:    pgvocabulary.New(pool),
			tags:       pgtag.New(pool),
			tx:         postgres.NewTxManager(pool),
			ping:       pool.Ping,
			close:      pool.Close,
		}, nil

	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}
		logger.Info("database opened", slog.String("driver", cfg.Driver), slog.String("path", cfg.Path))
		return &store{
			candidates: sqlite.NewCandidateRepo(db),
			keys:       sqlite.NewKeyspaceRepo(db),
			entries:    sqlite.NewVocabularyRepo(db),
			tags:       sqlite.NewTagRepo(db),
			tx:         sqlite.NewTxManager(db),
			ping:       db.PingContext,
			close:      func() { _ = db.Close() },
		}, nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// Ping checks the backend connection.
func (s *store) Ping(ctx context.Context) error { return s.ping(ctx) }
