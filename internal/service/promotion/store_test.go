package promotion

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/vocab-harvester/internal/adapter/sqlite"
	"github.com/heartmarshall/vocab-harvester/internal/domain"
	"github.com/heartmarshall/vocab-harvester/pkg/keylock"
)

// These tests run the service against a real SQLite store.

type sqliteStore struct {
	candidates *sqlite.CandidateRepo
	entries    *sqlite.VocabularyRepo
	tags       *sqlite.TagRepo
	keys       *sqlite.KeyspaceRepo
	tx         *sqlite.TxManager
}

func newSQLiteStore(t *testing.T) *sqliteStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vocab.db")

	_, err := sqlite.Migrate(context.Background(), path)
	require.NoError(t, err)
	return openSQLiteStore(t, path)
}

// openSQLiteStore opens its own handle on an already migrated file.
func openSQLiteStore(t *testing.T, path string) *sqliteStore {
	t.Helper()
	db, err := sqlite.Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &sqliteStore{
		candidates: sqlite.NewCandidateRepo(db),
		entries:    sqlite.NewVocabularyRepo(db),
		tags:       sqlite.NewTagRepo(db),
		keys:       sqlite.NewKeyspaceRepo(db),
		tx:         sqlite.NewTxManager(db),
	}
}

func (s *sqliteStore) service(locks *keylock.Locker[domain.Key]) *Service {
	return NewService(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		s.candidates, s.entries, s.tags, s.tx,
		locks,
		testConfig(),
	)
}

func (s *sqliteStore) seed(t *testing.T, key domain.Key) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, s.candidates.Insert(context.Background(), &domain.PendingCandidate{
		Key:         key,
		Surface:     key.Lemma,
		Translation: ptr("to " + key.Lemma),
		IsRegular:   true,
		Tags:        []string{"proposed"},
		State:       domain.CandidateStateAwaitingDecision,
		BatchID:     "seed",
		CreatedAt:   now,
		LastSeenAt:  now,
	}))
}

func TestStore_AcceptMovesKeyWithExactTags(t *testing.T) {
	t.Parallel()

	st := newSQLiteStore(t)
	ctx := context.Background()
	key := domain.NewKey("spielen", domain.PartOfSpeechVerb)
	st.seed(t, key)
	svc := st.service(keylock.New[domain.Key]())

	res, err := svc.Accept(ctx, AcceptInput{Key: key, Tags: []string{"freizeit", "kinder"}})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeAccepted, res.Outcome)
	assert.ElementsMatch(t, []string{"freizeit", "kinder"}, res.Entry.TagNames())

	pending, err := st.candidates.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	loc, err := st.keys.KeyExists(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, domain.KeyLocationVocabulary, loc)

	stored, err := st.entries.GetByKey(ctx, key)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"freizeit", "kinder"}, stored.TagNames())
	assert.Equal(t, "to spielen", *stored.Translation)
}

func TestStore_ConcurrentAcceptRace(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "vocab.db")
	_, err := sqlite.Migrate(context.Background(), path)
	require.NoError(t, err)

	// Two handles with their own lockers behave like two processes on one file.
	first, second := openSQLiteStore(t, path), openSQLiteStore(t, path)
	services := []*Service{
		first.service(keylock.New[domain.Key]()),
		second.service(keylock.New[domain.Key]()),
	}
	ctx := context.Background()

	const rounds = 25
	for i := range rounds {
		key := domain.NewKey(fmt.Sprintf("rennen%d", i), domain.PartOfSpeechVerb)
		first.seed(t, key)

		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			outcomes []domain.AcceptOutcome
		)
		for _, svc := range services {
			wg.Add(1)
			go func() {
				defer wg.Done()
				res, err := svc.Accept(ctx, AcceptInput{Key: key, Tags: []string{"sport"}})
				if !assert.NoError(t, err, key.String()) {
					return
				}
				mu.Lock()
				outcomes = append(outcomes, res.Outcome)
				mu.Unlock()
			}()
		}
		wg.Wait()

		assert.ElementsMatch(t, []domain.AcceptOutcome{domain.OutcomeAccepted, domain.OutcomeAlreadyExists}, outcomes, key.String())
	}

	n, err := second.entries.Count(ctx, domain.VocabularyFilter{})
	require.NoError(t, err)
	assert.Equal(t, rounds, n)

	pending, err := second.candidates.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestStore_DiscardTwice(t *testing.T) {
	t.Parallel()

	st := newSQLiteStore(t)
	ctx := context.Background()
	key := domain.NewKey("weinen", domain.PartOfSpeechVerb)
	st.seed(t, key)
	svc := st.service(keylock.New[domain.Key]())

	require.NoError(t, svc.Discard(ctx, key))
	require.NoError(t, svc.Discard(ctx, key))

	loc, err := st.keys.KeyExists(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, domain.KeyLocationNone, loc)
}
