package promotion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/vocab-harvester/internal/config"
	"github.com/heartmarshall/vocab-harvester/internal/domain"
	"github.com/heartmarshall/vocab-harvester/pkg/keylock"
)

// ===========================================================================
// Manual mocks (moq-style with func fields)
// ===========================================================================

type mockCandidateRepo struct {
	GetForUpdateFunc func(ctx context.Context, key domain.Key) (*domain.PendingCandidate, error)
	DeleteFunc       func(ctx context.Context, key domain.Key) error

	deleted []domain.Key
}

func (m *mockCandidateRepo) GetForUpdate(ctx context.Context, key domain.Key) (*domain.PendingCandidate, error) {
	return m.GetForUpdateFunc(ctx, key)
}

func (m *mockCandidateRepo) Delete(ctx context.Context, key domain.Key) error {
	m.deleted = append(m.deleted, key)
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}
	return nil
}

func (m *mockCandidateRepo) DeleteCalls() []domain.Key { return m.deleted }

type mockEntryRepo struct {
	GetByKeyFunc func(ctx context.Context, key domain.Key) (*domain.VocabularyEntry, error)
	InsertFunc   func(ctx context.Context, e *domain.VocabularyEntry) (bool, error)

	inserted []*domain.VocabularyEntry
}

func (m *mockEntryRepo) GetByKey(ctx context.Context, key domain.Key) (*domain.VocabularyEntry, error) {
	return m.GetByKeyFunc(ctx, key)
}

func (m *mockEntryRepo) Insert(ctx context.Context, e *domain.VocabularyEntry) (bool, error) {
	m.inserted = append(m.inserted, e)
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, e)
	}
	return true, nil
}

func (m *mockEntryRepo) InsertCalls() []*domain.VocabularyEntry { return m.inserted }

type mockTagRepo struct {
	EnsureFunc func(ctx context.Context, names []string) ([]domain.Tag, error)
	LinkFunc   func(ctx context.Context, entryID uuid.UUID, tagIDs []uuid.UUID) error

	ensured [][]string
	linked  [][]uuid.UUID
}

func (m *mockTagRepo) Ensure(ctx context.Context, names []string) ([]domain.Tag, error) {
	m.ensured = append(m.ensured, names)
	if m.EnsureFunc != nil {
		return m.EnsureFunc(ctx, names)
	}
	tags := make([]domain.Tag, len(names))
	for i, n := range names {
		tags[i] = domain.Tag{ID: uuid.New(), Name: n}
	}
	return tags, nil
}

func (m *mockTagRepo) Link(ctx context.Context, entryID uuid.UUID, tagIDs []uuid.UUID) error {
	m.linked = append(m.linked, tagIDs)
	if m.LinkFunc != nil {
		return m.LinkFunc(ctx, entryID, tagIDs)
	}
	return nil
}

func (m *mockTagRepo) EnsureCalls() [][]string  { return m.ensured }
func (m *mockTagRepo) LinkCalls() [][]uuid.UUID { return m.linked }

type mockTxManager struct {
	calls int
}

func (m *mockTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

// ===========================================================================
// Helpers
// ===========================================================================

var keyLaufen = domain.NewKey("laufen", domain.PartOfSpeechVerb)

func ptr[T any](v T) *T { return &v }

func testConfig() config.HarvestConfig {
	return config.HarvestConfig{DefaultDifficulty: domain.DefaultDifficulty}
}

func newTestService(c *mockCandidateRepo, e *mockEntryRepo, tg *mockTagRepo, cfg config.HarvestConfig) *Service {
	return NewService(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		c, e, tg, &mockTxManager{},
		keylock.New[domain.Key](),
		cfg,
	)
}

func awaiting(key domain.Key, tags ...string) *domain.PendingCandidate {
	if tags == nil {
		tags = []string{}
	}
	return &domain.PendingCandidate{
		Key:         key,
		Surface:     "lief",
		Translation: ptr("to run"),
		IsRegular:   false,
		Tags:        tags,
		State:       domain.CandidateStateAwaitingDecision,
		CreatedAt:   time.Now(),
	}
}

func candidateRepoWith(c *domain.PendingCandidate) *mockCandidateRepo {
	return &mockCandidateRepo{
		GetForUpdateFunc: func(_ context.Context, key domain.Key) (*domain.PendingCandidate, error) {
			if c == nil || key != c.Key {
				return nil, fmt.Errorf("candidate %s: %w", key, domain.ErrNotFound)
			}
			cp := *c
			return &cp, nil
		},
	}
}

// entryRepoEcho returns whatever was last inserted from GetByKey.
func entryRepoEcho() *mockEntryRepo {
	m := &mockEntryRepo{}
	m.GetByKeyFunc = func(_ context.Context, key domain.Key) (*domain.VocabularyEntry, error) {
		if len(m.inserted) == 0 {
			return nil, domain.ErrNotFound
		}
		return m.inserted[len(m.inserted)-1], nil
	}
	return m
}

// ---------------------------------------------------------------------------
// Accept
// ---------------------------------------------------------------------------

func TestService_Accept_Success(t *testing.T) {
	t.Parallel()

	cand := awaiting(keyLaufen, "sport")
	cands := candidateRepoWith(cand)
	entries := entryRepoEcho()
	tags := &mockTagRepo{}
	svc := newTestService(cands, entries, tags, testConfig())

	res, err := svc.Accept(context.Background(), AcceptInput{Key: keyLaufen, Tags: []string{" Bewegung", "bewegung", "Alltag"}})
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeAccepted, res.Outcome)
	require.Len(t, entries.InsertCalls(), 1)
	e := entries.InsertCalls()[0]
	assert.Equal(t, keyLaufen, e.Key)
	assert.Equal(t, "to run", *e.Translation)
	assert.False(t, e.IsRegular)
	assert.Equal(t, domain.DefaultDifficulty, e.Difficulty)
	assert.NotEqual(t, uuid.Nil, e.ID)

	assert.Equal(t, [][]string{{"bewegung", "alltag"}}, tags.EnsureCalls())
	require.Len(t, tags.LinkCalls(), 1)
	assert.Len(t, tags.LinkCalls()[0], 2)
	assert.Equal(t, []domain.Key{keyLaufen}, cands.DeleteCalls())
}

func TestService_Accept_UsesProposedTagsWhenNoneSupplied(t *testing.T) {
	t.Parallel()

	tags := &mockTagRepo{}
	svc := newTestService(candidateRepoWith(awaiting(keyLaufen, "sport")), entryRepoEcho(), tags, testConfig())

	_, err := svc.Accept(context.Background(), AcceptInput{Key: keyLaufen})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"sport"}}, tags.EnsureCalls())
}

func TestService_Accept_EmptyTagsSkipsTagging(t *testing.T) {
	t.Parallel()

	tags := &mockTagRepo{}
	cands := candidateRepoWith(awaiting(keyLaufen, "sport"))
	svc := newTestService(cands, entryRepoEcho(), tags, testConfig())

	res, err := svc.Accept(context.Background(), AcceptInput{Key: keyLaufen, Tags: []string{}})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeAccepted, res.Outcome)
	assert.Empty(t, tags.EnsureCalls())
	assert.Empty(t, tags.LinkCalls())
	assert.Len(t, cands.DeleteCalls(), 1)
}

func TestService_Accept_Overrides(t *testing.T) {
	t.Parallel()

	entries := entryRepoEcho()
	tags := &mockTagRepo{}
	cfg := testConfig()
	cfg.AutoPOSTags = true
	svc := newTestService(candidateRepoWith(awaiting(keyLaufen)), entries, tags, cfg)

	_, err := svc.Accept(context.Background(), AcceptInput{
		Key:         keyLaufen,
		Difficulty:  ptr(1),
		Translation: ptr("   "),
	})
	require.NoError(t, err)

	e := entries.InsertCalls()[0]
	assert.Nil(t, e.Translation)
	assert.Equal(t, 1, e.Difficulty)
	assert.Equal(t, [][]string{{"verb", "irregular"}}, tags.EnsureCalls())
}

func TestService_Accept_NotReady(t *testing.T) {
	t.Parallel()

	for _, state := range []domain.CandidateState{domain.CandidateStateNew, domain.CandidateStateTranslating} {
		t.Run(string(state), func(t *testing.T) {
			t.Parallel()

			cand := awaiting(keyLaufen)
			cand.State = state
			cands := candidateRepoWith(cand)
			entries := entryRepoEcho()
			svc := newTestService(cands, entries, &mockTagRepo{}, testConfig())

			res, err := svc.Accept(context.Background(), AcceptInput{Key: keyLaufen})
			assert.Nil(t, res)
			assert.ErrorIs(t, err, domain.ErrNotReady)
			assert.Empty(t, entries.InsertCalls())
			assert.Empty(t, cands.DeleteCalls())
		})
	}
}

func TestService_Accept_NotFound(t *testing.T) {
	t.Parallel()

	svc := newTestService(candidateRepoWith(nil), entryRepoEcho(), &mockTagRepo{}, testConfig())

	_, err := svc.Accept(context.Background(), AcceptInput{Key: keyLaufen})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_Accept_AlreadyAccepted(t *testing.T) {
	t.Parallel()

	existing := &domain.VocabularyEntry{ID: uuid.New(), Key: keyLaufen}
	entries := &mockEntryRepo{
		GetByKeyFunc: func(context.Context, domain.Key) (*domain.VocabularyEntry, error) { return existing, nil },
	}
	svc := newTestService(candidateRepoWith(nil), entries, &mockTagRepo{}, testConfig())

	res, err := svc.Accept(context.Background(), AcceptInput{Key: keyLaufen})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeAlreadyExists, res.Outcome)
	assert.Same(t, existing, res.Entry)
	assert.Empty(t, entries.InsertCalls())
}

func TestService_Accept_InsertConflictStillRemovesCandidate(t *testing.T) {
	t.Parallel()

	existing := &domain.VocabularyEntry{ID: uuid.New(), Key: keyLaufen}
	cands := candidateRepoWith(awaiting(keyLaufen, "sport"))
	entries := &mockEntryRepo{
		GetByKeyFunc: func(context.Context, domain.Key) (*domain.VocabularyEntry, error) { return existing, nil },
		InsertFunc:   func(context.Context, *domain.VocabularyEntry) (bool, error) { return false, nil },
	}
	tags := &mockTagRepo{}
	svc := newTestService(cands, entries, tags, testConfig())

	res, err := svc.Accept(context.Background(), AcceptInput{Key: keyLaufen})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeAlreadyExists, res.Outcome)
	assert.Equal(t, []domain.Key{keyLaufen}, cands.DeleteCalls())
	assert.Empty(t, tags.EnsureCalls())
}

func TestService_Accept_StoreErrorPropagates(t *testing.T) {
	t.Parallel()

	cands := candidateRepoWith(awaiting(keyLaufen))
	tags := &mockTagRepo{
		LinkFunc: func(context.Context, uuid.UUID, []uuid.UUID) error { return errors.New("connection reset") },
	}
	svc := newTestService(cands, entryRepoEcho(), tags, testConfig())

	_, err := svc.Accept(context.Background(), AcceptInput{Key: keyLaufen, Tags: []string{"x"}})
	assert.ErrorContains(t, err, "connection reset")
	assert.Empty(t, cands.DeleteCalls())
}

func TestAcceptInput_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input AcceptInput
		field string
	}{
		{name: "missing lemma", input: AcceptInput{Key: domain.Key{POS: domain.PartOfSpeechNoun}}, field: "lemma"},
		{name: "difficulty high", input: AcceptInput{Key: keyLaufen, Difficulty: ptr(5)}, field: "difficulty"},
		{name: "difficulty negative", input: AcceptInput{Key: keyLaufen, Difficulty: ptr(-1)}, field: "difficulty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.input.Validate()
			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Errors[0].Field)
		})
	}

	assert.NoError(t, AcceptInput{Key: keyLaufen, Difficulty: ptr(0)}.Validate())
}

// ---------------------------------------------------------------------------
// Discard
// ---------------------------------------------------------------------------

func TestService_Discard_Twice(t *testing.T) {
	t.Parallel()

	var gone bool
	cands := &mockCandidateRepo{
		GetForUpdateFunc: func(_ context.Context, key domain.Key) (*domain.PendingCandidate, error) {
			if gone {
				return nil, domain.ErrNotFound
			}
			return awaiting(key), nil
		},
		DeleteFunc: func(context.Context, domain.Key) error {
			gone = true
			return nil
		},
	}
	svc := newTestService(cands, entryRepoEcho(), &mockTagRepo{}, testConfig())

	require.NoError(t, svc.Discard(context.Background(), keyLaufen))
	require.NoError(t, svc.Discard(context.Background(), keyLaufen))
	assert.Len(t, cands.DeleteCalls(), 1)
}

func TestService_Discard_States(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state   domain.CandidateState
		wantErr error
	}{
		{domain.CandidateStateNew, nil},
		{domain.CandidateStateAwaitingDecision, nil},
		{domain.CandidateStateTranslating, domain.ErrNotReady},
	}
	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			t.Parallel()

			cand := awaiting(keyLaufen)
			cand.State = tt.state
			cands := candidateRepoWith(cand)
			svc := newTestService(cands, entryRepoEcho(), &mockTagRepo{}, testConfig())

			err := svc.Discard(context.Background(), keyLaufen)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, cands.DeleteCalls())
				return
			}
			require.NoError(t, err)
			assert.Len(t, cands.DeleteCalls(), 1)
		})
	}
}

func TestService_Discard_InvalidKey(t *testing.T) {
	t.Parallel()

	svc := newTestService(candidateRepoWith(nil), entryRepoEcho(), &mockTagRepo{}, testConfig())
	assert.ErrorIs(t, svc.Discard(context.Background(), domain.Key{}), domain.ErrValidation)
}
