package filter

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/vocab-harvester/internal/domain"
)

// ===========================================================================
// Manual mocks (moq-style with func fields)
// ===========================================================================

type mockKeyLocator struct {
	LocateFunc func(ctx context.Context, keys []domain.Key) (map[domain.Key]domain.KeyLocation, error)
	calls      [][]domain.Key
}

func (m *mockKeyLocator) Locate(ctx context.Context, keys []domain.Key) (map[domain.Key]domain.KeyLocation, error) {
	m.calls = append(m.calls, keys)
	if m.LocateFunc != nil {
		return m.LocateFunc(ctx, keys)
	}
	out := make(map[domain.Key]domain.KeyLocation, len(keys))
	for _, k := range keys {
		out[k] = domain.KeyLocationNone
	}
	return out, nil
}

func (m *mockKeyLocator) LocateCalls() [][]domain.Key { return m.calls }

func newTestService(keys keyLocator) *Service {
	return NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), keys)
}

func word(surface, lemma string, pos domain.PartOfSpeech) domain.Token {
	return domain.Token{Surface: surface, Lemma: lemma, POS: pos, Meaningful: true}
}

func punct(s string) domain.Token {
	return domain.Token{Surface: s, Lemma: s, POS: domain.PartOfSpeechPunctuation}
}

func fixedLocations(m map[domain.Key]domain.KeyLocation) func(context.Context, []domain.Key) (map[domain.Key]domain.KeyLocation, error) {
	return func(_ context.Context, keys []domain.Key) (map[domain.Key]domain.KeyLocation, error) {
		out := make(map[domain.Key]domain.KeyLocation, len(keys))
		for _, k := range keys {
			loc, ok := m[k]
			if !ok {
				loc = domain.KeyLocationNone
			}
			out[k] = loc
		}
		return out, nil
	}
}

// ---------------------------------------------------------------------------
// Filter
// ---------------------------------------------------------------------------

func TestService_Filter_SameLemmaDifferentPOS(t *testing.T) {
	t.Parallel()

	svc := newTestService(&mockKeyLocator{})
	tokens := []domain.Token{
		word("Laufen", "laufen", domain.PartOfSpeechNoun),
		word("läuft", "laufen", domain.PartOfSpeechVerb),
		punct(","),
		word("lief", "laufen", domain.PartOfSpeechVerb),
	}

	res, err := svc.Filter(context.Background(), tokens)
	require.NoError(t, err)

	require.Len(t, res.New, 2)
	assert.Equal(t, domain.NewKey("laufen", domain.PartOfSpeechNoun), res.New[0].Key())
	assert.Equal(t, domain.NewKey("laufen", domain.PartOfSpeechVerb), res.New[1].Key())
	assert.Equal(t, "läuft", res.New[1].Surface, "first occurrence wins")
	assert.Equal(t, 3, res.TokensSeen)
}

func TestService_Filter_KnownWordReported(t *testing.T) {
	t.Parallel()

	haus := domain.NewKey("Haus", domain.PartOfSpeechNoun)
	svc := newTestService(&mockKeyLocator{LocateFunc: fixedLocations(map[domain.Key]domain.KeyLocation{
		haus: domain.KeyLocationVocabulary,
	})})

	res, err := svc.Filter(context.Background(), []domain.Token{
		word("Das", "der", domain.PartOfSpeechDeterminer),
		word("Haus", "Haus", domain.PartOfSpeechNoun),
	})
	require.NoError(t, err)

	assert.Equal(t, []domain.Key{haus}, res.Known)
	require.Len(t, res.New, 1)
	assert.Equal(t, "der", res.New[0].Key().Lemma)
	assert.Empty(t, res.Repeats)
}

func TestService_Filter_PendingBecomesRepeat(t *testing.T) {
	t.Parallel()

	gehen := domain.NewKey("gehen", domain.PartOfSpeechVerb)
	svc := newTestService(&mockKeyLocator{LocateFunc: fixedLocations(map[domain.Key]domain.KeyLocation{
		gehen: domain.KeyLocationPending,
	})})

	res, err := svc.Filter(context.Background(), []domain.Token{
		word("ging", "gehen", domain.PartOfSpeechVerb),
		word("geht", "gehen", domain.PartOfSpeechVerb),
	})
	require.NoError(t, err)

	require.Len(t, res.Repeats, 1)
	assert.Equal(t, "ging", res.Repeats[0].Surface)
	assert.Empty(t, res.New)
	assert.Empty(t, res.Known)
}

func TestService_Filter_PreservesFirstOccurrenceOrder(t *testing.T) {
	t.Parallel()

	svc := newTestService(&mockKeyLocator{})
	res, err := svc.Filter(context.Background(), []domain.Token{
		word("Zug", "Zug", domain.PartOfSpeechNoun),
		word("Apfel", "Apfel", domain.PartOfSpeechNoun),
		word("Zug", "Zug", domain.PartOfSpeechNoun),
		word("Mond", "Mond", domain.PartOfSpeechNoun),
	})
	require.NoError(t, err)

	var lemmas []string
	for _, tok := range res.New {
		lemmas = append(lemmas, tok.Key().Lemma)
	}
	assert.Equal(t, []string{"zug", "apfel", "mond"}, lemmas)
}

func TestService_Filter_OnlyNonMeaningful(t *testing.T) {
	t.Parallel()

	mock := &mockKeyLocator{}
	svc := newTestService(mock)

	res, err := svc.Filter(context.Background(), []domain.Token{punct("."), punct("!"), {Surface: "42", Lemma: "42", POS: domain.PartOfSpeechNumeral}})
	require.NoError(t, err)

	assert.Empty(t, res.New)
	assert.Zero(t, res.TokensSeen)
	assert.Empty(t, mock.LocateCalls(), "no store lookup without candidates")
}

func TestService_Filter_SingleLookupForDistinctKeys(t *testing.T) {
	t.Parallel()

	mock := &mockKeyLocator{}
	svc := newTestService(mock)

	_, err := svc.Filter(context.Background(), []domain.Token{
		word("a", "a", domain.PartOfSpeechNoun),
		word("a", "a", domain.PartOfSpeechNoun),
		word("b", "b", domain.PartOfSpeechNoun),
	})
	require.NoError(t, err)

	require.Len(t, mock.LocateCalls(), 1)
	assert.Len(t, mock.LocateCalls()[0], 2)
}

func TestService_Filter_StoreError(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk I/O error")
	svc := newTestService(&mockKeyLocator{LocateFunc: func(context.Context, []domain.Key) (map[domain.Key]domain.KeyLocation, error) {
		return nil, boom
	}})

	_, err := svc.Filter(context.Background(), []domain.Token{word("a", "a", domain.PartOfSpeechNoun)})
	require.ErrorIs(t, err, boom)
}
