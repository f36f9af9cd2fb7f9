package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/vocab-harvester/internal/config"
	"github.com/heartmarshall/vocab-harvester/internal/domain"
	"github.com/heartmarshall/vocab-harvester/internal/service/harvest"
	"github.com/heartmarshall/vocab-harvester/internal/service/promotion"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Database: config.DatabaseConfig{
			Driver:         config.DriverSQLite,
			Path:           filepath.Join(t.TempDir(), "vocab.db"),
			MigrateOnStart: true,
		},
		Log:       config.LogConfig{Level: "error", Format: "text"},
		Annotator: config.AnnotatorConfig{Kind: config.AnnotatorLexicon},
		Translation: config.TranslationConfig{
			Provider:    config.ProviderStub,
			Concurrency: 2,
			MaxAttempts: 1,
		},
		Harvest: config.HarvestConfig{DefaultDifficulty: 3},
		Server:  config.ServerConfig{Port: 8080, ProcessPerMinute: 0},
	}
	return cfg
}

func buildTestApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	logger := NewLogger(cfg.Log, &bytes.Buffer{})
	a, err := Build(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func TestBuild_SQLiteRoundTrip(t *testing.T) {
	a := buildTestApp(t, testConfig(t))
	ctx := context.Background()

	summary, err := a.Harvest.ProcessText(ctx, harvest.ProcessInput{Text: "Der Hund läuft."})
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.Key{
		domain.NewKey("der", domain.PartOfSpeechDeterminer),
		domain.NewKey("hund", domain.PartOfSpeechNoun),
		domain.NewKey("laufen", domain.PartOfSpeechVerb),
	}, summary.New)
	assert.Len(t, summary.Failures, 3, "the stub source finds no translations")

	key := domain.NewKey("hund", domain.PartOfSpeechNoun)
	pending, err := a.Harvest.GetPending(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, domain.CandidateStateAwaitingDecision, pending.State)
	require.NotNil(t, pending.Article)
	assert.Equal(t, "der", *pending.Article)

	res, err := a.Promotion.Accept(ctx, promotion.AcceptInput{Key: key, Tags: []string{"animals"}})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeAccepted, res.Outcome)

	again, err := a.Harvest.ProcessText(ctx, harvest.ProcessInput{Text: "Der Hund"})
	require.NoError(t, err)
	assert.Contains(t, again.Known, key)

	stats, err := a.Vocabulary.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Vocabulary)
	assert.Equal(t, 2, stats.PendingTotal)
	assert.Equal(t, 1, stats.Tags)
}

func TestBuild_UnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Driver = "mysql"

	_, err := Build(context.Background(), cfg, NewLogger(cfg.Log, &bytes.Buffer{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mysql")
}

func TestBuild_MissingLexiconFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Annotator.LexiconPath = filepath.Join(t.TempDir(), "missing.tsv")

	_, err := Build(context.Background(), cfg, NewLogger(cfg.Log, &bytes.Buffer{}))
	require.Error(t, err)
}

func TestMigrate_Idempotent(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	n, err := Migrate(ctx, cfg.Database)
	require.NoError(t, err)
	assert.Positive(t, n)

	n, err = Migrate(ctx, cfg.Database)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestHandler_ServesAPI(t *testing.T) {
	a := buildTestApp(t, testConfig(t))
	handler, stop := a.Handler()
	defer stop()

	srv := httptest.NewServer(handler)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/process", "application/json", strings.NewReader(`{"text":"Das Haus"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/pending/haus/NOUN/accept", strings.NewReader(`{"translation":"house"}`))
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	var accepted struct {
		Outcome string `json:"outcome"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&accepted))
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "ACCEPTED", accepted.Outcome)

	resp, err = http.Get(srv.URL + "/health")
	require.NoError(t, err)
	var health struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	resp.Body.Close()
	assert.Equal(t, "ok", health.Status)
}
