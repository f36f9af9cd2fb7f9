//go:build e2e

package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/vocab-harvester/internal/app"
	"github.com/heartmarshall/vocab-harvester/internal/config"
)

// ---------------------------------------------------------------------------
// Fake Wiktionary
// ---------------------------------------------------------------------------

// fakeWiktionary serves the MediaWiki query API for a fixed set of pages.
// Titles listed in failing answer 503 until healed.
type fakeWiktionary struct {
	*httptest.Server

	mu      sync.Mutex
	pages   map[string]string
	failing map[string]bool
	calls   map[string]int
}

func newFakeWiktionary(t *testing.T) *fakeWiktionary {
	t.Helper()
	f := &fakeWiktionary{
		pages: map[string]string{
			"Hund":   "==German==\n===Etymology===\nFrom Middle High German.\n===Noun===\n{{de-noun|m}}\n# [[dog]]\n# [[hound]]\n",
			"Katze":  "==German==\n===Noun===\n{{de-noun|f}}\n# [[cat]]\n",
			"laufen": "==German==\n===Verb===\n{{de-verb}}\n# to [[run]]\n# to [[walk]]\n",
			"sehen":  "==German==\n===Verb===\n# to [[see]]\n",
		},
		failing: make(map[string]bool),
		calls:   make(map[string]int),
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeWiktionary) serve(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	title := r.URL.Query().Get("titles")

	f.mu.Lock()
	f.calls[title]++
	content, ok := f.pages[title]
	failing := f.failing[title]
	f.mu.Unlock()

	if failing {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	page := map[string]any{"title": title}
	if ok {
		page["revisions"] = []any{map[string]any{
			"slots": map[string]any{"main": map[string]any{"content": content}},
		}}
	} else {
		page["missing"] = true
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"query": map[string]any{"pages": []any{page}},
	})
}

func (f *fakeWiktionary) fail(title string, on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing[title] = on
}

func (f *fakeWiktionary) callCount(title string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[title]
}

// ---------------------------------------------------------------------------
// Test server
// ---------------------------------------------------------------------------

type testServer struct {
	URL    string
	Client *http.Client
	App    *app.App
	Wiki   *fakeWiktionary
}

// testLogWriter adapts testing.T to io.Writer for slog.
type testLogWriter struct{ t *testing.T }

func (w testLogWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

func testConfig(t *testing.T, wikiURL string) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            8080,
			ShutdownTimeout: time.Second,
		},
		Database: config.DatabaseConfig{
			Driver:         config.DriverSQLite,
			Path:           filepath.Join(t.TempDir(), "vocab.db"),
			MigrateOnStart: true,
		},
		Log:       config.LogConfig{Level: "warn", Format: "text"},
		Annotator: config.AnnotatorConfig{Kind: config.AnnotatorLexicon},
		Translation: config.TranslationConfig{
			Provider:       config.ProviderWiktionary,
			BaseURL:        wikiURL,
			UserAgent:      "vocab-harvester-e2e",
			Timeout:        2 * time.Second,
			Concurrency:    2,
			MaxAttempts:    2,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     2 * time.Millisecond,
		},
		Harvest: config.HarvestConfig{DefaultDifficulty: 3},
		Source: config.SourceConfig{
			FetchTimeout: 2 * time.Second,
			UserAgent:    "vocab-harvester-e2e",
			MaxBodyBytes: 1 << 20,
		},
	}
}

// setupTestServer wires the application the way `harvester serve` does,
// on a temp sqlite database and a fake Wiktionary.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	wiki := newFakeWiktionary(t)
	cfg := testConfig(t, wiki.URL)
	logger := app.NewLogger(cfg.Log, testLogWriter{t})

	a, err := app.Build(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	handler, stop := a.Handler()
	t.Cleanup(stop)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{
		URL:    srv.URL,
		Client: srv.Client(),
		App:    a,
		Wiki:   wiki,
	}
}

// ---------------------------------------------------------------------------
// Request helpers
// ---------------------------------------------------------------------------

// do sends body as JSON (when non-nil) and returns the status and raw body.
func (ts *testServer) do(t *testing.T, method, path string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := ts.Client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

// doJSON is do followed by decoding the response into T.
func doJSON[T any](t *testing.T, ts *testServer, method, path string, body any, wantStatus int) T {
	t.Helper()
	status, raw := ts.do(t, method, path, body)
	require.Equal(t, wantStatus, status, "body: %s", raw)

	var out T
	require.NoError(t, json.Unmarshal(raw, &out), "body: %s", raw)
	return out
}

// ---------------------------------------------------------------------------
// Response shapes
// ---------------------------------------------------------------------------

type keyJSON struct {
	Lemma string `json:"lemma"`
	POS   string `json:"pos"`
}

type failureJSON struct {
	Lemma string `json:"lemma"`
	POS   string `json:"pos"`
	Kind  string `json:"kind"`
}

type summaryJSON struct {
	BatchID            string        `json:"batchId"`
	TokensSeen         int           `json:"tokensSeen"`
	New                []keyJSON     `json:"new"`
	Known              []keyJSON     `json:"known"`
	Refreshed          []keyJSON     `json:"refreshed"`
	Translated         []keyJSON     `json:"translated"`
	Failures           []failureJSON `json:"failures"`
	Skipped            []keyJSON     `json:"skipped"`
	NetworkUnavailable bool          `json:"networkUnavailable"`
	Cancelled          bool          `json:"cancelled"`
}

type candidateJSON struct {
	Lemma       string   `json:"lemma"`
	POS         string   `json:"pos"`
	Surface     string   `json:"surface"`
	Translation *string  `json:"translation"`
	Article     *string  `json:"article"`
	IsRegular   bool     `json:"isRegular"`
	Tags        []string `json:"tags"`
	State       string   `json:"state"`
	BatchID     string   `json:"batchId"`
}

type entryJSON struct {
	ID          string   `json:"id"`
	Lemma       string   `json:"lemma"`
	POS         string   `json:"pos"`
	Translation *string  `json:"translation"`
	Article     *string  `json:"article"`
	IsRegular   bool     `json:"isRegular"`
	Difficulty  int      `json:"difficulty"`
	Tags        []string `json:"tags"`
}

type acceptJSON struct {
	Outcome string     `json:"outcome"`
	Entry   *entryJSON `json:"entry"`
}

type errorJSON struct {
	Error  string `json:"error"`
	Fields []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"fields"`
}

func candidateByLemma(list []candidateJSON, lemma string) *candidateJSON {
	for i := range list {
		if list[i].Lemma == lemma {
			return &list[i]
		}
	}
	return nil
}

func lemmas(keys []keyJSON) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.Lemma
	}
	return out
}
