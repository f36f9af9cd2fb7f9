// Package wiktionary resolves German lemmas to English glosses using the
// English Wiktionary's MediaWiki API.
package wiktionary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/heartmarshall/vocab-harvester/internal/config"
	"github.com/heartmarshall/vocab-harvester/internal/domain"
)

const (
	defaultBaseURL = "https://en.wiktionary.org/w/api.php"
	maxBodyBytes   = 4 << 20
)

// Provider fetches page wikitext and extracts the German section's glosses.
type Provider struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	log        *slog.Logger
}

// NewProvider creates a Provider from the translation config. An empty
// BaseURL uses the public English Wiktionary.
func NewProvider(logger *slog.Logger, cfg config.TranslationConfig) *Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Provider{
		baseURL:    baseURL,
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.With("adapter", "wiktionary"),
	}
}

// Translate returns the best English gloss for lemma. Failures are reported
// as domain.ErrTranslationTimeout (also for 5xx and 429 responses),
// domain.ErrNetworkUnavailable or domain.ErrNoTranslationFound.
func (p *Provider) Translate(ctx context.Context, lemma string, pos domain.PartOfSpeech) (string, error) {
	title := pageTitle(lemma, pos)

	q := url.Values{
		"action":        {"query"},
		"format":        {"json"},
		"formatversion": {"2"},
		"prop":          {"revisions"},
		"rvprop":        {"content"},
		"rvslots":       {"main"},
		"redirects":     {"1"},
		"titles":        {title},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("wiktionary: create request: %w", err)
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	p.log.DebugContext(ctx, "wiktionary request", slog.String("title", title), slog.String("pos", string(pos)))

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("wiktionary: %w", classify(ctx, err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return "", fmt.Errorf("wiktionary: status %d: %w", resp.StatusCode, domain.ErrTranslationTimeout)
	case resp.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("wiktionary: %q: %w", title, domain.ErrNoTranslationFound)
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("wiktionary: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("wiktionary: read body: %w", classify(ctx, err))
	}

	var data apiResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return "", fmt.Errorf("wiktionary: decode json: %w", err)
	}

	content, ok := pageContent(data)
	if !ok {
		return "", fmt.Errorf("wiktionary: %q: %w", title, domain.ErrNoTranslationFound)
	}

	glosses := extract(content, pos)
	p.log.DebugContext(ctx, "wiktionary response",
		slog.String("title", title),
		slog.Int("glosses", len(glosses)),
	)
	if len(glosses) == 0 {
		return "", fmt.Errorf("wiktionary: %q: %w", title, domain.ErrNoTranslationFound)
	}
	return glosses[0], nil
}

// IsReachable sends a HEAD request to the API endpoint. Any HTTP response
// counts as reachable.
func (p *Provider) IsReachable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.baseURL, nil)
	if err != nil {
		return false
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.log.WarnContext(ctx, "wiktionary unreachable", slog.String("error", err.Error()))
		return false
	}
	resp.Body.Close()
	return true
}

// classify maps a transport error onto the fetch error kinds. A done
// caller context is returned as is so cancellation stays distinguishable.
func classify(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%w: %v", domain.ErrTranslationTimeout, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrNetworkUnavailable, err)
}

// pageTitle builds the wiki page title. Wiktionary titles are case
// sensitive and German nouns are capitalized.
func pageTitle(lemma string, pos domain.PartOfSpeech) string {
	if pos == domain.PartOfSpeechNoun || pos == domain.PartOfSpeechProperNoun {
		return cases.Title(language.German, cases.NoLower).String(lemma)
	}
	return lemma
}

func pageContent(data apiResponse) (string, bool) {
	for _, page := range data.Query.Pages {
		if page.Missing || page.Invalid || len(page.Revisions) == 0 {
			continue
		}
		if c := page.Revisions[0].Slots.Main.Content; c != "" {
			return c, true
		}
	}
	return "", false
}
