// Package web extracts the readable article text of a web page.
package web

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"

	"github.com/heartmarshall/vocab-harvester/internal/config"
)

const defaultMaxBodyBytes = 10 << 20

// Extractor downloads HTML pages and runs readability over them.
type Extractor struct {
	httpClient   *http.Client
	userAgent    string
	maxBodyBytes int64
	log          *slog.Logger
}

// NewExtractor creates an Extractor from the source config.
func NewExtractor(logger *slog.Logger, cfg config.SourceConfig) *Extractor {
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	limit := cfg.MaxBodyBytes
	if limit <= 0 {
		limit = defaultMaxBodyBytes
	}
	return &Extractor{
		httpClient:   &http.Client{Timeout: timeout},
		userAgent:    cfg.UserAgent,
		maxBodyBytes: limit,
		log:          logger.With("adapter", "web"),
	}
}

// Extract returns the title and main text of the page at rawURL, separated
// by a blank line.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (string, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("web: parse url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL.String(), nil)
	if err != nil {
		return "", fmt.Errorf("web: create request: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "de,en;q=0.5")
	if e.userAgent != "" {
		req.Header.Set("User-Agent", e.userAgent)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("web: fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("web: unexpected status %d", resp.StatusCode)
	}
	if resp.ContentLength > e.maxBodyBytes {
		return "", fmt.Errorf("web: content length %d exceeds limit of %d bytes", resp.ContentLength, e.maxBodyBytes)
	}

	// One extra byte tells a truncated body from one exactly at the limit.
	body, err := io.ReadAll(io.LimitReader(resp.Body, e.maxBodyBytes+1))
	if err != nil {
		return "", fmt.Errorf("web: read body: %w", err)
	}
	if int64(len(body)) > e.maxBodyBytes {
		return "", fmt.Errorf("web: body exceeds limit of %d bytes", e.maxBodyBytes)
	}

	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return "", fmt.Errorf("web: extract article: %w", err)
	}

	text := strings.TrimSpace(article.TextContent)
	if title := strings.TrimSpace(article.Title); title != "" && !strings.HasPrefix(text, title) {
		text = title + "\n\n" + text
	}

	e.log.InfoContext(ctx, "article extracted",
		slog.String("url", pageURL.String()),
		slog.String("title", article.Title),
		slog.Int("chars", len(text)),
	)
	return text, nil
}
