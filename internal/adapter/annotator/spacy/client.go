// Package spacy annotates text through a spaCy model served over HTTP.
package spacy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/heartmarshall/vocab-harvester/internal/config"
	"github.com/heartmarshall/vocab-harvester/internal/domain"
)

const maxResponseBytes = 32 << 20

type annotateRequest struct {
	Text string `json:"text"`
}

type annotateResponse struct {
	Tokens []apiToken `json:"tokens"`
}

type apiToken struct {
	Text    string `json:"text"`
	Lemma   string `json:"lemma"`
	POS     string `json:"pos"`
	IsAlpha bool   `json:"is_alpha"`
	Morph   struct {
		Gender []string `json:"Gender"`
	} `json:"morph"`
}

// Client calls POST {url}/annotate.
type Client struct {
	endpoint   string
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(logger *slog.Logger, cfg config.AnnotatorConfig) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.SpacyURL), "/")
	if base == "" {
		return nil, errors.New("spacy: url is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint:   base + "/annotate",
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.With("adapter", "spacy"),
	}, nil
}

// Annotate sends text to the service and maps its tokens. A token is
// meaningful when it is alphabetic and not punctuation, whitespace, a
// number or a symbol.
func (c *Client) Annotate(ctx context.Context, text string) ([]domain.Token, error) {
	body, err := json.Marshal(annotateRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("spacy: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("spacy: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("spacy: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("spacy: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var decoded annotateResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("spacy: decode response: %w", err)
	}

	tokens := make([]domain.Token, 0, len(decoded.Tokens))
	for _, t := range decoded.Tokens {
		tokens = append(tokens, toToken(t))
	}

	c.log.DebugContext(ctx, "text annotated",
		slog.Int("tokens", len(tokens)),
		slog.Duration("duration", time.Since(start)),
	)
	return tokens, nil
}

func toToken(t apiToken) domain.Token {
	raw := strings.ToUpper(strings.TrimSpace(t.POS))
	pos := domain.ParsePartOfSpeech(raw)

	meaningful := t.IsAlpha
	switch raw {
	case "PUNCT", "SPACE", "NUM", "SYM":
		meaningful = false
	}

	lemma := t.Lemma
	if strings.TrimSpace(lemma) == "" {
		lemma = t.Text
	}
	return domain.Token{
		Surface:    t.Text,
		Lemma:      lemma,
		POS:        pos,
		Meaningful: meaningful,
		Gender:     domain.ParseGender(t.Morph.Gender...),
	}
}
