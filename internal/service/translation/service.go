// Package translation resolves (lemma, POS) keys to translation text through
// an external source, with bounded concurrency and retry on timeouts.
package translation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/heartmarshall/vocab-harvester/internal/config"
	"github.com/heartmarshall/vocab-harvester/internal/domain"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

// source reports failures as domain.ErrNetworkUnavailable,
// domain.ErrTranslationTimeout or domain.ErrNoTranslationFound.
type source interface {
	Translate(ctx context.Context, lemma string, pos domain.PartOfSpeech) (string, error)
	IsReachable(ctx context.Context) bool
}

// Fetcher wraps a translation source.
type Fetcher struct {
	src source
	cfg config.TranslationConfig
	log *slog.Logger
}

// NewFetcher creates a Fetcher. Zero limits in cfg fall back to one worker
// and one attempt.
func NewFetcher(log *slog.Logger, src source, cfg config.TranslationConfig) *Fetcher {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &Fetcher{
		src: src,
		cfg: cfg,
		log: log.With("service", "translation"),
	}
}

// IsReachable probes the source once.
func (f *Fetcher) IsReachable(ctx context.Context) bool {
	return f.src.IsReachable(ctx)
}

// Fetch returns the best translation for key. Timeouts are retried with
// exponential backoff up to MaxAttempts in total; every other failure is
// returned at once.
func (f *Fetcher) Fetch(ctx context.Context, key domain.Key) (string, error) {
	var text string
	attempt := 0

	op := func() error {
		attempt++
		t, err := f.src.Translate(ctx, key.Lemma, key.POS)
		switch {
		case err == nil:
			text = t
			return nil
		case errors.Is(err, domain.ErrTranslationTimeout):
			return err
		default:
			return backoff.Permanent(err)
		}
	}

	notify := func(err error, wait time.Duration) {
		f.log.DebugContext(ctx, "translation retry",
			slog.String("key", key.String()),
			slog.Int("attempt", attempt),
			slog.Duration("wait", wait),
			slog.String("error", err.Error()),
		)
	}

	if err := backoff.RetryNotify(op, f.policy(ctx), notify); err != nil {
		return "", fmt.Errorf("translate %s: %w", key, err)
	}
	if text == "" {
		return "", fmt.Errorf("translate %s: %w", key, domain.ErrNoTranslationFound)
	}
	return text, nil
}

func (f *Fetcher) policy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.cfg.InitialBackoff
	b.MaxInterval = f.cfg.MaxBackoff
	b.MaxElapsedTime = 0 // bounded by attempts, not wall time
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(f.cfg.MaxAttempts-1)), ctx)
}
