package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if err := c.Database.validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Annotator.validate(); err != nil {
		return fmt.Errorf("annotator: %w", err)
	}
	if err := c.Translation.validate(); err != nil {
		return fmt.Errorf("translation: %w", err)
	}
	if c.Harvest.DefaultDifficulty < 0 || c.Harvest.DefaultDifficulty > 4 {
		return fmt.Errorf("harvest: default_difficulty must be between 0 and 4 (got %d)", c.Harvest.DefaultDifficulty)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server: port must be in 1..65535 (got %d)", c.Server.Port)
	}
	return nil
}

func (d *DatabaseConfig) validate() error {
	d.Driver = strings.ToLower(strings.TrimSpace(d.Driver))
	switch d.Driver {
	case DriverSQLite:
		if strings.TrimSpace(d.Path) == "" {
			return fmt.Errorf("path is required for the sqlite driver")
		}
	case DriverPostgres:
		if strings.TrimSpace(d.DSN) == "" {
			return fmt.Errorf("dsn is required for the postgres driver")
		}
		if d.MinConns > d.MaxConns {
			return fmt.Errorf("min_conns (%d) must not exceed max_conns (%d)", d.MinConns, d.MaxConns)
		}
	default:
		return fmt.Errorf("unknown driver %q (want %s or %s)", d.Driver, DriverSQLite, DriverPostgres)
	}
	return nil
}

func (a *AnnotatorConfig) validate() error {
	a.Kind = strings.ToLower(strings.TrimSpace(a.Kind))
	switch a.Kind {
	case AnnotatorLexicon:
	case AnnotatorSpacy:
		if _, err := url.ParseRequestURI(a.SpacyURL); err != nil {
			return fmt.Errorf("spacy_url: %w", err)
		}
	default:
		return fmt.Errorf("unknown kind %q (want %s or %s)", a.Kind, AnnotatorLexicon, AnnotatorSpacy)
	}
	return nil
}

func (t *TranslationConfig) validate() error {
	t.Provider = strings.ToLower(strings.TrimSpace(t.Provider))
	switch t.Provider {
	case ProviderStub:
	case ProviderWiktionary:
		if _, err := url.ParseRequestURI(t.BaseURL); err != nil {
			return fmt.Errorf("base_url: %w", err)
		}
	default:
		return fmt.Errorf("unknown provider %q (want %s or %s)", t.Provider, ProviderWiktionary, ProviderStub)
	}
	if t.Concurrency < 1 {
		return fmt.Errorf("concurrency must be >= 1 (got %d)", t.Concurrency)
	}
	if t.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be >= 1 (got %d)", t.MaxAttempts)
	}
	if t.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0 (got %v)", t.Timeout)
	}
	if t.MaxBackoff < t.InitialBackoff {
		return fmt.Errorf("max_backoff (%v) must be >= initial_backoff (%v)", t.MaxBackoff, t.InitialBackoff)
	}
	return nil
}
