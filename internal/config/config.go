package config

import "time"

// Config is the root application configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Log         LogConfig         `yaml:"log"`
	Annotator   AnnotatorConfig   `yaml:"annotator"`
	Translation TranslationConfig `yaml:"translation"`
	Harvest     HarvestConfig     `yaml:"harvest"`
	Source      SourceConfig      `yaml:"source"`
}

// ServerConfig holds HTTP server settings for the decision-loop API.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"127.0.0.1"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"120s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	// AllowedOrigins is a comma-separated CORS allow list; empty disables CORS.
	AllowedOrigins string `yaml:"allowed_origins" env:"SERVER_ALLOWED_ORIGINS"`
	// ProcessPerMinute limits text submissions per client; 0 disables the limit.
	ProcessPerMinute int `yaml:"process_per_minute" env:"SERVER_PROCESS_PER_MINUTE" env-default:"30"`
}

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DatabaseConfig selects and configures the storage engine.
// Path is used by sqlite, DSN and the pool settings by postgres.
type DatabaseConfig struct {
	Driver          string        `yaml:"driver"             env:"DATABASE_DRIVER"             env-default:"sqlite"`
	Path            string        `yaml:"path"               env:"DATABASE_PATH"               env-default:"./vocab.db"`
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"10"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"1"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	MigrateOnStart  bool          `yaml:"migrate_on_start"   env:"DATABASE_MIGRATE_ON_START"   env-default:"true"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}

// Annotator kinds.
const (
	AnnotatorLexicon = "lexicon"
	AnnotatorSpacy   = "spacy"
)

// AnnotatorConfig selects the linguistic annotator.
type AnnotatorConfig struct {
	Kind        string        `yaml:"kind"         env:"ANNOTATOR_KIND"         env-default:"lexicon"`
	LexiconPath string        `yaml:"lexicon_path" env:"ANNOTATOR_LEXICON_PATH"`
	SpacyURL    string        `yaml:"spacy_url"    env:"ANNOTATOR_SPACY_URL"    env-default:"http://127.0.0.1:8000"`
	Timeout     time.Duration `yaml:"timeout"      env:"ANNOTATOR_TIMEOUT"      env-default:"30s"`
}

// Translation providers.
const (
	ProviderWiktionary = "wiktionary"
	ProviderStub       = "stub"
)

// TranslationConfig configures the translation source and the fetcher.
type TranslationConfig struct {
	Provider       string        `yaml:"provider"        env:"TRANSLATION_PROVIDER"        env-default:"wiktionary"`
	BaseURL        string        `yaml:"base_url"        env:"TRANSLATION_BASE_URL"        env-default:"https://en.wiktionary.org/w/api.php"`
	UserAgent      string        `yaml:"user_agent"      env:"TRANSLATION_USER_AGENT"      env-default:"vocab-harvester/1.0"`
	Timeout        time.Duration `yaml:"timeout"         env:"TRANSLATION_TIMEOUT"         env-default:"10s"`
	Concurrency    int           `yaml:"concurrency"     env:"TRANSLATION_CONCURRENCY"     env-default:"4"`
	MaxAttempts    int           `yaml:"max_attempts"    env:"TRANSLATION_MAX_ATTEMPTS"    env-default:"3"`
	InitialBackoff time.Duration `yaml:"initial_backoff" env:"TRANSLATION_INITIAL_BACKOFF" env-default:"1s"`
	MaxBackoff     time.Duration `yaml:"max_backoff"     env:"TRANSLATION_MAX_BACKOFF"     env-default:"8s"`
}

// HarvestConfig holds intake and promotion settings.
type HarvestConfig struct {
	IrregularVerbsPath string `yaml:"irregular_verbs_path" env:"HARVEST_IRREGULAR_VERBS_PATH"`
	AutoPOSTags        bool   `yaml:"auto_pos_tags"        env:"HARVEST_AUTO_POS_TAGS"        env-default:"false"`
	DefaultDifficulty  int    `yaml:"default_difficulty"   env:"HARVEST_DEFAULT_DIFFICULTY"   env-default:"3"`
}

// SourceConfig configures URL article intake.
type SourceConfig struct {
	FetchTimeout time.Duration `yaml:"fetch_timeout" env:"SOURCE_FETCH_TIMEOUT" env-default:"20s"`
	UserAgent    string        `yaml:"user_agent"    env:"SOURCE_USER_AGENT"    env-default:"Mozilla/5.0 (compatible; vocab-harvester/1.0)"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" env:"SOURCE_MAX_BODY_BYTES" env-default:"5242880"`
}
