package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Host  string `envconfig:"HOST" default:"0.0.0.0"`
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	OpenAIAPIKey        string `envconfig:"OPENAI_API_KEY"`
	EmbeddingBaseURL    string `envconfig:"EMBEDDING_BASE_URL"`
	EmbeddingModel      string `envconfig:"EMBEDDING_MODEL"`
	EmbeddingDimensions int    `envconfig:"EMBEDDING_DIMENSIONS" default:"1536"`

	IndexBatchSize int `envconfig:"INDEX_BATCH_SIZE" default:"50"`
	IndexWorkers   int `envconfig:"INDEX_WORKERS" default:"8"`

	// Watch mode: when WatchPath is set, the server re-indexes it on an
	// interval using git change detection.
	WatchPath     string        `envconfig:"WATCH_PATH"`
	WatchInterval time.Duration `envconfig:"WATCH_INTERVAL" default:"5m"`

	SentryDSN         string  `envconfig:"SENTRY_DSN"`
	SentryEnvironment string  `envconfig:"SENTRY_ENVIRONMENT" default:"development"`
	SentrySampleRate  float64 `envconfig:"SENTRY_SAMPLE_RATE" default:"1.0"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("CODELENS", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	// envconfig's required tag only fires on absent keys; an exported but
	// empty value must be rejected too.
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("CODELENS_DATABASE_URL must not be empty")
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasWatch() bool {
	return c.WatchPath != ""
}

func (c *Config) ListenAddr() string {
	return c.Host + ":" + c.Port
}
