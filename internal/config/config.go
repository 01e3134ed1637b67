package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr          string        `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel          string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat         string        `env:"LOG_FORMAT" envDefault:"json"`
	ReferenceDataPath string        `env:"REFERENCE_DATA_PATH"`
	ShutdownTimeout   time.Duration `env:"-"`

	// Per-IP request limit on the HTTP API.
	RateLimitRequests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"100"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`

	// Remote narrative generation. OpenAIEnabled defaults to true when a key is set.
	OpenAIKey           string        `env:"OPENAI_API_KEY"`
	OpenAIEnabled       bool          `env:"-"`
	OpenAIBaseURL       string        `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1/"`
	OpenAIModel         string        `env:"OPENAI_MODEL" envDefault:"gpt-4.1-nano"`
	NarrativeTimeout    time.Duration `env:"NARRATIVE_TIMEOUT" envDefault:"10s"`
	NarrativeRetryMax   int           `env:"NARRATIVE_RETRY_MAX" envDefault:"2"`
	NarrativeRateLimit  float64       `env:"NARRATIVE_RATE_LIMIT" envDefault:"5"`
	NarrativeCacheSize  int           `env:"NARRATIVE_CACHE_SIZE" envDefault:"500"`
	NarrativeCacheTTL   time.Duration `env:"NARRATIVE_CACHE_TTL" envDefault:"24h"`

	// Narratives are cached in Redis instead of memory when RedisAddr is set.
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	KafkaEnabled        bool          `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers        []string      `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaTopic          string        `env:"KAFKA_TOPIC" envDefault:"flood-assessments"`
	KafkaPublishTimeout time.Duration `env:"KAFKA_PUBLISH_TIMEOUT" envDefault:"5s"`
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.ShutdownTimeout = shutdownTimeout

	cfg.OpenAIEnabled = cfg.OpenAIKey != ""
	if v := os.Getenv("OPENAI_ENABLED"); v != "" {
		cfg.OpenAIEnabled = v == "true"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPAddr == "" {
		return errors.New("HTTP_ADDR is required")
	}
	if c.RateLimitRequests <= 0 {
		return errors.New("invalid RATE_LIMIT_REQUESTS")
	}
	if c.RateLimitWindow <= 0 {
		return errors.New("invalid RATE_LIMIT_WINDOW")
	}
	if c.OpenAIEnabled && c.OpenAIKey == "" {
		return errors.New("OPENAI_ENABLED is true but OPENAI_API_KEY is not set")
	}
	if c.NarrativeTimeout <= 0 {
		return errors.New("invalid NARRATIVE_TIMEOUT")
	}
	if c.NarrativeRetryMax < 0 {
		return errors.New("invalid NARRATIVE_RETRY_MAX")
	}
	if c.NarrativeRateLimit <= 0 {
		return errors.New("invalid NARRATIVE_RATE_LIMIT")
	}
	if c.NarrativeCacheSize <= 0 {
		return errors.New("invalid NARRATIVE_CACHE_SIZE")
	}
	if c.NarrativeCacheTTL <= 0 {
		return errors.New("invalid NARRATIVE_CACHE_TTL")
	}
	if c.KafkaEnabled {
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if c.KafkaTopic == "" {
			return errors.New("KAFKA_TOPIC is required when KAFKA_ENABLED is true")
		}
		if c.KafkaPublishTimeout <= 0 {
			return errors.New("invalid KAFKA_PUBLISH_TIMEOUT")
		}
	}
	return nil
}

// NarrativeAttemptTimeout splits NarrativeTimeout across the first attempt
// and every retry, so retries fit inside the overall narrative deadline.
func (c *Config) NarrativeAttemptTimeout() time.Duration {
	return c.NarrativeTimeout / time.Duration(c.NarrativeRetryMax+1)
}
