package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOpenAIKey = "sk-test-key"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Empty(t, cfg.ReferenceDataPath)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 100, cfg.RateLimitRequests)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.False(t, cfg.OpenAIEnabled)
	assert.Empty(t, cfg.OpenAIKey)
	assert.Equal(t, "gpt-4.1-nano", cfg.OpenAIModel)
	assert.Equal(t, 10*time.Second, cfg.NarrativeTimeout)
	assert.Equal(t, 2, cfg.NarrativeRetryMax)
	assert.Equal(t, 5.0, cfg.NarrativeRateLimit)
	assert.Equal(t, 500, cfg.NarrativeCacheSize)
	assert.Equal(t, 24*time.Hour, cfg.NarrativeCacheTTL)
	assert.Empty(t, cfg.RedisAddr)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "flood-assessments", cfg.KafkaTopic)
	assert.Equal(t, 5*time.Second, cfg.KafkaPublishTimeout)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("REFERENCE_DATA_PATH", "/etc/flood/reference.yaml")
	t.Setenv("RATE_LIMIT_REQUESTS", "20")
	t.Setenv("RATE_LIMIT_WINDOW", "10s")
	t.Setenv("OPENAI_API_KEY", testOpenAIKey)
	t.Setenv("OPENAI_MODEL", "gpt-4o-mini")
	t.Setenv("NARRATIVE_TIMEOUT", "3s")
	t.Setenv("NARRATIVE_CACHE_SIZE", "50")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "assessments")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "/etc/flood/reference.yaml", cfg.ReferenceDataPath)
	assert.Equal(t, 20, cfg.RateLimitRequests)
	assert.Equal(t, 10*time.Second, cfg.RateLimitWindow)
	assert.True(t, cfg.OpenAIEnabled)
	assert.Equal(t, testOpenAIKey, cfg.OpenAIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	assert.Equal(t, 3*time.Second, cfg.NarrativeTimeout)
	assert.Equal(t, 50, cfg.NarrativeCacheSize)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "assessments", cfg.KafkaTopic)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_UnparseableValue(t *testing.T) {
	t.Setenv("NARRATIVE_TIMEOUT", "soon")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env")
}

func TestLoad_RangeChecks(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{"RATE_LIMIT_REQUESTS", "0", "RATE_LIMIT_REQUESTS"},
		{"RATE_LIMIT_WINDOW", "-1s", "RATE_LIMIT_WINDOW"},
		{"NARRATIVE_TIMEOUT", "0s", "NARRATIVE_TIMEOUT"},
		{"NARRATIVE_RETRY_MAX", "-1", "NARRATIVE_RETRY_MAX"},
		{"NARRATIVE_RATE_LIMIT", "0", "NARRATIVE_RATE_LIMIT"},
		{"NARRATIVE_CACHE_SIZE", "0", "NARRATIVE_CACHE_SIZE"},
		{"NARRATIVE_CACHE_TTL", "0s", "NARRATIVE_CACHE_TTL"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_OpenAIEnabledWithoutKey(t *testing.T) {
	t.Setenv("OPENAI_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestLoad_OpenAIKeyImpliesEnabled(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", testOpenAIKey)
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.OpenAIEnabled)
}

func TestLoad_OpenAIExplicitlyDisabled(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", testOpenAIKey)
	t.Setenv("OPENAI_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.OpenAIEnabled)
}

func TestLoad_KafkaPublishTimeoutCheckedOnlyWhenEnabled(t *testing.T) {
	t.Setenv("KAFKA_PUBLISH_TIMEOUT", "0s")
	_, err := Load()
	require.NoError(t, err)

	t.Setenv("KAFKA_ENABLED", "true")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_PUBLISH_TIMEOUT")
}

func TestNarrativeAttemptTimeout(t *testing.T) {
	tests := []struct {
		total    time.Duration
		retryMax int
		want     time.Duration
	}{
		{10 * time.Second, 0, 10 * time.Second},
		{9 * time.Second, 2, 3 * time.Second},
		{10 * time.Second, 4, 2 * time.Second},
	}
	for _, tt := range tests {
		cfg := &Config{NarrativeTimeout: tt.total, NarrativeRetryMax: tt.retryMax}
		got := cfg.NarrativeAttemptTimeout()
		assert.Equal(t, tt.want, got, "total %v retries %d", tt.total, tt.retryMax)
		assert.LessOrEqual(t, got*time.Duration(tt.retryMax+1), tt.total)
	}
}
