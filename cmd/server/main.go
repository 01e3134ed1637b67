package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/couchcryptid/flood-resilience-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/flood-resilience-service/internal/adapter/kafka"
	"github.com/couchcryptid/flood-resilience-service/internal/adapter/openai"
	redisadapter "github.com/couchcryptid/flood-resilience-service/internal/adapter/redis"
	"github.com/couchcryptid/flood-resilience-service/internal/assessment"
	"github.com/couchcryptid/flood-resilience-service/internal/config"
	"github.com/couchcryptid/flood-resilience-service/internal/domain"
	"github.com/couchcryptid/flood-resilience-service/internal/narrative"
	"github.com/couchcryptid/flood-resilience-service/internal/observability"
	"github.com/couchcryptid/flood-resilience-service/internal/refdata"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	store, err := loadReferenceData(cfg.ReferenceDataPath)
	if err != nil {
		logger.Error("failed to load reference data", "error", err, "path", cfg.ReferenceDataPath)
		os.Exit(1)
	}
	metrics.RecordReferenceData(store.Counts())
	logger.Info("reference data loaded", "path", cfg.ReferenceDataPath, "counts", store.Counts())

	// closers run in reverse order at shutdown.
	var closers []namedCloser

	narrator, cacheCloser := buildNarrator(cfg, logger, metrics)
	if cacheCloser != nil {
		closers = append(closers, namedCloser{"redis cache", cacheCloser})
	}

	opts := []assessment.Option{}
	if cfg.KafkaEnabled {
		publisher := kafkaadapter.NewPublisher(cfg, logger)
		opts = append(opts, assessment.WithPublisher(publisher))
		closers = append(closers, namedCloser{"kafka publisher", publisher})
		logger.Info("assessment events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("assessment events disabled")
	}

	svc := assessment.New(store, narrator, logger, metrics, opts...)

	srv := httpadapter.NewServer(httpadapter.Options{
		Addr:              cfg.HTTPAddr,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
	}, svc, store, svc, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			logger.Error("close error", "component", closers[i].name, "error", err)
		}
	}

	logger.Info("shutdown complete")
}

type namedCloser struct {
	name string
	io.Closer
}

func loadReferenceData(path string) (*refdata.Store, error) {
	if path == "" {
		return refdata.Default()
	}
	return refdata.LoadFile(path)
}

// buildNarrator wires the remote narrator behind a cache and the rules
// fallback. Without an API key the rules narrator is used directly.
func buildNarrator(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (domain.Narrator, io.Closer) {
	if !cfg.OpenAIEnabled {
		metrics.NarrativeRemoteEnabled.Set(0)
		logger.Info("remote narratives disabled, using rules")
		return narrative.Rules{}, nil
	}
	metrics.NarrativeRemoteEnabled.Set(1)

	client := openai.NewClient(openai.Options{
		APIKey:        cfg.OpenAIKey,
		BaseURL:       cfg.OpenAIBaseURL,
		Model:         cfg.OpenAIModel,
		Timeout:       cfg.NarrativeAttemptTimeout(),
		RetryMax:      cfg.NarrativeRetryMax,
		RatePerSecond: cfg.NarrativeRateLimit,
	}, logger, metrics)

	var (
		cache  narrative.Cache
		closer io.Closer
	)
	if cfg.RedisAddr != "" {
		rc := redisadapter.NewCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.NarrativeCacheTTL)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rc.Ping(ctx); err != nil {
			logger.Warn("redis unreachable, cache reads will miss until it recovers", "addr", cfg.RedisAddr, "error", err)
		}
		cancel()
		cache, closer = rc, rc
		logger.Info("narrative cache", "backend", "redis", "addr", cfg.RedisAddr, "ttl", cfg.NarrativeCacheTTL)
	} else {
		cache = narrative.NewLRU(cfg.NarrativeCacheSize, cfg.NarrativeCacheTTL, clockwork.NewRealClock())
		logger.Info("narrative cache", "backend", "memory", "size", cfg.NarrativeCacheSize, "ttl", cfg.NarrativeCacheTTL)
	}

	logger.Info("remote narratives enabled", "model", cfg.OpenAIModel, "timeout", cfg.NarrativeTimeout, "attempt_timeout", cfg.NarrativeAttemptTimeout())
	cached := narrative.NewCached(client, cache, logger, metrics)
	return narrative.NewResilient(cached, narrative.Rules{}, cfg.NarrativeTimeout, logger, metrics), closer
}
