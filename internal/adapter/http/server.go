// Package http serves the assessment API alongside the health, readiness,
// and metrics endpoints.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/flood-resilience-service/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-chi/render"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxBodyBytes caps assessment request bodies.
const maxBodyBytes = 1 << 20

// Assessor runs a resilience assessment.
type Assessor interface {
	Assess(ctx context.Context, in domain.BuildingInput) (domain.ResilienceAssessment, error)
}

// Catalog lists the reference data exposed by the lookup endpoints.
type Catalog interface {
	Neighborhoods() []domain.NeighborhoodProfile
	Neighborhood(id string) (domain.NeighborhoodProfile, bool)
	Foundations() []domain.FoundationProfile
	Materials() []domain.MaterialProfile
	Mitigations() []domain.MitigationProfile
}

// Options configures the API server.
type Options struct {
	Addr              string
	RateLimitRequests int
	RateLimitWindow   time.Duration
	Clock             clockwork.Clock
}

// Server exposes the assessment API plus health, readiness, and metrics.
type Server struct {
	httpServer *http.Server
	assessor   Assessor
	catalog    Catalog
	clock      clockwork.Clock
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the /api routes, /healthz, /readyz,
// and /metrics. API routes are rate limited per client IP.
func NewServer(opts Options, assessor Assessor, catalog Catalog, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	s := &Server{
		assessor: assessor,
		catalog:  catalog,
		clock:    opts.Clock,
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(ready))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		if opts.RateLimitRequests > 0 && opts.RateLimitWindow > 0 {
			r.Use(httprate.LimitByIP(opts.RateLimitRequests, opts.RateLimitWindow))
		}
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Post("/assess", s.handleAssess)
		r.Get("/neighborhoods", s.handleNeighborhoods)
		r.Get("/neighborhoods/{neighborhoodID}", s.handleNeighborhood)
		r.Get("/foundation-types", s.handleFoundationTypes)
		r.Get("/materials", s.handleMaterials)
		r.Get("/mitigation-options", s.handleMitigationOptions)
	})

	r.NotFound(s.handleNotFound)
	r.MethodNotAllowed(s.handleNotFound)

	s.httpServer = &http.Server{
		Addr:         opts.Addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.clock.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", s.clock.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// recoverer turns a handler panic into the standard 500 envelope.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler { //nolint:errorlint // sentinel re-panicked as-is
					panic(rec)
				}
				s.logger.Error("unhandled panic",
					"panic", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"request_id", middleware.GetReqID(r.Context()),
				)
				s.fail(w, r, http.StatusInternalServerError, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
