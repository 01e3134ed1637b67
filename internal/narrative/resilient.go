// Package narrative turns a scored assessment into recommendations and a
// summary. Rules is the local generator; Resilient and Cached decorate a
// remote generator so that a slow or failing service never fails a request.
package narrative

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/flood-resilience-service/internal/domain"
	"github.com/couchcryptid/flood-resilience-service/internal/observability"
)

// Resilient calls a primary Narrator under a deadline and answers with the
// fallback when the primary errors or times out.
type Resilient struct {
	primary  domain.Narrator
	fallback domain.Narrator
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewResilient wraps primary. A nil primary sends every call to fallback.
func NewResilient(primary, fallback domain.Narrator, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Resilient {
	return &Resilient{
		primary:  primary,
		fallback: fallback,
		timeout:  timeout,
		logger:   logger,
		metrics:  metrics,
	}
}

// Narrate implements domain.Narrator.
func (r *Resilient) Narrate(ctx context.Context, ac domain.AssessmentContext) (domain.Narrative, error) {
	if r.primary == nil {
		return r.narrateFallback(ctx, ac)
	}

	n, err := r.callPrimary(ctx, ac)
	if err == nil {
		if n.Source == "" {
			n.Source = domain.SourceRemote
		}
		r.metrics.NarrativeRequests.WithLabelValues(n.Source, "success").Inc()
		return n, nil
	}

	r.metrics.NarrativeRequests.WithLabelValues(domain.SourceRemote, "error").Inc()
	r.logger.Warn("narrative generator failed, falling back to rules",
		"error", err,
		"neighborhood", ac.Input.Neighborhood,
		"foundation", ac.Input.FoundationType,
	)
	return r.narrateFallback(ctx, ac)
}

func (r *Resilient) callPrimary(ctx context.Context, ac domain.AssessmentContext) (domain.Narrative, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	n, err := r.primary.Narrate(ctx, ac)
	if err != nil {
		return domain.Narrative{}, fmt.Errorf("%w: %w", domain.ErrNarrativeUnavailable, err)
	}
	return n, nil
}

func (r *Resilient) narrateFallback(ctx context.Context, ac domain.AssessmentContext) (domain.Narrative, error) {
	n, err := r.fallback.Narrate(ctx, ac)
	if err != nil {
		r.metrics.NarrativeRequests.WithLabelValues(domain.SourceRules, "error").Inc()
		return domain.Narrative{}, fmt.Errorf("fallback narrative: %w", err)
	}
	if n.Source == "" {
		n.Source = domain.SourceRules
	}
	r.metrics.NarrativeRequests.WithLabelValues(n.Source, "success").Inc()
	return n, nil
}
