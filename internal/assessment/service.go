// Package assessment resolves a building description against the reference
// data, runs the scoring and projection engines, and assembles the full
// resilience assessment.
package assessment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"math"
	"slices"
	"time"

	"github.com/couchcryptid/flood-resilience-service/internal/domain"
	"github.com/couchcryptid/flood-resilience-service/internal/narrative"
	"github.com/couchcryptid/flood-resilience-service/internal/observability"
	"github.com/couchcryptid/flood-resilience-service/internal/projection"
	"github.com/couchcryptid/flood-resilience-service/internal/scoring"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Elevation bounds accepted for a building, in feet.
const (
	MinElevation = 0
	MaxElevation = 50
)

// Placeholder site factors until address-level data is available.
const (
	defaultProximityToWater = 0.5
	defaultDrainage         = domain.DrainageFair
	defaultSoil             = domain.SoilMixed
)

// Catalog is the read side of the reference data store.
type Catalog interface {
	Neighborhood(id string) (domain.NeighborhoodProfile, bool)
	Foundation(id string) (domain.FoundationProfile, bool)
	Material(id string) (domain.MaterialProfile, bool)
	Mitigation(id string) (domain.MitigationProfile, bool)
	Zone(code string) (domain.ZoneRequirement, bool)
	Mitigations() []domain.MitigationProfile
	Counts() map[string]int
}

// EventPublisher emits a summary of each completed assessment.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.AssessmentEvent) error
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock used for event timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithPublisher enables assessment events.
func WithPublisher(p EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithWeights overrides the foundation scoring weights.
func WithWeights(w scoring.Weights) Option {
	return func(s *Service) { s.weights = w }
}

// WithIDGenerator overrides how event ids are generated.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// Service computes resilience assessments. It holds no per-request state and
// is safe for concurrent use.
type Service struct {
	catalog   Catalog
	narrator  domain.Narrator
	publisher EventPublisher
	weights   scoring.Weights
	clock     clockwork.Clock
	newID     func() string
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Service. A nil narrator uses the rule-based generator.
func New(catalog Catalog, narrator domain.Narrator, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Service {
	if narrator == nil {
		narrator = narrative.Rules{}
	}
	s := &Service{
		catalog:  catalog,
		narrator: narrator,
		weights:  scoring.DefaultWeights(),
		clock:    clockwork.NewRealClock(),
		newID:    uuid.NewString,
		logger:   logger,
		metrics:  metrics,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckReadiness returns nil once every reference table holds at least one
// entry. An assessment cannot resolve against an empty table.
func (s *Service) CheckReadiness(_ context.Context) error {
	if s.catalog == nil {
		return errors.New("reference data not loaded")
	}
	counts := s.catalog.Counts()
	tables := slices.Sorted(maps.Keys(counts))
	for _, table := range tables {
		if counts[table] == 0 {
			return fmt.Errorf("reference table %s is empty", table)
		}
	}
	return nil
}

// resolved holds the reference profiles named by a BuildingInput.
type resolved struct {
	neighborhood domain.NeighborhoodProfile
	foundation   domain.FoundationProfile
	material     domain.MaterialProfile
	mitigation   domain.MitigationProfile
	zone         *domain.ZoneRequirement
}

// Assess computes the full assessment for in. Invalid input returns an
// error wrapping domain.ErrInvalidInput before any computation happens.
func (s *Service) Assess(ctx context.Context, in domain.BuildingInput) (domain.ResilienceAssessment, error) {
	start := time.Now()

	r, err := s.resolve(in)
	if err != nil {
		s.metrics.AssessmentsTotal.WithLabelValues("invalid").Inc()
		return domain.ResilienceAssessment{}, err
	}

	rf := domain.RiskFactors{
		ElevationAboveBFE: math.Max(0, in.Elevation-r.neighborhood.BaseBFE),
		ProximityToWater:  defaultProximityToWater,
		LocalDrainage:     defaultDrainage,
		SoilType:          defaultSoil,
		SubsidenceRate:    r.neighborhood.SubsidenceRate,
	}

	foundationScore := scoring.FoundationScore(r.foundation, r.zone, s.weights)
	adjusted := scoring.ApplyRiskAdjustments(foundationScore, rf)
	base := projection.OverallScore(adjusted, r.material, r.mitigation, r.neighborhood, rf)
	timeline := projection.Timeline(base, r.foundation, r.neighborhood, r.material)

	compliant := scoring.Compliant(r.foundation.Rank, r.zone)
	riskFactors := RiskFactors(in, r.neighborhood, r.foundation)
	mitigation := AnalyzeMitigation(r.mitigation, s.catalog.Mitigations(), r.foundation.Rank)

	ac := domain.AssessmentContext{
		Input:           in,
		FoundationScore: adjusted,
		OverallScore:    base,
		Timeline:        timeline,
		Neighborhood:    r.neighborhood,
		Foundation:      r.foundation,
		RiskFactors:     riskFactors,
		Site:            rf,
		Mitigation:      mitigation,
	}
	story := s.narrate(ctx, ac)

	score := int(math.Round(base))
	result := domain.ResilienceAssessment{
		ResilienceScore:    score,
		ConfidenceInterval: [2]int{int(math.Round(base - 5)), int(math.Round(base + 5))},
		Timeline:           timeline,
		Recommendations:    story.Recommendations,
		Summary:            story.Summary,
		Neighborhood:       r.neighborhood.Name,
		RiskFactors:        riskFactors,
		FoundationAnalysis: domain.FoundationAnalysis{
			CurrentRating:        FoundationRating(foundationScore),
			StrengthScore:        foundationScore,
			Weaknesses:           Weaknesses(r.foundation, r.neighborhood.FloodZone),
			RegulatoryCompliance: compliant,
		},
		MitigationEffectiveness: mitigation,
	}

	s.publish(ctx, domain.AssessmentEvent{
		ID:                   s.newID(),
		Input:                in,
		ResilienceScore:      score,
		FoundationScore:      foundationScore,
		RegulatoryCompliance: compliant,
		Score2055:            timeline[len(timeline)-1].Score,
		NarrativeSource:      story.Source,
		AssessedAt:           s.clock.Now().UTC(),
	})

	s.metrics.AssessmentsTotal.WithLabelValues("success").Inc()
	s.metrics.AssessmentDuration.Observe(time.Since(start).Seconds())
	s.metrics.ResilienceScore.Observe(float64(score))

	s.logger.Debug("assessment complete",
		"neighborhood", in.Neighborhood,
		"foundation", in.FoundationType,
		"elevation", in.Elevation,
		"resilience_score", score,
		"narrative_source", story.Source,
	)
	return result, nil
}

// resolve validates in and looks up every reference profile it names.
func (s *Service) resolve(in domain.BuildingInput) (resolved, error) {
	var r resolved

	if math.IsNaN(in.Elevation) || in.Elevation < MinElevation || in.Elevation > MaxElevation {
		return r, &domain.InputError{
			Field:  "elevation",
			Value:  fmt.Sprint(in.Elevation),
			Reason: fmt.Sprintf("must be between %d and %d feet", MinElevation, MaxElevation),
		}
	}

	var ok bool
	if r.neighborhood, ok = s.catalog.Neighborhood(in.Neighborhood); !ok {
		return r, &domain.InputError{Field: "neighborhood", Value: in.Neighborhood}
	}
	if r.foundation, ok = s.catalog.Foundation(in.FoundationType); !ok {
		return r, &domain.InputError{Field: "foundationType", Value: in.FoundationType}
	}
	if r.material, ok = s.catalog.Material(in.Materials); !ok {
		return r, &domain.InputError{Field: "materials", Value: in.Materials}
	}
	if r.mitigation, ok = s.catalog.Mitigation(in.FloodMitigation); !ok {
		return r, &domain.InputError{Field: "floodMitigation", Value: in.FloodMitigation}
	}

	// An unknown zone code places no restriction on the foundation.
	if z, ok := s.catalog.Zone(r.neighborhood.FloodZone); ok {
		r.zone = &z
	}
	return r, nil
}

// narrate asks the configured narrator and falls back to the rules when it fails.
func (s *Service) narrate(ctx context.Context, ac domain.AssessmentContext) domain.Narrative {
	n, err := s.narrator.Narrate(ctx, ac)
	if err == nil {
		return n
	}
	s.logger.Warn("narrator failed, using rule-based narrative", "error", err)
	n, _ = narrative.Rules{}.Narrate(ctx, ac)
	return n
}

func (s *Service) publish(ctx context.Context, event domain.AssessmentEvent) {
	if s.publisher == nil {
		return
	}
	// The event outlives a cancelled request.
	if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		s.metrics.EventsPublished.WithLabelValues("error").Inc()
		s.logger.Error("publish assessment event failed", "error", err, "event_id", event.ID)
		return
	}
	s.metrics.EventsPublished.WithLabelValues("success").Inc()
}
