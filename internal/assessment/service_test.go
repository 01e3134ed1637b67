package assessment_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/couchcryptid/flood-resilience-service/internal/assessment"
	"github.com/couchcryptid/flood-resilience-service/internal/domain"
	"github.com/couchcryptid/flood-resilience-service/internal/observability"
	"github.com/couchcryptid/flood-resilience-service/internal/refdata"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2025, 8, 29, 12, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.AssessmentEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e domain.AssessmentEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

type failingNarrator struct{}

func (failingNarrator) Narrate(context.Context, domain.AssessmentContext) (domain.Narrative, error) {
	return domain.Narrative{}, errors.New("narrator down")
}

func newService(t *testing.T, narrator domain.Narrator, opts ...assessment.Option) (*assessment.Service, *observability.Metrics) {
	t.Helper()
	store, err := refdata.Default()
	require.NoError(t, err)
	metrics := observability.NewMetricsForTesting()
	opts = append([]assessment.Option{assessment.WithClock(clockwork.NewFakeClockAt(fixedTime))}, opts...)
	return assessment.New(store, narrator, slog.New(slog.NewTextHandler(io.Discard, nil)), metrics, opts...), metrics
}

func frenchQuarterInput() domain.BuildingInput {
	return domain.BuildingInput{
		Neighborhood:    "frenchquarter",
		FoundationType:  "pile_column",
		Elevation:       10,
		Materials:       "concrete_block",
		FloodMitigation: "none",
	}
}

func bywaterInput() domain.BuildingInput {
	return domain.BuildingInput{
		Neighborhood:    "bywater",
		FoundationType:  "basement",
		Elevation:       6,
		Materials:       "wood_frame",
		FloodMitigation: "none",
	}
}

func scores(points []domain.PerformancePoint) []int {
	out := make([]int, len(points))
	for i, p := range points {
		out[i] = p.Score
	}
	return out
}

func TestAssess_FrenchQuarterPile(t *testing.T) {
	svc, metrics := newService(t, nil)

	got, err := svc.Assess(context.Background(), frenchQuarterInput())
	require.NoError(t, err)

	assert.Equal(t, 72, got.ResilienceScore)
	assert.Equal(t, [2]int{67, 77}, got.ConfidenceInterval)
	assert.Equal(t, "French Quarter", got.Neighborhood)
	assert.Equal(t, []int{72, 61, 52, 43, 36, 29, 23}, scores(got.Timeline))
	assert.Equal(t, domain.ConditionGood, got.Timeline[0].Conditions)

	fa := got.FoundationAnalysis
	assert.Greater(t, fa.StrengthScore, 85.0)
	assert.InDelta(t, 90.35714285714286, fa.StrengthScore, 1e-9)
	assert.Equal(t, "Excellent", fa.CurrentRating)
	assert.Empty(t, fa.Weaknesses)
	assert.True(t, fa.RegulatoryCompliance)

	assert.Equal(t, []string{assessment.RiskLowElevation}, got.RiskFactors)

	mit := got.MitigationEffectiveness
	assert.Equal(t, []string{"No Mitigation Features"}, mit.CurrentFeatures)
	assert.Equal(t, 0, mit.EffectivenessScore)
	assert.Equal(t, []string{"Breakaway Walls", "Elevated Utilities", "Flood-Resistant Materials"}, mit.MissingFeatures)

	require.Len(t, got.Recommendations, 2)
	assert.Equal(t, domain.TypeElevation, got.Recommendations[0].Type)
	assert.Equal(t, domain.TypeMitigation, got.Recommendations[1].Type)
	assert.Equal(t,
		"Your building in French Quarter with Pile/Column Foundation shows good flood resilience (72%). "+
			"Consider major improvements by 2035 to maintain adequate protection. "+
			"Primary concerns include Low elevation relative to Base Flood Elevation.",
		got.Summary)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AssessmentsTotal.WithLabelValues("success")))
}

func TestAssess_BywaterBasement(t *testing.T) {
	svc, _ := newService(t, nil)

	got, err := svc.Assess(context.Background(), bywaterInput())
	require.NoError(t, err)

	assert.Equal(t, 20, got.ResilienceScore)
	assert.Less(t, got.ResilienceScore, 60)
	assert.Equal(t, [2]int{15, 25}, got.ConfidenceInterval)
	assert.Equal(t, []int{20, 14, 10, 10, 10, 10, 10}, scores(got.Timeline))

	fa := got.FoundationAnalysis
	assert.InDelta(t, 2.75, fa.StrengthScore, 1e-9)
	assert.Equal(t, "Very Poor", fa.CurrentRating)
	assert.False(t, fa.RegulatoryCompliance)
	assert.Equal(t, []string{assessment.WeaknessHydrostatic, assessment.WeaknessScour, assessment.WeaknessDebris}, fa.Weaknesses)

	assert.Equal(t, []string{assessment.RiskLowElevation, assessment.RiskVulnerableFoundation}, got.RiskFactors)
	assert.Equal(t, []string{"Elevated Utilities", "Flood-Resistant Materials", "Dry Floodproofing"},
		got.MitigationEffectiveness.MissingFeatures)
	assert.Len(t, got.Recommendations, 4)
}

func TestAssess_ScoreBoundsOverAllCombinations(t *testing.T) {
	store, err := refdata.Default()
	require.NoError(t, err)
	svc, _ := newService(t, nil)
	ctx := context.Background()

	for _, n := range store.Neighborhoods() {
		for _, f := range store.Foundations() {
			for _, m := range store.Materials() {
				for _, mit := range store.Mitigations() {
					for _, elev := range []float64{0, 8, 25, 50} {
						in := domain.BuildingInput{Neighborhood: n.ID, FoundationType: f.ID, Elevation: elev, Materials: m.ID, FloodMitigation: mit.ID}
						got, err := svc.Assess(ctx, in)
						require.NoError(t, err)

						assert.GreaterOrEqual(t, got.ResilienceScore, 10)
						assert.LessOrEqual(t, got.ResilienceScore, 100)
						assert.Equal(t, got.ResilienceScore-5, got.ConfidenceInterval[0])
						assert.Equal(t, got.ResilienceScore+5, got.ConfidenceInterval[1])
						require.Len(t, got.Timeline, 7)
						for i, p := range got.Timeline {
							assert.Equal(t, 2025+5*i, p.Year)
							assert.GreaterOrEqual(t, p.Score, 10)
							assert.LessOrEqual(t, p.Score, 100)
						}
						assert.GreaterOrEqual(t, got.FoundationAnalysis.StrengthScore, 0.0)
						assert.LessOrEqual(t, got.FoundationAnalysis.StrengthScore, 100.0)
						assert.NotContains(t, got.MitigationEffectiveness.MissingFeatures, mit.Name)
					}
				}
			}
		}
	}
}

func TestAssess_Idempotent(t *testing.T) {
	svc, _ := newService(t, nil)
	a, err := svc.Assess(context.Background(), bywaterInput())
	require.NoError(t, err)
	b, err := svc.Assess(context.Background(), bywaterInput())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestAssess_MonotonicInElevation(t *testing.T) {
	svc, _ := newService(t, nil)
	in := domain.BuildingInput{Neighborhood: "marigny", FoundationType: "crawlspace", Materials: "brick_veneer", FloodMitigation: "flood_vents"}

	prev := -1
	for e := 0.0; e <= 50; e += 0.5 {
		in.Elevation = e
		got, err := svc.Assess(context.Background(), in)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got.ResilienceScore, prev, "elevation %v", e)
		prev = got.ResilienceScore
	}
}

func TestAssess_UnknownIdentifiers(t *testing.T) {
	tests := []struct {
		field  string
		mutate func(*domain.BuildingInput)
	}{
		{"neighborhood", func(in *domain.BuildingInput) { in.Neighborhood = "atlantis" }},
		{"foundationType", func(in *domain.BuildingInput) { in.FoundationType = "stilts" }},
		{"materials", func(in *domain.BuildingInput) { in.Materials = "straw" }},
		{"floodMitigation", func(in *domain.BuildingInput) { in.FloodMitigation = "sandbags" }},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			pub := &recordingPublisher{}
			svc, metrics := newService(t, nil, assessment.WithPublisher(pub))

			in := bywaterInput()
			tt.mutate(&in)
			_, err := svc.Assess(context.Background(), in)

			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			var ie *domain.InputError
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, tt.field, ie.Field)

			assert.Empty(t, pub.events)
			assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AssessmentsTotal.WithLabelValues("invalid")))
		})
	}
}

func TestAssess_ElevationOutOfRange(t *testing.T) {
	svc, _ := newService(t, nil)
	for _, e := range []float64{-1, 50.5} {
		in := bywaterInput()
		in.Elevation = e
		_, err := svc.Assess(context.Background(), in)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Contains(t, err.Error(), "elevation")
	}
}

func TestAssess_NarratorFailureFallsBackToRules(t *testing.T) {
	svc, _ := newService(t, failingNarrator{})
	got, err := svc.Assess(context.Background(), bywaterInput())
	require.NoError(t, err)
	assert.Len(t, got.Recommendations, 4)
	assert.Contains(t, got.Summary, "poor flood resilience (20%)")
}

func TestAssess_PublishesEvent(t *testing.T) {
	pub := &recordingPublisher{}
	svc, metrics := newService(t, nil,
		assessment.WithPublisher(pub),
		assessment.WithIDGenerator(func() string { return "evt-1" }),
	)

	_, err := svc.Assess(context.Background(), bywaterInput())
	require.NoError(t, err)

	require.Len(t, pub.events, 1)
	e := pub.events[0]
	assert.Equal(t, "evt-1", e.ID)
	assert.Equal(t, bywaterInput(), e.Input)
	assert.Equal(t, 20, e.ResilienceScore)
	assert.InDelta(t, 2.75, e.FoundationScore, 1e-9)
	assert.False(t, e.RegulatoryCompliance)
	assert.Equal(t, 10, e.Score2055)
	assert.Equal(t, domain.SourceRules, e.NarrativeSource)
	assert.Equal(t, fixedTime, e.AssessedAt)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EventsPublished.WithLabelValues("success")))
}

func TestAssess_PublishFailureDoesNotFailRequest(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker unavailable")}
	svc, metrics := newService(t, nil, assessment.WithPublisher(pub))

	got, err := svc.Assess(context.Background(), bywaterInput())
	require.NoError(t, err)
	assert.Equal(t, 20, got.ResilienceScore)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EventsPublished.WithLabelValues("error")))
}

func TestAssess_UnknownZoneIsCompliant(t *testing.T) {
	ds := refdata.Dataset{
		Zones: []domain.ZoneRequirement{{Code: "X", AllowedFoundations: []domain.FoundationRank{domain.RankBasement}}},
		Neighborhoods: []domain.NeighborhoodProfile{{
			ID: "n", Name: "N", BaseBFE: 5, RiskMultiplier: 1, StormSurgeRisk: domain.SurgeLow, FloodZone: "X",
		}},
		Foundations: []domain.FoundationProfile{{ID: "basement", Name: "Basement", Rank: domain.RankBasement}},
		Materials:   []domain.MaterialProfile{{ID: "m", Name: "M"}},
		Mitigations: []domain.MitigationProfile{{ID: "none", Name: "None"}},
	}
	store, err := refdata.New(ds)
	require.NoError(t, err)

	svc := assessment.New(stubCatalog{Store: store, zoneMissing: true}, nil,
		slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())

	got, err := svc.Assess(context.Background(), domain.BuildingInput{
		Neighborhood: "n", FoundationType: "basement", Elevation: 5, Materials: "m", FloodMitigation: "none",
	})
	require.NoError(t, err)
	assert.True(t, got.FoundationAnalysis.RegulatoryCompliance)
	// Only the maintenance term remains: no regulatory bonus or penalty.
	assert.InDelta(t, 5.0, got.FoundationAnalysis.StrengthScore, 1e-9)
}

// stubCatalog hides zone entries to simulate a neighborhood whose zone code
// has no requirements on file.
type stubCatalog struct {
	*refdata.Store
	zoneMissing bool
}

func (c stubCatalog) Zone(code string) (domain.ZoneRequirement, bool) {
	if c.zoneMissing {
		return domain.ZoneRequirement{}, false
	}
	return c.Store.Zone(code)
}

func TestCheckReadiness(t *testing.T) {
	svc, _ := newService(t, nil)
	require.NoError(t, svc.CheckReadiness(context.Background()))

	unloaded := assessment.New(nil, nil, slog.Default(), observability.NewMetricsForTesting())
	require.Error(t, unloaded.CheckReadiness(context.Background()))
}

func TestCheckReadiness_EmptyTable(t *testing.T) {
	store, err := refdata.New(refdata.Dataset{})
	require.NoError(t, err)

	svc := assessment.New(store, nil, slog.Default(), observability.NewMetricsForTesting())
	err = svc.CheckReadiness(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is empty")
}
