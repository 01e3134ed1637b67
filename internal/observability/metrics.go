package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "flood_resilience"

// Metrics holds the Prometheus counters, histograms, and gauges for the assessment service.
type Metrics struct {
	AssessmentsTotal   *prometheus.CounterVec // labels: outcome={success,invalid,error}
	AssessmentDuration prometheus.Histogram
	ResilienceScore    prometheus.Histogram

	// Narrative generation metrics.
	NarrativeRequests      *prometheus.CounterVec // labels: source={remote,rules,cache}, outcome={success,error}
	NarrativeCache         *prometheus.CounterVec // labels: result={hit,miss}
	NarrativeAPIDuration   prometheus.Histogram
	NarrativeRemoteEnabled prometheus.Gauge

	EventsPublished      *prometheus.CounterVec // labels: outcome={success,error}
	ReferenceDataEntries *prometheus.GaugeVec   // labels: table
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		AssessmentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessments_total",
			Help:      "Assessments served by outcome.",
		}, []string{"outcome"}),
		AssessmentDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "assessment_duration_seconds",
			Help:      "Duration of a complete assessment, narrative included.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		ResilienceScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resilience_score",
			Help:      "Distribution of computed resilience scores.",
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),
		NarrativeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "narrative_requests_total",
			Help:      "Narrative generation requests by source and outcome.",
		}, []string{"source", "outcome"}),
		NarrativeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "narrative_cache_total",
			Help:      "Narrative cache lookups by result.",
		}, []string{"result"}),
		NarrativeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "narrative_api_duration_seconds",
			Help:      "Remote narrative API request duration in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		NarrativeRemoteEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "narrative_remote_enabled",
			Help:      "1 when the remote narrative generator is enabled, 0 otherwise.",
		}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Assessment events written to Kafka by outcome.",
		}, []string{"outcome"}),
		ReferenceDataEntries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reference_data_entries",
			Help:      "Number of loaded reference data entries per table.",
		}, []string{"table"}),
	}

	prometheus.MustRegister(
		m.AssessmentsTotal,
		m.AssessmentDuration,
		m.ResilienceScore,
		m.NarrativeRequests,
		m.NarrativeCache,
		m.NarrativeAPIDuration,
		m.NarrativeRemoteEnabled,
		m.EventsPublished,
		m.ReferenceDataEntries,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		AssessmentsTotal:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "assessments_total"}, []string{"outcome"}),
		AssessmentDuration:     prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "assessment_duration_seconds"}),
		ResilienceScore:        prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "resilience_score"}),
		NarrativeRequests:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "narrative_requests_total"}, []string{"source", "outcome"}),
		NarrativeCache:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "narrative_cache_total"}, []string{"result"}),
		NarrativeAPIDuration:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "narrative_api_duration_seconds"}),
		NarrativeRemoteEnabled: prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "narrative_remote_enabled"}),
		EventsPublished:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "events_published_total"}, []string{"outcome"}),
		ReferenceDataEntries:   prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: namespace, Name: "reference_data_entries"}, []string{"table"}),
	}
}

// RecordReferenceData sets one gauge per reference table.
func (m *Metrics) RecordReferenceData(counts map[string]int) {
	for table, n := range counts {
		m.ReferenceDataEntries.WithLabelValues(table).Set(float64(n))
	}
}
