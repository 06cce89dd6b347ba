package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	analyses         *prometheus.CounterVec
	injectionBlocked prometheus.Counter
	sourceFetches    *prometheus.CounterVec
	providerAttempts *prometheus.CounterVec
	duration         *prometheus.HistogramVec
}

// NewMetrics registers the pipeline metrics against reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		analyses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "factlens_analysis_total",
			Help: "Completed analyses by mode and outcome.",
		}, []string{"mode", "outcome"}),
		injectionBlocked: factory.NewCounter(prometheus.CounterOpts{
			Name: "factlens_injection_blocked_total",
			Help: "Queries rejected by the injection filter.",
		}),
		sourceFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "factlens_source_fetch_total",
			Help: "Evidence source fetches by source and result.",
		}, []string{"source", "result"}),
		providerAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "factlens_provider_attempts_total",
			Help: "Analysis provider attempts by provider and result.",
		}, []string{"provider", "result"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "factlens_analysis_duration_seconds",
			Help:    "End-to-end analysis latency.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		}, []string{"mode"}),
	}
}

// Analysis records a finished analysis
func (m *Metrics) Analysis(mode, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.analyses.WithLabelValues(mode, outcome).Inc()
	m.duration.WithLabelValues(mode).Observe(seconds)
}

// InjectionBlocked records a rejected query
func (m *Metrics) InjectionBlocked() {
	if m == nil {
		return
	}
	m.injectionBlocked.Inc()
}

// SourceFetch records one evidence fetch
func (m *Metrics) SourceFetch(source string, ok bool) {
	if m == nil {
		return
	}
	m.sourceFetches.WithLabelValues(source, resultLabel(ok)).Inc()
}

// ProviderAttempt records one analysis tier attempt
func (m *Metrics) ProviderAttempt(provider string, ok bool) {
	if m == nil {
		return
	}
	m.providerAttempts.WithLabelValues(provider, resultLabel(ok)).Inc()
}

func resultLabel(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
