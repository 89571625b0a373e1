// Package metrics defines the Prometheus collectors of the solver service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lplab"

// Metrics holds the solver collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	Solves           *prometheus.CounterVec
	SolveDuration    *prometheus.HistogramVec
	Iterations       prometheus.Histogram
	CrossCheckErrors *prometheus.CounterVec
	StoreLookups     *prometheus.CounterVec
	RateLimited      prometheus.Counter
}

// New registers the collectors with reg. A nil reg registers nothing, which
// keeps tests independent of the default registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Solves: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "solves_total",
			Help:      "Number of solves by engine and terminal status.",
		}, []string{"engine", "status"}),
		SolveDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "solve_duration_seconds",
			Help:      "Wall time of a full solve pipeline.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"status"}),
		Iterations: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "simplex_iterations",
			Help:      "Pivots performed per simplex solve.",
			Buckets:   prometheus.LinearBuckets(0, 5, 21),
		}),
		CrossCheckErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crosscheck_disagreements_total",
			Help:      "Cross-checks where another solver disagreed with simplex.",
		}, []string{"against"}),
		StoreLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_lookups_total",
			Help:      "Result store lookups by outcome.",
		}, []string{"result"}),
		RateLimited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
	}
}

// ObserveSolve records one solve of the given engine.
func (m *Metrics) ObserveSolve(engine, status string) {
	if m == nil {
		return
	}
	m.Solves.WithLabelValues(engine, status).Inc()
}

// ObservePipeline records the duration and pivot count of a full solve.
func (m *Metrics) ObservePipeline(status string, d time.Duration, iterations int) {
	if m == nil {
		return
	}
	m.SolveDuration.WithLabelValues(status).Observe(d.Seconds())
	m.Iterations.Observe(float64(iterations))
}

// ObserveDisagreement records a failed cross-check.
func (m *Metrics) ObserveDisagreement(against string) {
	if m == nil {
		return
	}
	m.CrossCheckErrors.WithLabelValues(against).Inc()
}

// ObserveLookup records a store lookup; result is "hit", "miss" or "error".
func (m *Metrics) ObserveLookup(result string) {
	if m == nil {
		return
	}
	m.StoreLookups.WithLabelValues(result).Inc()
}

// ObserveRateLimited records a rejected request.
func (m *Metrics) ObserveRateLimited() {
	if m == nil {
		return
	}
	m.RateLimited.Inc()
}
