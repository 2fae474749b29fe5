package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for dashboard loads.
type Metrics struct {
	// Per-source fetch latencies
	SourceLatency *prometheus.HistogramVec

	// Load outcomes by dashboard and result
	LoadOutcome *prometheus.CounterVec

	// Whole-dashboard latency including the slowest source
	LoadLatency *prometheus.HistogramVec
}

// New creates the dashboard metrics and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SourceLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "foodrescue_dashboard_source_duration_seconds",
			Help:    "Duration of each dashboard data fetch by source",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"source"}), // source: "donor_history", "available", "claims", "users", "analytics", "insight"

		LoadOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "foodrescue_dashboard_loads_total",
			Help: "Total dashboard loads by dashboard and outcome",
		}, []string{"dashboard", "outcome"}),

		LoadLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "foodrescue_dashboard_load_duration_seconds",
			Help:    "Duration of a full dashboard load",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"dashboard"}),
	}
}

// ObserveSourceLatency records the duration of fetching one source.
func (m *Metrics) ObserveSourceLatency(source string, d time.Duration) {
	if m != nil {
		m.SourceLatency.WithLabelValues(source).Observe(d.Seconds())
	}
}

// IncrementOutcome records a dashboard load outcome ("ok" or "error").
func (m *Metrics) IncrementOutcome(dashboard, outcome string) {
	if m != nil {
		m.LoadOutcome.WithLabelValues(dashboard, outcome).Inc()
	}
}

// ObserveLoadLatency records the total load duration.
func (m *Metrics) ObserveLoadLatency(dashboard string, d time.Duration) {
	if m != nil {
		m.LoadLatency.WithLabelValues(dashboard).Observe(d.Seconds())
	}
}
