package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Transitions       *prometheus.CounterVec
	TransitionsFailed *prometheus.CounterVec
	CorruptedRestores prometheus.Counter
	Authenticated     prometheus.Gauge
}

// New registers the session metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "foodrescue_session_transitions_total",
			Help: "Total number of session state changes by operation and resulting state",
		}, []string{"operation", "state"}),
		TransitionsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "foodrescue_session_transitions_failed_total",
			Help: "Total number of session operations that left the state unchanged due to an error",
		}, []string{"operation"}),
		CorruptedRestores: factory.NewCounter(prometheus.CounterOpts{
			Name: "foodrescue_session_corrupted_restores_total",
			Help: "Total number of persisted sessions discarded at startup because they could not be parsed",
		}),
		Authenticated: factory.NewGauge(prometheus.GaugeOpts{
			Name: "foodrescue_session_authenticated",
			Help: "1 when an identity is held, 0 otherwise",
		}),
	}
}

func (m *Metrics) IncTransition(operation, state string, authenticated bool) {
	m.Transitions.WithLabelValues(operation, state).Inc()
	if authenticated {
		m.Authenticated.Set(1)
	} else {
		m.Authenticated.Set(0)
	}
}

func (m *Metrics) IncFailed(operation string) {
	m.TransitionsFailed.WithLabelValues(operation).Inc()
}

func (m *Metrics) IncCorruptedRestore() {
	m.CorruptedRestores.Inc()
}
