package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Failure kinds recorded by IncFailure.
const (
	FailureTransport = "transport"
	FailureRejected  = "rejected"
	FailureMalformed = "malformed"
)

// Metrics tracks outbound API calls made by the gateway client.
type Metrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Failures        *prometheus.CounterVec
}

// New creates the gateway metrics and registers them on reg.
// Pass prometheus.DefaultRegisterer to expose them process-wide.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "foodrescue_api_requests_total",
			Help: "Total number of API calls by method, route and status class",
		}, []string{"method", "route", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "foodrescue_api_request_duration_seconds",
			Help:    "Duration of API calls including body decoding",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "route"}),
		Failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "foodrescue_api_failures_total",
			Help: "Total number of failed API calls by failure kind",
		}, []string{"kind"}),
	}
}

// ObserveRequest records one completed call. A zero status means no response.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.Requests.WithLabelValues(method, route, statusClass(status)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// IncFailure records a normalized failure of the given kind.
func (m *Metrics) IncFailure(kind string) {
	m.Failures.WithLabelValues(kind).Inc()
}

func statusClass(status int) string {
	if status <= 0 {
		return "none"
	}
	return strconv.Itoa(status/100) + "xx"
}
