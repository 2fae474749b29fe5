package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds process-level Prometheus metrics for the CLI.
type Metrics struct {
	Commands *prometheus.CounterVec
}

// New creates and registers the process metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Commands: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "foodrescue_cli_commands_total",
			Help: "Total number of CLI commands run by command and outcome",
		}, []string{"command", "outcome"}),
	}
}

// IncrementCommand records one finished command.
func (m *Metrics) IncrementCommand(command string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Commands.WithLabelValues(command, outcome).Inc()
}

// NewRegistry returns a registry carrying the Go runtime and process
// collectors. Component metrics are registered on it by their constructors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// WriteTextfile dumps everything in g to path in the text exposition
// format, for node_exporter's textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
