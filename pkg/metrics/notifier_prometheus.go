package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mattsp1290/hystrix-go/pkg/config"
	"github.com/mattsp1290/hystrix-go/pkg/rolling"
)

// PrometheusEventNotifier exports command outcomes as a CounterVec keyed by
// (command_key, event_kind) and execution durations as a HistogramVec keyed
// by (command_key, isolation_strategy).
type PrometheusEventNotifier struct {
	events    *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

// NewPrometheusEventNotifier registers its collectors against registerer.
// Pass prometheus.DefaultRegisterer for the global registry.
func NewPrometheusEventNotifier(registerer prometheus.Registerer) *PrometheusEventNotifier {
	n := &PrometheusEventNotifier{
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "hystrix",
				Name:      "events_total",
				Help:      "Total number of command outcome events by kind.",
			},
			[]string{"command_key", "event_kind"},
		),
		durations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "hystrix",
				Name:      "command_execution_duration_seconds",
				Help:      "Command execution duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"command_key", "isolation_strategy"},
		),
	}
	registerer.MustRegister(n.events, n.durations)
	return n
}

func (n *PrometheusEventNotifier) MarkEvent(kind rolling.Kind, commandKey string) {
	n.events.WithLabelValues(commandKey, kind.String()).Inc()
}

func (n *PrometheusEventNotifier) MarkCommandExecution(commandKey string, isolation config.IsolationStrategy, duration time.Duration, kinds []rolling.Kind) {
	n.durations.WithLabelValues(commandKey, string(isolation)).Observe(duration.Seconds())
}
