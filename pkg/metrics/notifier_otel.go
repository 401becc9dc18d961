package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/mattsp1290/hystrix-go/pkg/config"
	"github.com/mattsp1290/hystrix-go/pkg/rolling"
)

// OtelEventNotifier records outcomes through an OpenTelemetry metric.Meter,
// for deployments standardized on an OTel collector rather than a
// Prometheus scrape target.
type OtelEventNotifier struct {
	events    metric.Int64Counter
	durations metric.Float64Histogram
}

// NewOtelEventNotifier builds instruments against meter.
func NewOtelEventNotifier(meter metric.Meter) (*OtelEventNotifier, error) {
	events, err := meter.Int64Counter(
		"hystrix.events",
		metric.WithDescription("Total number of command outcome events by kind."),
	)
	if err != nil {
		return nil, err
	}
	durations, err := meter.Float64Histogram(
		"hystrix.command.execution.duration",
		metric.WithDescription("Command execution duration in seconds."),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}
	return &OtelEventNotifier{events: events, durations: durations}, nil
}

func (n *OtelEventNotifier) MarkEvent(kind rolling.Kind, commandKey string) {
	n.events.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String("command_key", commandKey),
			attribute.String("event_kind", kind.String()),
		),
	)
}

func (n *OtelEventNotifier) MarkCommandExecution(commandKey string, isolation config.IsolationStrategy, duration time.Duration, kinds []rolling.Kind) {
	n.durations.Record(context.Background(), duration.Seconds(),
		metric.WithAttributes(
			attribute.String("command_key", commandKey),
			attribute.String("isolation_strategy", string(isolation)),
		),
	)
}
