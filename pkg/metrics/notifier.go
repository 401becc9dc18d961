// Package metrics aggregates rolling counters and latency percentiles per
// command key into CommandMetrics, computes periodic HealthSnapshots for
// the circuit breaker, tracks PoolMetrics, and fans outcomes out to
// pluggable EventNotifier implementations.
package metrics

import (
	"time"

	"github.com/mattsp1290/hystrix-go/pkg/config"
	"github.com/mattsp1290/hystrix-go/pkg/rolling"
)

// EventNotifier is the observability fan-out hook described in spec.md §6.
// Implementations must be safe under concurrent invocation and must not
// block the caller: anything heavier than an in-memory counter increment
// should dispatch asynchronously.
type EventNotifier interface {
	// MarkEvent is called once per outcome kind recorded during a command
	// invocation.
	MarkEvent(kind rolling.Kind, commandKey string)

	// MarkCommandExecution is called once per invocation with its terminal
	// outcome set, after every MarkEvent call for that invocation.
	MarkCommandExecution(commandKey string, isolation config.IsolationStrategy, duration time.Duration, kinds []rolling.Kind)
}

// NoopEventNotifier is the spec-mandated default: it does nothing.
type NoopEventNotifier struct{}

func (NoopEventNotifier) MarkEvent(rolling.Kind, string) {}

func (NoopEventNotifier) MarkCommandExecution(string, config.IsolationStrategy, time.Duration, []rolling.Kind) {
}

// MultiEventNotifier fans one outcome out to every wrapped notifier,
// dispatching each call asynchronously so a slow or blocking notifier can
// never stall the command pipeline or its siblings.
type MultiEventNotifier struct {
	notifiers []EventNotifier
}

// NewMultiEventNotifier wraps notifiers for fan-out dispatch.
func NewMultiEventNotifier(notifiers ...EventNotifier) *MultiEventNotifier {
	return &MultiEventNotifier{notifiers: notifiers}
}

func (m *MultiEventNotifier) MarkEvent(kind rolling.Kind, commandKey string) {
	for _, n := range m.notifiers {
		n := n
		go n.MarkEvent(kind, commandKey)
	}
}

func (m *MultiEventNotifier) MarkCommandExecution(commandKey string, isolation config.IsolationStrategy, duration time.Duration, kinds []rolling.Kind) {
	for _, n := range m.notifiers {
		n := n
		go n.MarkCommandExecution(commandKey, isolation, duration, kinds)
	}
}
