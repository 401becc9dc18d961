package metrics

import (
	"sync/atomic"
	"time"

	"github.com/mattsp1290/hystrix-go/internal/clock"
	"github.com/mattsp1290/hystrix-go/pkg/config"
	"github.com/mattsp1290/hystrix-go/pkg/percentile"
	"github.com/mattsp1290/hystrix-go/pkg/rolling"
)

// CommandMetrics aggregates one RollingNumber of counters and one
// RollingPercentile of execution latencies for a single command key, and
// derives the periodically-refreshed HealthSnapshot CircuitBreaker
// decisions depend on.
type CommandMetrics struct {
	commandKey string
	clk        clock.Clock
	notifier   EventNotifier

	counters   *rolling.Number
	latencies  *percentile.Rolling

	snapshotIntervalMs int64
	lastSnapshotMs     atomic.Int64
	snapshot           atomic.Pointer[HealthSnapshot]
}

// New constructs CommandMetrics for commandKey per the resolved Properties.
func New(commandKey string, clk clock.Clock, props *config.Properties, notifier EventNotifier) (*CommandMetrics, error) {
	if notifier == nil {
		notifier = NoopEventNotifier{}
	}

	counters, err := rolling.New(clk, props.MetricsRollingStatsWindowMs, props.MetricsRollingStatsBuckets)
	if err != nil {
		return nil, err
	}
	latencies, err := percentile.New(
		clk,
		props.MetricsRollingPercentileWindowMs,
		props.MetricsRollingPercentileBuckets,
		props.MetricsRollingPercentileBucketSize,
		props.MetricsRollingPercentileEnabled,
	)
	if err != nil {
		return nil, err
	}

	cm := &CommandMetrics{
		commandKey:         commandKey,
		clk:                clk,
		notifier:           notifier,
		counters:           counters,
		latencies:          latencies,
		snapshotIntervalMs: props.MetricsHealthSnapshotIntervalMs,
	}
	cm.snapshot.Store(&HealthSnapshot{})
	// Back-date the last computation by one interval so the first
	// HealthCounts call computes a snapshot rather than returning the empty
	// placeholder.
	cm.lastSnapshotMs.Store(clk.NowMillis() - cm.snapshotIntervalMs)
	return cm, nil
}

// CommandKey returns the key this CommandMetrics was constructed for.
func (cm *CommandMetrics) CommandKey() string {
	return cm.commandKey
}

// Percentile returns the p-th latency percentile, or -1 when percentile
// tracking is disabled.
func (cm *CommandMetrics) Percentile(p float64) int64 {
	return cm.latencies.Percentile(p)
}

// MeanLatency returns the mean of the latest latency snapshot, or -1 when
// percentile tracking is disabled.
func (cm *CommandMetrics) MeanLatency() int64 {
	return cm.latencies.Mean()
}

// RollingSum exposes the raw counter for kind, mainly for tests and
// diagnostics.
func (cm *CommandMetrics) RollingSum(kind rolling.Kind) int64 {
	return cm.counters.RollingSum(kind)
}

func (cm *CommandMetrics) markCounter(kind rolling.Kind) {
	_ = cm.counters.Increment(kind)
	cm.notifier.MarkEvent(kind, cm.commandKey)
}

func (cm *CommandMetrics) markCounterWithLatency(kind rolling.Kind, durationMs int64) {
	_ = cm.counters.Increment(kind)
	cm.latencies.AddValue(durationMs)
	cm.notifier.MarkEvent(kind, cm.commandKey)
}

// MarkSuccess records a successful run() completion.
func (cm *CommandMetrics) MarkSuccess(dur time.Duration) {
	cm.markCounterWithLatency(rolling.Success, dur.Milliseconds())
}

// MarkFailure records a run() failure.
func (cm *CommandMetrics) MarkFailure(dur time.Duration) {
	cm.markCounterWithLatency(rolling.Failure, dur.Milliseconds())
}

// MarkTimeout records a run() timeout.
func (cm *CommandMetrics) MarkTimeout(dur time.Duration) {
	cm.markCounterWithLatency(rolling.Timeout, dur.Milliseconds())
}

// MarkShortCircuited records that the circuit breaker refused admission.
func (cm *CommandMetrics) MarkShortCircuited() {
	cm.markCounter(rolling.ShortCircuited)
}

// MarkThreadPoolRejected records pool admission rejection.
func (cm *CommandMetrics) MarkThreadPoolRejected() {
	cm.markCounter(rolling.ThreadPoolRejected)
}

// MarkSemaphoreRejected records semaphore admission rejection.
func (cm *CommandMetrics) MarkSemaphoreRejected() {
	cm.markCounter(rolling.SemaphoreRejected)
}

// MarkFallbackSuccess records a successful fallback() completion.
func (cm *CommandMetrics) MarkFallbackSuccess() {
	cm.markCounter(rolling.FallbackSuccess)
}

// MarkFallbackFailure records a fallback() failure.
func (cm *CommandMetrics) MarkFallbackFailure() {
	cm.markCounter(rolling.FallbackFailure)
}

// MarkFallbackRejection records fallback-isolation admission rejection.
func (cm *CommandMetrics) MarkFallbackRejection() {
	cm.markCounter(rolling.FallbackRejection)
}

// MarkBadRequest records a user-input error. It does not contribute to the
// breaker's error percentage but does record latency.
func (cm *CommandMetrics) MarkBadRequest(dur time.Duration) {
	_ = cm.counters.Increment(rolling.BadRequest)
	cm.latencies.AddValue(dur.Milliseconds())
	cm.notifier.MarkEvent(rolling.BadRequest, cm.commandKey)
}

// MarkResponseFromCache records a request-cache hit.
func (cm *CommandMetrics) MarkResponseFromCache() {
	cm.markCounter(rolling.ResponseFromCache)
}

// MarkExceptionThrown records a run()/fallback() panic or unexpected error.
func (cm *CommandMetrics) MarkExceptionThrown() {
	cm.markCounter(rolling.ExceptionThrown)
}

// UpdateThreadMaxActive records the current active-worker high-water mark.
func (cm *CommandMetrics) UpdateThreadMaxActive(active int64) {
	_ = cm.counters.UpdateRollingMax(rolling.ThreadMaxActive, active)
}

// HealthCounts returns the cached HealthSnapshot if it is still within
// snapshot_interval_ms of the last computation; otherwise exactly one
// caller (the CAS winner) recomputes it from the rolling counters while
// every other concurrent caller returns the stale value.
func (cm *CommandMetrics) HealthCounts() HealthSnapshot {
	now := cm.clk.NowMillis()
	last := cm.lastSnapshotMs.Load()
	if now-last < cm.snapshotIntervalMs {
		return *cm.snapshot.Load()
	}
	if !cm.lastSnapshotMs.CompareAndSwap(last, now) {
		return *cm.snapshot.Load()
	}

	var errors int64
	for _, kind := range rolling.HealthErrorKinds {
		errors += cm.counters.RollingSum(kind)
	}
	total := errors + cm.counters.RollingSum(rolling.Success)

	snap := computeHealthSnapshot(total, errors, now)
	cm.snapshot.Store(&snap)
	return snap
}
