package metrics

import "sync/atomic"

// PoolMetrics tracks the counters a Pool exposes for one pool key: current
// active workers, current queue depth, and cumulative rejection counts.
// The accessor surface mirrors the Java Hystrix HystrixThreadPoolMetrics
// shape that the original Python port left as bare fields.
type PoolMetrics struct {
	poolKey string

	activeCount             atomic.Int64
	queueSize               atomic.Int64
	rejectionCount          atomic.Int64
	cumulativeRejectionCount atomic.Int64
}

// NewPoolMetrics constructs PoolMetrics for poolKey.
func NewPoolMetrics(poolKey string) *PoolMetrics {
	return &PoolMetrics{poolKey: poolKey}
}

// PoolKey returns the pool key this PoolMetrics was constructed for.
func (pm *PoolMetrics) PoolKey() string {
	return pm.poolKey
}

// SetActiveCount records the current number of workers executing run().
func (pm *PoolMetrics) SetActiveCount(n int64) {
	pm.activeCount.Store(n)
}

// CurrentActiveCount returns the current number of workers executing
// run().
func (pm *PoolMetrics) CurrentActiveCount() int64 {
	return pm.activeCount.Load()
}

// SetQueueSize records the current number of queued-but-not-yet-running
// submissions.
func (pm *PoolMetrics) SetQueueSize(n int64) {
	pm.queueSize.Store(n)
}

// CurrentQueueSize returns the current queue depth.
func (pm *PoolMetrics) CurrentQueueSize() int64 {
	return pm.queueSize.Load()
}

// MarkRejection increments both the windowed and cumulative rejection
// counters. The windowed counter is reset by ResetRejectionCount; the
// cumulative counter never resets.
func (pm *PoolMetrics) MarkRejection() {
	pm.rejectionCount.Add(1)
	pm.cumulativeRejectionCount.Add(1)
}

// RejectionCount returns rejections since the last ResetRejectionCount.
func (pm *PoolMetrics) RejectionCount() int64 {
	return pm.rejectionCount.Load()
}

// ResetRejectionCount zeroes the windowed rejection counter.
func (pm *PoolMetrics) ResetRejectionCount() {
	pm.rejectionCount.Store(0)
}

// CumulativeRejectionCount returns all-time rejections.
func (pm *PoolMetrics) CumulativeRejectionCount() int64 {
	return pm.cumulativeRejectionCount.Load()
}
