// Package percentile implements the bucketed rolling latency-percentile
// tracker described by the Hystrix RollingPercentile: a fixed window of
// fixed-capacity sample rings, snapshotted into a sorted, interpolated
// percentile view whenever a bucket rolls off.
package percentile

import (
	"sync"
	"sync/atomic"

	"github.com/mattsp1290/hystrix-go/internal/clock"
	"github.com/mattsp1290/hystrix-go/pkg/hystrixerr"
)

// Rolling is a rolling window of latency samples. When disabled, AddValue
// is a no-op and Percentile/Mean both return -1, matching a pure
// instrumentation toggle that callers can flip without branching their own
// code.
type Rolling struct {
	clk               clock.Clock
	enabled           bool
	windowMillis      int64
	bucketCount       int
	bucketWidthMillis int64
	sampleCapacity    int

	ring        *ring
	snapshotPtr atomic.Pointer[Snapshot]

	rolloverMu sync.Mutex
}

// New constructs a Rolling dividing windowMillis into bucketCount equal
// buckets, each retaining up to sampleCapacityPerBucket latency samples.
func New(clk clock.Clock, windowMillis int64, bucketCount int, sampleCapacityPerBucket int, enabled bool) (*Rolling, error) {
	if bucketCount <= 0 {
		return nil, hystrixerr.NewConfigError("bucket_count must be positive")
	}
	if windowMillis%int64(bucketCount) != 0 {
		return nil, hystrixerr.NewConfigError("window_ms must divide evenly into bucket_count")
	}
	if sampleCapacityPerBucket <= 0 {
		return nil, hystrixerr.NewConfigError("bucket_data_length must be positive")
	}

	r := &Rolling{
		clk:               clk,
		enabled:           enabled,
		windowMillis:       windowMillis,
		bucketCount:       bucketCount,
		bucketWidthMillis: windowMillis / int64(bucketCount),
		sampleCapacity:    sampleCapacityPerBucket,
		ring:              newRing(bucketCount),
	}
	r.snapshotPtr.Store(emptySnapshot)
	return r, nil
}

// Enabled reports whether sample collection is active.
func (r *Rolling) Enabled() bool {
	return r.enabled
}

// AddValue records one or more latency samples into the current bucket. A
// no-op when disabled.
func (r *Rolling) AddValue(values ...int64) {
	if !r.enabled {
		return
	}
	b := r.currentBucket()
	for _, v := range values {
		b.samples.add(v)
	}
}

// Percentile returns the p-th percentile (0-100) of the current snapshot,
// or -1 when disabled.
func (r *Rolling) Percentile(p float64) int64 {
	if !r.enabled {
		return -1
	}
	r.currentBucket()
	return r.currentSnapshot().Percentile(p)
}

// Mean returns the arithmetic mean of the current snapshot, or -1 when
// disabled.
func (r *Rolling) Mean() int64 {
	if !r.enabled {
		return -1
	}
	r.currentBucket()
	return r.currentSnapshot().Mean()
}

// currentSnapshot returns the most recently computed Snapshot.
func (r *Rolling) currentSnapshot() *Snapshot {
	return r.snapshotPtr.Load()
}

func (r *Rolling) currentBucket() *bucket {
	now := r.clk.NowMillis()
	if head := r.ring.head(); head != nil && now < head.windowStartMillis+r.bucketWidthMillis {
		return head
	}

	r.rolloverMu.Lock()
	defer r.rolloverMu.Unlock()
	return r.currentBucketLocked(now)
}

func (r *Rolling) currentBucketLocked(now int64) *bucket {
	head := r.ring.head()
	if head == nil {
		nb := newBucket(now, r.sampleCapacity)
		r.ring.push(nb)
		return nb
	}

	for i := 0; i < r.bucketCount; i++ {
		head = r.ring.head()
		switch {
		case now < head.windowStartMillis+r.bucketWidthMillis:
			return head
		case now-(head.windowStartMillis+r.bucketWidthMillis) > r.windowMillis:
			r.resetLocked()
			return r.currentBucketLocked(now)
		default:
			// Snapshot the buckets that were live before the roll, same as
			// every preceding sample in this newly-superseded head.
			live := r.ring.view()
			r.snapshotPtr.Store(newSnapshot(live))
			nb := newBucket(head.windowStartMillis+r.bucketWidthMillis, r.sampleCapacity)
			r.ring.push(nb)
		}
	}
	return r.ring.head()
}

func (r *Rolling) resetLocked() {
	r.ring.clear()
	r.snapshotPtr.Store(emptySnapshot)
}
