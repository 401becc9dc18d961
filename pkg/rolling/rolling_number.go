// Package rolling implements the bucketed rolling-window event counter
// described by the Hystrix RollingNumber: a fixed-duration window divided
// into equal buckets, where counters and max-updaters accumulate per bucket
// and roll off as the window advances, while a CumulativeSum survives
// rollover for lifetime totals.
package rolling

import (
	"sync"

	"github.com/mattsp1290/hystrix-go/internal/clock"
	"github.com/mattsp1290/hystrix-go/pkg/hystrixerr"
)

// Number is a bucketed rolling counter over a fixed time window, optimized
// for high write concurrency and low read concurrency: writes touch a
// single atomic cell, reads iterate a snapshot of live buckets.
type Number struct {
	clk               clock.Clock
	windowMillis      int64
	bucketCount       int
	bucketWidthMillis int64

	ring       *bucketRing
	cumulative cumulativeSum

	// rolloverMu guards bucket creation/retirement. The fast path (reading
	// an unexpired head) never touches it.
	rolloverMu sync.Mutex
}

// New constructs a Number dividing windowMillis into bucketCount equal
// buckets. It returns a ConfigError if windowMillis does not divide evenly.
func New(clk clock.Clock, windowMillis int64, bucketCount int) (*Number, error) {
	if bucketCount <= 0 {
		return nil, hystrixerr.NewConfigError("bucket_count must be positive")
	}
	if windowMillis%int64(bucketCount) != 0 {
		return nil, hystrixerr.NewConfigError("window_ms must divide evenly into bucket_count")
	}
	return &Number{
		clk:               clk,
		windowMillis:      windowMillis,
		bucketCount:       bucketCount,
		bucketWidthMillis: windowMillis / int64(bucketCount),
		ring:              newBucketRing(bucketCount),
	}, nil
}

// BucketWidthMillis returns window_ms / bucket_count.
func (n *Number) BucketWidthMillis() int64 {
	return n.bucketWidthMillis
}

// Increment adds 1 to the current bucket's counter for kind.
func (n *Number) Increment(kind Kind) error {
	return n.Add(kind, 1)
}

// Add adds delta to the current bucket's counter for kind. kind must be a
// counter kind.
func (n *Number) Add(kind Kind, delta int64) error {
	if !kind.IsCounter() {
		return hystrixerr.NewTypeMismatch(kind.String() + " is not a counter kind")
	}
	n.currentBucket().add(kind, delta)
	return nil
}

// UpdateRollingMax sets the current bucket's max for kind to
// max(existing, value). kind must be a max-updater kind.
func (n *Number) UpdateRollingMax(kind Kind, value int64) error {
	if !kind.IsMaxUpdater() {
		return hystrixerr.NewTypeMismatch(kind.String() + " is not a max-updater kind")
	}
	n.currentBucket().updateMax(kind, value)
	return nil
}

// RollingSum sums kind across every live bucket.
func (n *Number) RollingSum(kind Kind) int64 {
	n.currentBucket() // force any pending rollover so the view is fresh
	var sum int64
	for _, b := range n.ring.view() {
		sum += b.sum(kind)
	}
	return sum
}

// RollingMax returns the maximum of kind across every live bucket.
func (n *Number) RollingMax(kind Kind) int64 {
	values := n.Values(kind)
	if len(values) == 0 {
		return 0
	}
	max := values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

// Values returns per-bucket values for kind, newest first.
func (n *Number) Values(kind Kind) []int64 {
	n.currentBucket()
	view := n.ring.view()
	values := make([]int64, len(view))
	for i, b := range view {
		values[i] = b.get(kind)
	}
	return values
}

// ValueOfLatestBucket returns kind's value in the current (newest) bucket.
func (n *Number) ValueOfLatestBucket(kind Kind) int64 {
	return n.currentBucket().get(kind)
}

// CumulativeSum returns the all-time total for kind: the retired-bucket
// cumulative plus whatever the still-live current bucket holds.
func (n *Number) CumulativeSum(kind Kind) int64 {
	return n.ValueOfLatestBucket(kind) + n.cumulative.get(kind)
}

// Reset retires the current bucket into the cumulative sum and clears the
// ring. CumulativeSum values are unaffected.
func (n *Number) Reset() {
	n.rolloverMu.Lock()
	defer n.rolloverMu.Unlock()
	n.resetLocked()
}

func (n *Number) resetLocked() {
	if head := n.ring.head(); head != nil {
		n.cumulative.merge(head)
	}
	n.ring.clear()
}

// currentBucket implements the §4.2 algorithm: a lock-free fast path when
// the head bucket hasn't expired, falling back to the rollover lock to
// create/advance buckets otherwise.
func (n *Number) currentBucket() *Bucket {
	now := n.clk.NowMillis()

	if head := n.ring.head(); head != nil && now < head.windowStartMillis+n.bucketWidthMillis {
		return head
	}

	n.rolloverMu.Lock()
	defer n.rolloverMu.Unlock()
	return n.currentBucketLocked(now)
}

func (n *Number) currentBucketLocked(now int64) *Bucket {
	head := n.ring.head()
	if head == nil {
		nb := newBucket(now)
		n.ring.push(nb)
		return nb
	}

	for i := 0; i < n.bucketCount; i++ {
		head = n.ring.head()
		switch {
		case now < head.windowStartMillis+n.bucketWidthMillis:
			return head
		case now-(head.windowStartMillis+n.bucketWidthMillis) > n.windowMillis:
			// Fell off the window entirely: start fresh.
			n.resetLocked()
			return n.currentBucketLocked(now)
		default:
			nb := newBucket(head.windowStartMillis + n.bucketWidthMillis)
			n.cumulative.merge(head)
			n.ring.push(nb)
		}
	}
	return n.ring.head()
}
