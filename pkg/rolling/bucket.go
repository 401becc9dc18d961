package rolling

import "sync/atomic"

// Bucket holds one bucket_width_ms slice of counters and max-updaters.
// Reads and writes to individual kinds are lock-free atomic operations;
// only bucket creation/retirement (owned by the RollingNumber's ring) needs
// external synchronization.
type Bucket struct {
	windowStartMillis int64
	counts            [numKinds]atomic.Int64
	maxes             [numKinds]atomic.Int64
}

func newBucket(windowStartMillis int64) *Bucket {
	return &Bucket{windowStartMillis: windowStartMillis}
}

// WindowStartMillis returns the bucket's window-start timestamp.
func (b *Bucket) WindowStartMillis() int64 {
	return b.windowStartMillis
}

func (b *Bucket) add(k Kind, n int64) {
	b.counts[k].Add(n)
}

func (b *Bucket) updateMax(k Kind, v int64) {
	for {
		cur := b.maxes[k].Load()
		if v <= cur {
			return
		}
		if b.maxes[k].CompareAndSwap(cur, v) {
			return
		}
	}
}

func (b *Bucket) sum(k Kind) int64 {
	return b.counts[k].Load()
}

func (b *Bucket) max(k Kind) int64 {
	return b.maxes[k].Load()
}

func (b *Bucket) get(k Kind) int64 {
	if k.IsMaxUpdater() {
		return b.max(k)
	}
	return b.sum(k)
}

// cumulativeSum is the side-channel that survives bucket rollover. It shares
// Bucket's storage shape but is never placed in the ring.
type cumulativeSum struct {
	counts [numKinds]atomic.Int64
	maxes  [numKinds]atomic.Int64
}

// merge folds a retired bucket's counts and maxes into the cumulative
// totals. Called once per bucket, at the moment it is superseded as the
// ring's head.
func (c *cumulativeSum) merge(b *Bucket) {
	for k := 0; k < numKinds; k++ {
		kind := Kind(k)
		if kind.IsMaxUpdater() {
			c.updateMax(kind, b.max(kind))
		} else {
			c.counts[k].Add(b.sum(kind))
		}
	}
}

func (c *cumulativeSum) updateMax(k Kind, v int64) {
	for {
		cur := c.maxes[k].Load()
		if v <= cur {
			return
		}
		if c.maxes[k].CompareAndSwap(cur, v) {
			return
		}
	}
}

func (c *cumulativeSum) get(k Kind) int64 {
	if k.IsMaxUpdater() {
		return c.maxes[k].Load()
	}
	return c.counts[k].Load()
}
