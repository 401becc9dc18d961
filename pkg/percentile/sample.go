package percentile

import "sync/atomic"

// sampleRing is a fixed-capacity wraparound buffer of latency samples: once
// full, the oldest sample is silently overwritten, which has the effect of
// keeping only the most recent capacity samples per bucket.
type sampleRing struct {
	capacity int
	data     []atomic.Int64
	next     atomic.Int64
}

func newSampleRing(capacity int) *sampleRing {
	return &sampleRing{capacity: capacity, data: make([]atomic.Int64, capacity)}
}

func (r *sampleRing) add(value int64) {
	idx := r.next.Add(1) - 1
	r.data[idx%int64(r.capacity)].Store(value)
}

func (r *sampleRing) length() int {
	n := r.next.Load()
	if n > int64(r.capacity) {
		return r.capacity
	}
	return int(n)
}

func (r *sampleRing) values() []int64 {
	n := r.length()
	out := make([]int64, n)
	for i := 0; i < n; i++ {
		out[i] = r.data[i].Load()
	}
	return out
}
