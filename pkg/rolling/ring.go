package rolling

import "sync/atomic"

// bucketRing is a fixed-capacity, newest-at-head view of live buckets.
// Mutation (push/clear) must happen under the owning RollingNumber's
// rollover lock; reads are always lock-free via an atomically swapped
// immutable slice, so a concurrent reader never blocks a writer beyond the
// writer's own brief critical section.
type bucketRing struct {
	capacity int
	snapshot atomic.Pointer[[]*Bucket]
}

func newBucketRing(capacity int) *bucketRing {
	r := &bucketRing{capacity: capacity}
	empty := make([]*Bucket, 0)
	r.snapshot.Store(&empty)
	return r
}

// view returns the current newest-first slice of live buckets. Safe for
// concurrent use; never mutate the returned slice.
func (r *bucketRing) view() []*Bucket {
	return *r.snapshot.Load()
}

// head returns the newest bucket, or nil if the ring is empty.
func (r *bucketRing) head() *Bucket {
	v := r.view()
	if len(v) == 0 {
		return nil
	}
	return v[0]
}

// push must be called while holding the rollover lock. It installs b as the
// new head, dropping the oldest bucket if the ring is already at capacity.
func (r *bucketRing) push(b *Bucket) {
	cur := r.view()
	n := len(cur) + 1
	if n > r.capacity {
		n = r.capacity
	}
	next := make([]*Bucket, 1, n)
	next[0] = b
	for i := 0; i < len(cur) && len(next) < r.capacity; i++ {
		next = append(next, cur[i])
	}
	r.snapshot.Store(&next)
}

// clear must be called while holding the rollover lock.
func (r *bucketRing) clear() {
	empty := make([]*Bucket, 0)
	r.snapshot.Store(&empty)
}
