package pool

import (
	"golang.org/x/sync/semaphore"
)

// Semaphore implements the SEMAPHORE isolation strategy: admission is
// gated by a weighted semaphore instead of a worker pool, so there is no
// queue. The Semaphore runs nothing itself; Command starts each admitted
// run() on its own goroutine so the execution timeout can be enforced, and
// run() does not execute on the goroutine that called Execute.
type Semaphore struct {
	key  string
	sem  *semaphore.Weighted
	size int64
}

// NewSemaphore constructs a Semaphore admitting at most maxConcurrent
// callers at once.
func NewSemaphore(key string, maxConcurrent int64) *Semaphore {
	return &Semaphore{
		key:  key,
		sem:  semaphore.NewWeighted(maxConcurrent),
		size: maxConcurrent,
	}
}

// Key returns the semaphore's key (the command or fallback key it guards).
func (s *Semaphore) Key() string {
	return s.key
}

// TryAcquire attempts to reserve one permit without blocking. In Command, a
// failed execution acquire marks SEMAPHORE_REJECTED and takes the fallback
// path; a failed fallback acquire marks FALLBACK_REJECTION.
func (s *Semaphore) TryAcquire() bool {
	return s.sem.TryAcquire(1)
}

// Release returns a permit acquired via TryAcquire.
func (s *Semaphore) Release() {
	s.sem.Release(1)
}

// MaxConcurrent returns the configured permit count.
func (s *Semaphore) MaxConcurrent() int64 {
	return s.size
}
