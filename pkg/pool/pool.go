// Package pool implements the bounded worker pool providing thread
// isolation of Command.run() (spec.md §4.6), plus a weighted-semaphore
// admission primitive for the SEMAPHORE isolation strategy.
package pool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/mattsp1290/hystrix-go/pkg/hystrixerr"
	"github.com/mattsp1290/hystrix-go/pkg/metrics"
)

// Handle resolves to the outcome of one Submit call.
type Handle struct {
	done   chan struct{}
	result interface{}
	err    error
}

// Wait blocks until the submitted work completes or ctx is done, whichever
// comes first. A ctx cancellation does not stop the underlying work; it
// only stops the caller from waiting on it.
func (h *Handle) Wait(ctx context.Context) (interface{}, error) {
	select {
	case <-h.done:
		return h.result, h.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type job struct {
	fn     func() (interface{}, error)
	handle *Handle
}

// Pool is a bounded worker pool keyed by pool key. Submissions beyond the
// queue's capacity fail immediately with PoolRejected rather than blocking
// the caller or falling back to direct execution.
type Pool struct {
	poolKey    string
	maxWorkers int
	jobQueue   chan *job
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	started    atomic.Bool
	startOnce  sync.Once
	stopOnce   sync.Once

	metrics *metrics.PoolMetrics
	active  atomic.Int64
}

// New constructs a Pool with maxWorkers workers and a queue of the given
// capacity. poolMetrics may be nil, in which case active/queue counters are
// tracked internally but not published.
func New(poolKey string, maxWorkers, queueSize int, poolMetrics *metrics.PoolMetrics) *Pool {
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		poolKey:    poolKey,
		maxWorkers: maxWorkers,
		jobQueue:   make(chan *job, queueSize),
		ctx:        ctx,
		cancel:     cancel,
		metrics:    poolMetrics,
	}
}

// PoolKey returns the key this Pool was constructed for.
func (p *Pool) PoolKey() string {
	return p.poolKey
}

// Start launches the worker goroutines. Idempotent.
func (p *Pool) Start() {
	p.startOnce.Do(func() {
		p.started.Store(true)
		for i := 0; i < p.maxWorkers; i++ {
			p.wg.Add(1)
			go p.worker()
		}
	})
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case j, ok := <-p.jobQueue:
			if !ok {
				return
			}
			p.runJob(j)
		}
	}
}

func (p *Pool) runJob(j *job) {
	defer func() {
		if r := recover(); r != nil {
			j.handle.err = fmt.Errorf("pool worker panic: %v", r)
		}
		close(j.handle.done)
	}()
	defer func() {
		n := p.active.Add(-1)
		if p.metrics != nil {
			p.metrics.SetActiveCount(n)
		}
	}()

	n := p.active.Add(1)
	if p.metrics != nil {
		p.metrics.SetActiveCount(n)
	}

	j.handle.result, j.handle.err = j.fn()
}

// Submit queues fn for execution by a worker. If the pool has not been
// started, it is started automatically. If the queue is full, Submit
// returns a PoolRejected error immediately rather than blocking.
func (p *Pool) Submit(fn func() (interface{}, error)) (*Handle, error) {
	if !p.started.Load() {
		p.Start()
	}

	h := &Handle{done: make(chan struct{})}
	j := &job{fn: fn, handle: h}

	select {
	case p.jobQueue <- j:
		if p.metrics != nil {
			p.metrics.SetQueueSize(int64(len(p.jobQueue)))
		}
		return h, nil
	default:
		if p.metrics != nil {
			p.metrics.MarkRejection()
		}
		return nil, hystrixerr.NewPoolRejected(p.poolKey)
	}
}

// ActiveCount returns the number of workers currently executing run().
func (p *Pool) ActiveCount() int64 {
	return p.active.Load()
}

// QueueSize returns the current number of queued-but-not-yet-running jobs.
func (p *Pool) QueueSize() int {
	return len(p.jobQueue)
}

// Stop cancels outstanding workers and waits for them to exit. Workers
// mid-run() are not interrupted; Stop waits for them to return naturally.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		p.cancel()
		close(p.jobQueue)
		p.wg.Wait()
	})
}
