// Package command implements Command and its execution pipeline
// (spec.md §4.7): admission through the circuit breaker, request-scoped
// cache lookup, isolation dispatch through a Pool or Semaphore, and the
// fallback path, tying together every other package in this module.
package command

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/mattsp1290/hystrix-go/internal/clock"
	"github.com/mattsp1290/hystrix-go/pkg/breaker"
	"github.com/mattsp1290/hystrix-go/pkg/cache"
	"github.com/mattsp1290/hystrix-go/pkg/config"
	"github.com/mattsp1290/hystrix-go/pkg/hystrixerr"
	"github.com/mattsp1290/hystrix-go/pkg/metrics"
	"github.com/mattsp1290/hystrix-go/pkg/pool"
	"github.com/mattsp1290/hystrix-go/pkg/rolling"
)

// defaultMaxWorkers and defaultQueueSize size a newly created Pool per
// spec.md §4.6's max_workers default of 5. A bounded queue the same depth
// as the worker count gives THREAD isolation some burst absorption without
// masking sustained overload.
const (
	defaultMaxWorkers = 5
	defaultQueueSize  = 5
)

// RunFunc is the risky operation a Command wraps. It is mandatory.
type RunFunc[T any] func(ctx context.Context) (T, error)

// FallbackFunc recovers from run()'s failure. cause is the terminal error
// the primary path produced. A Command with no FallbackFunc fails with
// FallbackNotImplemented whenever the primary path fails.
type FallbackFunc[T any] func(ctx context.Context, cause error) (T, error)

// CacheKeyFunc returns the request-scoped cache key for one invocation and
// whether the invocation participates in caching at all. Commands with no
// CacheKeyFunc never consult the cache.
type CacheKeyFunc func() (key string, ok bool)

// Command is one named, independently circuit-broken operation. The zero
// value is not usable; construct with NewBuilder.
type Command[T any] struct {
	commandKey string
	groupKey   string
	poolKey    string
	props      *config.Properties

	run        RunFunc[T]
	fallback   FallbackFunc[T]
	cacheKeyFn CacheKeyFunc
	cacheStore cache.Store[T]

	metrics     *metrics.CommandMetrics
	breaker     *breaker.CircuitBreaker
	workerPool  *pool.Pool
	poolMetrics *metrics.PoolMetrics
	execSem     *pool.Semaphore
	fallbackSem *pool.Semaphore

	notifier metrics.EventNotifier
	logger   *zap.Logger
	tracer   trace.Tracer
	clk      clock.Clock
}

// CommandKey returns the key this Command was built with.
func (c *Command[T]) CommandKey() string { return c.commandKey }

// GroupKey returns the resolved group key (explicit or defaulted).
func (c *Command[T]) GroupKey() string { return c.groupKey }

// PoolKey returns the resolved pool key (explicit or defaulted to GroupKey).
func (c *Command[T]) PoolKey() string { return c.poolKey }

// Metrics exposes the CommandMetrics backing this command, mainly for
// dashboards and tests.
func (c *Command[T]) Metrics() *metrics.CommandMetrics { return c.metrics }

// Breaker exposes the CircuitBreaker guarding this command.
func (c *Command[T]) Breaker() *breaker.CircuitBreaker { return c.breaker }

// Handle resolves asynchronously to the outcome of one Queue/Observe call.
type Handle[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Wait blocks until the invocation completes or ctx is done.
func (h *Handle[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-h.done:
		return h.value, h.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Execute runs the command synchronously and returns run()'s result, or
// fallback()'s result if the primary path fails, or a terminal error.
func (c *Command[T]) Execute(ctx context.Context) (T, error) {
	h, err := c.Queue(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	return h.Wait(context.Background())
}

// Queue submits the command for asynchronous execution and returns a
// Handle immediately. ctx is the parent for tracing and best-effort
// cancellation; it is not itself a second execution deadline layered on
// top of execution.isolation.thread.timeout_ms.
func (c *Command[T]) Queue(ctx context.Context) (*Handle[T], error) {
	h := &Handle[T]{done: make(chan struct{})}
	invocationID := uuid.NewString()
	go func() {
		h.value, h.err = c.invoke(ctx, invocationID)
		close(h.done)
	}()
	return h, nil
}

// Observe is identical to Queue in this core: there is no reactive push
// model, only a resolvable handle.
func (c *Command[T]) Observe(ctx context.Context) (*Handle[T], error) {
	return c.Queue(ctx)
}

func (c *Command[T]) invoke(ctx context.Context, invocationID string) (T, error) {
	ctx, span := c.tracer.Start(ctx, "hystrix."+c.commandKey)
	defer span.End()
	span.SetAttributes(
		attribute.String("hystrix.group_key", c.groupKey),
		attribute.String("hystrix.pool_key", c.poolKey),
		attribute.String("hystrix.isolation", string(c.props.ExecutionIsolationStrategy)),
		attribute.String("hystrix.invocation_id", invocationID),
	)

	logger := c.logger.With(
		zap.String("command_key", c.commandKey),
		zap.String("invocation_id", invocationID),
	)

	start := time.Now()

	// 1. Admission.
	if !c.breaker.AllowRequest() {
		c.metrics.MarkShortCircuited()
		return c.fallbackPath(ctx, logger, span, start, hystrixerr.NewShortCircuited(c.commandKey), []rolling.Kind{rolling.ShortCircuited})
	}

	// 2. Cache lookup.
	var cacheKey string
	var hasCacheKey bool
	if c.props.RequestCacheEnabled && c.cacheKeyFn != nil {
		cacheKey, hasCacheKey = c.cacheKeyFn()
		if hasCacheKey {
			if v, hit := c.cacheStore.Get(cacheKey); hit {
				c.metrics.MarkResponseFromCache()
				c.notifier.MarkCommandExecution(c.commandKey, c.props.ExecutionIsolationStrategy, time.Since(start), []rolling.Kind{rolling.ResponseFromCache})
				span.SetAttributes(attribute.Bool("hystrix.cache_hit", true))
				return v, nil
			}
		}
	}

	// 3. Isolation dispatch + 4. timed wait.
	value, execErr, kinds := c.dispatch(ctx)
	if execErr == nil {
		if hasCacheKey {
			c.cacheStore.Put(cacheKey, value)
		}
		c.notifier.MarkCommandExecution(c.commandKey, c.props.ExecutionIsolationStrategy, time.Since(start), kinds)
		span.SetStatus(codes.Ok, "")
		return value, nil
	}

	return c.fallbackPath(ctx, logger, span, start, execErr, kinds)
}

// dispatch runs step 3/4 of the pipeline: submit run() under the
// configured isolation strategy and wait up to execution_timeout_ms.
func (c *Command[T]) dispatch(ctx context.Context) (T, error, []rolling.Kind) {
	if c.props.ExecutionIsolationStrategy == config.IsolationSemaphore {
		return c.dispatchSemaphore(ctx)
	}
	return c.dispatchThread(ctx)
}

func (c *Command[T]) dispatchThread(ctx context.Context) (T, error, []rolling.Kind) {
	var zero T

	runCtx, cancel := context.WithCancel(ctx)

	handle, err := c.workerPool.Submit(func() (interface{}, error) {
		return c.run(runCtx)
	})
	if err != nil {
		cancel()
		c.metrics.MarkThreadPoolRejected()
		return zero, err, []rolling.Kind{rolling.ThreadPoolRejected}
	}
	c.metrics.UpdateThreadMaxActive(c.workerPool.ActiveCount())

	waitCtx, waitCancel := context.WithTimeout(ctx, c.props.ExecutionTimeout())
	defer waitCancel()

	started := time.Now()
	raw, waitErr := handle.Wait(waitCtx)
	elapsed := time.Since(started)

	if errors.Is(waitErr, context.DeadlineExceeded) {
		if c.props.ExecutionIsolationThreadInterruptOnTimeout {
			cancel()
		}
		c.metrics.MarkTimeout(c.props.ExecutionTimeout())
		return zero, hystrixerr.NewExecutionTimeout(c.commandKey, c.props.ExecutionTimeout()), []rolling.Kind{rolling.Timeout}
	}
	cancel()

	if waitErr != nil {
		c.metrics.MarkFailure(elapsed)
		return zero, hystrixerr.NewExecutionFailure(c.commandKey, elapsed, waitErr), []rolling.Kind{rolling.Failure}
	}

	c.metrics.MarkSuccess(elapsed)
	c.breaker.MarkSuccess()
	value, _ := raw.(T)
	return value, nil, []rolling.Kind{rolling.Success}
}

type semaphoreResult[T any] struct {
	value T
	err   error
}

func (c *Command[T]) dispatchSemaphore(ctx context.Context) (T, error, []rolling.Kind) {
	var zero T

	if !c.execSem.TryAcquire() {
		c.metrics.MarkSemaphoreRejected()
		return zero, hystrixerr.NewSemaphoreRejected(c.commandKey), []rolling.Kind{rolling.SemaphoreRejected}
	}
	defer c.execSem.Release()

	runCtx, cancel := context.WithTimeout(ctx, c.props.ExecutionTimeout())
	defer cancel()

	done := make(chan semaphoreResult[T], 1)
	started := time.Now()
	go func() {
		v, err := c.run(runCtx)
		done <- semaphoreResult[T]{value: v, err: err}
	}()

	select {
	case r := <-done:
		elapsed := time.Since(started)
		if r.err != nil {
			c.metrics.MarkFailure(elapsed)
			return zero, hystrixerr.NewExecutionFailure(c.commandKey, elapsed, r.err), []rolling.Kind{rolling.Failure}
		}
		c.metrics.MarkSuccess(elapsed)
		c.breaker.MarkSuccess()
		return r.value, nil, []rolling.Kind{rolling.Success}
	case <-runCtx.Done():
		c.metrics.MarkTimeout(c.props.ExecutionTimeout())
		return zero, hystrixerr.NewExecutionTimeout(c.commandKey, c.props.ExecutionTimeout()), []rolling.Kind{rolling.Timeout}
	}
}

// fallbackPath implements step 5 of the pipeline.
func (c *Command[T]) fallbackPath(ctx context.Context, logger *zap.Logger, span trace.Span, start time.Time, cause error, kinds []rolling.Kind) (T, error) {
	var zero T

	finish := func(terminal error, extra rolling.Kind) (T, error) {
		c.notifier.MarkCommandExecution(c.commandKey, c.props.ExecutionIsolationStrategy, time.Since(start), append(kinds, extra))
		logger.Warn("command terminated via fallback path", zap.Error(terminal))
		span.RecordError(terminal)
		span.SetStatus(codes.Error, terminal.Error())
		return zero, terminal
	}

	// A no-op unless this invocation was the in-flight HALF_OPEN trial.
	c.breaker.MarkFailure()

	if !c.props.FallbackEnabled || c.fallback == nil {
		c.metrics.MarkFallbackFailure()
		return finish(hystrixerr.NewFallbackNotImplemented(c.commandKey, cause), rolling.FallbackFailure)
	}

	if !c.fallbackSem.TryAcquire() {
		c.metrics.MarkFallbackRejection()
		return finish(hystrixerr.NewFallbackRejection(c.commandKey, cause), rolling.FallbackRejection)
	}
	defer c.fallbackSem.Release()

	value, err := c.fallback(ctx, cause)
	if err != nil {
		c.metrics.MarkFallbackFailure()
		return finish(hystrixerr.NewFallbackFailure(c.commandKey, errors.Join(err, cause)), rolling.FallbackFailure)
	}

	c.metrics.MarkFallbackSuccess()
	c.notifier.MarkCommandExecution(c.commandKey, c.props.ExecutionIsolationStrategy, time.Since(start), append(kinds, rolling.FallbackSuccess))
	span.SetStatus(codes.Ok, "")
	return value, nil
}
