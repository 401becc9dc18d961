package command

import (
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/mattsp1290/hystrix-go/pkg/cache"
	"github.com/mattsp1290/hystrix-go/pkg/config"
	"github.com/mattsp1290/hystrix-go/pkg/metrics"
	"github.com/mattsp1290/hystrix-go/pkg/pool"
)

// Builder constructs a Command[T], resolving it against a shared Registry
// so the CommandMetrics/CircuitBreaker/Pool singletons for its key are
// created at most once per process.
type Builder[T any] struct {
	registry *Registry

	commandKey string
	groupKey   string
	poolKey    string
	props      *config.Properties

	run        RunFunc[T]
	fallback   FallbackFunc[T]
	cacheKeyFn CacheKeyFunc
	cacheStore cache.Store[T]

	notifier metrics.EventNotifier
	logger   *zap.Logger
	tracer   trace.Tracer

	errs []error
}

// NewBuilder starts building a Command for commandKey around run, against
// registry's shared singleton pools.
func NewBuilder[T any](registry *Registry, commandKey string, run RunFunc[T]) *Builder[T] {
	return &Builder[T]{
		registry:   registry,
		commandKey: NewCommandKey(commandKey),
		run:        run,
	}
}

// WithGroupKey overrides the default "<CommandKey>Group".
func (b *Builder[T]) WithGroupKey(groupKey string) *Builder[T] {
	b.groupKey = groupKey
	return b
}

// WithPoolKey overrides the default (the resolved GroupKey).
func (b *Builder[T]) WithPoolKey(poolKey string) *Builder[T] {
	b.poolKey = poolKey
	return b
}

// WithProperties overrides the spec-default Properties for this command.
func (b *Builder[T]) WithProperties(props *config.Properties) *Builder[T] {
	b.props = props
	return b
}

// WithFallback supplies the recovery path used when run() fails.
func (b *Builder[T]) WithFallback(fn FallbackFunc[T]) *Builder[T] {
	b.fallback = fn
	return b
}

// WithCacheKey enables request-cache participation for this command.
func (b *Builder[T]) WithCacheKey(fn CacheKeyFunc) *Builder[T] {
	b.cacheKeyFn = fn
	return b
}

// WithCacheStore supplies the cache.Store backing WithCacheKey lookups.
// Defaults to cache.NoopStore, which always misses.
func (b *Builder[T]) WithCacheStore(store cache.Store[T]) *Builder[T] {
	b.cacheStore = store
	return b
}

// WithNotifier attaches an EventNotifier. Defaults to metrics.NoopEventNotifier.
func (b *Builder[T]) WithNotifier(n metrics.EventNotifier) *Builder[T] {
	b.notifier = n
	return b
}

// WithLogger attaches a zap.Logger. Defaults to zap.NewNop().
func (b *Builder[T]) WithLogger(logger *zap.Logger) *Builder[T] {
	b.logger = logger
	return b
}

// WithTracer attaches an OpenTelemetry tracer. Defaults to the global
// tracer provider's "hystrix" tracer.
func (b *Builder[T]) WithTracer(tracer trace.Tracer) *Builder[T] {
	b.tracer = tracer
	return b
}

func (b *Builder[T]) validate() {
	if b.commandKey == "" {
		b.errs = append(b.errs, errors.New("command: command key must not be empty"))
	}
	if b.run == nil {
		b.errs = append(b.errs, fmt.Errorf("command %q: run function must not be nil", b.commandKey))
	}
}

// Build resolves defaults, registers this command's singletons against the
// Registry, and returns the constructed Command.
func (b *Builder[T]) Build() (*Command[T], error) {
	b.validate()
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}

	groupKey := b.groupKey
	if groupKey == "" {
		groupKey = DefaultGroupKey(b.commandKey)
	}
	poolKey := b.poolKey
	if poolKey == "" {
		poolKey = groupKey
	}

	props := b.props
	if props == nil {
		props = config.Defaults(b.commandKey)
	}

	notifier := b.notifier
	if notifier == nil {
		notifier = metrics.NoopEventNotifier{}
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	tracer := b.tracer
	if tracer == nil {
		tracer = otel.Tracer("hystrix")
	}

	cacheStore := b.cacheStore
	if cacheStore == nil {
		cacheStore = cache.NoopStore[T]{}
	}

	cm, err := b.registry.metricsFor(b.commandKey, props, notifier)
	if err != nil {
		return nil, fmt.Errorf("command %q: %w", b.commandKey, err)
	}
	cb := b.registry.breakerFor(b.commandKey, cm, props)
	b.registry.registerGroupMember(groupKey, b.commandKey)

	var workerPool *pool.Pool
	var poolMetrics *metrics.PoolMetrics
	var execSem *pool.Semaphore
	if props.ExecutionIsolationStrategy == config.IsolationSemaphore {
		execSem = pool.NewSemaphore(b.commandKey, props.ExecutionIsolationSemaphoreMaxConcurrent)
	} else {
		workerPool, poolMetrics = b.registry.poolFor(poolKey, props)
	}
	fallbackSem := pool.NewSemaphore(b.commandKey+":fallback", props.FallbackIsolationSemaphoreMaxConcurrent)

	return &Command[T]{
		commandKey:  b.commandKey,
		groupKey:    groupKey,
		poolKey:     poolKey,
		props:       props,
		run:         b.run,
		fallback:    b.fallback,
		cacheKeyFn:  b.cacheKeyFn,
		cacheStore:  cacheStore,
		metrics:     cm,
		breaker:     cb,
		workerPool:  workerPool,
		poolMetrics: poolMetrics,
		execSem:     execSem,
		fallbackSem: fallbackSem,
		notifier:    notifier,
		logger:      logger,
		tracer:      tracer,
		clk:         b.registry.clk,
	}, nil
}

// MustBuild is Build but panics on error, for package-init-time wiring
// where a construction failure is a programmer error.
func (b *Builder[T]) MustBuild() *Command[T] {
	c, err := b.Build()
	if err != nil {
		panic(err)
	}
	return c
}
