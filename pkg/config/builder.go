package config

import (
	"fmt"
	"time"
)

// PropertiesBuilder provides a fluent API for overriding a command key's
// default Properties.
type PropertiesBuilder struct {
	props  *Properties
	errors []error
}

// NewPropertiesBuilder starts from the spec defaults for commandKey.
func NewPropertiesBuilder(commandKey string) *PropertiesBuilder {
	return &PropertiesBuilder{props: Defaults(commandKey)}
}

// NewPropertiesBuilderFromDefaults starts from a caller-supplied defaults
// table instead of the package defaults, e.g. one loaded from YAML.
func NewPropertiesBuilderFromDefaults(commandKey string, d *DefaultsFile) *PropertiesBuilder {
	b := &PropertiesBuilder{props: Defaults(commandKey)}
	if d == nil {
		return b
	}
	d.applyTo(b.props)
	return b
}

// Build validates and returns the resolved Properties.
func (b *PropertiesBuilder) Build() (*Properties, error) {
	if len(b.errors) > 0 {
		return nil, fmt.Errorf("properties build failed with %d errors: %v", len(b.errors), b.errors)
	}
	if err := b.validate(); err != nil {
		return nil, fmt.Errorf("properties validation failed: %w", err)
	}
	return b.props, nil
}

// MustBuild builds the Properties and panics on error; useful in tests.
func (b *PropertiesBuilder) MustBuild() *Properties {
	p, err := b.Build()
	if err != nil {
		panic(err)
	}
	return p
}

func (b *PropertiesBuilder) WithRollingStatsWindow(windowMs int64, buckets int) *PropertiesBuilder {
	b.props.MetricsRollingStatsWindowMs = windowMs
	b.props.MetricsRollingStatsBuckets = buckets
	return b
}

func (b *PropertiesBuilder) WithRollingPercentile(enabled bool, windowMs int64, buckets, bucketSize int) *PropertiesBuilder {
	b.props.MetricsRollingPercentileEnabled = enabled
	b.props.MetricsRollingPercentileWindowMs = windowMs
	b.props.MetricsRollingPercentileBuckets = buckets
	b.props.MetricsRollingPercentileBucketSize = bucketSize
	return b
}

func (b *PropertiesBuilder) WithHealthSnapshotInterval(intervalMs int64) *PropertiesBuilder {
	b.props.MetricsHealthSnapshotIntervalMs = intervalMs
	return b
}

func (b *PropertiesBuilder) WithCircuitBreaker(enabled bool, requestVolumeThreshold, sleepWindowMs, errorThresholdPercent int64) *PropertiesBuilder {
	b.props.CircuitBreakerEnabled = enabled
	b.props.CircuitBreakerRequestVolumeThreshold = requestVolumeThreshold
	b.props.CircuitBreakerSleepWindowMs = sleepWindowMs
	b.props.CircuitBreakerErrorThresholdPercent = errorThresholdPercent
	return b
}

func (b *PropertiesBuilder) WithForceOpen(forced bool) *PropertiesBuilder {
	b.props.CircuitBreakerForceOpen = forced
	return b
}

func (b *PropertiesBuilder) WithForceClosed(forced bool) *PropertiesBuilder {
	b.props.CircuitBreakerForceClosed = forced
	return b
}

func (b *PropertiesBuilder) WithThreadIsolation(timeout time.Duration, interruptOnTimeout bool) *PropertiesBuilder {
	b.props.ExecutionIsolationStrategy = IsolationThread
	b.props.ExecutionIsolationThreadTimeoutMs = timeout.Milliseconds()
	b.props.ExecutionIsolationThreadInterruptOnTimeout = interruptOnTimeout
	return b
}

func (b *PropertiesBuilder) WithSemaphoreIsolation(maxConcurrent int64) *PropertiesBuilder {
	b.props.ExecutionIsolationStrategy = IsolationSemaphore
	b.props.ExecutionIsolationSemaphoreMaxConcurrent = maxConcurrent
	return b
}

func (b *PropertiesBuilder) WithFallback(enabled bool, semaphoreMaxConcurrent int64) *PropertiesBuilder {
	b.props.FallbackEnabled = enabled
	b.props.FallbackIsolationSemaphoreMaxConcurrent = semaphoreMaxConcurrent
	return b
}

func (b *PropertiesBuilder) WithRequestCache(enabled bool) *PropertiesBuilder {
	b.props.RequestCacheEnabled = enabled
	return b
}

func (b *PropertiesBuilder) WithRequestLog(enabled bool) *PropertiesBuilder {
	b.props.RequestLogEnabled = enabled
	return b
}

func (b *PropertiesBuilder) addError(err error) {
	b.errors = append(b.errors, err)
}

func (b *PropertiesBuilder) validate() error {
	p := b.props
	if p.MetricsRollingStatsBuckets <= 0 {
		return fmt.Errorf("metrics.rolling_stats.buckets must be positive")
	}
	if p.MetricsRollingStatsWindowMs%int64(p.MetricsRollingStatsBuckets) != 0 {
		return fmt.Errorf("metrics.rolling_stats.window_ms must divide evenly into buckets")
	}
	if p.MetricsRollingPercentileBuckets <= 0 {
		return fmt.Errorf("metrics.rolling_percentile.buckets must be positive")
	}
	if p.MetricsRollingPercentileWindowMs%int64(p.MetricsRollingPercentileBuckets) != 0 {
		return fmt.Errorf("metrics.rolling_percentile.window_ms must divide evenly into buckets")
	}
	if p.MetricsRollingPercentileBucketSize <= 0 {
		return fmt.Errorf("metrics.rolling_percentile.bucket_size must be positive")
	}
	if p.CircuitBreakerRequestVolumeThreshold < 0 {
		return fmt.Errorf("circuit_breaker.request_volume_threshold must be non-negative")
	}
	if p.ExecutionIsolationThreadTimeoutMs <= 0 {
		return fmt.Errorf("execution.isolation.thread.timeout_ms must be positive")
	}
	if p.ExecutionIsolationSemaphoreMaxConcurrent <= 0 {
		return fmt.Errorf("execution.isolation.semaphore.max_concurrent must be positive")
	}
	if p.FallbackIsolationSemaphoreMaxConcurrent <= 0 {
		return fmt.Errorf("fallback.isolation.semaphore.max_concurrent must be positive")
	}
	return nil
}
