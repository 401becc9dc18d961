// Package config resolves the per-command-key Properties this library's
// other packages depend on. It has no knowledge of external configuration
// stores: callers either take the defaults, override them with a
// PropertiesBuilder, or load a defaults file with DefaultsFromYAML.
package config

import "time"

// IsolationStrategy selects how Command dispatches run().
type IsolationStrategy string

const (
	IsolationThread    IsolationStrategy = "THREAD"
	IsolationSemaphore IsolationStrategy = "SEMAPHORE"
)

// Properties is the fully resolved configuration for one command key.
type Properties struct {
	CommandKey string

	MetricsRollingStatsWindowMs   int64
	MetricsRollingStatsBuckets    int
	MetricsRollingPercentileEnabled    bool
	MetricsRollingPercentileWindowMs   int64
	MetricsRollingPercentileBuckets    int
	MetricsRollingPercentileBucketSize int
	MetricsHealthSnapshotIntervalMs    int64

	CircuitBreakerEnabled               bool
	CircuitBreakerRequestVolumeThreshold int64
	CircuitBreakerSleepWindowMs          int64
	CircuitBreakerErrorThresholdPercent  int64
	CircuitBreakerForceOpen              bool
	CircuitBreakerForceClosed            bool

	ExecutionIsolationStrategy              IsolationStrategy
	ExecutionIsolationThreadTimeoutMs       int64
	ExecutionIsolationThreadInterruptOnTimeout bool
	ExecutionIsolationSemaphoreMaxConcurrent int64

	FallbackIsolationSemaphoreMaxConcurrent int64
	FallbackEnabled                         bool

	RequestCacheEnabled bool
	RequestLogEnabled   bool
}

// ExecutionTimeout returns the configured thread-isolation timeout as a
// time.Duration.
func (p *Properties) ExecutionTimeout() time.Duration {
	return time.Duration(p.ExecutionIsolationThreadTimeoutMs) * time.Millisecond
}

// Defaults returns the spec-mandated default Properties for commandKey.
func Defaults(commandKey string) *Properties {
	return &Properties{
		CommandKey: commandKey,

		MetricsRollingStatsWindowMs:        10000,
		MetricsRollingStatsBuckets:         10,
		MetricsRollingPercentileEnabled:    true,
		MetricsRollingPercentileWindowMs:   60000,
		MetricsRollingPercentileBuckets:    6,
		MetricsRollingPercentileBucketSize: 100,
		MetricsHealthSnapshotIntervalMs:    500,

		CircuitBreakerEnabled:                true,
		CircuitBreakerRequestVolumeThreshold: 20,
		CircuitBreakerSleepWindowMs:          5000,
		CircuitBreakerErrorThresholdPercent:  50,
		CircuitBreakerForceOpen:              false,
		CircuitBreakerForceClosed:            false,

		ExecutionIsolationStrategy:                 IsolationThread,
		ExecutionIsolationThreadTimeoutMs:          1000,
		ExecutionIsolationThreadInterruptOnTimeout: true,
		ExecutionIsolationSemaphoreMaxConcurrent:   10,

		FallbackIsolationSemaphoreMaxConcurrent: 10,
		FallbackEnabled:                         true,

		RequestCacheEnabled: true,
		RequestLogEnabled:   true,
	}
}
