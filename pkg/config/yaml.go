package config

import (
	"io"

	"gopkg.in/yaml.v3"
)

// DefaultsFile is a file-wide override of the package defaults, applied before
// any per-key PropertiesBuilder overrides. Zero-valued fields leave the
// package default untouched; use a pointer-free struct with explicit
// omitted tags is deliberately avoided here since nearly every field has a
// meaningful zero value (false, 0) that a partially-specified YAML file
// must not clobber, so every field is a pointer.
type DefaultsFile struct {
	MetricsRollingStatsWindowMs        *int64  `yaml:"metrics_rolling_stats_window_ms"`
	MetricsRollingStatsBuckets         *int    `yaml:"metrics_rolling_stats_buckets"`
	MetricsRollingPercentileEnabled    *bool   `yaml:"metrics_rolling_percentile_enabled"`
	MetricsRollingPercentileWindowMs   *int64  `yaml:"metrics_rolling_percentile_window_ms"`
	MetricsRollingPercentileBuckets    *int    `yaml:"metrics_rolling_percentile_buckets"`
	MetricsRollingPercentileBucketSize *int    `yaml:"metrics_rolling_percentile_bucket_size"`
	MetricsHealthSnapshotIntervalMs    *int64  `yaml:"metrics_health_snapshot_interval_ms"`
	CircuitBreakerEnabled              *bool   `yaml:"circuit_breaker_enabled"`
	CircuitBreakerRequestVolumeThreshold *int64 `yaml:"circuit_breaker_request_volume_threshold"`
	CircuitBreakerSleepWindowMs        *int64  `yaml:"circuit_breaker_sleep_window_ms"`
	CircuitBreakerErrorThresholdPercent *int64 `yaml:"circuit_breaker_error_threshold_percent"`
	ExecutionIsolationStrategy         *string `yaml:"execution_isolation_strategy"`
	ExecutionIsolationThreadTimeoutMs  *int64  `yaml:"execution_isolation_thread_timeout_ms"`
	FallbackEnabled                    *bool   `yaml:"fallback_enabled"`
	RequestCacheEnabled                *bool   `yaml:"request_cache_enabled"`
	RequestLogEnabled                  *bool   `yaml:"request_log_enabled"`
}

// DefaultsFromYAML parses a file-wide defaults override. This is ambient
// local configuration; it never resolves against an external store.
func DefaultsFromYAML(r io.Reader) (*DefaultsFile, error) {
	var d DefaultsFile
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&d); err != nil && err != io.EOF {
		return nil, err
	}
	return &d, nil
}

func (d *DefaultsFile) applyTo(p *Properties) {
	if d.MetricsRollingStatsWindowMs != nil {
		p.MetricsRollingStatsWindowMs = *d.MetricsRollingStatsWindowMs
	}
	if d.MetricsRollingStatsBuckets != nil {
		p.MetricsRollingStatsBuckets = *d.MetricsRollingStatsBuckets
	}
	if d.MetricsRollingPercentileEnabled != nil {
		p.MetricsRollingPercentileEnabled = *d.MetricsRollingPercentileEnabled
	}
	if d.MetricsRollingPercentileWindowMs != nil {
		p.MetricsRollingPercentileWindowMs = *d.MetricsRollingPercentileWindowMs
	}
	if d.MetricsRollingPercentileBuckets != nil {
		p.MetricsRollingPercentileBuckets = *d.MetricsRollingPercentileBuckets
	}
	if d.MetricsRollingPercentileBucketSize != nil {
		p.MetricsRollingPercentileBucketSize = *d.MetricsRollingPercentileBucketSize
	}
	if d.MetricsHealthSnapshotIntervalMs != nil {
		p.MetricsHealthSnapshotIntervalMs = *d.MetricsHealthSnapshotIntervalMs
	}
	if d.CircuitBreakerEnabled != nil {
		p.CircuitBreakerEnabled = *d.CircuitBreakerEnabled
	}
	if d.CircuitBreakerRequestVolumeThreshold != nil {
		p.CircuitBreakerRequestVolumeThreshold = *d.CircuitBreakerRequestVolumeThreshold
	}
	if d.CircuitBreakerSleepWindowMs != nil {
		p.CircuitBreakerSleepWindowMs = *d.CircuitBreakerSleepWindowMs
	}
	if d.CircuitBreakerErrorThresholdPercent != nil {
		p.CircuitBreakerErrorThresholdPercent = *d.CircuitBreakerErrorThresholdPercent
	}
	if d.ExecutionIsolationStrategy != nil {
		p.ExecutionIsolationStrategy = IsolationStrategy(*d.ExecutionIsolationStrategy)
	}
	if d.ExecutionIsolationThreadTimeoutMs != nil {
		p.ExecutionIsolationThreadTimeoutMs = *d.ExecutionIsolationThreadTimeoutMs
	}
	if d.FallbackEnabled != nil {
		p.FallbackEnabled = *d.FallbackEnabled
	}
	if d.RequestCacheEnabled != nil {
		p.RequestCacheEnabled = *d.RequestCacheEnabled
	}
	if d.RequestLogEnabled != nil {
		p.RequestLogEnabled = *d.RequestLogEnabled
	}
}
