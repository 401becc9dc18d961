// Package breaker implements the CircuitBreaker state machine described in
// spec.md §4.5: a pure function of a periodically-refreshed health
// snapshot, gating command admission.
package breaker

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/mattsp1290/hystrix-go/internal/clock"
	"github.com/mattsp1290/hystrix-go/pkg/config"
	"github.com/mattsp1290/hystrix-go/pkg/metrics"
)

// State is one of the three circuit breaker states.
type State int32

const (
	Closed State = iota
	Open
	HalfOpen
)

// String returns the Hystrix-style upper-snake name of the state.
func (s State) String() string {
	switch s {
	case Closed:
		return "CLOSED"
	case Open:
		return "OPEN"
	case HalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// HealthSource is the subset of CommandMetrics the breaker depends on.
// CircuitBreaker never mutates metrics; it only reads the health snapshot.
type HealthSource interface {
	HealthCounts() metrics.HealthSnapshot
}

// CircuitBreaker gates admission for one command key based on its rolling
// error health. All transitions are expressed as atomic CAS operations so
// concurrent callers never observe more than one in-flight HALF_OPEN trial.
type CircuitBreaker struct {
	commandKey string
	clk        clock.Clock
	health     HealthSource
	logger     *zap.Logger

	enabled                bool
	requestVolumeThreshold int64
	errorThresholdPercent  int64
	sleepWindowMs          int64

	forceOpen   atomic.Bool
	forceClosed atomic.Bool

	state      atomic.Int32
	openedAtMs atomic.Int64
}

// New constructs a CircuitBreaker for commandKey, reading trip thresholds
// from props and forcing flags from props' initial values.
func New(commandKey string, clk clock.Clock, health HealthSource, props *config.Properties, logger *zap.Logger) *CircuitBreaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	cb := &CircuitBreaker{
		commandKey:             commandKey,
		clk:                    clk,
		health:                 health,
		logger:                 logger,
		enabled:                props.CircuitBreakerEnabled,
		requestVolumeThreshold: props.CircuitBreakerRequestVolumeThreshold,
		errorThresholdPercent:  props.CircuitBreakerErrorThresholdPercent,
		sleepWindowMs:          props.CircuitBreakerSleepWindowMs,
	}
	cb.forceOpen.Store(props.CircuitBreakerForceOpen)
	cb.forceClosed.Store(props.CircuitBreakerForceClosed)
	return cb
}

// CommandKey returns the key this breaker guards.
func (cb *CircuitBreaker) CommandKey() string {
	return cb.commandKey
}

// State returns the breaker's current state.
func (cb *CircuitBreaker) State() State {
	return State(cb.state.Load())
}

// SetForceOpen toggles circuit_breaker.force_open.
func (cb *CircuitBreaker) SetForceOpen(forced bool) {
	cb.forceOpen.Store(forced)
}

// SetForceClosed toggles circuit_breaker.force_closed.
func (cb *CircuitBreaker) SetForceClosed(forced bool) {
	cb.forceClosed.Store(forced)
}

// AllowRequest reports whether a new invocation may proceed. force_open
// takes precedence over force_closed. Disabling the breaker entirely makes
// every request admissible and skips all bookkeeping. The only side effect
// this method may perform is the implicit OPEN→HALF_OPEN transition, CAS
// guarded so at most one caller wins the trial per sleep window.
func (cb *CircuitBreaker) AllowRequest() bool {
	if cb.forceOpen.Load() {
		return false
	}
	if cb.forceClosed.Load() {
		return true
	}
	if !cb.enabled {
		return true
	}

	switch State(cb.state.Load()) {
	case Closed:
		if cb.tripped() {
			if cb.state.CompareAndSwap(int32(Closed), int32(Open)) {
				cb.openedAtMs.Store(cb.clk.NowMillis())
				cb.logger.Debug("circuit breaker opened",
					zap.String("command_key", cb.commandKey))
			}
			return false
		}
		return true
	case Open:
		now := cb.clk.NowMillis()
		opened := cb.openedAtMs.Load()
		if now-opened < cb.sleepWindowMs {
			return false
		}
		if cb.state.CompareAndSwap(int32(Open), int32(HalfOpen)) {
			cb.logger.Debug("circuit breaker allowing half-open trial",
				zap.String("command_key", cb.commandKey))
			return true
		}
		return false
	case HalfOpen:
		return false
	default:
		return false
	}
}

func (cb *CircuitBreaker) tripped() bool {
	h := cb.health.HealthCounts()
	return h.Total >= cb.requestVolumeThreshold && h.ErrorPercent >= cb.errorThresholdPercent
}

// MarkSuccess reports that a command completed successfully. If the
// breaker was HALF_OPEN awaiting this trial, it closes.
func (cb *CircuitBreaker) MarkSuccess() {
	if cb.state.CompareAndSwap(int32(HalfOpen), int32(Closed)) {
		cb.openedAtMs.Store(0)
		cb.logger.Debug("circuit breaker closed after successful trial",
			zap.String("command_key", cb.commandKey))
	}
}

// MarkFailure reports that a command failed. If the breaker was HALF_OPEN
// awaiting this trial, it reopens.
func (cb *CircuitBreaker) MarkFailure() {
	if cb.state.CompareAndSwap(int32(HalfOpen), int32(Open)) {
		cb.openedAtMs.Store(cb.clk.NowMillis())
		cb.logger.Debug("circuit breaker reopened after failed trial",
			zap.String("command_key", cb.commandKey))
	}
}
