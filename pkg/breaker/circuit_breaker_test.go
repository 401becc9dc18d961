package breaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mattsp1290/hystrix-go/internal/clock"
	"github.com/mattsp1290/hystrix-go/pkg/config"
	"github.com/mattsp1290/hystrix-go/pkg/metrics"
)

// fakeHealth lets tests drive HealthCounts() directly without a full
// CommandMetrics/RollingNumber stack.
type fakeHealth struct {
	snapshot metrics.HealthSnapshot
}

func (f *fakeHealth) HealthCounts() metrics.HealthSnapshot {
	return f.snapshot
}

func TestAllowRequestClosedByDefault(t *testing.T) {
	mc := clock.NewMock(0)
	health := &fakeHealth{}
	props := config.Defaults("cmd")
	cb := New("cmd", mc, health, props, nil)

	assert.True(t, cb.AllowRequest())
	assert.Equal(t, Closed, cb.State())
}

func TestForceOpenAlwaysWins(t *testing.T) {
	mc := clock.NewMock(0)
	health := &fakeHealth{}
	props := config.Defaults("cmd")
	props.CircuitBreakerForceOpen = true
	props.CircuitBreakerForceClosed = true
	cb := New("cmd", mc, health, props, nil)

	assert.False(t, cb.AllowRequest())
}

func TestForceClosedOverridesHealth(t *testing.T) {
	mc := clock.NewMock(0)
	health := &fakeHealth{snapshot: metrics.HealthSnapshot{Total: 100, Errors: 90, ErrorPercent: 90}}
	props := config.Defaults("cmd")
	props.CircuitBreakerForceClosed = true
	cb := New("cmd", mc, health, props, nil)

	assert.True(t, cb.AllowRequest())
}

func TestDisabledBreakerAlwaysAllows(t *testing.T) {
	mc := clock.NewMock(0)
	health := &fakeHealth{snapshot: metrics.HealthSnapshot{Total: 100, Errors: 100, ErrorPercent: 100}}
	props := config.Defaults("cmd")
	props.CircuitBreakerEnabled = false
	cb := New("cmd", mc, health, props, nil)

	assert.True(t, cb.AllowRequest())
	assert.Equal(t, Closed, cb.State())
}

// TestFullLifecycle mirrors spec.md scenario S7: volume+error thresholds
// trip the breaker, the sleep window permits exactly one HALF_OPEN trial,
// and a successful trial closes it again.
func TestFullLifecycle(t *testing.T) {
	mc := clock.NewMock(0)
	health := &fakeHealth{}
	props, err := config.NewPropertiesBuilder("cmd").
		WithCircuitBreaker(true, 5, 2000, 50).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	cb := New("cmd", mc, health, props, nil)

	health.snapshot = metrics.HealthSnapshot{Total: 6, Errors: 3, ErrorPercent: 50}
	assert.False(t, cb.AllowRequest(), "volume and error thresholds met: breaker should trip")
	assert.Equal(t, Open, cb.State())

	assert.False(t, cb.AllowRequest(), "still within sleep window")

	mc.Increment(2 * time.Second)
	assert.True(t, cb.AllowRequest(), "sleep window elapsed: one trial admitted")
	assert.Equal(t, HalfOpen, cb.State())

	assert.False(t, cb.AllowRequest(), "a second concurrent trial must not be admitted")

	cb.MarkSuccess()
	assert.Equal(t, Closed, cb.State())
	assert.False(t, cb.AllowRequest(), "health still meets both thresholds: the closed breaker trips again")
}

func TestHalfOpenTrialFailureReopens(t *testing.T) {
	mc := clock.NewMock(0)
	health := &fakeHealth{snapshot: metrics.HealthSnapshot{Total: 10, Errors: 10, ErrorPercent: 100}}
	props, err := config.NewPropertiesBuilder("cmd").
		WithCircuitBreaker(true, 1, 1000, 50).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	cb := New("cmd", mc, health, props, nil)

	cb.AllowRequest() // trips to Open
	mc.Increment(1 * time.Second)
	cb.AllowRequest() // admits the HALF_OPEN trial
	assert.Equal(t, HalfOpen, cb.State())

	cb.MarkFailure()
	assert.Equal(t, Open, cb.State())
}

func TestMarkSuccessWhileClosedIsNoop(t *testing.T) {
	mc := clock.NewMock(0)
	health := &fakeHealth{}
	cb := New("cmd", mc, health, config.Defaults("cmd"), nil)

	cb.MarkSuccess()
	assert.Equal(t, Closed, cb.State())
}
