package percentile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsp1290/hystrix-go/internal/clock"
	"github.com/mattsp1290/hystrix-go/pkg/hystrixerr"
)

func TestNewRejectsUnevenDivision(t *testing.T) {
	_, err := New(clock.NewMock(0), 10000, 3, 100, true)
	require.Error(t, err)
	assert.True(t, hystrixerr.Is(err, hystrixerr.CodeConfig))
}

func TestNewRejectsNonPositiveSampleCapacity(t *testing.T) {
	_, err := New(clock.NewMock(0), 10000, 10, 0, true)
	require.Error(t, err)
	assert.True(t, hystrixerr.Is(err, hystrixerr.CodeConfig))
}

func TestDisabledReturnsSentinel(t *testing.T) {
	mc := clock.NewMock(0)
	rp, err := New(mc, 10000, 10, 100, false)
	require.NoError(t, err)

	rp.AddValue(100, 200, 300)

	assert.Equal(t, int64(-1), rp.Percentile(50))
	assert.Equal(t, int64(-1), rp.Mean())
}

func TestPercentileEmptySnapshotIsZero(t *testing.T) {
	mc := clock.NewMock(0)
	rp, err := New(mc, 10000, 10, 100, true)
	require.NoError(t, err)

	assert.Equal(t, int64(0), rp.Percentile(50))
	assert.Equal(t, int64(0), rp.Mean())
}

// TestSnapshotCapturesPriorBucketsOnRoll mirrors the Hystrix semantics
// where a snapshot is computed from the buckets that were live immediately
// before a new bucket supersedes the head, so values added within the
// still-current bucket aren't visible until the next roll.
func TestSnapshotCapturesPriorBucketsOnRoll(t *testing.T) {
	mc := clock.NewMock(0)
	rp, err := New(mc, 3000, 3, 100, true)
	require.NoError(t, err)

	rp.AddValue(10, 20, 30)
	assert.Equal(t, int64(0), rp.Percentile(50), "no roll yet, snapshot still empty")

	mc.Increment(1000 * time.Millisecond)
	assert.Equal(t, int64(25), rp.Percentile(50)) // rank 1.5: 20 + 0.5*(30-20)
	assert.Equal(t, int64(20), rp.Mean())
}

func TestPercentileBoundsAndInterpolation(t *testing.T) {
	mc := clock.NewMock(0)
	rp, err := New(mc, 2000, 2, 100, true)
	require.NoError(t, err)

	rp.AddValue(10, 20, 30, 40, 50)
	mc.Increment(1000 * time.Millisecond)
	rp.Percentile(0) // forces the roll/snapshot

	assert.Equal(t, int64(10), rp.Percentile(0))
	assert.Equal(t, int64(50), rp.Percentile(100))

	p50 := rp.Percentile(50)
	assert.Equal(t, int64(35), p50) // rank 2.5: 30 + 0.5*(40-30)
}

func TestSampleRingOverwritesOldest(t *testing.T) {
	mc := clock.NewMock(0)
	rp, err := New(mc, 2000, 2, 3, true)
	require.NoError(t, err)

	rp.AddValue(1, 2, 3, 4, 5)
	mc.Increment(1000 * time.Millisecond)
	rp.Percentile(0)

	assert.Equal(t, int64(3), rp.Percentile(0), "oldest two samples should have been overwritten")
	assert.Equal(t, int64(5), rp.Percentile(100))
}

func TestFullWindowRolloverClearsSnapshot(t *testing.T) {
	mc := clock.NewMock(0)
	rp, err := New(mc, 2000, 2, 100, true)
	require.NoError(t, err)

	rp.AddValue(100)
	mc.Increment(1000 * time.Millisecond)
	rp.Percentile(0)
	assert.Equal(t, int64(100), rp.Percentile(0))

	mc.Increment(10000 * time.Millisecond)
	assert.Equal(t, int64(0), rp.Percentile(50), "full window rollover should reset the snapshot")
}
