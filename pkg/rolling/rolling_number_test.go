package rolling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsp1290/hystrix-go/internal/clock"
	"github.com/mattsp1290/hystrix-go/pkg/hystrixerr"
)

func TestNewRejectsUnevenDivision(t *testing.T) {
	_, err := New(clock.NewMock(0), 10000, 3)
	require.Error(t, err)
	assert.True(t, hystrixerr.Is(err, hystrixerr.CodeConfig))
}

func TestNewRejectsNonPositiveBucketCount(t *testing.T) {
	_, err := New(clock.NewMock(0), 10000, 0)
	require.Error(t, err)
	assert.True(t, hystrixerr.Is(err, hystrixerr.CodeConfig))
}

func TestIncrementTypeMismatch(t *testing.T) {
	mc := clock.NewMock(0)
	rn, err := New(mc, 10000, 10)
	require.NoError(t, err)

	err = rn.Increment(ThreadMaxActive)
	require.Error(t, err)
	assert.True(t, hystrixerr.Is(err, hystrixerr.CodeTypeMismatch))
}

func TestUpdateRollingMaxTypeMismatch(t *testing.T) {
	mc := clock.NewMock(0)
	rn, err := New(mc, 10000, 10)
	require.NoError(t, err)

	err = rn.UpdateRollingMax(Success, 5)
	require.Error(t, err)
	assert.True(t, hystrixerr.Is(err, hystrixerr.CodeTypeMismatch))
}

// TestAdvanceOneExtraBucket mirrors spec.md scenario S1: a 10-bucket, 10s
// window (bucket_width_ms = 1000) receives one increment in each of 12
// consecutive buckets. Only the newest 10 buckets stay live, so rolling_sum
// is 10, while every superseded head was folded into the cumulative sum, so
// cumulative_sum counts all 12.
func TestAdvanceOneExtraBucket(t *testing.T) {
	mc := clock.NewMock(0)
	rn, err := New(mc, 10000, 10)
	require.NoError(t, err)

	for i := 0; i < 11; i++ {
		require.NoError(t, rn.Increment(Success))
		mc.Increment(1000 * time.Millisecond)
	}
	require.NoError(t, rn.Increment(Success))

	assert.Equal(t, int64(10), rn.RollingSum(Success))
	assert.Len(t, rn.Values(Success), 10)
	assert.Equal(t, int64(12), rn.CumulativeSum(Success))
}

// TestGapBuckets mirrors scenario S2: skipping ahead by several bucket
// widths without writes should produce empty gap buckets rather than reset
// the window, as long as the gap stays within window_ms.
func TestGapBuckets(t *testing.T) {
	mc := clock.NewMock(0)
	rn, err := New(mc, 4000, 4)
	require.NoError(t, err)

	require.NoError(t, rn.Increment(Success))
	mc.Increment(3000 * time.Millisecond)
	require.NoError(t, rn.Increment(Success))

	assert.Equal(t, int64(2), rn.RollingSum(Success))
	assert.Len(t, rn.Values(Success), 4)
}

// TestFullWindowRollover mirrors scenario S3: advancing past the entire
// window resets the ring to a single fresh bucket while folding everything
// that was live into the cumulative sum.
func TestFullWindowRollover(t *testing.T) {
	mc := clock.NewMock(0)
	rn, err := New(mc, 3000, 3)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, rn.Add(Success, 2))
		mc.Increment(1000 * time.Millisecond)
	}
	mc.Increment(10000 * time.Millisecond)
	require.NoError(t, rn.Increment(Success))

	assert.Equal(t, int64(1), rn.RollingSum(Success))
	assert.Equal(t, int64(6), rn.CumulativeSum(Success)-int64(1))
}

func TestUpdateRollingMaxTakesGreater(t *testing.T) {
	mc := clock.NewMock(0)
	rn, err := New(mc, 10000, 10)
	require.NoError(t, err)

	require.NoError(t, rn.UpdateRollingMax(ThreadMaxActive, 3))
	require.NoError(t, rn.UpdateRollingMax(ThreadMaxActive, 7))
	require.NoError(t, rn.UpdateRollingMax(ThreadMaxActive, 2))

	assert.Equal(t, int64(7), rn.ValueOfLatestBucket(ThreadMaxActive))
	assert.Equal(t, int64(7), rn.RollingMax(ThreadMaxActive))
}

func TestResetClearsLiveBucketsButKeepsCumulative(t *testing.T) {
	mc := clock.NewMock(0)
	rn, err := New(mc, 10000, 10)
	require.NoError(t, err)

	require.NoError(t, rn.Add(Success, 5))
	rn.Reset()

	assert.Equal(t, int64(0), rn.RollingSum(Success))
	assert.Equal(t, int64(5), rn.CumulativeSum(Success))
}

func TestValueOfLatestBucketIsolatedPerBucket(t *testing.T) {
	mc := clock.NewMock(0)
	rn, err := New(mc, 2000, 2)
	require.NoError(t, err)

	require.NoError(t, rn.Add(Success, 4))
	mc.Increment(1000 * time.Millisecond)
	require.NoError(t, rn.Add(Success, 1))

	assert.Equal(t, int64(1), rn.ValueOfLatestBucket(Success))
	assert.Equal(t, int64(5), rn.RollingSum(Success))
}

func TestConcurrentIncrementsAreCounted(t *testing.T) {
	mc := clock.NewMock(0)
	rn, err := New(mc, 10000, 10)
	require.NoError(t, err)

	const goroutines = 50
	const perGoroutine = 200
	done := make(chan struct{})
	for i := 0; i < goroutines; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < perGoroutine; j++ {
				_ = rn.Increment(Success)
			}
		}()
	}
	for i := 0; i < goroutines; i++ {
		<-done
	}

	assert.Equal(t, int64(goroutines*perGoroutine), rn.RollingSum(Success))
}
