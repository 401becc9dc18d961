//go:build property

package rolling

import (
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/mattsp1290/hystrix-go/internal/clock"
)

// TestRollingSumNeverExceedsCumulative checks an invariant from spec.md §8:
// the rolling sum over live buckets can never exceed the all-time
// cumulative sum for the same kind, across arbitrary increment/advance
// sequences.
func TestRollingSumNeverExceedsCumulative(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		bucketCount := rapid.IntRange(1, 20).Draw(t, "bucketCount")
		bucketWidthMs := int64(rapid.IntRange(10, 500).Draw(t, "bucketWidthMs"))
		windowMs := bucketWidthMs * int64(bucketCount)

		mc := clock.NewMock(0)
		rn, err := New(mc, windowMs, bucketCount)
		if err != nil {
			t.Fatal(err)
		}

		steps := rapid.IntRange(0, 200).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			action := rapid.IntRange(0, 1).Draw(t, "action")
			switch action {
			case 0:
				delta := int64(rapid.IntRange(0, 5).Draw(t, "delta"))
				if err := rn.Add(Success, delta); err != nil {
					t.Fatal(err)
				}
			case 1:
				advanceMs := rapid.IntRange(0, int(windowMs*2)).Draw(t, "advanceMs")
				mc.Increment(time.Duration(advanceMs) * time.Millisecond)
			}

			if rn.RollingSum(Success) > rn.CumulativeSum(Success) {
				t.Fatalf("rolling sum %d exceeds cumulative sum %d", rn.RollingSum(Success), rn.CumulativeSum(Success))
			}
		}
	})
}

// TestValuesNeverExceedsBucketCount checks that Values() never returns more
// entries than bucket_count regardless of how far the clock advances.
func TestValuesNeverExceedsBucketCount(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		bucketCount := rapid.IntRange(1, 20).Draw(t, "bucketCount")
		bucketWidthMs := int64(rapid.IntRange(10, 500).Draw(t, "bucketWidthMs"))
		windowMs := bucketWidthMs * int64(bucketCount)

		mc := clock.NewMock(0)
		rn, err := New(mc, windowMs, bucketCount)
		if err != nil {
			t.Fatal(err)
		}

		steps := rapid.IntRange(0, 100).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			if err := rn.Increment(Success); err != nil {
				t.Fatal(err)
			}
			advanceMs := rapid.IntRange(0, int(windowMs*3)).Draw(t, "advanceMs")
			mc.Increment(time.Duration(advanceMs) * time.Millisecond)

			if len(rn.Values(Success)) > bucketCount {
				t.Fatalf("values length %d exceeds bucket count %d", len(rn.Values(Success)), bucketCount)
			}
		}
	})
}
