package percentile

// bucket holds one bucket_width_ms worth of latency samples.
type bucket struct {
	windowStartMillis int64
	samples           *sampleRing
}

func newBucket(windowStartMillis int64, sampleCapacity int) *bucket {
	return &bucket{windowStartMillis: windowStartMillis, samples: newSampleRing(sampleCapacity)}
}
