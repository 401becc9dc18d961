package metrics

// HealthSnapshot is the periodically recomputed tuple CircuitBreaker
// decisions are a pure function of.
type HealthSnapshot struct {
	Total           int64
	Errors          int64
	ErrorPercent    int64
	SnapshotTimeMs  int64
}

func computeHealthSnapshot(total, errors, nowMs int64) HealthSnapshot {
	var errorPercent int64
	if total > 0 {
		errorPercent = errors * 100 / total
	}
	return HealthSnapshot{
		Total:          total,
		Errors:         errors,
		ErrorPercent:   errorPercent,
		SnapshotTimeMs: nowMs,
	}
}
