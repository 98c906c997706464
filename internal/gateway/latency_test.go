package gateway

import (
	"math"
	"testing"
	"time"
)

func ms(v float64) time.Duration { return time.Duration(v * float64(time.Millisecond)) }

func TestLatencyTracker_Empty(t *testing.T) {
	lt := NewLatencyTracker(100)
	if s := lt.Summary(); s != (LatencySummary{}) {
		t.Errorf("empty tracker: expected zero summary, got %+v", s)
	}
}

func TestLatencyTracker_SingleSample(t *testing.T) {
	lt := NewLatencyTracker(100)
	lt.Record(ms(42.5))

	s := lt.Summary()
	if s.P50Ms != 42.5 || s.P95Ms != 42.5 || s.P99Ms != 42.5 {
		t.Errorf("single sample: got %+v, want all 42.5", s)
	}
}

func TestLatencyTracker_Percentiles(t *testing.T) {
	lt := NewLatencyTracker(10000)

	// 1ms, 2ms, ..., 100ms
	for i := 1; i <= 100; i++ {
		lt.Record(ms(float64(i)))
	}

	s := lt.Summary()
	if math.Abs(s.P50Ms-50.5) > 0.01 {
		t.Errorf("p50: got %f, expected 50.5", s.P50Ms)
	}
	if math.Abs(s.P95Ms-95.05) > 0.01 {
		t.Errorf("p95: got %f, expected 95.05", s.P95Ms)
	}
	if math.Abs(s.P99Ms-99.01) > 0.01 {
		t.Errorf("p99: got %f, expected 99.01", s.P99Ms)
	}
}

func TestLatencyTracker_Wraparound(t *testing.T) {
	lt := NewLatencyTracker(10)

	// The first 10 samples are evicted.
	for i := 1; i <= 20; i++ {
		lt.Record(ms(float64(i)))
	}

	if lt.Count() != 10 {
		t.Fatalf("Count() = %d, want 10", lt.Count())
	}
	// 11..20
	if s := lt.Summary(); math.Abs(s.P50Ms-15.5) > 0.01 {
		t.Errorf("p50 after wraparound: got %f, expected 15.5", s.P50Ms)
	}
}
