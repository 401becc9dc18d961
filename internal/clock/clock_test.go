package clock

import (
	"testing"
	"time"
)

func TestMockIncrement(t *testing.T) {
	m := NewMock(0)
	if got := m.NowMillis(); got != 0 {
		t.Fatalf("NowMillis() = %d, want 0", got)
	}

	if got := m.Increment(250 * time.Millisecond); got != 250 {
		t.Fatalf("Increment() = %d, want 250", got)
	}

	if got := m.NowMillis(); got != 250 {
		t.Fatalf("NowMillis() = %d, want 250", got)
	}
}

func TestMockSet(t *testing.T) {
	m := NewMock(100)
	m.Set(5000)
	if got := m.NowMillis(); got != 5000 {
		t.Fatalf("NowMillis() = %d, want 5000", got)
	}
}

func TestRealAdvances(t *testing.T) {
	r := Real{}
	first := r.NowMillis()
	time.Sleep(2 * time.Millisecond)
	second := r.NowMillis()
	if second < first {
		t.Fatalf("Real clock went backwards: %d -> %d", first, second)
	}
}
