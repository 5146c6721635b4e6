package timing

import (
	"sort"
	"testing"
)

func TestOrderStatMonotonic(t *testing.T) {
	sorted := []uint64{10, 20, 20, 35, 50, 51, 90}
	cfg := Config{SampleSize: len(sorted)}

	prev := uint64(0)
	for idx := 0; idx < len(sorted); idx++ {
		cfg.OrderStatistic = idx
		got := OrderStat(cfg, sorted)
		if got < prev {
			t.Fatalf("OrderStat not monotonic at index %d: got %d, prev %d", idx, got, prev)
		}
		prev = got
	}
}

func TestThreshold(t *testing.T) {
	if got := Threshold(1000, 1.3); got != 1300 {
		t.Fatalf("Threshold(1000, 1.3) = %d, want 1300", got)
	}
}

func TestOrderStatClamps(t *testing.T) {
	sorted := []uint64{5, 6, 7}
	cfg := Config{SampleSize: 3, OrderStatistic: 99}
	if got := OrderStat(cfg, sorted); got != 7 {
		t.Fatalf("OrderStat should clamp to last element, got %d", got)
	}
	cfg.OrderStatistic = -5
	if got := OrderStat(cfg, sorted); got != 5 {
		t.Fatalf("OrderStat should clamp to first element, got %d", got)
	}
}

func TestNoiseSamplerOrderStatOnSyntheticBaseline(t *testing.T) {
	noise := NewNoiseSampler(1)
	samples := noise.Sample(420, 30, 64)
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })

	cfg := Config{SampleSize: len(samples), OrderStatistic: 1}
	got := OrderStat(cfg, samples)
	if got < 390 || got > 450 {
		t.Fatalf("OrderStat on synthetic baseline out of expected range: got %d", got)
	}
}

func TestNoiseSamplerTriangularBounds(t *testing.T) {
	noise := NewNoiseSampler(2)
	for i := 0; i < 200; i++ {
		v := noise.Triangular(100, 200, 150)
		if v < 100 || v > 200 {
			t.Fatalf("Triangular(100, 200, 150) out of bounds: got %f", v)
		}
	}
}
