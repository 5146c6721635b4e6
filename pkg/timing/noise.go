package timing

import (
	"math"
	"math/rand"
)

// NoiseSampler generates synthetic cycle-count jitter for exercising the
// calibration math (OrderStat, Threshold) without a live rdtsc side
// channel -- useful in tests and for replaying a recorded calibration
// against a different ThresholdMult offline.
type NoiseSampler struct {
	rng *rand.Rand
}

// NewNoiseSampler creates a NoiseSampler seeded with the given value.
func NewNoiseSampler(seed int64) *NoiseSampler {
	return &NoiseSampler{rng: rand.New(rand.NewSource(seed))} //nolint:gosec
}

// Triangular samples from a triangular distribution on [lo, hi] with the
// given mode, biasing synthetic baseline samples toward a realistic
// row-buffer-hit latency instead of drawing uniformly.
func (n *NoiseSampler) Triangular(lo, hi, mode float64) float64 {
	u := n.rng.Float64()
	fc := (mode - lo) / (hi - lo)
	if u < fc {
		return lo + math.Sqrt(u*(hi-lo)*(mode-lo))
	}
	return hi - math.Sqrt((1-u)*(hi-lo)*(hi-mode))
}

// Sample draws n synthetic cycle counts around baseline, jittered by a
// triangular distribution spanning +/- spread cycles.
func (n *NoiseSampler) Sample(baseline uint64, spread float64, count int) []uint64 {
	out := make([]uint64, count)
	base := float64(baseline)
	for i := range out {
		out[i] = uint64(n.Triangular(base-spread, base+spread, base))
	}
	return out
}
