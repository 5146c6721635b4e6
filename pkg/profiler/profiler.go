// Package profiler discovers which pages of a buffer share a DRAM bank
// with a chosen origin page, using the SBDR (Same Bank Different Row)
// timing side channel: a double-sided access against two same-bank pages
// always misses the row buffer and is measurably slower than one against
// two different-bank pages, which can be served from either bank's open
// row concurrently.
package profiler

import (
	"sort"

	"github.com/vp777/rowhammer/pkg/mem"
	"github.com/vp777/rowhammer/pkg/timing"
)

// Config controls one profiling pass.
type Config struct {
	Timing           timing.Config
	AccessIterations uint64
	CalibrationRuns  int
	Step             uintptr // candidate stride, one page by default
	// Sample, if set, replaces the real rdtsc-backed double-sided access
	// timer with a caller-supplied oracle -- lets tests drive Profile
	// deterministically against a synthetic same-bank/different-bank
	// timing model instead of live DRAM.
	Sample func(a, b uintptr, iterations uint64) uint64
}

// Result is the outcome of one SBDR pass against a buffer.
type Result struct {
	// Pages holds every candidate address judged to share a bank with
	// the origin, including the origin's own stride-aligned position.
	Pages     []uintptr
	Threshold uint64
}

// Profile scans buf at Step-sized strides and returns every candidate
// address whose double-sided access time against origin exceeds a
// threshold calibrated from the first CalibrationRuns candidates.
func Profile(origin uintptr, buf *mem.Buffer, cfg Config) Result {
	base := buf.Base()
	end := base + uintptr(buf.Len())

	threshold := calibrate(origin, base, end, cfg)

	var found []uintptr
	for addr := base; addr < end; addr += cfg.Step {
		if sampleBurst(origin, addr, cfg) > threshold {
			found = append(found, addr)
		}
	}

	return Result{Pages: found, Threshold: threshold}
}

// calibrate estimates the same-bank threshold from CalibrationRuns
// candidate pairs, on the assumption that most of those pairs land in
// different banks (so their order statistic approximates a
// different-bank baseline), then scales by ThresholdMult.
func calibrate(origin, base, end uintptr, cfg Config) uint64 {
	samples := make([]uint64, 0, cfg.CalibrationRuns)
	addr := base
	for i := 0; i < cfg.CalibrationRuns && addr < end; i, addr = i+1, addr+cfg.Step {
		samples = append(samples, sampleBurst(origin, addr, cfg))
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	if len(samples) == 0 {
		return 0
	}
	median := samples[len(samples)/2]
	return timing.Threshold(median, cfg.Timing.ThresholdMult)
}

func sampleBurst(a, b uintptr, cfg Config) uint64 {
	if cfg.Sample != nil {
		return cfg.Sample(a, b, cfg.AccessIterations)
	}
	return timing.AccessTime(cfg.Timing, func() {
		mem.HammerDouble(a, b, cfg.AccessIterations)
	})
}

// bankCandidates mirrors the DIMM bank counts this mapper family
// actually ships with.
var bankCandidates = []int{8, 16, 32, 64}

// EstimateBankCount snaps a noisy same-bank group size to the nearest
// plausible DIMM bank count, given the total number of candidate slots
// the scan swept over. It reports false if the count falls outside a
// +/-15% tolerance band of every candidate.
func EstimateBankCount(foundCount, totalSlots int) (bankCount int, ok bool) {
	for _, bc := range bankCandidates {
		expected := float64(totalSlots) / float64(bc)
		lo := 0.85 * expected
		hi := 1.15 * expected
		if float64(foundCount) >= lo && float64(foundCount) <= hi {
			return bc, true
		}
	}
	return 0, false
}
