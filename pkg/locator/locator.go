// Package locator implements the Sandy-Bridge-specific contiguous
// physical region finder: a timing fingerprint that recognizes the
// particular virtual-stride pattern a 2MiB physically-contiguous span
// produces under this memory controller's bank interleave, without
// needing any page-table introspection.
package locator

import (
	"github.com/vp777/rowhammer/pkg/mem"
	"github.com/vp777/rowhammer/pkg/timing"
)

// fingerprintOffsets are the page-multiple offsets (relative to a
// candidate base) sampled to confirm a ~2MiB contiguous span. They are
// specific to this Sandy Bridge bank interleave and were
// reverse-engineered rather than derived analytically.
var fingerprintOffsets = []uintptr{
	7*0x22000 + 0xee000,
	7 * 0x22000,
	6 * 0x22000,
	5 * 0x22000,
	4 * 0x22000,
	1 * 0x22000,
	2 * 0x22000,
}

// Config controls one locate pass.
type Config struct {
	Timing           timing.Config
	AccessIterations uint64
	ThresholdMult    float64
	// Sample, if set, replaces the real rdtsc-backed double-sided access
	// timer with a caller-supplied oracle -- lets tests drive
	// FindContiguousRegion deterministically against a synthetic
	// fingerprint instead of live DRAM.
	Sample func(a, b uintptr, iterations uint64) uint64
}

// FindContiguousRegion slides a 7-page-stride candidate base across buf
// and returns the first one whose fingerprint offsets all read at or
// above a calibrated threshold, refined by one page if the immediate
// next page turns out not to belong to the same span. It returns false
// if no candidate in the buffer satisfies the fingerprint.
func FindContiguousRegion(buf *mem.Buffer, cfg Config) (uintptr, bool) {
	base := buf.Base()
	end := base + uintptr(buf.Len())

	threshold := calibrateThreshold(base, cfg)

	const stride = 7 * mem.PageSize
	for candidate := base; candidate < end; candidate += stride {
		if !fingerprintMatches(candidate, threshold, cfg) {
			continue
		}

		if samplePair(candidate, candidate+0x23000, cfg) < threshold {
			candidate -= mem.PageSize
		}

		return candidate, true
	}
	return 0, false
}

// fingerprintMatches reports whether every fingerprint offset from
// candidate reads at or above threshold. The scan rejects the candidate
// the moment any single offset reads below it; only a candidate where
// every offset clears the bar is accepted.
func fingerprintMatches(candidate uintptr, threshold uint64, cfg Config) bool {
	for _, off := range fingerprintOffsets {
		if samplePair(candidate, candidate+off, cfg) < threshold {
			return false
		}
	}
	return true
}

// calibrateThreshold derives the locate threshold from a single
// near-field sample pair (128 bytes apart, two cache lines into the same
// page, so within one row) scaled by ThresholdMult.
func calibrateThreshold(base uintptr, cfg Config) uint64 {
	baseline := samplePair(base, base+128, cfg)
	return timing.Threshold(baseline, cfg.ThresholdMult)
}

func samplePair(a, b uintptr, cfg Config) uint64 {
	if cfg.Sample != nil {
		return cfg.Sample(a, b, cfg.AccessIterations)
	}
	return timing.AccessTime(cfg.Timing, func() {
		mem.HammerDouble(a, b, cfg.AccessIterations)
	})
}
