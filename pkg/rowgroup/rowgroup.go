// Package rowgroup clusters pages that are already known to share a DRAM
// bank (see pkg/profiler) into the finer sets that additionally share a
// row. It is the "extended mode" grouping step: page granularity alone
// tells double-sided hammering which rows are adjacent in bank space but
// not which pages within a row are the same physical row, which matters
// once a row spans more than one page.
package rowgroup

import (
	"github.com/vp777/rowhammer/pkg/mem"
	"github.com/vp777/rowhammer/pkg/timing"
)

// Config controls one row-grouping pass over a bank.
type Config struct {
	Timing           timing.Config
	AccessIterations uint64
	// PagesPerRow bounds how many pages a single row may legitimately
	// contain; a candidate accumulating more than PagesPerRow+2 matches
	// is judged too noisy to trust and discarded.
	PagesPerRow int
	// SamplePair and SampleSingle, if set, replace the real rdtsc-backed
	// timers with caller-supplied oracles -- lets tests drive GroupRows
	// deterministically against a synthetic self-hit/co-residency timing
	// model instead of live DRAM.
	SamplePair   func(a, b uintptr, iterations uint64) uint64
	SampleSingle func(a uintptr, iterations uint64) uint64
}

// Group is a set of pages believed to share both a bank and a row.
type Group struct {
	Pages []uintptr
}

// GroupRows partitions bank (a list of same-bank page addresses) into
// row groups. Each group's first member seeds a single-page self-hit
// timing probe; every later, not-yet-claimed page in bank is then
// compared against it with a double-sided probe, and judged co-resident
// when its timing falls *below* the self-hit threshold -- the opposite
// direction from the bank-level SBDR probe, because here a row-buffer
// *hit* (fast) is the co-residency signal, not a conflict (slow).
func GroupRows(bank []uintptr, cfg Config) []Group {
	claimed := make([]bool, len(bank))
	var groups []Group

	for i, origin := range bank {
		if claimed[i] {
			continue
		}
		claimed[i] = true

		threshold := selfHitThreshold(origin, cfg)

		// Matches are held as tentative indices first; they are only
		// marked claimed once the scan finishes without overflowing,
		// so an unreliable row never consumes pages other origins
		// could still legitimately group.
		var tentative []int
		overflowed := false

		for j := i + 1; j < len(bank); j++ {
			if claimed[j] {
				continue
			}
			t := samplePair(origin, bank[j], cfg)
			if t >= threshold {
				continue
			}
			tentative = append(tentative, j)
			if len(tentative) > cfg.PagesPerRow+2 {
				overflowed = true
				break
			}
		}

		group := Group{Pages: []uintptr{origin}}
		if !overflowed {
			if len(tentative) > cfg.PagesPerRow-1 {
				tentative = tentative[:cfg.PagesPerRow-1]
			}
			for _, j := range tentative {
				claimed[j] = true
				group.Pages = append(group.Pages, bank[j])
			}
		}
		groups = append(groups, group)
	}

	return groups
}

// selfHitThreshold calibrates the row-buffer-hit threshold from repeated
// single-aggressor accesses against origin alone.
func selfHitThreshold(origin uintptr, cfg Config) uint64 {
	hitTime := sampleSingle(origin, cfg)
	return timing.Threshold(hitTime, 1.3)
}

func samplePair(a, b uintptr, cfg Config) uint64 {
	if cfg.SamplePair != nil {
		return cfg.SamplePair(a, b, cfg.AccessIterations)
	}
	return timing.AccessTime(cfg.Timing, func() {
		mem.HammerDouble(a, b, cfg.AccessIterations)
	})
}

func sampleSingle(a uintptr, cfg Config) uint64 {
	if cfg.SampleSingle != nil {
		return cfg.SampleSingle(a, cfg.AccessIterations)
	}
	return timing.AccessTime(cfg.Timing, func() {
		mem.HammerSingle(a, cfg.AccessIterations)
	})
}
