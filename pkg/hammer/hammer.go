// Package hammer drives double-sided Rowhammer induction: it picks
// aggressor row pairs, fills and flushes the rows around them, hammers
// the aggressors, and scans every other known row for bytes that no
// longer match their expected fill -- a bit flip.
package hammer

import (
	"time"

	"github.com/vp777/rowhammer/pkg/mem"
)

// amplifySleep is the pause between amplification hammer bursts, letting
// a late flip surface across a refresh interval instead of being masked
// by back-to-back bursts.
const amplifySleep = 2 * time.Second

// Row is one page-granular group of addresses believed to share a bank
// and row, as produced by pkg/profiler (single page per row) or
// pkg/rowgroup (multiple pages per row).
type Row struct {
	Pages []uintptr
	// PageLen is the byte length backing each entry in Pages.
	PageLen int
}

// Config controls one hammering session.
type Config struct {
	TestIterations   uint64
	StressIterations uint64
	// HugeIterations is the hammer count RunHugePageMode uses in place of
	// TestIterations: huge-page mode has no amplification pass to catch a
	// late flip, so its single hammer burst must already exceed one
	// refresh interval.
	HugeIterations uint64
	VictimFill     byte
	TargetFill     byte
	// Progress, if set, is called once per outer iteration with the
	// iteration index and the address under test (the first aggressor in
	// bank mode, the victim row's first entry in huge-page mode), before
	// any hammering for that iteration begins.
	Progress func(iteration int, addr uintptr)
}

func (cfg Config) reportProgress(iteration int, addr uintptr) {
	if cfg.Progress != nil {
		cfg.Progress(iteration, addr)
	}
}

// FlipRecord is one observed bit flip.
type FlipRecord struct {
	AggressorA uintptr
	AggressorB uintptr
	VictimAddr uintptr
	Offset     int
	Expected   byte
	Got        byte
}

// Result summarizes a hammering session.
type Result struct {
	Flips     []FlipRecord
	RoundsRun int
}

// RunBankMode hammers every ordered pair of rows as a double-sided
// aggressor pair and scans every other row for flips against
// cfg.VictimFill. stop is polled between pairs so a deadline or
// interrupt can cut the session short without leaving rows in a
// half-filled state.
func RunBankMode(rows []Row, cfg Config, stop func() bool) Result {
	var result Result

	for i := range rows {
		if stop() {
			break
		}
		dside := rows[i].Pages[0]
		cfg.reportProgress(i, dside)
		fillRow(rows[i], cfg.TargetFill)

		for j := i + 1; j < len(rows); j++ {
			if stop() {
				break
			}
			fillRow(rows[j], cfg.TargetFill)
			uside := rows[j].Pages[0]

			result.RoundsRun++
			flips := hammerPairAndScan(rows, i, j, dside, uside, cfg, stop)
			result.Flips = append(result.Flips, flips...)

			fillRow(rows[j], cfg.VictimFill)
		}
		fillRow(rows[i], cfg.VictimFill)
	}

	return result
}

func hammerPairAndScan(rows []Row, i, j int, dside, uside uintptr, cfg Config, stop func() bool) []FlipRecord {
	mem.HammerDouble(dside, uside, cfg.TestIterations)
	flushAllExcept(rows, i, j)

	if !anyMismatch(rows, i, j, cfg.VictimFill) {
		return nil
	}

	// A mismatch on the first pass can be an artifact of insufficient
	// hammering; amplify with two extra stress bursts separated by a
	// sleep, so a flip that only shows up late in a refresh interval
	// still survives the recheck, and only trust a mismatch that does.
	mem.HammerDouble(dside, uside, cfg.StressIterations)
	interruptibleSleep(amplifySleep, stop)
	mem.HammerDouble(dside, uside, cfg.StressIterations)
	interruptibleSleep(amplifySleep, stop)

	return recordAndRestoreFlips(rows, i, j, dside, uside, cfg.VictimFill)
}

// interruptibleSleep sleeps for d in short ticks, returning early the
// moment stop reports true so a deadline or SIGINT doesn't have to wait
// out a full amplification pause.
func interruptibleSleep(d time.Duration, stop func() bool) {
	const tick = 50 * time.Millisecond
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if stop != nil && stop() {
			return
		}
		remaining := time.Until(deadline)
		if remaining > tick {
			remaining = tick
		}
		time.Sleep(remaining)
	}
}

func fillRow(r Row, v byte) {
	for _, p := range r.Pages {
		mem.FillAndFlush(p, r.PageLen, v)
	}
}

func flushAllExcept(rows []Row, i, j int) {
	for k, r := range rows {
		if k == i || k == j {
			continue
		}
		for _, p := range r.Pages {
			mem.Flush(p, r.PageLen)
		}
	}
}

func anyMismatch(rows []Row, i, j int, expect byte) bool {
	for k, r := range rows {
		if k == i || k == j {
			continue
		}
		for _, p := range r.Pages {
			for off := 0; off < r.PageLen; off++ {
				if mem.ReadByteAt(p+uintptr(off)) != expect {
					return true
				}
			}
		}
	}
	return false
}

func recordAndRestoreFlips(rows []Row, i, j int, dside, uside uintptr, expect byte) []FlipRecord {
	var flips []FlipRecord
	for k, r := range rows {
		if k == i || k == j {
			continue
		}
		for _, p := range r.Pages {
			for off := 0; off < r.PageLen; off++ {
				got := mem.ReadByteAt(p + uintptr(off))
				if got == expect {
					continue
				}
				flips = append(flips, FlipRecord{
					AggressorA: dside,
					AggressorB: uside,
					VictimAddr: p,
					Offset:     off,
					Expected:   expect,
					Got:        got,
				})
				mem.WriteByteAt(p+uintptr(off), expect)
			}
		}
		if len(flips) > 0 {
			for _, p := range r.Pages {
				mem.Flush(p, r.PageLen)
			}
		}
	}
	return flips
}
