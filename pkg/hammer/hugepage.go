package hammer

import (
	"github.com/vp777/rowhammer/pkg/hugeplan"
	"github.com/vp777/rowhammer/pkg/mem"
)

// hpRow is one run of consecutive huge-page plan entries sharing the same
// channel/dimm/rank/bank/row tuple -- the granularity-step analogue of a
// bank-mode Row, derived from an already-sorted hugeplan.Plan table
// instead of timing.
type hpRow struct {
	entries []hugeplan.Entry
}

func groupByRow(plan []hugeplan.Entry) []hpRow {
	var rows []hpRow
	for _, e := range plan {
		if n := len(rows); n > 0 {
			last := rows[n-1].entries[0].Addr
			if last.Chan == e.Addr.Chan && last.Dimm == e.Addr.Dimm &&
				last.Rank == e.Addr.Rank && last.Bank == e.Addr.Bank &&
				last.Row == e.Addr.Row {
				rows[n-1].entries = append(rows[n-1].entries, e)
				continue
			}
		}
		rows = append(rows, hpRow{entries: []hugeplan.Entry{e}})
	}
	return rows
}

func sameBank(a, b hpRow) bool {
	x, y := a.entries[0].Addr, b.entries[0].Addr
	return x.Chan == y.Chan && x.Dimm == y.Dimm && x.Rank == y.Rank && x.Bank == y.Bank
}

// RunHugePageMode walks a sorted hugeplan.Plan table and, for every
// window of three row-adjacent groups sharing a channel/dimm/rank/bank,
// hammers the outer two as aggressors and scans only the middle (victim)
// row for flips -- the huge-page driver never sweeps the whole plan per
// round, since the plan's sort order already tells it exactly which
// entries are the victim's neighbors.
func RunHugePageMode(plan []hugeplan.Entry, granularity int, cfg Config, stop func() bool) Result {
	rows := groupByRow(plan)
	var result Result

	for idx := 1; idx < len(rows)-1; idx++ {
		if stop() {
			break
		}
		prev, victim, next := rows[idx-1], rows[idx], rows[idx+1]
		cfg.reportProgress(idx, victim.entries[0].VirtAddr)

		if !sameBank(prev, victim) || !sameBank(victim, next) {
			continue
		}
		if victim.entries[0].Addr.Row != prev.entries[0].Addr.Row+1 {
			continue
		}
		if next.entries[0].Addr.Row != victim.entries[0].Addr.Row+1 {
			continue
		}

		fillGroup(victim, granularity, cfg.VictimFill)
		fillGroup(prev, granularity, cfg.TargetFill)
		fillGroup(next, granularity, cfg.TargetFill)

		dside := prev.entries[0].VirtAddr
		uside := next.entries[0].VirtAddr

		result.RoundsRun++
		mem.HammerDouble(dside, uside, cfg.HugeIterations)

		for _, e := range victim.entries {
			for off := 0; off < granularity; off++ {
				got := mem.ReadByteAt(e.VirtAddr + uintptr(off))
				if got == cfg.VictimFill {
					continue
				}
				result.Flips = append(result.Flips, FlipRecord{
					AggressorA: dside,
					AggressorB: uside,
					VictimAddr: e.VirtAddr,
					Offset:     off,
					Expected:   cfg.VictimFill,
					Got:        got,
				})
				mem.WriteByteAt(e.VirtAddr+uintptr(off), cfg.VictimFill)
			}
			mem.Flush(e.VirtAddr, granularity)
		}
	}

	return result
}

func fillGroup(r hpRow, granularity int, v byte) {
	for _, e := range r.entries {
		mem.FillAndFlush(e.VirtAddr, granularity, v)
	}
}
