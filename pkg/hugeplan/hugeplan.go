// Package hugeplan builds and orders the per-2MiB-page DRAM geometry
// table huge-page-mode hammering walks: for every granularity step inside
// a span of huge pages, it resolves the analytic DRAM address and sorts
// the whole table so that entries sharing channel/dimm/rank/bank/row end
// up contiguous, which is what lets the hammer driver pick adjacent rows
// directly instead of re-deriving geometry per access.
package hugeplan

import (
	"sort"

	"github.com/vp777/rowhammer/pkg/dram"
	"github.com/vp777/rowhammer/pkg/mem"
)

// Entry pairs one granularity step's virtual address with its resolved
// DRAM geometry.
type Entry struct {
	VirtAddr uintptr
	Addr     dram.Addr
}

// Plan builds the sorted entry table for the huge-page span
// [base, base+size).
func Plan(base uintptr, size uint64, p dram.Params) []Entry {
	gran := p.Granularity()
	entries := make([]Entry, 0, size/gran)

	for off := uint64(0); off < size; off += gran {
		entries = append(entries, Entry{
			VirtAddr: base + uintptr(off),
			Addr:     dram.MapSandyBridge(off%mem.HugePageSize, p),
		})
	}

	sortEntries(entries)
	return entries
}

// sortEntries orders entries by the strict lexicographic tuple
// (Chan, Dimm, Rank, Bank, Row, Col), field by field in that declared
// order. This intentionally departs from the reference implementation's
// packed-integer comparator, whose mismatched per-field shift amounts
// gave Bank a higher sort priority than Row in some topologies; this
// ordering is unambiguous regardless of each field's bit width.
func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].Addr, entries[j].Addr
		switch {
		case a.Chan != b.Chan:
			return a.Chan < b.Chan
		case a.Dimm != b.Dimm:
			return a.Dimm < b.Dimm
		case a.Rank != b.Rank:
			return a.Rank < b.Rank
		case a.Bank != b.Bank:
			return a.Bank < b.Bank
		case a.Row != b.Row:
			return a.Row < b.Row
		default:
			return a.Col < b.Col
		}
	})
}
