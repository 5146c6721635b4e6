package hugeplan

import (
	"testing"

	"github.com/vp777/rowhammer/pkg/dram"
)

func TestPlanOrdersLexicographically(t *testing.T) {
	p := dram.Params{Channels: 2, Dimms: 1, Ranks: 2, RankMirroring: true}
	entries := Plan(0x400000000000, 1<<21, p)

	if len(entries) == 0 {
		t.Fatal("Plan returned no entries")
	}

	for i := 1; i < len(entries); i++ {
		if tupleLess(entries[i].Addr, entries[i-1].Addr) {
			t.Fatalf("entries not sorted at index %d: %+v came after %+v", i, entries[i].Addr, entries[i-1].Addr)
		}
	}
}

func TestPlanVirtAddrMatchesGranularityStride(t *testing.T) {
	p := dram.Params{Channels: 1, Dimms: 1, Ranks: 1}
	base := uintptr(0x100000000000)
	entries := Plan(base, 4*p.Granularity(), p)

	if len(entries) != 4 {
		t.Fatalf("got %d entries, want 4", len(entries))
	}

	seen := map[uintptr]bool{}
	for _, e := range entries {
		if e.VirtAddr < base || e.VirtAddr >= base+4*uintptr(p.Granularity()) {
			t.Fatalf("entry virtAddr %#x outside planned span", e.VirtAddr)
		}
		seen[e.VirtAddr] = true
	}
	if len(seen) != 4 {
		t.Fatalf("expected 4 distinct virtual addresses, got %d", len(seen))
	}
}

// tupleLess reports whether a sorts strictly before b under the
// declared (Chan, Dimm, Rank, Bank, Row, Col) ordering.
func tupleLess(a, b dram.Addr) bool {
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
}
