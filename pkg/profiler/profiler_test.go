package profiler

import (
	"reflect"
	"testing"

	"github.com/vp777/rowhammer/pkg/mem"
	"github.com/vp777/rowhammer/pkg/timing"
)

// TestProfileSyntheticOracle exercises Profile end to end against an
// injected timing oracle instead of live DRAM: off-bank pairs always
// read 100, same-bank pairs always read 260, so with ThresholdMult=1.3
// the calibrated threshold is exactly 130 and the returned set must
// equal exactly the addresses the oracle marked same-bank.
func TestProfileSyntheticOracle(t *testing.T) {
	buf, err := mem.NewBuffer(16*mem.PageSize, false)
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	defer buf.Close()

	base := buf.Base()
	pageAt := func(i int) uintptr { return base + uintptr(i)*uintptr(mem.PageSize) }
	origin := pageAt(3)
	sameBank := map[uintptr]bool{
		origin:     true,
		pageAt(7):  true,
		pageAt(11): true,
	}

	cfg := Config{
		Timing:           timing.Config{ThresholdMult: 1.3},
		AccessIterations: 1,
		CalibrationRuns:  3, // covers indices 0-2, all off-bank, keeping the baseline clean
		Step:             mem.PageSize,
		Sample: func(a, b uintptr, iterations uint64) uint64 {
			if sameBank[b] {
				return 260
			}
			return 100
		},
	}

	result := Profile(origin, buf, cfg)

	if result.Threshold != 130 {
		t.Fatalf("threshold = %d, want 130", result.Threshold)
	}

	var want []uintptr
	for addr := base; addr < base+uintptr(buf.Len()); addr += uintptr(mem.PageSize) {
		if sameBank[addr] {
			want = append(want, addr)
		}
	}
	if !reflect.DeepEqual(result.Pages, want) {
		t.Fatalf("Pages = %v, want %v", result.Pages, want)
	}
}

func TestEstimateBankCount(t *testing.T) {
	totalSlots := 1 << 16 // e.g. 256MiB buffer / 4KiB pages

	cases := []struct {
		found     int
		wantCount int
		wantOK    bool
	}{
		{totalSlots / 8, 8, true},
		{totalSlots / 16, 16, true},
		{totalSlots / 32, 32, true},
		{totalSlots / 64, 64, true},
		{totalSlots, 0, false},
		{1, 0, false},
	}

	for _, c := range cases {
		bc, ok := EstimateBankCount(c.found, totalSlots)
		if ok != c.wantOK {
			t.Errorf("EstimateBankCount(%d, %d) ok = %v, want %v", c.found, totalSlots, ok, c.wantOK)
			continue
		}
		if ok && bc != c.wantCount {
			t.Errorf("EstimateBankCount(%d, %d) = %d, want %d", c.found, totalSlots, bc, c.wantCount)
		}
	}
}

// TestEstimateBankCountBoundaryInclusive pins down the exact +/-15%
// tolerance band edges, which must be inclusive per the estimator's
// documented contract.
func TestEstimateBankCountBoundaryInclusive(t *testing.T) {
	const totalSlots = 1280 // 1280/64 = 20, so 0.85*20=17 and 1.15*20=23 land on exact integers
	cases := []struct {
		found  int
		wantOK bool
	}{
		{17, true},
		{23, true},
		{16, false},
		{24, false},
	}
	for _, c := range cases {
		bc, ok := EstimateBankCount(c.found, totalSlots)
		if ok != c.wantOK {
			t.Errorf("EstimateBankCount(%d, %d) ok = %v, want %v", c.found, totalSlots, ok, c.wantOK)
			continue
		}
		if ok && bc != 64 {
			t.Errorf("EstimateBankCount(%d, %d) = %d, want 64", c.found, totalSlots, bc)
		}
	}
}
