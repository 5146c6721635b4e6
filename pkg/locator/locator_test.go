package locator

import (
	"testing"

	"github.com/vp777/rowhammer/pkg/mem"
)

// TestFindContiguousRegionSyntheticOracle exercises FindContiguousRegion
// against a synthetic timing oracle that treats exactly the fingerprint
// offsets (plus the one-page refine probe) as same-bank: the very first
// candidate (the buffer base) must match, and since the refine probe also
// reads same-bank, no backup adjustment happens, so the returned address
// is the candidate base unchanged.
func TestFindContiguousRegionSyntheticOracle(t *testing.T) {
	buf, err := mem.NewBuffer(2*mem.PageSize, false)
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	defer buf.Close()

	sameBankOffsets := map[uintptr]bool{
		0x23000: true, // next-page refine probe: still inside the span
	}
	for _, off := range fingerprintOffsets {
		sameBankOffsets[off] = true
	}

	cfg := Config{
		AccessIterations: 1,
		ThresholdMult:    1.3,
		Sample: func(a, b uintptr, iterations uint64) uint64 {
			if sameBankOffsets[b-a] {
				return 260
			}
			return 100
		},
	}

	got, ok := FindContiguousRegion(buf, cfg)
	if !ok {
		t.Fatal("FindContiguousRegion reported no match")
	}
	if got != buf.Base() {
		t.Fatalf("got %#x, want unchanged candidate base %#x", got, buf.Base())
	}
}

func TestFingerprintOffsetsSandyBridge(t *testing.T) {
	want := []uintptr{
		7*0x22000 + 0xee000,
		7 * 0x22000,
		6 * 0x22000,
		5 * 0x22000,
		4 * 0x22000,
		1 * 0x22000,
		2 * 0x22000,
	}
	if len(fingerprintOffsets) != len(want) {
		t.Fatalf("fingerprintOffsets has %d entries, want %d", len(fingerprintOffsets), len(want))
	}
	for i, off := range want {
		if fingerprintOffsets[i] != off {
			t.Errorf("fingerprintOffsets[%d] = %#x, want %#x", i, fingerprintOffsets[i], off)
		}
	}
}
