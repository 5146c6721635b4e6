package dram

import "testing"

func TestMapSandyBridgePure(t *testing.T) {
	p := Params{Channels: 1, Dimms: 1, Ranks: 2}
	offsets := []uint64{0, 0x1000, 0x22000, 0x1a0000, 0x1fffff}

	for _, off := range offsets {
		first := MapSandyBridge(off, p)
		second := MapSandyBridge(off, p)
		if first != second {
			t.Fatalf("MapSandyBridge(%#x) not pure: %+v != %+v", off, first, second)
		}
	}
}

func TestMirrorRankInvolution(t *testing.T) {
	addrs := []Addr{
		{Chan: 0, Dimm: 0, Rank: 1, Bank: 0, Row: 0x1234, Col: 0x0ff},
		{Chan: 1, Dimm: 1, Rank: 1, Bank: 3, Row: 0x0001, Col: 0x1ff},
		{Chan: 0, Dimm: 0, Rank: 0, Bank: 0, Row: 0, Col: 0},
	}

	for _, a := range addrs {
		mirrored := MirrorRank(a)
		back := MirrorRank(mirrored)
		if back != a {
			t.Fatalf("MirrorRank not an involution for %+v: got %+v after round trip", a, back)
		}
	}
}

func TestGranularityTruthTable(t *testing.T) {
	cases := []struct {
		p    Params
		want uint64
	}{
		{Params{Channels: 1, RankMirroring: false}, 1 << 13},
		{Params{Channels: 2, RankMirroring: false}, 1 << 6},
		{Params{Channels: 1, RankMirroring: true}, 1 << 6},
		{Params{Channels: 2, RankMirroring: true}, 1 << 6},
	}

	for _, c := range cases {
		if got := c.p.Granularity(); got != c.want {
			t.Errorf("Granularity(%+v) = %#x, want %#x", c.p, got, c.want)
		}
	}
}

func TestBitHelpers(t *testing.T) {
	if bit(0b1010, 1) != 1 || bit(0b1010, 0) != 0 {
		t.Fatalf("bit() mismatch")
	}
	if bits(0b101101, 5, 3) != 0b101 {
		t.Fatalf("bits() mismatch: got %#b", bits(0b101101, 5, 3))
	}
	if popBit(0b1011, 1) != 0b101 {
		t.Fatalf("popBit() mismatch: got %#b", popBit(0b1011, 1))
	}
}
