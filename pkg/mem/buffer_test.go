package mem

import "testing"

func TestAlignUp(t *testing.T) {
	cases := []struct{ n, align, want int }{
		{0, 0x1000, 0},
		{1, 0x1000, 0x1000},
		{0x1000, 0x1000, 0x1000},
		{0x1001, 0x1000, 0x2000},
	}
	for _, c := range cases {
		if got := alignUp(c.n, c.align); got != c.want {
			t.Errorf("alignUp(%d, %d) = %d, want %d", c.n, c.align, got, c.want)
		}
	}
}

func TestBufferFillAndRead(t *testing.T) {
	buf, err := NewBuffer(4*PageSize, false)
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	defer buf.Close()

	buf.Fill(0xAB)
	for i := 0; i < buf.Len(); i += 997 {
		if got := buf.ReadByte(uintptr(i)); got != 0xAB {
			t.Fatalf("ReadByte(%d) = %#x, want 0xAB", i, got)
		}
	}

	buf.FillRange(0, 16, 0xCD)
	for i := 0; i < 16; i++ {
		if got := buf.ReadByte(uintptr(i)); got != 0xCD {
			t.Fatalf("ReadByte(%d) after FillRange = %#x, want 0xCD", i, got)
		}
	}
	if got := buf.ReadByte(16); got != 0xAB {
		t.Fatalf("FillRange overwrote past its bound")
	}
}

func TestHugeBufferRoundsUp(t *testing.T) {
	buf, err := NewBuffer(1, true)
	if err != nil {
		t.Fatalf("NewBuffer(huge): %v", err)
	}
	defer buf.Close()

	if buf.Len() != HugePageSize {
		t.Fatalf("huge buffer len = %d, want %d", buf.Len(), HugePageSize)
	}
	if !buf.HugePage() {
		t.Fatalf("HugePage() = false, want true")
	}
}
