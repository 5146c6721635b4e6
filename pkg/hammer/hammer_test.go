package hammer

import (
	"testing"
	"time"

	"github.com/vp777/rowhammer/pkg/mem"
)

func TestInterruptibleSleepReturnsEarlyOnStop(t *testing.T) {
	stopAfter := 2
	calls := 0
	stop := func() bool {
		calls++
		return calls > stopAfter
	}

	start := time.Now()
	interruptibleSleep(2*time.Second, stop)
	elapsed := time.Since(start)

	if elapsed >= 2*time.Second {
		t.Fatalf("interruptibleSleep did not return early, elapsed %s", elapsed)
	}
}

func TestBankModeIdempotentOnSafeMemory(t *testing.T) {
	buf, err := mem.NewBuffer(16*mem.PageSize, false)
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	defer buf.Close()

	buf.Fill(0xff)

	rows := make([]Row, 8)
	for i := range rows {
		rows[i] = Row{Pages: []uintptr{buf.Addr(uintptr(i) * mem.PageSize)}, PageLen: mem.PageSize}
	}

	cfg := Config{
		TestIterations:   50,
		StressIterations: 50,
		VictimFill:       0xff,
		TargetFill:       0x00,
	}
	noStop := func() bool { return false }

	first := RunBankMode(rows, cfg, noStop)
	second := RunBankMode(rows, cfg, noStop)

	if len(first.Flips) != 0 {
		t.Fatalf("expected no flips against real (non-hammered-hard) memory in a test environment, got %d", len(first.Flips))
	}
	if len(second.Flips) != 0 {
		t.Fatalf("second pass over unflipped memory produced %d flips, want 0", len(second.Flips))
	}
	if first.RoundsRun != second.RoundsRun {
		t.Fatalf("round counts differ between identical passes: %d vs %d", first.RoundsRun, second.RoundsRun)
	}
}

func TestStopStopsEarly(t *testing.T) {
	buf, err := mem.NewBuffer(8*mem.PageSize, false)
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	defer buf.Close()
	buf.Fill(0xff)

	rows := make([]Row, 4)
	for i := range rows {
		rows[i] = Row{Pages: []uintptr{buf.Addr(uintptr(i) * mem.PageSize)}, PageLen: mem.PageSize}
	}

	calls := 0
	stop := func() bool {
		calls++
		return calls > 1
	}

	res := RunBankMode(rows, Config{TestIterations: 10, StressIterations: 10, VictimFill: 0xff, TargetFill: 0}, stop)
	if res.RoundsRun != 0 {
		t.Fatalf("expected an immediate stop to prevent any rounds, got %d", res.RoundsRun)
	}
}
