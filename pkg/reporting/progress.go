package reporting

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// OutputFormat represents the progress output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatTUI  OutputFormat = "tui"
)

// ProgressReporter reports hammering session progress
type ProgressReporter struct {
	format OutputFormat
	logger *Logger
}

// NewProgressReporter creates a new progress reporter
func NewProgressReporter(format OutputFormat, logger *Logger) *ProgressReporter {
	return &ProgressReporter{
		format: format,
		logger: logger,
	}
}

// ReportState reports the current run state
func (pr *ProgressReporter) ReportState(state LiveRunState) {
	switch pr.format {
	case FormatJSON:
		pr.reportJSON(state)
	case FormatTUI:
		pr.reportTUI(state)
	default:
		pr.reportText(state)
	}
}

// ReportStateTransition reports a state transition
func (pr *ProgressReporter) ReportStateTransition(from, to string) {
	switch pr.format {
	case FormatJSON:
		data, _ := json.Marshal(map[string]interface{}{
			"event":      "state_transition",
			"from_state": from,
			"to_state":   to,
			"timestamp":  time.Now(),
		})
		fmt.Println(string(data))
	case FormatTUI:
		pr.clearLine()
		fmt.Printf("🔄 %s -> %s\n", from, to)
	default:
		fmt.Printf("🔄 State Transition: %s -> %s\n", from, to)
	}
}

// ReportTesting reports the start of one outer hammering iteration,
// ahead of any hammer bursts for that aggressor -- the progress line a
// long bankmode/hugemode run emits so a watching operator can see it's
// still making forward progress.
func (pr *ProgressReporter) ReportTesting(iteration int, addr uintptr) {
	switch pr.format {
	case FormatJSON:
		data, _ := json.Marshal(map[string]interface{}{
			"event":     "testing",
			"iteration": iteration,
			"addr":      fmt.Sprintf("%#012x", addr),
			"timestamp": time.Now(),
		})
		fmt.Println(string(data))
	case FormatTUI:
		pr.clearLine()
		fmt.Printf("[%d]Testing %#012x\n", iteration, addr)
	default:
		fmt.Printf("[%d]Testing %#012x\n", iteration, addr)
	}
}

// ReportFlipFound reports a single observed bit flip as it's confirmed
func (pr *ProgressReporter) ReportFlipFound(flip FlipEntry) {
	switch pr.format {
	case FormatJSON:
		data, _ := json.Marshal(map[string]interface{}{
			"event":     "flip_found",
			"flip":      flip,
			"timestamp": time.Now(),
		})
		fmt.Println(string(data))
	case FormatTUI:
		pr.clearLine()
		fmt.Printf("⚡ Flip: victim=%s offset=%d expected=0x%02x got=0x%02x\n",
			flip.VictimAddr, flip.Offset, flip.Expected, flip.Got)
	default:
		fmt.Printf("⚡ Bit Flip: victim=%s offset=%d expected=0x%02x got=0x%02x\n",
			flip.VictimAddr, flip.Offset, flip.Expected, flip.Got)
	}
}

// ReportRoundCompleted reports that a hammering round finished
func (pr *ProgressReporter) ReportRoundCompleted(roundsRun, flipsSoFar int) {
	switch pr.format {
	case FormatJSON:
		data, _ := json.Marshal(map[string]interface{}{
			"event":       "round_completed",
			"rounds_run":  roundsRun,
			"flips_found": flipsSoFar,
			"timestamp":   time.Now(),
		})
		fmt.Println(string(data))
	case FormatTUI:
		pr.clearLine()
		fmt.Printf("📊 Round %d complete, %d flips so far\n", roundsRun, flipsSoFar)
	default:
		fmt.Printf("📊 Round %d complete, %d flips so far\n", roundsRun, flipsSoFar)
	}
}

// ReportRunCompleted reports session completion
func (pr *ProgressReporter) ReportRunCompleted(report *FlipReport) {
	switch pr.format {
	case FormatJSON:
		data, _ := json.Marshal(map[string]interface{}{
			"event":     "run_completed",
			"report":    report,
			"timestamp": time.Now(),
		})
		fmt.Println(string(data))
	case FormatTUI:
		pr.clearLine()
		pr.printRunSummary(report)
	default:
		pr.printTextSummary(report)
	}
}

// reportText outputs progress in plain text format
func (pr *ProgressReporter) reportText(state LiveRunState) {
	elapsed := time.Since(state.StartTime).Round(time.Second)
	fmt.Printf("[%s] %s | Elapsed: %s | flips=%d rounds=%d\n",
		time.Now().Format("15:04:05"),
		state.State,
		elapsed,
		state.FlipsSoFar,
		state.RoundsSoFar,
	)
}

// reportJSON outputs progress in JSON format
func (pr *ProgressReporter) reportJSON(state LiveRunState) {
	data, err := json.Marshal(state)
	if err != nil {
		pr.logger.Error("failed to marshal state", "error", err)
		return
	}
	fmt.Println(string(data))
}

// reportTUI outputs progress in terminal UI format
func (pr *ProgressReporter) reportTUI(state LiveRunState) {
	pr.clearScreen()

	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("   Rowhammer Run: %s\n", state.Mode)
	fmt.Printf("   Run ID: %s\n", state.RunID)
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	fmt.Printf("📊 State:   %s\n", state.State)
	fmt.Printf("⏱️  Elapsed: %s\n", state.Elapsed.Round(time.Second))
	fmt.Printf("📈 Rounds:  %d\n", state.RoundsSoFar)
	fmt.Printf("⚡ Flips:   %d\n", state.FlipsSoFar)
	fmt.Println()

	fmt.Println(strings.Repeat("-", 80))
}

// printRunSummary prints a run summary in TUI format
func (pr *ProgressReporter) printRunSummary(report *FlipReport) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("   RUN SUMMARY")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	statusIcon := "✅ FLIPS FOUND"
	if !report.Success {
		statusIcon = "❌ NO FLIPS"
	}
	if report.Status == StatusStopped {
		statusIcon = "🔴 STOPPED"
	}

	fmt.Printf("%s\n", statusIcon)
	fmt.Printf("   Mode: %s\n", report.Mode)
	fmt.Printf("   Run ID: %s\n", report.RunID)
	fmt.Printf("   Duration: %s\n", report.Duration)
	fmt.Println()

	fmt.Printf("📊 Geometry: %d banks, %d pages/bank, %d rows/bank\n",
		report.Geometry.BankCount, report.Geometry.PagesPerBank, report.Geometry.RowsPerBank)
	fmt.Println()

	fmt.Printf("⚡ Flips (%d):\n", len(report.Flips))
	for _, flip := range report.Flips {
		fmt.Printf("   - %s offset %d: 0x%02x -> 0x%02x\n",
			flip.VictimAddr, flip.Offset, flip.Expected, flip.Got)
	}
	fmt.Println()

	fmt.Println(strings.Repeat("=", 80))
}

// printTextSummary prints a run summary in plain text format
func (pr *ProgressReporter) printTextSummary(report *FlipReport) {
	status := "✅ FLIPS FOUND"
	if !report.Success {
		status = "❌ NO FLIPS"
	}
	if report.Status == StatusStopped {
		status = "🔴 STOPPED"
	}

	fmt.Printf("\n[RUN SUMMARY] %s\n", status)
	fmt.Printf("  Mode: %s\n", report.Mode)
	fmt.Printf("  Run ID: %s\n", report.RunID)
	fmt.Printf("  Duration: %s\n", report.Duration)
	fmt.Printf("  Rounds Run: %d\n", report.RoundsRun)
	fmt.Printf("  Flips: %d\n", len(report.Flips))
	fmt.Println()
}

// clearScreen clears the terminal screen
func (pr *ProgressReporter) clearScreen() {
	fmt.Print("\033[2J\033[H")
}

// clearLine clears the current line
func (pr *ProgressReporter) clearLine() {
	fmt.Print("\033[K")
}
