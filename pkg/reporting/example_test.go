package reporting_test

import (
	"fmt"
	"os"
	"time"

	"github.com/vp777/rowhammer/pkg/reporting"
)

// Example demonstrates the reporting package usage
func Example() {
	logger := reporting.NewLogger(reporting.LoggerConfig{
		Level:  reporting.LogLevelInfo,
		Format: reporting.LogFormatText,
		Output: os.Stdout,
	})

	logger.Info("hammering session starting")
	logger.Info("bank profiled", "bank", 0, "pages", 16)
	logger.Info("flip observed", "offset", 412)

	storage, err := reporting.NewStorage("./test-reports", 10, logger)
	if err != nil {
		fmt.Printf("Failed to create storage: %v\n", err)
		return
	}
	defer os.RemoveAll("./test-reports")

	report := &reporting.FlipReport{
		RunID:     "run-12345",
		Mode:      "bankmode",
		StartTime: time.Now().Add(-5 * time.Minute),
		EndTime:   time.Now(),
		Duration:  "5m0s",
		Status:    reporting.StatusCompleted,
		Success:   true,
		Geometry: reporting.GeometryInfo{
			BankCount:    16,
			PagesPerBank: 4096,
			RowsPerBank:  256,
		},
		Timing: reporting.TimingInfo{
			ThresholdCycles: 420,
			ThresholdMult:   1.3,
			CalibrationRuns: 64,
		},
		RoundsRun: 120,
		Flips: []reporting.FlipEntry{
			{
				AggressorA: "0x7f0010000000",
				AggressorB: "0x7f0010004000",
				VictimAddr: "0x7f0010002000",
				Offset:     412,
				Expected:   0xff,
				Got:        0xfe,
				Bank:       3,
				Row:        118,
			},
		},
	}

	path, err := storage.SaveReport(report)
	if err != nil {
		fmt.Printf("Failed to save report: %v\n", err)
		return
	}

	fmt.Printf("Report saved successfully\n")

	summaries, err := storage.ListReports()
	if err != nil {
		fmt.Printf("Failed to list reports: %v\n", err)
		return
	}

	fmt.Printf("Found %d report(s)\n", len(summaries))
	for _, summary := range summaries {
		fmt.Printf("  %s: %s (%s)\n", summary.RunID, summary.Mode, summary.Status)
	}

	loadedReport, err := storage.LoadReport(path)
	if err != nil {
		fmt.Printf("Failed to load report: %v\n", err)
		return
	}

	fmt.Printf("Loaded report for run: %s\n", loadedReport.RunID)

	formatter := reporting.NewFormatter(logger)

	textPath := "./test-reports/report.txt"
	if err := formatter.GenerateReport(report, reporting.ReportFormatText, textPath); err != nil {
		fmt.Printf("Failed to generate text report: %v\n", err)
		return
	}
	fmt.Printf("Text report generated\n")

	htmlPath := "./test-reports/report.html"
	if err := formatter.GenerateReport(report, reporting.ReportFormatHTML, htmlPath); err != nil {
		fmt.Printf("Failed to generate HTML report: %v\n", err)
		return
	}
	fmt.Printf("HTML report generated\n")

	// Output will vary due to timestamps, so we don't include it
}
