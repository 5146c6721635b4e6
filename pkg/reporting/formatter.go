package reporting

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ReportFormat represents the report output format
type ReportFormat string

const (
	ReportFormatHTML ReportFormat = "html"
	ReportFormatText ReportFormat = "text"
	ReportFormatJSON ReportFormat = "json"
)

// Formatter generates formatted reports from run data
type Formatter struct {
	logger *Logger
}

// NewFormatter creates a new report formatter
func NewFormatter(logger *Logger) *Formatter {
	return &Formatter{
		logger: logger,
	}
}

// GenerateReport generates a report in the specified format
func (f *Formatter) GenerateReport(report *FlipReport, format ReportFormat, outputPath string) error {
	switch format {
	case ReportFormatHTML:
		return f.generateHTMLReport(report, outputPath)
	case ReportFormatText:
		return f.generateTextReport(report, outputPath)
	case ReportFormatJSON:
		// Already handled by storage
		return fmt.Errorf("JSON format is automatically saved by storage")
	default:
		return fmt.Errorf("unsupported report format: %s", format)
	}
}

// generateHTMLReport generates an HTML report
func (f *Formatter) generateHTMLReport(report *FlipReport, outputPath string) error {
	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"formatTime": func(t time.Time) string {
			return t.Format("2006-01-02 15:04:05")
		},
		"statusClass": func(success bool) string {
			if success {
				return "pass"
			}
			return "fail"
		},
		"statusIcon": func(success bool) string {
			if success {
				return "⚡"
			}
			return "➖"
		},
	}).Parse(htmlTemplate)

	if err != nil {
		return fmt.Errorf("failed to parse HTML template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, report); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write HTML report: %w", err)
	}

	f.logger.Info("HTML report generated", "path", outputPath)
	return nil
}

// generateTextReport generates a plain text report
func (f *Formatter) generateTextReport(report *FlipReport, outputPath string) error {
	var buf bytes.Buffer

	buf.WriteString(strings.Repeat("=", 80) + "\n")
	buf.WriteString("   ROWHAMMER SESSION REPORT\n")
	buf.WriteString(strings.Repeat("=", 80) + "\n\n")

	status := "COMPLETED"
	if !report.Success {
		status = "NO FLIPS"
	}
	if report.Status == StatusStopped {
		status = "STOPPED"
	}

	buf.WriteString("RUN SUMMARY\n")
	buf.WriteString(strings.Repeat("-", 80) + "\n")
	buf.WriteString(fmt.Sprintf("Status:       %s\n", status))
	buf.WriteString(fmt.Sprintf("Run ID:       %s\n", report.RunID))
	buf.WriteString(fmt.Sprintf("Mode:         %s\n", report.Mode))
	buf.WriteString(fmt.Sprintf("Start Time:   %s\n", report.StartTime.Format("2006-01-02 15:04:05")))
	buf.WriteString(fmt.Sprintf("End Time:     %s\n", report.EndTime.Format("2006-01-02 15:04:05")))
	buf.WriteString(fmt.Sprintf("Duration:     %s\n", report.Duration))
	if report.Message != "" {
		buf.WriteString(fmt.Sprintf("Message:      %s\n", report.Message))
	}
	buf.WriteString("\n")

	buf.WriteString("GEOMETRY\n")
	buf.WriteString(strings.Repeat("-", 80) + "\n")
	buf.WriteString(fmt.Sprintf("Bank Count:    %d\n", report.Geometry.BankCount))
	buf.WriteString(fmt.Sprintf("Pages/Bank:    %d\n", report.Geometry.PagesPerBank))
	buf.WriteString(fmt.Sprintf("Rows/Bank:     %d\n", report.Geometry.RowsPerBank))
	buf.WriteString(fmt.Sprintf("Huge Page:     %v\n", report.Geometry.HugePage))
	if report.Geometry.ContiguousBase != "" {
		buf.WriteString(fmt.Sprintf("Contig. Base:  %s\n", report.Geometry.ContiguousBase))
	}
	buf.WriteString("\n")

	buf.WriteString("TIMING CALIBRATION\n")
	buf.WriteString(strings.Repeat("-", 80) + "\n")
	buf.WriteString(fmt.Sprintf("Threshold:     %d cycles\n", report.Timing.ThresholdCycles))
	buf.WriteString(fmt.Sprintf("Threshold x:   %.2f\n", report.Timing.ThresholdMult))
	buf.WriteString(fmt.Sprintf("Calib. Runs:   %d\n", report.Timing.CalibrationRuns))
	buf.WriteString("\n")

	buf.WriteString(fmt.Sprintf("ROUNDS RUN: %d\n\n", report.RoundsRun))

	if len(report.Flips) > 0 {
		buf.WriteString("FLIPS OBSERVED\n")
		buf.WriteString(strings.Repeat("-", 80) + "\n")
		for i, flip := range report.Flips {
			buf.WriteString(fmt.Sprintf("%d. victim=%s offset=%d expected=0x%02x got=0x%02x\n",
				i+1, flip.VictimAddr, flip.Offset, flip.Expected, flip.Got))
			buf.WriteString(fmt.Sprintf("   aggressors: %s / %s\n", flip.AggressorA, flip.AggressorB))
			buf.WriteString(fmt.Sprintf("   geometry:   chan=%d dimm=%d rank=%d bank=%d row=%d col=%d\n",
				flip.Channel, flip.Dimm, flip.Rank, flip.Bank, flip.Row, flip.Col))
			buf.WriteString("\n")
		}
	} else {
		buf.WriteString("No bit flips observed during this run.\n\n")
	}

	if len(report.Errors) > 0 {
		buf.WriteString("ERRORS\n")
		buf.WriteString(strings.Repeat("-", 80) + "\n")
		for i, err := range report.Errors {
			buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, err))
		}
		buf.WriteString("\n")
	}

	buf.WriteString(strings.Repeat("=", 80) + "\n")
	buf.WriteString(fmt.Sprintf("Generated: %s\n", time.Now().Format("2006-01-02 15:04:05")))
	buf.WriteString(strings.Repeat("=", 80) + "\n")

	if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write text report: %w", err)
	}

	f.logger.Info("Text report generated", "path", outputPath)
	return nil
}

// CompareReports generates a comparison report for multiple runs
func (f *Formatter) CompareReports(reports []*FlipReport, outputPath string) error {
	if len(reports) < 2 {
		return fmt.Errorf("need at least 2 reports to compare")
	}

	var buf bytes.Buffer

	buf.WriteString(strings.Repeat("=", 80) + "\n")
	buf.WriteString("   ROWHAMMER RUN COMPARISON\n")
	buf.WriteString(strings.Repeat("=", 80) + "\n\n")

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].StartTime.Before(reports[j].StartTime)
	})

	buf.WriteString("RUN SUMMARY\n")
	buf.WriteString(strings.Repeat("-", 80) + "\n")
	buf.WriteString(fmt.Sprintf("%-20s %-10s %-12s %-10s %-10s\n",
		"Run ID", "Mode", "Status", "Duration", "Flips"))
	buf.WriteString(strings.Repeat("-", 80) + "\n")

	for _, report := range reports {
		status := "COMPLETED"
		if !report.Success {
			status = "NO FLIPS"
		}

		buf.WriteString(fmt.Sprintf("%-20s %-10s %-12s %-10s %d\n",
			report.RunID[:min(20, len(report.RunID))],
			report.Mode,
			status,
			report.Duration,
			len(report.Flips),
		))
	}
	buf.WriteString("\n")

	if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write comparison report: %w", err)
	}

	f.logger.Info("Comparison report generated", "path", outputPath)
	return nil
}

// GetReportPath generates a report file path based on a run report and format
func GetReportPath(report *FlipReport, format ReportFormat, outputDir string) string {
	timestamp := report.StartTime.Format("20060102-150405")
	ext := string(format)
	filename := fmt.Sprintf("report-%s-%s.%s", timestamp, report.RunID, ext)
	return filepath.Join(outputDir, filename)
}

// Helper function
func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// HTML template for report generation
const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Rowhammer Session Report - {{.RunID}}</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
            line-height: 1.6;
            color: #333;
            max-width: 1200px;
            margin: 0 auto;
            padding: 20px;
            background-color: #f5f5f5;
        }
        .container {
            background-color: white;
            border-radius: 8px;
            box-shadow: 0 2px 4px rgba(0,0,0,0.1);
            padding: 30px;
        }
        h1, h2 {
            color: #2c3e50;
            border-bottom: 2px solid #3498db;
            padding-bottom: 10px;
        }
        .header {
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            color: white;
            padding: 30px;
            border-radius: 8px 8px 0 0;
            margin: -30px -30px 30px -30px;
        }
        .status {
            display: inline-block;
            padding: 5px 15px;
            border-radius: 4px;
            font-weight: bold;
            margin-left: 10px;
        }
        .status.pass {
            background-color: #27ae60;
            color: white;
        }
        .status.fail {
            background-color: #7f8c8d;
            color: white;
        }
        .info-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(250px, 1fr));
            gap: 20px;
            margin: 20px 0;
        }
        .info-box {
            background-color: #ecf0f1;
            padding: 15px;
            border-radius: 4px;
        }
        .info-label {
            font-weight: bold;
            color: #7f8c8d;
            font-size: 0.9em;
            margin-bottom: 5px;
        }
        .info-value {
            font-size: 1.1em;
            color: #2c3e50;
        }
        table {
            width: 100%;
            border-collapse: collapse;
            margin: 20px 0;
        }
        th, td {
            padding: 12px;
            text-align: left;
            border-bottom: 1px solid #ddd;
        }
        th {
            background-color: #3498db;
            color: white;
        }
        tr:hover {
            background-color: #f5f5f5;
        }
        .flip {
            margin: 15px 0;
            padding: 15px;
            border-left: 4px solid #e67e22;
            background-color: #f9f9f9;
        }
        .flip-name {
            font-weight: bold;
            font-size: 1.1em;
        }
        .flip-details {
            color: #666;
            margin-top: 5px;
        }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Rowhammer Session Report</h1>
            <p>{{.Mode}}</p>
            <p>Run ID: {{.RunID}}</p>
        </div>

        <h2>Run Summary<span class="status {{statusClass .Success}}">{{if .Success}}FLIPS FOUND{{else}}NO FLIPS{{end}}</span></h2>
        <div class="info-grid">
            <div class="info-box">
                <div class="info-label">Start Time</div>
                <div class="info-value">{{formatTime .StartTime}}</div>
            </div>
            <div class="info-box">
                <div class="info-label">End Time</div>
                <div class="info-value">{{formatTime .EndTime}}</div>
            </div>
            <div class="info-box">
                <div class="info-label">Duration</div>
                <div class="info-value">{{.Duration}}</div>
            </div>
            <div class="info-box">
                <div class="info-label">Status</div>
                <div class="info-value">{{.Status}}</div>
            </div>
        </div>

        <h2>Geometry</h2>
        <div class="info-grid">
            <div class="info-box">
                <div class="info-label">Bank Count</div>
                <div class="info-value">{{.Geometry.BankCount}}</div>
            </div>
            <div class="info-box">
                <div class="info-label">Pages per Bank</div>
                <div class="info-value">{{.Geometry.PagesPerBank}}</div>
            </div>
            <div class="info-box">
                <div class="info-label">Rows per Bank</div>
                <div class="info-value">{{.Geometry.RowsPerBank}}</div>
            </div>
        </div>

        {{if .Flips}}
        <h2>Flips Observed</h2>
        {{range .Flips}}
        <div class="flip">
            <div class="flip-name">{{.VictimAddr}} offset {{.Offset}}</div>
            <div class="flip-details">
                <p><strong>Expected:</strong> {{.Expected}} <strong>Got:</strong> {{.Got}}</p>
                <p><strong>Aggressors:</strong> {{.AggressorA}} / {{.AggressorB}}</p>
                <p><strong>Geometry:</strong> chan={{.Channel}} dimm={{.Dimm}} rank={{.Rank}} bank={{.Bank}} row={{.Row}} col={{.Col}}</p>
            </div>
        </div>
        {{end}}
        {{end}}

        {{if .Errors}}
        <h2>Errors</h2>
        <ul>
            {{range .Errors}}
            <li>{{.}}</li>
            {{end}}
        </ul>
        {{end}}

        <p style="text-align: center; color: #7f8c8d; margin-top: 30px;">
            Generated by the rowhammer harness • {{formatTime .EndTime}}
        </p>
    </div>
</body>
</html>
`
