package reporting

import (
	"time"
)

// FlipReport represents a complete hammering session report.
type FlipReport struct {
	// Run metadata
	RunID     string    `json:"run_id"`
	Mode      string    `json:"mode"` // "bankmode", "hugemode", "locate"
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  string    `json:"duration"`

	// Run result
	Status  RunStatus `json:"status"`
	Success bool      `json:"success"`
	Message string    `json:"message,omitempty"`

	// Geometry discovered before hammering began
	Geometry GeometryInfo `json:"geometry"`

	// Flips observed across all rounds
	Flips     []FlipEntry `json:"flips"`
	RoundsRun int         `json:"rounds_run"`

	// Timing calibration
	Timing TimingInfo `json:"timing"`

	// Errors encountered
	Errors []string `json:"errors,omitempty"`
}

// RunStatus represents the status of a hammering run.
type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
	StatusStopped   RunStatus = "stopped"
)

// GeometryInfo records the bank/row topology discovered during profiling,
// ahead of the hammering rounds that used it.
type GeometryInfo struct {
	BankCount      int    `json:"bank_count"`
	PagesPerBank   int    `json:"pages_per_bank"`
	RowsPerBank    int    `json:"rows_per_bank"`
	HugePage       bool   `json:"huge_page"`
	ContiguousBase string `json:"contiguous_base,omitempty"`
}

// TimingInfo records the calibration that produced the same-bank/same-row
// threshold a run hammered against.
type TimingInfo struct {
	ThresholdCycles uint64  `json:"threshold_cycles"`
	ThresholdMult   float64 `json:"threshold_mult"`
	CalibrationRuns int     `json:"calibration_runs"`
}

// FlipEntry describes a single observed bit flip.
type FlipEntry struct {
	AggressorA string `json:"aggressor_a"`
	AggressorB string `json:"aggressor_b"`
	VictimAddr string `json:"victim_addr"`
	Offset     int    `json:"offset"`
	Expected   byte   `json:"expected"`
	Got        byte   `json:"got"`

	// Physical geometry of the victim, when the mapper resolved it.
	Channel uint8  `json:"channel,omitempty"`
	Dimm    uint8  `json:"dimm,omitempty"`
	Rank    uint8  `json:"rank,omitempty"`
	Bank    uint8  `json:"bank,omitempty"`
	Row     uint16 `json:"row,omitempty"`
	Col     uint16 `json:"col,omitempty"`
}

// LiveRunState represents the current state of a running session, used by
// a CLI progress line or a future status endpoint.
type LiveRunState struct {
	RunID     string        `json:"run_id"`
	Mode      string        `json:"mode"`
	State     string        `json:"state"`
	StartTime time.Time     `json:"start_time"`
	Elapsed   time.Duration `json:"elapsed"`

	FlipsSoFar  int `json:"flips_so_far"`
	RoundsSoFar int `json:"rounds_so_far"`
}
