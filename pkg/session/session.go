// Package session drives one hammering run end to end: allocate a
// buffer, profile its bank/row geometry, hammer the discovered rows,
// and hand the result to the reporting package. It is the harness's
// equivalent of a test orchestrator, just over DRAM geometry instead
// of over chaos-engineering targets.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/vp777/rowhammer/pkg/config"
	"github.com/vp777/rowhammer/pkg/dram"
	"github.com/vp777/rowhammer/pkg/emergency"
	"github.com/vp777/rowhammer/pkg/hammer"
	"github.com/vp777/rowhammer/pkg/hugeplan"
	"github.com/vp777/rowhammer/pkg/locator"
	"github.com/vp777/rowhammer/pkg/mem"
	"github.com/vp777/rowhammer/pkg/metrics"
	"github.com/vp777/rowhammer/pkg/profiler"
	"github.com/vp777/rowhammer/pkg/reporting"
	"github.com/vp777/rowhammer/pkg/rowgroup"
	"github.com/vp777/rowhammer/pkg/timing"
)

// Mode selects which hammering strategy a run uses.
type Mode string

const (
	ModeBank Mode = "bankmode"
	ModeHuge Mode = "hugemode"
	ModeLocate Mode = "locate"
)

// State represents the current stage of a run.
type State int

const (
	StateAllocate State = iota
	StateLocate
	StateProfile
	StateGroup
	StateHammer
	StateReport
	StateCompleted
	StateFailed
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateAllocate:
		return "ALLOCATE"
	case StateLocate:
		return "LOCATE"
	case StateProfile:
		return "PROFILE"
	case StateGroup:
		return "GROUP"
	case StateHammer:
		return "HAMMER"
	case StateReport:
		return "REPORT"
	case StateCompleted:
		return "COMPLETED"
	case StateFailed:
		return "FAILED"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// Session coordinates one hammering run.
type Session struct {
	cfg    *config.Config
	logger *reporting.Logger

	emergencyCtrl *emergency.Controller
	metricsReg    *metrics.Registry
	storage       *reporting.Storage
	formatter     *reporting.Formatter
	progress      *reporting.ProgressReporter

	currentState  State
	startTime     time.Time
	runID         string
	stopRequested bool

	buf  *mem.Buffer
	rows []hammer.Row

	// huge-page-mode geometry, populated only in that mode
	plan        []hugeplan.Entry
	granularity int
}

// New creates a new Session.
func New(cfg *config.Config, logger *reporting.Logger, emergencyCtrl *emergency.Controller, metricsReg *metrics.Registry) (*Session, error) {
	storage, err := reporting.NewStorage(cfg.Reporting.OutputDir, cfg.Reporting.KeepLastN, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage: %w", err)
	}

	return &Session{
		cfg:           cfg,
		logger:        logger,
		emergencyCtrl: emergencyCtrl,
		metricsReg:    metricsReg,
		storage:       storage,
		formatter:     reporting.NewFormatter(logger),
		progress:      reporting.NewProgressReporter(reporting.FormatText, logger),
		currentState:  StateAllocate,
	}, nil
}

// Run executes the complete run lifecycle for the given mode.
func (s *Session) Run(ctx context.Context, mode Mode) (out *reporting.FlipReport, runErr error) {
	s.startTime = time.Now()
	s.runID = generateRunID()

	report := &reporting.FlipReport{
		RunID:     s.runID,
		Mode:      string(mode),
		StartTime: s.startTime,
		Status:    reporting.StatusRunning,
	}

	if s.emergencyCtrl != nil {
		s.emergencyCtrl.OnStop(func() {
			s.logger.Warn("emergency stop triggered, session will end at the next poll")
			s.stopRequested = true
		})
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic during session execution", "panic", r)
			report.Status = reporting.StatusFailed
			report.Success = false
			report.Message = fmt.Sprintf("panic: %v", r)
			out, runErr = report, fmt.Errorf("panic during session: %v", r)
		}
		if s.buf != nil {
			s.buf.Close()
		}
	}()

	s.transitionState(StateAllocate)
	if err := s.executeAllocate(); err != nil {
		return s.failRun(report, err)
	}

	if s.checkStop(report, "allocate") {
		return report, nil
	}

	switch mode {
	case ModeLocate:
		s.transitionState(StateLocate)
		base, ok := s.executeLocate()
		report.Geometry.HugePage = s.cfg.Buffer.HugePage
		if ok {
			report.Geometry.ContiguousBase = fmt.Sprintf("%#x", base)
			report.Success = true
			report.Message = "contiguous region located"
		} else {
			report.Message = "no contiguous region found"
		}
		report.Status = reporting.StatusCompleted
		return s.finishRun(report)

	case ModeHuge:
		if err := s.executeLocateAndPlan(report); err != nil {
			return s.failRun(report, err)
		}
		if s.checkStop(report, "plan") {
			return report, nil
		}

		s.transitionState(StateHammer)
		result := hammer.RunHugePageMode(s.plan, s.granularity, s.hammerConfig(), s.stopFunc)
		s.absorbResult(report, result)

	case ModeBank:
		if err := s.executeProfileAndGroup(report); err != nil {
			return s.failRun(report, err)
		}
		if s.checkStop(report, "profile") {
			return report, nil
		}

		s.transitionState(StateHammer)
		result := hammer.RunBankMode(s.rows, s.hammerConfig(), s.stopFunc)
		s.absorbResult(report, result)

	default:
		return s.failRun(report, fmt.Errorf("unknown mode: %s", mode))
	}

	s.transitionState(StateReport)
	report.Status = reporting.StatusCompleted
	report.Success = len(report.Flips) > 0
	if report.Success {
		report.Message = fmt.Sprintf("%d flip(s) observed across %d round(s)", len(report.Flips), report.RoundsRun)
	} else {
		report.Message = fmt.Sprintf("no flips observed across %d round(s)", report.RoundsRun)
	}

	return s.finishRun(report)
}

func (s *Session) transitionState(newState State) {
	s.logger.Info("state transition", "from", s.currentState.String(), "to", newState.String())
	s.progress.ReportStateTransition(s.currentState.String(), newState.String())
	s.currentState = newState
}

func (s *Session) stopFunc() bool {
	return s.stopRequested
}

func (s *Session) checkStop(report *reporting.FlipReport, where string) bool {
	if !s.stopRequested {
		return false
	}
	s.transitionState(StateStopped)
	report.Status = reporting.StatusStopped
	report.Message = fmt.Sprintf("stopped before %s", where)
	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(report.StartTime).String()
	s.progress.ReportRunCompleted(report)
	return true
}

func (s *Session) executeAllocate() error {
	sizeBytes := s.cfg.Buffer.SizeMiB * 1024 * 1024
	buf, err := mem.NewBuffer(sizeBytes, s.cfg.Buffer.HugePage)
	if err != nil {
		return fmt.Errorf("failed to allocate buffer: %w", err)
	}
	s.logger.Info("buffer allocated", "size_mib", s.cfg.Buffer.SizeMiB, "huge_page", s.cfg.Buffer.HugePage)

	buf.Fill(s.cfg.Hammer.VictimFill)
	s.buf = buf
	return nil
}

func (s *Session) timingConfig() timing.Config {
	return timing.Config{
		SampleSize:     s.cfg.Timing.SampleSize,
		OrderStatistic: s.cfg.Timing.OrderStatistic,
		ThresholdMult:  s.cfg.Timing.ThresholdMult,
	}
}

func (s *Session) hammerConfig() hammer.Config {
	return hammer.Config{
		TestIterations:   s.cfg.Hammer.TestIterations,
		StressIterations: s.cfg.Hammer.StressIterations,
		HugeIterations:   s.cfg.Hammer.HugeIterations,
		VictimFill:       s.cfg.Hammer.VictimFill,
		TargetFill:       s.cfg.Hammer.TargetFill,
		Progress:         s.progress.ReportTesting,
	}
}

func (s *Session) executeLocate() (uintptr, bool) {
	cfg := locator.Config{
		Timing:           s.timingConfig(),
		AccessIterations: s.cfg.Timing.AccessIterations,
		ThresholdMult:    s.cfg.Timing.ThresholdMult,
	}
	return locator.FindContiguousRegion(s.buf, cfg)
}

func (s *Session) executeLocateAndPlan(report *reporting.FlipReport) error {
	s.transitionState(StateLocate)
	base, ok := s.executeLocate()
	if !ok {
		return fmt.Errorf("no contiguous huge-page region found")
	}
	report.Geometry.ContiguousBase = fmt.Sprintf("%#x", base)
	report.Geometry.HugePage = true

	params := dram.Params{
		Channels:      s.cfg.DRAM.Channels,
		Dimms:         s.cfg.DRAM.Dimms,
		Ranks:         s.cfg.DRAM.Ranks,
		RankMirroring: s.cfg.DRAM.RankMirroring,
	}
	s.granularity = int(params.Granularity())
	s.plan = hugeplan.Plan(base, uint64(mem.HugePageSize), params)
	s.logger.Info("huge-page geometry planned", "entries", len(s.plan), "granularity", s.granularity)

	if s.metricsReg != nil {
		s.metricsReg.CurrentThresh.Set(0)
	}
	return nil
}

func (s *Session) executeProfileAndGroup(report *reporting.FlipReport) error {
	s.transitionState(StateProfile)
	origin := s.buf.Base()
	pCfg := profiler.Config{
		Timing:           s.timingConfig(),
		AccessIterations: s.cfg.Timing.AccessIterations,
		CalibrationRuns:  s.cfg.Timing.CalibrationRuns,
		Step:             mem.PageSize,
	}
	result := profiler.Profile(origin, s.buf, pCfg)
	if s.metricsReg != nil {
		s.metricsReg.CurrentThresh.Set(float64(result.Threshold))
	}

	totalSlots := s.buf.Len() / mem.PageSize
	bankCount, _ := profiler.EstimateBankCount(len(result.Pages), totalSlots)
	report.Geometry.BankCount = bankCount
	report.Geometry.PagesPerBank = len(result.Pages)
	report.Timing = reporting.TimingInfo{
		ThresholdCycles: result.Threshold,
		ThresholdMult:   s.cfg.Timing.ThresholdMult,
		CalibrationRuns: s.cfg.Timing.CalibrationRuns,
	}

	if len(result.Pages) == 0 {
		return fmt.Errorf("profiling found no same-bank pages")
	}

	s.transitionState(StateGroup)
	groups := rowgroup.GroupRows(result.Pages, rowgroup.Config{
		Timing:           s.timingConfig(),
		AccessIterations: s.cfg.Timing.AccessIterations,
		PagesPerRow:      4,
	})
	report.Geometry.RowsPerBank = len(groups)

	rows := make([]hammer.Row, len(groups))
	for i, g := range groups {
		rows[i] = hammer.Row{Pages: g.Pages, PageLen: mem.PageSize}
	}
	s.rows = rows
	s.logger.Info("rows grouped", "rows", len(rows))
	return nil
}

func (s *Session) absorbResult(report *reporting.FlipReport, result hammer.Result) {
	report.RoundsRun = result.RoundsRun
	if s.metricsReg != nil {
		s.metricsReg.RoundsRun.Add(float64(result.RoundsRun))
	}

	params := dram.Params{
		Channels:      s.cfg.DRAM.Channels,
		Dimms:         s.cfg.DRAM.Dimms,
		Ranks:         s.cfg.DRAM.Ranks,
		RankMirroring: s.cfg.DRAM.RankMirroring,
	}

	for _, flip := range result.Flips {
		entry := reporting.FlipEntry{
			AggressorA: fmt.Sprintf("%#x", flip.AggressorA),
			AggressorB: fmt.Sprintf("%#x", flip.AggressorB),
			VictimAddr: fmt.Sprintf("%#x", flip.VictimAddr),
			Offset:     flip.Offset,
			Expected:   flip.Expected,
			Got:        flip.Got,
		}
		if s.buf != nil && flip.VictimAddr >= s.buf.Base() {
			physOffset := uint64(flip.VictimAddr-s.buf.Base()) % uint64(mem.HugePageSize)
			addr := dram.MapSandyBridge(physOffset, params)
			entry.Channel, entry.Dimm, entry.Rank, entry.Bank = addr.Chan, addr.Dimm, addr.Rank, addr.Bank
			entry.Row, entry.Col = addr.Row, addr.Col
		}
		report.Flips = append(report.Flips, entry)
		s.progress.ReportFlipFound(entry)
		if s.metricsReg != nil {
			s.metricsReg.FlipsFound.Inc()
		}
	}
	s.progress.ReportRoundCompleted(result.RoundsRun, len(result.Flips))
}

func (s *Session) finishRun(report *reporting.FlipReport) (*reporting.FlipReport, error) {
	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(report.StartTime).String()

	if path, err := s.storage.SaveReport(report); err != nil {
		s.logger.Warn("failed to save report", "error", err)
	} else {
		s.logger.Info("report saved", "path", path)
	}

	for _, format := range s.cfg.Reporting.Formats {
		if format == "json" {
			continue // already saved by storage
		}
		outPath := reporting.GetReportPath(report, reporting.ReportFormat(format), s.cfg.Reporting.OutputDir)
		if err := s.formatter.GenerateReport(report, reporting.ReportFormat(format), outPath); err != nil {
			s.logger.Warn("failed to render report", "format", format, "error", err)
		}
	}

	s.transitionState(StateCompleted)
	s.progress.ReportRunCompleted(report)
	return report, nil
}

func (s *Session) failRun(report *reporting.FlipReport, err error) (*reporting.FlipReport, error) {
	s.transitionState(StateFailed)
	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(report.StartTime).String()
	report.Status = reporting.StatusFailed
	report.Success = false
	report.Message = err.Error()
	report.Errors = append(report.Errors, err.Error())
	s.progress.ReportRunCompleted(report)
	return report, err
}

// RequestStop asks the running session to stop at the next poll point.
func (s *Session) RequestStop() {
	s.logger.Warn("stop requested")
	s.stopRequested = true
}

func generateRunID() string {
	return fmt.Sprintf("run-%d", time.Now().UnixNano())
}
