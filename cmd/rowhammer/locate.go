package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vp777/rowhammer/pkg/session"
)

var locateCmd = &cobra.Command{
	Use:   "locate",
	Args:  cobra.NoArgs,
	Short: "Locate a contiguous huge-page-sized region without hammering",
	Long: `locate allocates a buffer and runs the Sandy-Bridge contiguous
region fingerprint over it, reporting the base address of the first
match without hammering anything. Useful to validate --threshold-mult
before committing to a full hugemode run.`,
	RunE: runLocate,
}

func init() {
	locateCmd.Flags().IntP("size-mib", "s", 0, "buffer size in MiB (overrides config)")
	locateCmd.Flags().String("output", "", "report output directory (overrides config output dir)")
	locateCmd.Flags().Uint64P("access-iterations", "i", 0, "access iterations per timing sample")
	locateCmd.Flags().IntP("sample-size", "q", 0, "timing sample size")
	locateCmd.Flags().Float64P("threshold-mult", "m", 0, "same-bank timing threshold multiplier")
	locateCmd.Flags().IntP("run-seconds", "e", 0, "run-time deadline in seconds (0 disables it)")
}

func runLocate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyCommonFlags(cmd, cfg)
	applyLocateFlags(cmd, cfg)
	cfg.Buffer.HugePage = true

	runSeconds, _ := cmd.Flags().GetInt("run-seconds")

	logger := newLogger(cfg)
	ctrl, ctx, cancel := newEmergencyController(cfg, runSeconds)
	defer cancel()

	metricsReg, waitMetrics := maybeStartMetrics(ctx, logger)
	defer waitMetrics()

	sess, err := session.New(cfg, logger, ctrl, metricsReg)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	report, err := sess.Run(context.Background(), session.ModeLocate)
	if err != nil {
		return fmt.Errorf("locate run failed: %w", err)
	}

	if !report.Success {
		return fmt.Errorf("no contiguous region found")
	}
	logger.Info("contiguous region located", "base", report.Geometry.ContiguousBase)
	return nil
}
