package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vp777/rowhammer/pkg/session"
)

var hugeModeCmd = &cobra.Command{
	Use:   "hugemode",
	Args:  cobra.NoArgs,
	Short: "Locate a contiguous huge page, map it, and hammer row-adjacent triples",
	Long: `hugemode allocates a huge-page-backed buffer, locates a
physically contiguous 2MiB span inside it via the Sandy-Bridge timing
fingerprint, maps every 64-byte (or 8KiB) stride to its DRAM coordinates
analytically, and hammers each row-adjacent triple that shares a bank,
scanning only the sandwiched victim row.`,
	RunE: runHugeMode,
}

func init() {
	hugeModeCmd.Flags().IntP("size-mib", "s", 0, "buffer size in MiB (overrides config)")
	hugeModeCmd.Flags().String("output", "", "report output directory (overrides config output dir)")
	hugeModeCmd.Flags().Uint64P("access-iterations", "i", 0, "access iterations per timing sample")
	hugeModeCmd.Flags().IntP("sample-size", "q", 0, "timing sample size")
	hugeModeCmd.Flags().Uint64P("test-iterations", "b", 0, "hammering test iterations")
	hugeModeCmd.Flags().Uint64P("stress-iterations", "B", 0, "amplification stress iterations")
	hugeModeCmd.Flags().IntP("run-seconds", "e", 0, "run-time deadline in seconds (0 disables it)")
	hugeModeCmd.Flags().Uint8P("channels", "c", 0, "DRAM channel count")
	hugeModeCmd.Flags().Uint8P("dimms", "d", 0, "DRAM dimm count")
	hugeModeCmd.Flags().Uint8P("ranks", "r", 0, "DRAM rank count")
	hugeModeCmd.Flags().Uint8P("target-fill", "t", 0, "aggressor row fill byte")
	hugeModeCmd.Flags().Uint8P("victim-fill", "v", 0, "victim row initial fill byte")
}

func runHugeMode(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyCommonFlags(cmd, cfg)
	applyHammerFlags(cmd, cfg)
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

	report, err := sess.Run(context.Background(), session.ModeHuge)
	if err != nil {
		return fmt.Errorf("huge-page-mode run failed: %w", err)
	}

	logger.Info("huge-page-mode run finished", "flips", len(report.Flips), "rounds", report.RoundsRun)
	if !report.Success {
		return fmt.Errorf("no bit flips observed")
	}
	return nil
}
