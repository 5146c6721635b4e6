package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vp777/rowhammer/pkg/session"
)

var bankModeCmd = &cobra.Command{
	Use:   "bankmode",
	Args:  cobra.NoArgs,
	Short: "Profile a bank by page-granular SBDR and hammer every row pair",
	Long: `bankmode allocates a buffer, profiles it for pages that share a
DRAM bank via the SBDR timing side channel, groups those pages into rows
via the extended-mode row grouper, then double-sided-hammers every row
pair looking for bit flips.`,
	RunE: runBankMode,
}

func init() {
	bankModeCmd.Flags().IntP("size-mib", "s", 0, "buffer size in MiB (overrides config)")
	bankModeCmd.Flags().String("output", "", "report output directory (overrides config output dir)")
	bankModeCmd.Flags().Uint64P("access-iterations", "i", 0, "access iterations per timing sample")
	bankModeCmd.Flags().IntP("sample-size", "q", 0, "timing sample size")
	bankModeCmd.Flags().Uint64P("test-iterations", "b", 0, "hammering test iterations")
	bankModeCmd.Flags().Uint64P("stress-iterations", "B", 0, "amplification stress iterations")
	bankModeCmd.Flags().IntP("run-seconds", "e", 0, "run-time deadline in seconds (0 disables it)")
	bankModeCmd.Flags().Uint8P("channels", "c", 0, "DRAM channel count")
	bankModeCmd.Flags().Uint8P("dimms", "d", 0, "DRAM dimm count")
	bankModeCmd.Flags().Uint8P("ranks", "r", 0, "DRAM rank count")
	bankModeCmd.Flags().Uint8P("target-fill", "t", 0, "aggressor row fill byte")
	bankModeCmd.Flags().Uint8P("victim-fill", "v", 0, "victim row initial fill byte")
}

func runBankMode(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyCommonFlags(cmd, cfg)
	applyHammerFlags(cmd, cfg)

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

	report, err := sess.Run(context.Background(), session.ModeBank)
	if err != nil {
		return fmt.Errorf("bank-mode run failed: %w", err)
	}

	logger.Info("bank-mode run finished", "flips", len(report.Flips), "rounds", report.RoundsRun)
	if !report.Success {
		return fmt.Errorf("no bit flips observed")
	}
	return nil
}
