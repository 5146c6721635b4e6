package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/vp777/rowhammer/pkg/config"
	"github.com/vp777/rowhammer/pkg/emergency"
	"github.com/vp777/rowhammer/pkg/metrics"
	"github.com/vp777/rowhammer/pkg/reporting"
)

// loadConfig loads the configuration from file, auto-generating if needed.
func loadConfig() (*config.Config, error) {
	configPath := cfgFile
	if configPath == "" {
		configPath = "config.yaml"
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		fmt.Printf("config file not found, creating default configuration at: %s\n", configPath)

		cfg := config.DefaultConfig()
		if err := cfg.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// newLogger builds the session logger from global flags and config.
func newLogger(cfg *config.Config) *reporting.Logger {
	level := reporting.LogLevelInfo
	if verbose {
		level = reporting.LogLevelDebug
	}

	format := reporting.LogFormat(logFormat)
	if format == "" {
		format = reporting.LogFormat(cfg.Framework.LogFormat)
	}

	return reporting.NewLogger(reporting.LoggerConfig{
		Level:  level,
		Format: format,
		Output: os.Stdout,
	})
}

// newEmergencyController arms the deadline and SIGINT handlers shared by
// every subcommand, and returns a context canceled once the run ends.
func newEmergencyController(cfg *config.Config, runSeconds int) (*emergency.Controller, context.Context, context.CancelFunc) {
	ctrl := emergency.New(emergency.Config{
		EnableSignalHandlers: cfg.Emergency.EnableSignalHandler,
	})

	ctx, cancel := context.WithCancel(context.Background())
	deadline := cfg.Emergency.RunSeconds
	if runSeconds > 0 {
		deadline = time.Duration(runSeconds) * time.Second
	}
	ctrl.Start(ctx, deadline)

	return ctrl, ctx, cancel
}

// maybeStartMetrics starts the optional Prometheus listener in the
// background when --metrics-addr is set, returning its registry (nil if
// disabled) and a function that waits for the listener to shut down.
func maybeStartMetrics(ctx context.Context, logger *reporting.Logger) (*metrics.Registry, func()) {
	if metricsAddr == "" {
		return nil, func() {}
	}

	reg := metrics.NewRegistry()
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := reg.Serve(ctx, metricsAddr); err != nil {
			logger.Warn("metrics listener exited", "error", err)
		}
	}()

	return reg, func() { <-done }
}

// applyCommonFlags overlays the buffer/timing/output flags shared by every
// subcommand onto cfg, leaving config-file values in place where a flag
// was never set.
func applyCommonFlags(cmd *cobra.Command, cfg *config.Config) {
	if v, _ := cmd.Flags().GetInt("size-mib"); v > 0 {
		cfg.Buffer.SizeMiB = v
	}
	if v, _ := cmd.Flags().GetUint64("access-iterations"); v > 0 {
		cfg.Timing.AccessIterations = v
	}
	if v, _ := cmd.Flags().GetInt("sample-size"); v > 0 {
		cfg.Timing.SampleSize = v
	}
	if v, _ := cmd.Flags().GetString("output"); v != "" {
		cfg.Reporting.OutputDir = v
	}
}

// applyHammerFlags overlays the hammer/DRAM-topology flags onto cfg.
func applyHammerFlags(cmd *cobra.Command, cfg *config.Config) {
	if v, _ := cmd.Flags().GetUint64("test-iterations"); v > 0 {
		cfg.Hammer.TestIterations = v
	}
	if v, _ := cmd.Flags().GetUint64("stress-iterations"); v > 0 {
		cfg.Hammer.StressIterations = v
	}
	if v, _ := cmd.Flags().GetUint8("channels"); v > 0 {
		cfg.DRAM.Channels = v
	}
	if v, _ := cmd.Flags().GetUint8("dimms"); v > 0 {
		cfg.DRAM.Dimms = v
	}
	if v, _ := cmd.Flags().GetUint8("ranks"); v > 0 {
		cfg.DRAM.Ranks = v
	}
	if cmd.Flags().Changed("target-fill") {
		v, _ := cmd.Flags().GetUint8("target-fill")
		cfg.Hammer.TargetFill = v
	}
	if cmd.Flags().Changed("victim-fill") {
		v, _ := cmd.Flags().GetUint8("victim-fill")
		cfg.Hammer.VictimFill = v
	}
}

// applyLocateFlags overlays the locate-mode-specific flags onto cfg.
func applyLocateFlags(cmd *cobra.Command, cfg *config.Config) {
	if v, _ := cmd.Flags().GetFloat64("threshold-mult"); v > 0 {
		cfg.Timing.ThresholdMult = v
	}
}
