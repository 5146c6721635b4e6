package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile     string
	verbose     bool
	logFormat   string
	metricsAddr string
	version     = "dev" // set by build flags
)

var rootCmd = &cobra.Command{
	Use:   "rowhammer",
	Short: "Rowhammer DRAM bit-flip induction harness",
	Long: `rowhammer profiles a DIMM's bank/row geometry through a timing
side channel and double-sided-hammers discovered row pairs looking for
induced bit flips, either at page granularity (bank mode) or against an
analytically mapped contiguous huge page (huge-page mode).`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log output format (text, json)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Prometheus /metrics listener address (empty disables it)")

	rootCmd.AddCommand(bankModeCmd)
	rootCmd.AddCommand(hugeModeCmd)
	rootCmd.AddCommand(locateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
