// Package config loads and validates the harness configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the full harness configuration.
type Config struct {
	Framework FrameworkConfig `yaml:"framework"`
	Buffer    BufferConfig    `yaml:"buffer"`
	Timing    TimingConfig    `yaml:"timing"`
	DRAM      DRAMConfig      `yaml:"dram"`
	Hammer    HammerConfig    `yaml:"hammer"`
	Reporting ReportingConfig `yaml:"reporting"`
	Emergency EmergencyConfig `yaml:"emergency"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// FrameworkConfig contains general harness settings.
type FrameworkConfig struct {
	Version   string `yaml:"version"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// BufferConfig describes the memory region under test.
type BufferConfig struct {
	SizeMiB  int  `yaml:"size_mib"`
	HugePage bool `yaml:"huge_page"`
}

// TimingConfig controls sampling and calibration of the rdtsc side channel.
type TimingConfig struct {
	AccessIterations uint64  `yaml:"access_iterations"`
	SampleSize       int     `yaml:"sample_size"`
	CalibrationRuns  int     `yaml:"calibration_runs"`
	OrderStatistic   int     `yaml:"order_statistic"`
	ThresholdMult    float64 `yaml:"threshold_mult"`
}

// DRAMConfig describes the DIMM topology assumed by the analytic mapper.
type DRAMConfig struct {
	Channels      uint8 `yaml:"channels"`
	Dimms         uint8 `yaml:"dimms"`
	Ranks         uint8 `yaml:"ranks"`
	RankMirroring bool  `yaml:"rank_mirroring"`
}

// HammerConfig controls the hammering drivers.
type HammerConfig struct {
	TestIterations   uint64 `yaml:"test_iterations"`
	StressIterations uint64 `yaml:"stress_iterations"`
	// HugeIterations is the hammer count used by huge-page mode, which
	// needs to span at least one refresh interval -- TestIterations is
	// too small for that by design.
	HugeIterations uint64 `yaml:"huge_iterations"`
	VictimFill     byte   `yaml:"victim_fill"`
	TargetFill     byte   `yaml:"target_fill"`
}

// ReportingConfig contains reporting and output settings.
type ReportingConfig struct {
	OutputDir string   `yaml:"output_dir"`
	KeepLastN int      `yaml:"keep_last_n"`
	Formats   []string `yaml:"formats"`
}

// EmergencyConfig contains deadline/interrupt settings.
type EmergencyConfig struct {
	RunSeconds          time.Duration `yaml:"run_seconds"`
	EnableSignalHandler bool          `yaml:"enable_signal_handler"`
}

// MetricsConfig controls the optional Prometheus exposition endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{
		Framework: FrameworkConfig{
			Version:   "v1",
			LogLevel:  "info",
			LogFormat: "text",
		},
		Buffer: BufferConfig{
			SizeMiB:  256,
			HugePage: false,
		},
		Timing: TimingConfig{
			AccessIterations: 5000,
			SampleSize:       13,
			CalibrationRuns:  64,
			OrderStatistic:   1,
			ThresholdMult:    1.3,
		},
		DRAM: DRAMConfig{
			Channels:      1,
			Dimms:         1,
			Ranks:         2,
			RankMirroring: false,
		},
		Hammer: HammerConfig{
			TestIterations:   550000,
			StressIterations: 1700000,
			HugeIterations:   1966080,
			VictimFill:       0xff,
			TargetFill:       0x00,
		},
		Reporting: ReportingConfig{
			OutputDir: "./reports",
			KeepLastN: 50,
			Formats:   []string{"json", "text"},
		},
		Emergency: EmergencyConfig{
			RunSeconds:          0,
			EnableSignalHandler: true,
		},
		Metrics: MetricsConfig{
			Addr: "",
		},
	}
}

// Load loads configuration from a YAML file, falling back to defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = "config.yaml"
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	if err := yaml.Unmarshal(expandedData, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save writes configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Buffer.SizeMiB <= 0 {
		return fmt.Errorf("buffer.size_mib must be positive")
	}

	if c.Timing.SampleSize < 1 {
		return fmt.Errorf("timing.sample_size must be at least 1")
	}

	if c.Timing.OrderStatistic < 0 || c.Timing.OrderStatistic >= c.Timing.SampleSize {
		return fmt.Errorf("timing.order_statistic must be within [0, sample_size)")
	}

	if c.Timing.ThresholdMult <= 1.0 {
		return fmt.Errorf("timing.threshold_mult must be greater than 1.0")
	}

	if c.DRAM.Channels == 0 || c.DRAM.Dimms == 0 || c.DRAM.Ranks == 0 {
		return fmt.Errorf("dram channels, dimms and ranks must all be at least 1")
	}

	if c.Reporting.OutputDir == "" {
		return fmt.Errorf("reporting.output_dir is required")
	}

	return nil
}
