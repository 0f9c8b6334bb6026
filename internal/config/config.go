// Package config handles configuration loading and management for Crucible.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for Crucible.
type Config struct {
	Sandbox    SandboxConfig    `mapstructure:"sandbox"`
	Tools      ToolsConfig      `mapstructure:"tools"`
	Timeouts   TimeoutsConfig   `mapstructure:"timeouts"`
	Coverage   CoverageConfig   `mapstructure:"coverage"`
	Prioritize PrioritizeConfig `mapstructure:"prioritize"`
	History    HistoryConfig    `mapstructure:"history"`
}

// SandboxConfig holds sandbox placement and lifecycle settings.
type SandboxConfig struct {
	// Root is the directory sandboxes are created under. Empty means the
	// system temp directory.
	Root string `mapstructure:"root"`
	// Preserve suppresses sandbox deletion for post-mortem inspection.
	// Also settable via CRUCIBLE_PRESERVE_SANDBOX.
	Preserve bool `mapstructure:"preserve"`
}

// ToolsConfig names the external tool commands the pipeline invokes.
// Any compatible tool may be substituted as long as it honors the same
// output contracts.
type ToolsConfig struct {
	Node string `mapstructure:"node"`
	Npx  string `mapstructure:"npx"`
	Npm  string `mapstructure:"npm"`
}

// TimeoutsConfig holds per-stage subprocess deadlines.
type TimeoutsConfig struct {
	Syntax    time.Duration `mapstructure:"syntax"`
	Lint      time.Duration `mapstructure:"lint"`
	Typecheck time.Duration `mapstructure:"typecheck"`
	Test      time.Duration `mapstructure:"test"`
	Install   time.Duration `mapstructure:"install"`
}

// CoverageConfig holds coverage analysis thresholds.
type CoverageConfig struct {
	// LowThreshold is the percentage below which a file is flagged.
	LowThreshold float64 `mapstructure:"low_threshold"`
	// GoodLines is the line coverage bar for the generic recommendation.
	GoodLines float64 `mapstructure:"good_lines"`
	// GoodBranches is the branch coverage bar for the generic recommendation.
	GoodBranches float64 `mapstructure:"good_branches"`
	// TopFiles is how many lowest-coverage files get recommendations.
	TopFiles int `mapstructure:"top_files"`
}

// StageCapsConfig holds per-stage maximum test counts for run plans.
// Zero means uncapped.
type StageCapsConfig struct {
	Stage1 int `mapstructure:"stage1"`
	Stage2 int `mapstructure:"stage2"`
	Stage3 int `mapstructure:"stage3"`
}

// PrioritizeConfig holds test prioritization settings.
type PrioritizeConfig struct {
	// PreferUnitTests favors unit tests over integration/E2E when true.
	PreferUnitTests bool `mapstructure:"prefer_unit_tests"`
	// SlowTestThreshold is the average duration above which a test gets the
	// slow-test bonus.
	SlowTestThreshold time.Duration `mapstructure:"slow_test_threshold"`
	// FailureRateThreshold is the historical failure rate above which a test
	// gets the flakiness bonus.
	FailureRateThreshold float64 `mapstructure:"failure_rate_threshold"`
	// Runner is the test runner named in plan command strings.
	Runner string `mapstructure:"runner"`
	// FailFast appends the runner's fail-fast flag to plan commands.
	FailFast bool `mapstructure:"fail_fast"`
	// StageCaps caps each plan stage's test count.
	StageCaps StageCapsConfig `mapstructure:"stage_caps"`
}

// HistoryConfig holds test history store settings.
type HistoryConfig struct {
	// Path is the sqlite database location. Empty means the project-local
	// default (.crucible/history.db).
	Path string `mapstructure:"path"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (CRUCIBLE_PRESERVE_SANDBOX, CRUCIBLE_SANDBOX_ROOT)
// 2. Project config (.crucible.yaml in current directory or parent)
// 3. User config (~/.config/crucible/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	// Load project config if present
	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	// Environment variable overrides
	v.AutomaticEnv()
	v.BindEnv("sandbox.preserve", "CRUCIBLE_PRESERVE_SANDBOX")
	v.BindEnv("sandbox.root", "CRUCIBLE_SANDBOX_ROOT")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("sandbox.root", cfg.Sandbox.Root)
	v.Set("sandbox.preserve", cfg.Sandbox.Preserve)
	v.Set("tools.node", cfg.Tools.Node)
	v.Set("tools.npx", cfg.Tools.Npx)
	v.Set("tools.npm", cfg.Tools.Npm)
	v.Set("timeouts.syntax", cfg.Timeouts.Syntax.String())
	v.Set("timeouts.lint", cfg.Timeouts.Lint.String())
	v.Set("timeouts.typecheck", cfg.Timeouts.Typecheck.String())
	v.Set("timeouts.test", cfg.Timeouts.Test.String())
	v.Set("timeouts.install", cfg.Timeouts.Install.String())
	v.Set("coverage.low_threshold", cfg.Coverage.LowThreshold)
	v.Set("coverage.good_lines", cfg.Coverage.GoodLines)
	v.Set("coverage.good_branches", cfg.Coverage.GoodBranches)
	v.Set("coverage.top_files", cfg.Coverage.TopFiles)
	v.Set("prioritize.prefer_unit_tests", cfg.Prioritize.PreferUnitTests)
	v.Set("prioritize.slow_test_threshold", cfg.Prioritize.SlowTestThreshold.String())
	v.Set("prioritize.failure_rate_threshold", cfg.Prioritize.FailureRateThreshold)
	v.Set("prioritize.runner", cfg.Prioritize.Runner)
	v.Set("prioritize.fail_fast", cfg.Prioritize.FailFast)
	v.Set("history.path", cfg.History.Path)

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("sandbox.root", "")
	v.SetDefault("sandbox.preserve", false)

	v.SetDefault("tools.node", "node")
	v.SetDefault("tools.npx", "npx")
	v.SetDefault("tools.npm", "npm")

	v.SetDefault("timeouts.syntax", "30s")
	v.SetDefault("timeouts.lint", "2m")
	v.SetDefault("timeouts.typecheck", "2m")
	v.SetDefault("timeouts.test", "5m")
	v.SetDefault("timeouts.install", "5m")

	v.SetDefault("coverage.low_threshold", 70.0)
	v.SetDefault("coverage.good_lines", 80.0)
	v.SetDefault("coverage.good_branches", 70.0)
	v.SetDefault("coverage.top_files", 5)

	v.SetDefault("prioritize.prefer_unit_tests", false)
	v.SetDefault("prioritize.slow_test_threshold", "1s")
	v.SetDefault("prioritize.failure_rate_threshold", 0.2)
	v.SetDefault("prioritize.runner", "jest")
	v.SetDefault("prioritize.fail_fast", false)
	v.SetDefault("prioritize.stage_caps.stage1", 0)
	v.SetDefault("prioritize.stage_caps.stage2", 0)
	v.SetDefault("prioritize.stage_caps.stage3", 0)

	v.SetDefault("history.path", "")
}

// getUserConfigDir returns the XDG config directory for Crucible.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "crucible")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "crucible")
	}
	return filepath.Join(home, ".config", "crucible")
}

// findProjectConfig searches for .crucible.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".crucible.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Sandbox: SandboxConfig{
			Root:     "",
			Preserve: false,
		},
		Tools: ToolsConfig{
			Node: "node",
			Npx:  "npx",
			Npm:  "npm",
		},
		Timeouts: TimeoutsConfig{
			Syntax:    30 * time.Second,
			Lint:      2 * time.Minute,
			Typecheck: 2 * time.Minute,
			Test:      5 * time.Minute,
			Install:   5 * time.Minute,
		},
		Coverage: CoverageConfig{
			LowThreshold: 70,
			GoodLines:    80,
			GoodBranches: 70,
			TopFiles:     5,
		},
		Prioritize: PrioritizeConfig{
			PreferUnitTests:      false,
			SlowTestThreshold:    time.Second,
			FailureRateThreshold: 0.2,
			Runner:               "jest",
			FailFast:             false,
		},
		History: HistoryConfig{
			Path: "",
		},
	}
}
