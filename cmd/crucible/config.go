package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cruciblehq/crucible/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify Crucible configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/crucible/config.yaml
Project-specific overrides can be placed in .crucible.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	fmt.Printf("sandbox.root: %s\n", displayOrDefault(cfg.Sandbox.Root, "(system temp)"))
	fmt.Printf("sandbox.preserve: %t\n", cfg.Sandbox.Preserve)
	fmt.Printf("tools.node: %s\n", cfg.Tools.Node)
	fmt.Printf("tools.npx: %s\n", cfg.Tools.Npx)
	fmt.Printf("tools.npm: %s\n", cfg.Tools.Npm)
	fmt.Printf("timeouts.syntax: %s\n", cfg.Timeouts.Syntax)
	fmt.Printf("timeouts.lint: %s\n", cfg.Timeouts.Lint)
	fmt.Printf("timeouts.typecheck: %s\n", cfg.Timeouts.Typecheck)
	fmt.Printf("timeouts.test: %s\n", cfg.Timeouts.Test)
	fmt.Printf("timeouts.install: %s\n", cfg.Timeouts.Install)
	fmt.Printf("coverage.low_threshold: %g\n", cfg.Coverage.LowThreshold)
	fmt.Printf("coverage.good_lines: %g\n", cfg.Coverage.GoodLines)
	fmt.Printf("coverage.good_branches: %g\n", cfg.Coverage.GoodBranches)
	fmt.Printf("coverage.top_files: %d\n", cfg.Coverage.TopFiles)
	fmt.Printf("prioritize.prefer_unit_tests: %t\n", cfg.Prioritize.PreferUnitTests)
	fmt.Printf("prioritize.slow_test_threshold: %s\n", cfg.Prioritize.SlowTestThreshold)
	fmt.Printf("prioritize.failure_rate_threshold: %g\n", cfg.Prioritize.FailureRateThreshold)
	fmt.Printf("prioritize.runner: %s\n", cfg.Prioritize.Runner)
	fmt.Printf("prioritize.fail_fast: %t\n", cfg.Prioritize.FailFast)
	fmt.Printf("history.path: %s\n", displayOrDefault(cfg.History.Path, "(project local)"))
}

func displayOrDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

// setConfigKey sets a configuration value and saves the config.
func setConfigKey(cfg *config.Config, key, value string) {
	if err := setConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Set %s = %s\n", key, value)
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "sandbox.root":
		return displayOrDefault(cfg.Sandbox.Root, "(system temp)"), nil
	case "sandbox.preserve":
		return strconv.FormatBool(cfg.Sandbox.Preserve), nil
	case "tools.node":
		return cfg.Tools.Node, nil
	case "tools.npx":
		return cfg.Tools.Npx, nil
	case "tools.npm":
		return cfg.Tools.Npm, nil
	case "timeouts.syntax":
		return cfg.Timeouts.Syntax.String(), nil
	case "timeouts.lint":
		return cfg.Timeouts.Lint.String(), nil
	case "timeouts.typecheck":
		return cfg.Timeouts.Typecheck.String(), nil
	case "timeouts.test":
		return cfg.Timeouts.Test.String(), nil
	case "timeouts.install":
		return cfg.Timeouts.Install.String(), nil
	case "coverage.low_threshold":
		return strconv.FormatFloat(cfg.Coverage.LowThreshold, 'g', -1, 64), nil
	case "coverage.good_lines":
		return strconv.FormatFloat(cfg.Coverage.GoodLines, 'g', -1, 64), nil
	case "coverage.good_branches":
		return strconv.FormatFloat(cfg.Coverage.GoodBranches, 'g', -1, 64), nil
	case "coverage.top_files":
		return strconv.Itoa(cfg.Coverage.TopFiles), nil
	case "prioritize.prefer_unit_tests":
		return strconv.FormatBool(cfg.Prioritize.PreferUnitTests), nil
	case "prioritize.slow_test_threshold":
		return cfg.Prioritize.SlowTestThreshold.String(), nil
	case "prioritize.failure_rate_threshold":
		return strconv.FormatFloat(cfg.Prioritize.FailureRateThreshold, 'g', -1, 64), nil
	case "prioritize.runner":
		return cfg.Prioritize.Runner, nil
	case "prioritize.fail_fast":
		return strconv.FormatBool(cfg.Prioritize.FailFast), nil
	case "history.path":
		return displayOrDefault(cfg.History.Path, "(project local)"), nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "sandbox.root":
		cfg.Sandbox.Root = value
	case "sandbox.preserve":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for sandbox.preserve: %w", err)
		}
		cfg.Sandbox.Preserve = b
	case "tools.node":
		cfg.Tools.Node = value
	case "tools.npx":
		cfg.Tools.Npx = value
	case "tools.npm":
		cfg.Tools.Npm = value
	case "timeouts.syntax":
		return setDuration(&cfg.Timeouts.Syntax, key, value)
	case "timeouts.lint":
		return setDuration(&cfg.Timeouts.Lint, key, value)
	case "timeouts.typecheck":
		return setDuration(&cfg.Timeouts.Typecheck, key, value)
	case "timeouts.test":
		return setDuration(&cfg.Timeouts.Test, key, value)
	case "timeouts.install":
		return setDuration(&cfg.Timeouts.Install, key, value)
	case "coverage.low_threshold":
		return setFloat(&cfg.Coverage.LowThreshold, key, value)
	case "coverage.good_lines":
		return setFloat(&cfg.Coverage.GoodLines, key, value)
	case "coverage.good_branches":
		return setFloat(&cfg.Coverage.GoodBranches, key, value)
	case "coverage.top_files":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for coverage.top_files: %w", err)
		}
		cfg.Coverage.TopFiles = n
	case "prioritize.prefer_unit_tests":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for prioritize.prefer_unit_tests: %w", err)
		}
		cfg.Prioritize.PreferUnitTests = b
	case "prioritize.slow_test_threshold":
		return setDuration(&cfg.Prioritize.SlowTestThreshold, key, value)
	case "prioritize.failure_rate_threshold":
		return setFloat(&cfg.Prioritize.FailureRateThreshold, key, value)
	case "prioritize.runner":
		cfg.Prioritize.Runner = value
	case "prioritize.fail_fast":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for prioritize.fail_fast: %w", err)
		}
		cfg.Prioritize.FailFast = b
	case "history.path":
		cfg.History.Path = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

func setDuration(target *time.Duration, key, value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	*target = d
	return nil
}

func setFloat(target *float64, key, value string) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*target = f
	return nil
}
