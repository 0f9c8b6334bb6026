package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	jsonOutput      bool
	seedDir         string
	preserveSandbox bool
)

var rootCmd = &cobra.Command{
	Use:   "crucible",
	Short: "Sandboxed validation and test execution for generated code",
	Long: `Crucible validates machine-generated source files in isolated
sandboxes and executes their test suites.

Each run materializes the files into a throwaway sandbox seeded with the
project's lint and type-check configuration, runs syntax, lint, and type
validation per file, executes test units sequentially, and reports
normalized results.

Core capabilities:
- Per-file syntax, lint, and type validation in parallel
- Sequential test execution with normalized pass/fail results
- Source metrics and coverage report analysis
- Impact-scored test prioritization with staged run plans`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Emit raw JSON instead of styled output")
	rootCmd.PersistentFlags().StringVar(&seedDir, "seed", "", "Project directory to seed sandbox config files from")
	rootCmd.PersistentFlags().BoolVar(&preserveSandbox, "preserve-sandbox", false, "Keep sandbox directories after the run")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(coverageCmd)
	rootCmd.AddCommand(prioritizeCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
