package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cruciblehq/crucible/internal/coverage"
	"github.com/cruciblehq/crucible/internal/render"
)

var coverageCmd = &cobra.Command{
	Use:   "coverage <report.json>",
	Short: "Analyze a coverage report",
	Long: `Analyze a JSON coverage report and flag low-coverage files,
uncovered lines, and partially exercised functions.

Three report shapes are recognized: a bare summary object, a summary
report with per-file percentages, and a raw per-file hit-map report.

Examples:
  crucible coverage coverage/coverage-summary.json
  crucible coverage coverage/coverage-final.json --json`,
	Args: cobra.ExactArgs(1),
	RunE: runCoverage,
}

func runCoverage(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	analysis, err := coverage.New(cfg.Coverage).AnalyzeFile(args[0])
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(analysis)
	}
	fmt.Print(render.Coverage(analysis))
	return nil
}
