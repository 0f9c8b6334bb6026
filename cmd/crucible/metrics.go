package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cruciblehq/crucible/internal/metrics"
	"github.com/cruciblehq/crucible/internal/render"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics <file|dir>...",
	Short: "Compute source metrics",
	Long: `Compute size, comment, function, and complexity metrics for source
files. Metrics are heuristic and computed from file content alone; no
sandbox or subprocess is involved.

Examples:
  crucible metrics src/generated.js
  crucible metrics ./generated --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMetrics,
}

func runMetrics(cmd *cobra.Command, args []string) error {
	files, err := loadGeneratedFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no source files found in %v", args)
	}

	result := metrics.Collect(files)

	if jsonOutput {
		return printJSON(result)
	}
	fmt.Print(render.Metrics(result))
	return nil
}
