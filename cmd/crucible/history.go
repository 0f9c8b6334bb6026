package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cruciblehq/crucible/internal/render"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded test run history",
	Long: `Show aggregated run counts, failure counts, and average durations for
every test file recorded by previous crucible test runs. These statistics
feed the prioritizer's failure-rate, new-test, and slow-test signals.

Examples:
  crucible history
  crucible history --json`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store := openHistory(cfg)
	if store == nil {
		return fmt.Errorf("test history unavailable")
	}
	defer store.Close()

	stats, err := store.StatsAll()
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(stats)
	}
	if len(stats) == 0 {
		fmt.Println("no test runs recorded yet")
		return nil
	}
	fmt.Print(render.History(stats))
	return nil
}
