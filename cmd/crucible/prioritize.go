package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cruciblehq/crucible/internal/prioritize"
	"github.com/cruciblehq/crucible/internal/render"
	"github.com/cruciblehq/crucible/pkg/models"
)

var (
	prioritizeChanged []string
	prioritizePlan    bool
)

var prioritizeCmd = &cobra.Command{
	Use:   "prioritize <dir>...",
	Short: "Score tests by impact",
	Long: `Score test files by estimated impact and optionally group them into
a staged run plan.

Scores combine relatedness to changed files, recorded failure rates and
durations from the history store, and test type. Without --changed the
relatedness signal is dropped and only history and test type contribute.

Examples:
  crucible prioritize ./generated
  crucible prioritize ./generated --changed src/parser.js --changed src/lexer.js
  crucible prioritize ./generated --plan`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPrioritize,
}

func init() {
	prioritizeCmd.Flags().StringArrayVar(&prioritizeChanged, "changed", nil, "Changed file (repeatable)")
	prioritizeCmd.Flags().BoolVar(&prioritizePlan, "plan", false, "Emit a staged run plan instead of a flat list")
}

func runPrioritize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	files, err := loadGeneratedFiles(args)
	if err != nil {
		return err
	}

	framework := models.TestFramework(cfg.Prioritize.Runner)
	_, units := splitSourcesAndTests(files, framework)
	if len(units) == 0 {
		return fmt.Errorf("no test files found in %v", args)
	}

	var history prioritize.HistoryProvider
	if store := openHistory(cfg); store != nil {
		defer store.Close()
		history = store
	}

	p := prioritize.New(cfg.Prioritize, history)

	var changed []string
	if cmd.Flags().Changed("changed") {
		changed = prioritizeChanged
	}
	prioritized := p.Prioritize(units, changed)

	if prioritizePlan {
		plan := p.Plan(prioritized)
		if jsonOutput {
			return printJSON(plan)
		}
		fmt.Print(render.Plan(&plan))
		return nil
	}

	if jsonOutput {
		return printJSON(prioritized)
	}
	for _, t := range prioritized {
		fmt.Printf("%.2f  %-8s  %s  (%s)\n", t.ImpactScore, t.Priority, t.TestFilePath, t.Reason)
	}
	return nil
}
