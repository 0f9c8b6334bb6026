package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cruciblehq/crucible/internal/exec"
	"github.com/cruciblehq/crucible/internal/render"
	"github.com/cruciblehq/crucible/internal/testexec"
	"github.com/cruciblehq/crucible/pkg/models"
)

var testFramework string

var testCmd = &cobra.Command{
	Use:   "test <dir>...",
	Short: "Execute test units in a sandbox",
	Long: `Execute test files against their sources inside a throwaway sandbox.

Files with a test or spec marker in their name (.test.js, .spec.ts, and so
on) become test units; the rest are copied in as sources. Units run
strictly one at a time because each invocation rewrites the shared result
file. Outcomes are recorded to the test history store when available.

Examples:
  crucible test ./generated
  crucible test ./generated --framework vitest
  crucible test ./generated --seed ./project --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTest,
}

func init() {
	testCmd.Flags().StringVar(&testFramework, "framework", "", "Test framework for the units (jest, mocha, vitest)")
}

func runTest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	files, err := loadGeneratedFiles(args)
	if err != nil {
		return err
	}

	framework := models.TestFramework(testFramework)
	if framework == "" {
		framework = models.TestFramework(cfg.Prioritize.Runner)
	}

	sources, units := splitSourcesAndTests(files, framework)
	if len(units) == 0 {
		return fmt.Errorf("no test files found in %v", args)
	}

	sandboxes, err := newSandboxManager(cfg)
	if err != nil {
		return fmt.Errorf("creating sandbox manager: %w", err)
	}

	executor := testexec.New(sandboxes, exec.NewRunner(), cfg)
	executor.Logf = func(format string, logArgs ...any) {
		fmt.Fprintf(os.Stderr, format+"\n", logArgs...)
	}
	if store := openHistory(cfg); store != nil {
		defer store.Close()
		executor.SetHistory(store)
	}

	summary, err := executor.Run(context.Background(), units, sources, seedDir)
	if err != nil {
		return err
	}

	if jsonOutput {
		if err := printJSON(summary); err != nil {
			return err
		}
	} else {
		fmt.Print(render.TestRun(summary))
	}

	if summary.FailedCount > 0 {
		if !jsonOutput {
			color.Red("%d test(s) failed", summary.FailedCount)
		}
		os.Exit(1)
	}
	return nil
}
