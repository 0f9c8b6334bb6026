package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cruciblehq/crucible/internal/exec"
	"github.com/cruciblehq/crucible/internal/render"
	"github.com/cruciblehq/crucible/internal/validator"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file|dir>...",
	Short: "Validate source files in a sandbox",
	Long: `Validate source files by syntax, lint, and type checking inside a
throwaway sandbox.

Each file is validated independently and in parallel. A file with a syntax
error skips lint and type checking. The run is valid only when no file has
a blocking issue.

Examples:
  crucible validate src/generated.js
  crucible validate ./generated --seed ./project
  crucible validate ./generated --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	files, err := loadGeneratedFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no source files found in %v", args)
	}

	sandboxes, err := newSandboxManager(cfg)
	if err != nil {
		return fmt.Errorf("creating sandbox manager: %w", err)
	}

	v := validator.New(sandboxes, exec.NewRunner(), cfg)
	v.Logf = func(format string, logArgs ...any) {
		fmt.Fprintf(os.Stderr, format+"\n", logArgs...)
	}

	report, err := v.Validate(context.Background(), files, seedDir)
	if err != nil {
		return err
	}

	if jsonOutput {
		if err := printJSON(report); err != nil {
			return err
		}
	} else {
		fmt.Print(render.Validation(report))
	}

	if !report.Valid {
		if !jsonOutput {
			color.Red("validation failed: %d blocking issue(s)", len(report.CriticalErrors))
		}
		os.Exit(1)
	}
	return nil
}
