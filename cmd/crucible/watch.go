package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cruciblehq/crucible/internal/exec"
	"github.com/cruciblehq/crucible/internal/render"
	"github.com/cruciblehq/crucible/internal/validator"
	"github.com/cruciblehq/crucible/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Re-validate source files on change",
	Long: `Watch a directory tree and re-validate changed source files after
each quiet period. The directory argument defaults to the current
directory.

Examples:
  crucible watch
  crucible watch ./generated --seed ./project`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	sandboxes, err := newSandboxManager(cfg)
	if err != nil {
		return fmt.Errorf("creating sandbox manager: %w", err)
	}
	v := validator.New(sandboxes, exec.NewRunner(), cfg)

	watcher, err := watch.New(root, watch.DefaultDebounce)
	if err != nil {
		return err
	}
	defer watcher.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	color.Cyan("watching %s for changes (ctrl-c to stop)", root)

	err = watcher.Run(ctx, func(changed []string) {
		paths := make([]string, 0, len(changed))
		for _, rel := range changed {
			path := filepath.Join(root, rel)
			// Deleted files still show up in the batch; skip them.
			if _, err := os.Stat(path); err != nil {
				continue
			}
			paths = append(paths, path)
		}

		files, err := loadGeneratedFiles(paths)
		if err != nil {
			fmt.Fprintf(os.Stderr, "reading changed files: %v\n", err)
			return
		}
		if len(files) == 0 {
			return
		}

		color.Cyan("%d file(s) changed, validating", len(files))
		report, err := v.Validate(ctx, files, seedDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "validation error: %v\n", err)
			return
		}
		fmt.Print(render.Validation(report))
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
