package main

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cruciblehq/crucible/internal/config"
	"github.com/cruciblehq/crucible/internal/history"
	"github.com/cruciblehq/crucible/internal/sandbox"
	"github.com/cruciblehq/crucible/pkg/models"
)

var sourceExtensions = map[string]bool{
	".js":  true,
	".jsx": true,
	".mjs": true,
	".cjs": true,
	".ts":  true,
	".tsx": true,
}

var skippedLoadDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	".crucible":    true,
}

// loadConfig loads configuration and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if preserveSandbox {
		cfg.Sandbox.Preserve = true
	}
	return cfg, nil
}

// newSandboxManager builds the sandbox manager from configuration.
func newSandboxManager(cfg *config.Config) (*sandbox.Manager, error) {
	return sandbox.NewManager(cfg.Sandbox.Root, cfg.Sandbox.Preserve)
}

// loadGeneratedFiles reads each argument (a file or a directory walked
// recursively) into in-memory generated files with paths relative to the
// argument root.
func loadGeneratedFiles(args []string) ([]models.GeneratedFile, error) {
	var files []models.GeneratedFile

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", arg, err)
		}

		if !info.IsDir() {
			content, err := os.ReadFile(arg)
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", arg, err)
			}
			files = append(files, models.GeneratedFile{
				Path:    filepath.Base(arg),
				Content: string(content),
			})
			continue
		}

		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				if skippedLoadDirs[d.Name()] && path != arg {
					return filepath.SkipDir
				}
				return nil
			}
			if !sourceExtensions[strings.ToLower(filepath.Ext(path))] {
				return nil
			}
			content, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(arg, path)
			if err != nil {
				return err
			}
			files = append(files, models.GeneratedFile{
				Path:    filepath.ToSlash(rel),
				Content: string(content),
			})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", arg, err)
		}
	}

	return files, nil
}

// isTestFile reports whether a path carries a test/spec file marker.
func isTestFile(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	for _, marker := range []string{".test.", ".spec.", "_test.", "_spec."} {
		if strings.Contains(base, marker) {
			return true
		}
	}
	return false
}

// splitSourcesAndTests partitions loaded files into plain sources and test
// units. A unit's original file is the sibling source whose base name
// matches the test name with its marker stripped, when one exists.
func splitSourcesAndTests(files []models.GeneratedFile, framework models.TestFramework) ([]models.GeneratedFile, []models.TestUnit) {
	var sources []models.GeneratedFile
	var testFiles []models.GeneratedFile

	for _, f := range files {
		if isTestFile(f.Path) {
			testFiles = append(testFiles, f)
		} else {
			sources = append(sources, f)
		}
	}

	units := make([]models.TestUnit, 0, len(testFiles))
	for _, tf := range testFiles {
		units = append(units, models.TestUnit{
			OriginalFilePath: matchOriginal(tf.Path, sources),
			TestFilePath:     tf.Path,
			TestCode:         tf.Content,
			Framework:        framework,
		})
	}

	return sources, units
}

func matchOriginal(testPath string, sources []models.GeneratedFile) string {
	base := filepath.Base(testPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	for _, marker := range []string{".test", ".spec", "_test", "_spec"} {
		base = strings.TrimSuffix(base, marker)
	}
	for _, src := range sources {
		srcBase := strings.TrimSuffix(filepath.Base(src.Path), filepath.Ext(src.Path))
		if srcBase == base {
			return src.Path
		}
	}
	return ""
}

// openHistory opens the configured history store. A nil store with no
// error means history is unavailable and should simply be skipped.
func openHistory(cfg *config.Config) *history.Store {
	path := cfg.History.Path
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil
		}
		path = history.DefaultPath(cwd)
	}
	store, err := history.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: test history unavailable: %v\n", err)
		return nil
	}
	return store
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
