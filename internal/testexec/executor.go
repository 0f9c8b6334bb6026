// Package testexec seeds a sandbox with project sources plus generated test
// files, runs the test suite one unit at a time, and normalizes pass/fail
// output into a single summary.
package testexec

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cruciblehq/crucible/internal/config"
	"github.com/cruciblehq/crucible/internal/exec"
	"github.com/cruciblehq/crucible/internal/sandbox"
	"github.com/cruciblehq/crucible/internal/validator"
	"github.com/cruciblehq/crucible/pkg/models"
)

// resultFileName is the fixed sandbox-relative path each runner invocation
// writes its structured report to.
const resultFileName = ".crucible-results.json"

// Installer installs sandbox dependencies once per batch.
type Installer interface {
	Install(ctx context.Context, dir string) error
}

// HistoryRecorder receives per-unit outcomes for later prioritization.
type HistoryRecorder interface {
	RecordRun(testPath string, status models.TestStatus, duration time.Duration) error
}

// Executor runs test unit batches. Units execute strictly sequentially: each
// invocation rewrites the shared result file inside the same sandbox and must
// not race.
type Executor struct {
	sandboxes *sandbox.Manager
	runner    exec.CommandRunner
	installer Installer
	npx       string
	timeout   time.Duration
	history   HistoryRecorder

	// Logf, when set, receives non-fatal diagnostics.
	Logf func(format string, args ...any)
}

// New creates an Executor wired to the standard node toolchain.
func New(sandboxes *sandbox.Manager, runner exec.CommandRunner, cfg *config.Config) *Executor {
	return &Executor{
		sandboxes: sandboxes,
		runner:    runner,
		installer: validator.NewNpmInstaller(runner, cfg.Tools.Npm, cfg.Timeouts.Install),
		npx:       cfg.Tools.Npx,
		timeout:   cfg.Timeouts.Test,
	}
}

// SetHistory attaches a history recorder; each unit's outcome is recorded
// after it finishes. Recording failures are logged and never fail the run.
func (e *Executor) SetHistory(h HistoryRecorder) {
	e.history = h
}

// SetInstaller replaces the dependency installer (for testing and tool
// substitution).
func (e *Executor) SetInstaller(i Installer) {
	e.installer = i
}

// Run executes every test unit against a sandbox seeded with the project
// sources and the units' test files. Dependencies install once for the whole
// batch. A failure while running one unit fails only that unit; the batch
// continues. The sandbox is torn down after all units finish.
func (e *Executor) Run(ctx context.Context, tests []models.TestUnit, sources []models.GeneratedFile, seedDir string) (*models.TestRunSummary, error) {
	sb, err := e.sandboxes.Create(seedDir, sources)
	if err != nil {
		return nil, fmt.Errorf("create sandbox: %w", err)
	}
	defer func() {
		if destroyErr := e.sandboxes.Destroy(sb); destroyErr != nil {
			e.logf("sandbox cleanup failed: %v", destroyErr)
		}
	}()

	if err := e.sandboxes.WriteTestUnits(sb, tests); err != nil {
		return nil, fmt.Errorf("materialize test files: %w", err)
	}

	if e.installer != nil {
		if installErr := e.installer.Install(ctx, sb.Path); installErr != nil {
			e.logf("dependency install failed: %v", installErr)
		}
	}

	summary := &models.TestRunSummary{
		Tests: make([]models.TestRunResult, 0, len(tests)),
	}

	for _, unit := range tests {
		result := e.runUnit(ctx, sb, unit)

		if e.history != nil {
			if recErr := e.history.RecordRun(unit.TestFilePath, result.Status, result.Duration); recErr != nil {
				e.logf("record test history: %v", recErr)
			}
		}

		summary.Tests = append(summary.Tests, result)
		switch result.Status {
		case models.TestPassed:
			summary.PassedCount++
		case models.TestFailed:
			summary.FailedCount++
		}
	}

	summary.TotalTests = len(summary.Tests)
	if summary.TotalTests > 0 {
		summary.SuccessRate = float64(summary.PassedCount) / float64(summary.TotalTests) * 100
	}

	return summary, nil
}

// runUnit executes one test unit and derives its status from the structured
// result file, falling back to error-stream evidence when no parseable
// report exists.
func (e *Executor) runUnit(ctx context.Context, sb *sandbox.Sandbox, unit models.TestUnit) models.TestRunResult {
	start := time.Now()
	result := models.TestRunResult{
		TestFilePath:     unit.TestFilePath,
		OriginalFilePath: unit.OriginalFilePath,
	}

	resultPath := filepath.Join(sb.Path, resultFileName)
	// A stale report from the previous unit must not be misread as this
	// unit's outcome.
	_ = os.Remove(resultPath)

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	_, stderr, runErr := e.runner.RunSplit(runCtx, sb.Path, e.npx, runnerArgs(unit)...)
	timedOut := runCtx.Err() == context.DeadlineExceeded
	cancel()

	result.Duration = time.Since(start)
	result.Timestamp = time.Now()

	// A unit killed at its deadline never finished; its silence is not
	// evidence of success and any report it left is untrustworthy.
	if timedOut {
		result.Status = models.TestFailed
		result.Details = fmt.Sprintf("timed out after %s", e.timeout)
		return result
	}

	// A non-zero exit is normal when tests fail; only a failure to invoke
	// the runner at all fails the unit outright.
	if runErr != nil && !exec.IsExit(runErr) {
		result.Status = models.TestFailed
		result.Details = runErr.Error()
		return result
	}

	if status, details, ok := parseResultFile(resultPath); ok {
		result.Status = status
		result.Details = details
		return result
	}

	// Permissive fallback: with no parseable report, absence of evidence of
	// failure is treated as success.
	if len(bytes.TrimSpace(stderr)) > 0 {
		result.Status = models.TestFailed
		result.Details = string(bytes.TrimSpace(stderr))
	} else {
		result.Status = models.TestPassed
		result.Details = "no result file produced; no error output"
	}
	return result
}

// runnerArgs builds the sandbox-relative runner invocation for one unit.
// Every invocation writes its report to the fixed result file path.
func runnerArgs(unit models.TestUnit) []string {
	switch unit.Framework {
	case models.FrameworkVitest:
		return []string{"vitest", "run", "--reporter=json", "--outputFile", resultFileName, unit.TestFilePath}
	default:
		return []string{"jest", "--json", "--outputFile", resultFileName, unit.TestFilePath}
	}
}

func (e *Executor) logf(format string, args ...any) {
	if e.Logf != nil {
		e.Logf(format, args...)
	}
}
