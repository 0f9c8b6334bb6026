package validator

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cruciblehq/crucible/internal/exec"
	"github.com/cruciblehq/crucible/pkg/models"
)

// SyntaxChecker runs a parse-only check on one file. A nil issue with a nil
// error means the file parsed cleanly; a non-nil error means the tool itself
// could not run.
type SyntaxChecker interface {
	Check(ctx context.Context, dir, file string) (*models.Issue, error)
}

// Linter runs the lint tool on one file and returns its structured per-file
// report. A non-nil error means the tool itself failed, not that issues were
// found: non-zero exits with parseable output are normal.
type Linter interface {
	Lint(ctx context.Context, dir, file string) (*models.LintFileReport, error)
}

// TypeChecker runs a no-emit type check on one file. A non-nil error means
// the tool itself crashed with no meaningful output.
type TypeChecker interface {
	Check(ctx context.Context, dir, file string) ([]models.Issue, error)
}

// Installer installs the sandbox's dependencies. Installation is idempotent:
// it is skipped when the dependency directory already exists.
type Installer interface {
	Install(ctx context.Context, dir string) error
}

// NodeSyntaxChecker implements SyntaxChecker with a "parse only, no
// execution" node invocation.
type NodeSyntaxChecker struct {
	runner  exec.CommandRunner
	command string
	timeout time.Duration
}

// NewNodeSyntaxChecker creates a syntax checker using the given node command.
func NewNodeSyntaxChecker(runner exec.CommandRunner, command string, timeout time.Duration) *NodeSyntaxChecker {
	return &NodeSyntaxChecker{runner: runner, command: command, timeout: timeout}
}

// Check runs node --check against the file inside dir.
func (c *NodeSyntaxChecker) Check(ctx context.Context, dir, file string) (*models.Issue, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, stderr, err := c.runner.RunSplit(ctx, dir, c.command, "--check", file)
	if err == nil {
		return nil, nil
	}
	// A deadline kill also surfaces as an exit error, with nothing on
	// stderr to parse. Report it as a process failure, not a syntax issue.
	if ctx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("syntax check timed out after %s", c.timeout)
	}
	if !exec.IsExit(err) {
		return nil, fmt.Errorf("syntax checker failed to run: %w", err)
	}

	issue := parseSyntaxError(string(stderr))
	return &issue, nil
}

// ESLintLinter implements Linter with a structured-JSON eslint invocation.
type ESLintLinter struct {
	runner  exec.CommandRunner
	command string
	timeout time.Duration
}

// NewESLintLinter creates a linter invoked through the given npx command.
func NewESLintLinter(runner exec.CommandRunner, command string, timeout time.Duration) *ESLintLinter {
	return &ESLintLinter{runner: runner, command: command, timeout: timeout}
}

// Lint runs eslint with JSON output against the file inside dir. A non-zero
// exit with issues present is a normal outcome, not an error.
func (l *ESLintLinter) Lint(ctx context.Context, dir, file string) (*models.LintFileReport, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	stdout, stderr, err := l.runner.RunSplit(ctx, dir, l.command, "eslint", "--format", "json", "--no-color", file)
	if err != nil && !exec.IsExit(err) {
		return nil, fmt.Errorf("lint tool failed to run: %w", err)
	}

	var reports []models.LintFileReport
	if jsonErr := json.Unmarshal(stdout, &reports); jsonErr != nil {
		// Non-zero exit with no parseable report means the tool crashed
		// rather than reporting findings.
		if err != nil {
			return nil, fmt.Errorf("lint tool produced no report: %s", firstNonEmpty(string(stderr), err.Error()))
		}
		return nil, fmt.Errorf("parse lint output: %w", jsonErr)
	}

	if len(reports) == 0 {
		return &models.LintFileReport{FilePath: file, Messages: []models.LintMessage{}}, nil
	}

	// eslint reports one entry per linted file; a single-file invocation
	// yields exactly one.
	report := reports[0]
	if report.Messages == nil {
		report.Messages = []models.LintMessage{}
	}
	return &report, nil
}

// TscTypeChecker implements TypeChecker with a no-emit tsc invocation.
type TscTypeChecker struct {
	runner  exec.CommandRunner
	command string
	timeout time.Duration
}

// NewTscTypeChecker creates a type checker invoked through the given npx command.
func NewTscTypeChecker(runner exec.CommandRunner, command string, timeout time.Duration) *TscTypeChecker {
	return &TscTypeChecker{runner: runner, command: command, timeout: timeout}
}

// Check runs tsc --noEmit against the file inside dir. Any non-zero exit is
// a type error unless the tool produced no meaningful output at all.
func (t *TscTypeChecker) Check(ctx context.Context, dir, file string) ([]models.Issue, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	stdout, stderr, err := t.runner.RunSplit(ctx, dir, t.command, "tsc", "--noEmit", "--pretty", "false", file)
	if err == nil {
		return nil, nil
	}
	if !exec.IsExit(err) {
		return nil, fmt.Errorf("type checker failed to run: %w", err)
	}

	output := strings.TrimSpace(string(stdout))
	if output == "" {
		output = strings.TrimSpace(string(stderr))
	}
	if output == "" {
		return nil, fmt.Errorf("type checker exited without output: %w", err)
	}

	issues := parseTypeErrors(output)
	if len(issues) == 0 {
		// Unrecognized diagnostics still block: the tool ran and rejected
		// the file.
		issues = []models.Issue{{Type: models.IssueTypeCheck, Message: output}}
	}
	return issues, nil
}

// NpmInstaller implements Installer with a no-lockfile-mutation npm install.
type NpmInstaller struct {
	runner  exec.CommandRunner
	command string
	timeout time.Duration
}

// NewNpmInstaller creates an installer using the given npm command.
func NewNpmInstaller(runner exec.CommandRunner, command string, timeout time.Duration) *NpmInstaller {
	return &NpmInstaller{runner: runner, command: command, timeout: timeout}
}

// Install runs npm install in dir unless node_modules already exists, making
// repeated runs against a warm sandbox cheap.
func (i *NpmInstaller) Install(ctx context.Context, dir string) error {
	if _, err := os.Stat(filepath.Join(dir, "node_modules")); err == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	output, err := i.runner.Run(ctx, dir, i.command, "install", "--no-save", "--no-audit", "--no-fund")
	if err != nil {
		return fmt.Errorf("install dependencies: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
