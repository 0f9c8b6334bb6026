// Package validator runs syntax, lint, and type-check passes on generated
// files inside a sandbox and normalizes heterogeneous tool output into one
// error/warning model.
package validator

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cruciblehq/crucible/internal/config"
	"github.com/cruciblehq/crucible/internal/exec"
	"github.com/cruciblehq/crucible/internal/sandbox"
	"github.com/cruciblehq/crucible/pkg/models"
)

// syntaxCheckable lists extensions the parse-only syntax stage applies to.
var syntaxCheckable = map[string]bool{
	".js":  true,
	".jsx": true,
	".mjs": true,
	".cjs": true,
}

// lintable lists extensions the lint stage applies to.
var lintable = map[string]bool{
	".js":  true,
	".jsx": true,
	".mjs": true,
	".cjs": true,
	".ts":  true,
	".tsx": true,
}

// typed lists extensions the type-check stage applies to.
var typed = map[string]bool{
	".ts":  true,
	".tsx": true,
}

// Validator validates generated files independently and in parallel inside
// one sandbox per run.
type Validator struct {
	sandboxes *sandbox.Manager
	installer Installer
	syntax    SyntaxChecker
	linter    Linter
	types     TypeChecker

	// Logf, when set, receives non-fatal diagnostics (cleanup and install
	// failures). Such failures never fail validation.
	Logf func(format string, args ...any)
}

// New creates a Validator wired to the standard node toolchain.
func New(sandboxes *sandbox.Manager, runner exec.CommandRunner, cfg *config.Config) *Validator {
	return &Validator{
		sandboxes: sandboxes,
		installer: NewNpmInstaller(runner, cfg.Tools.Npm, cfg.Timeouts.Install),
		syntax:    NewNodeSyntaxChecker(runner, cfg.Tools.Node, cfg.Timeouts.Syntax),
		linter:    NewESLintLinter(runner, cfg.Tools.Npx, cfg.Timeouts.Lint),
		types:     NewTscTypeChecker(runner, cfg.Tools.Npx, cfg.Timeouts.Typecheck),
	}
}

// NewWithTools creates a Validator with explicit tool implementations. Any
// compatible tool may be substituted as long as it honors the capability
// contracts.
func NewWithTools(sandboxes *sandbox.Manager, installer Installer, syntax SyntaxChecker, linter Linter, types TypeChecker) *Validator {
	return &Validator{
		sandboxes: sandboxes,
		installer: installer,
		syntax:    syntax,
		linter:    linter,
		types:     types,
	}
}

// Validate builds one sandbox, validates every file independently, and
// aggregates the results. File results appear in input order regardless of
// completion order. The sandbox is always torn down, success or failure;
// only sandbox creation errors abort the run.
func (v *Validator) Validate(ctx context.Context, files []models.GeneratedFile, seedDir string) (*models.ValidationReport, error) {
	sb, err := v.sandboxes.Create(seedDir, files)
	if err != nil {
		return nil, fmt.Errorf("create sandbox: %w", err)
	}
	defer func() {
		if destroyErr := v.sandboxes.Destroy(sb); destroyErr != nil {
			v.logf("sandbox cleanup failed: %v", destroyErr)
		}
	}()

	if v.installer != nil {
		if installErr := v.installer.Install(ctx, sb.Path); installErr != nil {
			// A broken tool environment must never fail validation; the
			// lint and type stages degrade to process warnings on their own.
			v.logf("dependency install failed: %v", installErr)
		}
	}

	results := make([]models.ValidationResult, len(files))
	var wg sync.WaitGroup
	for i, file := range files {
		wg.Add(1)
		go func(i int, file models.GeneratedFile) {
			defer wg.Done()
			results[i] = v.validateFile(ctx, sb, file)
		}(i, file)
	}
	wg.Wait()

	report := &models.ValidationReport{
		Valid:          true,
		CriticalErrors: []models.Issue{},
		Warnings:       []models.Issue{},
		FileResults:    results,
	}
	for _, r := range results {
		if !r.Valid {
			report.Valid = false
		}
		report.CriticalErrors = append(report.CriticalErrors, r.CriticalErrors...)
		report.Warnings = append(report.Warnings, r.Warnings...)
	}

	return report, nil
}

// validateFile runs the per-file stage pipeline in strict sequence: syntax,
// then lint, then type check. A syntax failure short-circuits the rest.
func (v *Validator) validateFile(ctx context.Context, sb *sandbox.Sandbox, file models.GeneratedFile) (result models.ValidationResult) {
	result = models.ValidationResult{
		FilePath:       file.Path,
		SyntaxValid:    true,
		CriticalErrors: []models.Issue{},
		Warnings:       []models.Issue{},
	}

	defer func() {
		if r := recover(); r != nil {
			result.CriticalErrors = append(result.CriticalErrors, models.Issue{
				Type:    models.IssueProcess,
				Message: fmt.Sprintf("validation pipeline error: %v", r),
			})
			result.Valid = false
		}
	}()

	ext := strings.ToLower(filepath.Ext(file.Path))

	if syntaxCheckable[ext] && v.syntax != nil {
		issue, err := v.syntax.Check(ctx, sb.Path, file.Path)
		if err != nil {
			result.CriticalErrors = append(result.CriticalErrors, models.Issue{
				Type:    models.IssueProcess,
				Message: err.Error(),
			})
			result.Valid = false
			return result
		}
		if issue != nil {
			result.SyntaxValid = false
			result.CriticalErrors = append(result.CriticalErrors, *issue)
			result.Valid = false
			return result
		}
	}

	if lintable[ext] && v.linter != nil {
		report, err := v.linter.Lint(ctx, sb.Path, file.Path)
		if err != nil {
			result.Warnings = append(result.Warnings, models.Issue{
				Type:    models.IssueLintProcess,
				Message: err.Error(),
			})
		} else if report != nil {
			result.LintReport = report
			for _, msg := range report.Messages {
				issue := models.Issue{
					Type:    models.IssueLint,
					Message: msg.Message,
					Line:    msg.Line,
					Column:  msg.Column,
					RuleID:  msg.RuleID,
				}
				if msg.Severity == 2 {
					result.CriticalErrors = append(result.CriticalErrors, issue)
				} else {
					result.Warnings = append(result.Warnings, issue)
				}
			}
		}
	}

	if typed[ext] && v.types != nil {
		issues, err := v.types.Check(ctx, sb.Path, file.Path)
		if err != nil {
			result.Warnings = append(result.Warnings, models.Issue{
				Type:    models.IssueTypeCheckProcess,
				Message: err.Error(),
			})
		} else {
			result.CriticalErrors = append(result.CriticalErrors, issues...)
		}
	}

	result.Valid = len(result.CriticalErrors) == 0
	return result
}

func (v *Validator) logf(format string, args ...any) {
	if v.Logf != nil {
		v.Logf(format, args...)
	}
}
