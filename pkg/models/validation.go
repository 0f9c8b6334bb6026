package models

// IssueType categorizes a validation issue.
type IssueType string

const (
	// IssueSyntax is a parse failure reported by the syntax checker.
	IssueSyntax IssueType = "syntax"
	// IssueLint is a blocking issue reported by the lint tool.
	IssueLint IssueType = "lint"
	// IssueLintProcess indicates the lint tool itself failed to run.
	IssueLintProcess IssueType = "lint-process"
	// IssueTypeCheck is a blocking issue reported by the type checker.
	IssueTypeCheck IssueType = "type"
	// IssueTypeCheckProcess indicates the type checker itself failed to run.
	IssueTypeCheckProcess IssueType = "type-process"
	// IssueProcess indicates the validation pipeline itself failed for a file.
	IssueProcess IssueType = "process"
)

// Valid returns true if the issue type is a known value.
func (t IssueType) Valid() bool {
	switch t {
	case IssueSyntax, IssueLint, IssueLintProcess, IssueTypeCheck, IssueTypeCheckProcess, IssueProcess:
		return true
	default:
		return false
	}
}

// Issue is a single normalized validation finding.
type Issue struct {
	// Type categorizes the issue.
	Type IssueType `json:"type"`
	// Message is the normalized tool message.
	Message string `json:"message"`
	// Line is the 1-based source line, 0 when unknown.
	Line int `json:"line,omitempty"`
	// Column is the 1-based source column, 0 when unknown.
	Column int `json:"column,omitempty"`
	// RuleID identifies the lint rule that fired, if any.
	RuleID string `json:"rule_id,omitempty"`
}

// LintMessage is a single finding from the lint tool's structured output.
type LintMessage struct {
	RuleID   string `json:"ruleId"`
	Severity int    `json:"severity"`
	Message  string `json:"message"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
}

// LintFileReport is the lint tool's per-file result.
type LintFileReport struct {
	FilePath     string        `json:"filePath"`
	Messages     []LintMessage `json:"messages"`
	ErrorCount   int           `json:"errorCount"`
	WarningCount int           `json:"warningCount"`
}

// ValidationResult is the per-file outcome of static validation.
type ValidationResult struct {
	// FilePath is the file this result describes.
	FilePath string `json:"file_path"`
	// Valid is true iff CriticalErrors is empty.
	Valid bool `json:"valid"`
	// SyntaxValid is false only when the syntax stage ran and failed.
	SyntaxValid bool `json:"syntax_valid"`
	// CriticalErrors are the blocking issues for this file.
	CriticalErrors []Issue `json:"critical_errors"`
	// Warnings are the non-blocking issues for this file.
	Warnings []Issue `json:"warnings"`
	// LintReport is the raw lint tool output. It is always nil when the
	// syntax stage failed, since lint is skipped.
	LintReport *LintFileReport `json:"lint_report,omitempty"`
}

// ValidationReport aggregates per-file results for one validation run.
type ValidationReport struct {
	// Valid is the logical AND over all file results.
	Valid bool `json:"valid"`
	// CriticalErrors concatenates every file's blocking issues.
	CriticalErrors []Issue `json:"critical_errors"`
	// Warnings concatenates every file's non-blocking issues.
	Warnings []Issue `json:"warnings"`
	// FileResults holds per-file results in input order.
	FileResults []ValidationResult `json:"file_results"`
}
