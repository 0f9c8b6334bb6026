package models

import "time"

// TestFramework identifies the framework a test unit targets.
type TestFramework string

const (
	// FrameworkJest is the default JavaScript/TypeScript test runner.
	FrameworkJest TestFramework = "jest"
	// FrameworkMocha is an alternate JavaScript test runner.
	FrameworkMocha TestFramework = "mocha"
	// FrameworkVitest is an alternate JavaScript/TypeScript test runner.
	FrameworkVitest TestFramework = "vitest"
)

// TestUnit is one generated test file paired with the source file it covers.
// Units are produced upstream and consumed read-only by this pipeline.
type TestUnit struct {
	// OriginalFilePath is the source file the test exercises.
	OriginalFilePath string `json:"original_file_path"`
	// TestFilePath is the sandbox-relative path of the test file.
	TestFilePath string `json:"test_file_path"`
	// TestCode is the test source text.
	TestCode string `json:"test_code"`
	// Framework names the test runner the unit was written for.
	Framework TestFramework `json:"framework"`
	// Critical marks a test pre-tagged upstream as must-run. The prioritizer
	// never assigns this on its own.
	Critical bool `json:"critical,omitempty"`
}

// TestStatus is the derived outcome of one test unit execution.
type TestStatus string

const (
	// TestPassed indicates the unit's failure counter was zero, or no
	// evidence of failure was found.
	TestPassed TestStatus = "passed"
	// TestFailed indicates a non-zero failure counter, error-stream output
	// with no parseable report, or a pipeline error for this unit.
	TestFailed TestStatus = "failed"
	// TestUnknown indicates the outcome could not be classified.
	TestUnknown TestStatus = "unknown"
)

// Valid returns true if the status is a known value.
func (s TestStatus) Valid() bool {
	switch s {
	case TestPassed, TestFailed, TestUnknown:
		return true
	default:
		return false
	}
}

// TestRunResult is the per-unit outcome of a test execution batch.
type TestRunResult struct {
	// TestFilePath is the executed test file.
	TestFilePath string `json:"test_file_path"`
	// OriginalFilePath is the source file the test exercises.
	OriginalFilePath string `json:"original_file_path"`
	// Status is the derived pass/fail outcome.
	Status TestStatus `json:"status"`
	// Details carries runner output or the error that failed the unit.
	Details string `json:"details,omitempty"`
	// Duration is how long the unit took to run.
	Duration time.Duration `json:"duration"`
	// Timestamp is when the unit finished.
	Timestamp time.Time `json:"timestamp"`
}

// TestRunSummary aggregates a batch of test unit executions.
type TestRunSummary struct {
	// TotalTests is the number of units executed.
	TotalTests int `json:"total_tests"`
	// PassedCount is the number of units with status passed.
	PassedCount int `json:"passed_count"`
	// FailedCount is the number of units with status failed.
	FailedCount int `json:"failed_count"`
	// SuccessRate is PassedCount/TotalTests*100, 0 when no tests ran.
	SuccessRate float64 `json:"success_rate"`
	// Tests holds per-unit results in execution order.
	Tests []TestRunResult `json:"tests"`
}
