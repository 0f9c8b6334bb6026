package models

import "time"

// TestStats summarizes the recorded run history of one test file.
type TestStats struct {
	// TestFilePath identifies the test.
	TestFilePath string `json:"test_file_path"`
	// Runs is the number of recorded executions.
	Runs int `json:"runs"`
	// Failures is the number of recorded failed executions.
	Failures int `json:"failures"`
	// AvgDuration is the mean recorded execution time.
	AvgDuration time.Duration `json:"avg_duration"`
	// LastStatus is the status of the most recent recorded run.
	LastStatus TestStatus `json:"last_status,omitempty"`
	// LastRunAt is when the most recent run was recorded.
	LastRunAt time.Time `json:"last_run_at"`
}

// FailureRate returns Failures/Runs, or 0 when no runs are recorded.
func (s TestStats) FailureRate() float64 {
	if s.Runs == 0 {
		return 0
	}
	return float64(s.Failures) / float64(s.Runs)
}
