package testexec

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cruciblehq/crucible/pkg/models"
)

// runnerReport covers the recognized structured result shapes: a top-level
// failed-test counter (jest, vitest) and a stats block with a failures
// counter (mocha-style reporters). Pointer fields distinguish "absent" from
// zero.
type runnerReport struct {
	NumFailedTests *int `json:"numFailedTests"`
	NumPassedTests int  `json:"numPassedTests"`
	NumTotalTests  int  `json:"numTotalTests"`
	Stats          *struct {
		Failures *int `json:"failures"`
		Passes   int  `json:"passes"`
		Tests    int  `json:"tests"`
	} `json:"stats"`
}

// parseResultFile reads the structured result file and derives a status:
// passed iff the report's failure counter is exactly zero. ok is false when
// no recognizable report exists at path.
func parseResultFile(path string) (status models.TestStatus, details string, ok bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.TestUnknown, "", false
	}

	var report runnerReport
	if err := json.Unmarshal(data, &report); err != nil {
		return models.TestUnknown, "", false
	}

	switch {
	case report.NumFailedTests != nil:
		if *report.NumFailedTests == 0 {
			status = models.TestPassed
		} else {
			status = models.TestFailed
		}
		details = fmt.Sprintf("%d/%d tests passed, %d failed",
			report.NumPassedTests, report.NumTotalTests, *report.NumFailedTests)
		return status, details, true

	case report.Stats != nil && report.Stats.Failures != nil:
		if *report.Stats.Failures == 0 {
			status = models.TestPassed
		} else {
			status = models.TestFailed
		}
		details = fmt.Sprintf("%d/%d tests passed, %d failed",
			report.Stats.Passes, report.Stats.Tests, *report.Stats.Failures)
		return status, details, true

	default:
		return models.TestUnknown, "", false
	}
}
