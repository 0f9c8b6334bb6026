// Package coverage reconciles coverage reports of several shapes into one
// summary and derives low-coverage files, uncovered lines, critical paths,
// and rule-based recommendations from it.
package coverage

import (
	"fmt"
	"os"
	"sort"

	"github.com/cruciblehq/crucible/internal/config"
	"github.com/cruciblehq/crucible/pkg/models"
)

// RecPriority tags a recommendation.
type RecPriority string

const (
	RecHigh   RecPriority = "high"
	RecMedium RecPriority = "medium"
	RecLow    RecPriority = "low"
)

// Recommendation is one rule-generated suggestion.
type Recommendation struct {
	Priority RecPriority `json:"priority"`
	Message  string      `json:"message"`
	// FilePath is set when the recommendation targets one file.
	FilePath string `json:"file_path,omitempty"`
}

// UncoveredFile lists the uncovered line numbers of one file, sorted and
// de-duplicated.
type UncoveredFile struct {
	FilePath string `json:"file_path"`
	Lines    []int  `json:"lines"`
}

// CriticalPath is a function that was invoked at least once but contains a
// branch with an unexercised path. It surfaces partially-exercised logic,
// not dead code.
type CriticalPath struct {
	FilePath     string `json:"file_path"`
	FunctionName string `json:"function_name"`
	Line         int    `json:"line"`
	// UncoveredBranches counts branch paths inside the function with zero
	// hits.
	UncoveredBranches int `json:"uncovered_branches"`
}

// Analysis is the full output of one coverage report analysis.
type Analysis struct {
	Summary          models.CoverageSummary `json:"summary"`
	Files            []models.FileCoverage  `json:"files,omitempty"`
	LowCoverageFiles []models.FileCoverage  `json:"low_coverage_files"`
	UncoveredCode    []UncoveredFile        `json:"uncovered_code"`
	CriticalPaths    []CriticalPath         `json:"critical_paths"`
	Recommendations  []Recommendation       `json:"recommendations"`
}

// Analyzer parses coverage reports and applies the configured thresholds.
type Analyzer struct {
	cfg config.CoverageConfig
}

// New returns an Analyzer using the given thresholds.
func New(cfg config.CoverageConfig) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// AnalyzeFile reads and analyzes a coverage report from disk.
func (a *Analyzer) AnalyzeFile(path string) (*Analysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading coverage report: %w", err)
	}
	return a.Analyze(data)
}

// Analyze parses a JSON coverage report in any supported shape and derives
// the analysis. Supported shapes: a bare summary object, a summary report
// with a "total" entry plus per-file percentage entries, and a raw per-file
// hit-map report with no pre-aggregated totals.
func (a *Analyzer) Analyze(data []byte) (*Analysis, error) {
	report, err := parseReport(data)
	if err != nil {
		return nil, err
	}

	analysis := &Analysis{
		Summary:       report.summary(),
		Files:         report.files,
		UncoveredCode: report.uncovered,
		CriticalPaths: report.criticalPaths,
	}

	analysis.LowCoverageFiles = a.lowCoverageFiles(report.files)
	analysis.Recommendations = a.recommend(analysis)

	return analysis, nil
}

// lowCoverageFiles returns the files whose mean percentage is below the low
// threshold, sorted ascending so the worst file comes first.
func (a *Analyzer) lowCoverageFiles(files []models.FileCoverage) []models.FileCoverage {
	low := make([]models.FileCoverage, 0)
	for _, f := range files {
		if f.Average() < a.cfg.LowThreshold {
			low = append(low, f)
		}
	}
	sort.SliceStable(low, func(i, j int) bool {
		return low[i].Average() < low[j].Average()
	})
	return low
}

// recommend generates rule-based recommendations. Each rule fires
// independently; when none fires a single generic recommendation is emitted
// keyed off whether coverage already clears the good bar.
func (a *Analyzer) recommend(analysis *Analysis) []Recommendation {
	recs := make([]Recommendation, 0)
	summary := analysis.Summary

	if summary.Lines.Total > 0 && summary.Lines.Percentage < a.cfg.LowThreshold {
		recs = append(recs, Recommendation{
			Priority: RecHigh,
			Message: fmt.Sprintf("overall line coverage is %.0f%%, below the %.0f%% threshold; add tests for untested lines",
				summary.Lines.Percentage, a.cfg.LowThreshold),
		})
	}
	if summary.Branches.Total > 0 && summary.Branches.Percentage < a.cfg.LowThreshold {
		recs = append(recs, Recommendation{
			Priority: RecHigh,
			Message: fmt.Sprintf("overall branch coverage is %.0f%%, below the %.0f%% threshold; add tests exercising both sides of conditionals",
				summary.Branches.Percentage, a.cfg.LowThreshold),
		})
	}

	topN := a.cfg.TopFiles
	if topN <= 0 {
		topN = 5
	}
	for i, f := range analysis.LowCoverageFiles {
		if i >= topN {
			break
		}
		recs = append(recs, Recommendation{
			Priority: RecMedium,
			Message:  fmt.Sprintf("%s averages %.0f%% coverage; prioritize tests for this file", f.FilePath, f.Average()),
			FilePath: f.FilePath,
		})
	}

	for _, cp := range analysis.CriticalPaths {
		recs = append(recs, Recommendation{
			Priority: RecMedium,
			Message: fmt.Sprintf("function %s (%s:%d) is invoked but leaves %d branch path(s) untested",
				cp.FunctionName, cp.FilePath, cp.Line, cp.UncoveredBranches),
			FilePath: cp.FilePath,
		})
	}

	if len(recs) == 0 {
		if summary.Lines.Percentage >= a.cfg.GoodLines && summary.Branches.Percentage >= a.cfg.GoodBranches {
			recs = append(recs, Recommendation{
				Priority: RecLow,
				Message:  "coverage meets the target bars; keep new code covered",
			})
		} else {
			recs = append(recs, Recommendation{
				Priority: RecMedium,
				Message:  "coverage is acceptable but below the target bars; grow line and branch coverage with new tests",
			})
		}
	}

	return recs
}

// percentage returns round(covered/total*100), or 0 when total is 0.
func percentage(covered, total int) float64 {
	if total == 0 {
		return 0
	}
	pct := float64(covered) / float64(total) * 100
	// Round to the nearest integer percent the way the report totals are
	// published.
	return roundPct(pct)
}

func roundPct(pct float64) float64 {
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return float64(int(pct + 0.5))
}

// counts builds a CoverageCounts from raw totals.
func counts(covered, total int) models.CoverageCounts {
	return models.CoverageCounts{
		Total:      total,
		Covered:    covered,
		Percentage: percentage(covered, total),
	}
}
