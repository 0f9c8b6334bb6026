package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/cruciblehq/crucible/internal/coverage"
	"github.com/cruciblehq/crucible/internal/metrics"
	"github.com/cruciblehq/crucible/pkg/models"
)

// Validation renders a validation report as a styled string.
func Validation(report *models.ValidationReport) string {
	var b strings.Builder

	verdict := passTagStyle.Render("VALID")
	if !report.Valid {
		verdict = failTagStyle.Render("INVALID")
	}
	summary := fmt.Sprintf("%s  %s",
		titleStyle.Render("Validation"),
		verdict,
	)
	counts := dimStyle.Render(fmt.Sprintf("%d file(s), %d blocking, %d warning(s)",
		len(report.FileResults), len(report.CriticalErrors), len(report.Warnings)))
	b.WriteString(boxStyle.Render(summary + "\n" + counts))
	b.WriteString("\n")

	for _, result := range report.FileResults {
		if len(result.CriticalErrors) == 0 && len(result.Warnings) == 0 {
			b.WriteString(fmt.Sprintf("  %s %s\n", passStyle.Render("✓"), result.FilePath))
			continue
		}

		marker := warnStyle.Render("●")
		if !result.Valid {
			marker = failStyle.Render("✗")
		}
		b.WriteString(fmt.Sprintf("  %s %s\n", marker, titleStyle.Render(result.FilePath)))
		for _, issue := range result.CriticalErrors {
			b.WriteString("      " + failStyle.Render(issueLine(issue)) + "\n")
		}
		for _, issue := range result.Warnings {
			b.WriteString("      " + warnStyle.Render(issueLine(issue)) + "\n")
		}
	}

	return b.String()
}

func issueLine(issue models.Issue) string {
	var loc string
	if issue.Line > 0 {
		loc = fmt.Sprintf("%d", issue.Line)
		if issue.Column > 0 {
			loc += fmt.Sprintf(":%d", issue.Column)
		}
		loc += "  "
	}
	line := fmt.Sprintf("[%s] %s%s", issue.Type, loc, issue.Message)
	if issue.RuleID != "" {
		line += "  (" + issue.RuleID + ")"
	}
	return line
}

// TestRun renders a test execution summary as a styled string.
func TestRun(summary *models.TestRunSummary) string {
	var b strings.Builder

	rate := pctStyle(summary.SuccessRate).Render(fmt.Sprintf("%.0f%%", summary.SuccessRate))
	header := fmt.Sprintf("%s  %s",
		titleStyle.Render("Test Run"),
		rate,
	)
	counts := dimStyle.Render(fmt.Sprintf("%d test(s), %d passed, %d failed",
		summary.TotalTests, summary.PassedCount, summary.FailedCount))
	b.WriteString(boxStyle.Render(header + "\n" + counts))
	b.WriteString("\n")

	for _, result := range summary.Tests {
		marker := passStyle.Render("✓")
		if result.Status == models.TestFailed {
			marker = failStyle.Render("✗")
		} else if result.Status == models.TestUnknown {
			marker = warnStyle.Render("?")
		}
		b.WriteString(fmt.Sprintf("  %s %s  %s\n",
			marker, result.TestFilePath, dimStyle.Render(result.Duration.Round(time.Millisecond).String())))
		if result.Status == models.TestFailed && result.Details != "" {
			b.WriteString("      " + faintStyle.Render(firstLine(result.Details)) + "\n")
		}
	}

	return b.String()
}

// Metrics renders collected file metrics as a styled string.
func Metrics(result *metrics.Result) string {
	var b strings.Builder

	totals := result.Totals
	header := titleStyle.Render("Metrics")
	counts := dimStyle.Render(fmt.Sprintf("%d file(s), %d line(s), %d function(s)",
		totals.TotalFiles, totals.TotalLines, totals.TotalFunctions))
	b.WriteString(boxStyle.Render(header + "\n" + counts))
	b.WriteString("\n")

	for _, fm := range result.Files {
		if fm.Error != "" {
			b.WriteString(fmt.Sprintf("  %s %s  %s\n",
				failStyle.Render("✗"), fm.FilePath, faintStyle.Render(fm.Error)))
			continue
		}
		line := fmt.Sprintf("  %s  %s", titleStyle.Render(fm.FilePath),
			dimStyle.Render(fmt.Sprintf("%d lines, %d bytes", fm.LineCount, fm.FileSize)))
		if fm.Source != nil {
			line += dimStyle.Render(fmt.Sprintf(", %d fn, complexity %d",
				fm.Source.FunctionCount, fm.Source.ComplexityScore))
		}
		b.WriteString(line + "\n")
	}

	b.WriteString(separatorLine + "\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("  avg %.1f lines, avg complexity %.1f",
		totals.AvgLines, totals.AvgComplexity)) + "\n")
	if totals.LargestFile != "" {
		b.WriteString(dimStyle.Render("  largest: "+totals.LargestFile) + "\n")
	}
	if totals.MostComplexFile != "" {
		b.WriteString(dimStyle.Render("  most complex: "+totals.MostComplexFile) + "\n")
	}

	return b.String()
}

// Coverage renders a coverage analysis as a styled string.
func Coverage(analysis *coverage.Analysis) string {
	var b strings.Builder

	summary := analysis.Summary
	header := fmt.Sprintf("%s  %s lines",
		titleStyle.Render("Coverage"),
		pctStyle(summary.Lines.Percentage).Render(fmt.Sprintf("%.0f%%", summary.Lines.Percentage)))
	counts := dimStyle.Render(fmt.Sprintf("%d file(s), %d fully covered",
		summary.TotalFiles, summary.FullyCoveredFiles))
	b.WriteString(boxStyle.Render(header + "\n" + counts))
	b.WriteString("\n")

	b.WriteString(metricLine("lines", summary.Lines))
	b.WriteString(metricLine("statements", summary.Statements))
	b.WriteString(metricLine("functions", summary.Functions))
	b.WriteString(metricLine("branches", summary.Branches))

	if len(analysis.LowCoverageFiles) > 0 {
		b.WriteString("\n  " + headerStyle.Render("Low coverage") + "\n")
		for _, f := range analysis.LowCoverageFiles {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n",
				warnStyle.Render("●"), f.FilePath,
				pctStyle(f.Average()).Render(fmt.Sprintf("%.0f%%", f.Average()))))
		}
	}

	if len(analysis.CriticalPaths) > 0 {
		b.WriteString("\n  " + headerStyle.Render("Partially exercised functions") + "\n")
		for _, cp := range analysis.CriticalPaths {
			b.WriteString(fmt.Sprintf("    %s %s:%d %s  %s\n",
				warnStyle.Render("●"), cp.FilePath, cp.Line, cp.FunctionName,
				dimStyle.Render(fmt.Sprintf("%d untested branch path(s)", cp.UncoveredBranches))))
		}
	}

	if len(analysis.Recommendations) > 0 {
		b.WriteString("\n  " + headerStyle.Render("Recommendations") + "\n")
		for _, rec := range analysis.Recommendations {
			tag := dimStyle.Render(string(rec.Priority))
			if rec.Priority == coverage.RecHigh {
				tag = failTagStyle.Render(string(rec.Priority))
			}
			b.WriteString(fmt.Sprintf("    %s  %s\n", tag, rec.Message))
		}
	}

	return b.String()
}

func metricLine(name string, c models.CoverageCounts) string {
	return fmt.Sprintf("  %-12s %s  %s\n",
		name,
		pctStyle(c.Percentage).Render(fmt.Sprintf("%5.0f%%", c.Percentage)),
		dimStyle.Render(fmt.Sprintf("%d/%d", c.Covered, c.Total)))
}

// Plan renders a staged run plan as a styled string.
func Plan(plan *models.RunPlan) string {
	var b strings.Builder

	total := len(plan.Stage1.Tests) + len(plan.Stage2.Tests) + len(plan.Stage3.Tests)
	header := titleStyle.Render("Run Plan")
	counts := dimStyle.Render(fmt.Sprintf("%d test(s) in 3 stages", total))
	b.WriteString(boxStyle.Render(header + "\n" + counts))
	b.WriteString("\n")

	renderStage(&b, "Stage 1 (critical + high)", plan.Stage1)
	renderStage(&b, "Stage 2 (medium)", plan.Stage2)
	renderStage(&b, "Stage 3 (low)", plan.Stage3)

	return b.String()
}

func renderStage(b *strings.Builder, title string, stage models.PlanStage) {
	b.WriteString("\n  " + headerStyle.Render(title) +
		dimStyle.Render(fmt.Sprintf(" (%d)", len(stage.Tests))) + "\n")
	if len(stage.Tests) == 0 {
		b.WriteString("    " + faintStyle.Render("empty") + "\n")
		return
	}
	for _, t := range stage.Tests {
		b.WriteString(fmt.Sprintf("    %s  %s %s\n",
			pctStyle(t.ImpactScore*100).Render(fmt.Sprintf("%.2f", t.ImpactScore)),
			t.TestFilePath,
			faintStyle.Render(t.Reason)))
	}
	if stage.Command != "" {
		b.WriteString("    " + dimStyle.Render("$ "+stage.Command) + "\n")
	}
}

// History renders recorded per-test run statistics as a styled string.
func History(stats []models.TestStats) string {
	var b strings.Builder

	header := titleStyle.Render("Test History")
	counts := dimStyle.Render(fmt.Sprintf("%d test(s) recorded", len(stats)))
	b.WriteString(boxStyle.Render(header + "\n" + counts))
	b.WriteString("\n")

	for _, s := range stats {
		rate := (1 - s.FailureRate()) * 100
		b.WriteString(fmt.Sprintf("  %s  %s  %s\n",
			pctStyle(rate).Render(fmt.Sprintf("%3.0f%%", rate)),
			s.TestFilePath,
			dimStyle.Render(fmt.Sprintf("%d run(s), %d failure(s), avg %s",
				s.Runs, s.Failures, s.AvgDuration.Round(time.Millisecond)))))
	}

	return b.String()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
