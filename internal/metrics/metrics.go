// Package metrics computes size, comment-density, function-count, and
// complexity metrics directly from source text. It is a pure function of
// file content: no sandbox, no subprocess.
package metrics

import (
	"fmt"
	"math"
	"strings"

	"github.com/cruciblehq/crucible/pkg/models"
)

// Result pairs per-file metrics with their aggregate.
type Result struct {
	Files  []models.FileMetrics    `json:"files"`
	Totals models.AggregateMetrics `json:"totals"`
}

// Collect measures every file and aggregates the results. It never fails
// for a given file: a file-level failure yields a metrics record with its
// Error field set, excluded from aggregate averages.
func Collect(files []models.GeneratedFile) *Result {
	result := &Result{
		Files: make([]models.FileMetrics, 0, len(files)),
	}

	for _, f := range files {
		result.Files = append(result.Files, collectFile(f))
	}

	result.Totals = aggregate(result.Files)
	return result
}

// collectFile measures a single file. Size and line counts are always
// computed; the extension-dependent metrics only for recognized source
// extensions.
func collectFile(file models.GeneratedFile) (fm models.FileMetrics) {
	fm = models.FileMetrics{
		FilePath: file.Path,
	}

	defer func() {
		if r := recover(); r != nil {
			fm.Error = fmt.Sprintf("metrics collection failed: %v", r)
			fm.Source = nil
		}
	}()

	fm.FileSize = len(file.Content)
	lines := strings.Split(file.Content, "\n")
	fm.LineCount = len(lines)
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			fm.NonEmptyLineCount++
		}
	}

	lang := languageFor(file.Path)
	if lang == nil {
		return fm
	}

	functions := lang.countFunctions(file.Content)
	control := lang.countControlStructures(file.Content)
	depth := maxNestingDepth(file.Content)

	fm.Source = &models.SourceMetrics{
		CommentLineCount: lang.countCommentLines(file.Content),
		FunctionCount:    functions,
		ComplexityScore:  complexityScore(fm.LineCount, functions, control, depth),
		Cyclomatic:       1 + lang.countBranchTokens(file.Content),
		TokenCount:       lang.countTokens(file.Content),
	}

	return fm
}

// complexityScore is the heuristic score:
// ceil(lines/50) + ceil(functions/2) + ceil(controlStructures/5) +
// max(0, (maxNestingDepth-3)*2).
func complexityScore(lines, functions, control, depth int) int {
	score := int(math.Ceil(float64(lines) / 50))
	score += int(math.Ceil(float64(functions) / 2))
	score += int(math.Ceil(float64(control) / 5))
	if depth > 3 {
		score += (depth - 3) * 2
	}
	return score
}

// aggregate sums totals, computes averages over files that did not error,
// and tracks the single largest and single most complex file.
func aggregate(files []models.FileMetrics) models.AggregateMetrics {
	totals := models.AggregateMetrics{
		TotalFiles: len(files),
	}

	measured := 0
	complexityMeasured := 0
	var sumLines, sumComplexity int
	var largestSize, highestComplexity int

	for _, fm := range files {
		if fm.Error != "" {
			totals.TotalErroredFiles++
			continue
		}

		measured++
		totals.TotalSize += fm.FileSize
		totals.TotalLines += fm.LineCount
		sumLines += fm.LineCount

		if totals.LargestFile == "" || fm.FileSize > largestSize {
			totals.LargestFile = fm.FilePath
			largestSize = fm.FileSize
		}

		if fm.Source == nil {
			continue
		}

		totals.TotalFunctions += fm.Source.FunctionCount
		complexityMeasured++
		sumComplexity += fm.Source.ComplexityScore

		if totals.MostComplexFile == "" || fm.Source.ComplexityScore > highestComplexity {
			totals.MostComplexFile = fm.FilePath
			highestComplexity = fm.Source.ComplexityScore
		}
	}

	if measured > 0 {
		totals.AvgLines = float64(sumLines) / float64(measured)
	}
	if complexityMeasured > 0 {
		totals.AvgComplexity = float64(sumComplexity) / float64(complexityMeasured)
	}

	return totals
}
