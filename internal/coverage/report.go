package coverage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/cruciblehq/crucible/pkg/models"
)

// report is the normalized intermediate form every input shape is parsed
// into before summary assembly.
type report struct {
	lines      tally
	statements tally
	functions  tally
	branches   tally

	files         []models.FileCoverage
	uncovered     []UncoveredFile
	criticalPaths []CriticalPath
}

type tally struct {
	covered int
	total   int
}

func (t *tally) add(covered, total int) {
	t.covered += covered
	t.total += total
}

func (r *report) summary() models.CoverageSummary {
	summary := models.CoverageSummary{
		Lines:      counts(r.lines.covered, r.lines.total),
		Statements: counts(r.statements.covered, r.statements.total),
		Functions:  counts(r.functions.covered, r.functions.total),
		Branches:   counts(r.branches.covered, r.branches.total),
		TotalFiles: len(r.files),
	}
	for _, f := range r.files {
		if f.FullyCovered() {
			summary.FullyCoveredFiles++
		}
	}
	return summary
}

// metricBlock is one metric of a summary-style report. Pct is a pointer so
// a missing pct field can be distinguished from an explicit zero.
type metricBlock struct {
	Total   int      `json:"total"`
	Covered int      `json:"covered"`
	Skipped int      `json:"skipped"`
	Pct     *float64 `json:"pct"`
}

func (m metricBlock) percentage() float64 {
	if m.Pct != nil {
		return roundPct(*m.Pct)
	}
	return percentage(m.Covered, m.Total)
}

// summaryEntry is the per-entry shape of summary-style reports: the four
// metric blocks keyed by metric name.
type summaryEntry struct {
	Lines      metricBlock `json:"lines"`
	Statements metricBlock `json:"statements"`
	Functions  metricBlock `json:"functions"`
	Branches   metricBlock `json:"branches"`
}

// Raw hit-map report entry, the istanbul coverage-final layout.

type position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

type srcRange struct {
	Start position `json:"start"`
	End   position `json:"end"`
}

// contains reports whether other's start line falls within this range.
func (r srcRange) contains(other srcRange) bool {
	return other.Start.Line >= r.Start.Line && other.Start.Line <= r.End.Line
}

type hitFn struct {
	Name string   `json:"name"`
	Decl srcRange `json:"decl"`
	Loc  srcRange `json:"loc"`
	Line int      `json:"line"`
}

type hitBranch struct {
	Loc       srcRange   `json:"loc"`
	Type      string     `json:"type"`
	Locations []srcRange `json:"locations"`
	Line      int        `json:"line"`
}

type lineDetail struct {
	Line int `json:"line"`
	Hit  int `json:"hit"`
}

type lineDetailBlock struct {
	Details []lineDetail `json:"details"`
}

type hitMapFile struct {
	Path         string               `json:"path"`
	StatementMap map[string]srcRange  `json:"statementMap"`
	S            map[string]int       `json:"s"`
	FnMap        map[string]hitFn     `json:"fnMap"`
	F            map[string]int       `json:"f"`
	BranchMap    map[string]hitBranch `json:"branchMap"`
	B            map[string][]int     `json:"b"`
	L            map[string]int       `json:"l"`
	Lines        *lineDetailBlock     `json:"lines"`
}

// parseReport detects the input shape and normalizes it. Three shapes are
// recognized: a bare summary object, a summary report keyed by file path
// with a "total" entry, and a raw per-file hit-map report.
func parseReport(data []byte) (*report, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("parsing coverage report: %w", err)
	}
	if len(top) == 0 {
		return nil, errors.New("coverage report is empty")
	}

	if raw, ok := top["total"]; ok && looksLikeSummaryEntry(raw) {
		return parseSummaryReport(top)
	}
	if looksLikeBareSummary(top) {
		return parseBareSummary(data)
	}
	return parseHitMapReport(top)
}

func looksLikeSummaryEntry(raw json.RawMessage) bool {
	var probe struct {
		Lines *metricBlock `json:"lines"`
	}
	return json.Unmarshal(raw, &probe) == nil && probe.Lines != nil
}

func looksLikeBareSummary(top map[string]json.RawMessage) bool {
	for _, key := range []string{"lines", "statements", "functions", "branches"} {
		if raw, ok := top[key]; ok {
			var probe metricBlock
			if json.Unmarshal(raw, &probe) == nil {
				return true
			}
		}
	}
	return false
}

// parseBareSummary handles a pre-computed summary object. Missing metrics
// stay at zero.
func parseBareSummary(data []byte) (*report, error) {
	var entry summaryEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("parsing coverage summary: %w", err)
	}

	r := &report{}
	r.lines.add(entry.Lines.Covered, entry.Lines.Total)
	r.statements.add(entry.Statements.Covered, entry.Statements.Total)
	r.functions.add(entry.Functions.Covered, entry.Functions.Total)
	r.branches.add(entry.Branches.Covered, entry.Branches.Total)
	r.files = []models.FileCoverage{}
	r.uncovered = []UncoveredFile{}
	r.criticalPaths = []CriticalPath{}
	return r, nil
}

// parseSummaryReport handles the aggregate-plus-per-file layout: a "total"
// entry carries the overall counts and every other key is a file path with
// its own metric blocks.
func parseSummaryReport(top map[string]json.RawMessage) (*report, error) {
	r := &report{
		files:         []models.FileCoverage{},
		uncovered:     []UncoveredFile{},
		criticalPaths: []CriticalPath{},
	}

	var total summaryEntry
	if err := json.Unmarshal(top["total"], &total); err != nil {
		return nil, fmt.Errorf("parsing coverage totals: %w", err)
	}
	r.lines.add(total.Lines.Covered, total.Lines.Total)
	r.statements.add(total.Statements.Covered, total.Statements.Total)
	r.functions.add(total.Functions.Covered, total.Functions.Total)
	r.branches.add(total.Branches.Covered, total.Branches.Total)

	for _, path := range sortedKeys(top) {
		if path == "total" {
			continue
		}
		var entry summaryEntry
		if err := json.Unmarshal(top[path], &entry); err != nil {
			return nil, fmt.Errorf("parsing coverage entry for %s: %w", path, err)
		}
		r.files = append(r.files, models.FileCoverage{
			FilePath:   path,
			Lines:      entry.Lines.percentage(),
			Statements: entry.Statements.percentage(),
			Functions:  entry.Functions.percentage(),
			Branches:   entry.Branches.percentage(),
		})
	}

	return r, nil
}

// parseHitMapReport handles the raw per-file hit-map layout. Totals and
// percentages are derived by summation then rounding since the report
// carries no pre-aggregated numbers.
func parseHitMapReport(top map[string]json.RawMessage) (*report, error) {
	r := &report{
		files:         []models.FileCoverage{},
		uncovered:     []UncoveredFile{},
		criticalPaths: []CriticalPath{},
	}

	for _, path := range sortedKeys(top) {
		var file hitMapFile
		if err := json.Unmarshal(top[path], &file); err != nil {
			return nil, fmt.Errorf("parsing coverage hit map for %s: %w", path, err)
		}
		if file.Path == "" {
			file.Path = path
		}

		lineCov, lineTotal := lineCounts(&file)
		stmtCov, stmtTotal := hitCounts(file.S)
		fnCov, fnTotal := hitCounts(file.F)
		branchCov, branchTotal := branchCounts(file.B)

		r.lines.add(lineCov, lineTotal)
		r.statements.add(stmtCov, stmtTotal)
		r.functions.add(fnCov, fnTotal)
		r.branches.add(branchCov, branchTotal)

		r.files = append(r.files, models.FileCoverage{
			FilePath:   file.Path,
			Lines:      percentage(lineCov, lineTotal),
			Statements: percentage(stmtCov, stmtTotal),
			Functions:  percentage(fnCov, fnTotal),
			Branches:   percentage(branchCov, branchTotal),
		})

		if lines := uncoveredLines(&file); len(lines) > 0 {
			r.uncovered = append(r.uncovered, UncoveredFile{
				FilePath: file.Path,
				Lines:    lines,
			})
		}

		r.criticalPaths = append(r.criticalPaths, criticalPaths(&file)...)
	}

	return r, nil
}

func hitCounts(hits map[string]int) (covered, total int) {
	for _, n := range hits {
		total++
		if n > 0 {
			covered++
		}
	}
	return covered, total
}

func branchCounts(branches map[string][]int) (covered, total int) {
	for _, paths := range branches {
		for _, n := range paths {
			total++
			if n > 0 {
				covered++
			}
		}
	}
	return covered, total
}

// lineCounts prefers an explicit per-line hit map and otherwise derives
// line hits from statement start lines.
func lineCounts(file *hitMapFile) (covered, total int) {
	lineHits := lineHitMap(file)
	for _, n := range lineHits {
		total++
		if n > 0 {
			covered++
		}
	}
	return covered, total
}

func lineHitMap(file *hitMapFile) map[int]int {
	hits := make(map[int]int)
	switch {
	case len(file.L) > 0:
		for key, n := range file.L {
			line, err := strconv.Atoi(key)
			if err != nil {
				continue
			}
			hits[line] = n
		}
	case file.Lines != nil && len(file.Lines.Details) > 0:
		for _, d := range file.Lines.Details {
			hits[d.Line] = d.Hit
		}
	default:
		for key, loc := range file.StatementMap {
			n := file.S[key]
			if existing, ok := hits[loc.Start.Line]; !ok || n > existing {
				hits[loc.Start.Line] = n
			}
		}
	}
	return hits
}

// uncoveredLines converges the three per-file line formats into one sorted,
// de-duplicated uncovered-line list: a flat hit-count-per-line map, a
// line-detail list, or zero-hit statement source ranges.
func uncoveredLines(file *hitMapFile) []int {
	seen := make(map[int]bool)

	switch {
	case len(file.L) > 0:
		for key, n := range file.L {
			if n != 0 {
				continue
			}
			if line, err := strconv.Atoi(key); err == nil {
				seen[line] = true
			}
		}
	case file.Lines != nil && len(file.Lines.Details) > 0:
		for _, d := range file.Lines.Details {
			if d.Hit == 0 {
				seen[d.Line] = true
			}
		}
	default:
		for key, loc := range file.StatementMap {
			if file.S[key] != 0 {
				continue
			}
			for line := loc.Start.Line; line <= loc.End.Line; line++ {
				seen[line] = true
			}
		}
	}

	lines := make([]int, 0, len(seen))
	for line := range seen {
		lines = append(lines, line)
	}
	sort.Ints(lines)
	return lines
}

// criticalPaths finds functions that were invoked but contain at least one
// branch with an unexercised path.
func criticalPaths(file *hitMapFile) []CriticalPath {
	paths := make([]CriticalPath, 0)

	for _, fnKey := range sortedFnKeys(file.FnMap) {
		fn := file.FnMap[fnKey]
		if file.F[fnKey] == 0 {
			continue
		}

		uncoveredBranches := 0
		for branchKey, branch := range file.BranchMap {
			if !fn.Loc.contains(branch.Loc) {
				continue
			}
			for _, n := range file.B[branchKey] {
				if n == 0 {
					uncoveredBranches++
				}
			}
		}
		if uncoveredBranches == 0 {
			continue
		}

		line := fn.Line
		if line == 0 {
			line = fn.Decl.Start.Line
		}
		paths = append(paths, CriticalPath{
			FilePath:          file.Path,
			FunctionName:      fn.Name,
			Line:              line,
			UncoveredBranches: uncoveredBranches,
		})
	}

	return paths
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedFnKeys(m map[string]hitFn) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
