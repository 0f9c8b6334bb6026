package coverage

import (
	"testing"

	"github.com/cruciblehq/crucible/internal/config"
)

func testConfig() config.CoverageConfig {
	return config.CoverageConfig{
		LowThreshold: 70,
		GoodLines:    80,
		GoodBranches: 70,
		TopFiles:     5,
	}
}

func TestAnalyzeBareSummary(t *testing.T) {
	data := []byte(`{"lines":{"total":100,"covered":82}}`)

	analysis, err := New(testConfig()).Analyze(data)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if got := analysis.Summary.Lines.Percentage; got != 82 {
		t.Errorf("lines percentage = %v, want 82", got)
	}
	if len(analysis.LowCoverageFiles) != 0 {
		t.Errorf("LowCoverageFiles = %+v, want empty", analysis.LowCoverageFiles)
	}
	// Metrics absent from the report stay at zero.
	if analysis.Summary.Branches.Percentage != 0 {
		t.Errorf("branches percentage = %v, want 0", analysis.Summary.Branches.Percentage)
	}
}

func TestAnalyzeSummaryReport(t *testing.T) {
	data := []byte(`{
		"total": {
			"lines": {"total": 200, "covered": 150, "pct": 75},
			"statements": {"total": 210, "covered": 160, "pct": 76.19},
			"functions": {"total": 40, "covered": 30, "pct": 75},
			"branches": {"total": 80, "covered": 40, "pct": 50}
		},
		"src/good.js": {
			"lines": {"total": 100, "covered": 100, "pct": 100},
			"statements": {"total": 100, "covered": 100, "pct": 100},
			"functions": {"total": 20, "covered": 20, "pct": 100},
			"branches": {"total": 40, "covered": 40, "pct": 100}
		},
		"src/bad.js": {
			"lines": {"total": 100, "covered": 50, "pct": 50},
			"statements": {"total": 110, "covered": 60, "pct": 54.5},
			"functions": {"total": 20, "covered": 10, "pct": 50},
			"branches": {"total": 40, "covered": 0, "pct": 0}
		}
	}`)

	analysis, err := New(testConfig()).Analyze(data)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if analysis.Summary.TotalFiles != 2 {
		t.Errorf("TotalFiles = %d, want 2", analysis.Summary.TotalFiles)
	}
	if analysis.Summary.FullyCoveredFiles != 1 {
		t.Errorf("FullyCoveredFiles = %d, want 1", analysis.Summary.FullyCoveredFiles)
	}
	if analysis.Summary.Lines.Percentage != 75 {
		t.Errorf("lines percentage = %v, want 75", analysis.Summary.Lines.Percentage)
	}

	if len(analysis.LowCoverageFiles) != 1 || analysis.LowCoverageFiles[0].FilePath != "src/bad.js" {
		t.Fatalf("LowCoverageFiles = %+v, want [src/bad.js]", analysis.LowCoverageFiles)
	}
}

func TestAnalyzeHitMapReport(t *testing.T) {
	data := []byte(`{
		"src/calc.js": {
			"path": "src/calc.js",
			"statementMap": {
				"0": {"start": {"line": 1, "column": 0}, "end": {"line": 1, "column": 20}},
				"1": {"start": {"line": 3, "column": 2}, "end": {"line": 4, "column": 10}}
			},
			"s": {"0": 5, "1": 0},
			"fnMap": {
				"0": {"name": "calc", "decl": {"start": {"line": 1, "column": 9}, "end": {"line": 1, "column": 13}}, "loc": {"start": {"line": 1, "column": 0}, "end": {"line": 6, "column": 1}}}
			},
			"f": {"0": 5},
			"branchMap": {
				"0": {"loc": {"start": {"line": 3, "column": 2}, "end": {"line": 5, "column": 3}}, "type": "if", "locations": []}
			},
			"b": {"0": [5, 0]}
		}
	}`)

	analysis, err := New(testConfig()).Analyze(data)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	// Derived by summation: 1 of 2 statements, 1 of 1 functions,
	// 1 of 2 branch paths.
	if got := analysis.Summary.Statements; got.Covered != 1 || got.Total != 2 || got.Percentage != 50 {
		t.Errorf("statements = %+v, want 1/2 = 50%%", got)
	}
	if got := analysis.Summary.Functions.Percentage; got != 100 {
		t.Errorf("functions percentage = %v, want 100", got)
	}
	if got := analysis.Summary.Branches.Percentage; got != 50 {
		t.Errorf("branches percentage = %v, want 50", got)
	}

	// Lines derive from statement start lines: line 1 hit, line 3 not.
	if got := analysis.Summary.Lines; got.Covered != 1 || got.Total != 2 {
		t.Errorf("lines = %+v, want 1/2", got)
	}

	// The zero-hit statement spans lines 3-4.
	if len(analysis.UncoveredCode) != 1 {
		t.Fatalf("UncoveredCode = %+v, want one file", analysis.UncoveredCode)
	}
	wantLines := []int{3, 4}
	got := analysis.UncoveredCode[0].Lines
	if len(got) != len(wantLines) || got[0] != 3 || got[1] != 4 {
		t.Errorf("uncovered lines = %v, want %v", got, wantLines)
	}

	// calc was invoked and holds a branch with an unexercised path.
	if len(analysis.CriticalPaths) != 1 {
		t.Fatalf("CriticalPaths = %+v, want one entry", analysis.CriticalPaths)
	}
	cp := analysis.CriticalPaths[0]
	if cp.FunctionName != "calc" || cp.UncoveredBranches != 1 {
		t.Errorf("critical path = %+v, want calc with 1 uncovered branch", cp)
	}
}

func TestAnalyzeCriticalPathRequiresInvocation(t *testing.T) {
	// Same shape but the function was never called: dead code is not a
	// critical path.
	data := []byte(`{
		"src/dead.js": {
			"statementMap": {"0": {"start": {"line": 1, "column": 0}, "end": {"line": 1, "column": 5}}},
			"s": {"0": 0},
			"fnMap": {"0": {"name": "dead", "decl": {"start": {"line": 1, "column": 0}, "end": {"line": 1, "column": 4}}, "loc": {"start": {"line": 1, "column": 0}, "end": {"line": 5, "column": 1}}}},
			"f": {"0": 0},
			"branchMap": {"0": {"loc": {"start": {"line": 2, "column": 2}, "end": {"line": 4, "column": 3}}, "type": "if", "locations": []}},
			"b": {"0": [0, 0]}
		}
	}`)

	analysis, err := New(testConfig()).Analyze(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(analysis.CriticalPaths) != 0 {
		t.Errorf("CriticalPaths = %+v, want none for uninvoked function", analysis.CriticalPaths)
	}
}

func TestAnalyzeUncoveredLineFormats(t *testing.T) {
	tests := []struct {
		name string
		data string
		want []int
	}{
		{
			name: "flat hit map",
			data: `{"a.js": {"l": {"1": 3, "2": 0, "5": 0}}}`,
			want: []int{2, 5},
		},
		{
			name: "line detail list",
			data: `{"a.js": {"lines": {"details": [{"line": 4, "hit": 0}, {"line": 7, "hit": 2}, {"line": 9, "hit": 0}]}}}`,
			want: []int{4, 9},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis, err := New(testConfig()).Analyze([]byte(tt.data))
			if err != nil {
				t.Fatal(err)
			}
			if len(analysis.UncoveredCode) != 1 {
				t.Fatalf("UncoveredCode = %+v, want one file", analysis.UncoveredCode)
			}
			got := analysis.UncoveredCode[0].Lines
			if len(got) != len(tt.want) {
				t.Fatalf("uncovered lines = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("uncovered lines = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestAnalyzePercentageBounds(t *testing.T) {
	inputs := []string{
		`{"lines":{"total":0,"covered":0}}`,
		`{"total":{"lines":{"total":0,"covered":0,"pct":0}},"a.js":{"lines":{"total":0,"covered":0,"pct":0}}}`,
		`{"a.js":{"s":{},"f":{},"b":{}}}`,
	}

	for _, input := range inputs {
		analysis, err := New(testConfig()).Analyze([]byte(input))
		if err != nil {
			t.Fatalf("Analyze(%s) error = %v", input, err)
		}
		for name, pct := range map[string]float64{
			"lines":      analysis.Summary.Lines.Percentage,
			"statements": analysis.Summary.Statements.Percentage,
			"functions":  analysis.Summary.Functions.Percentage,
			"branches":   analysis.Summary.Branches.Percentage,
		} {
			if pct < 0 || pct > 100 {
				t.Errorf("%s percentage %v out of [0,100] for %s", name, pct, input)
			}
			if pct != 0 {
				t.Errorf("%s percentage = %v with zero totals, want 0", name, pct)
			}
		}
	}
}

func TestAnalyzeEmptyReport(t *testing.T) {
	if _, err := New(testConfig()).Analyze([]byte(`{}`)); err == nil {
		t.Error("Analyze({}) succeeded, want error")
	}
	if _, err := New(testConfig()).Analyze([]byte(`not json`)); err == nil {
		t.Error("Analyze(not json) succeeded, want error")
	}
}

func TestRecommendations(t *testing.T) {
	t.Run("low coverage fires high priority rules", func(t *testing.T) {
		data := []byte(`{
			"total": {
				"lines": {"total": 100, "covered": 40, "pct": 40},
				"statements": {"total": 100, "covered": 40, "pct": 40},
				"functions": {"total": 10, "covered": 4, "pct": 40},
				"branches": {"total": 20, "covered": 5, "pct": 25}
			},
			"a.js": {
				"lines": {"total": 100, "covered": 40, "pct": 40},
				"statements": {"total": 100, "covered": 40, "pct": 40},
				"functions": {"total": 10, "covered": 4, "pct": 40},
				"branches": {"total": 20, "covered": 5, "pct": 25}
			}
		}`)
		analysis, err := New(testConfig()).Analyze(data)
		if err != nil {
			t.Fatal(err)
		}

		highs := 0
		fileRecs := 0
		for _, rec := range analysis.Recommendations {
			if rec.Priority == RecHigh {
				highs++
			}
			if rec.FilePath != "" {
				fileRecs++
			}
		}
		if highs != 2 {
			t.Errorf("high priority recommendations = %d, want 2 (lines + branches)", highs)
		}
		if fileRecs != 1 {
			t.Errorf("file recommendations = %d, want 1", fileRecs)
		}
	})

	t.Run("healthy coverage gets generic recommendation", func(t *testing.T) {
		data := []byte(`{"lines":{"total":100,"covered":90},"branches":{"total":100,"covered":80}}`)
		analysis, err := New(testConfig()).Analyze(data)
		if err != nil {
			t.Fatal(err)
		}
		if len(analysis.Recommendations) != 1 {
			t.Fatalf("Recommendations = %+v, want one generic entry", analysis.Recommendations)
		}
		if analysis.Recommendations[0].Priority != RecLow {
			t.Errorf("generic recommendation priority = %s, want low", analysis.Recommendations[0].Priority)
		}
	})

	t.Run("middling coverage gets medium generic recommendation", func(t *testing.T) {
		data := []byte(`{"lines":{"total":100,"covered":75},"branches":{"total":100,"covered":72}}`)
		analysis, err := New(testConfig()).Analyze(data)
		if err != nil {
			t.Fatal(err)
		}
		if len(analysis.Recommendations) != 1 || analysis.Recommendations[0].Priority != RecMedium {
			t.Errorf("Recommendations = %+v, want one medium entry", analysis.Recommendations)
		}
	})
}
