package metrics

import (
	"strings"
	"testing"

	"github.com/cruciblehq/crucible/pkg/models"
)

func TestCollectBasicCounts(t *testing.T) {
	content := "// header comment\nconst a = 1;\n\nconst b = 2;\n"
	result := Collect([]models.GeneratedFile{{Path: "a.js", Content: content}})

	if len(result.Files) != 1 {
		t.Fatalf("len(Files) = %d, want 1", len(result.Files))
	}
	fm := result.Files[0]
	if fm.FileSize != len(content) {
		t.Errorf("FileSize = %d, want %d", fm.FileSize, len(content))
	}
	if fm.LineCount != 5 {
		t.Errorf("LineCount = %d, want 5", fm.LineCount)
	}
	if fm.NonEmptyLineCount != 3 {
		t.Errorf("NonEmptyLineCount = %d, want 3", fm.NonEmptyLineCount)
	}
	if fm.Source == nil {
		t.Fatal("Source = nil for recognized extension")
	}
	if fm.Source.CommentLineCount != 1 {
		t.Errorf("CommentLineCount = %d, want 1", fm.Source.CommentLineCount)
	}
}

func TestCollectUnrecognizedExtension(t *testing.T) {
	result := Collect([]models.GeneratedFile{{Path: "notes.md", Content: "# Title\n\nbody\n"}})

	fm := result.Files[0]
	if fm.Source != nil {
		t.Errorf("Source = %+v for unrecognized extension, want nil", fm.Source)
	}
	if fm.LineCount != 4 {
		t.Errorf("LineCount = %d, want 4", fm.LineCount)
	}
}

func TestCollectCountsFunctions(t *testing.T) {
	content := `function add(a, b) { return a + b; }
const mul = (a, b) => a * b;
`
	result := Collect([]models.GeneratedFile{{Path: "math.js", Content: content}})

	src := result.Files[0].Source
	if src.FunctionCount != 2 {
		t.Errorf("FunctionCount = %d, want 2", src.FunctionCount)
	}
}

func TestCollectBlockCommentSpansAllLines(t *testing.T) {
	content := "/*\n * one\n * two\n */\nconst a = 1;\n"
	result := Collect([]models.GeneratedFile{{Path: "a.js", Content: content}})

	if got := result.Files[0].Source.CommentLineCount; got != 4 {
		t.Errorf("CommentLineCount = %d, want 4", got)
	}
}

func TestCollectCyclomatic(t *testing.T) {
	// 1 base + if + for + && = 4
	content := `function f(x) {
  if (x > 0 && x < 10) {
    for (let i = 0; i < x; i++) {}
  }
}
`
	result := Collect([]models.GeneratedFile{{Path: "f.js", Content: content}})

	if got := result.Files[0].Source.Cyclomatic; got != 4 {
		t.Errorf("Cyclomatic = %d, want 4", got)
	}
}

func TestComplexityScore(t *testing.T) {
	tests := []struct {
		name      string
		lines     int
		functions int
		control   int
		depth     int
		want      int
	}{
		{"minimal", 1, 0, 0, 0, 1},
		{"fifty lines one function", 50, 1, 0, 1, 2},
		{"rounding up", 51, 3, 6, 2, 2 + 2 + 2},
		{"deep nesting penalty", 10, 1, 1, 5, 1 + 1 + 1 + 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := complexityScore(tt.lines, tt.functions, tt.control, tt.depth)
			if got != tt.want {
				t.Errorf("complexityScore(%d,%d,%d,%d) = %d, want %d",
					tt.lines, tt.functions, tt.control, tt.depth, got, tt.want)
			}
		})
	}
}

func TestMaxNestingDepth(t *testing.T) {
	tests := []struct {
		content string
		want    int
	}{
		{"", 0},
		{"{}", 1},
		{"{([])}", 3},
		{"{}{}{}", 1},
		{"f(a[0])", 2},
	}

	for _, tt := range tests {
		if got := maxNestingDepth(tt.content); got != tt.want {
			t.Errorf("maxNestingDepth(%q) = %d, want %d", tt.content, got, tt.want)
		}
	}
}

func TestCollectAggregates(t *testing.T) {
	big := "const x = 1;\n" + strings.Repeat("x;\n", 100)
	complex := `function f(a) {
  if (a) { if (a > 1) { if (a > 2) { for (;;) { while (a) {} } } } }
}
`
	files := []models.GeneratedFile{
		{Path: "big.js", Content: big},
		{Path: "complex.js", Content: complex},
		{Path: "plain.txt", Content: "hello\n"},
	}

	result := Collect(files)
	totals := result.Totals

	if totals.TotalFiles != 3 {
		t.Errorf("TotalFiles = %d, want 3", totals.TotalFiles)
	}
	if totals.TotalErroredFiles != 0 {
		t.Errorf("TotalErroredFiles = %d, want 0", totals.TotalErroredFiles)
	}
	if totals.LargestFile != "big.js" {
		t.Errorf("LargestFile = %s, want big.js", totals.LargestFile)
	}
	if totals.MostComplexFile != "complex.js" {
		t.Errorf("MostComplexFile = %s, want complex.js", totals.MostComplexFile)
	}
	if totals.AvgLines <= 0 {
		t.Errorf("AvgLines = %v, want positive", totals.AvgLines)
	}
}

func TestCollectTokenCountStripsCommentsAndStrings(t *testing.T) {
	withNoise := "// a comment full of words\nconst s = \"many words inside a string\";\n"
	bare := "const s = 1;\n"

	noisy := Collect([]models.GeneratedFile{{Path: "a.js", Content: withNoise}}).Files[0].Source
	plain := Collect([]models.GeneratedFile{{Path: "b.js", Content: bare}}).Files[0].Source

	// Comment and string contents are stripped, so the token counts stay
	// close despite the extra prose.
	if noisy.TokenCount > plain.TokenCount+2 {
		t.Errorf("TokenCount = %d, want near %d", noisy.TokenCount, plain.TokenCount)
	}
}

func TestCollectEmptyInput(t *testing.T) {
	result := Collect(nil)
	if result.Totals.TotalFiles != 0 || result.Totals.AvgLines != 0 {
		t.Errorf("empty input totals = %+v, want zeros", result.Totals)
	}
}
