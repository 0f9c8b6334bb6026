package models

// GeneratedFile is a single machine-generated source file handed to the
// pipeline. It is immutable input: one validation and one metrics result is
// produced per file.
type GeneratedFile struct {
	// Path is the sandbox-relative path the file is materialized at.
	Path string `json:"path"`
	// Content is the UTF-8 source text.
	Content string `json:"content"`
}

// SourceMetrics holds the metrics that are only computed for recognized
// source file extensions.
type SourceMetrics struct {
	// CommentLineCount is the number of lines spanned by comments.
	CommentLineCount int `json:"comment_line_count"`
	// FunctionCount is the heuristic count of function/method declarations.
	FunctionCount int `json:"function_count"`
	// ComplexityScore is the heuristic complexity score.
	ComplexityScore int `json:"complexity_score"`
	// Cyclomatic is the simplified cyclomatic complexity (1 + branch tokens).
	Cyclomatic int `json:"cyclomatic"`
	// TokenCount is a rough lexical size proxy.
	TokenCount int `json:"token_count"`
}

// FileMetrics holds size and complexity metrics for a single file.
type FileMetrics struct {
	// FilePath is the path of the measured file.
	FilePath string `json:"file_path"`
	// FileSize is the content size in bytes.
	FileSize int `json:"file_size"`
	// LineCount is the total number of lines.
	LineCount int `json:"line_count"`
	// NonEmptyLineCount is the number of lines with non-whitespace content.
	NonEmptyLineCount int `json:"non_empty_line_count"`
	// Source holds the extension-dependent metrics, nil for unrecognized
	// extensions.
	Source *SourceMetrics `json:"source,omitempty"`
	// Error is set when metrics collection failed for this file. An errored
	// file is excluded from aggregate averages.
	Error string `json:"error,omitempty"`
}

// AggregateMetrics sums and averages FileMetrics across a file set.
type AggregateMetrics struct {
	// TotalFiles is the number of files measured, errored files included.
	TotalFiles int `json:"total_files"`
	// TotalErroredFiles is the number of files whose measurement failed.
	TotalErroredFiles int `json:"total_errored_files"`
	// TotalSize is the summed byte size of all measured files.
	TotalSize int `json:"total_size"`
	// TotalLines is the summed line count of all measured files.
	TotalLines int `json:"total_lines"`
	// TotalFunctions is the summed heuristic function count.
	TotalFunctions int `json:"total_functions"`
	// AvgLines is the mean line count over files that did not error.
	AvgLines float64 `json:"avg_lines"`
	// AvgComplexity is the mean heuristic complexity over recognized source
	// files that did not error.
	AvgComplexity float64 `json:"avg_complexity"`
	// LargestFile is the path of the single largest file by byte size.
	LargestFile string `json:"largest_file,omitempty"`
	// MostComplexFile is the path of the file with the highest heuristic
	// complexity score.
	MostComplexFile string `json:"most_complex_file,omitempty"`
}
