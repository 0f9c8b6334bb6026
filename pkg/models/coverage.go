package models

// CoverageCounts describes one coverage metric as totals plus a rounded
// percentage. Percentage is 0 whenever Total is 0.
type CoverageCounts struct {
	Total      int     `json:"total"`
	Covered    int     `json:"covered"`
	Percentage float64 `json:"percentage"`
}

// CoverageSummary is a reconciled view over any supported coverage report
// shape: the four standard metrics plus file-level counts.
type CoverageSummary struct {
	Lines      CoverageCounts `json:"lines"`
	Statements CoverageCounts `json:"statements"`
	Functions  CoverageCounts `json:"functions"`
	Branches   CoverageCounts `json:"branches"`
	// TotalFiles is the number of files the report covers.
	TotalFiles int `json:"total_files"`
	// FullyCoveredFiles counts files whose four percentage metrics all
	// equal 100.
	FullyCoveredFiles int `json:"fully_covered_files"`
}

// FileCoverage holds the four percentage metrics for a single file.
type FileCoverage struct {
	FilePath   string  `json:"file_path"`
	Lines      float64 `json:"lines"`
	Statements float64 `json:"statements"`
	Functions  float64 `json:"functions"`
	Branches   float64 `json:"branches"`
}

// Average returns the unweighted mean of the four percentage metrics.
func (f FileCoverage) Average() float64 {
	return (f.Lines + f.Statements + f.Functions + f.Branches) / 4
}

// FullyCovered returns true iff all four percentage metrics equal 100.
func (f FileCoverage) FullyCovered() bool {
	return f.Lines == 100 && f.Statements == 100 && f.Functions == 100 && f.Branches == 100
}
