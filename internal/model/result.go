package model

import "time"

// FileProcessingResult is the outcome of processing one extracted spreadsheet.
// A successful result always carries a non-empty OutputName; a failed result
// always carries a non-empty Error and is excluded from ProcessedOutputPaths.
type FileProcessingResult struct {
	SourceName string
	OutputName string
	ResourceID string
	Error      string
	RowCount   int
	SizeKB     float64
	Success    bool
}

// RunSummary aggregates the results of one date's batch.
// It is owned by the pipeline for the duration of the run and is never
// mutated after the run completes.
type RunSummary struct {
	StartedAt            time.Time
	FinishedAt           time.Time
	Date                 string
	Files                []FileProcessingResult
	ProcessedOutputPaths []string
	TotalFiles           int
	Successful           int
	Failed               int
}

// RecordFailure appends a failed result and updates the counters.
func (s *RunSummary) RecordFailure(r FileProcessingResult) {
	r.Success = false
	s.Failed++
	s.Files = append(s.Files, r)
}

// RecordSuccess appends a successful result and its local output path.
func (s *RunSummary) RecordSuccess(r FileProcessingResult, outputPath string) {
	r.Success = true
	s.Successful++
	s.Files = append(s.Files, r)
	s.ProcessedOutputPaths = append(s.ProcessedOutputPaths, outputPath)
}
