// Package verify recomputes schema and quality metrics over written output
// files for post-hoc validation. It never mutates the files it inspects.
package verify

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// timestampSampleSize is how many leading rows the format heuristic inspects.
const timestampSampleSize = 5

// ValueRange summarizes the numeric value column.
type ValueRange struct {
	Min  float64
	Max  float64
	Mean float64
}

// Report holds the recomputed metrics for one output file.
type Report struct {
	StatusDistribution map[string]int
	ColumnTypes        map[string]string
	ValueRange         *ValueRange
	File               string
	Path               string
	TimestampFormat    string
	Error              string
	ColumnNames        []string
	Rows               int
	Columns            int
	MissingValues      int
	DuplicateRows      int
	CompletenessPct    float64
	Exists             bool
	Valid              bool
}

// Summary aggregates metrics over all outputs of a run.
type Summary struct {
	Files       []FileStat
	TotalFiles  int
	TotalRows   int
	TotalSizeKB float64
	TotalSizeMB float64
}

// FileStat is one output file's contribution to a Summary.
type FileStat struct {
	Name   string
	Rows   int
	SizeKB float64
}

// File verifies a single semicolon-delimited output file.
func File(path string) Report {
	report := Report{
		File: filepath.Base(path),
		Path: path,
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return report
		}
		report.Exists = true
		report.Error = err.Error()
		return report
	}
	defer f.Close()
	report.Exists = true

	reader := csv.NewReader(f)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		report.Error = fmt.Sprintf("failed to parse: %v", err)
		return report
	}
	if len(records) == 0 {
		report.Error = "file has no header"
		return report
	}

	header := records[0]
	rows := records[1:]

	report.Valid = true
	report.Rows = len(rows)
	report.Columns = len(header)
	report.ColumnNames = append([]string(nil), header...)
	report.MissingValues = countMissing(rows)
	report.DuplicateRows = countDuplicates(rows)
	report.ColumnTypes = inferColumnTypes(header, rows)
	report.CompletenessPct = completeness(len(header), rows, report.MissingValues)

	if idx := columnIndex(header, "status"); idx >= 0 {
		report.StatusDistribution = distribution(rows, idx)
	}
	if idx := columnIndex(header, "timestamp"); idx >= 0 {
		report.TimestampFormat = timestampFormat(rows, idx)
	}
	if idx := columnIndex(header, "value"); idx >= 0 {
		report.ValueRange = valueRange(rows, idx)
	}

	return report
}

// Summarize verifies every output path and aggregates rows and sizes.
// Invalid files are skipped, matching the run-summary semantics where
// verification is observational.
func Summarize(paths []string) Summary {
	var summary Summary
	summary.TotalFiles = len(paths)

	for _, path := range paths {
		report := File(path)
		if !report.Valid {
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		sizeKB := float64(info.Size()) / 1024
		summary.TotalRows += report.Rows
		summary.TotalSizeKB += sizeKB
		summary.Files = append(summary.Files, FileStat{
			Name:   report.File,
			Rows:   report.Rows,
			SizeKB: sizeKB,
		})
	}

	summary.TotalSizeMB = math.Round(summary.TotalSizeKB/1024*100) / 100
	return summary
}

func columnIndex(header []string, name string) int {
	for i, col := range header {
		if col == name {
			return i
		}
	}
	return -1
}

func countMissing(rows [][]string) int {
	missing := 0
	for _, row := range rows {
		for _, cell := range row {
			if strings.TrimSpace(cell) == "" {
				missing++
			}
		}
	}
	return missing
}

func countDuplicates(rows [][]string) int {
	seen := make(map[string]bool, len(rows))
	duplicates := 0
	for _, row := range rows {
		key := strings.Join(row, "\x1f")
		if seen[key] {
			duplicates++
		}
		seen[key] = true
	}
	return duplicates
}

func inferColumnTypes(header []string, rows [][]string) map[string]string {
	types := make(map[string]string, len(header))
	for i, col := range header {
		types[col] = inferType(rows, i)
	}
	return types
}

// inferType picks the narrowest type all non-empty cells of a column fit.
func inferType(rows [][]string, idx int) string {
	isInt, isFloat, sampled := true, true, false
	for _, row := range rows {
		if idx >= len(row) {
			continue
		}
		cell := strings.TrimSpace(row[idx])
		if cell == "" {
			continue
		}
		sampled = true
		if _, err := strconv.ParseInt(cell, 10, 64); err != nil {
			isInt = false
		}
		if _, err := strconv.ParseFloat(cell, 64); err != nil {
			isFloat = false
		}
	}
	switch {
	case !sampled:
		return "empty"
	case isInt:
		return "int64"
	case isFloat:
		return "float64"
	default:
		return "string"
	}
}

func completeness(columns int, rows [][]string, missing int) float64 {
	totalCells := columns * len(rows)
	if totalCells == 0 {
		return 100
	}
	pct := (1 - float64(missing)/float64(totalCells)) * 100
	return math.Round(pct*100) / 100
}

func distribution(rows [][]string, idx int) map[string]int {
	dist := make(map[string]int)
	for _, row := range rows {
		if idx < len(row) {
			dist[row[idx]]++
		}
	}
	return dist
}

// timestampFormat samples the first few rows and checks for the UTC Z
// suffix. Empty cells (the missing marker) are ignored.
func timestampFormat(rows [][]string, idx int) string {
	sampled := 0
	for _, row := range rows {
		if sampled >= timestampSampleSize {
			break
		}
		if idx >= len(row) {
			continue
		}
		cell := strings.TrimSpace(row[idx])
		if cell == "" {
			continue
		}
		sampled++
		if !strings.Contains(cell, "Z") {
			return "Other"
		}
	}
	if sampled == 0 {
		return ""
	}
	return "ISO 8601 with Z"
}

func valueRange(rows [][]string, idx int) *ValueRange {
	var (
		count      int
		sum        float64
		minV, maxV float64
	)
	for _, row := range rows {
		if idx >= len(row) {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(row[idx]), 64)
		if err != nil {
			continue
		}
		if count == 0 || f < minV {
			minV = f
		}
		if count == 0 || f > maxV {
			maxV = f
		}
		sum += f
		count++
	}
	if count == 0 {
		return nil
	}
	return &ValueRange{Min: minV, Max: maxV, Mean: sum / float64(count)}
}
