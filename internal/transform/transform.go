// Package transform normalizes raw workbook tables into the canonical
// timestamp/value/status form. It is built as a pipeline of pure stages;
// each stage consumes one table value and produces the next.
package transform

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/windgate/tecres/internal/model"
)

// Source and canonical column names.
const (
	SourceTimestampColumn = "Datum / Uhrzeit"
	SourceValueColumn     = "Wind Speed (avg)"

	TimestampColumn = "timestamp"
	ValueColumn     = "value"
	StatusColumn    = "status"
	SourceColumn    = "source"
	MessageColumn   = "message"
)

// Apply runs the full transformation: column rename, timestamp
// normalization to UTC, status derivation and canonical column ordering.
func Apply(t model.Table, loc *time.Location) (model.Table, error) {
	t = RenameColumns(t)

	t, err := NormalizeTimestamps(t, loc)
	if err != nil {
		return model.Table{}, err
	}

	t, err = DeriveStatus(t)
	if err != nil {
		return model.Table{}, err
	}

	return Canonicalize(t), nil
}

// RenameColumns maps the vendor column names onto the canonical ones.
// Unrecognized columns pass through unchanged.
func RenameColumns(t model.Table) model.Table {
	out := t.Clone()
	for i, col := range out.Columns {
		switch strings.TrimSpace(col) {
		case SourceTimestampColumn:
			out.Columns[i] = TimestampColumn
		case SourceValueColumn:
			out.Columns[i] = ValueColumn
		}
	}
	return out
}

// NormalizeTimestamps parses each timestamp cell as a naive wall-clock
// time, interprets it in the given civil timezone, converts to UTC and
// formats it as ISO 8601 with a Z suffix. Unparseable cells become the
// empty missing marker rather than failing the file.
func NormalizeTimestamps(t model.Table, loc *time.Location) (model.Table, error) {
	idx := t.ColumnIndex(TimestampColumn)
	if idx < 0 {
		return model.Table{}, fmt.Errorf("missing column %q", TimestampColumn)
	}

	out := t.Clone()
	var prev time.Time
	for _, row := range out.Rows {
		naive, ok := parseNaive(strings.TrimSpace(row[idx]))
		if !ok {
			row[idx] = ""
			continue
		}
		local := resolveLocal(prev, naive, loc)
		prev = local
		row[idx] = local.UTC().Format(TimestampLayout)
	}
	return out, nil
}

// DeriveStatus appends the status column derived from the value column:
// 0 for a truthy value, -1 otherwise. A legitimate reading of exactly zero
// therefore gets -1, the same code as a missing reading. That is the
// behavior the downstream consumer has always received; see the package
// tests pinning it.
func DeriveStatus(t model.Table) (model.Table, error) {
	idx := t.ColumnIndex(ValueColumn)
	if idx < 0 {
		return model.Table{}, fmt.Errorf("missing column %q", ValueColumn)
	}

	out := t.Clone()
	out.Columns = append(out.Columns, StatusColumn)
	for i, row := range out.Rows {
		out.Rows[i] = append(row, strconv.Itoa(statusFor(row[idx])))
	}
	return out, nil
}

// statusFor classifies a raw value cell. Empty and numeric-zero values are
// falsy; everything else, including non-numeric text, is truthy.
func statusFor(value string) int {
	v := strings.TrimSpace(value)
	if v == "" {
		return -1
	}
	if f, err := strconv.ParseFloat(strings.Replace(v, ",", ".", 1), 64); err == nil && f == 0 {
		return -1
	}
	return 0
}

// Canonicalize reorders columns so timestamp, value and status come first.
// Any passthrough columns keep their relative order after the canonical
// three.
func Canonicalize(t model.Table) model.Table {
	canonical := []string{TimestampColumn, ValueColumn, StatusColumn}

	var order []int
	for _, name := range canonical {
		if idx := t.ColumnIndex(name); idx >= 0 {
			order = append(order, idx)
		}
	}
	for i, col := range t.Columns {
		isCanonical := false
		for _, name := range canonical {
			if col == name {
				isCanonical = true
				break
			}
		}
		if !isCanonical {
			order = append(order, i)
		}
	}

	out := model.Table{Columns: make([]string, len(order))}
	for i, idx := range order {
		out.Columns[i] = t.Columns[idx]
	}
	out.Rows = make([][]string, len(t.Rows))
	for r, row := range t.Rows {
		reordered := make([]string, len(order))
		for i, idx := range order {
			reordered[i] = row[idx]
		}
		out.Rows[r] = reordered
	}
	return out
}

// AddMessageColumns appends the export-variant source and message columns
// used for auditing feeds.
func AddMessageColumns(t model.Table, source string) model.Table {
	tsIdx := t.ColumnIndex(TimestampColumn)
	valIdx := t.ColumnIndex(ValueColumn)
	stIdx := t.ColumnIndex(StatusColumn)

	out := t.Clone()
	out.Columns = append(out.Columns, SourceColumn, MessageColumn)
	for i, row := range out.Rows {
		cell := func(idx int) string {
			if idx < 0 || idx >= len(row) {
				return ""
			}
			return row[idx]
		}
		message := fmt.Sprintf("Timestamp: %s | Value: %s | Status: %s",
			cell(tsIdx), cell(valIdx), cell(stIdx))
		out.Rows[i] = append(row, source, message)
	}
	return out
}

// WriteCSV writes the table as a semicolon-delimited file without an index
// column.
func WriteCSV(t model.Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	w.Comma = ';'

	if err := w.Write(t.Columns); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write header to %s: %w", path, err)
	}
	for _, row := range t.Rows {
		if err := w.Write(row); err != nil {
			_ = f.Close()
			return fmt.Errorf("failed to write row to %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	return f.Close()
}
