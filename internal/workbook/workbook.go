// Package workbook loads vendor spreadsheets into tabular form.
package workbook

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/windgate/tecres/internal/model"
)

// Load reads the first sheet of an xlsx workbook into a Table. The first
// row is the header; shorter data rows are padded so every row has one
// cell per column. Legacy .xls members cannot be decoded and surface as a
// per-file load error upstream.
func Load(path string) (model.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return model.Table{}, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return model.Table{}, fmt.Errorf("workbook %s has no sheets", path)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return model.Table{}, fmt.Errorf("failed to read sheet %q of %s: %w", sheet, path, err)
	}
	if len(rows) == 0 {
		return model.Table{}, fmt.Errorf("workbook %s sheet %q is empty", path, sheet)
	}

	table := model.Table{Columns: rows[0]}
	width := len(table.Columns)
	for _, row := range rows[1:] {
		padded := make([]string, width)
		copy(padded, row)
		table.Rows = append(table.Rows, padded)
	}
	return table, nil
}
