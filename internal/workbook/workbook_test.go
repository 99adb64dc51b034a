package workbook

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// writeWorkbook builds an xlsx file whose first sheet holds the given rows.
func writeWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("Failed to build cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("Failed to set sheet row: %v", err)
		}
	}

	path := filepath.Join(t.TempDir(), "fixture.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("Failed to save workbook: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Failed to close workbook: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"Datum / Uhrzeit", "Wind Speed (avg)"},
		{"2025-01-15 10:00:00", "5.2"},
		{"2025-01-15 10:10:00", "4.8"},
	})

	table, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(table.Columns) != 2 || table.Columns[0] != "Datum / Uhrzeit" {
		t.Errorf("Unexpected columns: %v", table.Columns)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(table.Rows))
	}
	if table.Rows[0][1] != "5.2" {
		t.Errorf("Unexpected cell: %q", table.Rows[0][1])
	}
}

func TestLoadPadsShortRows(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"Datum / Uhrzeit", "Wind Speed (avg)", "Anlage"},
		{"2025-01-15 10:00:00"},
	})

	table, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(table.Rows[0]) != 3 {
		t.Fatalf("Expected padded row of width 3, got %v", table.Rows[0])
	}
	if table.Rows[0][1] != "" || table.Rows[0][2] != "" {
		t.Errorf("Padding cells should be empty: %v", table.Rows[0])
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.xlsx")); err == nil {
		t.Fatal("Expected error for missing workbook")
	}
}

func TestLoadNotAWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.xlsx")
	if err := os.WriteFile(path, []byte("not a workbook"), 0o600); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Expected error for corrupt workbook")
	}
}

func TestLoadEmptySheet(t *testing.T) {
	f := excelize.NewFile()
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("Failed to save workbook: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Failed to close workbook: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("Expected error for empty sheet")
	}
}
