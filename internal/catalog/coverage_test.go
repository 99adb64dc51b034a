package catalog

import (
	"testing"

	"github.com/windgate/tecres/internal/model"
)

func TestValidateCoverage(t *testing.T) {
	cat := model.Catalog{Entries: []model.CatalogEntry{
		{Name: "A", ResourceID: "id1"},
		{Name: "B", ResourceID: "id2"},
	}}
	files := []model.CandidateFile{
		{Path: "/tmp/A_2025.xlsx", Stem: "A_2025"},
	}

	report := ValidateCoverage(cat, files)

	if report.TotalCatalogEntries != 2 || report.TotalFiles != 1 {
		t.Fatalf("Unexpected totals: %+v", report)
	}
	if len(report.CatalogWithFiles) != 1 || report.CatalogWithFiles[0].Name != "A" {
		t.Errorf("Expected catalog entry A covered, got %+v", report.CatalogWithFiles)
	}
	if len(report.CatalogWithoutFiles) != 1 || report.CatalogWithoutFiles[0].Name != "B" {
		t.Errorf("Expected catalog entry B uncovered, got %+v", report.CatalogWithoutFiles)
	}
	if len(report.FilesWithMatch) != 1 || report.FilesWithMatch[0].ResourceID != "id1" {
		t.Errorf("Expected file routed to id1, got %+v", report.FilesWithMatch)
	}
	if len(report.FilesWithoutMatch) != 0 {
		t.Errorf("Expected no unmatched files, got %+v", report.FilesWithoutMatch)
	}
}

// The catalog side is an existence check while the file side uses real
// first-match routing, so a file can cover entry B while being routed to
// entry A. This asymmetry is part of the reported behavior.
func TestValidateCoverageAsymmetry(t *testing.T) {
	cat := model.Catalog{Entries: []model.CatalogEntry{
		{Name: "Turbine1", ResourceID: "id1"},
		{Name: "Turbine10", ResourceID: "id10"},
	}}
	files := []model.CandidateFile{
		{Path: "/tmp/Turbine10_export.xlsx", Stem: "Turbine10_export"},
	}

	report := ValidateCoverage(cat, files)

	// Both entries count as covered by the single file.
	if len(report.CatalogWithFiles) != 2 {
		t.Errorf("Expected both entries covered, got %+v", report.CatalogWithFiles)
	}
	// But routing sends the file to the earlier row.
	if report.FilesWithMatch[0].ResourceID != "id1" {
		t.Errorf("Expected file routed to id1 by catalog order, got %+v", report.FilesWithMatch[0])
	}
}

func TestValidateCoverageUnmatchedFile(t *testing.T) {
	cat := model.Catalog{Entries: []model.CatalogEntry{{Name: "A", ResourceID: "id1"}}}
	files := []model.CandidateFile{{Path: "/tmp/Z.xlsx", Stem: "Z"}}

	report := ValidateCoverage(cat, files)

	if len(report.FilesWithoutMatch) != 1 || report.FilesWithoutMatch[0] != "Z" {
		t.Errorf("Expected Z unmatched, got %+v", report.FilesWithoutMatch)
	}
	if len(report.CatalogWithoutFiles) != 1 {
		t.Errorf("Expected A uncovered, got %+v", report.CatalogWithoutFiles)
	}
}
