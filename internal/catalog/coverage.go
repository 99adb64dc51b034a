package catalog

import (
	"log/slog"
	"strings"

	"github.com/windgate/tecres/internal/model"
)

// ValidateCoverage performs the bidirectional catalog/file coverage check.
//
// The catalog side is an existence check only: an entry counts as covered
// when any file stem contains its name, even if first-match routing would
// send that file to a different entry. The file side applies the real
// Match semantics. The asymmetry is intentional and mirrors how coverage
// has always been reported; changing it would silently alter the audit
// trail operators compare across days.
//
// Coverage is purely observational. It never fails and never influences
// the per-file success counters.
func ValidateCoverage(cat model.Catalog, files []model.CandidateFile) model.CoverageReport {
	report := model.CoverageReport{
		TotalCatalogEntries: cat.Len(),
		TotalFiles:          len(files),
	}

	for _, entry := range cat.Entries {
		hasFile := false
		for _, f := range files {
			if strings.Contains(f.Stem, entry.Name) {
				hasFile = true
				break
			}
		}
		ce := model.CoverageEntry{Name: entry.Name, ResourceID: entry.ResourceID}
		if hasFile {
			report.CatalogWithFiles = append(report.CatalogWithFiles, ce)
		} else {
			report.CatalogWithoutFiles = append(report.CatalogWithoutFiles, ce)
		}
	}

	for _, f := range files {
		match := Match(f.Stem, cat)
		if match.Matched {
			report.FilesWithMatch = append(report.FilesWithMatch, model.FileMatch{
				File:        f.Stem,
				ResourceID:  match.ResourceID,
				MatchedName: match.MatchedName,
			})
		} else {
			report.FilesWithoutMatch = append(report.FilesWithoutMatch, f.Stem)
		}
	}

	logCoverage(report)
	return report
}

func logCoverage(report model.CoverageReport) {
	slog.Info("Catalog coverage",
		"catalog_entries", report.TotalCatalogEntries,
		"catalog_with_files", len(report.CatalogWithFiles),
		"catalog_without_files", len(report.CatalogWithoutFiles),
		"files", report.TotalFiles,
		"files_with_match", len(report.FilesWithMatch),
		"files_without_match", len(report.FilesWithoutMatch))

	for _, entry := range report.CatalogWithoutFiles {
		slog.Warn("Catalog entry without file", "name", entry.Name, "tr_id", entry.ResourceID)
	}
	for _, file := range report.FilesWithoutMatch {
		slog.Warn("File without catalog match", "file", file)
	}
}
