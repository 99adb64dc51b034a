// Package model defines the core domain types shared across the pipeline.
package model

// CatalogEntry maps a plant display name to its technical resource ID.
type CatalogEntry struct {
	Name       string
	ResourceID string
}

// Catalog is the ordered list of entries loaded from the catalog file.
// Order is load order and is semantically significant: matching is
// first-match-wins, so an entry earlier in the file shadows any later
// entry whose name also appears in a filename.
type Catalog struct {
	Entries []CatalogEntry
}

// Len returns the number of catalog entries.
func (c Catalog) Len() int {
	return len(c.Entries)
}

// MatchResult is the outcome of matching one filename stem against the catalog.
type MatchResult struct {
	ResourceID  string
	MatchedName string
	Matched     bool
}

// CandidateFile is a spreadsheet discovered inside an extracted archive.
// It only lives for the duration of one run.
type CandidateFile struct {
	Path string
	Stem string
}

// CoverageEntry identifies a catalog entry in a coverage report.
type CoverageEntry struct {
	Name       string
	ResourceID string
}

// FileMatch records which catalog entry a file was routed to.
type FileMatch struct {
	File        string
	ResourceID  string
	MatchedName string
}

// CoverageReport is the bidirectional catalog/file coverage check.
// It is observational only and never blocks processing.
type CoverageReport struct {
	CatalogWithFiles    []CoverageEntry
	CatalogWithoutFiles []CoverageEntry
	FilesWithMatch      []FileMatch
	FilesWithoutMatch   []string
	TotalCatalogEntries int
	TotalFiles          int
}
