package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/windgate/tecres/internal/common"
	"github.com/windgate/tecres/internal/model"
	"github.com/windgate/tecres/internal/remote"
	"github.com/windgate/tecres/internal/transform"
)

const testDate = "16-12-2025"

func testCatalog() model.Catalog {
	return model.Catalog{Entries: []model.CatalogEntry{
		{Name: "Rotoforst Nord", ResourceID: "D1025649750"},
		{Name: "Rotoforst Süd", ResourceID: "D1025649751"},
	}}
}

func testZone(t *testing.T) *time.Location {
	t.Helper()
	loc, err := transform.LoadZone()
	if err != nil {
		t.Fatalf("Failed to load zone: %v", err)
	}
	return loc
}

// workbookBytes builds an in-memory xlsx with one measurement sheet.
func workbookBytes(t *testing.T, rows [][]any) []byte {
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
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("Failed to serialize workbook: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Failed to close workbook: %v", err)
	}
	return buf.Bytes()
}

func measurementRows() [][]any {
	return [][]any{
		{"Datum / Uhrzeit", "Wind Speed (avg)"},
		{"2025-12-16 10:00:00", "5.2"},
		{"2025-12-16 10:10:00", "0"},
	}
}

// writeArchive drops a zip with the given members into the date folder of a
// fresh source tree and returns the source and output roots.
func writeArchive(t *testing.T, members map[string][]byte) (sourceDir, outputDir string) {
	t.Helper()

	root := t.TempDir()
	sourceDir = filepath.Join(root, "Data")
	outputDir = filepath.Join(root, "output")
	dateFolder := filepath.Join(sourceDir, testDate)
	if err := os.MkdirAll(dateFolder, 0o750); err != nil {
		t.Fatalf("Failed to create date folder: %v", err)
	}

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range members {
		member, err := w.Create(name)
		if err != nil {
			t.Fatalf("Failed to create zip member %s: %v", name, err)
		}
		if _, err := member.Write(content); err != nil {
			t.Fatalf("Failed to write zip member %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dateFolder, "export.zip"), buf.Bytes(), 0o600); err != nil {
		t.Fatalf("Failed to write archive: %v", err)
	}
	return sourceDir, outputDir
}

func testConfig(sourceDir, outputDir string) Config {
	return Config{
		SourceDir:      sourceDir,
		LocalOutputDir: outputDir,
	}
}

type fakeRunStore struct {
	saved []*model.RunSummary
	err   error
}

func (f *fakeRunStore) SaveRun(_ context.Context, s *model.RunSummary) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, s)
	return nil
}

func (f *fakeRunStore) RecentRuns(context.Context, int) ([]model.RunSummary, error) {
	return nil, nil
}

func (f *fakeRunStore) Migrate(context.Context) error { return nil }
func (f *fakeRunStore) Close() error                  { return nil }

func TestRunMatchedAndUnmatched(t *testing.T) {
	sourceDir, outputDir := writeArchive(t, map[string][]byte{
		"Rotoforst Nord Okt.xlsx": workbookBytes(t, measurementRows()),
		"Unbekannt_export.xlsx":   workbookBytes(t, measurementRows()),
	})

	p := New(testCatalog(), testZone(t), testConfig(sourceDir, outputDir))
	summary, err := p.Run(context.Background(), testDate)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.TotalFiles != 2 || summary.Successful != 1 || summary.Failed != 1 {
		t.Fatalf("Unexpected counters: total=%d ok=%d failed=%d",
			summary.TotalFiles, summary.Successful, summary.Failed)
	}

	wantOutput := filepath.Join(outputDir, testDate,
		"tecres_D1025649750_WindgeschwIstAnlage_16-12-2025.csv")
	if len(summary.ProcessedOutputPaths) != 1 || summary.ProcessedOutputPaths[0] != wantOutput {
		t.Errorf("Output paths = %v, want %s", summary.ProcessedOutputPaths, wantOutput)
	}
	if _, err := os.Stat(wantOutput); err != nil {
		t.Errorf("Output file missing: %v", err)
	}

	var failed *model.FileProcessingResult
	for i := range summary.Files {
		if !summary.Files[i].Success {
			failed = &summary.Files[i]
		}
	}
	if failed == nil {
		t.Fatal("Expected one failed result")
	}
	if failed.Error != "No catalog match" {
		t.Errorf("Failure reason = %q, want %q", failed.Error, "No catalog match")
	}
	if failed.OutputName != "" {
		t.Errorf("Failed result must not carry an output name, got %q", failed.OutputName)
	}
}

func TestRunFallbackNaming(t *testing.T) {
	sourceDir, outputDir := writeArchive(t, map[string][]byte{
		"Unbekannt_export.xlsx": workbookBytes(t, measurementRows()),
	})

	cfg := testConfig(sourceDir, outputDir)
	cfg.AllowFallback = true
	p := New(testCatalog(), testZone(t), cfg)
	summary, err := p.Run(context.Background(), testDate)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.Successful != 1 || summary.Failed != 0 {
		t.Fatalf("Unexpected counters: ok=%d failed=%d", summary.Successful, summary.Failed)
	}
	want := filepath.Join(outputDir, testDate, "Unbekannt_export_16-12-2025.csv")
	if _, err := os.Stat(want); err != nil {
		t.Errorf("Fallback output missing: %v", err)
	}
}

func TestRunOutputContent(t *testing.T) {
	sourceDir, outputDir := writeArchive(t, map[string][]byte{
		"Rotoforst Nord Okt.xlsx": workbookBytes(t, measurementRows()),
	})

	p := New(testCatalog(), testZone(t), testConfig(sourceDir, outputDir))
	if _, err := p.Run(context.Background(), testDate); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(outputDir, testDate,
		"tecres_D1025649750_WindgeschwIstAnlage_16-12-2025.csv"))
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	// December is CET, so 10:00 local is 09:00Z; the zero reading gets
	// status -1.
	want := "timestamp;value;status\n" +
		"2025-12-16T09:00:00Z;5.2;0\n" +
		"2025-12-16T09:10:00Z;0;-1\n"
	if string(raw) != want {
		t.Errorf("Output content:\n%s\nwant:\n%s", raw, want)
	}
}

func TestRunWithMessages(t *testing.T) {
	sourceDir, outputDir := writeArchive(t, map[string][]byte{
		"Rotoforst Nord Okt.xlsx": workbookBytes(t, measurementRows()),
	})

	cfg := testConfig(sourceDir, outputDir)
	cfg.WithMessages = true
	cfg.MessageSource = "scada"
	p := New(testCatalog(), testZone(t), cfg)
	if _, err := p.Run(context.Background(), testDate); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(outputDir, testDate,
		"tecres_D1025649750_WindgeschwIstAnlage_16-12-2025.csv"))
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	wantHeader := "timestamp;value;status;source;message\n"
	if !bytes.HasPrefix(raw, []byte(wantHeader)) {
		t.Errorf("Header = %q, want prefix %q", raw, wantHeader)
	}
	if !bytes.Contains(raw, []byte(";scada;Timestamp: 2025-12-16T09:00:00Z | Value: 5.2 | Status: 0")) {
		t.Errorf("Message column missing from output:\n%s", raw)
	}
}

func TestRunMissingDateFolder(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(filepath.Join(root, "Data"), filepath.Join(root, "output"))

	p := New(testCatalog(), testZone(t), cfg)
	summary, err := p.Run(context.Background(), testDate)
	if !errors.Is(err, common.ErrDateFolderMissing) {
		t.Fatalf("Expected ErrDateFolderMissing, got %v", err)
	}
	if summary.TotalFiles != 0 {
		t.Errorf("Expected zeroed summary, got %+v", summary)
	}
}

func TestRunNoValidArchive(t *testing.T) {
	root := t.TempDir()
	sourceDir := filepath.Join(root, "Data")
	if err := os.MkdirAll(filepath.Join(sourceDir, testDate), 0o750); err != nil {
		t.Fatalf("Failed to create date folder: %v", err)
	}

	p := New(testCatalog(), testZone(t), testConfig(sourceDir, filepath.Join(root, "output")))
	_, err := p.Run(context.Background(), testDate)
	if !errors.Is(err, common.ErrNoValidArchive) {
		t.Fatalf("Expected ErrNoValidArchive, got %v", err)
	}
}

func TestRunEmptyArchive(t *testing.T) {
	sourceDir, outputDir := writeArchive(t, map[string][]byte{
		"readme.txt": []byte("nothing to see"),
	})

	store := &fakeRunStore{}
	p := New(testCatalog(), testZone(t), testConfig(sourceDir, outputDir), WithRunStore(store))
	summary, err := p.Run(context.Background(), testDate)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.TotalFiles != 0 || summary.Successful != 0 || summary.Failed != 0 {
		t.Errorf("Expected empty summary, got %+v", summary)
	}
	// An empty batch still gets recorded.
	if len(store.saved) != 1 {
		t.Errorf("Expected 1 persisted run, got %d", len(store.saved))
	}
}

func TestRunCorruptWorkbookIsPerFileFailure(t *testing.T) {
	sourceDir, outputDir := writeArchive(t, map[string][]byte{
		"Rotoforst Nord Okt.xlsx": []byte("not a workbook"),
		"Rotoforst Süd Okt.xlsx":  workbookBytes(t, measurementRows()),
	})

	p := New(testCatalog(), testZone(t), testConfig(sourceDir, outputDir))
	summary, err := p.Run(context.Background(), testDate)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Successful != 1 || summary.Failed != 1 {
		t.Fatalf("Unexpected counters: ok=%d failed=%d", summary.Successful, summary.Failed)
	}
}

func TestRunMirrorsOutputs(t *testing.T) {
	sourceDir, outputDir := writeArchive(t, map[string][]byte{
		"Rotoforst Nord Okt.xlsx": workbookBytes(t, measurementRows()),
	})

	mirrorRoot := t.TempDir()
	p := New(testCatalog(), testZone(t), testConfig(sourceDir, outputDir),
		WithRemote(remote.NewLocalDir(mirrorRoot), "Processed"))
	summary, err := p.Run(context.Background(), testDate)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Successful != 1 {
		t.Fatalf("Expected 1 success, got %+v", summary)
	}

	mirrored := filepath.Join(mirrorRoot, "Processed", testDate,
		"tecres_D1025649750_WindgeschwIstAnlage_16-12-2025.csv")
	if _, err := os.Stat(mirrored); err != nil {
		t.Errorf("Mirrored output missing: %v", err)
	}
}

func TestRunPersistsSummary(t *testing.T) {
	sourceDir, outputDir := writeArchive(t, map[string][]byte{
		"Rotoforst Nord Okt.xlsx": workbookBytes(t, measurementRows()),
	})

	store := &fakeRunStore{}
	p := New(testCatalog(), testZone(t), testConfig(sourceDir, outputDir), WithRunStore(store))
	if _, err := p.Run(context.Background(), testDate); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(store.saved) != 1 {
		t.Fatalf("Expected 1 persisted run, got %d", len(store.saved))
	}
	if store.saved[0].Successful != 1 {
		t.Errorf("Persisted summary = %+v", store.saved[0])
	}
}

func TestRunPersistFailureDoesNotAbort(t *testing.T) {
	sourceDir, outputDir := writeArchive(t, map[string][]byte{
		"Rotoforst Nord Okt.xlsx": workbookBytes(t, measurementRows()),
	})

	store := &fakeRunStore{err: errors.New("disk full")}
	p := New(testCatalog(), testZone(t), testConfig(sourceDir, outputDir), WithRunStore(store))
	summary, err := p.Run(context.Background(), testDate)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Successful != 1 {
		t.Errorf("Expected processing to succeed despite persistence failure, got %+v", summary)
	}
}

func TestRunProgressCallback(t *testing.T) {
	sourceDir, outputDir := writeArchive(t, map[string][]byte{
		"Rotoforst Nord Okt.xlsx": workbookBytes(t, measurementRows()),
		"Rotoforst Süd Okt.xlsx":  workbookBytes(t, measurementRows()),
	})

	var calls int
	p := New(testCatalog(), testZone(t), testConfig(sourceDir, outputDir),
		WithProgress(func(index, total int, name string) {
			if total != 2 {
				t.Errorf("Progress total = %d, want 2", total)
			}
			calls++
		}))
	if _, err := p.Run(context.Background(), testDate); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if calls != 2 {
		t.Errorf("Progress called %d times, want 2", calls)
	}
}
