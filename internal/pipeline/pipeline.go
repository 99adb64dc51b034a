// Package pipeline orchestrates one date's batch: archive resolution,
// extraction, coverage validation, per-file transformation and output
// writing, and the aggregated run summary.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/windgate/tecres/internal/archive"
	"github.com/windgate/tecres/internal/catalog"
	"github.com/windgate/tecres/internal/common"
	"github.com/windgate/tecres/internal/model"
	"github.com/windgate/tecres/internal/service"
	"github.com/windgate/tecres/internal/transform"
	"github.com/windgate/tecres/internal/workbook"
)

// DateLayout is the dd-mm-YYYY form used in folder names and filenames.
const DateLayout = "02-01-2006"

// noMatchError is the per-file error recorded for unmatched files when
// fallback naming is disabled. Downstream tooling greps for this string.
const noMatchError = "No catalog match"

// Config carries the explicit settings the pipeline needs. It is built at
// the entry point and passed in; the pipeline never consults global state.
type Config struct {
	SourceDir      string
	LocalOutputDir string
	Suffix         string
	MessageSource  string
	AllowFallback  bool
	WithMessages   bool
}

// ProgressFunc is invoked before each file is processed.
type ProgressFunc func(index, total int, name string)

// Pipeline runs the daily batch. Execution is strictly sequential: one
// archive, one file, one write at a time.
type Pipeline struct {
	catalog  model.Catalog
	loc      *time.Location
	remote   service.RemoteStore
	library  string
	runs     service.RunStore
	progress ProgressFunc
	cfg      Config
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithRemote mirrors every output into the given library of a remote store.
func WithRemote(store service.RemoteStore, library string) Option {
	return func(p *Pipeline) {
		p.remote = store
		p.library = library
	}
}

// WithRunStore persists each completed run summary.
func WithRunStore(store service.RunStore) Option {
	return func(p *Pipeline) {
		p.runs = store
	}
}

// WithProgress registers a per-file progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(p *Pipeline) {
		p.progress = fn
	}
}

// New creates a pipeline over the given catalog.
func New(cat model.Catalog, loc *time.Location, cfg Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		catalog: cat,
		loc:     loc,
		cfg:     cfg,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes one date. Folder- and archive-level failures abort the run
// and are returned as errors alongside a zeroed summary; per-file failures
// are absorbed into the summary and never abort the batch, so callers must
// inspect the Failed counter to detect partial failure.
func (p *Pipeline) Run(ctx context.Context, dateStr string) (*model.RunSummary, error) {
	summary := &model.RunSummary{
		Date:      dateStr,
		StartedAt: time.Now(),
	}

	slog.Info("Processing daily data", "date", dateStr, "source", p.cfg.SourceDir)

	dateFolder := filepath.Join(p.cfg.SourceDir, dateStr)
	if _, err := os.Stat(dateFolder); err != nil {
		summary.FinishedAt = time.Now()
		return summary, fmt.Errorf("%w: %s", common.ErrDateFolderMissing, dateFolder)
	}

	archivePath, err := archive.Find(dateFolder)
	if err != nil {
		summary.FinishedAt = time.Now()
		return summary, err
	}
	slog.Info("Found archive", "archive", filepath.Base(archivePath))

	extractDir := filepath.Join(p.cfg.LocalOutputDir, "extracted_"+dateStr)
	files, err := archive.Extract(archivePath, extractDir)
	if err != nil {
		summary.FinishedAt = time.Now()
		return summary, err
	}

	summary.TotalFiles = len(files)
	if len(files) == 0 {
		slog.Warn("No spreadsheets found in archive", "archive", filepath.Base(archivePath))
		summary.FinishedAt = time.Now()
		p.persist(ctx, summary)
		return summary, nil
	}

	// Observational only; mismatches never block processing.
	catalog.ValidateCoverage(p.catalog, files)

	localDateDir := filepath.Join(p.cfg.LocalOutputDir, dateStr)
	if err := os.MkdirAll(localDateDir, 0o750); err != nil {
		summary.FinishedAt = time.Now()
		return summary, fmt.Errorf("failed to create output folder %s: %w", localDateDir, err)
	}

	for i, f := range files {
		if p.progress != nil {
			p.progress(i, len(files), f.Stem)
		}

		result := p.processFile(ctx, f, dateStr, localDateDir)
		if result.Success {
			summary.RecordSuccess(result, filepath.Join(localDateDir, result.OutputName))
			slog.Info("Processed file",
				"source", result.SourceName,
				"output", result.OutputName,
				"tr_id", result.ResourceID,
				"rows", result.RowCount)
		} else {
			summary.RecordFailure(result)
			slog.Error("Failed to process file",
				"source", result.SourceName,
				"error", result.Error)
		}
	}

	summary.FinishedAt = time.Now()
	slog.Info("Processing summary",
		"date", dateStr,
		"total_files", summary.TotalFiles,
		"successful", summary.Successful,
		"failed", summary.Failed)

	p.persist(ctx, summary)
	return summary, nil
}

// processFile handles one extracted spreadsheet end to end. Every failure
// is converted into a failed result value; nothing escapes the per-file
// boundary.
func (p *Pipeline) processFile(ctx context.Context, f model.CandidateFile, dateStr, localDateDir string) model.FileProcessingResult {
	result := model.FileProcessingResult{
		SourceName: filepath.Base(f.Path),
	}

	match := catalog.Match(f.Stem, p.catalog)
	switch {
	case match.Matched:
		result.ResourceID = match.ResourceID
		result.OutputName = catalog.BuildFilename(match.ResourceID, dateStr, p.cfg.Suffix)
		slog.Debug("Matched file", "stem", f.Stem, "name", match.MatchedName, "tr_id", match.ResourceID)
	case p.cfg.AllowFallback:
		result.OutputName = catalog.FallbackFilename(f.Stem, dateStr)
		slog.Warn("No catalog match, using fallback name", "file", f.Stem, "output", result.OutputName)
	default:
		slog.Warn("No catalog match, skipping file", "file", f.Stem)
		result.OutputName = ""
		result.Error = noMatchError
		return result
	}

	table, err := workbook.Load(f.Path)
	if err != nil {
		result.OutputName = ""
		result.Error = err.Error()
		return result
	}

	table, err = transform.Apply(table, p.loc)
	if err != nil {
		result.OutputName = ""
		result.Error = err.Error()
		return result
	}

	if p.cfg.WithMessages {
		source := p.cfg.MessageSource
		if source == "" {
			source = "local"
		}
		table = transform.AddMessageColumns(table, source)
	}

	localPath := filepath.Join(localDateDir, result.OutputName)
	if err := transform.WriteCSV(table, localPath); err != nil {
		result.OutputName = ""
		result.Error = err.Error()
		return result
	}

	if p.remote != nil {
		remotePath := dateStr + "/" + result.OutputName
		if err := p.remote.Upload(ctx, p.library, remotePath, localPath); err != nil {
			result.OutputName = ""
			result.Error = fmt.Sprintf("mirror upload failed: %v", err)
			return result
		}
	}

	if info, err := os.Stat(localPath); err == nil {
		result.SizeKB = float64(info.Size()) / 1024
	}
	result.RowCount = len(table.Rows)
	result.Success = true
	return result
}

// persist saves the summary to the run store. Persistence is an audit
// concern: failures are logged and never affect the run outcome.
func (p *Pipeline) persist(ctx context.Context, summary *model.RunSummary) {
	if p.runs == nil {
		return
	}
	if err := p.runs.SaveRun(ctx, summary); err != nil {
		common.LogError(err, "Failed to persist run summary", common.Fields{"date": summary.Date})
	}
}
