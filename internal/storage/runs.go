package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/windgate/tecres/internal/model"
)

// SaveRun persists one run summary with its per-file results.
func (s *SQLiteStorage) SaveRun(ctx context.Context, summary *model.RunSummary) error {
	if summary == nil {
		return fmt.Errorf("summary must not be nil")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_date, started_at, finished_at, total_files, successful, failed)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		summary.Date,
		summary.StartedAt.UTC().Format(time.RFC3339),
		summary.FinishedAt.UTC().Format(time.RFC3339),
		summary.TotalFiles,
		summary.Successful,
		summary.Failed)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to insert run: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to read run id: %w", err)
	}

	for _, f := range summary.Files {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_files (run_id, source_name, output_name, resource_id, row_count, size_kb, success, error)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, f.SourceName, nullable(f.OutputName), nullable(f.ResourceID),
			f.RowCount, f.SizeKB, f.Success, nullable(f.Error)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert run file %s: %w", f.SourceName, err)
		}
	}

	return tx.Commit()
}

// RecentRuns returns the most recent run summaries, newest first, with
// their per-file results attached.
func (s *SQLiteStorage) RecentRuns(ctx context.Context, limit int) ([]model.RunSummary, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_date, started_at, finished_at, total_files, successful, failed
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var summaries []model.RunSummary
	var ids []int64
	for rows.Next() {
		var (
			id                int64
			started, finished string
			summary           model.RunSummary
		)
		if err := rows.Scan(&id, &summary.Date, &started, &finished,
			&summary.TotalFiles, &summary.Successful, &summary.Failed); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		summary.StartedAt, _ = time.Parse(time.RFC3339, started)
		summary.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		summaries = append(summaries, summary)
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	for i, id := range ids {
		files, err := s.runFiles(ctx, id)
		if err != nil {
			return nil, err
		}
		summaries[i].Files = files
	}

	return summaries, nil
}

func (s *SQLiteStorage) runFiles(ctx context.Context, runID int64) ([]model.FileProcessingResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_name, output_name, resource_id, row_count, size_kb, success, error
		 FROM run_files WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run files: %w", err)
	}
	defer rows.Close()

	var files []model.FileProcessingResult
	for rows.Next() {
		var (
			f                         model.FileProcessingResult
			output, resource, errText sql.NullString
		)
		if err := rows.Scan(&f.SourceName, &output, &resource, &f.RowCount,
			&f.SizeKB, &f.Success, &errText); err != nil {
			return nil, fmt.Errorf("failed to scan run file: %w", err)
		}
		f.OutputName = output.String
		f.ResourceID = resource.String
		f.Error = errText.String
		files = append(files, f)
	}
	return files, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
