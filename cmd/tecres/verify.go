package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/windgate/tecres/internal/config"
	"github.com/windgate/tecres/internal/verify"
)

func verifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify [files...]",
		Short: "Recompute quality metrics over written output files",
		Long: `Verify output CSV files: row and column counts, missing values,
duplicate rows, inferred column types, status distribution and the
timestamp format heuristic. With --date, all outputs of that date's local
run are verified.`,
		RunE: runVerify,
	}

	cmd.Flags().String("date", "", "verify all outputs of this date (dd-mm-YYYY)")

	return cmd
}

func runVerify(cmd *cobra.Command, args []string) error {
	paths := args

	if dateStr, _ := cmd.Flags().GetString("date"); dateStr != "" {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		matches, err := filepath.Glob(filepath.Join(cfg.LocalOutputDir, dateStr, "*.csv"))
		if err != nil {
			return fmt.Errorf("failed to list outputs for %s: %w", dateStr, err)
		}
		paths = append(paths, matches...)
	}

	if len(paths) == 0 {
		return fmt.Errorf("no files to verify")
	}

	invalid := 0
	for _, path := range paths {
		report := verify.File(path)
		printReport(report)
		if !report.Valid {
			invalid++
		}
	}

	agg := verify.Summarize(paths)
	fmt.Printf("\nTotal: %d files, %d rows, %.2f MB\n",
		agg.TotalFiles, agg.TotalRows, agg.TotalSizeMB)

	if invalid > 0 {
		return fmt.Errorf("%d of %d files failed verification", invalid, len(paths))
	}
	return nil
}

func printReport(r verify.Report) {
	fmt.Printf("\n%s\n", r.File)
	if !r.Exists {
		fmt.Println("  missing")
		return
	}
	if !r.Valid {
		fmt.Printf("  invalid: %s\n", r.Error)
		return
	}

	fmt.Printf("  rows: %d, columns: %d, completeness: %.2f%%\n", r.Rows, r.Columns, r.CompletenessPct)
	fmt.Printf("  missing values: %d, duplicate rows: %d\n", r.MissingValues, r.DuplicateRows)
	if len(r.StatusDistribution) > 0 {
		fmt.Printf("  status distribution: %v\n", r.StatusDistribution)
	}
	if r.TimestampFormat != "" {
		fmt.Printf("  timestamp format: %s\n", r.TimestampFormat)
	}
	if r.ValueRange != nil {
		fmt.Printf("  value range: min %.2f, max %.2f, mean %.2f\n",
			r.ValueRange.Min, r.ValueRange.Max, r.ValueRange.Mean)
	}
}
