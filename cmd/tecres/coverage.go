package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/windgate/tecres/internal/archive"
	"github.com/windgate/tecres/internal/catalog"
	"github.com/windgate/tecres/internal/config"
	"github.com/windgate/tecres/internal/pipeline"
)

func coverageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coverage",
		Short: "Audit catalog coverage for a date's archive without writing outputs",
		Long: `Extract the archive for the given date and report which catalog entries
have a matching file and which files have no catalog match. Nothing is
transformed or written; the extraction directory is reused.`,
		RunE: runCoverage,
	}

	cmd.Flags().String("date", "", "processing date as dd-mm-YYYY (default: today)")

	return cmd
}

func runCoverage(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	dateStr, _ := cmd.Flags().GetString("date")
	if dateStr == "" {
		dateStr = cfg.ProcessDate
	}
	if dateStr == "" {
		dateStr = time.Now().Format(pipeline.DateLayout)
	}

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	dateFolder := filepath.Join(cfg.SourceDir, dateStr)
	archivePath, err := archive.Find(dateFolder)
	if err != nil {
		return err
	}

	extractDir := filepath.Join(cfg.LocalOutputDir, "extracted_"+dateStr)
	files, err := archive.Extract(archivePath, extractDir)
	if err != nil {
		return err
	}

	report := catalog.ValidateCoverage(cat, files)

	fmt.Printf("Catalog entries: %d (with files: %d, without: %d)\n",
		report.TotalCatalogEntries,
		len(report.CatalogWithFiles),
		len(report.CatalogWithoutFiles))
	fmt.Printf("Data files: %d (matched: %d, unmatched: %d)\n",
		report.TotalFiles,
		len(report.FilesWithMatch),
		len(report.FilesWithoutMatch))

	if len(report.CatalogWithoutFiles) > 0 {
		fmt.Println("\nCatalog entries without a file:")
		for _, entry := range report.CatalogWithoutFiles {
			fmt.Printf("  - %s (%s)\n", entry.Name, entry.ResourceID)
		}
	}
	if len(report.FilesWithoutMatch) > 0 {
		fmt.Println("\nFiles without a catalog match:")
		for _, file := range report.FilesWithoutMatch {
			fmt.Printf("  - %s\n", file)
		}
	}

	return nil
}
