package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/windgate/tecres/internal/catalog"
	"github.com/windgate/tecres/internal/config"
	"github.com/windgate/tecres/internal/pipeline"
	"github.com/windgate/tecres/internal/remote"
	"github.com/windgate/tecres/internal/service"
	"github.com/windgate/tecres/internal/transform"
	"github.com/windgate/tecres/internal/verify"
)

func processCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Process one date's archive of measurement extracts",
		Long: `Resolve the archive for the processing date, extract it, match each
spreadsheet against the catalog, normalize and write canonical CSV files to
every configured destination, and report the run summary.

A run that fails at the folder or archive level exits non-zero. Per-file
failures never abort the batch; inspect the summary's failed count.`,
		RunE: runProcess,
	}

	cmd.Flags().String("date", "", "processing date as dd-mm-YYYY (default: today)")
	cmd.Flags().Bool("allow-fallback", false, "process unmatched files under a fallback name instead of skipping them")
	cmd.Flags().Bool("with-messages", false, "append source and message audit columns to outputs")
	cmd.Flags().Bool("local-only", false, "skip the mirrored destination, write locally only")

	_ = viper.BindPFlag("processing.allow_fallback", cmd.Flags().Lookup("allow-fallback"))
	_ = viper.BindPFlag("processing.with_messages", cmd.Flags().Lookup("with-messages"))

	return cmd
}

func runProcess(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if localOnly, _ := cmd.Flags().GetBool("local-only"); localOnly {
		cfg.MirrorEnabled = false
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

	loc, err := transform.LoadZone()
	if err != nil {
		return fmt.Errorf("failed to load timezone: %w", err)
	}

	opts := []pipeline.Option{pipeline.WithProgress(newProgress())}

	if cfg.MirrorEnabled {
		opts = append(opts, pipeline.WithRemote(remote.NewLocalDir(cfg.OutputDir), cfg.MirrorLibrary))
	}

	var store service.RunStore
	if sqlStore, storeErr := openRunStore(cmd.Context(), cfg.DatabasePath); storeErr != nil {
		slog.Warn("Run history unavailable", "error", storeErr)
	} else {
		store = sqlStore
		defer func() { _ = store.Close() }()
		opts = append(opts, pipeline.WithRunStore(store))
	}

	p := pipeline.New(cat, loc, pipeline.Config{
		SourceDir:      cfg.SourceDir,
		LocalOutputDir: cfg.LocalOutputDir,
		Suffix:         cfg.Suffix,
		AllowFallback:  cfg.AllowFallback,
		WithMessages:   cfg.WithMessages,
	}, opts...)

	summary, err := p.Run(cmd.Context(), dateStr)
	if err != nil {
		return err
	}

	fmt.Printf("\nProcessed %d/%d files for %s", summary.Successful, summary.TotalFiles, summary.Date)
	if summary.Failed > 0 {
		fmt.Printf(" (%d failed)", summary.Failed)
	}
	fmt.Println()

	if len(summary.ProcessedOutputPaths) > 0 {
		agg := verify.Summarize(summary.ProcessedOutputPaths)
		fmt.Printf("Output: %d rows across %d files (%.2f MB)\n",
			agg.TotalRows, len(agg.Files), agg.TotalSizeMB)

		sample := verify.File(summary.ProcessedOutputPaths[0])
		if sample.Valid {
			slog.Info("Validation passed", "file", sample.File, "rows", sample.Rows)
		} else {
			slog.Warn("Validation issues", "file", sample.File, "error", sample.Error)
		}
	} else {
		slog.Warn("No files were processed")
	}

	return nil
}

func newProgress() pipeline.ProgressFunc {
	var bar *progressbar.ProgressBar
	return func(_, total int, _ string) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription("Processing files..."),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(os.Stderr)
				}))
		}
		_ = bar.Add(1)
	}
}
