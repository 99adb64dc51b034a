package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/windgate/tecres/internal/config"
	"github.com/windgate/tecres/internal/storage"
)

func runsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent processing runs from the history store",
		RunE:  runRuns,
	}

	cmd.Flags().Int("limit", 10, "maximum number of runs to show")

	return cmd
}

func runRuns(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store, err := openRunStore(cmd.Context(), cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	limit, _ := cmd.Flags().GetInt("limit")
	summaries, err := store.RecentRuns(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("failed to load run history: %w", err)
	}

	if len(summaries) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}

	for _, s := range summaries {
		fmt.Printf("%s  files: %d  ok: %d  failed: %d  (%s)\n",
			s.Date, s.TotalFiles, s.Successful, s.Failed,
			s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond))
		for _, f := range s.Files {
			if f.Success {
				fmt.Printf("    + %s -> %s (%d rows)\n", f.SourceName, f.OutputName, f.RowCount)
			} else {
				fmt.Printf("    ! %s: %s\n", f.SourceName, f.Error)
			}
		}
	}

	return nil
}

func openRunStore(ctx context.Context, dbPath string) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}
