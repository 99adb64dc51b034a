// Package service defines the interfaces between the pipeline core and its
// collaborators.
package service

import (
	"context"

	"github.com/windgate/tecres/internal/model"
)

// RemoteStore is the document-library style store outputs are mirrored to.
// The core only needs these three operations; transfer failures surface as
// opaque errors and are never retried here.
type RemoteStore interface {
	Download(ctx context.Context, library, relativePath, localPath string) error
	Upload(ctx context.Context, library, relativePath, localPath string) error
	List(ctx context.Context, library, folder string) ([]string, error)
}

// RunStore persists run summaries for the history audit trail.
type RunStore interface {
	SaveRun(ctx context.Context, summary *model.RunSummary) error
	RecentRuns(ctx context.Context, limit int) ([]model.RunSummary, error)
	Migrate(ctx context.Context) error
	Close() error
}
