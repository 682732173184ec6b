// Package store persists the run ledger: one record per pass over an input
// table, one record per checked row. The ledger is bookkeeping only — the
// table file itself is the source of truth for row statuses.
package store

import (
	"context"

	"github.com/sells-group/awardcheck/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
}

// Store defines the persistence interface for the run ledger.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, inputPath, outputPath, column string, totalRows int) (*model.Run, error)
	FinishRun(ctx context.Context, runID string, status model.RunStatus, processed, found int) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Row results
	RecordRow(ctx context.Context, runID string, row model.RowResult) error
	ListRowResults(ctx context.Context, runID string) ([]model.RowResult, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
