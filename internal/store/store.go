package store

import (
	"context"

	"github.com/bcorbett503/HoopRank/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for dedup run history.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, input model.RunInput) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, summary model.RunSummary) error
	FailRun(ctx context.Context, runID string, runErr error) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Passes
	RecordPass(ctx context.Context, pass *model.PassRecord) error
	ListPasses(ctx context.Context, runID string) ([]model.PassRecord, error)

	// Reverse geocode cache
	GetCachedName(ctx context.Context, key string) (string, bool, error)
	SetCachedName(ctx context.Context, key, name string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
