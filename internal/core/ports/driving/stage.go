package driving

import (
	"context"

	"github.com/custodia-labs/searchlift/internal/core/domain"
)

// StageRunner runs one pipeline stage to completion.
type StageRunner interface {
	// Stage identifies the stage this runner executes.
	Stage() domain.Stage

	// Run executes the stage once. A non-nil report is returned even on a
	// fatal error so callers can see partial progress.
	Run(ctx context.Context) (*domain.StageReport, error)
}

// Pipeline runs stages by name or in sequence.
type Pipeline interface {
	// RunStage runs a single stage.
	RunStage(ctx context.Context, stage domain.Stage) (*domain.StageReport, error)

	// RunAll runs every stage in order and stops at the first fatal error.
	// Reports for every attempted stage are returned.
	RunAll(ctx context.Context) ([]*domain.StageReport, error)
}
