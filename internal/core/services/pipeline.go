package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/searchlift/internal/core/domain"
	"github.com/custodia-labs/searchlift/internal/core/ports/driving"
	"github.com/custodia-labs/searchlift/internal/logger"
)

// Ensure PipelineService implements the interface.
var _ driving.Pipeline = (*PipelineService)(nil)

// PipelineService dispatches stage runs. Stages share no state; they only
// communicate through the store.
type PipelineService struct {
	runners map[domain.Stage]driving.StageRunner
}

// NewPipelineService creates a pipeline from the given stage runners.
// Nil runners are ignored.
func NewPipelineService(runners ...driving.StageRunner) *PipelineService {
	p := &PipelineService{runners: make(map[domain.Stage]driving.StageRunner, len(runners))}
	for _, r := range runners {
		if r != nil {
			p.runners[r.Stage()] = r
		}
	}
	return p
}

// RunStage runs a single stage.
func (p *PipelineService) RunStage(ctx context.Context, stage domain.Stage) (*domain.StageReport, error) {
	if !stage.IsValid() {
		return nil, fmt.Errorf("%w: unknown stage %q", domain.ErrInvalidInput, stage)
	}
	runner, ok := p.runners[stage]
	if !ok {
		return nil, fmt.Errorf("%w: stage %s not configured", domain.ErrInvalidInput, stage)
	}
	return runner.Run(ctx)
}

// RunAll runs ingest, aggregate and recommend in order and stops at the
// first fatal error.
func (p *PipelineService) RunAll(ctx context.Context) ([]*domain.StageReport, error) {
	reports := make([]*domain.StageReport, 0, len(domain.Stages))
	for _, stage := range domain.Stages {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		report, err := p.RunStage(ctx, stage)
		if report != nil {
			reports = append(reports, report)
		}
		if err != nil {
			return reports, fmt.Errorf("%s: %w", stage, err)
		}
		logger.Debug("%s", report.Message())
	}
	return reports, nil
}
