package services

import (
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/searchlift/internal/core/domain"
	"github.com/custodia-labs/searchlift/internal/core/ports/driven"
	"github.com/custodia-labs/searchlift/internal/logger"
)

// stageBase carries the clock and optional recorder shared by every stage.
type stageBase struct {
	stage    domain.Stage
	now      func() time.Time
	recorder driven.StageRecorder
}

func newStageBase(stage domain.Stage) stageBase {
	return stageBase{stage: stage, now: time.Now}
}

// Stage identifies the stage this runner executes.
func (b *stageBase) Stage() domain.Stage {
	return b.stage
}

// SetClock replaces the time source. Intended for tests.
func (b *stageBase) SetClock(now func() time.Time) {
	b.now = now
}

// SetRecorder attaches a recorder that observes every finished run.
func (b *stageBase) SetRecorder(r driven.StageRecorder) {
	b.recorder = r
}

// begin starts a report for a new run.
func (b *stageBase) begin() *domain.StageReport {
	logger.Section(string(b.stage))
	return &domain.StageReport{
		RunID:     uuid.NewString(),
		Stage:     b.stage,
		StartedAt: b.now(),
	}
}

// finish closes the report, notifies the recorder and passes err through.
func (b *stageBase) finish(report *domain.StageReport, err error) (*domain.StageReport, error) {
	report.EndedAt = b.now()
	if err != nil {
		logger.Debug("%s run %s failed after %s: %v", b.stage, report.RunID, report.Duration(), err)
	} else {
		logger.Debug("%s run %s finished in %s", b.stage, report.RunID, report.Duration())
	}
	if b.recorder != nil {
		b.recorder.RecordStage(report, err)
	}
	return report, err
}
