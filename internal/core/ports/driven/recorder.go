package driven

import "github.com/custodia-labs/searchlift/internal/core/domain"

// StageRecorder receives a report for every finished stage run.
type StageRecorder interface {
	// RecordStage observes a completed run. err is the fatal error, if any.
	RecordStage(report *domain.StageReport, err error)
}
