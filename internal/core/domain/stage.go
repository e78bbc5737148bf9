package domain

import (
	"fmt"
	"time"
)

// Stage identifies one step of the pipeline.
type Stage string

// Pipeline stages in execution order.
const (
	StageIngest    Stage = "ingest"
	StageAggregate Stage = "aggregate"
	StageRecommend Stage = "recommend"
)

// Stages lists every stage in the order a full run executes them.
var Stages = []Stage{StageIngest, StageAggregate, StageRecommend}

// IsValid returns true if the stage is recognised.
func (s Stage) IsValid() bool {
	switch s {
	case StageIngest, StageAggregate, StageRecommend:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s Stage) String() string {
	return string(s)
}

// StageReport summarises a single stage run.
type StageReport struct {
	// RunID uniquely identifies the run.
	RunID string

	// Stage is the stage that ran.
	Stage Stage

	// StartedAt and EndedAt bound the run.
	StartedAt time.Time
	EndedAt   time.Time

	// Fetched is the number of rows or records read.
	Fetched int

	// Written is the number of records persisted.
	Written int

	// Skipped is the number of writes dropped by the dedup policy.
	Skipped int

	// Failures lists generator replies that could not be decoded.
	Failures []ParseFailure

	// NoOp is true when the stage had nothing to do.
	NoOp bool

	// Summary holds the aggregate line for the aggregate stage.
	Summary string
}

// Duration returns how long the run took.
func (r *StageReport) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// Message returns a human-readable confirmation line.
func (r *StageReport) Message() string {
	switch {
	case r.NoOp:
		return fmt.Sprintf("%s: nothing to do", r.Stage)
	case r.Stage == StageAggregate:
		return fmt.Sprintf("%s: summary written (%s)", r.Stage, r.Summary)
	case len(r.Failures) > 0:
		return fmt.Sprintf("%s: %d written, %d unparseable of %d", r.Stage, r.Written, len(r.Failures), r.Fetched)
	case r.Skipped > 0:
		return fmt.Sprintf("%s: %d written, %d skipped as duplicates of %d", r.Stage, r.Written, r.Skipped, r.Fetched)
	default:
		return fmt.Sprintf("%s: %d written of %d", r.Stage, r.Written, r.Fetched)
	}
}
