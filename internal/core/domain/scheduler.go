package domain

import "time"

// ScheduledTask is the persisted state of one recurring stage. Its ID is
// the stage name.
type ScheduledTask struct {
	ID       string
	Name     string
	Interval time.Duration
	Enabled  bool

	LastRun     time.Time
	LastSuccess time.Time
	NextRun     time.Time
	LastError   string // empty after a successful run
}

// Due reports whether an enabled task should run at now.
func (t ScheduledTask) Due(now time.Time) bool {
	return t.Enabled && !t.NextRun.After(now)
}

// TaskResult records one scheduled run. RunID links it to the StageReport
// the run produced.
type TaskResult struct {
	TaskID    string
	RunID     string
	StartedAt time.Time
	EndedAt   time.Time
	Success   bool
	Error     string

	// ItemsProcessed counts records written. ItemsSkipped counts dedup
	// skips plus items that failed individually.
	ItemsProcessed int
	ItemsSkipped   int
}

// Duration is the wall time of the run.
func (r TaskResult) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// TaskConfig is the configured schedule of one stage.
type TaskConfig struct {
	Enabled  bool
	Interval time.Duration
}

// SchedulerConfig is the master switch plus per-stage schedules keyed by
// stage name.
type SchedulerConfig struct {
	Enabled     bool
	TaskConfigs map[string]TaskConfig
}

// GetTaskConfig returns the schedule for a stage, or the zero value.
func (c *SchedulerConfig) GetTaskConfig(taskID string) TaskConfig {
	return c.TaskConfigs[taskID]
}

// DefaultSchedulerConfig ingests and recommends daily and summarises weekly.
func DefaultSchedulerConfig() SchedulerConfig {
	const day = 24 * time.Hour
	return SchedulerConfig{
		Enabled: true,
		TaskConfigs: map[string]TaskConfig{
			string(StageIngest):    {Enabled: true, Interval: day},
			string(StageAggregate): {Enabled: true, Interval: 7 * day},
			string(StageRecommend): {Enabled: true, Interval: day},
		},
	}
}
