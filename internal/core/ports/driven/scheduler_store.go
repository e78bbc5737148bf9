package driven

import (
	"context"

	"github.com/custodia-labs/searchlift/internal/core/domain"
)

// SchedulerStore keeps stage task state and run history across restarts.
type SchedulerStore interface {
	// Task returns the task with id, or nil without error when absent.
	Task(ctx context.Context, id string) (*domain.ScheduledTask, error)

	// AllTasks returns every stored task.
	AllTasks(ctx context.Context) ([]domain.ScheduledTask, error)

	// PutTask inserts or replaces a task by ID.
	PutTask(ctx context.Context, task *domain.ScheduledTask) error

	// DeleteTask removes a task. Its history is kept.
	DeleteTask(ctx context.Context, id string) error

	// AppendResult adds one run to the history.
	AppendResult(ctx context.Context, result *domain.TaskResult) error

	// History returns up to limit runs of a task, newest first.
	History(ctx context.Context, id string, limit int) ([]domain.TaskResult, error)

	// TrimHistory drops all but the newest keep runs of each task.
	TrimHistory(ctx context.Context, keep int) error
}
