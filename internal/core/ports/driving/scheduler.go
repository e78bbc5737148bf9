package driving

import (
	"context"

	"github.com/custodia-labs/searchlift/internal/core/domain"
)

// Scheduler runs pipeline stages as recurring background tasks.
type Scheduler interface {
	// Start begins running scheduled tasks.
	// Blocks until context is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop gracefully stops all running tasks.
	Stop() error

	// Tasks returns the current state of every scheduled task.
	Tasks(ctx context.Context) ([]domain.ScheduledTask, error)

	// History returns the newest runs of a stage task first.
	History(ctx context.Context, stage domain.Stage, limit int) ([]domain.TaskResult, error)
}
