package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/searchlift/internal/core/domain"
	"github.com/custodia-labs/searchlift/internal/core/ports/driven"
)

var _ driven.SchedulerStore = (*schedulerStore)(nil)

// schedulerStore keeps task state in scheduled_tasks and one row per run
// in task_results.
type schedulerStore struct {
	store *Store
}

const (
	selectTasks = `SELECT id, name, interval_seconds, enabled, last_run, last_success, next_run, last_error
		FROM scheduled_tasks`

	upsertTask = `INSERT INTO scheduled_tasks
			(id, name, interval_seconds, enabled, last_run, last_success, next_run, last_error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			interval_seconds = excluded.interval_seconds,
			enabled = excluded.enabled,
			last_run = excluded.last_run,
			last_success = excluded.last_success,
			next_run = excluded.next_run,
			last_error = excluded.last_error`

	insertResult = `INSERT INTO task_results
			(task_id, run_id, started_at, ended_at, success, error, items_processed, items_skipped)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	selectHistory = `SELECT task_id, run_id, started_at, ended_at, success, error, items_processed, items_skipped
		FROM task_results
		WHERE task_id = ?
		ORDER BY started_at DESC, id DESC
		LIMIT ?`

	// Ranks runs per task newest first and drops everything past keep.
	trimHistory = `DELETE FROM task_results WHERE id IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (
					PARTITION BY task_id ORDER BY started_at DESC, id DESC
				) AS pos
				FROM task_results
			) WHERE pos > ?
		)`
)

// Task returns nil, nil for an unknown id.
func (s *schedulerStore) Task(ctx context.Context, id string) (*domain.ScheduledTask, error) {
	task, err := scanTask(s.store.db.QueryRowContext(ctx, selectTasks+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // absent task is not an error
	}
	if err != nil {
		return nil, fmt.Errorf("loading task %s: %w", id, err)
	}
	return &task, nil
}

func (s *schedulerStore) AllTasks(ctx context.Context) ([]domain.ScheduledTask, error) {
	rows, err := s.store.db.QueryContext(ctx, selectTasks+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	return collect(rows, scanTask)
}

func (s *schedulerStore) PutTask(ctx context.Context, task *domain.ScheduledTask) error {
	if task == nil {
		return domain.ErrInvalidInput
	}
	_, err := s.store.db.ExecContext(ctx, upsertTask,
		task.ID, task.Name, int64(task.Interval/time.Second), boolToInt(task.Enabled),
		sqlTime(task.LastRun), sqlTime(task.LastSuccess), sqlTime(task.NextRun),
		nullString(task.LastError))
	if err != nil {
		return fmt.Errorf("saving task %s: %w", task.ID, err)
	}
	return nil
}

// DeleteTask removes the task row. Its results are left for TrimHistory.
func (s *schedulerStore) DeleteTask(ctx context.Context, id string) error {
	if _, err := s.store.db.ExecContext(ctx, `DELETE FROM scheduled_tasks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting task %s: %w", id, err)
	}
	return nil
}

func (s *schedulerStore) AppendResult(ctx context.Context, r *domain.TaskResult) error {
	if r == nil {
		return domain.ErrInvalidInput
	}
	_, err := s.store.db.ExecContext(ctx, insertResult,
		r.TaskID, nullString(r.RunID), sqlTime(r.StartedAt), sqlTime(r.EndedAt),
		boolToInt(r.Success), nullString(r.Error), r.ItemsProcessed, r.ItemsSkipped)
	if err != nil {
		return fmt.Errorf("recording %s run: %w", r.TaskID, err)
	}
	return nil
}

// History returns up to limit runs of a task, newest first.
func (s *schedulerStore) History(ctx context.Context, id string, limit int) ([]domain.TaskResult, error) {
	rows, err := s.store.db.QueryContext(ctx, selectHistory, id, limit)
	if err != nil {
		return nil, fmt.Errorf("reading %s history: %w", id, err)
	}
	return collect(rows, scanResult)
}

// TrimHistory keeps the newest keep runs of each task.
func (s *schedulerStore) TrimHistory(ctx context.Context, keep int) error {
	if _, err := s.store.db.ExecContext(ctx, trimHistory, keep); err != nil {
		return fmt.Errorf("trimming run history: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (domain.ScheduledTask, error) {
	var (
		t         domain.ScheduledTask
		seconds   int64
		lastError sql.NullString
		lastRun   sqlTime
		lastOK    sqlTime
		nextRun   sqlTime
	)
	err := row.Scan(&t.ID, &t.Name, &seconds, &t.Enabled, &lastRun, &lastOK, &nextRun, &lastError)
	if err != nil {
		return t, err
	}
	t.Interval = time.Duration(seconds) * time.Second
	t.LastRun, t.LastSuccess, t.NextRun = time.Time(lastRun), time.Time(lastOK), time.Time(nextRun)
	t.LastError = lastError.String
	return t, nil
}

func scanResult(row scanner) (domain.TaskResult, error) {
	var (
		r       domain.TaskResult
		runID   sql.NullString
		errText sql.NullString
		started sqlTime
		ended   sqlTime
	)
	err := row.Scan(&r.TaskID, &runID, &started, &ended, &r.Success, &errText, &r.ItemsProcessed, &r.ItemsSkipped)
	if err != nil {
		return r, err
	}
	r.RunID, r.Error = runID.String, errText.String
	r.StartedAt, r.EndedAt = time.Time(started), time.Time(ended)
	return r, nil
}

// collect drains rows through scan and closes them.
func collect[T any](rows *sql.Rows, scan func(scanner) (T, error)) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// sqlTime is an RFC 3339 TEXT column where NULL is the zero time.
// Unparseable text also reads as the zero time.
type sqlTime time.Time

func (t sqlTime) Value() (driver.Value, error) {
	if time.Time(t).IsZero() {
		return nil, nil
	}
	return time.Time(t).UTC().Format(time.RFC3339), nil
}

func (t *sqlTime) Scan(src any) error {
	var text string
	switch v := src.(type) {
	case nil:
		*t = sqlTime{}
		return nil
	case time.Time:
		*t = sqlTime(v)
		return nil
	case string:
		text = v
	case []byte:
		text = string(v)
	default:
		return fmt.Errorf("sqlTime: cannot scan %T", src)
	}
	parsed, err := time.Parse(time.RFC3339, text)
	if err != nil {
		parsed = time.Time{}
	}
	*t = sqlTime(parsed)
	return nil
}

// nullString stores "" as NULL.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
