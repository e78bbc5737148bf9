package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/searchlift/internal/core/domain"
	"github.com/custodia-labs/searchlift/internal/core/ports/driven"
	"github.com/custodia-labs/searchlift/internal/core/ports/driving"
	"github.com/custodia-labs/searchlift/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// historyKeep is how many results are retained per task.
const historyKeep = 100

// Scheduler repeats pipeline stages on their configured intervals. Task
// state lives in the store so a restart resumes where it left off.
type Scheduler struct {
	config  domain.SchedulerConfig
	store   driven.SchedulerStore
	runners map[string]driving.StageRunner
	every   time.Duration
	clock   func() time.Time

	mu   sync.Mutex
	stop chan struct{} // non-nil while started
	busy map[string]bool
	runs sync.WaitGroup
}

// NewScheduler registers each runner as the task named after its stage.
// Nil runners are ignored.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	runners ...driving.StageRunner,
) *Scheduler {
	s := &Scheduler{
		config:  config,
		store:   store,
		runners: make(map[string]driving.StageRunner, len(runners)),
		every:   time.Minute,
		clock:   time.Now,
		busy:    make(map[string]bool),
	}
	for _, r := range runners {
		if r != nil {
			s.runners[string(r.Stage())] = r
		}
	}
	return s
}

// Start syncs task state with the configured stages and checks for due
// tasks every minute. It blocks until Stop or ctx is done. Calling Start
// on a started scheduler returns nil at once.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.stop != nil {
		s.mu.Unlock()
		return nil
	}
	stop := make(chan struct{})
	s.stop = stop
	s.mu.Unlock()

	if !s.config.Enabled {
		logger.Warn("scheduler: disabled by configuration")
	}
	if err := s.syncTasks(ctx); err != nil {
		logger.Error("scheduler: syncing tasks: %v", err)
	}

	ticker := time.NewTicker(s.every)
	defer ticker.Stop()
	for {
		s.runDue(ctx)
		select {
		case <-ctx.Done():
			s.runs.Wait()
			return ctx.Err()
		case <-stop:
			return nil
		case <-ticker.C:
		}
	}
}

// Stop ends the loop and waits for in-flight runs to record their results.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if s.stop == nil {
		s.mu.Unlock()
		return nil
	}
	close(s.stop)
	s.stop = nil
	s.mu.Unlock()

	s.runs.Wait()
	return nil
}

// Tasks returns the stored task state in pipeline order.
func (s *Scheduler) Tasks(ctx context.Context) ([]domain.ScheduledTask, error) {
	tasks, err := s.store.AllTasks(ctx)
	if err != nil {
		return nil, err
	}
	order := make(map[string]int, len(domain.Stages))
	for i, st := range domain.Stages {
		order[string(st)] = i
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		return order[tasks[i].ID] < order[tasks[j].ID]
	})
	return tasks, nil
}

// History returns up to limit runs of a stage, newest first.
// A non-positive limit returns the full retained history.
func (s *Scheduler) History(ctx context.Context, stage domain.Stage, limit int) ([]domain.TaskResult, error) {
	if !stage.IsValid() {
		return nil, fmt.Errorf("%w: unknown stage %q", domain.ErrInvalidInput, stage)
	}
	if limit <= 0 {
		limit = historyKeep
	}
	return s.store.History(ctx, string(stage), limit)
}

// syncTasks creates or updates a task per registered runner and deletes
// tasks no runner claims.
func (s *Scheduler) syncTasks(ctx context.Context) error {
	for _, stage := range domain.Stages {
		id := string(stage)
		if _, ok := s.runners[id]; !ok {
			continue
		}
		cfg := s.config.GetTaskConfig(id)
		cfg.Enabled = cfg.Enabled && s.config.Enabled
		if err := s.upsertTask(ctx, id, "Pipeline stage: "+id, cfg); err != nil {
			return err
		}
	}

	stored, err := s.store.AllTasks(ctx)
	if err != nil {
		return err
	}
	for _, task := range stored {
		if _, ok := s.runners[task.ID]; ok {
			continue
		}
		logger.Info("scheduler: dropping task %s, no stage by that name", task.ID)
		if err := s.store.DeleteTask(ctx, task.ID); err != nil {
			return err
		}
	}
	return nil
}

// upsertTask applies cfg to a stored task. A new task is due at once; a
// changed interval restarts the countdown from now.
func (s *Scheduler) upsertTask(ctx context.Context, id, name string, cfg domain.TaskConfig) error {
	task, err := s.store.Task(ctx, id)
	if err != nil {
		return err
	}
	now := s.clock()
	switch {
	case task == nil:
		task = &domain.ScheduledTask{ID: id, Name: name, Interval: cfg.Interval, NextRun: now}
	case task.Interval != cfg.Interval:
		task.Interval = cfg.Interval
		task.NextRun = now.Add(cfg.Interval)
	}
	task.Enabled = cfg.Enabled
	return s.store.PutTask(ctx, task)
}

// runDue launches every task whose next run has arrived.
func (s *Scheduler) runDue(ctx context.Context) {
	tasks, err := s.store.AllTasks(ctx)
	if err != nil {
		logger.Error("scheduler: listing tasks: %v", err)
		return
	}
	now := s.clock()
	for _, task := range tasks {
		if task.Due(now) {
			s.launch(ctx, task)
		}
	}
}

// launch runs task in the background unless it is already running.
func (s *Scheduler) launch(ctx context.Context, task domain.ScheduledTask) {
	runner, ok := s.runners[task.ID]
	if !ok {
		logger.Warn("scheduler: no stage for task %s", task.ID)
		return
	}

	s.mu.Lock()
	if s.busy[task.ID] {
		s.mu.Unlock()
		logger.Debug("scheduler: %s still running, skipping tick", task.ID)
		return
	}
	s.busy[task.ID] = true
	s.mu.Unlock()

	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		s.execute(ctx, runner, task)

		s.mu.Lock()
		delete(s.busy, task.ID)
		s.mu.Unlock()
	}()
}

// execute runs the stage once and records the outcome.
func (s *Scheduler) execute(ctx context.Context, runner driving.StageRunner, task domain.ScheduledTask) {
	result := domain.TaskResult{TaskID: task.ID, StartedAt: s.clock()}
	report, err := runner.Run(ctx)
	result.EndedAt = s.clock()

	if report != nil {
		result.RunID = report.RunID
		result.ItemsProcessed = report.Written
		result.ItemsSkipped = report.Skipped + len(report.Failures)
	}
	if err != nil {
		result.Error = err.Error()
		logger.Error("scheduler: %s failed: %v", task.ID, err)
	} else {
		result.Success = true
		task.LastSuccess = result.EndedAt
		logger.Info("scheduler: %s", report.Message())
	}

	task.LastRun = result.StartedAt
	task.LastError = result.Error
	task.NextRun = result.EndedAt.Add(task.Interval)

	// A cancelled run is still recorded.
	s.record(context.WithoutCancel(ctx), &task, &result)
}

func (s *Scheduler) record(ctx context.Context, task *domain.ScheduledTask, result *domain.TaskResult) {
	if err := s.store.PutTask(ctx, task); err != nil {
		logger.Error("scheduler: saving task %s: %v", task.ID, err)
	}
	if err := s.store.AppendResult(ctx, result); err != nil {
		logger.Error("scheduler: recording %s run: %v", task.ID, err)
	}
	if err := s.store.TrimHistory(ctx, historyKeep); err != nil {
		logger.Error("scheduler: trimming history: %v", err)
	}
}
