// internal/scheduler/scheduler.go
// Package scheduler owns the cron engine, the live task registry and the
// execution lifecycle around every task firing.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/clientpulse/clientpulse/internal/storage"
	"github.com/clientpulse/clientpulse/internal/storage/models"
)

const taskLockTTL = 10 * time.Second

// Scheduler maps persisted ScheduledTask rows onto live cron entries and
// drives each firing through the tracker and the kind's handler.
type Scheduler struct {
	mu       sync.Mutex
	cron     *cron.Cron
	parser   cron.Parser
	entries  map[string]cron.EntryID
	inFlight map[string]bool
	handlers map[models.TaskKind]Handler

	store   storage.Storage
	tracker *Tracker
	rdb     *redis.Client // optional cross-process firing lock
	logger  *zap.Logger
}

func NewScheduler(store storage.Storage, tracker *Tracker, loc *time.Location, logger *zap.Logger) *Scheduler {
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc), cron.WithParser(parser)),
		parser:   parser,
		entries:  make(map[string]cron.EntryID),
		inFlight: make(map[string]bool),
		handlers: make(map[models.TaskKind]Handler),
		store:    store,
		tracker:  tracker,
		logger:   logger.Named("scheduler"),
	}
}

// WithLock enables a redis lock so that only one process fires a given task
// at a time. Without it the in-process overrun guard still applies.
func (s *Scheduler) WithLock(rdb *redis.Client) *Scheduler {
	s.rdb = rdb
	return s
}

// RegisterHandler binds a handler to a task kind. Later registrations for
// the same kind replace earlier ones.
func (s *Scheduler) RegisterHandler(kind models.TaskKind, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[kind] = h
}

// Start begins firing registered tasks.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started", zap.Int("tasks", len(s.entries)))
}

// Stop halts the cron engine and waits for in-flight firings to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Register adds or replaces the live cron entry for a task. The expression
// is validated here so a bad schedule never reaches the engine.
func (s *Scheduler) Register(task *models.ScheduledTask) error {
	if !task.IsActive {
		return fmt.Errorf("%w: %s", ErrInactiveTask, task.ID)
	}
	if _, err := s.parser.Parse(task.CronExpression); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidSchedule, task.CronExpression, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.entries[task.ID]; ok {
		s.cron.Remove(id)
	}

	snapshot := *task
	id, err := s.cron.AddFunc(task.CronExpression, func() {
		s.Execute(context.Background(), &snapshot)
	})
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidSchedule, task.CronExpression, err)
	}
	s.entries[task.ID] = id

	s.logger.Info("Task registered",
		zap.String("task_id", task.ID),
		zap.String("name", task.Name),
		zap.String("kind", string(task.Kind)),
		zap.String("cron", task.CronExpression))

	return nil
}

// Unregister removes a task's cron entry. Unknown ids are a no-op.
func (s *Scheduler) Unregister(taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.entries[taskID]
	if !ok {
		return
	}
	s.cron.Remove(id)
	delete(s.entries, taskID)

	s.logger.Info("Task unregistered", zap.String("task_id", taskID))
}

// Reload reconciles the live entry set against the active tasks in storage:
// new tasks are registered, changed ones re-registered, stale ones removed.
// Tasks that fail to register are logged and skipped so one bad row never
// blocks the rest.
func (s *Scheduler) Reload(ctx context.Context) error {
	tasks, err := s.store.ListActiveTasks(ctx)
	if err != nil {
		return fmt.Errorf("list active tasks: %w", err)
	}

	seen := make(map[string]bool, len(tasks))
	for _, task := range tasks {
		seen[task.ID] = true
		if err := s.Register(task); err != nil {
			s.logger.Warn("Skipping task on reload",
				zap.String("task_id", task.ID),
				zap.String("name", task.Name),
				zap.Error(err))
		}
	}

	s.mu.Lock()
	var stale []string
	for id := range s.entries {
		if !seen[id] {
			stale = append(stale, id)
		}
	}
	s.mu.Unlock()

	for _, id := range stale {
		s.Unregister(id)
	}

	s.logger.Info("Schedule reloaded",
		zap.Int("active", len(tasks)),
		zap.Int("removed", len(stale)))

	return nil
}

// Execute runs one firing of a task end to end: overrun guard, execution
// record, handler dispatch, completion. Handler panics are contained and
// recorded as failures.
func (s *Scheduler) Execute(ctx context.Context, task *models.ScheduledTask) {
	if !s.acquire(ctx, task.ID) {
		s.logger.Warn("Skipping firing, previous run still in progress",
			zap.String("task_id", task.ID),
			zap.String("name", task.Name))
		return
	}
	defer s.release(ctx, task.ID)

	startedAt := time.Now().UTC()
	log := s.logger.With(
		zap.String("task_id", task.ID),
		zap.String("name", task.Name),
		zap.String("kind", string(task.Kind)))

	handle, err := s.tracker.Begin(ctx, task.ID, startedAt)
	if err != nil {
		log.Error("Could not record execution start", zap.Error(err))
		return
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("Handler panicked", zap.Any("panic", r))
			if err := s.tracker.Fail(ctx, handle, fmt.Errorf("panic: %v", r)); err != nil {
				log.Error("Could not record panic", zap.Error(err))
			}
		}
	}()

	s.mu.Lock()
	handler, ok := s.handlers[task.Kind]
	s.mu.Unlock()
	if !ok {
		err := fmt.Errorf("no handler for task kind %q", task.Kind)
		log.Error("Firing aborted", zap.Error(err))
		if ferr := s.tracker.Fail(ctx, handle, err); ferr != nil {
			log.Error("Could not record failure", zap.Error(ferr))
		}
		return
	}

	result, err := handler.Run(ctx, task)
	if err != nil {
		log.Error("Task failed",
			zap.Duration("duration", time.Since(startedAt)),
			zap.Error(err))
		if ferr := s.tracker.Fail(ctx, handle, err); ferr != nil {
			log.Error("Could not record failure", zap.Error(ferr))
		}
		return
	}

	if cerr := s.tracker.Complete(ctx, handle, result); cerr != nil {
		log.Error("Could not record completion", zap.Error(cerr))
		return
	}

	if terr := s.store.TouchLastRun(ctx, task.ID, startedAt); terr != nil {
		log.Warn("Could not update last run", zap.Error(terr))
	}

	log.Info("Task completed", zap.Duration("duration", time.Since(startedAt)))
}

func (s *Scheduler) acquire(ctx context.Context, taskID string) bool {
	s.mu.Lock()
	if s.inFlight[taskID] {
		s.mu.Unlock()
		return false
	}
	s.inFlight[taskID] = true
	s.mu.Unlock()

	if s.rdb != nil {
		ok, err := s.rdb.SetNX(ctx, lockKey(taskID), 1, taskLockTTL).Result()
		if err != nil {
			// Lock service being down must not stop the schedule.
			s.logger.Warn("Task lock unavailable, proceeding",
				zap.String("task_id", taskID),
				zap.Error(err))
			return true
		}
		if !ok {
			s.mu.Lock()
			delete(s.inFlight, taskID)
			s.mu.Unlock()
			return false
		}
	}
	return true
}

func (s *Scheduler) release(ctx context.Context, taskID string) {
	if s.rdb != nil {
		if err := s.rdb.Del(ctx, lockKey(taskID)).Err(); err != nil {
			s.logger.Warn("Could not release task lock",
				zap.String("task_id", taskID),
				zap.Error(err))
		}
	}
	s.mu.Lock()
	delete(s.inFlight, taskID)
	s.mu.Unlock()
}

func lockKey(taskID string) string {
	return "clientpulse:task_lock:" + taskID
}

// CreateTask validates, persists and registers a new task in one step.
func (s *Scheduler) CreateTask(ctx context.Context, task *models.ScheduledTask) error {
	if !models.ValidKind(task.Kind) {
		return fmt.Errorf("unknown task kind %q", task.Kind)
	}
	if _, err := s.parser.Parse(task.CronExpression); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidSchedule, task.CronExpression, err)
	}

	if err := s.store.CreateTask(ctx, task); err != nil {
		return fmt.Errorf("persist task: %w", err)
	}
	if task.IsActive {
		return s.Register(task)
	}
	return nil
}

// UpdateTask persists changes and reconciles the live entry: activation
// registers, deactivation unregisters, a new expression re-registers.
func (s *Scheduler) UpdateTask(ctx context.Context, task *models.ScheduledTask) error {
	if !models.ValidKind(task.Kind) {
		return fmt.Errorf("unknown task kind %q", task.Kind)
	}
	if _, err := s.parser.Parse(task.CronExpression); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidSchedule, task.CronExpression, err)
	}

	if err := s.store.UpdateTask(ctx, task); err != nil {
		return fmt.Errorf("persist task: %w", err)
	}
	if task.IsActive {
		return s.Register(task)
	}
	s.Unregister(task.ID)
	return nil
}

// DeleteTask removes the task from storage and from the live schedule.
// Past execution history stays.
func (s *Scheduler) DeleteTask(ctx context.Context, taskID string) error {
	if err := s.store.DeleteTask(ctx, taskID); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	s.Unregister(taskID)
	return nil
}
