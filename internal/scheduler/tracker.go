// internal/scheduler/tracker.go
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clientpulse/clientpulse/internal/storage"
	"github.com/clientpulse/clientpulse/internal/storage/models"
)

// Tracker brackets every task execution with durable before/after records.
type Tracker struct {
	store  storage.Storage
	logger *zap.Logger
}

func NewTracker(store storage.Storage, logger *zap.Logger) *Tracker {
	return &Tracker{
		store:  store,
		logger: logger.Named("execution_tracker"),
	}
}

// Handle closes exactly one execution. Completing a handle twice is a
// programming error surfaced as ErrDoubleCompletion.
type Handle struct {
	mu          sync.Mutex
	done        bool
	executionID string
	taskID      string
	startedAt   time.Time
}

// ExecutionID returns the id of the tracked execution record.
func (h *Handle) ExecutionID() string { return h.executionID }

func (h *Handle) markDone() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done {
		return fmt.Errorf("%w: execution %s", ErrDoubleCompletion, h.executionID)
	}
	h.done = true
	return nil
}

// Begin creates a running execution record before the handler runs, so a
// crash mid-handler leaves a visible "running" row for inspection.
func (t *Tracker) Begin(ctx context.Context, taskID string, startedAt time.Time) (*Handle, error) {
	exec := &models.TaskExecution{
		ID:        uuid.New().String(),
		TaskID:    taskID,
		Status:    models.ExecutionRunning,
		StartedAt: startedAt,
	}
	if err := t.store.CreateExecution(ctx, exec); err != nil {
		return nil, fmt.Errorf("create execution record: %w", err)
	}

	t.logger.Debug("Execution started",
		zap.String("execution_id", exec.ID),
		zap.String("task_id", taskID))

	return &Handle{
		executionID: exec.ID,
		taskID:      taskID,
		startedAt:   startedAt,
	}, nil
}

// Complete transitions the execution to succeeded with the handler's result
// payload.
func (t *Tracker) Complete(ctx context.Context, h *Handle, result interface{}) error {
	if err := h.markDone(); err != nil {
		return err
	}

	var payload []byte
	if result != nil {
		var err error
		payload, err = json.Marshal(result)
		if err != nil {
			return fmt.Errorf("marshal execution result: %w", err)
		}
	}

	if err := t.store.CompleteExecution(ctx, h.executionID, models.ExecutionSucceeded, time.Now().UTC(), payload, ""); err != nil {
		return fmt.Errorf("complete execution: %w", err)
	}

	return nil
}

// Fail transitions the execution to failed with the error description.
func (t *Tracker) Fail(ctx context.Context, h *Handle, cause error) error {
	if err := h.markDone(); err != nil {
		return err
	}

	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}

	if err := t.store.CompleteExecution(ctx, h.executionID, models.ExecutionFailed, time.Now().UTC(), nil, msg); err != nil {
		return fmt.Errorf("fail execution: %w", err)
	}

	return nil
}

// History returns the most recent executions for a task, most-recent-first.
func (t *Tracker) History(ctx context.Context, taskID string, limit int) ([]*models.TaskExecution, error) {
	return t.store.ListExecutions(ctx, taskID, limit)
}
