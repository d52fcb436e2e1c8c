package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clientpulse/clientpulse/internal/storage/memory"
	"github.com/clientpulse/clientpulse/internal/storage/models"
)

func newTestScheduler(t *testing.T) (*Scheduler, *memory.Storage) {
	t.Helper()
	store := memory.New()
	tracker := NewTracker(store, zap.NewNop())
	return NewScheduler(store, tracker, time.UTC, zap.NewNop()), store
}

func testTask(id, expr string, kind models.TaskKind) *models.ScheduledTask {
	cfg, _ := json.Marshal(map[string]interface{}{})
	return &models.ScheduledTask{
		BaseModel:      models.BaseModel{ID: id},
		Name:           "task-" + id,
		CronExpression: expr,
		Kind:           kind,
		Config:         cfg,
		IsActive:       true,
	}
}

// handlerFunc adapts a closure to the Handler interface.
type handlerFunc func(ctx context.Context, task *models.ScheduledTask) (interface{}, error)

func (f handlerFunc) Run(ctx context.Context, task *models.ScheduledTask) (interface{}, error) {
	return f(ctx, task)
}

func TestRegisterInvalidCronExpression(t *testing.T) {
	sched, _ := newTestScheduler(t)

	err := sched.Register(testTask("t1", "not-a-cron", models.KindReport))
	assert.ErrorIs(t, err, ErrInvalidSchedule)
	assert.Empty(t, sched.entries, "a rejected task must not enter the live set")
}

func TestRegisterAcceptsOptionalSecondsField(t *testing.T) {
	sched, _ := newTestScheduler(t)

	require.NoError(t, sched.Register(testTask("t5", "0 9 * * 1", models.KindReport)))
	require.NoError(t, sched.Register(testTask("t6", "0 0 9 * * 1", models.KindReport)))

	assert.Len(t, sched.entries, 2)
}

func TestRegisterInactiveTask(t *testing.T) {
	sched, _ := newTestScheduler(t)

	task := testTask("t1", "0 9 * * 1", models.KindReport)
	task.IsActive = false

	assert.ErrorIs(t, sched.Register(task), ErrInactiveTask)
}

func TestRegisterReplacesExistingEntry(t *testing.T) {
	sched, _ := newTestScheduler(t)

	task := testTask("t1", "0 9 * * 1", models.KindReport)
	require.NoError(t, sched.Register(task))
	first := sched.entries["t1"]

	task.CronExpression = "30 8 * * *"
	require.NoError(t, sched.Register(task))

	assert.Len(t, sched.entries, 1)
	assert.NotEqual(t, first, sched.entries["t1"])
}

func TestUnregisterUnknownTaskIsNoOp(t *testing.T) {
	sched, _ := newTestScheduler(t)
	sched.Unregister("never-registered")
	assert.Empty(t, sched.entries)
}

func TestReloadReconcilesLiveSet(t *testing.T) {
	sched, store := newTestScheduler(t)
	ctx := context.Background()

	// A stale entry not present in storage plus a fresh one that is.
	require.NoError(t, sched.Register(testTask("stale", "0 9 * * 1", models.KindReport)))
	require.NoError(t, store.CreateTask(ctx, testTask("fresh", "0 3 * * *", models.KindSync)))

	require.NoError(t, sched.Reload(ctx))

	assert.Contains(t, sched.entries, "fresh")
	assert.NotContains(t, sched.entries, "stale")
}

func TestReloadSkipsInvalidTasks(t *testing.T) {
	sched, store := newTestScheduler(t)
	ctx := context.Background()

	require.NoError(t, store.CreateTask(ctx, testTask("good", "0 3 * * *", models.KindSync)))
	require.NoError(t, store.CreateTask(ctx, testTask("bad", "***", models.KindSync)))

	require.NoError(t, sched.Reload(ctx), "one bad row must not fail the reload")
	assert.Contains(t, sched.entries, "good")
	assert.NotContains(t, sched.entries, "bad")
}

func TestExecuteRecordsSuccess(t *testing.T) {
	sched, store := newTestScheduler(t)
	ctx := context.Background()

	sched.RegisterHandler(models.KindReport, handlerFunc(func(ctx context.Context, task *models.ScheduledTask) (interface{}, error) {
		return map[string]string{"ok": "yes"}, nil
	}))

	task := testTask("t1", "0 9 * * 1", models.KindReport)
	require.NoError(t, store.CreateTask(ctx, task))

	sched.Execute(ctx, task)

	execs, err := store.ListExecutions(ctx, "t1", 10)
	require.NoError(t, err)
	require.Len(t, execs, 1)
	assert.Equal(t, models.ExecutionSucceeded, execs[0].Status)

	stored, err := store.GetTask(ctx, "t1")
	require.NoError(t, err)
	assert.NotNil(t, stored.LastRun, "last run is touched on success")
}

func TestExecuteRecordsHandlerFailure(t *testing.T) {
	sched, store := newTestScheduler(t)
	ctx := context.Background()

	sched.RegisterHandler(models.KindSync, handlerFunc(func(ctx context.Context, task *models.ScheduledTask) (interface{}, error) {
		return nil, errors.New("upstream 503")
	}))

	task := testTask("t1", "0 3 * * *", models.KindSync)
	require.NoError(t, store.CreateTask(ctx, task))

	sched.Execute(ctx, task)

	execs, err := store.ListExecutions(ctx, "t1", 10)
	require.NoError(t, err)
	require.Len(t, execs, 1)
	assert.Equal(t, models.ExecutionFailed, execs[0].Status)
	assert.Contains(t, execs[0].Error, "upstream 503")

	stored, err := store.GetTask(ctx, "t1")
	require.NoError(t, err)
	assert.Nil(t, stored.LastRun, "last run is not touched on failure")
}

func TestExecuteUnknownKindFails(t *testing.T) {
	sched, store := newTestScheduler(t)
	ctx := context.Background()

	task := testTask("t1", "0 3 * * *", models.KindBackup)
	require.NoError(t, store.CreateTask(ctx, task))

	sched.Execute(ctx, task)

	execs, err := store.ListExecutions(ctx, "t1", 10)
	require.NoError(t, err)
	require.Len(t, execs, 1)
	assert.Equal(t, models.ExecutionFailed, execs[0].Status)
	assert.Contains(t, execs[0].Error, "no handler")
}

func TestExecuteContainsHandlerPanic(t *testing.T) {
	sched, store := newTestScheduler(t)
	ctx := context.Background()

	sched.RegisterHandler(models.KindAlert, handlerFunc(func(ctx context.Context, task *models.ScheduledTask) (interface{}, error) {
		panic("nil map write")
	}))

	task := testTask("t1", "0 * * * *", models.KindAlert)
	require.NoError(t, store.CreateTask(ctx, task))

	assert.NotPanics(t, func() { sched.Execute(ctx, task) })

	execs, err := store.ListExecutions(ctx, "t1", 10)
	require.NoError(t, err)
	require.Len(t, execs, 1)
	assert.Equal(t, models.ExecutionFailed, execs[0].Status)
	assert.Contains(t, execs[0].Error, "panic")
}

func TestExecuteSkipsOverlappingFiring(t *testing.T) {
	sched, store := newTestScheduler(t)
	ctx := context.Background()

	block := make(chan struct{})
	started := make(chan struct{})
	sched.RegisterHandler(models.KindSync, handlerFunc(func(ctx context.Context, task *models.ScheduledTask) (interface{}, error) {
		close(started)
		<-block
		return nil, nil
	}))

	task := testTask("t1", "* * * * *", models.KindSync)
	require.NoError(t, store.CreateTask(ctx, task))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sched.Execute(ctx, task)
	}()

	<-started
	// Second firing while the first is still running must be dropped.
	sched.Execute(ctx, task)
	close(block)
	wg.Wait()

	execs, err := store.ListExecutions(ctx, "t1", 10)
	require.NoError(t, err)
	assert.Len(t, execs, 1, "the overlapping firing must not create an execution")
}

func TestCreateTaskValidatesBeforePersisting(t *testing.T) {
	sched, store := newTestScheduler(t)
	ctx := context.Background()

	err := sched.CreateTask(ctx, testTask("t1", "nope", models.KindReport))
	assert.ErrorIs(t, err, ErrInvalidSchedule)

	tasks, err := store.ListActiveTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks, "invalid tasks must not reach storage")
}

func TestCreateTaskRejectsUnknownKind(t *testing.T) {
	sched, _ := newTestScheduler(t)

	err := sched.CreateTask(context.Background(), testTask("t1", "0 9 * * 1", models.TaskKind("cleanup")))
	assert.Error(t, err)
}

func TestUpdateTaskDeactivationUnregisters(t *testing.T) {
	sched, store := newTestScheduler(t)
	ctx := context.Background()

	task := testTask("t1", "0 9 * * 1", models.KindReport)
	require.NoError(t, sched.CreateTask(ctx, task))
	require.Contains(t, sched.entries, "t1")

	task.IsActive = false
	require.NoError(t, sched.UpdateTask(ctx, task))

	assert.NotContains(t, sched.entries, "t1")

	stored, err := store.GetTask(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
}

func TestDeleteTaskKeepsExecutionHistory(t *testing.T) {
	sched, store := newTestScheduler(t)
	ctx := context.Background()

	task := testTask("t1", "0 9 * * 1", models.KindReport)
	require.NoError(t, sched.CreateTask(ctx, task))

	sched.RegisterHandler(models.KindReport, handlerFunc(func(ctx context.Context, task *models.ScheduledTask) (interface{}, error) {
		return nil, nil
	}))
	sched.Execute(ctx, task)

	require.NoError(t, sched.DeleteTask(ctx, "t1"))
	assert.NotContains(t, sched.entries, "t1")

	_, err := store.GetTask(ctx, "t1")
	assert.Error(t, err)

	execs, err := store.ListExecutions(ctx, "t1", 10)
	require.NoError(t, err)
	assert.Len(t, execs, 1, "history survives task deletion")
}
