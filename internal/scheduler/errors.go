// internal/scheduler/errors.go
package scheduler

import "errors"

var (
	// ErrInvalidSchedule is returned when a cron expression fails to parse.
	// Rejected at registration time, never at fire time.
	ErrInvalidSchedule = errors.New("scheduler: invalid cron expression")

	// ErrDoubleCompletion means Complete or Fail was called twice on the
	// same execution handle; a programming error, not an operational one.
	ErrDoubleCompletion = errors.New("scheduler: execution already completed")

	// ErrInactiveTask is returned when registering a task whose active flag
	// is off.
	ErrInactiveTask = errors.New("scheduler: task is not active")
)
