// internal/storage/models/task.go
package models

import "time"

// TaskKind selects which handler runs a scheduled task.
type TaskKind string

const (
	KindReport TaskKind = "report"
	KindSync   TaskKind = "sync"
	KindAlert  TaskKind = "alert"
	KindBackup TaskKind = "backup"
)

// ValidKind reports whether k names a known task handler.
func ValidKind(k TaskKind) bool {
	switch k {
	case KindReport, KindSync, KindAlert, KindBackup:
		return true
	}
	return false
}

// ScheduledTask is a recurring job definition. Config is a kind-specific
// JSON payload decoded only by the matching handler.
type ScheduledTask struct {
	BaseModel
	Name           string     `gorm:"not null;type:varchar(200)"`
	CronExpression string     `gorm:"not null;type:varchar(100)"`
	Kind           TaskKind   `gorm:"not null;type:varchar(20)"`
	Config         []byte     `gorm:"type:jsonb"`
	IsActive       bool       `gorm:"default:true;index"`
	LastRun        *time.Time
}

// Execution statuses.
const (
	ExecutionRunning   = "running"
	ExecutionSucceeded = "succeeded"
	ExecutionFailed    = "failed"
)

// TaskExecution records one firing of a ScheduledTask. Rows are written once
// at trigger time and mutated exactly once to a terminal status; the
// pipeline never deletes them.
type TaskExecution struct {
	ID          string     `gorm:"primarykey;type:varchar(36)"`
	TaskID      string     `gorm:"index;not null;type:varchar(36)"`
	Status      string     `gorm:"not null;type:varchar(20)"`
	StartedAt   time.Time  `gorm:"index;not null"`
	CompletedAt *time.Time
	Result      []byte `gorm:"type:jsonb"`
	Error       string `gorm:"type:text"`
}
