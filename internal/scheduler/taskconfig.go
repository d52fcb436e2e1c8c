// internal/scheduler/taskconfig.go
package scheduler

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/clientpulse/clientpulse/internal/report"
)

// Task configs form a tagged union keyed by task kind: the scheduler never
// inspects them, each handler decodes its own shape.

type ReportTaskConfig struct {
	ClientID  string        `json:"client_id"`
	Period    report.Period `json:"period"`
	StartDate *time.Time    `json:"start_date,omitempty"`
	EndDate   *time.Time    `json:"end_date,omitempty"`
	SendChat  bool          `json:"send_chat"`
	SendEmail bool          `json:"send_email"`
}

type SyncTaskConfig struct {
	Connector    string `json:"connector"`
	AccountID    string `json:"account_id"`
	ClientID     string `json:"client_id"`
	LookbackDays int    `json:"lookback_days,omitempty"`
}

type AlertThresholds struct {
	MaxSpend float64 `json:"max_spend,omitempty"`
	MaxCPC   float64 `json:"max_cpc,omitempty"`
}

type AlertTaskConfig struct {
	ClientID   string           `json:"client_id"`
	Kind       report.AlertKind `json:"alert_kind"`
	Thresholds AlertThresholds  `json:"thresholds"`
}

type BackupTaskConfig struct {
	Target string `json:"target,omitempty"`
}

func decodeConfig(raw []byte, v interface{}) error {
	if len(raw) == 0 {
		return fmt.Errorf("task config is empty")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode task config: %w", err)
	}
	return nil
}
