// internal/storage/storage.go
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/clientpulse/clientpulse/internal/storage/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("storage: not found")

// Storage is the persistence boundary for the scheduling and reporting
// pipeline. Every component receives a Storage at construction; there is no
// process-wide client.
type Storage interface {
	// Scheduled tasks
	CreateTask(ctx context.Context, task *models.ScheduledTask) error
	GetTask(ctx context.Context, id string) (*models.ScheduledTask, error)
	ListActiveTasks(ctx context.Context) ([]*models.ScheduledTask, error)
	UpdateTask(ctx context.Context, task *models.ScheduledTask) error
	DeleteTask(ctx context.Context, id string) error
	TouchLastRun(ctx context.Context, id string, at time.Time) error

	// Executions
	CreateExecution(ctx context.Context, exec *models.TaskExecution) error
	CompleteExecution(ctx context.Context, id string, status string, completedAt time.Time, result []byte, errMsg string) error
	ListExecutions(ctx context.Context, taskID string, limit int) ([]*models.TaskExecution, error)

	// Reports and deliveries
	SaveReport(ctx context.Context, report *models.Report) error
	ListReports(ctx context.Context, clientID string, limit int) ([]*models.Report, error)
	SaveDelivery(ctx context.Context, delivery *models.Delivery) error

	// Clients, campaigns, metrics
	GetClient(ctx context.Context, id string) (*models.Client, error)
	ListCampaignsByClient(ctx context.Context, clientID string) ([]*models.Campaign, error)
	UpsertCampaign(ctx context.Context, campaign *models.Campaign) error
	SaveMetrics(ctx context.Context, metrics []*models.Metric) error
	QueryMetrics(ctx context.Context, campaignIDs []string, start, end time.Time) ([]*models.Metric, error)

	// Migrations
	RunMigrations() error
}
