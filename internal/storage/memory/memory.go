// internal/storage/memory/memory.go
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clientpulse/clientpulse/internal/storage"
	"github.com/clientpulse/clientpulse/internal/storage/models"
)

// Storage is an in-memory storage.Storage used by tests and local runs
// without a database.
type Storage struct {
	mu         sync.RWMutex
	tasks      map[string]*models.ScheduledTask
	executions map[string]*models.TaskExecution
	reports    []*models.Report
	deliveries []*models.Delivery
	clients    map[string]*models.Client
	campaigns  map[string]*models.Campaign
	metrics    []*models.Metric
	nextMetric uint
}

func New() *Storage {
	return &Storage{
		tasks:      make(map[string]*models.ScheduledTask),
		executions: make(map[string]*models.TaskExecution),
		clients:    make(map[string]*models.Client),
		campaigns:  make(map[string]*models.Campaign),
	}
}

func (s *Storage) RunMigrations() error { return nil }

func (s *Storage) CreateTask(_ context.Context, task *models.ScheduledTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	task.CreatedAt = time.Now().UTC()
	task.UpdatedAt = task.CreatedAt
	copied := *task
	s.tasks[task.ID] = &copied
	return nil
}

func (s *Storage) GetTask(_ context.Context, id string) (*models.ScheduledTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *task
	return &copied, nil
}

func (s *Storage) ListActiveTasks(_ context.Context) ([]*models.ScheduledTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var tasks []*models.ScheduledTask
	for _, task := range s.tasks {
		if task.IsActive {
			copied := *task
			tasks = append(tasks, &copied)
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].CreatedAt.Before(tasks[j].CreatedAt) })
	return tasks, nil
}

func (s *Storage) UpdateTask(_ context.Context, task *models.ScheduledTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[task.ID]; !ok {
		return storage.ErrNotFound
	}
	task.UpdatedAt = time.Now().UTC()
	copied := *task
	s.tasks[task.ID] = &copied
	return nil
}

func (s *Storage) DeleteTask(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, id)
	return nil
}

func (s *Storage) TouchLastRun(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return storage.ErrNotFound
	}
	task.LastRun = &at
	return nil
}

func (s *Storage) CreateExecution(_ context.Context, exec *models.TaskExecution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if exec.ID == "" {
		exec.ID = uuid.New().String()
	}
	copied := *exec
	s.executions[exec.ID] = &copied
	return nil
}

func (s *Storage) CompleteExecution(_ context.Context, id string, status string, completedAt time.Time, result []byte, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	exec, ok := s.executions[id]
	if !ok {
		return storage.ErrNotFound
	}
	exec.Status = status
	exec.CompletedAt = &completedAt
	exec.Result = result
	exec.Error = errMsg
	return nil
}

func (s *Storage) ListExecutions(_ context.Context, taskID string, limit int) ([]*models.TaskExecution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var execs []*models.TaskExecution
	for _, exec := range s.executions {
		if exec.TaskID == taskID {
			copied := *exec
			execs = append(execs, &copied)
		}
	}
	sort.Slice(execs, func(i, j int) bool { return execs[i].StartedAt.After(execs[j].StartedAt) })
	if limit > 0 && len(execs) > limit {
		execs = execs[:limit]
	}
	return execs, nil
}

func (s *Storage) SaveReport(_ context.Context, report *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if report.ID == "" {
		report.ID = uuid.New().String()
	}
	report.CreatedAt = time.Now().UTC()
	copied := *report
	s.reports = append(s.reports, &copied)
	return nil
}

func (s *Storage) ListReports(_ context.Context, clientID string, limit int) ([]*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var reports []*models.Report
	for _, report := range s.reports {
		if report.ClientID == clientID {
			copied := *report
			reports = append(reports, &copied)
		}
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].CreatedAt.After(reports[j].CreatedAt) })
	if limit > 0 && len(reports) > limit {
		reports = reports[:limit]
	}
	return reports, nil
}

func (s *Storage) SaveDelivery(_ context.Context, delivery *models.Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if delivery.ID == "" {
		delivery.ID = uuid.New().String()
	}
	copied := *delivery
	s.deliveries = append(s.deliveries, &copied)
	return nil
}

// Deliveries returns all recorded deliveries; test helper.
func (s *Storage) Deliveries() []*models.Delivery {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Delivery, len(s.deliveries))
	copy(out, s.deliveries)
	return out
}

// Reports returns all stored report snapshots; test helper.
func (s *Storage) Reports() []*models.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Report, len(s.reports))
	copy(out, s.reports)
	return out
}

func (s *Storage) GetClient(_ context.Context, id string) (*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	client, ok := s.clients[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *client
	return &copied, nil
}

// AddClient seeds a client row; test helper.
func (s *Storage) AddClient(client *models.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if client.ID == "" {
		client.ID = uuid.New().String()
	}
	copied := *client
	s.clients[client.ID] = &copied
}

func (s *Storage) ListCampaignsByClient(_ context.Context, clientID string) ([]*models.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var campaigns []*models.Campaign
	for _, campaign := range s.campaigns {
		if campaign.ClientID == clientID {
			copied := *campaign
			campaigns = append(campaigns, &copied)
		}
	}
	sort.Slice(campaigns, func(i, j int) bool { return campaigns[i].CreatedAt.Before(campaigns[j].CreatedAt) })
	return campaigns, nil
}

func (s *Storage) UpsertCampaign(_ context.Context, campaign *models.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if campaign.ID == "" {
		campaign.ID = uuid.New().String()
	}
	if existing, ok := s.campaigns[campaign.ID]; ok {
		campaign.CreatedAt = existing.CreatedAt
	} else if campaign.CreatedAt.IsZero() {
		campaign.CreatedAt = time.Now().UTC()
	}
	campaign.UpdatedAt = time.Now().UTC()
	copied := *campaign
	s.campaigns[campaign.ID] = &copied
	return nil
}

func (s *Storage) SaveMetrics(_ context.Context, metrics []*models.Metric) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, metric := range metrics {
		s.nextMetric++
		copied := *metric
		copied.ID = s.nextMetric
		s.metrics = append(s.metrics, &copied)
	}
	return nil
}

func (s *Storage) QueryMetrics(_ context.Context, campaignIDs []string, start, end time.Time) ([]*models.Metric, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wanted := make(map[string]bool, len(campaignIDs))
	for _, id := range campaignIDs {
		wanted[id] = true
	}
	var metrics []*models.Metric
	for _, metric := range s.metrics {
		if !wanted[metric.CampaignID] {
			continue
		}
		if metric.Date.Before(start) || metric.Date.After(end) {
			continue
		}
		copied := *metric
		metrics = append(metrics, &copied)
	}
	return metrics, nil
}
