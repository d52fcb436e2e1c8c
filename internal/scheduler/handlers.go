// internal/scheduler/handlers.go
package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/clientpulse/clientpulse/internal/connector"
	"github.com/clientpulse/clientpulse/internal/dispatch"
	"github.com/clientpulse/clientpulse/internal/report"
	"github.com/clientpulse/clientpulse/internal/storage"
	"github.com/clientpulse/clientpulse/internal/storage/models"
)

// Handler runs one kind of scheduled task. The returned payload is stored
// on the execution record as-is.
type Handler interface {
	Run(ctx context.Context, task *models.ScheduledTask) (interface{}, error)
}

// ---- report ----

// ReportResult is the report handler's execution payload. Delivery failures
// land in the error fields; report computation is the primary success
// criterion, so they never fail the execution.
type ReportResult struct {
	ReportID   string `json:"report_id"`
	Generated  bool   `json:"generated"`
	ChatSent   bool   `json:"chat_sent,omitempty"`
	ChatError  string `json:"chat_error,omitempty"`
	EmailSent  bool   `json:"email_sent,omitempty"`
	EmailError string `json:"email_error,omitempty"`
}

type ReportHandler struct {
	store      storage.Storage
	generator  *report.Generator
	dispatcher *dispatch.Dispatcher
	logger     *zap.Logger
}

func NewReportHandler(store storage.Storage, generator *report.Generator, dispatcher *dispatch.Dispatcher, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		store:      store,
		generator:  generator,
		dispatcher: dispatcher,
		logger:     logger.Named("report_handler"),
	}
}

func (h *ReportHandler) Run(ctx context.Context, task *models.ScheduledTask) (interface{}, error) {
	var cfg ReportTaskConfig
	if err := decodeConfig(task.Config, &cfg); err != nil {
		return nil, err
	}

	rep, err := h.generator.Generate(ctx, cfg.ClientID, cfg.Period, cfg.StartDate, cfg.EndDate)
	if err != nil {
		return nil, fmt.Errorf("generate report: %w", err)
	}

	result := &ReportResult{ReportID: rep.ID, Generated: true}

	if !cfg.SendChat && !cfg.SendEmail {
		return result, nil
	}

	client, err := h.store.GetClient(ctx, cfg.ClientID)
	if err != nil {
		msg := fmt.Sprintf("load client: %v", err)
		if cfg.SendChat {
			result.ChatError = msg
		}
		if cfg.SendEmail {
			result.EmailError = msg
		}
		return result, nil
	}

	if cfg.SendChat {
		if client.WhatsAppNumber == "" {
			result.ChatError = "client has no whatsapp number"
		} else if outcome := h.dispatcher.Dispatch(ctx, rep, dispatch.ChannelWhatsApp, client.WhatsAppNumber); outcome.Err != nil {
			result.ChatError = outcome.Err.Error()
		} else {
			result.ChatSent = true
		}
	}

	if cfg.SendEmail {
		if client.Email == "" {
			result.EmailError = "client has no email address"
		} else if outcome := h.dispatcher.Dispatch(ctx, rep, dispatch.ChannelEmail, client.Email); outcome.Err != nil {
			result.EmailError = outcome.Err.Error()
		} else {
			result.EmailSent = true
		}
	}

	return result, nil
}

// ---- sync ----

// SyncResult is the sync handler's execution payload.
type SyncResult struct {
	Connector       string    `json:"connector"`
	AccountID       string    `json:"account_id"`
	CampaignsSynced int       `json:"campaigns_synced"`
	MetricsSynced   int64     `json:"metrics_synced"`
	SyncedAt        time.Time `json:"synced_at"`
}

type SyncHandler struct {
	registry     *connector.Registry
	store        storage.Storage
	concurrency  int
	lookbackDays int
	logger       *zap.Logger
	now          func() time.Time
}

func NewSyncHandler(registry *connector.Registry, store storage.Storage, concurrency, lookbackDays int, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{
		registry:     registry,
		store:        store,
		concurrency:  concurrency,
		lookbackDays: lookbackDays,
		logger:       logger.Named("sync_handler"),
		now:          time.Now,
	}
}

func (h *SyncHandler) Run(ctx context.Context, task *models.ScheduledTask) (interface{}, error) {
	var cfg SyncTaskConfig
	if err := decodeConfig(task.Config, &cfg); err != nil {
		return nil, err
	}

	ads, err := h.registry.Ads(cfg.Connector)
	if err != nil {
		return nil, err
	}

	if !ads.IsConnected(ctx) {
		if err := ads.Authenticate(ctx); err != nil {
			return nil, err
		}
	}

	campaigns, err := ads.FetchCampaigns(ctx, cfg.AccountID)
	if err != nil {
		return nil, err
	}

	lookback := cfg.LookbackDays
	if lookback <= 0 {
		lookback = h.lookbackDays
	}
	end := h.now()
	start := end.AddDate(0, 0, -lookback)

	var metricCount atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.concurrency)

	for _, c := range campaigns {
		campaign := c
		row := &models.Campaign{
			BaseModel: models.BaseModel{ID: campaign.ID},
			ClientID:  cfg.ClientID,
			Name:      campaign.Name,
			Platform:  campaign.Platform,
			Status:    campaign.Status,
			Budget:    campaign.Budget,
		}
		if err := h.store.UpsertCampaign(ctx, row); err != nil {
			return nil, fmt.Errorf("upsert campaign %s: %w", campaign.ID, err)
		}

		g.Go(func() error {
			rows, err := ads.FetchMetrics(gctx, campaign.ID, start, end)
			if err != nil {
				return err
			}

			metrics := make([]*models.Metric, 0, len(rows))
			for _, m := range rows {
				metrics = append(metrics, &models.Metric{
					CampaignID:  m.CampaignID,
					Date:        m.Date,
					Platform:    m.Platform,
					Impressions: m.Impressions,
					Clicks:      m.Clicks,
					Spend:       m.Spend,
					Conversions: m.Conversions,
				})
			}
			if err := h.store.SaveMetrics(gctx, metrics); err != nil {
				return fmt.Errorf("save metrics for %s: %w", campaign.ID, err)
			}
			metricCount.Add(int64(len(metrics)))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	h.logger.Info("Sync finished",
		zap.String("connector", cfg.Connector),
		zap.Int("campaigns", len(campaigns)),
		zap.Int64("metrics", metricCount.Load()))

	return &SyncResult{
		Connector:       cfg.Connector,
		AccountID:       cfg.AccountID,
		CampaignsSynced: len(campaigns),
		MetricsSynced:   metricCount.Load(),
		SyncedAt:        end.UTC(),
	}, nil
}

// ---- alert ----

// AlertSignal is a triggered alert condition.
type AlertSignal struct {
	Kind   report.AlertKind
	Detail string
}

// Evaluator decides whether an alert condition currently holds.
type Evaluator interface {
	Evaluate(ctx context.Context, cfg AlertTaskConfig) (*AlertSignal, error)
}

// ThresholdEvaluator checks yesterday's spend and CPC against the task's
// configured limits.
type ThresholdEvaluator struct {
	store storage.Storage
	now   func() time.Time
}

func NewThresholdEvaluator(store storage.Storage) *ThresholdEvaluator {
	return &ThresholdEvaluator{store: store, now: time.Now}
}

func (e *ThresholdEvaluator) Evaluate(ctx context.Context, cfg AlertTaskConfig) (*AlertSignal, error) {
	campaigns, err := e.store.ListCampaignsByClient(ctx, cfg.ClientID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(campaigns))
	for _, c := range campaigns {
		ids = append(ids, c.ID)
	}

	end := e.now()
	metrics, err := e.store.QueryMetrics(ctx, ids, end.AddDate(0, 0, -1), end)
	if err != nil {
		return nil, err
	}

	var spend float64
	var clicks int64
	for _, m := range metrics {
		spend += m.Spend
		clicks += m.Clicks
	}

	if cfg.Thresholds.MaxSpend > 0 && spend > cfg.Thresholds.MaxSpend {
		return &AlertSignal{
			Kind:   report.AlertBudget,
			Detail: fmt.Sprintf("daily spend $%.2f exceeded the $%.2f limit", spend, cfg.Thresholds.MaxSpend),
		}, nil
	}

	if cfg.Thresholds.MaxCPC > 0 && clicks > 0 && spend/float64(clicks) > cfg.Thresholds.MaxCPC {
		return &AlertSignal{
			Kind:   report.AlertPerformance,
			Detail: fmt.Sprintf("average CPC $%.2f exceeded the $%.2f limit", spend/float64(clicks), cfg.Thresholds.MaxCPC),
		}, nil
	}

	return nil, nil
}

// AlertResult is the alert handler's execution payload.
type AlertResult struct {
	Triggered bool      `json:"triggered"`
	Kind      string    `json:"kind,omitempty"`
	Message   string    `json:"message,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

type AlertHandler struct {
	evaluator  Evaluator
	store      storage.Storage
	dispatcher *dispatch.Dispatcher
	logger     *zap.Logger
}

func NewAlertHandler(evaluator Evaluator, store storage.Storage, dispatcher *dispatch.Dispatcher, logger *zap.Logger) *AlertHandler {
	return &AlertHandler{
		evaluator:  evaluator,
		store:      store,
		dispatcher: dispatcher,
		logger:     logger.Named("alert_handler"),
	}
}

func (h *AlertHandler) Run(ctx context.Context, task *models.ScheduledTask) (interface{}, error) {
	var cfg AlertTaskConfig
	if err := decodeConfig(task.Config, &cfg); err != nil {
		return nil, err
	}

	signal, err := h.evaluator.Evaluate(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("evaluate alert condition: %w", err)
	}

	checkedAt := time.Now().UTC()
	if signal == nil {
		return &AlertResult{Triggered: false, CheckedAt: checkedAt}, nil
	}

	client, err := h.store.GetClient(ctx, cfg.ClientID)
	if err != nil {
		return nil, fmt.Errorf("load client %s: %w", cfg.ClientID, err)
	}
	if client.WhatsAppNumber == "" {
		return nil, fmt.Errorf("client %s has no whatsapp number for alerts", cfg.ClientID)
	}

	outcome := h.dispatcher.DispatchAlert(ctx, signal.Kind, client.ID, client.Name, signal.Detail, dispatch.ChannelWhatsApp, client.WhatsAppNumber)
	if outcome.Err != nil {
		return nil, fmt.Errorf("dispatch alert: %w", outcome.Err)
	}

	h.logger.Info("Alert dispatched",
		zap.String("client_id", client.ID),
		zap.String("kind", string(signal.Kind)))

	return &AlertResult{
		Triggered: true,
		Kind:      string(signal.Kind),
		Message:   signal.Detail,
		CheckedAt: checkedAt,
	}, nil
}

// ---- backup ----

// BackupRunner is the external backup collaborator. The handler only
// records that it ran and what it returned.
type BackupRunner interface {
	Run(ctx context.Context, target string) (map[string]interface{}, error)
}

type BackupHandler struct {
	runner BackupRunner
	logger *zap.Logger
}

func NewBackupHandler(runner BackupRunner, logger *zap.Logger) *BackupHandler {
	return &BackupHandler{
		runner: runner,
		logger: logger.Named("backup_handler"),
	}
}

func (h *BackupHandler) Run(ctx context.Context, task *models.ScheduledTask) (interface{}, error) {
	cfg := BackupTaskConfig{}
	if len(task.Config) > 0 {
		if err := decodeConfig(task.Config, &cfg); err != nil {
			return nil, err
		}
	}

	result, err := h.runner.Run(ctx, cfg.Target)
	if err != nil {
		return nil, fmt.Errorf("run backup: %w", err)
	}

	h.logger.Info("Backup finished", zap.String("target", cfg.Target))
	return result, nil
}
