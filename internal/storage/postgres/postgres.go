// internal/storage/postgres/postgres.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clientpulse/clientpulse/internal/storage"
	"github.com/clientpulse/clientpulse/internal/storage/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// gormLogger adapts zap to GORM's logger.Interface.
type gormLogger struct {
	zapLogger *zap.Logger
	logLevel  logger.LogLevel
}

func newGormLogger(zapLogger *zap.Logger) logger.Interface {
	return &gormLogger{
		zapLogger: zapLogger,
		logLevel:  logger.Warn,
	}
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	newLogger := *l
	newLogger.logLevel = level
	return &newLogger
}

func (l *gormLogger) Info(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Info {
		l.zapLogger.Sugar().Infof(msg, data...)
	}
}

func (l *gormLogger) Warn(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Warn {
		l.zapLogger.Sugar().Warnf(msg, data...)
	}
}

func (l *gormLogger) Error(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Error {
		l.zapLogger.Sugar().Errorf(msg, data...)
	}
}

func (l *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.logLevel <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	fields := []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.String("sql", sql),
		zap.Int64("rows", rows),
	}

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		l.zapLogger.Error("trace", append(fields, zap.Error(err))...)
		return
	}

	if l.logLevel >= logger.Info {
		l.zapLogger.Info("trace", fields...)
	}
}

// postgresStorage implements storage.Storage on GORM.
type postgresStorage struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewStorage(dsn string, zapLogger *zap.Logger) (storage.Storage, error) {
	gormLogger := newGormLogger(zapLogger.Named("gorm"))

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		DisableForeignKeyConstraintWhenMigrating: true,
		SkipDefaultTransaction:                   true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &postgresStorage{
		db:     db,
		logger: zapLogger,
	}, nil
}

func (p *postgresStorage) RunMigrations() error {
	// Advisory lock so concurrent instances do not migrate at once.
	var lockObtained bool
	err := p.db.Raw("SELECT pg_try_advisory_lock(217)").Scan(&lockObtained).Error
	if err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	if !lockObtained {
		return fmt.Errorf("another migration is in progress")
	}
	defer p.db.Exec("SELECT pg_advisory_unlock(217)")

	err = p.db.AutoMigrate(
		&models.Client{},
		&models.Campaign{},
		&models.Metric{},
		&models.ScheduledTask{},
		&models.TaskExecution{},
		&models.Report{},
		&models.Delivery{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func (p *postgresStorage) CreateTask(ctx context.Context, task *models.ScheduledTask) error {
	return p.db.WithContext(ctx).Create(task).Error
}

func (p *postgresStorage) GetTask(ctx context.Context, id string) (*models.ScheduledTask, error) {
	var task models.ScheduledTask
	err := p.db.WithContext(ctx).Where("id = ?", id).First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (p *postgresStorage) ListActiveTasks(ctx context.Context) ([]*models.ScheduledTask, error) {
	var tasks []*models.ScheduledTask
	err := p.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at asc").
		Find(&tasks).Error
	return tasks, err
}

func (p *postgresStorage) UpdateTask(ctx context.Context, task *models.ScheduledTask) error {
	return p.db.WithContext(ctx).Save(task).Error
}

func (p *postgresStorage) DeleteTask(ctx context.Context, id string) error {
	return p.db.WithContext(ctx).Delete(&models.ScheduledTask{}, "id = ?", id).Error
}

func (p *postgresStorage) TouchLastRun(ctx context.Context, id string, at time.Time) error {
	return p.db.WithContext(ctx).Model(&models.ScheduledTask{}).
		Where("id = ?", id).
		Update("last_run", at).Error
}

func (p *postgresStorage) CreateExecution(ctx context.Context, exec *models.TaskExecution) error {
	return p.db.WithContext(ctx).Create(exec).Error
}

func (p *postgresStorage) CompleteExecution(ctx context.Context, id string, status string, completedAt time.Time, result []byte, errMsg string) error {
	return p.db.WithContext(ctx).Model(&models.TaskExecution{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       status,
			"completed_at": completedAt,
			"result":       result,
			"error":        errMsg,
		}).Error
}

func (p *postgresStorage) ListExecutions(ctx context.Context, taskID string, limit int) ([]*models.TaskExecution, error) {
	var execs []*models.TaskExecution
	err := p.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("started_at desc").
		Limit(limit).
		Find(&execs).Error
	return execs, err
}

func (p *postgresStorage) SaveReport(ctx context.Context, report *models.Report) error {
	return p.db.WithContext(ctx).Create(report).Error
}

func (p *postgresStorage) ListReports(ctx context.Context, clientID string, limit int) ([]*models.Report, error) {
	var reports []*models.Report
	err := p.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at desc").
		Limit(limit).
		Find(&reports).Error
	return reports, err
}

func (p *postgresStorage) SaveDelivery(ctx context.Context, delivery *models.Delivery) error {
	return p.db.WithContext(ctx).Create(delivery).Error
}

func (p *postgresStorage) GetClient(ctx context.Context, id string) (*models.Client, error) {
	var client models.Client
	err := p.db.WithContext(ctx).Where("id = ?", id).First(&client).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (p *postgresStorage) ListCampaignsByClient(ctx context.Context, clientID string) ([]*models.Campaign, error) {
	var campaigns []*models.Campaign
	err := p.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at asc").
		Find(&campaigns).Error
	return campaigns, err
}

func (p *postgresStorage) UpsertCampaign(ctx context.Context, campaign *models.Campaign) error {
	return p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "platform", "status", "budget", "updated_at"}),
	}).Create(campaign).Error
}

func (p *postgresStorage) SaveMetrics(ctx context.Context, metrics []*models.Metric) error {
	if len(metrics) == 0 {
		return nil
	}
	return p.db.WithContext(ctx).Create(metrics).Error
}

func (p *postgresStorage) QueryMetrics(ctx context.Context, campaignIDs []string, start, end time.Time) ([]*models.Metric, error) {
	if len(campaignIDs) == 0 {
		return nil, nil
	}
	var metrics []*models.Metric
	err := p.db.WithContext(ctx).
		Where("campaign_id IN ?", campaignIDs).
		Where("date >= ? AND date <= ?", start, end).
		Order("date asc").
		Find(&metrics).Error
	return metrics, err
}
