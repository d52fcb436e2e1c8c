// ====================================
// File: cmd/schedulerd/main.go
// ====================================
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/clientpulse/clientpulse/internal/backup"
	"github.com/clientpulse/clientpulse/internal/config"
	"github.com/clientpulse/clientpulse/internal/connector"
	"github.com/clientpulse/clientpulse/internal/dispatch"
	"github.com/clientpulse/clientpulse/internal/logger"
	"github.com/clientpulse/clientpulse/internal/report"
	"github.com/clientpulse/clientpulse/internal/scheduler"
	"github.com/clientpulse/clientpulse/internal/storage/models"
	"github.com/clientpulse/clientpulse/internal/storage/postgres"
	"github.com/clientpulse/clientpulse/internal/taskfile"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logCfg := logger.DefaultConfig()
	logCfg.LogFile = cfg.LogFile
	logCfg.Development = cfg.DebugLogging
	appLogger, err := logger.New(logCfg)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer appLogger.Sync()

	log := appLogger.WithComponent("schedulerd")
	log.Info("Starting scheduler daemon")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := postgres.NewStorage(cfg.PostgresURL, appLogger.WithComponent("storage"))
	if err != nil {
		log.Fatal("Failed to connect to storage", zap.Error(err))
	}
	if err := store.RunMigrations(); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatal("Invalid timezone", zap.String("timezone", cfg.Timezone), zap.Error(err))
	}

	registry := connector.NewRegistry(appLogger.WithComponent("connectors"))

	metaAds := connector.NewMetaAds(connector.MetaAdsConfig{
		AppID:       cfg.Connectors.Meta.AppID,
		AppSecret:   cfg.Connectors.Meta.AppSecret,
		AccessToken: cfg.Connectors.Meta.AccessToken,
	}, appLogger.WithComponent("meta_ads"))
	googleAds := connector.NewGoogleAds(connector.GoogleAdsConfig{
		ClientID:       cfg.Connectors.Google.ClientID,
		ClientSecret:   cfg.Connectors.Google.ClientSecret,
		DeveloperToken: cfg.Connectors.Google.DeveloperToken,
		RefreshToken:   cfg.Connectors.Google.RefreshToken,
	}, appLogger.WithComponent("google_ads"))
	messaging := connector.NewMessaging(connector.MessagingConfig{
		BaseURL:  cfg.Connectors.Messaging.BaseURL,
		Token:    cfg.Connectors.Messaging.Token,
		Instance: cfg.Connectors.Messaging.Instance,
	}, appLogger.WithComponent("messaging"))

	for _, c := range []connector.Connector{metaAds, googleAds, messaging} {
		if err := registry.Register(c.Name(), c); err != nil {
			log.Fatal("Failed to register connector", zap.String("connector", c.Name()), zap.Error(err))
		}
	}

	dispatcher := dispatch.NewDispatcher(store, cfg.DashboardURL, appLogger.Logger)
	dispatcher.BindChannel(dispatch.ChannelWhatsApp, messaging)

	values := report.ConversionValues{
		MetaAds:   cfg.Report.ConversionValueMeta,
		GoogleAds: cfg.Report.ConversionValueGoogle,
	}
	generator := report.NewGenerator(store, values, cfg.Report.TopCampaigns, appLogger.Logger)

	tracker := scheduler.NewTracker(store, appLogger.Logger)
	sched := scheduler.NewScheduler(store, tracker, loc, appLogger.Logger)

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("Redis unreachable, running without task locks", zap.Error(err))
		} else {
			sched.WithLock(rdb)
			log.Info("Task locking enabled", zap.String("redis", cfg.RedisAddr))
		}
	}

	sched.RegisterHandler(models.KindReport,
		scheduler.NewReportHandler(store, generator, dispatcher, appLogger.Logger))
	sched.RegisterHandler(models.KindSync,
		scheduler.NewSyncHandler(registry, store, cfg.SyncConcurrency, cfg.SyncLookbackDays, appLogger.Logger))
	sched.RegisterHandler(models.KindAlert,
		scheduler.NewAlertHandler(scheduler.NewThresholdEvaluator(store), store, dispatcher, appLogger.Logger))
	sched.RegisterHandler(models.KindBackup,
		scheduler.NewBackupHandler(backup.NewRunner(cfg.PostgresURL, appLogger.Logger), appLogger.Logger))

	if cfg.TasksFile != "" {
		loader := taskfile.NewLoader(appLogger.Logger)
		defs, err := loader.Load(cfg.TasksFile)
		if err != nil {
			log.Warn("Could not load tasks file", zap.String("path", cfg.TasksFile), zap.Error(err))
		} else if _, err := loader.Seed(ctx, store, defs); err != nil {
			log.Fatal("Failed to seed tasks", zap.Error(err))
		}
	}

	if err := sched.Reload(ctx); err != nil {
		log.Fatal("Failed to load schedule", zap.Error(err))
	}
	sched.Start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("Shutting down", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := sched.Stop(shutdownCtx); err != nil {
		log.Error("Shutdown did not finish cleanly", zap.Error(err))
		os.Exit(1)
	}
}
