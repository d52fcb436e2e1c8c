// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type ReportConfig struct {
	ConversionValueMeta   float64 `mapstructure:"conversion_value_meta"`
	ConversionValueGoogle float64 `mapstructure:"conversion_value_google"`
	TopCampaigns          int     `mapstructure:"top_campaigns"`
}

type AlertConfig struct {
	MaxSpend float64 `mapstructure:"max_spend"`
	MaxCPC   float64 `mapstructure:"max_cpc"`
}

type MetaAdsConfig struct {
	AppID       string `mapstructure:"app_id"`
	AppSecret   string `mapstructure:"app_secret"`
	AccessToken string `mapstructure:"access_token"`
}

type GoogleAdsConfig struct {
	ClientID       string `mapstructure:"client_id"`
	ClientSecret   string `mapstructure:"client_secret"`
	DeveloperToken string `mapstructure:"developer_token"`
	RefreshToken   string `mapstructure:"refresh_token"`
}

type MessagingConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	Token    string `mapstructure:"token"`
	Instance string `mapstructure:"instance"`
}

type ConnectorsConfig struct {
	Meta      MetaAdsConfig   `mapstructure:"meta_ads"`
	Google    GoogleAdsConfig `mapstructure:"google_ads"`
	Messaging MessagingConfig `mapstructure:"messaging"`
}

type Config struct {
	PostgresURL      string           `mapstructure:"postgres_url"`
	RedisAddr        string           `mapstructure:"redis_addr"`
	Timezone         string           `mapstructure:"timezone"`
	TasksFile        string           `mapstructure:"tasks_file"`
	DashboardURL     string           `mapstructure:"dashboard_url"`
	SyncConcurrency  int              `mapstructure:"sync_concurrency"`
	SyncLookbackDays int              `mapstructure:"sync_lookback_days"`
	DebugLogging     bool             `mapstructure:"debug_logging"`
	LogFile          string           `mapstructure:"log_file"`
	Report           ReportConfig     `mapstructure:"report"`
	Alert            AlertConfig      `mapstructure:"alert"`
	Connectors       ConnectorsConfig `mapstructure:"connectors"`
}

const (
	DefaultTimezone         = "America/Sao_Paulo"
	DefaultConversionValue  = 50.0
	DefaultTopCampaigns     = 3
	DefaultSyncConcurrency  = 4
	DefaultSyncLookbackDays = 1
	DefaultAlertMaxSpend    = 1000.0
	DefaultAlertMaxCPC      = 2.0
)

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"timezone":                       DefaultTimezone,
		"sync_concurrency":               DefaultSyncConcurrency,
		"sync_lookback_days":             DefaultSyncLookbackDays,
		"log_file":                       "clientpulse.log",
		"report.conversion_value_meta":   DefaultConversionValue,
		"report.conversion_value_google": DefaultConversionValue,
		"report.top_campaigns":           DefaultTopCampaigns,
		"alert.max_spend":                DefaultAlertMaxSpend,
		"alert.max_cpc":                  DefaultAlertMaxCPC,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := loadEnvironmentVariables(v, &cfg); err != nil {
		return nil, err
	}

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if cfg.PostgresURL == "" {
		return errors.New("postgres_url is required")
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return errors.New("invalid timezone")
	}
	if cfg.Report.ConversionValueMeta <= 0 || cfg.Report.ConversionValueGoogle <= 0 {
		return errors.New("conversion values must be positive")
	}
	if cfg.Report.TopCampaigns <= 0 {
		return errors.New("invalid top_campaigns count")
	}
	if cfg.SyncConcurrency <= 0 {
		return errors.New("invalid sync_concurrency")
	}
	if cfg.SyncLookbackDays <= 0 {
		return errors.New("invalid sync_lookback_days")
	}
	return nil
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) error {
	v.AutomaticEnv()
	v.SetEnvPrefix("CLIENTPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envPostgres := v.GetString("POSTGRES_URL")
	if envPostgres != "" {
		cfg.PostgresURL = envPostgres
	}

	envRedis := v.GetString("REDIS_ADDR")
	if envRedis != "" {
		cfg.RedisAddr = envRedis
	}

	envToken := v.GetString("MESSAGING_TOKEN")
	if envToken != "" {
		cfg.Connectors.Messaging.Token = envToken
	}
	return nil
}
