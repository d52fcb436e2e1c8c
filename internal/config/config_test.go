package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalConfig = `
postgres_url: "postgres://localhost:5432/clientpulse"
`

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "America/Sao_Paulo", cfg.Timezone)
	assert.Equal(t, DefaultSyncConcurrency, cfg.SyncConcurrency)
	assert.Equal(t, DefaultSyncLookbackDays, cfg.SyncLookbackDays)
	assert.Equal(t, DefaultConversionValue, cfg.Report.ConversionValueMeta)
	assert.Equal(t, DefaultConversionValue, cfg.Report.ConversionValueGoogle)
	assert.Equal(t, DefaultTopCampaigns, cfg.Report.TopCampaigns)
	assert.Equal(t, DefaultAlertMaxSpend, cfg.Alert.MaxSpend)
	assert.Equal(t, DefaultAlertMaxCPC, cfg.Alert.MaxCPC)
	assert.Equal(t, "clientpulse.log", cfg.LogFile)
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
postgres_url: "postgres://localhost:5432/clientpulse"
timezone: "UTC"
sync_concurrency: 8
report:
  conversion_value_meta: 75.5
  top_campaigns: 5
connectors:
  messaging:
    base_url: "http://gateway:8080"
    instance: "prod"
`))
	require.NoError(t, err)

	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, 8, cfg.SyncConcurrency)
	assert.Equal(t, 75.5, cfg.Report.ConversionValueMeta)
	assert.Equal(t, DefaultConversionValue, cfg.Report.ConversionValueGoogle)
	assert.Equal(t, 5, cfg.Report.TopCampaigns)
	assert.Equal(t, "http://gateway:8080", cfg.Connectors.Messaging.BaseURL)
	assert.Equal(t, "prod", cfg.Connectors.Messaging.Instance)
}

func TestLoadConfigMissingPostgresURL(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `timezone: "UTC"`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres_url")
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad timezone", minimalConfig + `timezone: "Mars/Olympus"`},
		{"zero conversion value", minimalConfig + "report:\n  conversion_value_meta: 0\n"},
		{"negative top campaigns", minimalConfig + "report:\n  top_campaigns: -1\n"},
		{"zero concurrency", minimalConfig + "sync_concurrency: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("CLIENTPULSE_POSTGRES_URL", "postgres://env-host:5432/clientpulse")
	t.Setenv("CLIENTPULSE_MESSAGING_TOKEN", "env-token")

	cfg, err := LoadConfig(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "postgres://env-host:5432/clientpulse", cfg.PostgresURL)
	assert.Equal(t, "env-token", cfg.Connectors.Messaging.Token)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
