package report

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clientpulse/clientpulse/internal/storage"
	"github.com/clientpulse/clientpulse/internal/storage/memory"
	"github.com/clientpulse/clientpulse/internal/storage/models"
)

func seededStore(t *testing.T) *memory.Storage {
	t.Helper()
	store := memory.New()
	store.AddClient(&models.Client{
		BaseModel: models.BaseModel{ID: "client-1"},
		Name:      "Acme Corp",
		Email:     "ads@acme.example",
	})

	ctx := context.Background()
	require.NoError(t, store.UpsertCampaign(ctx, campaign("c1", "Spring Launch", models.PlatformMetaAds, models.CampaignStatusActive)))
	require.NoError(t, store.UpsertCampaign(ctx, campaign("c2", "Search Brand", models.PlatformGoogleAds, models.CampaignStatusActive)))

	require.NoError(t, store.SaveMetrics(ctx, []*models.Metric{
		metric("c1", models.PlatformMetaAds, 50000, 510, 52, 750.30),
		metric("c2", models.PlatformGoogleAds, 30000, 340, 33, 500.20),
	}))
	return store
}

func TestGeneratorGenerateSavesSnapshot(t *testing.T) {
	store := seededStore(t)
	gen := NewGenerator(store, testValues, 3, zap.NewNop())
	gen.now = func() time.Time { return time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC) }

	rep, err := gen.Generate(context.Background(), "client-1", PeriodWeekly, nil, nil)
	require.NoError(t, err)

	assert.NotEmpty(t, rep.ID)
	assert.Equal(t, "Acme Corp", rep.ClientName)
	assert.InDelta(t, 1250.50, rep.TotalSpend, 0.001)

	saved := store.Reports()
	require.Len(t, saved, 1)
	assert.Equal(t, rep.ID, saved[0].ID)
	assert.Equal(t, "Weekly Report - Acme Corp", saved[0].Title)
	assert.Equal(t, "generated", saved[0].Status)
	assert.NotEmpty(t, saved[0].Data)
}

func TestGeneratorGenerateUnknownClient(t *testing.T) {
	gen := NewGenerator(memory.New(), testValues, 3, zap.NewNop())

	_, err := gen.Generate(context.Background(), "missing", PeriodDaily, nil, nil)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGeneratorGenerateCustomPeriodValidation(t *testing.T) {
	store := seededStore(t)
	gen := NewGenerator(store, testValues, 3, zap.NewNop())

	_, err := gen.Generate(context.Background(), "client-1", PeriodCustom, nil, nil)
	assert.ErrorIs(t, err, ErrMissingDateRange)
	assert.Empty(t, store.Reports(), "no snapshot on validation failure")
}

func TestGeneratorHistory(t *testing.T) {
	store := seededStore(t)
	gen := NewGenerator(store, testValues, 3, zap.NewNop())

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := gen.Generate(ctx, "client-1", PeriodDaily, nil, nil)
		require.NoError(t, err)
	}

	history, err := gen.History(ctx, "client-1", 2)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}
