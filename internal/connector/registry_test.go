package connector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func timeDate(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func testMeta(t *testing.T) *MetaAds {
	t.Helper()
	return NewMetaAds(MetaAdsConfig{AppID: "app", AppSecret: "secret"}, zap.NewNop())
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	meta := testMeta(t)

	require.NoError(t, r.Register(meta.Name(), meta))

	got, err := r.Get("meta_ads")
	require.NoError(t, err)
	assert.Equal(t, meta, got)

	_, err = r.Get("unknown")
	assert.Error(t, err)
}

func TestRegistryDuplicateRegistration(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	meta := testMeta(t)

	require.NoError(t, r.Register(meta.Name(), meta))
	assert.Error(t, r.Register(meta.Name(), meta))
}

func TestRegistryCapabilityLookups(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	meta := testMeta(t)
	messaging := NewMessaging(MessagingConfig{BaseURL: "http://localhost", Token: "t", Instance: "i"}, zap.NewNop())

	require.NoError(t, r.Register(meta.Name(), meta))
	require.NoError(t, r.Register(messaging.Name(), messaging))

	ads, err := r.Ads("meta_ads")
	require.NoError(t, err)
	assert.Equal(t, PlatformMetaAds, ads.Platform())

	_, err = r.Ads("evolution_api")
	assert.Error(t, err, "messaging connector has no ads capability")

	msg, err := r.Messaging("evolution_api")
	require.NoError(t, err)
	assert.Equal(t, PlatformMessaging, msg.Platform())

	_, err = r.Messaging("meta_ads")
	assert.Error(t, err, "ads connector has no send capability")
}

func TestRegistryByPlatform(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	meta := testMeta(t)
	google := NewGoogleAds(GoogleAdsConfig{ClientID: "c", ClientSecret: "s", DeveloperToken: "d"}, zap.NewNop())

	require.NoError(t, r.Register(meta.Name(), meta))
	require.NoError(t, r.Register(google.Name(), google))

	assert.Len(t, r.ByPlatform(PlatformMetaAds), 1)
	assert.Len(t, r.ByPlatform(PlatformGoogleAds), 1)
	assert.Empty(t, r.ByPlatform(PlatformMessaging))
}

func TestRegistryUnregister(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	meta := testMeta(t)

	require.NoError(t, r.Register(meta.Name(), meta))
	require.NoError(t, r.Unregister(meta.Name()))

	_, err := r.Get(meta.Name())
	assert.Error(t, err)
	assert.Empty(t, r.ByPlatform(PlatformMetaAds))

	assert.Error(t, r.Unregister(meta.Name()), "second unregister reports not found")
}

func TestMetaAdsAuthentication(t *testing.T) {
	ctx := context.Background()

	unconfigured := NewMetaAds(MetaAdsConfig{}, zap.NewNop())
	err := unconfigured.Authenticate(ctx)
	require.Error(t, err)

	var connErr *Error
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, "meta_ads", connErr.Connector)
	assert.Equal(t, "authenticate", connErr.Op)

	meta := testMeta(t)
	assert.False(t, meta.IsConnected(ctx))
	require.NoError(t, meta.Authenticate(ctx))
	assert.True(t, meta.IsConnected(ctx))
}

func TestMetaAdsFetchRequiresAuthentication(t *testing.T) {
	ctx := context.Background()
	meta := testMeta(t)

	_, err := meta.FetchCampaigns(ctx, "act_1001")
	assert.Error(t, err)

	require.NoError(t, meta.Authenticate(ctx))

	campaigns, err := meta.FetchCampaigns(ctx, "act_1001")
	require.NoError(t, err)
	assert.NotEmpty(t, campaigns)
	for _, c := range campaigns {
		assert.Equal(t, "meta_ads", c.Platform)
	}
}

func TestAdsMetricsDeterministicPerDay(t *testing.T) {
	ctx := context.Background()
	meta := testMeta(t)
	require.NoError(t, meta.Authenticate(ctx))

	campaigns, err := meta.FetchCampaigns(ctx, "act_1001")
	require.NoError(t, err)
	require.NotEmpty(t, campaigns)

	start := timeDate(2025, 3, 10)
	end := timeDate(2025, 3, 13)

	first, err := meta.FetchMetrics(ctx, campaigns[0].ID, start, end)
	require.NoError(t, err)
	second, err := meta.FetchMetrics(ctx, campaigns[0].ID, start, end)
	require.NoError(t, err)

	assert.Equal(t, first, second, "same window must produce identical rows")
	assert.Len(t, first, 4, "inclusive day range")
	for _, m := range first {
		assert.Equal(t, campaigns[0].ID, m.CampaignID)
		assert.Positive(t, m.Impressions)
		assert.GreaterOrEqual(t, m.Impressions, m.Clicks)
	}
}

func TestGoogleAdsIncludesPausedCampaign(t *testing.T) {
	ctx := context.Background()
	google := NewGoogleAds(GoogleAdsConfig{ClientID: "c", ClientSecret: "s", DeveloperToken: "d"}, zap.NewNop())
	require.NoError(t, google.Authenticate(ctx))

	campaigns, err := google.FetchCampaigns(ctx, "cust-2002")
	require.NoError(t, err)

	paused := 0
	for _, c := range campaigns {
		assert.Equal(t, "google_ads", c.Platform)
		if c.Status == "paused" {
			paused++
		}
	}
	assert.Positive(t, paused)
}
