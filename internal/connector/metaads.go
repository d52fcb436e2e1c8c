// internal/connector/metaads.go
package connector

import (
	"context"
	"errors"
	"hash/fnv"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

// MetaAdsConfig holds Graph API credentials.
type MetaAdsConfig struct {
	AppID       string
	AppSecret   string
	AccessToken string
}

// MetaAds talks to the Meta Marketing API. Transport is simulated: the
// fixture data below stands in for Graph API responses so the pipeline can
// run without platform credentials.
type MetaAds struct {
	mu     sync.RWMutex
	cfg    MetaAdsConfig
	token  string
	logger *zap.Logger
}

func NewMetaAds(cfg MetaAdsConfig, logger *zap.Logger) *MetaAds {
	return &MetaAds{
		cfg:    cfg,
		token:  cfg.AccessToken,
		logger: logger.Named("meta_ads"),
	}
}

func (m *MetaAds) Name() string       { return "meta_ads" }
func (m *MetaAds) Platform() Platform { return PlatformMetaAds }

func (m *MetaAds) Authenticate(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cfg.AppID == "" || m.cfg.AppSecret == "" {
		return newError(m.Name(), "authenticate", errors.New("app credentials not configured"))
	}

	// Real flow: POST oauth/access_token with the app credentials.
	m.token = "meta-ads-token"
	m.logger.Info("Authenticated with Meta Ads")
	return nil
}

func (m *MetaAds) IsConnected(_ context.Context) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token != ""
}

func (m *MetaAds) FetchCampaigns(ctx context.Context, accountID string) ([]CampaignData, error) {
	if !m.IsConnected(ctx) {
		return nil, newError(m.Name(), "fetch_campaigns", errors.New("not authenticated"))
	}

	m.logger.Debug("Fetching campaigns", zap.String("account_id", accountID))

	// Real flow: GET graph.facebook.com/v18.0/{accountID}/campaigns.
	campaigns := []CampaignData{
		{
			ID:        "meta_" + accountID + "_awareness",
			Name:      "Brand Awareness - Meta",
			Platform:  string(PlatformMetaAds),
			Status:    "active",
			Budget:    3000,
			Objective: "CONVERSIONS",
		},
		{
			ID:        "meta_" + accountID + "_leads",
			Name:      "Lead Acquisition - Meta",
			Platform:  string(PlatformMetaAds),
			Status:    "active",
			Budget:    1500,
			Objective: "LEAD_GENERATION",
		},
	}

	return campaigns, nil
}

func (m *MetaAds) FetchMetrics(ctx context.Context, campaignID string, start, end time.Time) ([]MetricData, error) {
	if !m.IsConnected(ctx) {
		return nil, newError(m.Name(), "fetch_metrics", errors.New("not authenticated"))
	}

	m.logger.Debug("Fetching metrics",
		zap.String("campaign_id", campaignID),
		zap.Time("start", start),
		zap.Time("end", end))

	// Real flow: GET graph.facebook.com/v18.0/{campaignID}/insights.
	return simulateDailyMetrics(campaignID, string(PlatformMetaAds), start, end, metricShape{
		impressionsBase: 5000, impressionsSpan: 10000,
		clicksBase: 100, clicksSpan: 500,
		spendBase: 50, spendSpan: 200,
		conversionsBase: 5, conversionsSpan: 20,
	}), nil
}

// metricShape bounds the simulated series per platform.
type metricShape struct {
	impressionsBase, impressionsSpan int64
	clicksBase, clicksSpan           int64
	spendBase, spendSpan             float64
	conversionsBase, conversionsSpan int64
}

// simulateDailyMetrics produces one row per calendar day in [start, end],
// deterministic for a given campaign so repeated syncs agree.
func simulateDailyMetrics(campaignID, platform string, start, end time.Time, shape metricShape) []MetricData {
	h := fnv.New64a()
	h.Write([]byte(campaignID))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	var rows []MetricData
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		rows = append(rows, MetricData{
			Date:        time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC),
			Platform:    platform,
			CampaignID:  campaignID,
			Impressions: shape.impressionsBase + rng.Int63n(shape.impressionsSpan),
			Clicks:      shape.clicksBase + rng.Int63n(shape.clicksSpan),
			Spend:       shape.spendBase + rng.Float64()*shape.spendSpan,
			Conversions: shape.conversionsBase + rng.Int63n(shape.conversionsSpan),
		})
	}
	return rows
}
