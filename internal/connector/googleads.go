// internal/connector/googleads.go
package connector

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// GoogleAdsConfig holds Google Ads API credentials.
type GoogleAdsConfig struct {
	ClientID       string
	ClientSecret   string
	DeveloperToken string
	RefreshToken   string
}

// GoogleAds talks to the Google Ads API. Like MetaAds, the transport is
// simulated behind the real contract.
type GoogleAds struct {
	mu     sync.RWMutex
	cfg    GoogleAdsConfig
	token  string
	logger *zap.Logger
}

func NewGoogleAds(cfg GoogleAdsConfig, logger *zap.Logger) *GoogleAds {
	return &GoogleAds{
		cfg:    cfg,
		logger: logger.Named("google_ads"),
	}
}

func (g *GoogleAds) Name() string       { return "google_ads" }
func (g *GoogleAds) Platform() Platform { return PlatformGoogleAds }

func (g *GoogleAds) Authenticate(_ context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cfg.ClientID == "" || g.cfg.ClientSecret == "" || g.cfg.DeveloperToken == "" {
		return newError(g.Name(), "authenticate", errors.New("oauth credentials not configured"))
	}

	// Real flow: OAuth2 refresh-token exchange.
	g.token = "google-ads-token"
	g.logger.Info("Authenticated with Google Ads")
	return nil
}

func (g *GoogleAds) IsConnected(_ context.Context) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.token != ""
}

func (g *GoogleAds) FetchCampaigns(ctx context.Context, customerID string) ([]CampaignData, error) {
	if !g.IsConnected(ctx) {
		return nil, newError(g.Name(), "fetch_campaigns", errors.New("not authenticated"))
	}

	g.logger.Debug("Fetching campaigns", zap.String("customer_id", customerID))

	// Real flow: googleAds:search with a campaign GAQL query.
	campaigns := []CampaignData{
		{
			ID:        "google_" + customerID + "_search",
			Name:      "Search - Brand Terms",
			Platform:  string(PlatformGoogleAds),
			Status:    "active",
			Budget:    2500,
			Objective: "SALES",
		},
		{
			ID:        "google_" + customerID + "_display",
			Name:      "Display Remarketing",
			Platform:  string(PlatformGoogleAds),
			Status:    "paused",
			Budget:    800,
			Objective: "WEBSITE_TRAFFIC",
		},
	}

	return campaigns, nil
}

func (g *GoogleAds) FetchMetrics(ctx context.Context, campaignID string, start, end time.Time) ([]MetricData, error) {
	if !g.IsConnected(ctx) {
		return nil, newError(g.Name(), "fetch_metrics", errors.New("not authenticated"))
	}

	g.logger.Debug("Fetching metrics",
		zap.String("campaign_id", campaignID),
		zap.Time("start", start),
		zap.Time("end", end))

	// Real flow: googleAds:search with a metrics GAQL query segmented by day.
	return simulateDailyMetrics(campaignID, string(PlatformGoogleAds), start, end, metricShape{
		impressionsBase: 3000, impressionsSpan: 8000,
		clicksBase: 80, clicksSpan: 400,
		spendBase: 40, spendSpan: 160,
		conversionsBase: 3, conversionsSpan: 15,
	}), nil
}
