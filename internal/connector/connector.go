// internal/connector/connector.go
// Package connector is the boundary to external ad platforms and messaging
// channels. The scheduler and dispatch layers depend only on the interfaces
// here, never on concrete implementations.
package connector

import (
	"context"
	"time"
)

// Platform identifies what kind of external system a connector talks to.
type Platform string

const (
	PlatformMetaAds   Platform = "meta_ads"
	PlatformGoogleAds Platform = "google_ads"
	PlatformMessaging Platform = "messaging"
)

// CampaignData is a campaign as reported by an ad platform.
type CampaignData struct {
	ID        string
	Name      string
	Platform  string
	Status    string
	Budget    float64
	StartDate string
	EndDate   string
	Objective string
}

// MetricData is one day of campaign metrics from an ad platform.
type MetricData struct {
	Date        time.Time
	Platform    string
	CampaignID  string
	Impressions int64
	Clicks      int64
	Spend       float64
	Conversions int64
}

// DeliveryStatus is the state of a previously sent message.
type DeliveryStatus struct {
	ID        string
	Status    string
	Timestamp time.Time
	Error     string
}

// Connector is the capability every external integration shares.
type Connector interface {
	Name() string
	Platform() Platform
	Authenticate(ctx context.Context) error
	IsConnected(ctx context.Context) bool
}

// AdsConnector fetches campaigns and metrics from an advertising platform.
type AdsConnector interface {
	Connector
	FetchCampaigns(ctx context.Context, accountID string) ([]CampaignData, error)
	FetchMetrics(ctx context.Context, campaignID string, start, end time.Time) ([]MetricData, error)
}

// MessagingConnector delivers rendered content to a recipient.
type MessagingConnector interface {
	Connector
	Send(ctx context.Context, recipient, content string) (string, error)
	Status(ctx context.Context, deliveryID string) (*DeliveryStatus, error)
}
