// internal/storage/models/client.go
package models

import "time"

// Platform identifiers used across campaigns and metrics.
const (
	PlatformMetaAds   = "meta_ads"
	PlatformGoogleAds = "google_ads"
)

// Campaign statuses as reported by the ad platforms. Paused campaigns show
// up either lowercase (our own records) or uppercase (platform exports).
const (
	CampaignStatusActive = "active"
	CampaignStatusPaused = "paused"
)

type Client struct {
	BaseModel
	Name           string `gorm:"not null;type:varchar(200)"`
	Email          string `gorm:"type:varchar(200)"`
	WhatsAppNumber string `gorm:"type:varchar(30)"`
}

type Campaign struct {
	BaseModel
	ClientID string  `gorm:"index;not null;type:varchar(36)"`
	Name     string  `gorm:"not null;type:varchar(200)"`
	Platform string  `gorm:"not null;type:varchar(20)"`
	Status   string  `gorm:"not null;type:varchar(20)"`
	Budget   float64 `gorm:"type:decimal(14,2);default:0"`
}

// Metric is one day of campaign performance pulled from an ad platform.
type Metric struct {
	ID          uint      `gorm:"primarykey"`
	CampaignID  string    `gorm:"index;not null;type:varchar(36)"`
	Date        time.Time `gorm:"index;not null"`
	Platform    string    `gorm:"not null;type:varchar(20)"`
	Impressions int64     `gorm:"default:0"`
	Clicks      int64     `gorm:"default:0"`
	Spend       float64   `gorm:"type:decimal(14,2);default:0"`
	Conversions int64     `gorm:"default:0"`
}
