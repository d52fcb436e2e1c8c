// internal/report/report.go
// Package report turns raw metric rows into immutable report snapshots and
// renders them for delivery channels.
package report

import "time"

// Period selects how the reporting window is derived.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodCustom  Period = "custom"
)

// Title returns the human label for a period.
func (p Period) Title() string {
	switch p {
	case PeriodDaily:
		return "Daily"
	case PeriodWeekly:
		return "Weekly"
	case PeriodMonthly:
		return "Monthly"
	default:
		return "Custom"
	}
}

// Range is an inclusive calendar date range.
type Range struct {
	Start time.Time
	End   time.Time
}

// ConversionValues are the assumed monetary values per conversion used for
// ROAS. A simplification, not a live bid price; tuned via configuration.
type ConversionValues struct {
	MetaAds   float64
	GoogleAds float64
}

// For returns the conversion value for a platform identifier.
func (v ConversionValues) For(platform string) float64 {
	if platform == "google_ads" {
		return v.GoogleAds
	}
	return v.MetaAds
}

// PlatformData is the aggregated performance of one ad platform.
type PlatformData struct {
	Spend       float64 `json:"spend"`
	Conversions int64   `json:"conversions"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	ROAS        float64 `json:"roas"`
	CPC         float64 `json:"cpc"`
	CPM         float64 `json:"cpm"`
	CTR         float64 `json:"ctr"`
}

// CampaignSummary is the campaign-scoped aggregate used for rankings.
type CampaignSummary struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Platform    string  `json:"platform"`
	Spend       float64 `json:"spend"`
	Conversions int64   `json:"conversions"`
	ROAS        float64 `json:"roas"`
	Status      string  `json:"status"`
}

// Platforms is the fixed per-platform breakdown.
type Platforms struct {
	MetaAds   PlatformData `json:"meta_ads"`
	GoogleAds PlatformData `json:"google_ads"`
}

// Report is a computed aggregation snapshot. Once persisted it is never
// mutated.
type Report struct {
	ID               string            `json:"id,omitempty"`
	ClientID         string            `json:"client_id"`
	ClientName       string            `json:"client_name"`
	Period           Period            `json:"period"`
	StartDate        time.Time         `json:"start_date"`
	EndDate          time.Time         `json:"end_date"`
	TotalSpend       float64           `json:"total_spend"`
	TotalConversions int64             `json:"total_conversions"`
	TotalImpressions int64             `json:"total_impressions"`
	TotalClicks      int64             `json:"total_clicks"`
	AvgROAS          float64           `json:"avg_roas"`
	AvgCPC           float64           `json:"avg_cpc"`
	AvgCPM           float64           `json:"avg_cpm"`
	AvgCTR           float64           `json:"avg_ctr"`
	Platforms        Platforms         `json:"platforms"`
	Campaigns        []CampaignSummary `json:"campaigns"`
	TopCampaigns     []CampaignSummary `json:"top_campaigns"`
	Insights         []string          `json:"insights"`
}
