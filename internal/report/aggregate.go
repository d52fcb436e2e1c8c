// internal/report/aggregate.go
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/clientpulse/clientpulse/internal/storage/models"
)

// CPC thresholds driving the cost insights.
const (
	cpcHighWatermark      = 2.0
	cpcExcellentWatermark = 1.0
)

// Spend-concentration bounds for the Meta share insight, in percent.
const (
	metaShareHigh = 70.0
	metaShareLow  = 30.0
)

// Aggregate computes a Report from a client's campaigns and metric rows over
// a date range. Pure: no I/O, deterministic for identical input.
func Aggregate(client *models.Client, campaigns []*models.Campaign, metrics []*models.Metric, period Period, window Range, values ConversionValues, topN int) *Report {
	var (
		totalSpend, revenue                   float64
		totalConversions, totalImpr, totalClk int64
		meta, google                          PlatformData
	)

	byCampaign := make(map[string]*CampaignSummary)
	summaries := make([]CampaignSummary, 0, len(campaigns))
	for _, c := range campaigns {
		summaries = append(summaries, CampaignSummary{
			ID:       c.ID,
			Name:     c.Name,
			Platform: c.Platform,
			Status:   c.Status,
		})
	}
	for i := range summaries {
		byCampaign[summaries[i].ID] = &summaries[i]
	}

	for _, m := range metrics {
		totalSpend += m.Spend
		totalConversions += m.Conversions
		totalImpr += m.Impressions
		totalClk += m.Clicks
		revenue += float64(m.Conversions) * values.For(m.Platform)

		switch m.Platform {
		case models.PlatformGoogleAds:
			google.Spend += m.Spend
			google.Conversions += m.Conversions
			google.Impressions += m.Impressions
			google.Clicks += m.Clicks
		default:
			meta.Spend += m.Spend
			meta.Conversions += m.Conversions
			meta.Impressions += m.Impressions
			meta.Clicks += m.Clicks
		}

		if s, ok := byCampaign[m.CampaignID]; ok {
			s.Spend += m.Spend
			s.Conversions += m.Conversions
		}
	}

	fillRatios(&meta, values.MetaAds)
	fillRatios(&google, values.GoogleAds)

	for i := range summaries {
		s := &summaries[i]
		s.ROAS = roas(s.Conversions, values.For(s.Platform), s.Spend)
	}

	return &Report{
		ClientID:         client.ID,
		ClientName:       client.Name,
		Period:           period,
		StartDate:        window.Start,
		EndDate:          window.End,
		TotalSpend:       totalSpend,
		TotalConversions: totalConversions,
		TotalImpressions: totalImpr,
		TotalClicks:      totalClk,
		AvgROAS:          safeDiv(revenue, totalSpend),
		AvgCPC:           safeDiv(totalSpend, float64(totalClk)),
		AvgCPM:           safeDiv(totalSpend, float64(totalImpr)) * 1000,
		AvgCTR:           safeDiv(float64(totalClk), float64(totalImpr)) * 100,
		Platforms:        Platforms{MetaAds: meta, GoogleAds: google},
		Campaigns:        summaries,
		TopCampaigns:     topByROAS(summaries, topN),
		Insights:         deriveInsights(totalSpend, totalClk, meta, google, summaries),
	}
}

// topByROAS returns the ROAS-descending prefix of length min(n, len).
// The sort is stable so ties keep their original order.
func topByROAS(summaries []CampaignSummary, n int) []CampaignSummary {
	ranked := make([]CampaignSummary, len(summaries))
	copy(ranked, summaries)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].ROAS > ranked[j].ROAS })
	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n]
}

// deriveInsights evaluates the fixed rule sequence. Rules are independent
// and all evaluated on every call, appended in order.
func deriveInsights(totalSpend float64, totalClicks int64, meta, google PlatformData, campaigns []CampaignSummary) []string {
	insights := []string{}

	// 1. Platform performance comparison; skipped when exactly equal.
	if meta.ROAS > google.ROAS {
		insights = append(insights, fmt.Sprintf(
			"Meta Ads is outperforming Google Ads with a ROAS of %.1fx vs %.1fx", meta.ROAS, google.ROAS))
	} else if google.ROAS > meta.ROAS {
		insights = append(insights, fmt.Sprintf(
			"Google Ads is outperforming Meta Ads with a ROAS of %.1fx vs %.1fx", google.ROAS, meta.ROAS))
	}

	// 2. CPC thresholds; high and excellent are mutually exclusive. A
	// window with no clicks resolves to $0.00 and still reads as excellent.
	avgCPC := safeDiv(totalSpend, float64(totalClicks))
	if avgCPC > cpcHighWatermark {
		insights = append(insights, fmt.Sprintf(
			"Average CPC of $%.2f is above target. Consider tightening audience targeting.", avgCPC))
	} else if avgCPC < cpcExcellentWatermark {
		insights = append(insights, fmt.Sprintf(
			"Excellent average CPC of $%.2f. Keep the current strategy.", avgCPC))
	}

	// 3. Paused campaigns.
	paused := 0
	for _, c := range campaigns {
		if strings.EqualFold(c.Status, models.CampaignStatusPaused) {
			paused++
		}
	}
	if paused > 0 {
		insights = append(insights, fmt.Sprintf(
			"%d paused campaign(s). Check whether they should be reactivated.", paused))
	}

	// 4. Spend concentration on Meta.
	if totalSpend > 0 {
		metaShare := meta.Spend / totalSpend * 100
		if metaShare > metaShareHigh {
			insights = append(insights, fmt.Sprintf(
				"%.0f%% of spend is concentrated on Meta Ads. Consider diversifying.", metaShare))
		} else if metaShare < metaShareLow {
			insights = append(insights, fmt.Sprintf(
				"Only %.0f%% of spend is on Meta Ads. Consider increasing the Meta budget.", metaShare))
		}
	}

	return insights
}

func fillRatios(p *PlatformData, conversionValue float64) {
	p.ROAS = roas(p.Conversions, conversionValue, p.Spend)
	p.CPC = safeDiv(p.Spend, float64(p.Clicks))
	p.CPM = safeDiv(p.Spend, float64(p.Impressions)) * 1000
	p.CTR = safeDiv(float64(p.Clicks), float64(p.Impressions)) * 100
}

// roas is return on ad spend: conversions times the assumed value per
// conversion, divided by spend. Zero when spend is zero.
func roas(conversions int64, value, spend float64) float64 {
	return safeDiv(float64(conversions)*value, spend)
}

func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
