// internal/report/templates.go
package report

import (
	"fmt"
	"strings"
)

const dateLayout = "2006-01-02"

// RenderChatMessage renders the report as a chat-ready text message.
func RenderChatMessage(r *Report, dashboardURL string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📊 *%s Report - %s*\n\n", r.Period.Title(), r.ClientName)
	fmt.Fprintf(&b, "📅 Period: %s to %s\n\n", r.StartDate.Format(dateLayout), r.EndDate.Format(dateLayout))

	b.WriteString("💰 *Summary*\n")
	fmt.Fprintf(&b, "• Total Spend: $%.2f\n", r.TotalSpend)
	fmt.Fprintf(&b, "• Conversions: %d\n", r.TotalConversions)
	fmt.Fprintf(&b, "• Avg ROAS: %.1fx\n", r.AvgROAS)
	fmt.Fprintf(&b, "• Avg CPC: $%.2f\n\n", r.AvgCPC)

	b.WriteString("📱 *Meta Ads*\n")
	writePlatformLines(&b, r.Platforms.MetaAds)
	b.WriteString("\n🔍 *Google Ads*\n")
	writePlatformLines(&b, r.Platforms.GoogleAds)

	if len(r.TopCampaigns) > 0 {
		fmt.Fprintf(&b, "\n🏆 *Top %d Campaigns*\n", len(r.TopCampaigns))
		for i, c := range r.TopCampaigns {
			fmt.Fprintf(&b, "%d. %s - ROAS: %.1fx\n", i+1, c.Name, c.ROAS)
		}
	}

	if len(r.Insights) > 0 {
		b.WriteString("\n💡 *Insights*\n")
		for _, insight := range r.Insights {
			fmt.Fprintf(&b, "• %s\n", insight)
		}
	}

	if dashboardURL != "" {
		fmt.Fprintf(&b, "\n🔗 Full dashboard: %s/dashboard", dashboardURL)
	}

	return b.String()
}

func writePlatformLines(b *strings.Builder, p PlatformData) {
	fmt.Fprintf(b, "• Spend: $%.2f\n", p.Spend)
	fmt.Fprintf(b, "• Conversions: %d\n", p.Conversions)
	fmt.Fprintf(b, "• ROAS: %.1fx\n", p.ROAS)
}

// RenderEmailHTML renders the report as a standalone HTML document.
func RenderEmailHTML(r *Report, dashboardURL string) string {
	var b strings.Builder

	fmt.Fprintf(&b, `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s Report - %s</title>
<style>
body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
.container { max-width: 800px; margin: 0 auto; padding: 20px; }
.header { background: #3b82f6; color: white; padding: 20px; border-radius: 8px; text-align: center; }
.metric-card { background: #f8fafc; padding: 16px; border-radius: 8px; border-left: 4px solid #3b82f6; margin: 8px 0; }
.campaigns-table { width: 100%%; border-collapse: collapse; margin: 20px 0; }
.campaigns-table th, .campaigns-table td { padding: 10px; text-align: left; border-bottom: 1px solid #e2e8f0; }
.insights { background: #fef3c7; padding: 16px; border-radius: 8px; border-left: 4px solid #f59e0b; }
</style>
</head>
<body>
<div class="container">
<div class="header"><h1>%s Report</h1><h2>%s</h2><p>Period: %s to %s</p></div>
`,
		r.Period.Title(), htmlEscape(r.ClientName),
		r.Period.Title(), htmlEscape(r.ClientName),
		r.StartDate.Format(dateLayout), r.EndDate.Format(dateLayout))

	fmt.Fprintf(&b, `<div class="metric-card">Total Spend: <b>$%.2f</b></div>
<div class="metric-card">Conversions: <b>%d</b></div>
<div class="metric-card">Avg ROAS: <b>%.1fx</b></div>
<div class="metric-card">Avg CPC: <b>$%.2f</b></div>
`, r.TotalSpend, r.TotalConversions, r.AvgROAS, r.AvgCPC)

	fmt.Fprintf(&b, `<h3>📱 Meta Ads</h3><p>Spend $%.2f · Conversions %d · ROAS %.1fx</p>
<h3>🔍 Google Ads</h3><p>Spend $%.2f · Conversions %d · ROAS %.1fx</p>
`,
		r.Platforms.MetaAds.Spend, r.Platforms.MetaAds.Conversions, r.Platforms.MetaAds.ROAS,
		r.Platforms.GoogleAds.Spend, r.Platforms.GoogleAds.Conversions, r.Platforms.GoogleAds.ROAS)

	if len(r.TopCampaigns) > 0 {
		b.WriteString(`<h3>🏆 Top Campaigns</h3><table class="campaigns-table"><tr><th>Campaign</th><th>Platform</th><th>Spend</th><th>Conversions</th><th>ROAS</th></tr>`)
		for _, c := range r.TopCampaigns {
			fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td><td>$%.2f</td><td>%d</td><td>%.1fx</td></tr>",
				htmlEscape(c.Name), platformLabel(c.Platform), c.Spend, c.Conversions, c.ROAS)
		}
		b.WriteString("</table>")
	}

	if len(r.Insights) > 0 {
		b.WriteString(`<div class="insights"><h3>💡 Insights</h3><ul>`)
		for _, insight := range r.Insights {
			fmt.Fprintf(&b, "<li>%s</li>", htmlEscape(insight))
		}
		b.WriteString("</ul></div>")
	}

	if dashboardURL != "" {
		fmt.Fprintf(&b, `<p><a href="%s/dashboard">Open the full dashboard</a></p>`, dashboardURL)
	}

	b.WriteString("</div></body></html>")
	return b.String()
}

// RenderBlocks renders the report as a structured-block payload for
// chat-ops integrations.
func RenderBlocks(r *Report) map[string]interface{} {
	fields := []map[string]interface{}{
		{"type": "mrkdwn", "text": fmt.Sprintf("*Total Spend:*\n$%.2f", r.TotalSpend)},
		{"type": "mrkdwn", "text": fmt.Sprintf("*Conversions:*\n%d", r.TotalConversions)},
		{"type": "mrkdwn", "text": fmt.Sprintf("*Avg ROAS:*\n%.1fx", r.AvgROAS)},
		{"type": "mrkdwn", "text": fmt.Sprintf("*Avg CPC:*\n$%.2f", r.AvgCPC)},
	}

	blocks := []map[string]interface{}{
		{
			"type": "header",
			"text": map[string]interface{}{
				"type": "plain_text",
				"text": fmt.Sprintf("📊 %s Report - %s", r.Period.Title(), r.ClientName),
			},
		},
		{"type": "section", "fields": fields},
	}

	if len(r.Insights) > 0 {
		blocks = append(blocks, map[string]interface{}{
			"type": "section",
			"text": map[string]interface{}{
				"type": "mrkdwn",
				"text": "💡 " + strings.Join(r.Insights, "\n• "),
			},
		})
	}

	return map[string]interface{}{
		"text":   fmt.Sprintf("%s Report - %s", r.Period.Title(), r.ClientName),
		"blocks": blocks,
	}
}

// DocumentSection is one titled block of lines in a document rendering.
type DocumentSection struct {
	Title string   `json:"title"`
	Lines []string `json:"lines"`
}

// DocumentData is the intermediate structure handed to document generators.
type DocumentData struct {
	Title    string            `json:"title"`
	Subtitle string            `json:"subtitle"`
	Sections []DocumentSection `json:"sections"`
}

// RenderDocumentData renders the report into labeled sections for document
// generation.
func RenderDocumentData(r *Report) DocumentData {
	summary := DocumentSection{
		Title: "Executive Summary",
		Lines: []string{
			fmt.Sprintf("Total Spend: $%.2f", r.TotalSpend),
			fmt.Sprintf("Total Conversions: %d", r.TotalConversions),
			fmt.Sprintf("Avg ROAS: %.1fx", r.AvgROAS),
			fmt.Sprintf("Avg CPC: $%.2f", r.AvgCPC),
		},
	}

	platforms := DocumentSection{
		Title: "Platform Performance",
		Lines: []string{
			"Meta Ads:",
			fmt.Sprintf("  Spend: $%.2f", r.Platforms.MetaAds.Spend),
			fmt.Sprintf("  Conversions: %d", r.Platforms.MetaAds.Conversions),
			fmt.Sprintf("  ROAS: %.1fx", r.Platforms.MetaAds.ROAS),
			"",
			"Google Ads:",
			fmt.Sprintf("  Spend: $%.2f", r.Platforms.GoogleAds.Spend),
			fmt.Sprintf("  Conversions: %d", r.Platforms.GoogleAds.Conversions),
			fmt.Sprintf("  ROAS: %.1fx", r.Platforms.GoogleAds.ROAS),
		},
	}

	top := DocumentSection{Title: "Top Campaigns"}
	for i, c := range r.TopCampaigns {
		top.Lines = append(top.Lines, fmt.Sprintf("%d. %s - ROAS: %.1fx ($%.2f)", i+1, c.Name, c.ROAS, c.Spend))
	}

	insights := DocumentSection{Title: "Insights", Lines: r.Insights}

	return DocumentData{
		Title:    fmt.Sprintf("%s Report - %s", r.Period.Title(), r.ClientName),
		Subtitle: fmt.Sprintf("Period: %s to %s", r.StartDate.Format(dateLayout), r.EndDate.Format(dateLayout)),
		Sections: []DocumentSection{summary, platforms, top, insights},
	}
}

// AlertKind tags an alert message template.
type AlertKind string

const (
	AlertBudget      AlertKind = "budget"
	AlertPerformance AlertKind = "performance"
	AlertGeneric     AlertKind = "generic"
)

// RenderAlert renders an alert notice. Unknown kinds fall back to the
// generic template rather than failing.
func RenderAlert(kind AlertKind, clientName, detail string) string {
	switch kind {
	case AlertBudget:
		return fmt.Sprintf("⚠️ Budget alert for %s: %s", clientName, detail)
	case AlertPerformance:
		return fmt.Sprintf("📉 Performance alert for %s: %s", clientName, detail)
	default:
		return fmt.Sprintf("🔔 Alert for %s: %s", clientName, detail)
	}
}

func platformLabel(platform string) string {
	if platform == "google_ads" {
		return "Google Ads"
	}
	return "Meta Ads"
}

func htmlEscape(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
	)
	return replacer.Replace(s)
}
