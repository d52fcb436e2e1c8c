// internal/report/generator.go
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/clientpulse/clientpulse/internal/storage"
	"github.com/clientpulse/clientpulse/internal/storage/models"
)

// Generator builds reports from stored metrics and persists each one as an
// immutable snapshot.
type Generator struct {
	store  storage.Storage
	values ConversionValues
	topN   int
	logger *zap.Logger
	now    func() time.Time
}

func NewGenerator(store storage.Storage, values ConversionValues, topN int, logger *zap.Logger) *Generator {
	return &Generator{
		store:  store,
		values: values,
		topN:   topN,
		logger: logger.Named("report_generator"),
		now:    time.Now,
	}
}

// Generate computes a report for the client over the resolved period, saves
// the snapshot and returns the computed report.
func (g *Generator) Generate(ctx context.Context, clientID string, period Period, start, end *time.Time) (*Report, error) {
	window, err := resolvePeriodAt(g.now(), period, start, end)
	if err != nil {
		return nil, err
	}

	client, err := g.store.GetClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("load client %s: %w", clientID, err)
	}

	campaigns, err := g.store.ListCampaignsByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}

	campaignIDs := make([]string, 0, len(campaigns))
	for _, c := range campaigns {
		campaignIDs = append(campaignIDs, c.ID)
	}

	metrics, err := g.store.QueryMetrics(ctx, campaignIDs, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}

	rep := Aggregate(client, campaigns, metrics, period, window, g.values, g.topN)

	if err := g.saveSnapshot(ctx, rep); err != nil {
		return nil, err
	}

	g.logger.Info("Report generated",
		zap.String("client_id", clientID),
		zap.String("period", string(period)),
		zap.Int("campaigns", len(campaigns)),
		zap.Int("metric_rows", len(metrics)),
		zap.Float64("total_spend", rep.TotalSpend))

	return rep, nil
}

func (g *Generator) saveSnapshot(ctx context.Context, rep *Report) error {
	data, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	row := &models.Report{
		ClientID:  rep.ClientID,
		Title:     fmt.Sprintf("%s Report - %s", rep.Period.Title(), rep.ClientName),
		Period:    string(rep.Period),
		StartDate: rep.StartDate,
		EndDate:   rep.EndDate,
		Data:      data,
		Status:    "generated",
	}
	if err := g.store.SaveReport(ctx, row); err != nil {
		return fmt.Errorf("save report snapshot: %w", err)
	}

	rep.ID = row.ID
	return nil
}

// History returns the most recent report snapshots for a client.
func (g *Generator) History(ctx context.Context, clientID string, limit int) ([]*models.Report, error) {
	return g.store.ListReports(ctx, clientID, limit)
}
