package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clientpulse/clientpulse/internal/connector"
	"github.com/clientpulse/clientpulse/internal/report"
	"github.com/clientpulse/clientpulse/internal/storage/memory"
)

type stubMessenger struct {
	lastContent string
	sendErr     error
}

func (s *stubMessenger) Name() string                         { return "stub" }
func (s *stubMessenger) Platform() connector.Platform         { return connector.PlatformMessaging }
func (s *stubMessenger) Authenticate(_ context.Context) error { return nil }
func (s *stubMessenger) IsConnected(_ context.Context) bool   { return true }

func (s *stubMessenger) Send(_ context.Context, _, content string) (string, error) {
	if s.sendErr != nil {
		return "", s.sendErr
	}
	s.lastContent = content
	return "delivery-42", nil
}

func (s *stubMessenger) Status(_ context.Context, id string) (*connector.DeliveryStatus, error) {
	return &connector.DeliveryStatus{ID: id, Status: "delivered", Timestamp: time.Now()}, nil
}

func testReport() *report.Report {
	return &report.Report{
		ClientID:   "client-1",
		ClientName: "Acme Corp",
		Period:     report.PeriodWeekly,
		StartDate:  time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
		TotalSpend: 1250.50,
	}
}

func TestDispatchWhatsAppRecordsDelivery(t *testing.T) {
	store := memory.New()
	messenger := &stubMessenger{}
	d := NewDispatcher(store, "https://app.example.com", zap.NewNop())
	d.BindChannel(ChannelWhatsApp, messenger)

	outcome := d.Dispatch(context.Background(), testReport(), ChannelWhatsApp, "+5511999990000")

	require.True(t, outcome.Sent(), "outcome err: %v", outcome.Err)
	assert.Equal(t, "delivery-42", outcome.DeliveryID)
	assert.Contains(t, messenger.lastContent, "Weekly Report - Acme Corp")

	deliveries := store.Deliveries()
	require.Len(t, deliveries, 1)
	assert.Equal(t, "whatsapp", deliveries[0].Channel)
	assert.Equal(t, "+5511999990000", deliveries[0].Recipient)
	assert.Equal(t, "report_weekly", deliveries[0].Template)
	assert.Equal(t, "sent", deliveries[0].Status)
}

func TestDispatchEmailRendersHTML(t *testing.T) {
	store := memory.New()
	messenger := &stubMessenger{}
	d := NewDispatcher(store, "", zap.NewNop())
	d.BindChannel(ChannelEmail, messenger)

	outcome := d.Dispatch(context.Background(), testReport(), ChannelEmail, "ads@acme.example")

	require.True(t, outcome.Sent())
	assert.Contains(t, messenger.lastContent, "<!DOCTYPE html>")
}

func TestDispatchSlackProducesBlockPayload(t *testing.T) {
	store := memory.New()
	messenger := &stubMessenger{}
	d := NewDispatcher(store, "", zap.NewNop())
	d.BindChannel(ChannelSlack, messenger)

	outcome := d.Dispatch(context.Background(), testReport(), ChannelSlack, "#marketing")

	require.True(t, outcome.Sent())

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(messenger.lastContent), &payload))
	assert.Contains(t, payload, "blocks")
}

func TestDispatchUnboundChannel(t *testing.T) {
	d := NewDispatcher(memory.New(), "", zap.NewNop())

	outcome := d.Dispatch(context.Background(), testReport(), ChannelEmail, "ads@acme.example")

	assert.False(t, outcome.Sent())
	assert.ErrorContains(t, outcome.Err, "no connector bound")
}

func TestDispatchSendFailureNoDeliveryRecord(t *testing.T) {
	store := memory.New()
	d := NewDispatcher(store, "", zap.NewNop())
	d.BindChannel(ChannelWhatsApp, &stubMessenger{sendErr: errors.New("gateway down")})

	outcome := d.Dispatch(context.Background(), testReport(), ChannelWhatsApp, "+5511999990000")

	assert.False(t, outcome.Sent())
	assert.Empty(t, store.Deliveries(), "failed sends must not be recorded as sent")
}

func TestDispatchAlert(t *testing.T) {
	store := memory.New()
	messenger := &stubMessenger{}
	d := NewDispatcher(store, "", zap.NewNop())
	d.BindChannel(ChannelWhatsApp, messenger)

	outcome := d.DispatchAlert(context.Background(), report.AlertBudget, "client-1", "Acme Corp", "daily spend $1500.00 exceeded the $1000.00 limit", ChannelWhatsApp, "+5511999990000")

	require.True(t, outcome.Sent())
	assert.Contains(t, messenger.lastContent, "Budget alert for Acme Corp")

	deliveries := store.Deliveries()
	require.Len(t, deliveries, 1)
	assert.Equal(t, "alert_budget", deliveries[0].Template)
}
