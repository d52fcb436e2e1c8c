// internal/dispatch/dispatch.go
// Package dispatch renders reports and alerts into channel payloads and
// hands them to messaging connectors, recording each delivery.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/clientpulse/clientpulse/internal/connector"
	"github.com/clientpulse/clientpulse/internal/report"
	"github.com/clientpulse/clientpulse/internal/storage"
	"github.com/clientpulse/clientpulse/internal/storage/models"
)

// Channel names a delivery route.
type Channel string

const (
	ChannelWhatsApp Channel = "whatsapp"
	ChannelEmail    Channel = "email"
	ChannelSlack    Channel = "slack"
)

// Outcome describes one dispatch attempt. Failures are carried in Err so the
// calling task handler decides what the whole execution's status should be.
type Outcome struct {
	Channel    Channel
	Recipient  string
	DeliveryID string
	SentAt     time.Time
	Err        error
}

// Sent reports whether the dispatch succeeded.
func (o Outcome) Sent() bool { return o.Err == nil }

// Dispatcher routes rendered content to the connector bound to each channel.
type Dispatcher struct {
	mu           sync.RWMutex
	channels     map[Channel]connector.MessagingConnector
	store        storage.Storage
	dashboardURL string
	logger       *zap.Logger
	now          func() time.Time
}

func NewDispatcher(store storage.Storage, dashboardURL string, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		channels:     make(map[Channel]connector.MessagingConnector),
		store:        store,
		dashboardURL: dashboardURL,
		logger:       logger.Named("dispatch"),
		now:          time.Now,
	}
}

// BindChannel attaches a messaging connector to a channel.
func (d *Dispatcher) BindChannel(ch Channel, conn connector.MessagingConnector) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.channels[ch] = conn
}

func (d *Dispatcher) channel(ch Channel) (connector.MessagingConnector, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	conn, ok := d.channels[ch]
	if !ok {
		return nil, fmt.Errorf("no connector bound to channel %q", ch)
	}
	return conn, nil
}

// Dispatch renders the report for the channel and attempts delivery. The
// returned Outcome carries any failure instead of an error return.
func (d *Dispatcher) Dispatch(ctx context.Context, rep *report.Report, ch Channel, recipient string) Outcome {
	content, err := renderFor(rep, ch, d.dashboardURL)
	if err != nil {
		return Outcome{Channel: ch, Recipient: recipient, Err: err}
	}

	template := fmt.Sprintf("report_%s", rep.Period)
	return d.send(ctx, ch, recipient, rep.ClientID, content, template)
}

// DispatchAlert renders and delivers an alert notice.
func (d *Dispatcher) DispatchAlert(ctx context.Context, kind report.AlertKind, clientID, clientName, detail string, ch Channel, recipient string) Outcome {
	content := report.RenderAlert(kind, clientName, detail)
	template := fmt.Sprintf("alert_%s", kind)
	return d.send(ctx, ch, recipient, clientID, content, template)
}

func (d *Dispatcher) send(ctx context.Context, ch Channel, recipient, clientID, content, template string) Outcome {
	outcome := Outcome{Channel: ch, Recipient: recipient}

	conn, err := d.channel(ch)
	if err != nil {
		outcome.Err = err
		return outcome
	}

	deliveryID, err := conn.Send(ctx, recipient, content)
	if err != nil {
		d.logger.Warn("Dispatch failed",
			zap.String("channel", string(ch)),
			zap.String("recipient", recipient),
			zap.Error(err))
		outcome.Err = err
		return outcome
	}

	outcome.DeliveryID = deliveryID
	outcome.SentAt = d.now()

	delivery := &models.Delivery{
		ClientID:  clientID,
		Channel:   string(ch),
		Recipient: recipient,
		Content:   content,
		Template:  template,
		Status:    models.DeliverySent,
		SentAt:    outcome.SentAt,
	}
	if err := d.store.SaveDelivery(ctx, delivery); err != nil {
		outcome.Err = fmt.Errorf("record delivery: %w", err)
		return outcome
	}

	d.logger.Info("Dispatched",
		zap.String("channel", string(ch)),
		zap.String("recipient", recipient),
		zap.String("delivery_id", deliveryID))

	return outcome
}

func renderFor(rep *report.Report, ch Channel, dashboardURL string) (string, error) {
	switch ch {
	case ChannelWhatsApp:
		return report.RenderChatMessage(rep, dashboardURL), nil
	case ChannelEmail:
		return report.RenderEmailHTML(rep, dashboardURL), nil
	case ChannelSlack:
		payload, err := json.Marshal(report.RenderBlocks(rep))
		if err != nil {
			return "", fmt.Errorf("marshal block payload: %w", err)
		}
		return string(payload), nil
	default:
		return "", fmt.Errorf("no renderer for channel %q", ch)
	}
}
