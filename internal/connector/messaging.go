// internal/connector/messaging.go
package connector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MessagingConfig points at an Evolution-API-compatible gateway instance.
type MessagingConfig struct {
	BaseURL  string
	Token    string
	Instance string
}

// Messaging sends chat messages through a WhatsApp gateway. Transient
// transport failures are retried inside the connector; the pipeline itself
// never retries.
type Messaging struct {
	cfg    MessagingConfig
	client *http.Client
	logger *zap.Logger
}

func NewMessaging(cfg MessagingConfig, logger *zap.Logger) *Messaging {
	return &Messaging{
		cfg: cfg,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger.Named("messaging"),
	}
}

func (m *Messaging) Name() string       { return "evolution_api" }
func (m *Messaging) Platform() Platform { return PlatformMessaging }

func (m *Messaging) Authenticate(_ context.Context) error {
	if m.cfg.BaseURL == "" || m.cfg.Token == "" || m.cfg.Instance == "" {
		return newError(m.Name(), "authenticate", errors.New("gateway credentials not configured"))
	}
	return nil
}

func (m *Messaging) IsConnected(_ context.Context) bool {
	return m.cfg.BaseURL != "" && m.cfg.Token != "" && m.cfg.Instance != ""
}

type sendPayload struct {
	Number string `json:"number"`
	Text   string `json:"text"`
}

type sendResponse struct {
	Key struct {
		ID string `json:"id"`
	} `json:"key"`
}

// Send posts the content to the gateway and returns the delivery id.
func (m *Messaging) Send(ctx context.Context, recipient, content string) (string, error) {
	if !m.IsConnected(ctx) {
		return "", newError(m.Name(), "send", errors.New("gateway not configured"))
	}

	payload, err := json.Marshal(sendPayload{
		Number: digitsOnly(recipient),
		Text:   content,
	})
	if err != nil {
		return "", newError(m.Name(), "send", err)
	}

	url := fmt.Sprintf("%s/message/sendText/%s", strings.TrimRight(m.cfg.BaseURL, "/"), m.cfg.Instance)

	operation := func() ([]byte, error) {
		return m.post(ctx, url, payload)
	}

	body, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(3),
	)
	if err != nil {
		return "", newError(m.Name(), "send", err)
	}

	var resp sendResponse
	if err := json.Unmarshal(body, &resp); err != nil || resp.Key.ID == "" {
		// Gateways without message keys still accepted the send.
		return uuid.New().String(), nil
	}

	m.logger.Debug("Message accepted", zap.String("delivery_id", resp.Key.ID))
	return resp.Key.ID, nil
}

// Status queries the gateway for the delivery state of a sent message.
func (m *Messaging) Status(ctx context.Context, deliveryID string) (*DeliveryStatus, error) {
	if !m.IsConnected(ctx) {
		return nil, newError(m.Name(), "status", errors.New("gateway not configured"))
	}

	url := fmt.Sprintf("%s/message/status/%s", strings.TrimRight(m.cfg.BaseURL, "/"), deliveryID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, newError(m.Name(), "status", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.cfg.Token)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, newError(m.Name(), "status", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newError(m.Name(), "status", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var status struct {
		ID        string    `json:"id"`
		Status    string    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, newError(m.Name(), "status", err)
	}

	return &DeliveryStatus{
		ID:        status.ID,
		Status:    status.Status,
		Timestamp: status.Timestamp,
	}, nil
}

func (m *Messaging) post(ctx context.Context, url string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Authorization", "Bearer "+m.cfg.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode >= 500:
		// Gateway hiccup, worth another try.
		return nil, fmt.Errorf("gateway returned %d", resp.StatusCode)
	default:
		return nil, backoff.Permanent(fmt.Errorf("gateway rejected request with %d", resp.StatusCode))
	}
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
