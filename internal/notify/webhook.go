package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/username-escrow/backend/internal/events"
	"go.uber.org/zap"
)

// WebhookClient POSTs ledger events as JSON to an external endpoint.
type WebhookClient struct {
	url        string
	httpClient *http.Client
	log        *zap.Logger
}

func NewWebhookClient(url string, timeout time.Duration, log *zap.Logger) *WebhookClient {
	return &WebhookClient{
		url: strings.TrimRight(url, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

type webhookBody struct {
	Channel string       `json:"channel"`
	Event   events.Event `json:"event"`
}

func (c *WebhookClient) Publish(ctx context.Context, channel string, event events.Event) error {
	body, err := json.Marshal(webhookBody{Channel: channel, Event: event})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(string(body)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, string(b))
	}
	return nil
}
