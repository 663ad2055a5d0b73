package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WebhookChannel POSTs the notification payload as JSON to a configured URL.
type WebhookChannel struct {
	url        string
	httpClient *http.Client
}

// NewWebhookChannel creates a webhook channel with the given delivery timeout.
func NewWebhookChannel(url string, timeout time.Duration) *WebhookChannel {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookChannel{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Name returns "webhook".
func (c *WebhookChannel) Name() string { return "webhook" }

// Notify delivers the payload. Any non-2xx response is a failure.
func (c *WebhookChannel) Notify(ctx context.Context, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("webhook: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("webhook: status %d: %s", resp.StatusCode, string(detail))
	}
	return nil
}
