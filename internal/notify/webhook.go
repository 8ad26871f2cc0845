package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"gymtrack/internal/gym"
)

// WebhookNotifier posts notifications to an HTTP push gateway. The gateway
// is responsible for delivering scheduled notifications after the delay.
type WebhookNotifier struct {
	url    string
	token  string
	client *http.Client
}

// webhookPayload is the gateway's request body.
type webhookPayload struct {
	Action   string `json:"action"` // "notify" or "schedule"
	DelaySec int64  `json:"delay_sec,omitempty"`
	Title    string `json:"title"`
	Body     string `json:"body"`
}

// NewWebhookNotifier creates a notifier that posts to the given URL.
// The token, if non-empty, is sent as a bearer token.
func NewWebhookNotifier(url, token string) *WebhookNotifier {
	return &WebhookNotifier{
		url:   url,
		token: token,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (n *WebhookNotifier) Notify(ctx context.Context, title, body string) error {
	return n.post(ctx, webhookPayload{Action: "notify", Title: title, Body: body})
}

func (n *WebhookNotifier) Schedule(ctx context.Context, delay time.Duration, title, body string) error {
	if delay < 0 {
		return fmt.Errorf("delay must not be negative")
	}
	return n.post(ctx, webhookPayload{
		Action:   "schedule",
		DelaySec: int64(delay / time.Second),
		Title:    title,
		Body:     body,
	})
}

func (n *WebhookNotifier) post(ctx context.Context, payload webhookPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("building notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.token != "" {
		req.Header.Set("Authorization", "Bearer "+n.token)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification gateway returned status %d", resp.StatusCode)
	}
	return nil
}

// Compile-time check that WebhookNotifier implements the Notifier interface
var _ gym.Notifier = (*WebhookNotifier)(nil)
