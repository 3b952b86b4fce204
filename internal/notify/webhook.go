package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/thomas-vilte/matereview/internal/models"
	"github.com/thomas-vilte/matereview/internal/version"
)

type webhookPayload struct {
	Title       string            `json:"title"`
	Summary     string            `json:"summary"`
	Severity    models.Severity   `json:"severity"`
	Link        string            `json:"link,omitempty"`
	Metadata    map[string]string `json:"metadata"`
	CompletedAt time.Time         `json:"completed_at"`
}

// WebhookNotifier posts a JSON summary of the review to a URL.
type WebhookNotifier struct {
	url     string
	enabled bool
	client  *http.Client
}

func NewWebhookNotifier(url string, enabled bool, client *http.Client) *WebhookNotifier {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &WebhookNotifier{url: url, enabled: enabled, client: client}
}

func (n *WebhookNotifier) Name() string { return "webhook" }

func (n *WebhookNotifier) IsEnabled() bool {
	return n.enabled && n.url != ""
}

func (n *WebhookNotifier) Send(ctx context.Context, msg models.NotificationMessage) error {
	body, err := json.Marshal(webhookPayload{
		Title:       msg.Title,
		Summary:     msg.Summary,
		Severity:    msg.Severity,
		Link:        msg.Link(),
		Metadata:    msg.Metadata,
		CompletedAt: msg.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("encoding webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "matereview/"+version.Version)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
