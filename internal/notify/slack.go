// Package notify posts job notifications to chat.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	ferrors "git.home.luguber.info/inful/docworker/internal/foundation/errors"
)

// maxMessageLen keeps long build logs under Slack's message size limit.
const maxMessageLen = 39000

// SlackSender sends messages via a Slack incoming webhook URL.
type SlackSender struct {
	WebhookURL string
	Channel    string
	Client     *http.Client
}

// NewSlackSender returns a sender with a bounded HTTP timeout.
func NewSlackSender(webhookURL, channel string) *SlackSender {
	return &SlackSender{
		WebhookURL: webhookURL,
		Channel:    channel,
		Client:     &http.Client{Timeout: 15 * time.Second},
	}
}

// Send posts message to the webhook.
func (s *SlackSender) Send(ctx context.Context, message string) error {
	if s.WebhookURL == "" {
		return ferrors.ConfigError("slack webhook_url not configured").Build()
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	if len(message) > maxMessageLen {
		message = message[:maxMessageLen] + "\n…(truncated)"
	}
	payload := map[string]string{"text": message}
	if s.Channel != "" {
		payload["channel"] = s.Channel
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryNetwork, "slack send").Retryable().Build()
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return ferrors.NetworkError(fmt.Sprintf("slack webhook returned %d", resp.StatusCode)).
			WithContext("status", resp.StatusCode).
			Build()
	}
	return nil
}
