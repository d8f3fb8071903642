package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WebhookSender posts reminder batches to an external delivery endpoint.
// The endpoint maps the user's device token to an actual push channel
// and turns the delivered yes/no action back into a check-in call.
type WebhookSender struct {
	endpoint string
	client   *http.Client
}

func NewWebhookSender(endpoint string) *WebhookSender {
	return &WebhookSender{
		endpoint: endpoint,
		client: &http.Client{
			Timeout: 8 * time.Second,
		},
	}
}

type webhookReminderPayload struct {
	DeviceToken string   `json:"device_token"`
	Experiments []string `json:"experiments"`
}

func (sender *WebhookSender) SendReminder(ctx context.Context, batch ReminderBatch) error {
	names := make([]string, 0, len(batch.Experiments))
	for _, experiment := range batch.Experiments {
		names = append(names, experiment.Name)
	}

	body, err := json.Marshal(webhookReminderPayload{
		DeviceToken: batch.User.DeviceToken,
		Experiments: names,
	})
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sender.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := sender.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("delivery status %d: %s", resp.StatusCode, string(snippet))
	}
	return nil
}
