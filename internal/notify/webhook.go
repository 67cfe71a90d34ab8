package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Webhook posts every notification as JSON to a fixed URL.
type Webhook struct {
	client *resty.Client
	url    string
}

type webhookBody struct {
	UserID string `json:"user_id"`
	Message
}

// NewWebhook builds a retrying webhook transport.
func NewWebhook(url string) *Webhook {
	client := resty.New().
		SetTimeout(10*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(3*time.Second).
		SetHeader("Content-Type", "application/json").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		})
	return &Webhook{client: client, url: url}
}

func (w *Webhook) Name() string { return "webhook" }

func (w *Webhook) Send(ctx context.Context, to Recipient, msg Message) error {
	resp, err := w.client.R().
		SetContext(ctx).
		SetBody(webhookBody{UserID: to.UserID, Message: msg}).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook responded %d", resp.StatusCode())
	}
	return nil
}
