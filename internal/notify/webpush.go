package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/spec-kit/helpdesk/internal/config"
)

// WebPush sends browser push notifications signed with VAPID keys.
type WebPush struct {
	publicKey  string
	privateKey string
	subject    string
	ttl        int
	client     webpush.HTTPClient
}

// NewWebPush builds the transport from notification config.
func NewWebPush(cfg config.NotificationConfig) *WebPush {
	return &WebPush{
		publicKey:  cfg.VAPIDPublicKey,
		privateKey: cfg.VAPIDPrivateKey,
		subject:    cfg.VAPIDSubject,
		ttl:        cfg.PushTTLSeconds,
	}
}

// WithHTTPClient overrides the client used to reach push services.
func (w *WebPush) WithHTTPClient(client webpush.HTTPClient) *WebPush {
	w.client = client
	return w
}

func (w *WebPush) Name() string { return "webpush" }

// Send pushes msg to the recipient's stored subscription. Recipients without
// a subscription are skipped.
func (w *WebPush) Send(ctx context.Context, to Recipient, msg Message) error {
	if len(to.Subscription) == 0 {
		return nil
	}
	var sub webpush.Subscription
	if err := json.Unmarshal(to.Subscription, &sub); err != nil {
		return fmt.Errorf("decode subscription: %w", err)
	}
	if sub.Endpoint == "" {
		return ErrSubscriptionGone
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, &sub, &webpush.Options{
		HTTPClient:      w.client,
		Subscriber:      w.subject,
		VAPIDPublicKey:  w.publicKey,
		VAPIDPrivateKey: w.privateKey,
		TTL:             w.ttl,
		Urgency:         webpush.UrgencyHigh,
	})
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return ErrSubscriptionGone
	case resp.StatusCode >= 400:
		return fmt.Errorf("push service responded %d", resp.StatusCode)
	}
	return nil
}
