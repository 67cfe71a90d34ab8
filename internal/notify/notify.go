// Package notify delivers user notifications over external channels.
package notify

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// ErrSubscriptionGone means the push endpoint no longer exists and the stored
// subscription should be dropped.
var ErrSubscriptionGone = errors.New("push subscription gone")

// Recipient is the target account of a delivery.
type Recipient struct {
	UserID       string
	Subscription json.RawMessage
}

// Message is the channel-independent notification content.
type Message struct {
	Title    string                  `json:"title"`
	Body     string                  `json:"body"`
	URL      string                  `json:"url,omitempty"`
	TicketID string                  `json:"ticket_id,omitempty"`
	Type     domain.NotificationType `json:"type"`
}

// Transport is one delivery channel.
type Transport interface {
	Name() string
	Send(ctx context.Context, to Recipient, msg Message) error
}
