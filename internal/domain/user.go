package domain

import (
	"encoding/json"
	"time"
)

// User is an admin or technician account.
type User struct {
	ID               string
	Username         string
	PasswordHash     string
	FullName         string
	Phone            string
	Role             Role
	IsActive         bool
	PushSubscription json.RawMessage
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NotificationType identifies why a notification was created.
type NotificationType string

const (
	NotificationNewTicket    NotificationType = "new_ticket"
	NotificationCoAssigned   NotificationType = "co_assigned"
	NotificationStatusUpdate NotificationType = "status_update"
)

// Notification is a persisted record of an event delivered to a user.
type Notification struct {
	ID        string
	UserID    string
	TicketID  *string
	Title     string
	Message   string
	Type      NotificationType
	IsRead    bool
	CreatedAt time.Time
}
