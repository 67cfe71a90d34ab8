package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/notify"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

const (
	notificationPageSize = 20
	previewLength        = 120
	// fanOutLimit caps how many technicians one new ticket notifies.
	fanOutLimit = 500
)

// NotificationService turns domain events into persisted notifications and
// pushes them through the configured transports.
type NotificationService struct {
	notifications repository.NotificationRepository
	users         repository.UserRepository
	transports    []notify.Transport
	logger        *zap.Logger
}

// NotificationDependencies bundles collaborators for the notification service.
type NotificationDependencies struct {
	NotificationRepo repository.NotificationRepository
	UserRepo         repository.UserRepository
	Transports       []notify.Transport
	Logger           *zap.Logger
}

// NotificationPage is one page of a user's notifications.
type NotificationPage struct {
	Items       []domain.Notification
	UnreadCount int
	Page        int
	PageSize    int
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		notifications: deps.NotificationRepo,
		users:         deps.UserRepo,
		transports:    deps.Transports,
		logger:        logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventTicketNew, n.handleTicketNew)
	dispatcher.Subscribe(events.EventTicketCoAssigned, n.handleTicketCoAssigned)
	dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
}

func (n *NotificationService) handleTicketNew(ctx context.Context, event events.Event) error {
	var payload events.TicketNewPayload
	if err := event.DecodePayload(&payload); err != nil {
		return err
	}
	role, ok := domain.TechnicianRoleFor(payload.Category)
	if !ok {
		return fmt.Errorf("no technician role serves category %q", payload.Category)
	}
	active := true
	technicians, err := n.users.List(ctx, repository.UserFilter{Role: &role, Active: &active, Limit: fanOutLimit})
	if err != nil {
		return fmt.Errorf("list technicians: %w", err)
	}

	ticketID := event.TicketID
	var errs []error
	for i := range technicians {
		err := n.notify(ctx, &technicians[i], domain.Notification{
			UserID:   technicians[i].ID,
			TicketID: &ticketID,
			Title:    "New ticket " + payload.TicketNumber,
			Message:  fmt.Sprintf("%s (%s): %s", payload.ReporterName, payload.ReporterUnit, preview(payload.Description, previewLength)),
			Type:     domain.NotificationNewTicket,
		})
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (n *NotificationService) handleTicketCoAssigned(ctx context.Context, event events.Event) error {
	var payload events.TicketCoAssignedPayload
	if err := event.DecodePayload(&payload); err != nil {
		return err
	}
	target, err := n.users.GetByID(ctx, payload.TechnicianID)
	if err != nil {
		return fmt.Errorf("load co-assignee: %w", err)
	}
	assigner := payload.AssignedByName
	if assigner == "" {
		assigner = "A colleague"
	}
	ticketID := event.TicketID
	return n.notify(ctx, target, domain.Notification{
		UserID:   target.ID,
		TicketID: &ticketID,
		Title:    "You were added to ticket " + payload.TicketNumber,
		Message:  assigner + " asked you to help on this ticket.",
		Type:     domain.NotificationCoAssigned,
	})
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	var payload events.TicketStatusChangedPayload
	if err := event.DecodePayload(&payload); err != nil {
		return err
	}
	ticketID := event.TicketID
	seen := map[string]struct{}{payload.ChangedBy: {}}
	var errs []error
	for _, userID := range payload.Participants {
		if _, dup := seen[userID]; dup {
			continue
		}
		seen[userID] = struct{}{}
		user, err := n.users.GetByID(ctx, userID)
		if err != nil {
			errs = append(errs, fmt.Errorf("load participant %s: %w", userID, err))
			continue
		}
		if !user.IsActive {
			continue
		}
		err = n.notify(ctx, user, domain.Notification{
			UserID:   user.ID,
			TicketID: &ticketID,
			Title:    "Ticket " + payload.TicketNumber + " is " + string(payload.NewStatus),
			Message:  fmt.Sprintf("Status changed from %s to %s.", payload.OldStatus, payload.NewStatus),
			Type:     domain.NotificationStatusUpdate,
		})
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// notify persists the notification then attempts every transport. Only the
// persistence failure is returned; delivery failures are logged.
func (n *NotificationService) notify(ctx context.Context, user *domain.User, notification domain.Notification) error {
	if err := n.notifications.Create(ctx, &notification); err != nil {
		return fmt.Errorf("persist notification for %s: %w", user.ID, err)
	}

	msg := notify.Message{
		Title: notification.Title,
		Body:  notification.Message,
		Type:  notification.Type,
	}
	if notification.TicketID != nil {
		msg.TicketID = *notification.TicketID
		msg.URL = "/tickets/" + *notification.TicketID
	}
	recipient := notify.Recipient{UserID: user.ID, Subscription: user.PushSubscription}

	for _, transport := range n.transports {
		err := transport.Send(ctx, recipient, msg)
		if err == nil {
			continue
		}
		if errors.Is(err, notify.ErrSubscriptionGone) {
			n.logger.Info("clearing expired push subscription", zap.String("user_id", user.ID))
			if clearErr := n.users.SetPushSubscription(ctx, user.ID, nil); clearErr != nil {
				n.logger.Warn("clear push subscription", zap.String("user_id", user.ID), zap.Error(clearErr))
			}
			continue
		}
		n.logger.Warn("notification delivery failed",
			zap.String("transport", transport.Name()),
			zap.String("user_id", user.ID),
			zap.String("type", string(notification.Type)),
			zap.Error(err),
		)
	}
	return nil
}

// List returns the caller's notifications, newest first.
func (n *NotificationService) List(ctx context.Context, caller domain.Caller, unreadOnly bool, page int) (*NotificationPage, error) {
	if page < 1 {
		page = 1
	}
	items, err := n.notifications.ListByUser(ctx, caller.UserID, unreadOnly, notificationPageSize, (page-1)*notificationPageSize)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	unread, err := n.notifications.CountUnread(ctx, caller.UserID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &NotificationPage{Items: items, UnreadCount: unread, Page: page, PageSize: notificationPageSize}, nil
}

// UnreadCount returns how many notifications the caller has not read.
func (n *NotificationService) UnreadCount(ctx context.Context, caller domain.Caller) (int, error) {
	count, err := n.notifications.CountUnread(ctx, caller.UserID)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	return count, nil
}

// MarkRead flags one of the caller's notifications as read.
func (n *NotificationService) MarkRead(ctx context.Context, caller domain.Caller, id string) error {
	ok, err := n.notifications.MarkRead(ctx, caller.UserID, id)
	if err != nil {
		return apperrors.MapError(err)
	}
	if !ok {
		return apperrors.NewNotFound("notification", map[string]any{"id": id})
	}
	return nil
}

// MarkAllRead flags every notification of the caller as read.
func (n *NotificationService) MarkAllRead(ctx context.Context, caller domain.Caller) (int64, error) {
	count, err := n.notifications.MarkAllRead(ctx, caller.UserID)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	return count, nil
}

func preview(body string, max int) string {
	runes := []rune(body)
	if len(runes) <= max {
		return body
	}
	return string(runes[:max-3]) + "..."
}
