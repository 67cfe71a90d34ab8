package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/notify"
	"github.com/spec-kit/helpdesk/internal/repository/memory"
)

func newNotificationFixture(transport notify.Transport, users ...domain.User) (*NotificationService, *memory.NotificationRepo, *memory.UserRepo, events.Dispatcher) {
	repo := &memory.NotificationRepo{}
	userRepo := memory.NewUserRepo(users...)
	svc := NewNotificationService(NotificationDependencies{
		NotificationRepo: repo,
		UserRepo:         userRepo,
		Transports:       []notify.Transport{transport},
	})
	dispatcher := events.NewInMemoryDispatcher()
	svc.RegisterHandlers(dispatcher)
	return svc, repo, userRepo, dispatcher
}

func publish(t *testing.T, d events.Dispatcher, eventType events.EventType, ticketID, actor string, payload any) error {
	t.Helper()
	event, err := events.NewEvent(eventType, ticketID, actor, payload)
	require.NoError(t, err)
	return d.Publish(context.Background(), event)
}

func TestNewTicketNotifiesActiveCategoryTechnicians(t *testing.T) {
	transport := &fakeTransport{}
	_, repo, _, d := newNotificationFixture(transport, adminUser, techA1, techA2, techA3, techB1)

	err := publish(t, d, events.EventTicketNew, "ticket-1", "", events.TicketNewPayload{
		TicketNumber: "TKT-25010108-001",
		Category:     domain.CategoryA,
		ReporterName: "Budi",
		ReporterUnit: "ICU",
		Description:  "SIMRS tidak bisa login",
	})
	require.NoError(t, err)

	var recipients []string
	for _, n := range repo.Rows() {
		recipients = append(recipients, n.UserID)
		assert.Equal(t, domain.NotificationNewTicket, n.Type)
		require.NotNil(t, n.TicketID)
		assert.Equal(t, "ticket-1", *n.TicketID)
		assert.Contains(t, n.Message, "Budi (ICU)")
	}
	assert.ElementsMatch(t, []string{techA1.ID, techA2.ID}, recipients)
	assert.Len(t, transport.sent, 2)
}

func TestCoAssignNotifiesTarget(t *testing.T) {
	transport := &fakeTransport{}
	_, repo, _, d := newNotificationFixture(transport, techB1, techB2)

	err := publish(t, d, events.EventTicketCoAssigned, "ticket-9", techB1.ID, events.TicketCoAssignedPayload{
		TicketNumber:   "TKT-25010108-009",
		TechnicianID:   techB2.ID,
		AssignedBy:     techB1.ID,
		AssignedByName: "Joko",
	})
	require.NoError(t, err)
	require.Len(t, repo.Rows(), 1)
	assert.Equal(t, techB2.ID, repo.Rows()[0].UserID)
	assert.Equal(t, domain.NotificationCoAssigned, repo.Rows()[0].Type)
	assert.Contains(t, repo.Rows()[0].Message, "Joko")
}

func TestStatusChangeSkipsActorAndDuplicates(t *testing.T) {
	transport := &fakeTransport{}
	_, repo, _, d := newNotificationFixture(transport, techA1, techA2, techA3)

	err := publish(t, d, events.EventTicketStatusChanged, "ticket-2", techA1.ID, events.TicketStatusChangedPayload{
		TicketNumber: "TKT-25010108-002",
		OldStatus:    domain.TicketStatusInProgress,
		NewStatus:    domain.TicketStatusDone,
		ChangedBy:    techA1.ID,
		Participants: []string{techA1.ID, techA2.ID, techA2.ID, techA3.ID},
	})
	require.NoError(t, err)
	require.Len(t, repo.Rows(), 1)
	assert.Equal(t, techA2.ID, repo.Rows()[0].UserID)
	assert.Equal(t, domain.NotificationStatusUpdate, repo.Rows()[0].Type)
}

func TestSubscriptionGoneClearsStoredSubscription(t *testing.T) {
	subscribed := techA1
	subscribed.PushSubscription = json.RawMessage(`{"endpoint":"https://push.example/1"}`)
	transport := &fakeTransport{err: notify.ErrSubscriptionGone}
	_, repo, users, d := newNotificationFixture(transport, subscribed)

	err := publish(t, d, events.EventTicketNew, "ticket-3", "", events.TicketNewPayload{
		TicketNumber: "TKT-25010108-003", Category: domain.CategoryA, ReporterName: "Budi", ReporterUnit: "IGD", Description: "x",
	})
	require.NoError(t, err)
	assert.Len(t, repo.Rows(), 1)

	stored, err := users.GetByID(context.Background(), subscribed.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.PushSubscription)
}

func TestDeliveryFailureDoesNotFailHandler(t *testing.T) {
	transport := &fakeTransport{err: errors.New("push service down")}
	_, repo, _, d := newNotificationFixture(transport, techB1)

	err := publish(t, d, events.EventTicketNew, "ticket-4", "", events.TicketNewPayload{
		TicketNumber: "TKT-25010108-004", Category: domain.CategoryB, ReporterName: "Budi", ReporterUnit: "IGD", Description: "x",
	})
	require.NoError(t, err)
	assert.Len(t, repo.Rows(), 1)
}

func TestNotificationInbox(t *testing.T) {
	svc, repo, _, _ := newNotificationFixture(&fakeTransport{})
	ctx := context.Background()
	for _, user := range []string{techA1.ID, techA1.ID, techA2.ID} {
		require.NoError(t, repo.Create(ctx, &domain.Notification{UserID: user, Title: "t", Type: domain.NotificationNewTicket}))
	}

	page, err := svc.List(ctx, callerOf(techA1), false, 0)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 2, page.UnreadCount)
	assert.Equal(t, 1, page.Page)

	require.NoError(t, svc.MarkRead(ctx, callerOf(techA1), page.Items[0].ID))
	err = svc.MarkRead(ctx, callerOf(techA2), page.Items[1].ID)
	assertCode(t, err, "NOT_FOUND")

	count, err := svc.UnreadCount(ctx, callerOf(techA1))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	marked, err := svc.MarkAllRead(ctx, callerOf(techA1))
	require.NoError(t, err)
	assert.EqualValues(t, 1, marked)

	unread, err := svc.List(ctx, callerOf(techA1), true, 1)
	require.NoError(t, err)
	assert.Empty(t, unread.Items)
}

func TestPreviewTruncatesRunes(t *testing.T) {
	assert.Equal(t, "short", preview("short", 10))
	assert.Equal(t, "abcdefg...", preview("abcdefghijklmnop", 10))
	assert.Equal(t, "ééé...", preview("ééééééé", 6))
}
