package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/report"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/repository/memory"
)

type fakeReportRepo struct {
	calls      int
	byStatus   map[domain.TicketStatus]int
	daily      []repository.DailyCount
	techTicket []repository.TechnicianTicket
	lastCat    *domain.TicketCategory
}

func (r *fakeReportRepo) CountByStatus(_ context.Context, category *domain.TicketCategory) (map[domain.TicketStatus]int, error) {
	r.calls++
	r.lastCat = category
	return r.byStatus, nil
}

func (r *fakeReportRepo) CountByCategory(context.Context) (map[domain.TicketCategory]int, error) {
	return map[domain.TicketCategory]int{domain.CategoryA: 2, domain.CategoryB: 3}, nil
}

func (r *fakeReportRepo) CountByPriority(context.Context, *domain.TicketCategory) (map[string]int, error) {
	return map[string]int{string(domain.TicketPriorityHigh): 1, repository.PriorityUnset: 4}, nil
}

func (r *fakeReportRepo) DailyCreated(context.Context, time.Time, *domain.TicketCategory) ([]repository.DailyCount, error) {
	return r.daily, nil
}

func (r *fakeReportRepo) TechnicianTickets(context.Context, string, *time.Time, *time.Time) ([]repository.TechnicianTicket, error) {
	return r.techTicket, nil
}

type fakeActivityRepo struct {
	rows []domain.TechnicianActivity
}

func (r *fakeActivityRepo) Create(_ context.Context, a *domain.TechnicianActivity) error {
	a.ID = "act-" + a.Title
	r.rows = append(r.rows, *a)
	return nil
}

func (r *fakeActivityRepo) ListByTechnician(_ context.Context, technicianID string, _, _ *time.Time) ([]domain.TechnicianActivity, error) {
	var result []domain.TechnicianActivity
	for _, a := range r.rows {
		if a.TechnicianID == technicianID {
			result = append(result, a)
		}
	}
	return result, nil
}

func (r *fakeActivityRepo) Delete(_ context.Context, id, technicianID string) (bool, error) {
	for i, a := range r.rows {
		if a.ID == id && a.TechnicianID == technicianID {
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func newReportFixture(t *testing.T) (*ReportService, *fakeReportRepo, *fakeActivityRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	reports := &fakeReportRepo{byStatus: map[domain.TicketStatus]int{domain.TicketStatusNew: 2, domain.TicketStatusDone: 3}}
	activities := &fakeActivityRepo{}
	users := memory.NewUserRepo(adminUser, techA1, techB1)
	svc := NewReportService(ReportDependencies{
		ReportRepo:   reports,
		TicketRepo:   memory.NewTicketRepo(&memory.CoAssignmentRepo{}, users),
		ActivityRepo: activities,
		UserRepo:     users,
		Cache:        &persistence.Redis{Client: client},
		CacheTTL:     time.Minute,
	})
	svc.now = func() time.Time { return time.Date(2025, 1, 10, 15, 0, 0, 0, time.UTC) }
	return svc, reports, activities, mr
}

func TestDashboardCachesPerScope(t *testing.T) {
	svc, reports, _, mr := newReportFixture(t)
	ctx := context.Background()

	first, err := svc.Dashboard(ctx, callerOf(adminUser), nil, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, first.Total)
	assert.Equal(t, map[string]int{"A": 2, "B": 3}, first.ByCategory)
	assert.Len(t, first.Daily, defaultDashboardDays)

	second, err := svc.Dashboard(ctx, callerOf(adminUser), nil, 0)
	require.NoError(t, err)
	assert.Equal(t, first.Total, second.Total)
	assert.Equal(t, 1, reports.calls)
	assert.True(t, mr.Exists("helpdesk:dashboard:all:7"))

	scoped, err := svc.Dashboard(ctx, callerOf(techB1), nil, 400)
	require.NoError(t, err)
	require.NotNil(t, scoped.Category)
	assert.Equal(t, domain.CategoryB, *scoped.Category)
	assert.Nil(t, scoped.ByCategory)
	assert.Len(t, scoped.Daily, maxDashboardDays)
	assert.Equal(t, 2, reports.calls)
	assert.True(t, mr.Exists("helpdesk:dashboard:B:90"))
}

func TestDashboardInvalidatedByTicketEvents(t *testing.T) {
	svc, reports, _, mr := newReportFixture(t)
	ctx := context.Background()
	dispatcher := events.NewInMemoryDispatcher()
	svc.RegisterHandlers(dispatcher)

	_, err := svc.Dashboard(ctx, callerOf(adminUser), nil, 7)
	require.NoError(t, err)
	require.True(t, mr.Exists("helpdesk:dashboard:all:7"))

	cases := []struct {
		eventType events.EventType
		payload   any
	}{
		{events.EventTicketNew, events.TicketNewPayload{Category: domain.CategoryA}},
		{events.EventTicketTaken, events.TicketTakenPayload{Category: domain.CategoryA, TakenBy: techA1.ID}},
		{events.EventTicketStatusChanged, events.TicketStatusChangedPayload{NewStatus: domain.TicketStatusDone}},
		{events.EventTicketDeleted, events.TicketDeletedPayload{DeletedBy: adminUser.ID}},
	}
	for i, tc := range cases {
		event, err := events.NewEvent(tc.eventType, "ticket-1", "", tc.payload)
		require.NoError(t, err)
		require.NoError(t, dispatcher.Publish(ctx, event))
		assert.False(t, mr.Exists("helpdesk:dashboard:all:7"), tc.eventType)

		_, err = svc.Dashboard(ctx, callerOf(adminUser), nil, 7)
		require.NoError(t, err)
		assert.Equal(t, i+2, reports.calls)
		require.True(t, mr.Exists("helpdesk:dashboard:all:7"))
	}
}

func TestFillDaysZeroFillsGaps(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	buckets := fillDays(start, 3, []repository.DailyCount{
		{Day: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Count: 4},
		{Day: time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC), Count: 1},
	})
	assert.Equal(t, []DailyBucket{
		{Date: "2025-01-01", Count: 4},
		{Date: "2025-01-02", Count: 0},
		{Date: "2025-01-03", Count: 1},
	}, buckets)
}

func TestTechnicianReportMergesNewestFirst(t *testing.T) {
	svc, reports, activities, _ := newReportFixture(t)
	ctx := context.Background()
	picked := time.Date(2025, 1, 5, 9, 0, 0, 0, time.UTC)
	reports.techTicket = []repository.TechnicianTicket{
		{Ticket: domain.Ticket{ID: "t1", TicketNumber: "TKT-1", PickedUpAt: &picked, ReporterName: "Budi", ReporterUnit: "ICU", Description: "printer"}},
		{Ticket: domain.Ticket{ID: "t2", TicketNumber: "TKT-2", CreatedAt: time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC), Description: "network"}, CoAssigned: true},
	}
	activities.rows = []domain.TechnicianActivity{
		{ID: "x", TechnicianID: techA1.ID, ActivityDate: time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC), Title: "backup server"},
	}

	rep, err := svc.TechnicianReport(ctx, callerOf(techA1), "", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Andi", rep.TechnicianName)
	require.Len(t, rep.Entries, 3)
	assert.Equal(t, report.EntryActivity, rep.Entries[0].Kind)
	assert.Equal(t, report.EntryAssigned, rep.Entries[1].Kind)
	assert.Equal(t, "Budi (ICU)", rep.Entries[1].Detail)
	assert.Equal(t, report.EntryCoAssigned, rep.Entries[2].Kind)

	_, err = svc.TechnicianReport(ctx, callerOf(techA1), techB1.ID, nil, nil)
	assertCode(t, err, "FORBIDDEN")

	_, err = svc.TechnicianReport(ctx, callerOf(adminUser), adminUser.ID, nil, nil)
	assertCode(t, err, "VALIDATION_FAILED")

	_, err = svc.TechnicianReport(ctx, callerOf(adminUser), "ghost", nil, nil)
	assertCode(t, err, "NOT_FOUND")

	data, err := svc.TechnicianReportWorkbook(ctx, callerOf(adminUser), techA1.ID, nil, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestTicketsWorkbookRendersForAdmin(t *testing.T) {
	svc, _, _, _ := newReportFixture(t)
	data, err := svc.TicketsWorkbook(context.Background(), callerOf(adminUser), ExportFilter{})
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
