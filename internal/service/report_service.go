package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/report"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

const (
	defaultDashboardDays = 7
	maxDashboardDays     = 90
	exportRowLimit       = 10000
	dashboardCachePrefix = "helpdesk:dashboard:"
)

// Cache stores JSON values with a TTL.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest any) error
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// ReportService serves dashboards, technician reports and exports.
type ReportService struct {
	reports    repository.ReportRepository
	tickets    repository.TicketRepository
	activities repository.ActivityRepository
	users      repository.UserRepository
	cache      Cache
	cacheTTL   time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// ReportDependencies bundles collaborators for the report service.
type ReportDependencies struct {
	ReportRepo   repository.ReportRepository
	TicketRepo   repository.TicketRepository
	ActivityRepo repository.ActivityRepository
	UserRepo     repository.UserRepository
	Cache        Cache
	CacheTTL     time.Duration
	Logger       *zap.Logger
}

// DailyBucket is the count of tickets created on one day.
type DailyBucket struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Dashboard is the aggregate summary shown on the home screen.
type Dashboard struct {
	Category    *domain.TicketCategory `json:"category,omitempty"`
	Total       int                    `json:"total"`
	ByStatus    map[string]int         `json:"byStatus"`
	ByCategory  map[string]int         `json:"byCategory,omitempty"`
	ByPriority  map[string]int         `json:"byPriority"`
	Daily       []DailyBucket          `json:"daily"`
	GeneratedAt time.Time              `json:"generatedAt"`
}

// TechnicianReport is the merged activity and ticket history of one technician.
type TechnicianReport struct {
	TechnicianID   string         `json:"technicianId"`
	TechnicianName string         `json:"technicianName"`
	From           *time.Time     `json:"from,omitempty"`
	To             *time.Time     `json:"to,omitempty"`
	Entries        []report.Entry `json:"entries"`
}

// ExportFilter narrows the ticket export.
type ExportFilter struct {
	Category    *domain.TicketCategory
	Statuses    []domain.TicketStatus
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// NewReportService constructs the service.
func NewReportService(deps ReportDependencies) *ReportService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		reports:    deps.ReportRepo,
		tickets:    deps.TicketRepo,
		activities: deps.ActivityRepo,
		users:      deps.UserRepo,
		cache:      deps.Cache,
		cacheTTL:   deps.CacheTTL,
		logger:     logger,
		now:        time.Now,
	}
}

// Dashboard returns counts scoped to the caller's category for technicians.
// Admins may pass a category to narrow the view.
func (s *ReportService) Dashboard(ctx context.Context, caller domain.Caller, category *domain.TicketCategory, days int) (*Dashboard, error) {
	if c, ok := caller.Role.Category(); ok {
		category = &c
	} else if !caller.IsAdmin() {
		return nil, apperrors.NewForbidden("unknown role")
	}
	if days <= 0 {
		days = defaultDashboardDays
	}
	if days > maxDashboardDays {
		days = maxDashboardDays
	}

	key := dashboardKey(category, days)
	if s.cache != nil {
		var cached Dashboard
		err := s.cache.GetJSON(ctx, key, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, persistence.ErrCacheMiss) {
			s.logger.Warn("dashboard cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	dashboard, err := s.buildDashboard(ctx, category, days)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && s.cacheTTL > 0 {
		if err := s.cache.SetJSON(ctx, key, dashboard, s.cacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return dashboard, nil
}

// RegisterHandlers drops cached dashboards whenever ticket counts change.
func (s *ReportService) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil || s.cache == nil {
		return
	}
	for _, eventType := range []events.EventType{
		events.EventTicketNew,
		events.EventTicketTaken,
		events.EventTicketStatusChanged,
		events.EventTicketDeleted,
	} {
		dispatcher.Subscribe(eventType, s.invalidateDashboards)
	}
}

func (s *ReportService) invalidateDashboards(ctx context.Context, _ events.Event) error {
	if err := s.cache.DeleteByPrefix(ctx, dashboardCachePrefix); err != nil {
		return fmt.Errorf("invalidate dashboards: %w", err)
	}
	return nil
}

func (s *ReportService) buildDashboard(ctx context.Context, category *domain.TicketCategory, days int) (*Dashboard, error) {
	byStatus, err := s.reports.CountByStatus(ctx, category)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	byPriority, err := s.reports.CountByPriority(ctx, category)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	now := s.now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -(days - 1))
	daily, err := s.reports.DailyCreated(ctx, start, category)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	dashboard := &Dashboard{
		Category:    category,
		ByStatus:    make(map[string]int, len(byStatus)),
		ByPriority:  byPriority,
		Daily:       fillDays(start, days, daily),
		GeneratedAt: now.UTC(),
	}
	for status, n := range byStatus {
		dashboard.ByStatus[string(status)] = n
		dashboard.Total += n
	}
	if category == nil {
		byCategory, err := s.reports.CountByCategory(ctx)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		dashboard.ByCategory = make(map[string]int, len(byCategory))
		for c, n := range byCategory {
			dashboard.ByCategory[string(c)] = n
		}
	}
	return dashboard, nil
}

// fillDays returns one bucket per day starting at start, zero-filling gaps.
func fillDays(start time.Time, days int, counts []repository.DailyCount) []DailyBucket {
	byDay := make(map[string]int, len(counts))
	for _, c := range counts {
		byDay[c.Day.In(start.Location()).Format("2006-01-02")] += c.Count
	}
	buckets := make([]DailyBucket, days)
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i).Format("2006-01-02")
		buckets[i] = DailyBucket{Date: day, Count: byDay[day]}
	}
	return buckets
}

func dashboardKey(category *domain.TicketCategory, days int) string {
	scope := "all"
	if category != nil {
		scope = string(*category)
	}
	return dashboardCachePrefix + scope + ":" + strconv.Itoa(days)
}

// TechnicianReport merges activities and tickets of a technician, newest first.
// Technicians can only request their own report; admins any technician's.
func (s *ReportService) TechnicianReport(ctx context.Context, caller domain.Caller, technicianID string, from, to *time.Time) (*TechnicianReport, error) {
	if technicianID == "" {
		technicianID = caller.UserID
	}
	if !caller.IsAdmin() && technicianID != caller.UserID {
		return nil, apperrors.NewForbidden("technicians can only view their own report")
	}
	technician, err := s.users.GetByID(ctx, technicianID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("technician", map[string]any{"id": technicianID})
		}
		return nil, apperrors.MapError(err)
	}
	if !technician.Role.IsTechnician() {
		return nil, apperrors.NewFieldValidationError(apperrors.FieldError{Field: "technicianId", Message: "is not a technician"})
	}

	activities, err := s.activities.ListByTechnician(ctx, technicianID, from, to)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	tickets, err := s.reports.TechnicianTickets(ctx, technicianID, from, to)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	entries := make([]report.Entry, 0, len(activities)+len(tickets))
	for _, a := range activities {
		entries = append(entries, report.Entry{
			Kind:     report.EntryActivity,
			Date:     a.ActivityDate,
			Title:    a.Title,
			Detail:   a.Description,
			Location: a.Location,
		})
	}
	for _, tt := range tickets {
		kind := report.EntryAssigned
		if tt.CoAssigned {
			kind = report.EntryCoAssigned
		}
		date := tt.Ticket.CreatedAt
		if tt.Ticket.PickedUpAt != nil {
			date = *tt.Ticket.PickedUpAt
		}
		entries = append(entries, report.Entry{
			Kind:         kind,
			Date:         date,
			Title:        preview(tt.Ticket.Description, previewLength),
			Detail:       tt.Ticket.ReporterName + " (" + tt.Ticket.ReporterUnit + ")",
			TicketID:     tt.Ticket.ID,
			TicketNumber: tt.Ticket.TicketNumber,
			Status:       tt.Ticket.Status,
		})
	}
	report.SortNewestFirst(entries)

	return &TechnicianReport{
		TechnicianID:   technician.ID,
		TechnicianName: technician.FullName,
		From:           from,
		To:             to,
		Entries:        entries,
	}, nil
}

// TechnicianReportWorkbook renders TechnicianReport as an Excel file.
func (s *ReportService) TechnicianReportWorkbook(ctx context.Context, caller domain.Caller, technicianID string, from, to *time.Time) ([]byte, error) {
	rep, err := s.TechnicianReport(ctx, caller, technicianID, from, to)
	if err != nil {
		return nil, err
	}
	data, err := report.TechnicianWorkbook(rep.TechnicianName, rep.Entries)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return data, nil
}

// TicketsWorkbook exports tickets as an Excel file. Technicians are limited to their category.
func (s *ReportService) TicketsWorkbook(ctx context.Context, caller domain.Caller, filter ExportFilter) ([]byte, error) {
	if c, ok := caller.Role.Category(); ok {
		filter.Category = &c
	} else if !caller.IsAdmin() {
		return nil, apperrors.NewForbidden("unknown role")
	}
	tickets, err := s.tickets.List(ctx, repository.TicketFilter{
		Category:    filter.Category,
		Statuses:    filter.Statuses,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       exportRowLimit,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	data, err := report.TicketsWorkbook(tickets)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return data, nil
}
