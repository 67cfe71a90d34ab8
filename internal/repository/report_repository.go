package repository

import (
	"context"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// DailyCount is the number of tickets created on one calendar day.
type DailyCount struct {
	Day   time.Time
	Count int
}

// TechnicianTicket is a ticket row annotated with how the technician took part in it.
type TechnicianTicket struct {
	Ticket     domain.Ticket
	CoAssigned bool
}

// ReportRepository runs the aggregate queries behind dashboards and exports.
type ReportRepository interface {
	CountByStatus(ctx context.Context, category *domain.TicketCategory) (map[domain.TicketStatus]int, error)
	CountByCategory(ctx context.Context) (map[domain.TicketCategory]int, error)
	CountByPriority(ctx context.Context, category *domain.TicketCategory) (map[string]int, error)
	DailyCreated(ctx context.Context, since time.Time, category *domain.TicketCategory) ([]DailyCount, error)
	TechnicianTickets(ctx context.Context, technicianID string, from, to *time.Time) ([]TechnicianTicket, error)
}

// PriorityUnset keys tickets without a priority in CountByPriority.
const PriorityUnset = "none"

type reportRepository struct {
	db DBTX
}

// NewReportRepository builds repository.
func NewReportRepository(db DBTX) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) CountByStatus(ctx context.Context, category *domain.TicketCategory) (map[domain.TicketStatus]int, error) {
	const query = `
        SELECT status, COUNT(*) FROM tickets
        WHERE is_active AND ($1::text IS NULL OR category=$1)
        GROUP BY status`
	rows, err := r.db.Query(ctx, query, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[domain.TicketStatus]int)
	for _, s := range domain.TicketStatuses() {
		result[s] = 0
	}
	for rows.Next() {
		var status domain.TicketStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		result[status] = n
	}
	return result, rows.Err()
}

func (r *reportRepository) CountByCategory(ctx context.Context) (map[domain.TicketCategory]int, error) {
	rows, err := r.db.Query(ctx, `SELECT category, COUNT(*) FROM tickets WHERE is_active GROUP BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := map[domain.TicketCategory]int{domain.CategoryA: 0, domain.CategoryB: 0}
	for rows.Next() {
		var category domain.TicketCategory
		var n int
		if err := rows.Scan(&category, &n); err != nil {
			return nil, err
		}
		result[category] = n
	}
	return result, rows.Err()
}

func (r *reportRepository) CountByPriority(ctx context.Context, category *domain.TicketCategory) (map[string]int, error) {
	const query = `
        SELECT COALESCE(priority, $2), COUNT(*) FROM tickets
        WHERE is_active AND ($1::text IS NULL OR category=$1)
        GROUP BY 1`
	rows, err := r.db.Query(ctx, query, category, PriorityUnset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := map[string]int{
		string(domain.TicketPriorityHigh):   0,
		string(domain.TicketPriorityMedium): 0,
		string(domain.TicketPriorityLow):    0,
		PriorityUnset:                       0,
	}
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		result[key] = n
	}
	return result, rows.Err()
}

// DailyCreated returns only days with at least one ticket; callers fill the gaps.
func (r *reportRepository) DailyCreated(ctx context.Context, since time.Time, category *domain.TicketCategory) ([]DailyCount, error) {
	const query = `
        SELECT date_trunc('day', created_at) AS day, COUNT(*)
        FROM tickets
        WHERE is_active AND created_at >= $1 AND ($2::text IS NULL OR category=$2)
        GROUP BY day
        ORDER BY day ASC`
	rows, err := r.db.Query(ctx, query, since, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []DailyCount
	for rows.Next() {
		var dc DailyCount
		if err := rows.Scan(&dc.Day, &dc.Count); err != nil {
			return nil, err
		}
		result = append(result, dc)
	}
	return result, rows.Err()
}

func (r *reportRepository) TechnicianTickets(ctx context.Context, technicianID string, from, to *time.Time) ([]TechnicianTicket, error) {
	query := `SELECT` + ticketColumns + `, (t.assigned_to IS DISTINCT FROM $1)` + ticketFrom + `
        WHERE t.is_active
          AND (t.assigned_to=$1 OR EXISTS (SELECT 1 FROM ticket_co_assignments ca WHERE ca.ticket_id=t.id AND ca.technician_id=$1))
          AND ($2::timestamptz IS NULL OR t.created_at >= $2)
          AND ($3::timestamptz IS NULL OR t.created_at <= $3)
        ORDER BY t.created_at DESC`
	rows, err := r.db.Query(ctx, query, technicianID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TechnicianTicket
	for rows.Next() {
		var tt TechnicianTicket
		targets := append(ticketScanTargets(&tt.Ticket), &tt.CoAssigned)
		if err := rows.Scan(targets...); err != nil {
			return nil, err
		}
		result = append(result, tt)
	}
	return result, rows.Err()
}
