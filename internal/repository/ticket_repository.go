package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// DefaultTicketPageSize is the listing page size used by the dashboards.
const DefaultTicketPageSize = 30

// TicketFilter captures listing parameters. Listings never include soft-deleted tickets.
type TicketFilter struct {
	Category      *domain.TicketCategory
	Statuses      []domain.TicketStatus
	Priorities    []domain.TicketPriority
	ProblemTypeID *string
	// ParticipantID restricts to tickets assigned or co-assigned to this user.
	ParticipantID *string
	SearchTerm    *string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	Limit         int
	Offset        int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByNumber(ctx context.Context, number string) (*domain.Ticket, error)
	Claim(ctx context.Context, id, technicianID string) (bool, error)
	UpdateStatus(ctx context.Context, id string, from, to domain.TicketStatus, completedAt *time.Time) (bool, error)
	UpdatePriority(ctx context.Context, id string, priority *domain.TicketPriority) error
	UpdateProof(ctx context.Context, id, proofURL string) error
	SoftDelete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	Count(ctx context.Context, filter TicketFilter) (int, error)
}

type ticketRepository struct {
	db DBTX
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db DBTX) TicketRepository {
	return &ticketRepository{db: db}
}

const ticketColumns = `
        t.id, t.ticket_number, t.reporter_name, t.reporter_unit, t.reporter_phone, t.category,
        t.description, t.photo_url, t.status, t.priority, t.problem_type_id, t.assigned_to,
        t.reporter_user_id, t.is_active, t.completed_at, t.proof_photo_url, t.picked_up_at,
        t.status_changed_at, t.created_at, t.updated_at, u.full_name, pt.name`

const ticketFrom = `
        FROM tickets t
        LEFT JOIN users u ON u.id = t.assigned_to
        LEFT JOIN problem_types pt ON pt.id = t.problem_type_id`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (ticket_number, reporter_name, reporter_unit, reporter_phone, category,
            description, photo_url, status, problem_type_id, reporter_user_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, is_active, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		ticket.TicketNumber,
		ticket.ReporterName,
		ticket.ReporterUnit,
		ticket.ReporterPhone,
		ticket.Category,
		ticket.Description,
		ticket.PhotoURL,
		ticket.Status,
		ticket.ProblemTypeID,
		ticket.ReporterUserID,
	).Scan(&ticket.ID, &ticket.IsActive, &ticket.CreatedAt, &ticket.UpdatedAt)
}

// GetByID returns the ticket even when it has been soft-deleted.
func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT` + ticketColumns + ticketFrom + ` WHERE t.id=$1`
	return scanTicket(r.db.QueryRow(ctx, query, id))
}

func (r *ticketRepository) GetByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	query := `SELECT` + ticketColumns + ticketFrom + ` WHERE t.ticket_number=$1`
	return scanTicket(r.db.QueryRow(ctx, query, number))
}

// Claim assigns an unclaimed ticket in a single conditional update.
// It reports false when another technician got there first or the ticket is gone.
func (r *ticketRepository) Claim(ctx context.Context, id, technicianID string) (bool, error) {
	const query = `
        UPDATE tickets
        SET assigned_to=$1, status=$2, picked_up_at=NOW(), status_changed_at=NOW(), updated_at=NOW()
        WHERE id=$3 AND is_active AND assigned_to IS NULL AND status=$4`
	cmd, err := r.db.Exec(ctx, query, technicianID, domain.TicketStatusInProgress, id, domain.TicketStatusNew)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

// UpdateStatus moves the ticket only if it is still in the from state.
func (r *ticketRepository) UpdateStatus(ctx context.Context, id string, from, to domain.TicketStatus, completedAt *time.Time) (bool, error) {
	const query = `
        UPDATE tickets
        SET status=$1, completed_at=COALESCE($2, completed_at), status_changed_at=NOW(), updated_at=NOW()
        WHERE id=$3 AND is_active AND status=$4`
	cmd, err := r.db.Exec(ctx, query, to, completedAt, id, from)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *ticketRepository) UpdatePriority(ctx context.Context, id string, priority *domain.TicketPriority) error {
	const query = `UPDATE tickets SET priority=$1, updated_at=NOW() WHERE id=$2 AND is_active`
	cmd, err := r.db.Exec(ctx, query, priority, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) UpdateProof(ctx context.Context, id, proofURL string) error {
	const query = `UPDATE tickets SET proof_photo_url=$1, updated_at=NOW() WHERE id=$2 AND is_active`
	cmd, err := r.db.Exec(ctx, query, proofURL, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// SoftDelete hides the ticket from every listing; child rows are left untouched.
func (r *ticketRepository) SoftDelete(ctx context.Context, id string) (bool, error) {
	const query = `UPDATE tickets SET is_active=FALSE, updated_at=NOW() WHERE id=$1 AND is_active`
	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	where, args := buildTicketWhere(filter)
	limit, offset := normalizePage(filter.Limit, filter.Offset, DefaultTicketPageSize)

	query := fmt.Sprintf(`SELECT %s %s WHERE %s ORDER BY t.created_at DESC LIMIT %d OFFSET %d`,
		ticketColumns, ticketFrom, where, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) Count(ctx context.Context, filter TicketFilter) (int, error) {
	where, args := buildTicketWhere(filter)
	query := `SELECT COUNT(*) FROM tickets t WHERE ` + where

	var n int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func buildTicketWhere(filter TicketFilter) (string, []any) {
	clauses := []string{"t.is_active"}
	args := []any{}

	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("t.category=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("t.status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("t.priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.ProblemTypeID != nil {
		args = append(args, *filter.ProblemTypeID)
		clauses = append(clauses, fmt.Sprintf("t.problem_type_id=$%d", len(args)))
	}
	if filter.ParticipantID != nil {
		args = append(args, *filter.ParticipantID)
		p := len(args)
		clauses = append(clauses, fmt.Sprintf(
			"(t.assigned_to=$%d OR EXISTS (SELECT 1 FROM ticket_co_assignments ca WHERE ca.ticket_id=t.id AND ca.technician_id=$%d))", p, p))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("t.created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("t.created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		p := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(t.ticket_number) LIKE %s OR LOWER(t.reporter_name) LIKE %s OR LOWER(t.reporter_unit) LIKE %s OR LOWER(t.description) LIKE %s)",
			p, p, p, p))
	}

	return strings.Join(clauses, " AND "), args
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(ticketScanTargets(&ticket)...); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(ticketScanTargets(&ticket)...); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

func ticketScanTargets(ticket *domain.Ticket) []any {
	return []any{
		&ticket.ID,
		&ticket.TicketNumber,
		&ticket.ReporterName,
		&ticket.ReporterUnit,
		&ticket.ReporterPhone,
		&ticket.Category,
		&ticket.Description,
		&ticket.PhotoURL,
		&ticket.Status,
		&ticket.Priority,
		&ticket.ProblemTypeID,
		&ticket.AssignedTo,
		&ticket.ReporterUserID,
		&ticket.IsActive,
		&ticket.CompletedAt,
		&ticket.ProofPhotoURL,
		&ticket.PickedUpAt,
		&ticket.StatusChangedAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.AssigneeName,
		&ticket.ProblemTypeName,
	}
}
