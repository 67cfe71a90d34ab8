package repository

import (
	"context"

	"github.com/spec-kit/helpdesk/internal/domain"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// CoAssignmentRepository is the append-only ledger of secondary technicians.
type CoAssignmentRepository interface {
	Add(ctx context.Context, ca *domain.CoAssignment) error
	Exists(ctx context.Context, ticketID, technicianID string) (bool, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.CoAssignment, error)
}

type coAssignmentRepository struct {
	db DBTX
}

// NewCoAssignmentRepository builds repository.
func NewCoAssignmentRepository(db DBTX) CoAssignmentRepository {
	return &coAssignmentRepository{db: db}
}

// Add inserts the pair; a duplicate (ticket, technician) pair fails with a conflict.
func (r *coAssignmentRepository) Add(ctx context.Context, ca *domain.CoAssignment) error {
	const query = `
        INSERT INTO ticket_co_assignments (ticket_id, technician_id, assigned_by)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	err := r.db.QueryRow(ctx, query, ca.TicketID, ca.TechnicianID, ca.AssignedBy).Scan(&ca.ID, &ca.CreatedAt)
	if apperrors.IsUniqueViolation(err) {
		return apperrors.NewConflict("technician already co-assigned", map[string]any{
			"ticketId":     ca.TicketID,
			"technicianId": ca.TechnicianID,
		})
	}
	return err
}

func (r *coAssignmentRepository) Exists(ctx context.Context, ticketID, technicianID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM ticket_co_assignments WHERE ticket_id=$1 AND technician_id=$2)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, ticketID, technicianID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *coAssignmentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.CoAssignment, error) {
	const query = `
        SELECT ca.id, ca.ticket_id, ca.technician_id, ca.assigned_by, ca.created_at, COALESCE(u.full_name, '')
        FROM ticket_co_assignments ca
        LEFT JOIN users u ON u.id = ca.technician_id
        WHERE ca.ticket_id=$1
        ORDER BY ca.created_at ASC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.CoAssignment
	for rows.Next() {
		var ca domain.CoAssignment
		if err := rows.Scan(&ca.ID, &ca.TicketID, &ca.TechnicianID, &ca.AssignedBy, &ca.CreatedAt, &ca.TechnicianName); err != nil {
			return nil, err
		}
		result = append(result, ca)
	}
	return result, rows.Err()
}
