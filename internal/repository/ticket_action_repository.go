package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// TicketActionRepository is the append-only action journal.
type TicketActionRepository interface {
	Append(ctx context.Context, action *domain.TicketAction) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketAction, error)
	// LatestByTickets returns the most recent action per ticket, keyed by ticket id.
	LatestByTickets(ctx context.Context, ticketIDs []string) (map[string]domain.TicketAction, error)
}

type ticketActionRepository struct {
	db DBTX
}

// NewTicketActionRepository builds repository.
func NewTicketActionRepository(db DBTX) TicketActionRepository {
	return &ticketActionRepository{db: db}
}

func (r *ticketActionRepository) Append(ctx context.Context, action *domain.TicketAction) error {
	const query = `
        INSERT INTO ticket_actions (ticket_id, action_type, description, photo_url, created_by)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		action.TicketID,
		action.ActionType,
		action.Description,
		action.PhotoURL,
		action.CreatedBy,
	).Scan(&action.ID, &action.CreatedAt)
}

func (r *ticketActionRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketAction, error) {
	const query = `
        SELECT a.id, a.ticket_id, a.action_type, a.description, a.photo_url, a.created_by, a.created_at,
               COALESCE(u.full_name, '')
        FROM ticket_actions a
        LEFT JOIN users u ON u.id = a.created_by
        WHERE a.ticket_id=$1
        ORDER BY a.created_at DESC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanActions(rows)
}

func (r *ticketActionRepository) LatestByTickets(ctx context.Context, ticketIDs []string) (map[string]domain.TicketAction, error) {
	result := make(map[string]domain.TicketAction, len(ticketIDs))
	if len(ticketIDs) == 0 {
		return result, nil
	}
	const query = `
        SELECT DISTINCT ON (a.ticket_id)
               a.id, a.ticket_id, a.action_type, a.description, a.photo_url, a.created_by, a.created_at,
               COALESCE(u.full_name, '')
        FROM ticket_actions a
        LEFT JOIN users u ON u.id = a.created_by
        WHERE a.ticket_id = ANY($1)
        ORDER BY a.ticket_id, a.created_at DESC`
	rows, err := r.db.Query(ctx, query, ticketIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	actions, err := scanActions(rows)
	if err != nil {
		return nil, err
	}
	for _, action := range actions {
		result[action.TicketID] = action
	}
	return result, nil
}

func scanActions(rows pgx.Rows) ([]domain.TicketAction, error) {
	var result []domain.TicketAction
	for rows.Next() {
		var action domain.TicketAction
		if err := rows.Scan(
			&action.ID,
			&action.TicketID,
			&action.ActionType,
			&action.Description,
			&action.PhotoURL,
			&action.CreatedBy,
			&action.CreatedAt,
			&action.CreatorName,
		); err != nil {
			return nil, err
		}
		result = append(result, action)
	}
	return result, rows.Err()
}
