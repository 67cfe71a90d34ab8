package service

import (
	"context"

	"github.com/spec-kit/helpdesk/internal/domain"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// canMutate reports whether caller is the assignee or a co-assignee. Admins never pass.
func (s *TicketService) canMutate(ctx context.Context, caller domain.Caller, ticket *domain.Ticket) (bool, error) {
	if caller.IsAdmin() {
		return false, nil
	}
	if ticket.IsAssignedTo(caller.UserID) {
		return true, nil
	}
	return s.coAssignments.Exists(ctx, ticket.ID, caller.UserID)
}

// canView reports whether caller may read ticket.
func (s *TicketService) canView(ctx context.Context, caller domain.Caller, ticket *domain.Ticket) (bool, error) {
	if caller.IsAdmin() {
		return true, nil
	}
	if category, ok := caller.Role.Category(); ok && category == ticket.Category {
		return true, nil
	}
	if ticket.IsAssignedTo(caller.UserID) {
		return true, nil
	}
	return s.coAssignments.Exists(ctx, ticket.ID, caller.UserID)
}

// activeTicket loads a ticket and hides soft-deleted rows behind NotFound.
func (s *TicketService) activeTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	if !ticket.IsActive {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
	}
	return ticket, nil
}

// mutableTicket loads a ticket the caller is allowed to change.
func (s *TicketService) mutableTicket(ctx context.Context, caller domain.Caller, id string) (*domain.Ticket, error) {
	ticket, err := s.activeTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller.IsAdmin() {
		return nil, apperrors.NewForbidden("admins cannot modify tickets")
	}
	ok, err := s.canMutate(ctx, caller, ticket)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !ok {
		return nil, apperrors.NewForbidden("only the assigned or co-assigned technician may modify this ticket")
	}
	return ticket, nil
}

// visibleTicket loads a ticket the caller is allowed to read.
func (s *TicketService) visibleTicket(ctx context.Context, caller domain.Caller, id string) (*domain.Ticket, error) {
	ticket, err := s.activeTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := s.canView(ctx, caller, ticket)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !ok {
		return nil, apperrors.NewForbidden("ticket is outside your category")
	}
	return ticket, nil
}
