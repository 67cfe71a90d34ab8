package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/storage"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// TicketService is the ticket lifecycle engine.
type TicketService struct {
	tickets       repository.TicketRepository
	actions       repository.TicketActionRepository
	coAssignments repository.CoAssignmentRepository
	users         repository.UserRepository
	problemTypes  repository.ProblemTypeRepository
	files         storage.FileStore
	publisher     events.Publisher
	logger        *zap.Logger
	numbers       NumberGenerator
	now           func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo       repository.TicketRepository
	ActionRepo       repository.TicketActionRepository
	CoAssignmentRepo repository.CoAssignmentRepository
	UserRepo         repository.UserRepository
	ProblemTypeRepo  repository.ProblemTypeRepository
	Files            storage.FileStore
	Publisher        events.Publisher
	Logger           *zap.Logger
	// Numbers overrides ticket number generation; nil uses the default format.
	Numbers NumberGenerator
}

// TicketCreateInput is the public report form.
type TicketCreateInput struct {
	ReporterName  string
	ReporterUnit  string
	ReporterPhone string
	Category      domain.TicketCategory
	Description   string
	ProblemTypeID *string
	Photo         *storage.Upload
}

// TicketListFilter describes dashboard listing filters.
type TicketListFilter struct {
	Category    *domain.TicketCategory
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Page        int
}

// TicketSummary is a list row with its latest journal entry.
type TicketSummary struct {
	Ticket       domain.Ticket
	LatestAction *domain.TicketAction
}

// TicketPage is one page of a listing.
type TicketPage struct {
	Items    []TicketSummary
	Total    int
	Page     int
	PageSize int
}

// TicketDetail is a ticket with its journal and co-assignees.
type TicketDetail struct {
	Ticket      *domain.Ticket
	Actions     []domain.TicketAction
	CoAssignees []domain.CoAssignment
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	numbers := deps.Numbers
	if numbers == nil {
		numbers = defaultTicketNumber
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:       deps.TicketRepo,
		actions:       deps.ActionRepo,
		coAssignments: deps.CoAssignmentRepo,
		users:         deps.UserRepo,
		problemTypes:  deps.ProblemTypeRepo,
		files:         deps.Files,
		publisher:     deps.Publisher,
		logger:        logger,
		numbers:       numbers,
		now:           time.Now,
	}
}

// CreateTicket files a public report. A ticket number collision is retried with
// a fresh number a bounded number of times.
func (s *TicketService) CreateTicket(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	ticket := &domain.Ticket{
		ReporterName:  strings.TrimSpace(input.ReporterName),
		ReporterUnit:  strings.TrimSpace(input.ReporterUnit),
		ReporterPhone: strings.TrimSpace(input.ReporterPhone),
		Category:      input.Category,
		Description:   strings.TrimSpace(input.Description),
		ProblemTypeID: input.ProblemTypeID,
		Status:        domain.TicketStatusNew,
	}
	if err := validateNewTicket(ticket); err != nil {
		return nil, err
	}
	if ticket.ProblemTypeID != nil {
		if _, err := s.problemTypes.GetByID(ctx, *ticket.ProblemTypeID); err != nil {
			if apperrors.IsNotFound(err) {
				return nil, apperrors.NewFieldValidationError(apperrors.FieldError{Field: "problemTypeId", Message: "unknown problem type"})
			}
			return nil, apperrors.MapError(err)
		}
	}
	if input.Photo != nil {
		url, err := s.files.Save(ctx, "tickets", *input.Photo)
		if err != nil {
			return nil, err
		}
		ticket.PhotoURL = &url
	}

	var err error
	for attempt := 1; attempt <= ticketNumberAttempts; attempt++ {
		ticket.TicketNumber = s.numbers(s.now())
		err = s.tickets.Create(ctx, ticket)
		if err == nil || !apperrors.IsUniqueViolation(err) {
			break
		}
		s.logger.Warn("ticket number collision", zap.String("ticket_number", ticket.TicketNumber), zap.Int("attempt", attempt))
	}
	if err != nil {
		if ticket.PhotoURL != nil {
			s.discardUpload(ctx, *ticket.PhotoURL)
		}
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("could not allocate a ticket number, please retry", nil)
		}
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.EventTicketNew, ticket.ID, "", events.TicketNewPayload{
		TicketNumber: ticket.TicketNumber,
		Category:     ticket.Category,
		ReporterName: ticket.ReporterName,
		ReporterUnit: ticket.ReporterUnit,
		Description:  ticket.Description,
	})
	return ticket, nil
}

// TakeTicket claims an unassigned ticket for the caller.
func (s *TicketService) TakeTicket(ctx context.Context, caller domain.Caller, id string) (*domain.Ticket, error) {
	ticket, err := s.activeTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	category, ok := caller.Role.Category()
	if !ok {
		return nil, apperrors.NewForbidden("only technicians can take tickets")
	}
	if category != ticket.Category {
		return nil, apperrors.NewForbidden("ticket belongs to another category")
	}

	claimed, err := s.tickets.Claim(ctx, id, caller.UserID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !claimed {
		// Lost the race or the ticket changed underneath us; re-read to report why.
		if _, err := s.activeTicket(ctx, id); err != nil {
			return nil, err
		}
		return nil, apperrors.NewConflict("ticket has already been taken", map[string]any{"id": id})
	}
	s.publish(ctx, events.EventTicketTaken, ticket.ID, caller.UserID, events.TicketTakenPayload{
		TicketNumber: ticket.TicketNumber,
		Category:     ticket.Category,
		TakenBy:      caller.UserID,
	})
	return s.activeTicket(ctx, id)
}

// ChangeStatus moves an in-progress ticket to Done or Cancelled.
func (s *TicketService) ChangeStatus(ctx context.Context, caller domain.Caller, id string, status domain.TicketStatus) (*domain.Ticket, error) {
	if !status.IsValid() {
		return nil, apperrors.NewFieldValidationError(apperrors.FieldError{Field: "status", Message: "must be one of New, InProgress, Done, Cancelled"})
	}
	ticket, err := s.mutableTicket(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanChangeStatus(ticket.Status, status) {
		return nil, apperrors.NewConflict("status transition not allowed", map[string]any{
			"from": ticket.Status,
			"to":   status,
		})
	}

	var completedAt *time.Time
	if status == domain.TicketStatusDone {
		now := s.now()
		completedAt = &now
	}
	moved, err := s.tickets.UpdateStatus(ctx, id, ticket.Status, status, completedAt)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !moved {
		return nil, apperrors.NewConflict("ticket status changed concurrently", map[string]any{"id": id})
	}

	participants, err := s.participants(ctx, ticket)
	if err != nil {
		s.logger.Warn("resolve ticket participants", zap.String("ticket_id", id), zap.Error(err))
	}
	s.publish(ctx, events.EventTicketStatusChanged, ticket.ID, caller.UserID, events.TicketStatusChangedPayload{
		TicketNumber: ticket.TicketNumber,
		OldStatus:    ticket.Status,
		NewStatus:    status,
		ChangedBy:    caller.UserID,
		Participants: participants,
	})
	return s.activeTicket(ctx, id)
}

// ChangePriority sets or clears the priority at any status.
func (s *TicketService) ChangePriority(ctx context.Context, caller domain.Caller, id string, priority *domain.TicketPriority) (*domain.Ticket, error) {
	if priority != nil && !priority.IsValid() {
		return nil, apperrors.NewFieldValidationError(apperrors.FieldError{Field: "priority", Message: "must be one of High, Medium, Low or null"})
	}
	if _, err := s.mutableTicket(ctx, caller, id); err != nil {
		return nil, err
	}
	if err := s.tickets.UpdatePriority(ctx, id, priority); err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.activeTicket(ctx, id)
}

// CoAssign invites another technician of the caller's role onto the ticket.
func (s *TicketService) CoAssign(ctx context.Context, caller domain.Caller, id, technicianID string) (*domain.CoAssignment, error) {
	ticket, err := s.mutableTicket(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if technicianID == caller.UserID {
		return nil, apperrors.NewFieldValidationError(apperrors.FieldError{Field: "technicianId", Message: "cannot co-assign yourself"})
	}
	target, err := s.users.GetByID(ctx, technicianID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("technician", map[string]any{"id": technicianID})
		}
		return nil, apperrors.MapError(err)
	}
	if !target.IsActive {
		return nil, apperrors.NewFieldValidationError(apperrors.FieldError{Field: "technicianId", Message: "technician is not active"})
	}
	if target.Role != caller.Role {
		return nil, apperrors.NewFieldValidationError(apperrors.FieldError{Field: "technicianId", Message: "technician must share your category"})
	}
	if ticket.IsAssignedTo(technicianID) {
		return nil, apperrors.NewConflict("technician is already the assignee", map[string]any{"technicianId": technicianID})
	}

	ca := &domain.CoAssignment{TicketID: ticket.ID, TechnicianID: technicianID, AssignedBy: caller.UserID}
	if err := s.coAssignments.Add(ctx, ca); err != nil {
		return nil, apperrors.MapError(err)
	}
	ca.TechnicianName = target.FullName

	assignerName := ""
	if assigner, err := s.users.GetByID(ctx, caller.UserID); err == nil {
		assignerName = assigner.FullName
	}
	s.publish(ctx, events.EventTicketCoAssigned, ticket.ID, caller.UserID, events.TicketCoAssignedPayload{
		TicketNumber:   ticket.TicketNumber,
		TechnicianID:   technicianID,
		AssignedBy:     caller.UserID,
		AssignedByName: assignerName,
	})
	return ca, nil
}

// AddAction appends a journal entry.
func (s *TicketService) AddAction(ctx context.Context, caller domain.Caller, id string, actionType domain.ActionType, description string, photo *storage.Upload) (*domain.TicketAction, error) {
	if !actionType.IsValid() {
		return nil, apperrors.NewFieldValidationError(apperrors.FieldError{Field: "actionType", Message: "must be one of in-progress, waiting, confirmed"})
	}
	if _, err := s.mutableTicket(ctx, caller, id); err != nil {
		return nil, err
	}

	action := &domain.TicketAction{
		TicketID:    id,
		ActionType:  actionType,
		Description: strings.TrimSpace(description),
		CreatedBy:   caller.UserID,
	}
	if photo != nil {
		url, err := s.files.Save(ctx, "actions", *photo)
		if err != nil {
			return nil, err
		}
		action.PhotoURL = &url
	}
	if err := s.actions.Append(ctx, action); err != nil {
		if action.PhotoURL != nil {
			s.discardUpload(ctx, *action.PhotoURL)
		}
		return nil, apperrors.MapError(err)
	}
	return action, nil
}

// UploadProof attaches the completion photo.
func (s *TicketService) UploadProof(ctx context.Context, caller domain.Caller, id string, photo storage.Upload) (*domain.Ticket, error) {
	if _, err := s.mutableTicket(ctx, caller, id); err != nil {
		return nil, err
	}
	url, err := s.files.Save(ctx, "proofs", photo)
	if err != nil {
		return nil, err
	}
	if err := s.tickets.UpdateProof(ctx, id, url); err != nil {
		s.discardUpload(ctx, url)
		return nil, apperrors.MapError(err)
	}
	return s.activeTicket(ctx, id)
}

// SoftDelete hides a ticket from every listing. Admin only.
func (s *TicketService) SoftDelete(ctx context.Context, caller domain.Caller, id string) error {
	if !caller.IsAdmin() {
		return apperrors.NewForbidden("only admins can delete tickets")
	}
	deleted, err := s.tickets.SoftDelete(ctx, id)
	if err != nil {
		return apperrors.MapError(err)
	}
	if !deleted {
		return apperrors.NewNotFound("ticket", map[string]any{"id": id})
	}
	s.publish(ctx, events.EventTicketDeleted, id, caller.UserID, events.TicketDeletedPayload{DeletedBy: caller.UserID})
	return nil
}

// GetTicket returns a visible ticket with its journal and co-assignees.
func (s *TicketService) GetTicket(ctx context.Context, caller domain.Caller, id string) (*TicketDetail, error) {
	ticket, err := s.visibleTicket(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, ticket)
}

// ListCoAssignees returns the co-assignment ledger of a visible ticket.
func (s *TicketService) ListCoAssignees(ctx context.Context, caller domain.Caller, id string) ([]domain.CoAssignment, error) {
	if _, err := s.visibleTicket(ctx, caller, id); err != nil {
		return nil, err
	}
	list, err := s.coAssignments.ListByTicket(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return list, nil
}

// TrackTicket is the public lookup by ticket number.
func (s *TicketService) TrackTicket(ctx context.Context, number string) (*TicketDetail, error) {
	ticket, err := s.tickets.GetByNumber(ctx, strings.TrimSpace(number))
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticketNumber": number})
		}
		return nil, apperrors.MapError(err)
	}
	if !ticket.IsActive {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticketNumber": number})
	}
	actions, err := s.actions.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &TicketDetail{Ticket: ticket, Actions: actions}, nil
}

// ListTickets pages the dashboard listing. Technicians only ever see their category.
func (s *TicketService) ListTickets(ctx context.Context, caller domain.Caller, filter TicketListFilter) (*TicketPage, error) {
	repoFilter := s.repoFilter(filter)
	if category, ok := caller.Role.Category(); ok {
		repoFilter.Category = &category
	} else if !caller.IsAdmin() {
		return nil, apperrors.NewForbidden("unknown role")
	}
	return s.page(ctx, repoFilter, filter.Page)
}

// ListMyTasks pages tickets the caller is assigned or co-assigned to.
func (s *TicketService) ListMyTasks(ctx context.Context, caller domain.Caller, filter TicketListFilter) (*TicketPage, error) {
	if !caller.Role.IsTechnician() {
		return nil, apperrors.NewForbidden("only technicians have tasks")
	}
	repoFilter := s.repoFilter(filter)
	repoFilter.Category = nil
	repoFilter.ParticipantID = &caller.UserID
	return s.page(ctx, repoFilter, filter.Page)
}

func (s *TicketService) repoFilter(filter TicketListFilter) repository.TicketFilter {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	return repository.TicketFilter{
		Category:    filter.Category,
		Statuses:    filter.Statuses,
		Priorities:  filter.Priorities,
		SearchTerm:  filter.SearchTerm,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       repository.DefaultTicketPageSize,
		Offset:      (page - 1) * repository.DefaultTicketPageSize,
	}
}

func (s *TicketService) page(ctx context.Context, filter repository.TicketFilter, page int) (*TicketPage, error) {
	if page < 1 {
		page = 1
	}
	tickets, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	total, err := s.tickets.Count(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	ids := make([]string, len(tickets))
	for i := range tickets {
		ids[i] = tickets[i].ID
	}
	latest, err := s.actions.LatestByTickets(ctx, ids)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	items := make([]TicketSummary, len(tickets))
	for i := range tickets {
		items[i] = TicketSummary{Ticket: tickets[i]}
		if action, ok := latest[tickets[i].ID]; ok {
			items[i].LatestAction = &action
		}
	}
	return &TicketPage{Items: items, Total: total, Page: page, PageSize: repository.DefaultTicketPageSize}, nil
}

func (s *TicketService) detail(ctx context.Context, ticket *domain.Ticket) (*TicketDetail, error) {
	actions, err := s.actions.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	coAssignees, err := s.coAssignments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &TicketDetail{Ticket: ticket, Actions: actions, CoAssignees: coAssignees}, nil
}

func (s *TicketService) participants(ctx context.Context, ticket *domain.Ticket) ([]string, error) {
	var ids []string
	if ticket.AssignedTo != nil {
		ids = append(ids, *ticket.AssignedTo)
	}
	list, err := s.coAssignments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return ids, err
	}
	for _, ca := range list {
		ids = append(ids, ca.TechnicianID)
	}
	return ids, nil
}

// publish hands the event to the dispatcher. Failures are logged and never
// surface to the caller.
// discardUpload removes a photo whose row was never written.
func (s *TicketService) discardUpload(ctx context.Context, url string) {
	if err := s.files.Remove(ctx, url); err != nil {
		s.logger.Warn("remove orphaned upload", zap.String("url", url), zap.Error(err))
	}
}

func (s *TicketService) publish(ctx context.Context, eventType events.EventType, ticketID, actorID string, payload any) {
	if s.publisher == nil {
		return
	}
	event, err := events.NewEvent(eventType, ticketID, actorID, payload)
	if err != nil {
		s.logger.Error("build event", zap.String("event_type", string(eventType)), zap.Error(err))
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("publish event",
			zap.String("event_type", string(eventType)),
			zap.String("ticket_id", ticketID),
			zap.Error(err),
		)
	}
}

func validateNewTicket(ticket *domain.Ticket) error {
	var fields []apperrors.FieldError
	if ticket.ReporterName == "" {
		fields = append(fields, apperrors.FieldError{Field: "reporterName", Message: "is required"})
	}
	if ticket.ReporterUnit == "" {
		fields = append(fields, apperrors.FieldError{Field: "reporterUnit", Message: "is required"})
	}
	if ticket.ReporterPhone == "" {
		fields = append(fields, apperrors.FieldError{Field: "reporterPhone", Message: "is required"})
	}
	if !ticket.Category.IsValid() {
		fields = append(fields, apperrors.FieldError{Field: "category", Message: "must be A or B"})
	}
	if ticket.Description == "" {
		fields = append(fields, apperrors.FieldError{Field: "description", Message: "is required"})
	}
	if len(fields) > 0 {
		return apperrors.NewFieldValidationError(fields...)
	}
	return nil
}
