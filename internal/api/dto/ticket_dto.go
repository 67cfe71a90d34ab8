package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/service"
)

// CreateTicketRequest is the public multipart report form.
type CreateTicketRequest struct {
	ReporterName  string  `form:"reporterName" validate:"required,max=120"`
	ReporterUnit  string  `form:"reporterUnit" validate:"required,max=120"`
	ReporterPhone string  `form:"reporterPhone" validate:"required,max=40"`
	Category      string  `form:"category" validate:"required,oneof=A B"`
	Description   string  `form:"description" validate:"required"`
	ProblemTypeID *string `form:"problemTypeId" validate:"omitempty,uuid"`
}

// ChangeStatusRequest payload.
type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=New InProgress Done Cancelled"`
}

// ChangePriorityRequest payload. A null priority clears it.
type ChangePriorityRequest struct {
	Priority *string `json:"priority" validate:"omitempty,oneof=High Medium Low"`
}

// CoAssignRequest payload.
type CoAssignRequest struct {
	TechnicianID string `json:"technicianId" validate:"required,uuid"`
}

// AddActionRequest is the multipart journal entry form.
type AddActionRequest struct {
	ActionType  string `form:"actionType" validate:"required,oneof=in-progress waiting confirmed"`
	Description string `form:"description" validate:"max=2000"`
}

// TicketResponse is the full ticket representation.
type TicketResponse struct {
	ID              string                 `json:"id"`
	TicketNumber    string                 `json:"ticketNumber"`
	ReporterName    string                 `json:"reporterName"`
	ReporterUnit    string                 `json:"reporterUnit"`
	ReporterPhone   string                 `json:"reporterPhone"`
	Category        domain.TicketCategory  `json:"category"`
	Description     string                 `json:"description"`
	PhotoURL        *string                `json:"photoUrl"`
	Status          domain.TicketStatus    `json:"status"`
	Priority        *domain.TicketPriority `json:"priority"`
	ProblemTypeID   *string                `json:"problemTypeId"`
	ProblemTypeName *string                `json:"problemTypeName"`
	AssignedTo      *string                `json:"assignedTo"`
	AssigneeName    *string                `json:"assigneeName"`
	CompletedAt     *time.Time             `json:"completedAt"`
	ProofPhotoURL   *string                `json:"proofPhotoUrl"`
	PickedUpAt      *time.Time             `json:"pickedUpAt"`
	StatusChangedAt *time.Time             `json:"statusChangedAt"`
	CreatedAt       time.Time              `json:"createdAt"`
	UpdatedAt       time.Time              `json:"updatedAt"`
}

// TicketListItem is a listing row.
type TicketListItem struct {
	TicketResponse
	LatestAction *ActionResponse `json:"latestAction"`
}

// TicketDetailResponse adds the journal and co-assignees.
type TicketDetailResponse struct {
	TicketResponse
	Actions     []ActionResponse       `json:"actions"`
	CoAssignees []CoAssignmentResponse `json:"coAssignees"`
}

// TrackResponse is what a reporter sees when tracking by number.
type TrackResponse struct {
	TicketNumber string                `json:"ticketNumber"`
	ReporterName string                `json:"reporterName"`
	ReporterUnit string                `json:"reporterUnit"`
	Category     domain.TicketCategory `json:"category"`
	Description  string                `json:"description"`
	PhotoURL     *string               `json:"photoUrl"`
	Status       domain.TicketStatus   `json:"status"`
	AssigneeName *string               `json:"assigneeName"`
	CompletedAt  *time.Time            `json:"completedAt"`
	CreatedAt    time.Time             `json:"createdAt"`
	Actions      []ActionResponse      `json:"actions"`
}

// ActionResponse is a journal entry.
type ActionResponse struct {
	ID          string            `json:"id"`
	ActionType  domain.ActionType `json:"actionType"`
	Description string            `json:"description"`
	PhotoURL    *string           `json:"photoUrl"`
	CreatedBy   string            `json:"createdBy"`
	CreatorName string            `json:"creatorName"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// CoAssignmentResponse is a co-assignment ledger entry.
type CoAssignmentResponse struct {
	ID             string    `json:"id"`
	TechnicianID   string    `json:"technicianId"`
	TechnicianName string    `json:"technicianName"`
	AssignedBy     string    `json:"assignedBy"`
	CreatedAt      time.Time `json:"createdAt"`
}

// PageMeta describes pagination.
type PageMeta struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
	Total    int `json:"total"`
}

func NewTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:              t.ID,
		TicketNumber:    t.TicketNumber,
		ReporterName:    t.ReporterName,
		ReporterUnit:    t.ReporterUnit,
		ReporterPhone:   t.ReporterPhone,
		Category:        t.Category,
		Description:     t.Description,
		PhotoURL:        t.PhotoURL,
		Status:          t.Status,
		Priority:        t.Priority,
		ProblemTypeID:   t.ProblemTypeID,
		ProblemTypeName: t.ProblemTypeName,
		AssignedTo:      t.AssignedTo,
		AssigneeName:    t.AssigneeName,
		CompletedAt:     t.CompletedAt,
		ProofPhotoURL:   t.ProofPhotoURL,
		PickedUpAt:      t.PickedUpAt,
		StatusChangedAt: t.StatusChangedAt,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

func NewActionResponse(a *domain.TicketAction) ActionResponse {
	return ActionResponse{
		ID:          a.ID,
		ActionType:  a.ActionType,
		Description: a.Description,
		PhotoURL:    a.PhotoURL,
		CreatedBy:   a.CreatedBy,
		CreatorName: a.CreatorName,
		CreatedAt:   a.CreatedAt,
	}
}

func NewActionResponses(actions []domain.TicketAction) []ActionResponse {
	resp := make([]ActionResponse, 0, len(actions))
	for i := range actions {
		resp = append(resp, NewActionResponse(&actions[i]))
	}
	return resp
}

func NewCoAssignmentResponse(ca *domain.CoAssignment) CoAssignmentResponse {
	return CoAssignmentResponse{
		ID:             ca.ID,
		TechnicianID:   ca.TechnicianID,
		TechnicianName: ca.TechnicianName,
		AssignedBy:     ca.AssignedBy,
		CreatedAt:      ca.CreatedAt,
	}
}

func NewCoAssignmentResponses(list []domain.CoAssignment) []CoAssignmentResponse {
	resp := make([]CoAssignmentResponse, 0, len(list))
	for i := range list {
		resp = append(resp, NewCoAssignmentResponse(&list[i]))
	}
	return resp
}

// NewTicketDetailResponse flattens a service detail.
func NewTicketDetailResponse(detail *service.TicketDetail) TicketDetailResponse {
	return TicketDetailResponse{
		TicketResponse: NewTicketResponse(detail.Ticket),
		Actions:        NewActionResponses(detail.Actions),
		CoAssignees:    NewCoAssignmentResponses(detail.CoAssignees),
	}
}

// NewTrackResponse omits the reporter phone and internal references.
func NewTrackResponse(detail *service.TicketDetail) TrackResponse {
	t := detail.Ticket
	return TrackResponse{
		TicketNumber: t.TicketNumber,
		ReporterName: t.ReporterName,
		ReporterUnit: t.ReporterUnit,
		Category:     t.Category,
		Description:  t.Description,
		PhotoURL:     t.PhotoURL,
		Status:       t.Status,
		AssigneeName: t.AssigneeName,
		CompletedAt:  t.CompletedAt,
		CreatedAt:    t.CreatedAt,
		Actions:      NewActionResponses(detail.Actions),
	}
}

// NewTicketListItems converts a service page into listing rows.
func NewTicketListItems(page *service.TicketPage) []TicketListItem {
	items := make([]TicketListItem, 0, len(page.Items))
	for i := range page.Items {
		item := TicketListItem{TicketResponse: NewTicketResponse(&page.Items[i].Ticket)}
		if page.Items[i].LatestAction != nil {
			action := NewActionResponse(page.Items[i].LatestAction)
			item.LatestAction = &action
		}
		items = append(items, item)
	}
	return items
}
