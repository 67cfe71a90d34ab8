package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// NotificationResponse is one inbox entry.
type NotificationResponse struct {
	ID        string                  `json:"id"`
	TicketID  *string                 `json:"ticketId"`
	Title     string                  `json:"title"`
	Message   string                  `json:"message"`
	Type      domain.NotificationType `json:"type"`
	IsRead    bool                    `json:"isRead"`
	CreatedAt time.Time               `json:"createdAt"`
}

func NewNotificationResponses(list []domain.Notification) []NotificationResponse {
	resp := make([]NotificationResponse, 0, len(list))
	for _, n := range list {
		resp = append(resp, NotificationResponse{
			ID:        n.ID,
			TicketID:  n.TicketID,
			Title:     n.Title,
			Message:   n.Message,
			Type:      n.Type,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt,
		})
	}
	return resp
}

// ProblemTypeRequest payload for create and update.
type ProblemTypeRequest struct {
	Name         string `json:"name" validate:"required,max=100"`
	Slug         string `json:"slug" validate:"max=100"`
	DisplayOrder int    `json:"displayOrder" validate:"gte=0"`
}

// ProblemTypeResponse payload.
type ProblemTypeResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	DisplayOrder int    `json:"displayOrder"`
}

func NewProblemTypeResponse(pt *domain.ProblemType) ProblemTypeResponse {
	return ProblemTypeResponse{ID: pt.ID, Name: pt.Name, Slug: pt.Slug, DisplayOrder: pt.DisplayOrder}
}

func NewProblemTypeResponses(list []domain.ProblemType) []ProblemTypeResponse {
	resp := make([]ProblemTypeResponse, 0, len(list))
	for i := range list {
		resp = append(resp, NewProblemTypeResponse(&list[i]))
	}
	return resp
}

// ActivityRequest payload. ActivityDate is YYYY-MM-DD.
type ActivityRequest struct {
	ActivityDate string `json:"activityDate" validate:"required,datetime=2006-01-02"`
	Title        string `json:"title" validate:"required,max=200"`
	Description  string `json:"description" validate:"max=2000"`
	Location     string `json:"location" validate:"max=200"`
}

// ActivityResponse payload.
type ActivityResponse struct {
	ID           string    `json:"id"`
	ActivityDate string    `json:"activityDate"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Location     string    `json:"location"`
	CreatedAt    time.Time `json:"createdAt"`
}

func NewActivityResponse(a *domain.TechnicianActivity) ActivityResponse {
	return ActivityResponse{
		ID:           a.ID,
		ActivityDate: a.ActivityDate.Format(time.DateOnly),
		Title:        a.Title,
		Description:  a.Description,
		Location:     a.Location,
		CreatedAt:    a.CreatedAt,
	}
}

func NewActivityResponses(list []domain.TechnicianActivity) []ActivityResponse {
	resp := make([]ActivityResponse, 0, len(list))
	for i := range list {
		resp = append(resp, NewActivityResponse(&list[i]))
	}
	return resp
}
