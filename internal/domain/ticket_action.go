package domain

import "time"

// ActionType captures what a technician reported doing on a ticket.
type ActionType string

const (
	ActionInProgress ActionType = "in-progress"
	ActionWaiting    ActionType = "waiting"
	ActionConfirmed  ActionType = "confirmed"
)

func (a ActionType) IsValid() bool {
	switch a {
	case ActionInProgress, ActionWaiting, ActionConfirmed:
		return true
	}
	return false
}

// TicketAction is an immutable journal entry.
type TicketAction struct {
	ID          string
	TicketID    string
	ActionType  ActionType
	Description string
	PhotoURL    *string
	CreatedBy   string
	CreatedAt   time.Time

	CreatorName string
}

// CoAssignment records a secondary technician invited onto a ticket.
type CoAssignment struct {
	ID           string
	TicketID     string
	TechnicianID string
	AssignedBy   string
	CreatedAt    time.Time

	TechnicianName string
}
