package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNew        TicketStatus = "New"
	TicketStatusInProgress TicketStatus = "InProgress"
	TicketStatusDone       TicketStatus = "Done"
	TicketStatusCancelled  TicketStatus = "Cancelled"
)

// TicketPriority enumerates urgency. A ticket may have no priority.
type TicketPriority string

const (
	TicketPriorityHigh   TicketPriority = "High"
	TicketPriorityMedium TicketPriority = "Medium"
	TicketPriorityLow    TicketPriority = "Low"
)

// TicketStatuses lists every status in lifecycle order.
func TicketStatuses() []TicketStatus {
	return []TicketStatus{TicketStatusNew, TicketStatusInProgress, TicketStatusDone, TicketStatusCancelled}
}

func (s TicketStatus) IsValid() bool {
	switch s {
	case TicketStatusNew, TicketStatusInProgress, TicketStatusDone, TicketStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further status change is allowed.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusDone || s == TicketStatusCancelled
}

func (p TicketPriority) IsValid() bool {
	switch p {
	case TicketPriorityHigh, TicketPriorityMedium, TicketPriorityLow:
		return true
	}
	return false
}

// statusTransitions holds the moves reachable through an explicit status change.
// New -> InProgress happens only by taking the ticket.
var statusTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusNew:        {},
	TicketStatusInProgress: {TicketStatusDone, TicketStatusCancelled},
	TicketStatusDone:       {},
	TicketStatusCancelled:  {},
}

// CanChangeStatus reports whether a status-change request may move current to next.
func CanChangeStatus(current, next TicketStatus) bool {
	for _, candidate := range statusTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Ticket is the aggregate for a reported problem.
type Ticket struct {
	ID              string
	TicketNumber    string
	ReporterName    string
	ReporterUnit    string
	ReporterPhone   string
	Category        TicketCategory
	Description     string
	PhotoURL        *string
	Status          TicketStatus
	Priority        *TicketPriority
	ProblemTypeID   *string
	AssignedTo      *string
	ReporterUserID  *string
	IsActive        bool
	CompletedAt     *time.Time
	ProofPhotoURL   *string
	PickedUpAt      *time.Time
	StatusChangedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// Read-side joins, not persisted on the ticket row.
	AssigneeName    *string
	ProblemTypeName *string
}

// IsAssignedTo reports whether userID is the primary assignee.
func (t *Ticket) IsAssignedTo(userID string) bool {
	return t.AssignedTo != nil && *t.AssignedTo == userID
}
