package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketNew           EventType = "ticket.new"
	EventTicketCoAssigned    EventType = "ticket.co_assigned"
	EventTicketStatusChanged EventType = "ticket.status_changed"
	EventTicketTaken         EventType = "ticket.taken"
	EventTicketDeleted       EventType = "ticket.deleted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	TicketID  string          `json:"ticket_id"`
	ActorID   string          `json:"actor_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// NewEvent stamps an event and encodes its payload.
func NewEvent(eventType EventType, ticketID, actorID string, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		ActorID:   actorID,
		Timestamp: time.Now().UTC(),
		Payload:   raw,
	}, nil
}

// DecodePayload unmarshals the payload into dest.
func (e Event) DecodePayload(dest any) error {
	if err := json.Unmarshal(e.Payload, dest); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}

// TicketNewPayload is published when a reporter submits a ticket.
type TicketNewPayload struct {
	TicketNumber string                `json:"ticket_number"`
	Category     domain.TicketCategory `json:"category"`
	ReporterName string                `json:"reporter_name"`
	ReporterUnit string                `json:"reporter_unit"`
	Description  string                `json:"description"`
}

// TicketCoAssignedPayload is published when a technician is invited onto a ticket.
type TicketCoAssignedPayload struct {
	TicketNumber   string `json:"ticket_number"`
	TechnicianID   string `json:"technician_id"`
	AssignedBy     string `json:"assigned_by"`
	AssignedByName string `json:"assigned_by_name"`
}

// TicketStatusChangedPayload is published after a successful status change.
type TicketStatusChangedPayload struct {
	TicketNumber string              `json:"ticket_number"`
	OldStatus    domain.TicketStatus `json:"old_status"`
	NewStatus    domain.TicketStatus `json:"new_status"`
	ChangedBy    string              `json:"changed_by"`
	// Participants holds the assignee and co-assignees at the time of the change.
	Participants []string `json:"participants"`
}

// TicketTakenPayload is published when a technician claims a New ticket.
type TicketTakenPayload struct {
	TicketNumber string                `json:"ticket_number"`
	Category     domain.TicketCategory `json:"category"`
	TakenBy      string                `json:"taken_by"`
}

// TicketDeletedPayload is published after an admin soft delete.
type TicketDeletedPayload struct {
	DeletedBy string `json:"deleted_by"`
}
