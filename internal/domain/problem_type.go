package domain

import "time"

// ProblemType is an admin-managed taxonomy entry attached to tickets.
type ProblemType struct {
	ID           string
	Name         string
	Slug         string
	DisplayOrder int
	CreatedAt    time.Time
}

// TechnicianActivity is a work log entry not tied to a ticket.
type TechnicianActivity struct {
	ID           string
	TechnicianID string
	ActivityDate time.Time
	Title        string
	Description  string
	Location     string
	CreatedAt    time.Time
}
