// Package report renders dashboard data and technician reports as spreadsheets.
package report

import (
	"sort"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// EntryKind distinguishes rows of a technician report.
type EntryKind string

const (
	EntryActivity   EntryKind = "activity"
	EntryAssigned   EntryKind = "assigned"
	EntryCoAssigned EntryKind = "co_assigned"
)

// Entry is one dated line of a technician report.
type Entry struct {
	Kind         EntryKind           `json:"kind"`
	Date         time.Time           `json:"date"`
	Title        string              `json:"title"`
	Detail       string              `json:"detail"`
	Location     string              `json:"location,omitempty"`
	TicketID     string              `json:"ticketId,omitempty"`
	TicketNumber string              `json:"ticketNumber,omitempty"`
	Status       domain.TicketStatus `json:"status,omitempty"`
}

// SortNewestFirst orders entries by date descending; ties keep input order.
func SortNewestFirst(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.After(entries[j].Date)
	})
}
