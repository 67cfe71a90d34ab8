package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/spec-kit/helpdesk/internal/domain"
)

func TestTicketsWorkbook(t *testing.T) {
	high := domain.TicketPriorityHigh
	tech := "Sari"
	data, err := TicketsWorkbook([]domain.Ticket{{
		TicketNumber: "TKT-25010108-042",
		ReporterName: "Budi",
		ReporterUnit: "IGD",
		Category:     domain.CategoryA,
		Description:  "AC rusak",
		Status:       domain.TicketStatusInProgress,
		Priority:     &high,
		AssigneeName: &tech,
		CreatedAt:    time.Date(2025, 1, 1, 8, 0, 0, 0, time.Local),
	}})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Tickets"}, f.GetSheetList())
	rows, err := f.GetRows("Tickets")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Ticket Number", rows[0][0])
	assert.Equal(t, "TKT-25010108-042", rows[1][0])
	assert.Equal(t, "2025-01-01 08:00", rows[1][1])
	assert.Equal(t, "Budi", rows[1][2])
	assert.Equal(t, "High", rows[1][9])
	assert.Equal(t, "Sari", rows[1][10])
}

func TestTechnicianWorkbook(t *testing.T) {
	entries := []Entry{
		{Kind: EntryActivity, Date: time.Date(2025, 1, 2, 9, 0, 0, 0, time.Local), Title: "Cek jaringan"},
		{Kind: EntryAssigned, Date: time.Date(2025, 1, 3, 9, 0, 0, 0, time.Local), Title: "AC rusak", TicketNumber: "TKT-1", Status: domain.TicketStatusDone},
	}
	SortNewestFirst(entries)
	assert.Equal(t, EntryAssigned, entries[0].Kind)

	data, err := TechnicianWorkbook("A very long technician name that overflows", entries)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	require.Len(t, sheets, 1)
	assert.LessOrEqual(t, len([]rune(sheets[0])), 31)

	rows, err := f.GetRows(sheets[0])
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "assigned", rows[1][1])
	assert.Equal(t, "TKT-1", rows[1][5])
}
