package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/spec-kit/helpdesk/internal/domain"
)

const (
	// ContentType is the MIME type of generated workbooks.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	dateLayout  = "2006-01-02 15:04"
)

type sheet struct {
	name    string
	headers []string
	widths  []float64
	rows    [][]any
}

// TicketsWorkbook renders tickets one per row.
func TicketsWorkbook(tickets []domain.Ticket) ([]byte, error) {
	s := sheet{
		name: "Tickets",
		headers: []string{
			"Ticket Number", "Created", "Reporter", "Unit", "Phone", "Category",
			"Problem Type", "Description", "Status", "Priority", "Technician", "Picked Up", "Completed",
		},
		widths: []float64{20, 18, 20, 20, 16, 10, 20, 40, 12, 10, 20, 18, 18},
	}
	for _, t := range tickets {
		s.rows = append(s.rows, []any{
			t.TicketNumber,
			formatTime(&t.CreatedAt),
			t.ReporterName,
			t.ReporterUnit,
			t.ReporterPhone,
			string(t.Category),
			deref(t.ProblemTypeName),
			t.Description,
			string(t.Status),
			priorityLabel(t.Priority),
			deref(t.AssigneeName),
			formatTime(t.PickedUpAt),
			formatTime(t.CompletedAt),
		})
	}
	return s.render()
}

// TechnicianWorkbook renders a merged technician report.
func TechnicianWorkbook(technician string, entries []Entry) ([]byte, error) {
	s := sheet{
		name:    "Report",
		headers: []string{"Date", "Kind", "Title", "Detail", "Location", "Ticket Number", "Status"},
		widths:  []float64{18, 14, 30, 45, 20, 20, 12},
	}
	if technician != "" {
		s.name = truncateSheetName(technician)
	}
	for _, e := range entries {
		date := e.Date
		s.rows = append(s.rows, []any{
			formatTime(&date),
			string(e.Kind),
			e.Title,
			e.Detail,
			e.Location,
			e.TicketNumber,
			string(e.Status),
		})
	}
	return s.render()
}

func (s sheet) render() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(s.name)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if s.name != "Sheet1" {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return nil, fmt.Errorf("delete default sheet: %w", err)
		}
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for col, header := range s.headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(s.name, cell, header); err != nil {
			return nil, fmt.Errorf("set header %s: %w", cell, err)
		}
		if err := f.SetCellStyle(s.name, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("style header %s: %w", cell, err)
		}
		if col < len(s.widths) {
			name, err := excelize.ColumnNumberToName(col + 1)
			if err != nil {
				return nil, err
			}
			if err := f.SetColWidth(s.name, name, name, s.widths[col]); err != nil {
				return nil, fmt.Errorf("set column width: %w", err)
			}
		}
	}

	for r, row := range s.rows {
		for c, value := range row {
			if value == "" || value == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(s.name, cell, value); err != nil {
				return nil, fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
	}

	if err := f.SetPanes(s.name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Local().Format(dateLayout)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func priorityLabel(p *domain.TicketPriority) string {
	if p == nil {
		return ""
	}
	return string(*p)
}

// truncateSheetName keeps names within Excel's 31 character limit.
func truncateSheetName(name string) string {
	runes := []rune(name)
	if len(runes) > 31 {
		runes = runes[:31]
	}
	return string(runes)
}
