package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/report"
	"github.com/spec-kit/helpdesk/internal/service"
)

// ReportsHandler serves dashboards and spreadsheet exports.
type ReportsHandler struct {
	service *service.ReportService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reports *service.ReportService) *ReportsHandler {
	return &ReportsHandler{service: reports}
}

// Dashboard GET /api/reports/dashboard?category=&days=.
func (h *ReportsHandler) Dashboard(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	dashboard, err := h.service.Dashboard(c.UserContext(), caller, queryCategory(c), parseInt(c.Query("days"), 0))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dashboard})
}

// Technician GET /api/reports/technician?technicianId=&from=&to=.
func (h *ReportsHandler) Technician(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	technicianID, err := queryID(c, "technicianId")
	if err != nil {
		return err
	}
	from, to, err := queryRange(c, "from", "to")
	if err != nil {
		return err
	}
	rep, err := h.service.TechnicianReport(c.UserContext(), caller, technicianID, from, to)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": rep})
}

// TechnicianWorkbook GET /api/reports/technician.xlsx.
func (h *ReportsHandler) TechnicianWorkbook(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	technicianID, err := queryID(c, "technicianId")
	if err != nil {
		return err
	}
	from, to, err := queryRange(c, "from", "to")
	if err != nil {
		return err
	}
	data, err := h.service.TechnicianReportWorkbook(c.UserContext(), caller, technicianID, from, to)
	if err != nil {
		return err
	}
	return sendWorkbook(c, "technician-report", data)
}

// TicketsWorkbook GET /api/reports/tickets.xlsx?category=&status=&from=&to=.
func (h *ReportsHandler) TicketsWorkbook(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	from, to, err := queryRange(c, "from", "to")
	if err != nil {
		return err
	}
	data, err := h.service.TicketsWorkbook(c.UserContext(), caller, service.ExportFilter{
		Category:    queryCategory(c),
		Statuses:    queryStatuses(c),
		CreatedFrom: from,
		CreatedTo:   to,
	})
	if err != nil {
		return err
	}
	return sendWorkbook(c, "tickets", data)
}

func sendWorkbook(c *fiber.Ctx, name string, data []byte) error {
	c.Attachment(fmt.Sprintf("%s-%s.xlsx", name, time.Now().Format("20060102")))
	c.Set(fiber.HeaderContentType, report.ContentType)
	return c.Send(data)
}
