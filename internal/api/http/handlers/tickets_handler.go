package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/service"
	"github.com/spec-kit/helpdesk/internal/storage"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// TicketsHandler serves the public report form and the technician dashboard.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /api/tickets (public, multipart).
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	req.ProblemTypeID = optionalString(req.ProblemTypeID)
	if err := dto.Validate(req); err != nil {
		return err
	}

	input := service.TicketCreateInput{
		ReporterName:  req.ReporterName,
		ReporterUnit:  req.ReporterUnit,
		ReporterPhone: req.ReporterPhone,
		Category:      domain.TicketCategory(req.Category),
		Description:   req.Description,
		ProblemTypeID: req.ProblemTypeID,
	}
	fh, err := formFile(c, "photo")
	if err != nil {
		return err
	}
	if fh != nil {
		upload, closeFn, err := openUpload(fh)
		if err != nil {
			return err
		}
		defer closeFn()
		input.Photo = upload
	}

	ticket, err := h.service.CreateTicket(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// TrackTicket GET /api/tickets/track/:ticketNumber (public).
func (h *TicketsHandler) TrackTicket(c *fiber.Ctx) error {
	detail, err := h.service.TrackTicket(c.UserContext(), c.Params("ticketNumber"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTrackResponse(detail)})
}

// ListTickets GET /api/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	filter, err := parseTicketQuery(c)
	if err != nil {
		return err
	}
	page, err := h.service.ListTickets(c.UserContext(), caller, filter)
	if err != nil {
		return err
	}
	return writePage(c, page)
}

// ListMyTasks GET /api/tickets/my-tasks.
func (h *TicketsHandler) ListMyTasks(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	filter, err := parseTicketQuery(c)
	if err != nil {
		return err
	}
	page, err := h.service.ListMyTasks(c.UserContext(), caller, filter)
	if err != nil {
		return err
	}
	return writePage(c, page)
}

// GetTicket GET /api/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "ticket")
	if err != nil {
		return err
	}
	detail, err := h.service.GetTicket(c.UserContext(), caller, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetailResponse(detail)})
}

// TakeTicket POST /api/tickets/:id/take.
func (h *TicketsHandler) TakeTicket(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "ticket")
	if err != nil {
		return err
	}
	ticket, err := h.service.TakeTicket(c.UserContext(), caller, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// ChangeStatus PATCH /api/tickets/:id/status.
func (h *TicketsHandler) ChangeStatus(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "ticket")
	if err != nil {
		return err
	}
	var req dto.ChangeStatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.ChangeStatus(c.UserContext(), caller, id, domain.TicketStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// ChangePriority PATCH /api/tickets/:id/priority.
func (h *TicketsHandler) ChangePriority(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "ticket")
	if err != nil {
		return err
	}
	var req dto.ChangePriorityRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	var priority *domain.TicketPriority
	if req.Priority != nil {
		p := domain.TicketPriority(*req.Priority)
		priority = &p
	}
	ticket, err := h.service.ChangePriority(c.UserContext(), caller, id, priority)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// CoAssign POST /api/tickets/:id/co-assign.
func (h *TicketsHandler) CoAssign(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "ticket")
	if err != nil {
		return err
	}
	var req dto.CoAssignRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ca, err := h.service.CoAssign(c.UserContext(), caller, id, req.TechnicianID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewCoAssignmentResponse(ca)})
}

// ListCoAssignees GET /api/tickets/:id/co-assignees.
func (h *TicketsHandler) ListCoAssignees(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "ticket")
	if err != nil {
		return err
	}
	list, err := h.service.ListCoAssignees(c.UserContext(), caller, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCoAssignmentResponses(list)})
}

// AddAction POST /api/tickets/:id/actions (JSON or multipart with optional photo).
func (h *TicketsHandler) AddAction(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "ticket")
	if err != nil {
		return err
	}
	var req dto.AddActionRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	fh, err := formFile(c, "photo")
	if err != nil {
		return err
	}
	var photo *storage.Upload
	if fh != nil {
		upload, closeFn, err := openUpload(fh)
		if err != nil {
			return err
		}
		defer closeFn()
		photo = upload
	}
	action, err := h.service.AddAction(c.UserContext(), caller, id, domain.ActionType(req.ActionType), req.Description, photo)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewActionResponse(action)})
}

// UploadProof POST /api/tickets/:id/proof (multipart, photo required).
func (h *TicketsHandler) UploadProof(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "ticket")
	if err != nil {
		return err
	}
	fh, err := formFile(c, "photo")
	if err != nil {
		return err
	}
	if fh == nil {
		return apperrors.NewFieldValidationError(apperrors.FieldError{Field: "photo", Message: "is required"})
	}
	upload, closeFn, err := openUpload(fh)
	if err != nil {
		return err
	}
	defer closeFn()

	ticket, err := h.service.UploadProof(c.UserContext(), caller, id, *upload)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// DeleteTicket DELETE /api/tickets/:id (admin soft delete).
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "ticket")
	if err != nil {
		return err
	}
	if err := h.service.SoftDelete(c.UserContext(), caller, id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func parseTicketQuery(c *fiber.Ctx) (service.TicketListFilter, error) {
	filter := service.TicketListFilter{
		Category:   queryCategory(c),
		Statuses:   queryStatuses(c),
		Priorities: queryPriorities(c),
		Page:       parseInt(c.Query("page"), 1),
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		filter.SearchTerm = &search
	}
	from, to, err := queryRange(c, "from", "to")
	if err != nil {
		return filter, err
	}
	filter.CreatedFrom, filter.CreatedTo = from, to
	return filter, nil
}

func writePage(c *fiber.Ctx, page *service.TicketPage) error {
	return c.JSON(fiber.Map{
		"data": dto.NewTicketListItems(page),
		"meta": dto.PageMeta{Page: page.Page, PageSize: page.PageSize, Total: page.Total},
	})
}
