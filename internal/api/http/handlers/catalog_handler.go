package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/service"
)

// ProblemTypesHandler serves the problem taxonomy.
type ProblemTypesHandler struct {
	service *service.ProblemTypeService
}

// NewProblemTypesHandler constructs handler.
func NewProblemTypesHandler(problemTypes *service.ProblemTypeService) *ProblemTypesHandler {
	return &ProblemTypesHandler{service: problemTypes}
}

// List GET /api/problem-types (public).
func (h *ProblemTypesHandler) List(c *fiber.Ctx) error {
	list, err := h.service.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewProblemTypeResponses(list)})
}

// Create POST /api/problem-types.
func (h *ProblemTypesHandler) Create(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req dto.ProblemTypeRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	pt, err := h.service.Create(c.UserContext(), caller, service.ProblemTypeInput{Name: req.Name, Slug: req.Slug, DisplayOrder: req.DisplayOrder})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewProblemTypeResponse(pt)})
}

// Update PUT /api/problem-types/:id.
func (h *ProblemTypesHandler) Update(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "problem type")
	if err != nil {
		return err
	}
	var req dto.ProblemTypeRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	pt, err := h.service.Update(c.UserContext(), caller, id, service.ProblemTypeInput{Name: req.Name, Slug: req.Slug, DisplayOrder: req.DisplayOrder})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewProblemTypeResponse(pt)})
}

// Delete DELETE /api/problem-types/:id.
func (h *ProblemTypesHandler) Delete(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "problem type")
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), caller, id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ActivitiesHandler serves technician work logs.
type ActivitiesHandler struct {
	service *service.ActivityService
}

// NewActivitiesHandler constructs handler.
func NewActivitiesHandler(activities *service.ActivityService) *ActivitiesHandler {
	return &ActivitiesHandler{service: activities}
}

// Create POST /api/activities.
func (h *ActivitiesHandler) Create(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req dto.ActivityRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	day, err := time.ParseInLocation(time.DateOnly, req.ActivityDate, time.Local)
	if err != nil {
		return err
	}
	activity, err := h.service.Create(c.UserContext(), caller, service.ActivityInput{
		ActivityDate: day,
		Title:        req.Title,
		Description:  req.Description,
		Location:     req.Location,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewActivityResponse(activity)})
}

// List GET /api/activities?from=&to=.
func (h *ActivitiesHandler) List(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	from, to, err := queryRange(c, "from", "to")
	if err != nil {
		return err
	}
	list, err := h.service.ListOwn(c.UserContext(), caller, from, to)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewActivityResponses(list)})
}

// Delete DELETE /api/activities/:id.
func (h *ActivitiesHandler) Delete(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "activity")
	if err != nil {
		return err
	}
	if err := h.service.DeleteOwn(c.UserContext(), caller, id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
