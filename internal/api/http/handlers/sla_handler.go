package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/supportdesk/ticket-dashboard/internal/api/dto"
	"github.com/supportdesk/ticket-dashboard/internal/service"
	"github.com/supportdesk/ticket-dashboard/pkg/util"
)

// SlaHandler manages SLA definitions and violation reports.
type SlaHandler struct {
	service *service.SlaService
}

// NewSlaHandler constructs handler.
func NewSlaHandler(slaService *service.SlaService) *SlaHandler {
	return &SlaHandler{service: slaService}
}

// ListSlas GET /api/sla.
func (h *SlaHandler) ListSlas(c *fiber.Ctx) error {
	slas, err := h.service.ListActive(c.UserContext())
	if err != nil {
		return err
	}
	out := make([]dto.SlaResponse, 0, len(slas))
	for _, s := range slas {
		out = append(out, dto.NewSlaResponse(s))
	}
	return c.JSON(out)
}

// CreateSla POST /api/sla.
func (h *SlaHandler) CreateSla(c *fiber.Ctx) error {
	var req dto.CreateSlaRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	sla, err := h.service.CreateSla(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewSlaResponse(*sla))
}

// GetSla GET /api/sla/:id.
func (h *SlaHandler) GetSla(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	sla, err := h.service.GetSla(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewSlaResponse(*sla))
}

// UpdateSla PUT /api/sla/:id.
func (h *SlaHandler) UpdateSla(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var req dto.CreateSlaRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	sla, err := h.service.UpdateSla(c.UserContext(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewSlaResponse(*sla))
}

// DeleteSla DELETE /api/sla/:id.
func (h *SlaHandler) DeleteSla(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteSla(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListViolations GET /api/sla/violations.
func (h *SlaHandler) ListViolations(c *fiber.Ctx) error {
	var ticketID *int64
	if v, err := strconv.ParseInt(c.Query("ticketId"), 10, 64); err == nil {
		ticketID = &v
	}
	includeResolved := c.QueryBool("includeResolved", true)

	violations, err := h.service.ListViolations(c.UserContext(), ticketID, includeResolved)
	if err != nil {
		return err
	}
	out := make([]dto.SlaViolationResponse, 0, len(violations))
	for _, v := range violations {
		out = append(out, dto.NewSlaViolationResponse(v))
	}
	return c.JSON(out)
}

// CheckViolations POST /api/sla/violations/check.
func (h *SlaHandler) CheckViolations(c *fiber.Ctx) error {
	recorded, err := h.service.CheckViolations(c.UserContext())
	if err != nil {
		return err
	}
	out := make([]dto.SlaViolationResponse, 0, len(recorded))
	for _, v := range recorded {
		out = append(out, dto.NewSlaViolationResponse(v))
	}
	return c.JSON(out)
}

// CheckTicketViolations POST /api/sla/violations/check/:ticketId.
func (h *SlaHandler) CheckTicketViolations(c *fiber.Ctx) error {
	ticketID, err := paramInt64(c, "ticketId")
	if err != nil {
		return err
	}
	recorded, err := h.service.CheckTicket(c.UserContext(), ticketID)
	if err != nil {
		return err
	}
	out := make([]dto.SlaViolationResponse, 0, len(recorded))
	for _, v := range recorded {
		out = append(out, dto.NewSlaViolationResponse(v))
	}
	return c.JSON(out)
}
