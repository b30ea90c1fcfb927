package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/supportdesk/ticket-dashboard/internal/api/dto"
	"github.com/supportdesk/ticket-dashboard/internal/auth"
	"github.com/supportdesk/ticket-dashboard/internal/domain"
	"github.com/supportdesk/ticket-dashboard/internal/query"
	"github.com/supportdesk/ticket-dashboard/internal/service"
	"github.com/supportdesk/ticket-dashboard/pkg/util"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// ListTickets GET /api/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	filter := parseTicketQuery(c)
	page, err := h.service.GetTickets(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(page)
}

// GetTicket GET /api/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.GetTicket(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(ticket)
}

// CreateTicket POST /api/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.CreateTicket(c.UserContext(), principal.User, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(ticket)
}

// UpdateTicket PUT /api/tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.UpdateTicket(c.UserContext(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(ticket)
}

// DeleteTicket DELETE /api/tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteTicket(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListComments GET /api/tickets/:id/comments.
func (h *TicketsHandler) ListComments(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	id, err := paramID(c)
	if err != nil {
		return err
	}
	comments, err := h.service.ListComments(c.UserContext(), principal.User, id)
	if err != nil {
		return err
	}
	return c.JSON(comments)
}

// AddComment POST /api/tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	comment, err := h.service.AddComment(c.UserContext(), principal.User, id, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// AddCommentBody POST /api/tickets/comments. Same as AddComment but the
// ticket id travels in the payload, matching the dashboard client.
func (h *TicketsHandler) AddCommentBody(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	if req.TicketID <= 0 {
		return util.NewValidationError("invalid ticketId", map[string]any{"ticketId": req.TicketID})
	}
	comment, err := h.service.AddComment(c.UserContext(), principal.User, req.TicketID, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

func paramID(c *fiber.Ctx) (int64, error) {
	return paramInt64(c, "id")
}

func paramInt64(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, util.NewValidationError("invalid "+name, map[string]any{name: c.Params(name)})
	}
	return id, nil
}

// parseTicketQuery reads filter parameters. Malformed numeric values are
// treated as absent rather than rejected.
func parseTicketQuery(c *fiber.Ctx) query.TicketFilter {
	filter := query.TicketFilter{
		Search:        c.Query("search"),
		SortBy:        c.Query("sortBy"),
		SortDirection: c.Query("sortDirection"),
	}
	if v, err := strconv.Atoi(c.Query("page")); err == nil {
		filter.Page = v
	}
	if v, err := strconv.Atoi(c.Query("pageSize")); err == nil {
		filter.PageSize = v
	}
	if v, err := strconv.Atoi(c.Query("status")); err == nil {
		status := domain.TicketStatus(v)
		filter.Status = &status
	}
	if v, err := strconv.Atoi(c.Query("priority")); err == nil {
		priority := domain.TicketPriority(v)
		filter.Priority = &priority
	}
	if v, err := strconv.ParseInt(c.Query("assignedToId"), 10, 64); err == nil {
		filter.AssignedToID = &v
	}
	return filter
}
