package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/supportdesk/ticket-dashboard/internal/api/dto"
	"github.com/supportdesk/ticket-dashboard/internal/domain"
	"github.com/supportdesk/ticket-dashboard/internal/service"
	"github.com/supportdesk/ticket-dashboard/pkg/util"
)

// RoutingHandler manages triage rule endpoints.
type RoutingHandler struct {
	service *service.RoutingService
}

// NewRoutingHandler constructs handler.
func NewRoutingHandler(routingService *service.RoutingService) *RoutingHandler {
	return &RoutingHandler{service: routingService}
}

// ListRules GET /api/routing/rules.
func (h *RoutingHandler) ListRules(c *fiber.Ctx) error {
	rules, err := h.service.ListRules(c.UserContext())
	if err != nil {
		return err
	}
	out := make([]dto.RoutingRuleResponse, 0, len(rules))
	for _, r := range rules {
		out = append(out, dto.NewRoutingRuleResponse(r))
	}
	return c.JSON(out)
}

// GetRule GET /api/routing/rules/:id.
func (h *RoutingHandler) GetRule(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	rule, err := h.service.GetRule(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewRoutingRuleResponse(*rule))
}

// CreateRule POST /api/routing/rules.
func (h *RoutingHandler) CreateRule(c *fiber.Ctx) error {
	var req dto.CreateRoutingRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	rule, err := h.service.CreateRule(c.UserContext(), ruleFromRequest(req))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewRoutingRuleResponse(*rule))
}

// UpdateRule PUT /api/routing/rules/:id.
func (h *RoutingHandler) UpdateRule(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var req dto.CreateRoutingRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	rule := ruleFromRequest(req)
	rule.ID = id
	updated, err := h.service.UpdateRule(c.UserContext(), rule)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewRoutingRuleResponse(*updated))
}

// DeleteRule DELETE /api/routing/rules/:id.
func (h *RoutingHandler) DeleteRule(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteRule(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// TestRule POST /api/routing/rules/test/:ticketId. Dry-runs the active
// rules against an existing ticket; "matched" is false when nothing fires.
func (h *RoutingHandler) TestRule(c *fiber.Ctx) error {
	ticketID, err := paramInt64(c, "ticketId")
	if err != nil {
		return err
	}
	rule, err := h.service.TestTicket(c.UserContext(), ticketID)
	if err != nil {
		return err
	}
	if rule == nil {
		return c.JSON(fiber.Map{"matched": false})
	}
	resp := dto.NewRoutingRuleResponse(*rule)
	return c.JSON(fiber.Map{"matched": true, "rule": resp})
}

func ruleFromRequest(req dto.CreateRoutingRuleRequest) *domain.RoutingRule {
	return &domain.RoutingRule{
		Name:           req.Name,
		Description:    req.Description,
		Priority:       req.Priority,
		IsActive:       req.IsActive,
		Conditions:     req.Conditions,
		AssignToUserID: req.AssignToUserID,
		AddTags:        req.AddTags,
		SetPriority:    req.SetPriority,
	}
}
