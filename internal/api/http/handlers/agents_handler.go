package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/supportdesk/ticket-dashboard/internal/api/dto"
	"github.com/supportdesk/ticket-dashboard/internal/service"
	"github.com/supportdesk/ticket-dashboard/pkg/util"
)

// AgentsHandler serves the agent directory.
type AgentsHandler struct {
	service *service.AgentService
}

// NewAgentsHandler constructs handler.
func NewAgentsHandler(agentService *service.AgentService) *AgentsHandler {
	return &AgentsHandler{service: agentService}
}

// ListAgents GET /api/agents.
func (h *AgentsHandler) ListAgents(c *fiber.Ctx) error {
	agents, err := h.service.ListAgents(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(agents)
}

// GetAgent GET /api/agents/:id.
func (h *AgentsHandler) GetAgent(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	agent, err := h.service.GetAgent(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(agent)
}

// CreateAgent POST /api/agents.
func (h *AgentsHandler) CreateAgent(c *fiber.Ctx) error {
	var req dto.CreateAgentRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	agent, err := h.service.CreateAgent(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(agent)
}
