package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/supportdesk/ticket-dashboard/internal/api/dto"
	"github.com/supportdesk/ticket-dashboard/internal/auth"
	"github.com/supportdesk/ticket-dashboard/internal/domain"
	"github.com/supportdesk/ticket-dashboard/internal/repository"
	"github.com/supportdesk/ticket-dashboard/pkg/util"
)

// AgentService serves the agent directory used by assignment dropdowns.
type AgentService struct {
	users      repository.UserRepository
	tickets    repository.TicketRepository
	bcryptCost int
}

// NewAgentService builds the service.
func NewAgentService(users repository.UserRepository, tickets repository.TicketRepository, bcryptCost int) *AgentService {
	return &AgentService{users: users, tickets: tickets, bcryptCost: bcryptCost}
}

// ListAgents returns active agents with their current assigned ticket
// counts.
func (s *AgentService) ListAgents(ctx context.Context) ([]dto.AgentResponse, error) {
	agents, err := s.users.ListAgents(ctx)
	if err != nil {
		return nil, util.MapError(err)
	}

	out := make([]dto.AgentResponse, 0, len(agents))
	for _, agent := range agents {
		count, err := s.tickets.CountAssignedTo(ctx, agent.ID)
		if err != nil {
			return nil, util.MapError(err)
		}
		out = append(out, dto.NewAgentResponse(agent, count))
	}
	return out, nil
}

// GetAgent returns one agent with its assigned ticket count. Users holding
// any other role are reported as not found.
func (s *AgentService) GetAgent(ctx context.Context, id int64) (*dto.AgentResponse, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, util.MapError(err)
	}
	if user.Role != domain.RoleAgent {
		return nil, util.NewNotFound("agent", map[string]any{"id": id})
	}
	count, err := s.tickets.CountAssignedTo(ctx, user.ID)
	if err != nil {
		return nil, util.MapError(err)
	}
	resp := dto.NewAgentResponse(*user, count)
	return &resp, nil
}

// CreateAgent provisions an agent account. Unlike self-registration the
// role is fixed.
func (s *AgentService) CreateAgent(ctx context.Context, req dto.CreateAgentRequest) (*dto.AgentResponse, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)

	if err := validateRegistration(username, email, req.Password); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, util.NewConflict("username already taken", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, util.MapError(err)
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, util.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, util.MapError(err)
	}

	hash, err := auth.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, util.NewInternalError(err)
	}

	agent := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Role:         domain.RoleAgent,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, agent); err != nil {
		return nil, util.MapError(err)
	}

	resp := dto.NewAgentResponse(*agent, 0)
	return &resp, nil
}
