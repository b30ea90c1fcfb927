package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supportdesk/ticket-dashboard/internal/api/dto"
	"github.com/supportdesk/ticket-dashboard/internal/auth"
	"github.com/supportdesk/ticket-dashboard/internal/domain"
	"github.com/supportdesk/ticket-dashboard/internal/repository"
	"github.com/supportdesk/ticket-dashboard/pkg/util"
)

type agentFixture struct {
	svc      *AgentService
	users    *repository.MemoryUserStore
	tickets  *repository.MemoryTicketStore
	agent    *domain.User
	customer *domain.User
}

func newAgentFixture(t *testing.T) *agentFixture {
	t.Helper()
	ctx := context.Background()
	users := repository.NewMemoryUserStore()

	customer := &domain.User{
		Username: "alice", Email: "alice@example.com",
		FirstName: "Alice", LastName: "Nguyen",
		Role: domain.RoleCustomer, IsActive: true,
	}
	require.NoError(t, users.Create(ctx, customer))

	agent := &domain.User{
		Username: "bob", Email: "bob@example.com",
		FirstName: "Bob", LastName: "Reyes",
		Role: domain.RoleAgent, IsActive: true,
	}
	require.NoError(t, users.Create(ctx, agent))

	tickets := repository.NewMemoryTicketStore(users)
	return &agentFixture{
		svc:      NewAgentService(users, tickets, 4),
		users:    users,
		tickets:  tickets,
		agent:    agent,
		customer: customer,
	}
}

func TestListAgents_IncludesAssignedCounts(t *testing.T) {
	f := newAgentFixture(t)
	ctx := context.Background()

	require.NoError(t, f.tickets.Create(ctx, &domain.Ticket{
		Title: "Login issue", Description: "cannot sign in",
		Status: domain.TicketStatusOpen, Priority: domain.TicketPriorityLow,
		CreatedByID: f.customer.ID, AssignedToID: &f.agent.ID,
	}))

	agents, err := f.svc.ListAgents(ctx)
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, "Bob Reyes", agents[0].Name)
	assert.Equal(t, 1, agents[0].AssignedTicketsCount)
}

func TestGetAgent_CustomerIsNotFound(t *testing.T) {
	f := newAgentFixture(t)

	_, err := f.svc.GetAgent(context.Background(), f.customer.ID)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", util.ToDomainError(err).Code)

	agent, err := f.svc.GetAgent(context.Background(), f.agent.ID)
	require.NoError(t, err)
	assert.Equal(t, f.agent.ID, agent.ID)
	assert.Equal(t, 0, agent.AssignedTicketsCount)
}

func TestCreateAgent_ProvisionsActiveAgent(t *testing.T) {
	f := newAgentFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateAgent(ctx, dto.CreateAgentRequest{
		Username:  "carol",
		Email:     "carol@example.com",
		Password:  "solid-password",
		FirstName: "Carol",
		LastName:  "Diaz",
	})
	require.NoError(t, err)
	assert.True(t, created.IsActive)
	assert.Equal(t, 0, created.AssignedTicketsCount)

	stored, err := f.users.GetByUsername(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAgent, stored.Role)
	assert.NoError(t, auth.ComparePassword(stored.PasswordHash, "solid-password"))
}

func TestCreateAgent_DuplicateUsernameIsConflict(t *testing.T) {
	f := newAgentFixture(t)

	_, err := f.svc.CreateAgent(context.Background(), dto.CreateAgentRequest{
		Username:  "bob",
		Email:     "other@example.com",
		Password:  "solid-password",
		FirstName: "Bob",
		LastName:  "Double",
	})
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", util.ToDomainError(err).Code)
}
