package dto

import (
	"time"

	"github.com/supportdesk/ticket-dashboard/internal/domain"
)

// AgentResponse is the agent listing shape, including the current open
// workload used by the assignment dropdown.
type AgentResponse struct {
	ID                   int64     `json:"id"`
	Name                 string    `json:"name"`
	Username             string    `json:"username"`
	Email                string    `json:"email"`
	IsActive             bool      `json:"isActive"`
	AssignedTicketsCount int       `json:"assignedTicketsCount"`
	CreatedAt            time.Time `json:"createdAt"`
}

// CreateAgentRequest is the admin provisioning payload for a new agent
// account.
type CreateAgentRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func NewAgentResponse(u domain.User, assigned int) AgentResponse {
	return AgentResponse{
		ID:                   u.ID,
		Name:                 u.FullName(),
		Username:             u.Username,
		Email:                u.Email,
		IsActive:             u.IsActive,
		AssignedTicketsCount: assigned,
		CreatedAt:            u.CreatedAt,
	}
}
