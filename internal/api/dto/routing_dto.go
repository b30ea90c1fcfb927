package dto

import (
	"time"

	"github.com/supportdesk/ticket-dashboard/internal/domain"
)

type RoutingRuleResponse struct {
	ID             int64                     `json:"id"`
	Name           string                    `json:"name"`
	Description    string                    `json:"description"`
	Priority       int                       `json:"priority"`
	IsActive       bool                      `json:"isActive"`
	Conditions     []domain.RoutingCondition `json:"conditions"`
	AssignToUserID *int64                    `json:"assignToUserId"`
	AddTags        []string                  `json:"addTags"`
	SetPriority    *domain.TicketPriority    `json:"setPriority"`
	CreatedAt      time.Time                 `json:"createdAt"`
}

func NewRoutingRuleResponse(r domain.RoutingRule) RoutingRuleResponse {
	return RoutingRuleResponse{
		ID:             r.ID,
		Name:           r.Name,
		Description:    r.Description,
		Priority:       r.Priority,
		IsActive:       r.IsActive,
		Conditions:     r.Conditions,
		AssignToUserID: r.AssignToUserID,
		AddTags:        r.AddTags,
		SetPriority:    r.SetPriority,
		CreatedAt:      r.CreatedAt,
	}
}

type CreateRoutingRuleRequest struct {
	Name           string                    `json:"name"`
	Description    string                    `json:"description"`
	Priority       int                       `json:"priority"`
	IsActive       bool                      `json:"isActive"`
	Conditions     []domain.RoutingCondition `json:"conditions"`
	AssignToUserID *int64                    `json:"assignToUserId"`
	AddTags        []string                  `json:"addTags"`
	SetPriority    *domain.TicketPriority    `json:"setPriority"`
}
