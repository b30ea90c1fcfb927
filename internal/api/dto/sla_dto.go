package dto

import (
	"time"

	"github.com/supportdesk/ticket-dashboard/internal/domain"
)

type SlaResponse struct {
	ID                    int64                 `json:"id"`
	Name                  string                `json:"name"`
	Description           string                `json:"description"`
	Priority              domain.TicketPriority `json:"priority"`
	ResponseTimeMinutes   int                   `json:"responseTimeMinutes"`
	ResolutionTimeMinutes int                   `json:"resolutionTimeMinutes"`
	IsActive              bool                  `json:"isActive"`
	CreatedAt             time.Time             `json:"createdAt"`
}

func NewSlaResponse(s domain.SLA) SlaResponse {
	return SlaResponse{
		ID:                    s.ID,
		Name:                  s.Name,
		Description:           s.Description,
		Priority:              s.Priority,
		ResponseTimeMinutes:   s.ResponseTimeMinutes,
		ResolutionTimeMinutes: s.ResolutionTimeMinutes,
		IsActive:              s.IsActive,
		CreatedAt:             s.CreatedAt,
	}
}

type CreateSlaRequest struct {
	Name                  string                `json:"name"`
	Description           string                `json:"description"`
	Priority              domain.TicketPriority `json:"priority"`
	ResponseTimeMinutes   int                   `json:"responseTimeMinutes"`
	ResolutionTimeMinutes int                   `json:"resolutionTimeMinutes"`
	IsActive              bool                  `json:"isActive"`
}

type SlaViolationResponse struct {
	ID              int64                   `json:"id"`
	TicketID        int64                   `json:"ticketId"`
	SlaID           int64                   `json:"slaId"`
	ViolationType   domain.SlaViolationType `json:"violationType"`
	ViolationTime   time.Time               `json:"violationTime"`
	ActualMinutes   int                     `json:"actualMinutes"`
	ExpectedMinutes int                     `json:"expectedMinutes"`
	IsResolved      bool                    `json:"isResolved"`
	Notes           *string                 `json:"notes"`
	CreatedAt       time.Time               `json:"createdAt"`
}

func NewSlaViolationResponse(v domain.SlaViolation) SlaViolationResponse {
	return SlaViolationResponse{
		ID:              v.ID,
		TicketID:        v.TicketID,
		SlaID:           v.SlaID,
		ViolationType:   v.ViolationType,
		ViolationTime:   v.ViolationTime,
		ActualMinutes:   v.ActualMinutes,
		ExpectedMinutes: v.ExpectedMinutes,
		IsResolved:      v.IsResolved,
		Notes:           v.Notes,
		CreatedAt:       v.CreatedAt,
	}
}
