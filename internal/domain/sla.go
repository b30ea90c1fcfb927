package domain

import "time"

// SLA defines response and resolution targets for a priority level.
type SLA struct {
	ID                    int64
	Name                  string
	Description           string
	Priority              TicketPriority
	ResponseTimeMinutes   int
	ResolutionTimeMinutes int
	IsActive              bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// SlaViolationType distinguishes which target was missed.
type SlaViolationType string

const (
	SlaViolationResponse   SlaViolationType = "response"
	SlaViolationResolution SlaViolationType = "resolution"
)

// SlaViolation records a missed SLA target for a ticket.
type SlaViolation struct {
	ID              int64
	TicketID        int64
	SlaID           int64
	ViolationType   SlaViolationType
	ViolationTime   time.Time
	ActualMinutes   int
	ExpectedMinutes int
	IsResolved      bool
	Notes           *string
	CreatedAt       time.Time
}
