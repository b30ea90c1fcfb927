package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets. Values are part of
// the wire contract and must stay stable.
type TicketStatus int

const (
	TicketStatusOpen       TicketStatus = 1
	TicketStatusInProgress TicketStatus = 2
	TicketStatusResolved   TicketStatus = 3
	TicketStatusClosed     TicketStatus = 4
)

// Valid reports whether the status is one of the known values.
func (s TicketStatus) Valid() bool {
	return s >= TicketStatusOpen && s <= TicketStatusClosed
}

func (s TicketStatus) String() string {
	switch s {
	case TicketStatusOpen:
		return "Open"
	case TicketStatusInProgress:
		return "InProgress"
	case TicketStatusResolved:
		return "Resolved"
	case TicketStatusClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// TicketPriority enumerates urgency. Wire values, do not reorder.
type TicketPriority int

const (
	TicketPriorityLow      TicketPriority = 1
	TicketPriorityMedium   TicketPriority = 2
	TicketPriorityHigh     TicketPriority = 3
	TicketPriorityCritical TicketPriority = 4
)

// Valid reports whether the priority is one of the known values.
func (p TicketPriority) Valid() bool {
	return p >= TicketPriorityLow && p <= TicketPriorityCritical
}

func (p TicketPriority) String() string {
	switch p {
	case TicketPriorityLow:
		return "Low"
	case TicketPriorityMedium:
		return "Medium"
	case TicketPriorityHigh:
		return "High"
	case TicketPriorityCritical:
		return "Critical"
	default:
		return "Unknown"
	}
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID              int64
	Title           string
	Description     string
	Status          TicketStatus
	Priority        TicketPriority
	CreatedByID     int64
	AssignedToID    *int64
	CustomerEmail   *string
	SlaID           *int64
	Tags            []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ClosedAt        *time.Time
	FirstResponseAt *time.Time

	// Joined read fields, populated by list/get queries.
	CreatedByName  string
	AssignedToName *string
}
