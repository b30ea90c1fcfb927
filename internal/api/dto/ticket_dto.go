package dto

import (
	"time"

	"github.com/supportdesk/ticket-dashboard/internal/domain"
)

// TicketResponse is the external read representation of a ticket. Field
// names are the wire contract consumed by the dashboard client and the
// websocket event stream.
type TicketResponse struct {
	ID             int64                 `json:"id"`
	Title          string                `json:"title"`
	Description    string                `json:"description"`
	Status         domain.TicketStatus   `json:"status"`
	Priority       domain.TicketPriority `json:"priority"`
	CustomerID     int64                 `json:"customerId"`
	CustomerName   string                `json:"customerName"`
	AssignedToID   *int64                `json:"assignedToId"`
	AssignedToName *string               `json:"assignedToName"`
	CustomerEmail  *string               `json:"customerEmail,omitempty"`
	Tags           []string              `json:"tags,omitempty"`
	CreatedAt      time.Time             `json:"createdAt"`
	UpdatedAt      time.Time             `json:"updatedAt"`
	ResolvedAt     *time.Time            `json:"resolvedAt"`
}

// NewTicketResponse maps a domain ticket to its wire shape. CustomerID is
// the creator; ResolvedAt mirrors the closed timestamp.
func NewTicketResponse(t domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:             t.ID,
		Title:          t.Title,
		Description:    t.Description,
		Status:         t.Status,
		Priority:       t.Priority,
		CustomerID:     t.CreatedByID,
		CustomerName:   t.CreatedByName,
		AssignedToID:   t.AssignedToID,
		AssignedToName: t.AssignedToName,
		CustomerEmail:  t.CustomerEmail,
		Tags:           t.Tags,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
		ResolvedAt:     t.ClosedAt,
	}
}

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title         string                `json:"title"`
	Description   string                `json:"description"`
	Priority      domain.TicketPriority `json:"priority"`
	AssignedToID  *int64                `json:"assignedToId"`
	CustomerEmail *string               `json:"customerEmail"`
	Tags          []string              `json:"tags"`
}

// UpdateTicketRequest payload. Nil fields are left unchanged.
type UpdateTicketRequest struct {
	Title         *string                `json:"title"`
	Description   *string                `json:"description"`
	Status        *domain.TicketStatus   `json:"status"`
	Priority      *domain.TicketPriority `json:"priority"`
	AssignedToID  *int64                 `json:"assignedToId"`
	CustomerEmail *string                `json:"customerEmail"`
	Tags          []string               `json:"tags"`
}

// TicketCommentResponse is the external read representation of a comment.
type TicketCommentResponse struct {
	ID         int64     `json:"id"`
	TicketID   int64     `json:"ticketId"`
	Content    string    `json:"content"`
	AuthorID   int64     `json:"authorId"`
	AuthorName string    `json:"authorName"`
	IsInternal bool      `json:"isInternal"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NewTicketCommentResponse maps a domain comment to its wire shape.
func NewTicketCommentResponse(c domain.TicketComment) TicketCommentResponse {
	return TicketCommentResponse{
		ID:         c.ID,
		TicketID:   c.TicketID,
		Content:    c.Content,
		AuthorID:   c.AuthorID,
		AuthorName: c.AuthorName,
		IsInternal: c.IsInternal,
		CreatedAt:  c.CreatedAt,
	}
}

// CreateTicketCommentRequest payload.
type CreateTicketCommentRequest struct {
	TicketID   int64  `json:"ticketId"`
	Content    string `json:"content"`
	IsInternal bool   `json:"isInternal"`
}
