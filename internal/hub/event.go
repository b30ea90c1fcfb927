package hub

import "github.com/supportdesk/ticket-dashboard/internal/api/dto"

// Event is the closed set of notifications fanned out to connected clients.
// Each variant carries its own concrete payload type; the wire envelope is
// {"event": <name>, "payload": <payload>}.
type Event interface {
	Name() string
	Payload() any
}

// TicketCreated announces a newly created ticket.
type TicketCreated struct {
	Ticket dto.TicketResponse
}

func (e TicketCreated) Name() string { return "TicketCreated" }
func (e TicketCreated) Payload() any { return e.Ticket }

// TicketUpdated announces a changed ticket.
type TicketUpdated struct {
	Ticket dto.TicketResponse
}

func (e TicketUpdated) Name() string { return "TicketUpdated" }
func (e TicketUpdated) Payload() any { return e.Ticket }

// TicketDeleted announces a removed ticket. Only the id travels.
type TicketDeleted struct {
	TicketID int64
}

func (e TicketDeleted) Name() string { return "TicketDeleted" }
func (e TicketDeleted) Payload() any {
	return struct {
		TicketID int64 `json:"ticketId"`
	}{TicketID: e.TicketID}
}

// CommentAdded announces a new comment on a ticket.
type CommentAdded struct {
	Comment dto.TicketCommentResponse
}

func (e CommentAdded) Name() string { return "CommentAdded" }
func (e CommentAdded) Payload() any { return e.Comment }
