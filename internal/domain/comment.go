package domain

import "time"

// TicketComment captures a message in a ticket thread. Internal comments are
// visible to agents only.
type TicketComment struct {
	ID         int64
	TicketID   int64
	AuthorID   int64
	Content    string
	IsInternal bool
	CreatedAt  time.Time

	// Joined read field.
	AuthorName string
}
