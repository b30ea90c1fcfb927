package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/supportdesk/ticket-dashboard/internal/api/dto"
	"github.com/supportdesk/ticket-dashboard/internal/domain"
	"github.com/supportdesk/ticket-dashboard/internal/hub"
	"github.com/supportdesk/ticket-dashboard/internal/query"
	"github.com/supportdesk/ticket-dashboard/internal/repository"
	"github.com/supportdesk/ticket-dashboard/pkg/util"
)

// Notifier fans an event out to connected dashboard clients. The hub and
// the Redis relay both satisfy it.
type Notifier interface {
	Broadcast(ctx context.Context, event hub.Event)
}

const (
	maxTitleLength   = 200
	maxContentLength = 2000
)

// TicketService coordinates ticket mutations: validate, persist, then
// notify. A notification is sent only after the write has succeeded.
type TicketService struct {
	tickets  repository.TicketRepository
	users    repository.UserRepository
	slas     repository.SlaRepository
	routing  *RoutingService
	notifier Notifier
	logger   *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
	SlaRepo    repository.SlaRepository
	Routing    *RoutingService
	Notifier   Notifier
	Logger     *zap.Logger
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:  deps.TicketRepo,
		users:    deps.UserRepo,
		slas:     deps.SlaRepo,
		routing:  deps.Routing,
		notifier: deps.Notifier,
		logger:   deps.Logger,
	}
}

// GetTickets runs the filter pipeline and returns one page plus the total
// match count computed before pagination.
func (s *TicketService) GetTickets(ctx context.Context, filter query.TicketFilter) (*domain.PagedResult[dto.TicketResponse], error) {
	plan := filter.Normalize()
	tickets, total, err := s.tickets.ListWithFilter(ctx, plan)
	if err != nil {
		return nil, util.MapError(err)
	}

	items := make([]dto.TicketResponse, 0, len(tickets))
	for _, t := range tickets {
		items = append(items, dto.NewTicketResponse(t))
	}
	page := domain.NewPagedResult(items, total, plan.Page, plan.PageSize)
	return &page, nil
}

// GetTicket fetches a single ticket.
func (s *TicketService) GetTicket(ctx context.Context, id int64) (*dto.TicketResponse, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, util.MapError(err)
	}
	resp := dto.NewTicketResponse(*ticket)
	return &resp, nil
}

// CreateTicket validates input, runs routing rules, persists the ticket and
// broadcasts TicketCreated.
func (s *TicketService) CreateTicket(ctx context.Context, actor *domain.User, req dto.CreateTicketRequest) (*dto.TicketResponse, error) {
	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)
	if err := validateTicketFields(title, description, req.Priority); err != nil {
		return nil, err
	}
	if req.AssignedToID != nil {
		if err := s.checkAssignee(ctx, *req.AssignedToID); err != nil {
			return nil, err
		}
	}

	ticket := &domain.Ticket{
		Title:         title,
		Description:   description,
		Status:        domain.TicketStatusOpen,
		Priority:      req.Priority,
		CreatedByID:   actor.ID,
		AssignedToID:  req.AssignedToID,
		CustomerEmail: req.CustomerEmail,
		Tags:          req.Tags,
	}

	routed, err := s.routing.Apply(ctx, ticket)
	if err != nil {
		return nil, err
	}
	if routed {
		s.logger.Info("routing rule applied",
			zap.String("title", ticket.Title),
			zap.Int("priority", int(ticket.Priority)))
	}
	s.attachSla(ctx, ticket)

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, util.MapError(err)
	}

	created, err := s.tickets.GetByID(ctx, ticket.ID)
	if err != nil {
		return nil, util.MapError(err)
	}
	resp := dto.NewTicketResponse(*created)
	s.notifier.Broadcast(ctx, hub.TicketCreated{Ticket: resp})
	return &resp, nil
}

// UpdateTicket applies a partial update and broadcasts TicketUpdated.
// Last write wins; there is no version check.
func (s *TicketService) UpdateTicket(ctx context.Context, id int64, req dto.UpdateTicketRequest) (*dto.TicketResponse, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, util.MapError(err)
	}

	if req.Title != nil {
		ticket.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		ticket.Description = strings.TrimSpace(*req.Description)
	}
	if req.Priority != nil {
		ticket.Priority = *req.Priority
	}
	if req.Status != nil {
		applyStatus(ticket, *req.Status)
	}
	if req.AssignedToID != nil {
		if err := s.checkAssignee(ctx, *req.AssignedToID); err != nil {
			return nil, err
		}
		ticket.AssignedToID = req.AssignedToID
	}
	if req.CustomerEmail != nil {
		ticket.CustomerEmail = req.CustomerEmail
	}
	if req.Tags != nil {
		ticket.Tags = req.Tags
	}

	if err := validateTicketFields(ticket.Title, ticket.Description, ticket.Priority); err != nil {
		return nil, err
	}
	if !ticket.Status.Valid() {
		return nil, util.NewValidationError("unknown status", map[string]any{"status": int(ticket.Status)})
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, util.MapError(err)
	}

	updated, err := s.tickets.GetByID(ctx, ticket.ID)
	if err != nil {
		return nil, util.MapError(err)
	}
	resp := dto.NewTicketResponse(*updated)
	s.notifier.Broadcast(ctx, hub.TicketUpdated{Ticket: resp})
	return &resp, nil
}

// DeleteTicket removes a ticket and its comments, then broadcasts
// TicketDeleted carrying only the id.
func (s *TicketService) DeleteTicket(ctx context.Context, id int64) error {
	if err := s.tickets.Delete(ctx, id); err != nil {
		return util.MapError(err)
	}
	s.notifier.Broadcast(ctx, hub.TicketDeleted{TicketID: id})
	return nil
}

// AddComment appends a comment and broadcasts CommentAdded. The first
// comment by an agent or admin stamps the ticket's first response time,
// feeding the SLA response check.
func (s *TicketService) AddComment(ctx context.Context, actor *domain.User, ticketID int64, req dto.CreateTicketCommentRequest) (*dto.TicketCommentResponse, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, util.NewValidationError("comment content is required", nil)
	}
	if len(content) > maxContentLength {
		return nil, util.NewValidationError("comment content too long",
			map[string]any{"content": "must be at most 2000 characters"})
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, util.MapError(err)
	}

	comment := &domain.TicketComment{
		TicketID:   ticket.ID,
		AuthorID:   actor.ID,
		Content:    content,
		IsInternal: req.IsInternal,
	}
	if err := s.tickets.AddComment(ctx, comment); err != nil {
		return nil, util.MapError(err)
	}
	comment.AuthorName = actor.FullName()

	if ticket.FirstResponseAt == nil && actor.Role != domain.RoleCustomer {
		now := time.Now()
		ticket.FirstResponseAt = &now
		if err := s.tickets.Update(ctx, ticket); err != nil {
			s.logger.Warn("failed to stamp first response time",
				zap.Int64("ticket_id", ticket.ID), zap.Error(err))
		}
	}

	resp := dto.NewTicketCommentResponse(*comment)
	s.notifier.Broadcast(ctx, hub.CommentAdded{Comment: resp})
	return &resp, nil
}

// ListComments returns a ticket's comments. Internal notes are hidden from
// customers.
func (s *TicketService) ListComments(ctx context.Context, actor *domain.User, ticketID int64) ([]dto.TicketCommentResponse, error) {
	if _, err := s.tickets.GetByID(ctx, ticketID); err != nil {
		return nil, util.MapError(err)
	}
	comments, err := s.tickets.ListComments(ctx, ticketID)
	if err != nil {
		return nil, util.MapError(err)
	}

	out := make([]dto.TicketCommentResponse, 0, len(comments))
	for _, c := range comments {
		if c.IsInternal && actor.Role == domain.RoleCustomer {
			continue
		}
		out = append(out, dto.NewTicketCommentResponse(c))
	}
	return out, nil
}

// attachSla links the active SLA for the ticket's priority, if one exists.
// Missing SLAs are not an error; the ticket simply has no targets.
func (s *TicketService) attachSla(ctx context.Context, ticket *domain.Ticket) {
	slas, err := s.slas.ListActive(ctx)
	if err != nil {
		s.logger.Warn("failed to load SLA definitions", zap.Error(err))
		return
	}
	for _, sla := range slas {
		if sla.Priority == ticket.Priority {
			id := sla.ID
			ticket.SlaID = &id
			return
		}
	}
}

func (s *TicketService) checkAssignee(ctx context.Context, userID int64) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return util.NewValidationError("assignee not found", map[string]any{"assignedToId": userID})
	}
	if user.Role == domain.RoleCustomer {
		return util.NewValidationError("assignee must be an agent", map[string]any{"assignedToId": userID})
	}
	if !user.IsActive {
		return util.NewValidationError("assignee is deactivated", map[string]any{"assignedToId": userID})
	}
	return nil
}

// applyStatus records close and reopen transitions alongside the status
// value itself. Any transition is allowed.
func applyStatus(ticket *domain.Ticket, status domain.TicketStatus) {
	closedBefore := ticket.Status == domain.TicketStatusResolved || ticket.Status == domain.TicketStatusClosed
	closedAfter := status == domain.TicketStatusResolved || status == domain.TicketStatusClosed

	ticket.Status = status
	switch {
	case closedAfter && ticket.ClosedAt == nil:
		now := time.Now()
		ticket.ClosedAt = &now
	case closedBefore && !closedAfter:
		ticket.ClosedAt = nil
	}
}

func validateTicketFields(title, description string, priority domain.TicketPriority) error {
	details := map[string]any{}
	if title == "" {
		details["title"] = "required"
	} else if len(title) > maxTitleLength {
		details["title"] = "must be at most 200 characters"
	}
	if description == "" {
		details["description"] = "required"
	} else if len(description) > maxContentLength {
		details["description"] = "must be at most 2000 characters"
	}
	if !priority.Valid() {
		details["priority"] = "unknown priority"
	}
	if len(details) > 0 {
		return util.NewValidationError("invalid ticket", details)
	}
	return nil
}
