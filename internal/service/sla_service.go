package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/supportdesk/ticket-dashboard/internal/api/dto"
	"github.com/supportdesk/ticket-dashboard/internal/domain"
	"github.com/supportdesk/ticket-dashboard/internal/repository"
	"github.com/supportdesk/ticket-dashboard/pkg/util"
)

// SlaService manages SLA definitions and detects missed targets.
type SlaService struct {
	slas    repository.SlaRepository
	tickets repository.TicketRepository
	logger  *zap.Logger
	now     func() time.Time
}

// NewSlaService builds the service.
func NewSlaService(slas repository.SlaRepository, tickets repository.TicketRepository, logger *zap.Logger) *SlaService {
	return &SlaService{slas: slas, tickets: tickets, logger: logger, now: time.Now}
}

// CreateSla validates and stores a definition.
func (s *SlaService) CreateSla(ctx context.Context, req dto.CreateSlaRequest) (*domain.SLA, error) {
	sla := &domain.SLA{
		Name:                  strings.TrimSpace(req.Name),
		Description:           strings.TrimSpace(req.Description),
		Priority:              req.Priority,
		ResponseTimeMinutes:   req.ResponseTimeMinutes,
		ResolutionTimeMinutes: req.ResolutionTimeMinutes,
		IsActive:              req.IsActive,
	}
	if err := validateSla(sla); err != nil {
		return nil, err
	}
	if err := s.slas.Create(ctx, sla); err != nil {
		return nil, util.MapError(err)
	}
	return sla, nil
}

// UpdateSla replaces a definition.
func (s *SlaService) UpdateSla(ctx context.Context, id int64, req dto.CreateSlaRequest) (*domain.SLA, error) {
	sla, err := s.slas.GetByID(ctx, id)
	if err != nil {
		return nil, util.MapError(err)
	}
	sla.Name = strings.TrimSpace(req.Name)
	sla.Description = strings.TrimSpace(req.Description)
	sla.Priority = req.Priority
	sla.ResponseTimeMinutes = req.ResponseTimeMinutes
	sla.ResolutionTimeMinutes = req.ResolutionTimeMinutes
	sla.IsActive = req.IsActive
	if err := validateSla(sla); err != nil {
		return nil, err
	}
	if err := s.slas.Update(ctx, sla); err != nil {
		return nil, util.MapError(err)
	}
	return sla, nil
}

// GetSla fetches one definition.
func (s *SlaService) GetSla(ctx context.Context, id int64) (*domain.SLA, error) {
	sla, err := s.slas.GetByID(ctx, id)
	if err != nil {
		return nil, util.MapError(err)
	}
	return sla, nil
}

// DeleteSla removes a definition.
func (s *SlaService) DeleteSla(ctx context.Context, id int64) error {
	return util.MapError(s.slas.Delete(ctx, id))
}

// ListActive returns active definitions.
func (s *SlaService) ListActive(ctx context.Context) ([]domain.SLA, error) {
	slas, err := s.slas.ListActive(ctx)
	if err != nil {
		return nil, util.MapError(err)
	}
	return slas, nil
}

// ListViolations returns recorded violations, optionally scoped to one
// ticket.
func (s *SlaService) ListViolations(ctx context.Context, ticketID *int64, includeResolved bool) ([]domain.SlaViolation, error) {
	violations, err := s.slas.ListViolations(ctx, ticketID, includeResolved)
	if err != nil {
		return nil, util.MapError(err)
	}
	return violations, nil
}

// CheckViolations sweeps unresolved SLA-linked tickets and records a
// violation for each missed target not yet recorded. It returns the newly
// recorded violations.
func (s *SlaService) CheckViolations(ctx context.Context) ([]domain.SlaViolation, error) {
	tickets, err := s.tickets.ListOpenWithSla(ctx)
	if err != nil {
		return nil, util.MapError(err)
	}

	recorded := []domain.SlaViolation{}
	for _, ticket := range tickets {
		sla, err := s.slas.GetByID(ctx, *ticket.SlaID)
		if err != nil {
			s.logger.Warn("ticket references missing SLA",
				zap.Int64("ticket_id", ticket.ID), zap.Int64("sla_id", *ticket.SlaID))
			continue
		}
		batch, err := s.record(ctx, ticket, sla)
		if err != nil {
			return nil, err
		}
		recorded = append(recorded, batch...)
	}
	return recorded, nil
}

// CheckTicket runs the violation check for a single ticket and returns the
// newly recorded violations.
func (s *SlaService) CheckTicket(ctx context.Context, ticketID int64) ([]domain.SlaViolation, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, util.MapError(err)
	}
	if ticket.SlaID == nil {
		return nil, util.NewValidationError("ticket has no SLA", map[string]any{"ticketId": ticketID})
	}
	sla, err := s.slas.GetByID(ctx, *ticket.SlaID)
	if err != nil {
		return nil, util.MapError(err)
	}
	return s.record(ctx, *ticket, sla)
}

// record stores each missed target not recorded before.
func (s *SlaService) record(ctx context.Context, ticket domain.Ticket, sla *domain.SLA) ([]domain.SlaViolation, error) {
	recorded := []domain.SlaViolation{}
	for _, v := range s.evaluate(ticket, sla) {
		exists, err := s.slas.HasViolation(ctx, ticket.ID, v.ViolationType)
		if err != nil {
			return nil, util.MapError(err)
		}
		if exists {
			continue
		}
		violation := v
		if err := s.slas.CreateViolation(ctx, &violation); err != nil {
			return nil, util.MapError(err)
		}
		recorded = append(recorded, violation)
	}
	return recorded, nil
}

// evaluate computes which targets a ticket has missed right now. Response
// time runs from creation until the first staff comment; resolution time
// runs from creation until the ticket is resolved or closed.
func (s *SlaService) evaluate(ticket domain.Ticket, sla *domain.SLA) []domain.SlaViolation {
	now := s.now()
	var out []domain.SlaViolation

	respondedAt := now
	if ticket.FirstResponseAt != nil {
		respondedAt = *ticket.FirstResponseAt
	}
	if elapsed := int(respondedAt.Sub(ticket.CreatedAt).Minutes()); elapsed > sla.ResponseTimeMinutes {
		out = append(out, domain.SlaViolation{
			TicketID:        ticket.ID,
			SlaID:           sla.ID,
			ViolationType:   domain.SlaViolationResponse,
			ViolationTime:   now,
			ActualMinutes:   elapsed,
			ExpectedMinutes: sla.ResponseTimeMinutes,
		})
	}

	if ticket.ClosedAt == nil {
		elapsed := int(now.Sub(ticket.CreatedAt).Minutes())
		if elapsed > sla.ResolutionTimeMinutes {
			out = append(out, domain.SlaViolation{
				TicketID:        ticket.ID,
				SlaID:           sla.ID,
				ViolationType:   domain.SlaViolationResolution,
				ViolationTime:   now,
				ActualMinutes:   elapsed,
				ExpectedMinutes: sla.ResolutionTimeMinutes,
			})
		}
	}
	return out
}

func validateSla(sla *domain.SLA) error {
	details := map[string]any{}
	if sla.Name == "" {
		details["name"] = "required"
	}
	if !sla.Priority.Valid() {
		details["priority"] = "unknown priority"
	}
	if sla.ResponseTimeMinutes <= 0 {
		details["responseTimeMinutes"] = "must be positive"
	}
	if sla.ResolutionTimeMinutes <= 0 {
		details["resolutionTimeMinutes"] = "must be positive"
	}
	if sla.ResolutionTimeMinutes > 0 && sla.ResponseTimeMinutes > sla.ResolutionTimeMinutes {
		details["responseTimeMinutes"] = "must not exceed resolution time"
	}
	if len(details) > 0 {
		return util.NewValidationError("invalid SLA", details)
	}
	return nil
}
