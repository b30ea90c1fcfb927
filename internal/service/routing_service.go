package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/supportdesk/ticket-dashboard/internal/domain"
	"github.com/supportdesk/ticket-dashboard/internal/repository"
	"github.com/supportdesk/ticket-dashboard/pkg/util"
)

// RoutingService manages triage rules and applies them to new tickets.
type RoutingService struct {
	rules   repository.RoutingRuleRepository
	tickets repository.TicketRepository
	now     func() time.Time
}

// NewRoutingService builds the service.
func NewRoutingService(rules repository.RoutingRuleRepository, tickets repository.TicketRepository) *RoutingService {
	return &RoutingService{rules: rules, tickets: tickets, now: time.Now}
}

// CreateRule validates and stores a rule.
func (s *RoutingService) CreateRule(ctx context.Context, rule *domain.RoutingRule) (*domain.RoutingRule, error) {
	if err := validateRule(rule); err != nil {
		return nil, err
	}
	if err := s.rules.Create(ctx, rule); err != nil {
		return nil, util.MapError(err)
	}
	return rule, nil
}

// UpdateRule validates and replaces a rule.
func (s *RoutingService) UpdateRule(ctx context.Context, rule *domain.RoutingRule) (*domain.RoutingRule, error) {
	if err := validateRule(rule); err != nil {
		return nil, err
	}
	if err := s.rules.Update(ctx, rule); err != nil {
		return nil, util.MapError(err)
	}
	return rule, nil
}

// DeleteRule removes a rule.
func (s *RoutingService) DeleteRule(ctx context.Context, id int64) error {
	return util.MapError(s.rules.Delete(ctx, id))
}

// GetRule fetches one rule.
func (s *RoutingService) GetRule(ctx context.Context, id int64) (*domain.RoutingRule, error) {
	rule, err := s.rules.GetByID(ctx, id)
	if err != nil {
		return nil, util.MapError(err)
	}
	return rule, nil
}

// ListRules returns all rules ordered by evaluation priority.
func (s *RoutingService) ListRules(ctx context.Context) ([]domain.RoutingRule, error) {
	rules, err := s.rules.List(ctx)
	if err != nil {
		return nil, util.MapError(err)
	}
	return rules, nil
}

// Apply evaluates active rules against a new ticket in ascending priority
// order and applies the actions of the first rule whose conditions all
// match. It reports whether any rule fired.
func (s *RoutingService) Apply(ctx context.Context, ticket *domain.Ticket) (bool, error) {
	rule, err := s.Match(ctx, ticket)
	if err != nil {
		return false, err
	}
	if rule == nil {
		return false, nil
	}
	if rule.AssignToUserID != nil {
		id := *rule.AssignToUserID
		ticket.AssignedToID = &id
	}
	if rule.SetPriority != nil && rule.SetPriority.Valid() {
		ticket.Priority = *rule.SetPriority
	}
	if len(rule.AddTags) > 0 {
		ticket.Tags = mergeTags(ticket.Tags, rule.AddTags)
	}
	return true, nil
}

// Match returns the first active rule, in ascending priority order, whose
// conditions all hold for the ticket, or nil when none match. The ticket is
// not modified.
func (s *RoutingService) Match(ctx context.Context, ticket *domain.Ticket) (*domain.RoutingRule, error) {
	rules, err := s.rules.ListActive(ctx)
	if err != nil {
		return nil, util.MapError(err)
	}
	for i := range rules {
		if s.matches(rules[i], ticket) {
			return &rules[i], nil
		}
	}
	return nil, nil
}

// TestTicket dry-runs the rule set against an existing ticket and reports
// which rule would fire, without touching the ticket.
func (s *RoutingService) TestTicket(ctx context.Context, ticketID int64) (*domain.RoutingRule, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, util.MapError(err)
	}
	return s.Match(ctx, ticket)
}

func (s *RoutingService) matches(rule domain.RoutingRule, ticket *domain.Ticket) bool {
	if len(rule.Conditions) == 0 {
		return false
	}
	for _, cond := range rule.Conditions {
		if !s.matchesCondition(cond, ticket) {
			return false
		}
	}
	return true
}

func (s *RoutingService) matchesCondition(cond domain.RoutingCondition, ticket *domain.Ticket) bool {
	switch cond.Type {
	case domain.RoutingConditionKeyword:
		needle := strings.ToLower(cond.Value)
		return strings.Contains(strings.ToLower(ticket.Title), needle) ||
			strings.Contains(strings.ToLower(ticket.Description), needle)
	case domain.RoutingConditionPriority:
		// Rules name the priority ("High"); the numeric form is also
		// accepted.
		if want, err := strconv.Atoi(cond.Value); err == nil {
			return int(ticket.Priority) == want
		}
		return strings.EqualFold(ticket.Priority.String(), strings.TrimSpace(cond.Value))
	case domain.RoutingConditionCustomerEmail:
		if ticket.CustomerEmail == nil {
			return false
		}
		return strings.Contains(strings.ToLower(*ticket.CustomerEmail), strings.ToLower(cond.Value))
	case domain.RoutingConditionTimeOfDay:
		return matchesTimeOfDay(cond.Value, s.now())
	case domain.RoutingConditionDayOfWeek:
		return matchesDayOfWeek(cond.Value, s.now())
	default:
		return false
	}
}

// matchesTimeOfDay checks an "HH:MM-HH:MM" window. Windows crossing
// midnight (e.g. 22:00-06:00) wrap around.
func matchesTimeOfDay(value string, now time.Time) bool {
	parts := strings.SplitN(value, "-", 2)
	if len(parts) != 2 {
		return false
	}
	start, okStart := parseMinutes(parts[0])
	end, okEnd := parseMinutes(parts[1])
	if !okStart || !okEnd {
		return false
	}
	cur := now.Hour()*60 + now.Minute()
	if start <= end {
		return cur >= start && cur < end
	}
	return cur >= start || cur < end
}

func parseMinutes(s string) (int, bool) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// matchesDayOfWeek accepts a comma-separated list of English day names.
func matchesDayOfWeek(value string, now time.Time) bool {
	today := strings.ToLower(now.Weekday().String())
	for _, day := range strings.Split(value, ",") {
		if strings.ToLower(strings.TrimSpace(day)) == today {
			return true
		}
	}
	return false
}

func mergeTags(existing, add []string) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, tag := range existing {
		seen[tag] = struct{}{}
	}
	merged := existing
	for _, tag := range add {
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		merged = append(merged, tag)
	}
	return merged
}

func validateRule(rule *domain.RoutingRule) error {
	details := map[string]any{}
	if strings.TrimSpace(rule.Name) == "" {
		details["name"] = "required"
	}
	if len(rule.Conditions) == 0 {
		details["conditions"] = "at least one condition is required"
	}
	for i, cond := range rule.Conditions {
		switch cond.Type {
		case domain.RoutingConditionKeyword, domain.RoutingConditionPriority,
			domain.RoutingConditionCustomerEmail, domain.RoutingConditionTimeOfDay,
			domain.RoutingConditionDayOfWeek:
		default:
			details["conditions["+strconv.Itoa(i)+"]"] = "unknown condition type"
		}
	}
	if rule.SetPriority != nil && !rule.SetPriority.Valid() {
		details["setPriority"] = "unknown priority"
	}
	if rule.AssignToUserID == nil && rule.SetPriority == nil && len(rule.AddTags) == 0 {
		details["actions"] = "rule must define at least one action"
	}
	if len(details) > 0 {
		return util.NewValidationError("invalid routing rule", details)
	}
	return nil
}
