package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supportdesk/ticket-dashboard/internal/domain"
	"github.com/supportdesk/ticket-dashboard/internal/repository"
	"github.com/supportdesk/ticket-dashboard/pkg/util"
)

func newRoutingFixture(t *testing.T) (*RoutingService, *repository.MemoryRoutingStore) {
	t.Helper()
	store := repository.NewMemoryRoutingStore()
	tickets := repository.NewMemoryTicketStore(repository.NewMemoryUserStore())
	return NewRoutingService(store, tickets), store
}

func ruleWithKeyword(name, keyword string, priority int, actions func(*domain.RoutingRule)) *domain.RoutingRule {
	rule := &domain.RoutingRule{
		Name:     name,
		Priority: priority,
		IsActive: true,
		Conditions: []domain.RoutingCondition{
			{Type: domain.RoutingConditionKeyword, Value: keyword},
		},
	}
	if actions != nil {
		actions(rule)
	}
	return rule
}

func TestApply_FirstMatchingRuleWinsByPriority(t *testing.T) {
	svc, store := newRoutingFixture(t)
	ctx := context.Background()

	high := domain.TicketPriorityHigh
	critical := domain.TicketPriorityCritical
	require.NoError(t, store.Create(ctx, ruleWithKeyword("second", "error", 20, func(r *domain.RoutingRule) {
		r.SetPriority = &high
	})))
	require.NoError(t, store.Create(ctx, ruleWithKeyword("first", "error", 10, func(r *domain.RoutingRule) {
		r.SetPriority = &critical
	})))

	ticket := &domain.Ticket{Title: "Error on checkout", Priority: domain.TicketPriorityLow}
	fired, err := svc.Apply(ctx, ticket)
	require.NoError(t, err)
	assert.True(t, fired)
	assert.Equal(t, domain.TicketPriorityCritical, ticket.Priority)
}

func TestApply_AllConditionsMustMatch(t *testing.T) {
	svc, store := newRoutingFixture(t)
	ctx := context.Background()

	critical := domain.TicketPriorityCritical
	rule := ruleWithKeyword("vip outage", "outage", 1, func(r *domain.RoutingRule) {
		r.SetPriority = &critical
	})
	rule.Conditions = append(rule.Conditions, domain.RoutingCondition{
		Type: domain.RoutingConditionCustomerEmail, Value: "@bigcorp.com",
	})
	require.NoError(t, store.Create(ctx, rule))

	ticket := &domain.Ticket{Title: "Outage in region", Priority: domain.TicketPriorityLow}
	fired, err := svc.Apply(ctx, ticket)
	require.NoError(t, err)
	assert.False(t, fired)

	email := "ceo@bigcorp.com"
	ticket.CustomerEmail = &email
	fired, err = svc.Apply(ctx, ticket)
	require.NoError(t, err)
	assert.True(t, fired)
	assert.Equal(t, domain.TicketPriorityCritical, ticket.Priority)
}

func TestApply_InactiveRulesAreSkipped(t *testing.T) {
	svc, store := newRoutingFixture(t)
	ctx := context.Background()

	critical := domain.TicketPriorityCritical
	rule := ruleWithKeyword("disabled", "crash", 1, func(r *domain.RoutingRule) {
		r.SetPriority = &critical
	})
	rule.IsActive = false
	require.NoError(t, store.Create(ctx, rule))

	ticket := &domain.Ticket{Title: "App crash", Priority: domain.TicketPriorityLow}
	fired, err := svc.Apply(ctx, ticket)
	require.NoError(t, err)
	assert.False(t, fired)
	assert.Equal(t, domain.TicketPriorityLow, ticket.Priority)
}

func TestApply_MergeTagsDeduplicates(t *testing.T) {
	svc, store := newRoutingFixture(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, ruleWithKeyword("tagger", "billing", 1, func(r *domain.RoutingRule) {
		r.AddTags = []string{"billing", "finance"}
	})))

	ticket := &domain.Ticket{Title: "Billing question", Tags: []string{"billing"}}
	fired, err := svc.Apply(ctx, ticket)
	require.NoError(t, err)
	assert.True(t, fired)
	assert.Equal(t, []string{"billing", "finance"}, ticket.Tags)
}

func TestMatchesTimeOfDay(t *testing.T) {
	noon := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	assert.True(t, matchesTimeOfDay("09:00-17:00", noon))
	assert.False(t, matchesTimeOfDay("17:00-18:00", noon))
	// Window wrapping midnight.
	night := time.Date(2026, 3, 14, 23, 30, 0, 0, time.UTC)
	assert.True(t, matchesTimeOfDay("22:00-06:00", night))
	assert.False(t, matchesTimeOfDay("22:00-06:00", noon))
	// Malformed windows never match.
	assert.False(t, matchesTimeOfDay("lunchtime", noon))
}

func TestMatchesDayOfWeek(t *testing.T) {
	// 2026-03-14 is a Saturday.
	saturday := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	assert.True(t, matchesDayOfWeek("Saturday,Sunday", saturday))
	assert.True(t, matchesDayOfWeek(" saturday ", saturday))
	assert.False(t, matchesDayOfWeek("Monday", saturday))
}

func TestCreateRule_RequiresConditionsAndActions(t *testing.T) {
	svc, _ := newRoutingFixture(t)
	ctx := context.Background()

	_, err := svc.CreateRule(ctx, &domain.RoutingRule{Name: "empty"})
	require.Error(t, err)
	derr := util.ToDomainError(err)
	assert.Equal(t, "VALIDATION_FAILED", derr.Code)
	assert.Contains(t, derr.Details, "conditions")
	assert.Contains(t, derr.Details, "actions")
}

func TestTestTicket_ReportsMatchWithoutModifyingTicket(t *testing.T) {
	ctx := context.Background()
	rules := repository.NewMemoryRoutingStore()
	tickets := repository.NewMemoryTicketStore(repository.NewMemoryUserStore())
	svc := NewRoutingService(rules, tickets)

	critical := domain.TicketPriorityCritical
	require.NoError(t, rules.Create(ctx, ruleWithKeyword("escalate errors", "error", 5, func(r *domain.RoutingRule) {
		r.SetPriority = &critical
	})))

	ticket := &domain.Ticket{
		Title:       "Error on checkout",
		Description: "500 at payment",
		Status:      domain.TicketStatusOpen,
		Priority:    domain.TicketPriorityLow,
		CreatedByID: 1,
	}
	require.NoError(t, tickets.Create(ctx, ticket))

	matched, err := svc.TestTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.NotNil(t, matched)
	assert.Equal(t, "escalate errors", matched.Name)

	stored, err := tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketPriorityLow, stored.Priority)
}

func TestTestTicket_UnknownTicketIsNotFound(t *testing.T) {
	rules := repository.NewMemoryRoutingStore()
	tickets := repository.NewMemoryTicketStore(repository.NewMemoryUserStore())
	svc := NewRoutingService(rules, tickets)

	_, err := svc.TestTicket(context.Background(), 999)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", util.ToDomainError(err).Code)
}

func TestMatchesCondition_PriorityByNameOrNumber(t *testing.T) {
	svc, _ := newRoutingFixture(t)
	ticket := &domain.Ticket{Priority: domain.TicketPriorityHigh}

	cond := domain.RoutingCondition{Type: domain.RoutingConditionPriority, Value: "High"}
	assert.True(t, svc.matchesCondition(cond, ticket))

	cond.Value = "high"
	assert.True(t, svc.matchesCondition(cond, ticket))

	cond.Value = "3"
	assert.True(t, svc.matchesCondition(cond, ticket))

	cond.Value = "Critical"
	assert.False(t, svc.matchesCondition(cond, ticket))
}
