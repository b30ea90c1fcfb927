package domain

import "time"

// RoutingConditionType enumerates supported rule condition kinds.
type RoutingConditionType string

const (
	RoutingConditionKeyword       RoutingConditionType = "contains_keyword"
	RoutingConditionPriority      RoutingConditionType = "priority"
	RoutingConditionCustomerEmail RoutingConditionType = "customer_email"
	RoutingConditionTimeOfDay     RoutingConditionType = "time_of_day"
	RoutingConditionDayOfWeek     RoutingConditionType = "day_of_week"
)

// RoutingCondition is a single predicate within a rule. All conditions of a
// rule must match for the rule to fire.
type RoutingCondition struct {
	Type  RoutingConditionType `json:"type"`
	Value string               `json:"value"`
}

// RoutingRule describes automatic triage applied to newly created tickets.
// Rules are evaluated in ascending Priority order; the first matching rule
// wins.
type RoutingRule struct {
	ID             int64
	Name           string
	Description    string
	Priority       int
	IsActive       bool
	Conditions     []RoutingCondition
	AssignToUserID *int64
	AddTags        []string
	SetPriority    *TicketPriority
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
