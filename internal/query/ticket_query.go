// Package query implements the ticket filter/sort/paginate pipeline shared by
// every TicketStore implementation. A raw filter is normalized once into a
// Plan; the Postgres store translates the Plan into SQL and the memory store
// executes it with the comparators below, so both produce the same ordering.
package query

import (
	"sort"
	"strings"

	"github.com/supportdesk/ticket-dashboard/internal/domain"
)

const (
	// DefaultPage and DefaultPageSize apply when the request omits paging
	// values. Non-positive values are clamped to these defaults as well.
	DefaultPage     = 1
	DefaultPageSize = 10
)

// SortKey identifies a recognized sort column.
type SortKey string

const (
	SortByTitle     SortKey = "title"
	SortByPriority  SortKey = "priority"
	SortByStatus    SortKey = "status"
	SortByCreatedAt SortKey = "createdat"
)

// TicketFilter is the request-shaped filter specification. Nil pointers mean
// "no constraint".
type TicketFilter struct {
	Status        *domain.TicketStatus
	Priority      *domain.TicketPriority
	AssignedToID  *int64
	Search        string
	Page          int
	PageSize      int
	SortBy        string
	SortDirection string
}

// Plan is the normalized, executable form of a TicketFilter.
type Plan struct {
	Status       *domain.TicketStatus
	Priority     *domain.TicketPriority
	AssignedToID *int64
	Search       string

	Page       int
	PageSize   int
	Offset     int
	SortKey    SortKey
	Descending bool
}

// Normalize resolves defaults and the sort rules.
//
// Sort key recognition is case-insensitive; an unrecognized key falls back to
// createdAt. Direction is descending only when sortDirection lowercases to
// exactly "desc". The one asymmetry: when SortBy is entirely absent the
// default order is createdAt descending, while an explicit sortBy=createdAt
// with no direction is ascending.
func (f TicketFilter) Normalize() Plan {
	page := f.Page
	if page <= 0 {
		page = DefaultPage
	}
	pageSize := f.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	plan := Plan{
		Status:       f.Status,
		Priority:     f.Priority,
		AssignedToID: f.AssignedToID,
		Search:       strings.TrimSpace(f.Search),
		Page:         page,
		PageSize:     pageSize,
		Offset:       (page - 1) * pageSize,
	}

	if strings.TrimSpace(f.SortBy) == "" {
		plan.SortKey = SortByCreatedAt
		plan.Descending = true
		return plan
	}

	switch SortKey(strings.ToLower(f.SortBy)) {
	case SortByTitle:
		plan.SortKey = SortByTitle
	case SortByPriority:
		plan.SortKey = SortByPriority
	case SortByStatus:
		plan.SortKey = SortByStatus
	default:
		plan.SortKey = SortByCreatedAt
	}
	plan.Descending = strings.ToLower(f.SortDirection) == "desc"
	return plan
}

// MatchesSearch reports whether the free-text term matches the ticket title,
// description, creator first name or creator last name, as a case-insensitive
// substring. An empty term matches everything.
func MatchesSearch(term, title, description, firstName, lastName string) bool {
	if term == "" {
		return true
	}
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(title), term) ||
		strings.Contains(strings.ToLower(description), term) ||
		strings.Contains(strings.ToLower(firstName), term) ||
		strings.Contains(strings.ToLower(lastName), term)
}

// MatchesEquality applies the optional status/priority/assignee constraints.
func (p Plan) MatchesEquality(t domain.Ticket) bool {
	if p.Status != nil && t.Status != *p.Status {
		return false
	}
	if p.Priority != nil && t.Priority != *p.Priority {
		return false
	}
	if p.AssignedToID != nil {
		if t.AssignedToID == nil || *t.AssignedToID != *p.AssignedToID {
			return false
		}
	}
	return true
}

// Sort orders tickets in place according to the plan. The sort is stable so
// equal keys keep their prior relative order.
func (p Plan) Sort(tickets []domain.Ticket) {
	less := p.lessFunc()
	sort.SliceStable(tickets, func(i, j int) bool {
		if p.Descending {
			return less(tickets[j], tickets[i])
		}
		return less(tickets[i], tickets[j])
	})
}

// Slice applies the skip/take window to an already sorted, filtered set.
func (p Plan) Slice(tickets []domain.Ticket) []domain.Ticket {
	if p.Offset >= len(tickets) {
		return []domain.Ticket{}
	}
	end := p.Offset + p.PageSize
	if end > len(tickets) {
		end = len(tickets)
	}
	return tickets[p.Offset:end]
}

func (p Plan) lessFunc() func(a, b domain.Ticket) bool {
	switch p.SortKey {
	case SortByTitle:
		return func(a, b domain.Ticket) bool { return a.Title < b.Title }
	case SortByPriority:
		return func(a, b domain.Ticket) bool { return a.Priority < b.Priority }
	case SortByStatus:
		return func(a, b domain.Ticket) bool { return a.Status < b.Status }
	default:
		return func(a, b domain.Ticket) bool { return a.CreatedAt.Before(b.CreatedAt) }
	}
}
