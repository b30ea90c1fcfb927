package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/supportdesk/ticket-dashboard/internal/domain"
	"github.com/supportdesk/ticket-dashboard/internal/query"
)

// Memory-backed stores used when no POSTGRES_DSN is configured, and as the
// reference executor for the filter/sort/paginate plan in tests. They honor
// the same contracts as the Postgres implementations, including pgx.ErrNoRows
// for missing rows.

// MemoryUserStore is an in-memory UserRepository.
type MemoryUserStore struct {
	mu     sync.RWMutex
	nextID int64
	users  map[int64]domain.User
}

// NewMemoryUserStore creates an empty user store.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{nextID: 1, users: make(map[int64]domain.User)}
}

func (s *MemoryUserStore) Create(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user.ID = s.nextID
	s.nextID++
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = *user
	return nil
}

func (s *MemoryUserStore) Update(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	user.UpdatedAt = time.Now().UTC()
	s.users[user.ID] = *user
	return nil
}

func (s *MemoryUserStore) GetByID(_ context.Context, id int64) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

// GetByUsername matches active and inactive rows alike.
func (s *MemoryUserStore) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Username == username {
			u := user
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *MemoryUserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *MemoryUserStore) ListAgents(_ context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	agents := []domain.User{}
	for _, user := range s.users {
		if user.Role == domain.RoleAgent && user.IsActive {
			agents = append(agents, user)
		}
	}
	sort.Slice(agents, func(i, j int) bool {
		if agents[i].FirstName != agents[j].FirstName {
			return agents[i].FirstName < agents[j].FirstName
		}
		return agents[i].LastName < agents[j].LastName
	})
	return agents, nil
}

// MemoryTicketStore is an in-memory TicketRepository. It reads creator and
// assignee names from the user store, mirroring the SQL joins.
type MemoryTicketStore struct {
	mu            sync.RWMutex
	nextTicketID  int64
	nextCommentID int64
	tickets       map[int64]domain.Ticket
	comments      map[int64][]domain.TicketComment
	order         []int64 // insertion order, the stable-sort baseline
	users         *MemoryUserStore
}

// NewMemoryTicketStore creates an empty ticket store backed by users for
// name lookups.
func NewMemoryTicketStore(users *MemoryUserStore) *MemoryTicketStore {
	return &MemoryTicketStore{
		nextTicketID:  1,
		nextCommentID: 1,
		tickets:       make(map[int64]domain.Ticket),
		comments:      make(map[int64][]domain.TicketComment),
		users:         users,
	}
}

func (s *MemoryTicketStore) Create(ctx context.Context, ticket *domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket.ID = s.nextTicketID
	s.nextTicketID++
	now := time.Now().UTC()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	s.decorateNames(ctx, ticket)
	s.tickets[ticket.ID] = *ticket
	s.order = append(s.order, ticket.ID)
	return nil
}

func (s *MemoryTicketStore) Update(ctx context.Context, ticket *domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = time.Now().UTC()
	s.decorateNames(ctx, ticket)
	s.tickets[ticket.ID] = *ticket
	return nil
}

func (s *MemoryTicketStore) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ticket, ok := s.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &ticket, nil
}

func (s *MemoryTicketStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(s.tickets, id)
	delete(s.comments, id)
	for i, tid := range s.order {
		if tid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// ListWithFilter runs the full pipeline: equality filters, free-text search,
// sort, count, slice — in that order.
func (s *MemoryTicketStore) ListWithFilter(ctx context.Context, plan query.Plan) ([]domain.Ticket, int, error) {
	s.mu.RLock()
	matched := []domain.Ticket{}
	for _, id := range s.order {
		ticket := s.tickets[id]
		if !plan.MatchesEquality(ticket) {
			continue
		}
		if plan.Search != "" {
			var firstName, lastName string
			if creator, err := s.users.GetByID(ctx, ticket.CreatedByID); err == nil {
				firstName, lastName = creator.FirstName, creator.LastName
			}
			if !query.MatchesSearch(plan.Search, ticket.Title, ticket.Description, firstName, lastName) {
				continue
			}
		}
		matched = append(matched, ticket)
	}
	s.mu.RUnlock()

	plan.Sort(matched)
	total := len(matched)
	return plan.Slice(matched), total, nil
}

func (s *MemoryTicketStore) ListOpenWithSla(_ context.Context) ([]domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tickets := []domain.Ticket{}
	for _, id := range s.order {
		ticket := s.tickets[id]
		if ticket.SlaID == nil {
			continue
		}
		if ticket.Status != domain.TicketStatusOpen && ticket.Status != domain.TicketStatusInProgress {
			continue
		}
		tickets = append(tickets, ticket)
	}
	return tickets, nil
}

func (s *MemoryTicketStore) CountAssignedTo(_ context.Context, userID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, ticket := range s.tickets {
		if ticket.AssignedToID != nil && *ticket.AssignedToID == userID {
			count++
		}
	}
	return count, nil
}

func (s *MemoryTicketStore) AddComment(ctx context.Context, comment *domain.TicketComment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tickets[comment.TicketID]; !ok {
		return pgx.ErrNoRows
	}
	comment.ID = s.nextCommentID
	s.nextCommentID++
	comment.CreatedAt = time.Now().UTC()
	if author, err := s.users.GetByID(ctx, comment.AuthorID); err == nil {
		comment.AuthorName = author.FullName()
	}
	s.comments[comment.TicketID] = append(s.comments[comment.TicketID], *comment)
	return nil
}

func (s *MemoryTicketStore) ListComments(_ context.Context, ticketID int64) ([]domain.TicketComment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	comments := make([]domain.TicketComment, len(s.comments[ticketID]))
	copy(comments, s.comments[ticketID])
	return comments, nil
}

func (s *MemoryTicketStore) decorateNames(ctx context.Context, ticket *domain.Ticket) {
	if creator, err := s.users.GetByID(ctx, ticket.CreatedByID); err == nil {
		ticket.CreatedByName = creator.FullName()
	}
	ticket.AssignedToName = nil
	if ticket.AssignedToID != nil {
		if assignee, err := s.users.GetByID(ctx, *ticket.AssignedToID); err == nil {
			name := assignee.FullName()
			ticket.AssignedToName = &name
		}
	}
}

// MemorySlaStore is an in-memory SlaRepository.
type MemorySlaStore struct {
	mu         sync.RWMutex
	nextID     int64
	slas       map[int64]domain.SLA
	violations []domain.SlaViolation
}

// NewMemorySlaStore creates an empty SLA store.
func NewMemorySlaStore() *MemorySlaStore {
	return &MemorySlaStore{nextID: 1, slas: make(map[int64]domain.SLA)}
}

func (s *MemorySlaStore) Create(_ context.Context, sla *domain.SLA) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sla.ID = s.nextID
	s.nextID++
	now := time.Now().UTC()
	sla.CreatedAt = now
	sla.UpdatedAt = now
	s.slas[sla.ID] = *sla
	return nil
}

func (s *MemorySlaStore) Update(_ context.Context, sla *domain.SLA) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.slas[sla.ID]; !ok {
		return pgx.ErrNoRows
	}
	sla.UpdatedAt = time.Now().UTC()
	s.slas[sla.ID] = *sla
	return nil
}

func (s *MemorySlaStore) GetByID(_ context.Context, id int64) (*domain.SLA, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sla, ok := s.slas[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &sla, nil
}

func (s *MemorySlaStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.slas[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(s.slas, id)
	return nil
}

func (s *MemorySlaStore) ListActive(_ context.Context) ([]domain.SLA, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	slas := []domain.SLA{}
	for _, sla := range s.slas {
		if sla.IsActive {
			slas = append(slas, sla)
		}
	}
	return slas, nil
}

func (s *MemorySlaStore) CreateViolation(_ context.Context, v *domain.SlaViolation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v.ID = int64(len(s.violations) + 1)
	v.CreatedAt = time.Now().UTC()
	s.violations = append(s.violations, *v)
	return nil
}

func (s *MemorySlaStore) ListViolations(_ context.Context, ticketID *int64, includeResolved bool) ([]domain.SlaViolation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	violations := []domain.SlaViolation{}
	for _, v := range s.violations {
		if ticketID != nil && v.TicketID != *ticketID {
			continue
		}
		if !includeResolved && v.IsResolved {
			continue
		}
		violations = append(violations, v)
	}
	return violations, nil
}

func (s *MemorySlaStore) HasViolation(_ context.Context, ticketID int64, vt domain.SlaViolationType) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.violations {
		if v.TicketID == ticketID && v.ViolationType == vt {
			return true, nil
		}
	}
	return false, nil
}

// MemoryRoutingStore is an in-memory RoutingRuleRepository.
type MemoryRoutingStore struct {
	mu     sync.RWMutex
	nextID int64
	rules  map[int64]domain.RoutingRule
}

// NewMemoryRoutingStore creates an empty routing rule store.
func NewMemoryRoutingStore() *MemoryRoutingStore {
	return &MemoryRoutingStore{nextID: 1, rules: make(map[int64]domain.RoutingRule)}
}

func (s *MemoryRoutingStore) Create(_ context.Context, rule *domain.RoutingRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rule.ID = s.nextID
	s.nextID++
	now := time.Now().UTC()
	rule.CreatedAt = now
	rule.UpdatedAt = now
	s.rules[rule.ID] = *rule
	return nil
}

func (s *MemoryRoutingStore) Update(_ context.Context, rule *domain.RoutingRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[rule.ID]; !ok {
		return pgx.ErrNoRows
	}
	rule.UpdatedAt = time.Now().UTC()
	s.rules[rule.ID] = *rule
	return nil
}

func (s *MemoryRoutingStore) GetByID(_ context.Context, id int64) (*domain.RoutingRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rule, ok := s.rules[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &rule, nil
}

func (s *MemoryRoutingStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(s.rules, id)
	return nil
}

func (s *MemoryRoutingStore) List(_ context.Context) ([]domain.RoutingRule, error) {
	return s.listWhere(func(domain.RoutingRule) bool { return true })
}

func (s *MemoryRoutingStore) ListActive(_ context.Context) ([]domain.RoutingRule, error) {
	return s.listWhere(func(rule domain.RoutingRule) bool { return rule.IsActive })
}

func (s *MemoryRoutingStore) listWhere(keep func(domain.RoutingRule) bool) ([]domain.RoutingRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rules := []domain.RoutingRule{}
	for _, rule := range s.rules {
		if keep(rule) {
			rules = append(rules, rule)
		}
	}
	// evaluation order
	for i := 1; i < len(rules); i++ {
		for j := i; j > 0 && rules[j-1].Priority > rules[j].Priority; j-- {
			rules[j-1], rules[j] = rules[j], rules[j-1]
		}
	}
	return rules, nil
}
