package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/supportdesk/ticket-dashboard/internal/api/dto"
	"github.com/supportdesk/ticket-dashboard/internal/domain"
	"github.com/supportdesk/ticket-dashboard/internal/hub"
	"github.com/supportdesk/ticket-dashboard/internal/query"
	"github.com/supportdesk/ticket-dashboard/internal/repository"
	"github.com/supportdesk/ticket-dashboard/pkg/util"
)

// spyNotifier records broadcast events in order.
type spyNotifier struct {
	mu     sync.Mutex
	events []hub.Event
}

func (n *spyNotifier) Broadcast(_ context.Context, event hub.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *spyNotifier) recorded() []hub.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]hub.Event(nil), n.events...)
}

func (n *spyNotifier) reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = nil
}

// rejectingTicketStore fails every write.
type rejectingTicketStore struct {
	repository.TicketRepository
}

func (rejectingTicketStore) Create(context.Context, *domain.Ticket) error {
	return errors.New("connection refused")
}

func (rejectingTicketStore) Update(context.Context, *domain.Ticket) error {
	return errors.New("connection refused")
}

type ticketFixture struct {
	svc      *TicketService
	notifier *spyNotifier
	users    *repository.MemoryUserStore
	tickets  *repository.MemoryTicketStore
	slas     *repository.MemorySlaStore
	routing  *repository.MemoryRoutingStore
	customer *domain.User
	agent    *domain.User
}

func newTicketFixture(t *testing.T) *ticketFixture {
	t.Helper()
	ctx := context.Background()

	users := repository.NewMemoryUserStore()
	customer := &domain.User{
		Username: "alice", Email: "alice@example.com",
		FirstName: "Alice", LastName: "Nguyen",
		Role: domain.RoleCustomer, IsActive: true,
	}
	require.NoError(t, users.Create(ctx, customer))
	agent := &domain.User{
		Username: "bob", Email: "bob@example.com",
		FirstName: "Bob", LastName: "Reyes",
		Role: domain.RoleAgent, IsActive: true,
	}
	require.NoError(t, users.Create(ctx, agent))

	tickets := repository.NewMemoryTicketStore(users)
	slas := repository.NewMemorySlaStore()
	routing := repository.NewMemoryRoutingStore()
	notifier := &spyNotifier{}

	svc := NewTicketService(TicketDependencies{
		TicketRepo: tickets,
		UserRepo:   users,
		SlaRepo:    slas,
		Routing:    NewRoutingService(routing, tickets),
		Notifier:   notifier,
		Logger:     zap.NewNop(),
	})
	return &ticketFixture{
		svc: svc, notifier: notifier,
		users: users, tickets: tickets, slas: slas, routing: routing,
		customer: customer, agent: agent,
	}
}

func TestCreateTicket_PersistsThenBroadcasts(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	resp, err := f.svc.CreateTicket(ctx, f.customer, dto.CreateTicketRequest{
		Title:       "Login Issue",
		Description: "Cannot sign in since this morning",
		Priority:    domain.TicketPriorityHigh,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, resp.Status)
	assert.Equal(t, f.customer.ID, resp.CustomerID)
	assert.Equal(t, "Alice Nguyen", resp.CustomerName)

	events := f.notifier.recorded()
	require.Len(t, events, 1)
	created, ok := events[0].(hub.TicketCreated)
	require.True(t, ok)
	assert.Equal(t, resp.ID, created.Ticket.ID)
}

func TestCreateTicket_ValidationFailureTouchesNothing(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateTicket(ctx, f.customer, dto.CreateTicketRequest{
		Title:       "",
		Description: "no title",
		Priority:    domain.TicketPriorityLow,
	})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", util.ToDomainError(err).Code)

	_, total, listErr := f.tickets.ListWithFilter(ctx, query.TicketFilter{}.Normalize())
	require.NoError(t, listErr)
	assert.Zero(t, total)
	assert.Empty(t, f.notifier.recorded())
}

func TestCreateTicket_PersistFailureSuppressesBroadcast(t *testing.T) {
	f := newTicketFixture(t)
	f.svc.tickets = rejectingTicketStore{f.tickets}

	_, err := f.svc.CreateTicket(context.Background(), f.customer, dto.CreateTicketRequest{
		Title:       "Login Issue",
		Description: "Cannot sign in",
		Priority:    domain.TicketPriorityHigh,
	})
	require.Error(t, err)
	assert.Empty(t, f.notifier.recorded())
}

func TestUpdateTicket_PersistFailureSuppressesBroadcast(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	resp, err := f.svc.CreateTicket(ctx, f.customer, dto.CreateTicketRequest{
		Title:       "Login Issue",
		Description: "Cannot sign in",
		Priority:    domain.TicketPriorityHigh,
	})
	require.NoError(t, err)
	f.notifier.reset()

	f.svc.tickets = rejectingTicketStore{f.tickets}
	title := "Login issue on mobile"
	_, err = f.svc.UpdateTicket(ctx, resp.ID, dto.UpdateTicketRequest{Title: &title})
	require.Error(t, err)
	assert.Empty(t, f.notifier.recorded())
}

func TestCreateTicket_AppliesFirstMatchingRoutingRule(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	critical := domain.TicketPriorityCritical
	agentID := f.agent.ID
	require.NoError(t, f.routing.Create(ctx, &domain.RoutingRule{
		Name:     "escalate outages",
		Priority: 1,
		IsActive: true,
		Conditions: []domain.RoutingCondition{
			{Type: domain.RoutingConditionKeyword, Value: "outage"},
		},
		AssignToUserID: &agentID,
		SetPriority:    &critical,
		AddTags:        []string{"outage"},
	}))

	resp, err := f.svc.CreateTicket(ctx, f.customer, dto.CreateTicketRequest{
		Title:       "Regional outage reported",
		Description: "Multiple users affected",
		Priority:    domain.TicketPriorityMedium,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketPriorityCritical, resp.Priority)
	require.NotNil(t, resp.AssignedToID)
	assert.Equal(t, agentID, *resp.AssignedToID)
	assert.Contains(t, resp.Tags, "outage")
}

func TestCreateTicket_AttachesSlaForPriority(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	require.NoError(t, f.slas.Create(ctx, &domain.SLA{
		Name:                  "high priority",
		Priority:              domain.TicketPriorityHigh,
		ResponseTimeMinutes:   30,
		ResolutionTimeMinutes: 240,
		IsActive:              true,
	}))

	resp, err := f.svc.CreateTicket(ctx, f.customer, dto.CreateTicketRequest{
		Title:       "Payment failing",
		Description: "Checkout errors",
		Priority:    domain.TicketPriorityHigh,
	})
	require.NoError(t, err)

	stored, err := f.tickets.GetByID(ctx, resp.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.SlaID)
}

func TestUpdateTicket_CloseAndReopen(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateTicket(ctx, f.customer, dto.CreateTicketRequest{
		Title:       "Login Issue",
		Description: "Cannot sign in",
		Priority:    domain.TicketPriorityHigh,
	})
	require.NoError(t, err)

	resolved := domain.TicketStatusResolved
	updated, err := f.svc.UpdateTicket(ctx, created.ID, dto.UpdateTicketRequest{Status: &resolved})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, updated.Status)
	require.NotNil(t, updated.ResolvedAt)

	open := domain.TicketStatusOpen
	reopened, err := f.svc.UpdateTicket(ctx, created.ID, dto.UpdateTicketRequest{Status: &open})
	require.NoError(t, err)
	assert.Nil(t, reopened.ResolvedAt)

	events := f.notifier.recorded()
	require.Len(t, events, 3)
	_, ok := events[1].(hub.TicketUpdated)
	assert.True(t, ok)
}

func TestUpdateTicket_UnknownIDIsNotFound(t *testing.T) {
	f := newTicketFixture(t)

	title := "new title"
	_, err := f.svc.UpdateTicket(context.Background(), 999, dto.UpdateTicketRequest{Title: &title})
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", util.ToDomainError(err).Code)
	assert.Empty(t, f.notifier.recorded())
}

func TestDeleteTicket_BroadcastsID(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateTicket(ctx, f.customer, dto.CreateTicketRequest{
		Title:       "Login Issue",
		Description: "Cannot sign in",
		Priority:    domain.TicketPriorityHigh,
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteTicket(ctx, created.ID))

	events := f.notifier.recorded()
	require.Len(t, events, 2)
	deleted, ok := events[1].(hub.TicketDeleted)
	require.True(t, ok)
	assert.Equal(t, created.ID, deleted.TicketID)
}

func TestAddComment_StaffCommentStampsFirstResponse(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateTicket(ctx, f.customer, dto.CreateTicketRequest{
		Title:       "Login Issue",
		Description: "Cannot sign in",
		Priority:    domain.TicketPriorityHigh,
	})
	require.NoError(t, err)

	// A customer comment is not a response.
	_, err = f.svc.AddComment(ctx, f.customer, created.ID, dto.CreateTicketCommentRequest{Content: "any update?"})
	require.NoError(t, err)
	stored, err := f.tickets.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.FirstResponseAt)

	comment, err := f.svc.AddComment(ctx, f.agent, created.ID, dto.CreateTicketCommentRequest{Content: "looking into it"})
	require.NoError(t, err)
	assert.Equal(t, "Bob Reyes", comment.AuthorName)

	stored, err = f.tickets.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.FirstResponseAt)

	events := f.notifier.recorded()
	require.Len(t, events, 3)
	added, ok := events[2].(hub.CommentAdded)
	require.True(t, ok)
	assert.Equal(t, created.ID, added.Comment.TicketID)
}

func TestListComments_HidesInternalNotesFromCustomers(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateTicket(ctx, f.customer, dto.CreateTicketRequest{
		Title:       "Login Issue",
		Description: "Cannot sign in",
		Priority:    domain.TicketPriorityHigh,
	})
	require.NoError(t, err)

	_, err = f.svc.AddComment(ctx, f.agent, created.ID, dto.CreateTicketCommentRequest{Content: "checking auth logs", IsInternal: true})
	require.NoError(t, err)
	_, err = f.svc.AddComment(ctx, f.agent, created.ID, dto.CreateTicketCommentRequest{Content: "fix deployed"})
	require.NoError(t, err)

	forCustomer, err := f.svc.ListComments(ctx, f.customer, created.ID)
	require.NoError(t, err)
	require.Len(t, forCustomer, 1)
	assert.Equal(t, "fix deployed", forCustomer[0].Content)

	forAgent, err := f.svc.ListComments(ctx, f.agent, created.ID)
	require.NoError(t, err)
	assert.Len(t, forAgent, 2)
}

func TestGetTickets_FilterPipeline(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	titles := []string{"Login Issue", "Printer jam", "VPN down"}
	priorities := []domain.TicketPriority{
		domain.TicketPriorityHigh, domain.TicketPriorityLow, domain.TicketPriorityCritical,
	}
	for i, title := range titles {
		_, err := f.svc.CreateTicket(ctx, f.customer, dto.CreateTicketRequest{
			Title:       title,
			Description: "details for " + title,
			Priority:    priorities[i],
		})
		require.NoError(t, err)
	}

	status := domain.TicketStatusOpen
	page, err := f.svc.GetTickets(ctx, query.TicketFilter{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalCount)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 10, page.PageSize)
	assert.Equal(t, 1, page.TotalPages)
	assert.Len(t, page.Items, 3)

	search, err := f.svc.GetTickets(ctx, query.TicketFilter{Search: "vpn"})
	require.NoError(t, err)
	require.Equal(t, 1, search.TotalCount)
	assert.Equal(t, "VPN down", search.Items[0].Title)
}

func TestCreateTicket_OverlongDescriptionRejected(t *testing.T) {
	f := newTicketFixture(t)

	_, err := f.svc.CreateTicket(context.Background(), f.customer, dto.CreateTicketRequest{
		Title:       "Login Issue",
		Description: strings.Repeat("x", 2001),
		Priority:    domain.TicketPriorityLow,
	})
	require.Error(t, err)
	derr := util.ToDomainError(err)
	assert.Equal(t, "VALIDATION_FAILED", derr.Code)
	assert.Contains(t, derr.Details, "description")
	assert.Empty(t, f.notifier.recorded())
}

func TestAddComment_OverlongContentRejected(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	resp, err := f.svc.CreateTicket(ctx, f.customer, dto.CreateTicketRequest{
		Title:       "Login Issue",
		Description: "Cannot sign in",
		Priority:    domain.TicketPriorityLow,
	})
	require.NoError(t, err)
	f.notifier.reset()

	_, err = f.svc.AddComment(ctx, f.agent, resp.ID, dto.CreateTicketCommentRequest{
		Content: strings.Repeat("x", 2001),
	})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", util.ToDomainError(err).Code)
	assert.Empty(t, f.notifier.recorded())
}

func TestUpdateTicket_InvalidStoredStatusReported(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	resp, err := f.svc.CreateTicket(ctx, f.customer, dto.CreateTicketRequest{
		Title:       "Login Issue",
		Description: "Cannot sign in",
		Priority:    domain.TicketPriorityLow,
	})
	require.NoError(t, err)

	stored, err := f.tickets.GetByID(ctx, resp.ID)
	require.NoError(t, err)
	stored.Status = domain.TicketStatus(99)
	require.NoError(t, f.tickets.Update(ctx, stored))

	title := "still broken"
	_, err = f.svc.UpdateTicket(ctx, resp.ID, dto.UpdateTicketRequest{Title: &title})
	require.Error(t, err)
	derr := util.ToDomainError(err)
	assert.Equal(t, "VALIDATION_FAILED", derr.Code)
	assert.Equal(t, 99, derr.Details["status"])
}
