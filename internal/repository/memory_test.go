package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supportdesk/ticket-dashboard/internal/domain"
	"github.com/supportdesk/ticket-dashboard/internal/query"
)

func seedStores(t *testing.T) (*MemoryUserStore, *MemoryTicketStore) {
	t.Helper()
	ctx := context.Background()

	users := NewMemoryUserStore()
	tickets := NewMemoryTicketStore(users)

	alice := &domain.User{Username: "alice", Email: "alice@example.com", FirstName: "Alice", LastName: "Smith", Role: domain.RoleCustomer, IsActive: true}
	bob := &domain.User{Username: "bob", Email: "bob@example.com", FirstName: "Bob", LastName: "Jones", Role: domain.RoleAgent, IsActive: true}
	require.NoError(t, users.Create(ctx, alice))
	require.NoError(t, users.Create(ctx, bob))

	seed := []domain.Ticket{
		{Title: "Login Issue", Description: "cannot sign in", Status: domain.TicketStatusOpen, Priority: domain.TicketPriorityHigh, CreatedByID: alice.ID},
		{Title: "Printer jam", Description: "paper stuck", Status: domain.TicketStatusClosed, Priority: domain.TicketPriorityLow, CreatedByID: alice.ID, AssignedToID: &bob.ID},
		{Title: "VPN down", Description: "tunnel drops", Status: domain.TicketStatusInProgress, Priority: domain.TicketPriorityCritical, CreatedByID: bob.ID},
	}
	for i := range seed {
		require.NoError(t, tickets.Create(ctx, &seed[i]))
	}
	return users, tickets
}

func TestListWithFilter_OpenStatusScenario(t *testing.T) {
	t.Parallel()
	_, tickets := seedStores(t)

	open := domain.TicketStatusOpen
	plan := query.TicketFilter{Status: &open, Page: 1, PageSize: 10}.Normalize()

	items, total, err := tickets.ListWithFilter(context.Background(), plan)
	require.NoError(t, err)

	result := domain.NewPagedResult(items, total, plan.Page, plan.PageSize)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "Login Issue", result.Items[0].Title)
	assert.Equal(t, 1, result.TotalCount)
	assert.Equal(t, 1, result.Page)
	assert.Equal(t, 10, result.PageSize)
	assert.Equal(t, 1, result.TotalPages)
}

func TestListWithFilter_SearchIsCaseInsensitive(t *testing.T) {
	t.Parallel()
	_, tickets := seedStores(t)

	items, total, err := tickets.ListWithFilter(context.Background(),
		query.TicketFilter{Search: "login"}.Normalize())
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, "Login Issue", items[0].Title)
}

func TestListWithFilter_SearchMatchesCreatorNames(t *testing.T) {
	t.Parallel()
	_, tickets := seedStores(t)
	ctx := context.Background()

	// "smith" matches only Alice's tickets, through the creator's last name.
	items, total, err := tickets.ListWithFilter(ctx, query.TicketFilter{Search: "smith"}.Normalize())
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	for _, ticket := range items {
		assert.Equal(t, "Alice Smith", ticket.CreatedByName)
	}

	// Assignee names are not searched.
	_, total, err = tickets.ListWithFilter(ctx, query.TicketFilter{Search: "jones"}.Normalize())
	require.NoError(t, err)
	assert.Equal(t, 1, total, "only Bob's own ticket matches, not tickets assigned to him")
}

func TestListWithFilter_TotalCountInvariantUnderPaging(t *testing.T) {
	t.Parallel()
	_, tickets := seedStores(t)
	ctx := context.Background()

	var want int
	for page := 1; page <= 3; page++ {
		for _, size := range []int{1, 2, 10} {
			_, total, err := tickets.ListWithFilter(ctx, query.TicketFilter{Page: page, PageSize: size}.Normalize())
			require.NoError(t, err)
			if want == 0 {
				want = total
			}
			assert.Equal(t, want, total, "page=%d size=%d", page, size)
		}
	}
	assert.Equal(t, 3, want)
}

func TestListWithFilter_DefaultOrderIsNewestFirst(t *testing.T) {
	t.Parallel()
	_, tickets := seedStores(t)

	items, _, err := tickets.ListWithFilter(context.Background(), query.TicketFilter{}.Normalize())
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "VPN down", items[0].Title)
	assert.Equal(t, "Login Issue", items[2].Title)
}

func TestListWithFilter_AssigneeFilter(t *testing.T) {
	t.Parallel()
	users, tickets := seedStores(t)
	ctx := context.Background()

	bob, err := users.GetByUsername(ctx, "bob")
	require.NoError(t, err)

	items, total, err := tickets.ListWithFilter(ctx, query.TicketFilter{AssignedToID: &bob.ID}.Normalize())
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, "Printer jam", items[0].Title)
	require.NotNil(t, items[0].AssignedToName)
	assert.Equal(t, "Bob Jones", *items[0].AssignedToName)
}

func TestDelete_RemovesTicketAndComments(t *testing.T) {
	t.Parallel()
	users, tickets := seedStores(t)
	ctx := context.Background()

	alice, err := users.GetByUsername(ctx, "alice")
	require.NoError(t, err)

	comment := &domain.TicketComment{TicketID: 1, AuthorID: alice.ID, Content: "any update?"}
	require.NoError(t, tickets.AddComment(ctx, comment))
	assert.Equal(t, "Alice Smith", comment.AuthorName)

	require.NoError(t, tickets.Delete(ctx, 1))

	_, err = tickets.GetByID(ctx, 1)
	assert.Error(t, err)

	comments, err := tickets.ListComments(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestMemoryUserStore_InactiveKeepsUsernameClaim(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	users := NewMemoryUserStore()

	ghost := &domain.User{Username: "ghost", Email: "ghost@example.com", Role: domain.RoleCustomer, IsActive: true}
	require.NoError(t, users.Create(ctx, ghost))

	ghost.IsActive = false
	require.NoError(t, users.Update(ctx, ghost))

	found, err := users.GetByUsername(ctx, "ghost")
	require.NoError(t, err, "inactive users must still be found by username")
	assert.False(t, found.IsActive)
}

func TestEscapeLike_TreatsMetacharactersLiterally(t *testing.T) {
	assert.Equal(t, `100\% cpu`, escapeLike("100% cpu"))
	assert.Equal(t, `under\_score`, escapeLike("under_score"))
	assert.Equal(t, `back\\slash`, escapeLike(`back\slash`))
	assert.Equal(t, "plain", escapeLike("plain"))
}
