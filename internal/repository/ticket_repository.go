package repository

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/supportdesk/ticket-dashboard/internal/domain"
	"github.com/supportdesk/ticket-dashboard/internal/query"
)

// TicketRepository encapsulates ticket and comment persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	Delete(ctx context.Context, id int64) error
	// ListWithFilter returns the page of tickets selected by the plan plus
	// the total count of tickets matching the plan's filters (computed
	// before pagination).
	ListWithFilter(ctx context.Context, plan query.Plan) ([]domain.Ticket, int, error)
	// ListOpenWithSla returns unresolved tickets that carry an SLA link,
	// used by the violation sweep.
	ListOpenWithSla(ctx context.Context) ([]domain.Ticket, error)
	CountAssignedTo(ctx context.Context, userID int64) (int, error)

	AddComment(ctx context.Context, comment *domain.TicketComment) error
	ListComments(ctx context.Context, ticketID int64) ([]domain.TicketComment, error)
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository returns a Postgres-backed implementation.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `t.id, t.title, t.description, t.status, t.priority,
       t.created_by_id, t.assigned_to_id, t.customer_email, t.sla_id, t.tags,
       t.created_at, t.updated_at, t.closed_at, t.first_response_at,
       c.first_name || ' ' || c.last_name,
       a.first_name || ' ' || a.last_name`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const q = `
        INSERT INTO tickets (title, description, status, priority, created_by_id, assigned_to_id, customer_email, sla_id, tags)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.CreatedByID,
		ticket.AssignedToID,
		ticket.CustomerEmail,
		ticket.SlaID,
		ticket.Tags,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const q = `
        UPDATE tickets SET title=$1, description=$2, status=$3, priority=$4,
            assigned_to_id=$5, customer_email=$6, sla_id=$7, tags=$8,
            closed_at=$9, first_response_at=$10, updated_at=NOW()
        WHERE id=$11
        RETURNING updated_at`
	err := r.pool.QueryRow(ctx, q,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.AssignedToID,
		ticket.CustomerEmail,
		ticket.SlaID,
		ticket.Tags,
		ticket.ClosedAt,
		ticket.FirstResponseAt,
		ticket.ID,
	).Scan(&ticket.UpdatedAt)
	return err
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	q := `SELECT ` + ticketColumns + `
        FROM tickets t
        JOIN users c ON c.id = t.created_by_id
        LEFT JOIN users a ON a.id = t.assigned_to_id
        WHERE t.id=$1`
	row := r.pool.QueryRow(ctx, q, id)
	ticket, err := scanTicket(row)
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

func (r *ticketRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// escapeLike neutralizes LIKE metacharacters so the search term matches as
// a plain substring, the same containment the in-memory store applies.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, plan query.Plan) ([]domain.Ticket, int, error) {
	base := psql.Select().
		From("tickets t").
		Join("users c ON c.id = t.created_by_id").
		LeftJoin("users a ON a.id = t.assigned_to_id")

	if plan.Status != nil {
		base = base.Where(sq.Eq{"t.status": *plan.Status})
	}
	if plan.Priority != nil {
		base = base.Where(sq.Eq{"t.priority": *plan.Priority})
	}
	if plan.AssignedToID != nil {
		base = base.Where(sq.Eq{"t.assigned_to_id": *plan.AssignedToID})
	}
	if plan.Search != "" {
		pattern := "%" + escapeLike(plan.Search) + "%"
		base = base.Where(sq.Or{
			sq.ILike{"t.title": pattern},
			sq.ILike{"t.description": pattern},
			sq.ILike{"c.first_name": pattern},
			sq.ILike{"c.last_name": pattern},
		})
	}

	countSQL, countArgs, err := base.Columns("COUNT(*)").ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listSQL, listArgs, err := base.Columns(ticketColumns).
		OrderBy(orderClause(plan)).
		Offset(uint64(plan.Offset)).
		Limit(uint64(plan.PageSize)).
		ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	tickets := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, 0, err
		}
		tickets = append(tickets, *ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return tickets, total, nil
}

func (r *ticketRepository) ListOpenWithSla(ctx context.Context) ([]domain.Ticket, error) {
	q := `SELECT ` + ticketColumns + `
        FROM tickets t
        JOIN users c ON c.id = t.created_by_id
        LEFT JOIN users a ON a.id = t.assigned_to_id
        WHERE t.sla_id IS NOT NULL AND t.status IN ($1,$2)
        ORDER BY t.created_at ASC`
	rows, err := r.pool.Query(ctx, q, domain.TicketStatusOpen, domain.TicketStatusInProgress)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *ticket)
	}
	return tickets, rows.Err()
}

func (r *ticketRepository) CountAssignedTo(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tickets WHERE assigned_to_id=$1`, userID).Scan(&count)
	return count, err
}

func (r *ticketRepository) AddComment(ctx context.Context, comment *domain.TicketComment) error {
	const q = `
        INSERT INTO ticket_comments (ticket_id, author_id, content, is_internal)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	if err := r.pool.QueryRow(ctx, q,
		comment.TicketID,
		comment.AuthorID,
		comment.Content,
		comment.IsInternal,
	).Scan(&comment.ID, &comment.CreatedAt); err != nil {
		return err
	}
	return r.pool.QueryRow(ctx,
		`SELECT first_name || ' ' || last_name FROM users WHERE id=$1`,
		comment.AuthorID,
	).Scan(&comment.AuthorName)
}

func (r *ticketRepository) ListComments(ctx context.Context, ticketID int64) ([]domain.TicketComment, error) {
	const q = `
        SELECT cm.id, cm.ticket_id, cm.author_id, cm.content, cm.is_internal, cm.created_at,
               u.first_name || ' ' || u.last_name
        FROM ticket_comments cm
        JOIN users u ON u.id = cm.author_id
        WHERE cm.ticket_id=$1
        ORDER BY cm.created_at ASC`
	rows, err := r.pool.Query(ctx, q, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []domain.TicketComment{}
	for rows.Next() {
		var c domain.TicketComment
		if err := rows.Scan(
			&c.ID,
			&c.TicketID,
			&c.AuthorID,
			&c.Content,
			&c.IsInternal,
			&c.CreatedAt,
			&c.AuthorName,
		); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func orderClause(plan query.Plan) string {
	var column string
	switch plan.SortKey {
	case query.SortByTitle:
		column = "t.title"
	case query.SortByPriority:
		column = "t.priority"
	case query.SortByStatus:
		column = "t.status"
	default:
		column = "t.created_at"
	}
	if plan.Descending {
		return column + " DESC"
	}
	return column + " ASC"
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.CreatedByID,
		&ticket.AssignedToID,
		&ticket.CustomerEmail,
		&ticket.SlaID,
		&ticket.Tags,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ClosedAt,
		&ticket.FirstResponseAt,
		&ticket.CreatedByName,
		&ticket.AssignedToName,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}
