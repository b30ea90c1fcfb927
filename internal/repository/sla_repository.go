package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/supportdesk/ticket-dashboard/internal/domain"
)

// SlaRepository persists SLA definitions and recorded violations.
type SlaRepository interface {
	Create(ctx context.Context, sla *domain.SLA) error
	Update(ctx context.Context, sla *domain.SLA) error
	GetByID(ctx context.Context, id int64) (*domain.SLA, error)
	Delete(ctx context.Context, id int64) error
	ListActive(ctx context.Context) ([]domain.SLA, error)

	CreateViolation(ctx context.Context, v *domain.SlaViolation) error
	ListViolations(ctx context.Context, ticketID *int64, includeResolved bool) ([]domain.SlaViolation, error)
	HasViolation(ctx context.Context, ticketID int64, vt domain.SlaViolationType) (bool, error)
}

type slaRepository struct {
	pool *pgxpool.Pool
}

// NewSlaRepository returns a Postgres-backed implementation.
func NewSlaRepository(pool *pgxpool.Pool) SlaRepository {
	return &slaRepository{pool: pool}
}

const slaColumns = `id, name, description, priority, response_time_minutes,
       resolution_time_minutes, is_active, created_at, updated_at`

func (r *slaRepository) Create(ctx context.Context, sla *domain.SLA) error {
	const q = `
        INSERT INTO slas (name, description, priority, response_time_minutes, resolution_time_minutes, is_active)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q,
		sla.Name,
		sla.Description,
		sla.Priority,
		sla.ResponseTimeMinutes,
		sla.ResolutionTimeMinutes,
		sla.IsActive,
	).Scan(&sla.ID, &sla.CreatedAt, &sla.UpdatedAt)
}

func (r *slaRepository) Update(ctx context.Context, sla *domain.SLA) error {
	const q = `
        UPDATE slas SET name=$1, description=$2, priority=$3, response_time_minutes=$4,
            resolution_time_minutes=$5, is_active=$6, updated_at=NOW()
        WHERE id=$7`
	cmd, err := r.pool.Exec(ctx, q,
		sla.Name,
		sla.Description,
		sla.Priority,
		sla.ResponseTimeMinutes,
		sla.ResolutionTimeMinutes,
		sla.IsActive,
		sla.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *slaRepository) GetByID(ctx context.Context, id int64) (*domain.SLA, error) {
	return scanSla(r.pool.QueryRow(ctx, `SELECT `+slaColumns+` FROM slas WHERE id=$1`, id))
}

func (r *slaRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM slas WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *slaRepository) ListActive(ctx context.Context) ([]domain.SLA, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+slaColumns+` FROM slas WHERE is_active=TRUE ORDER BY priority`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	slas := []domain.SLA{}
	for rows.Next() {
		sla, err := scanSla(rows)
		if err != nil {
			return nil, err
		}
		slas = append(slas, *sla)
	}
	return slas, rows.Err()
}

func (r *slaRepository) CreateViolation(ctx context.Context, v *domain.SlaViolation) error {
	const q = `
        INSERT INTO sla_violations (ticket_id, sla_id, violation_type, violation_time, actual_minutes, expected_minutes, is_resolved, notes)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q,
		v.TicketID,
		v.SlaID,
		v.ViolationType,
		v.ViolationTime,
		v.ActualMinutes,
		v.ExpectedMinutes,
		v.IsResolved,
		v.Notes,
	).Scan(&v.ID, &v.CreatedAt)
}

func (r *slaRepository) ListViolations(ctx context.Context, ticketID *int64, includeResolved bool) ([]domain.SlaViolation, error) {
	q := `SELECT id, ticket_id, sla_id, violation_type, violation_time, actual_minutes,
                 expected_minutes, is_resolved, notes, created_at
          FROM sla_violations WHERE 1=1`
	args := []any{}
	if ticketID != nil {
		args = append(args, *ticketID)
		q += ` AND ticket_id=$1`
	}
	if !includeResolved {
		q += ` AND is_resolved=FALSE`
	}
	q += ` ORDER BY violation_time DESC`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	violations := []domain.SlaViolation{}
	for rows.Next() {
		var v domain.SlaViolation
		if err := rows.Scan(
			&v.ID,
			&v.TicketID,
			&v.SlaID,
			&v.ViolationType,
			&v.ViolationTime,
			&v.ActualMinutes,
			&v.ExpectedMinutes,
			&v.IsResolved,
			&v.Notes,
			&v.CreatedAt,
		); err != nil {
			return nil, err
		}
		violations = append(violations, v)
	}
	return violations, rows.Err()
}

func (r *slaRepository) HasViolation(ctx context.Context, ticketID int64, vt domain.SlaViolationType) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM sla_violations WHERE ticket_id=$1 AND violation_type=$2)`,
		ticketID, vt,
	).Scan(&exists)
	return exists, err
}

func scanSla(row pgx.Row) (*domain.SLA, error) {
	var sla domain.SLA
	if err := row.Scan(
		&sla.ID,
		&sla.Name,
		&sla.Description,
		&sla.Priority,
		&sla.ResponseTimeMinutes,
		&sla.ResolutionTimeMinutes,
		&sla.IsActive,
		&sla.CreatedAt,
		&sla.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &sla, nil
}
