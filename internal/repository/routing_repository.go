package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/supportdesk/ticket-dashboard/internal/domain"
)

// RoutingRuleRepository persists routing rules. Conditions are stored as a
// JSON document in a single column.
type RoutingRuleRepository interface {
	Create(ctx context.Context, rule *domain.RoutingRule) error
	Update(ctx context.Context, rule *domain.RoutingRule) error
	GetByID(ctx context.Context, id int64) (*domain.RoutingRule, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]domain.RoutingRule, error)
	ListActive(ctx context.Context) ([]domain.RoutingRule, error)
}

type routingRuleRepository struct {
	pool *pgxpool.Pool
}

// NewRoutingRuleRepository returns a Postgres-backed implementation.
func NewRoutingRuleRepository(pool *pgxpool.Pool) RoutingRuleRepository {
	return &routingRuleRepository{pool: pool}
}

const ruleColumns = `id, name, description, priority, is_active, conditions,
       assign_to_user_id, add_tags, set_priority, created_at, updated_at`

func (r *routingRuleRepository) Create(ctx context.Context, rule *domain.RoutingRule) error {
	conditions, err := json.Marshal(rule.Conditions)
	if err != nil {
		return err
	}
	const q = `
        INSERT INTO routing_rules (name, description, priority, is_active, conditions, assign_to_user_id, add_tags, set_priority)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q,
		rule.Name,
		rule.Description,
		rule.Priority,
		rule.IsActive,
		conditions,
		rule.AssignToUserID,
		rule.AddTags,
		rule.SetPriority,
	).Scan(&rule.ID, &rule.CreatedAt, &rule.UpdatedAt)
}

func (r *routingRuleRepository) Update(ctx context.Context, rule *domain.RoutingRule) error {
	conditions, err := json.Marshal(rule.Conditions)
	if err != nil {
		return err
	}
	const q = `
        UPDATE routing_rules SET name=$1, description=$2, priority=$3, is_active=$4,
            conditions=$5, assign_to_user_id=$6, add_tags=$7, set_priority=$8, updated_at=NOW()
        WHERE id=$9`
	cmd, err := r.pool.Exec(ctx, q,
		rule.Name,
		rule.Description,
		rule.Priority,
		rule.IsActive,
		conditions,
		rule.AssignToUserID,
		rule.AddTags,
		rule.SetPriority,
		rule.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *routingRuleRepository) GetByID(ctx context.Context, id int64) (*domain.RoutingRule, error) {
	return scanRule(r.pool.QueryRow(ctx, `SELECT `+ruleColumns+` FROM routing_rules WHERE id=$1`, id))
}

func (r *routingRuleRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM routing_rules WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *routingRuleRepository) List(ctx context.Context) ([]domain.RoutingRule, error) {
	return r.list(ctx, `SELECT `+ruleColumns+` FROM routing_rules ORDER BY priority`)
}

func (r *routingRuleRepository) ListActive(ctx context.Context) ([]domain.RoutingRule, error) {
	return r.list(ctx, `SELECT `+ruleColumns+` FROM routing_rules WHERE is_active=TRUE ORDER BY priority`)
}

func (r *routingRuleRepository) list(ctx context.Context, q string) ([]domain.RoutingRule, error) {
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rules := []domain.RoutingRule{}
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, *rule)
	}
	return rules, rows.Err()
}

func scanRule(row pgx.Row) (*domain.RoutingRule, error) {
	var rule domain.RoutingRule
	var conditions []byte
	if err := row.Scan(
		&rule.ID,
		&rule.Name,
		&rule.Description,
		&rule.Priority,
		&rule.IsActive,
		&conditions,
		&rule.AssignToUserID,
		&rule.AddTags,
		&rule.SetPriority,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(conditions) > 0 {
		if err := json.Unmarshal(conditions, &rule.Conditions); err != nil {
			return nil, err
		}
	}
	return &rule, nil
}
