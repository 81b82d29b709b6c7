package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/events"
)

const goalColumns = `id, title, target_cents, current_cents, target_date_ms, created_at_ms,
	category, is_completed, description, priority`

func scanGoal(s rowScanner) (core.SavingsGoal, error) {
	var (
		g            core.SavingsGoal
		targetDateMs sql.NullInt64
		createdMs    int64
		completed    int
	)
	if err := s.Scan(&g.ID, &g.Title, &g.Target.Cents, &g.Current.Cents, &targetDateMs, &createdMs,
		&g.Category, &completed, &g.Description, &g.Priority); err != nil {
		return core.SavingsGoal{}, err
	}
	if targetDateMs.Valid {
		g.TargetDate = fromMillis(targetDateMs.Int64)
	}
	g.CreatedAt = fromMillis(createdMs)
	g.Completed = completed == 1
	return g, nil
}

// CreateGoal implements ports.GoalStore
func (r *SQLiteRepository) CreateGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, fmt.Errorf("validate savings goal: %w", err)
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now()
	}
	res, err := r.db.ExecContext(ctx, `INSERT INTO savings_goals
		(title, target_cents, current_cents, target_date_ms, created_at_ms, category, is_completed, description, priority)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.Title, g.Target.Cents, g.Current.Cents, nullMillis(g.TargetDate), toMillis(g.CreatedAt),
		g.Category, boolInt(g.Completed), g.Description, g.Priority)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("create savings goal: %w", err)
	}
	if g.ID, err = res.LastInsertId(); err != nil {
		return core.SavingsGoal{}, fmt.Errorf("create savings goal: %w", err)
	}
	r.hub.Publish(events.EntityGoal, events.OpCreated, g.ID)
	return g, nil
}

// UpdateGoal implements ports.GoalStore
func (r *SQLiteRepository) UpdateGoal(ctx context.Context, g core.SavingsGoal) error {
	if err := g.Validate(); err != nil {
		return fmt.Errorf("validate savings goal: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `UPDATE savings_goals SET
		title = ?, target_cents = ?, current_cents = ?, target_date_ms = ?, category = ?,
		is_completed = ?, description = ?, priority = ?
		WHERE id = ?`,
		g.Title, g.Target.Cents, g.Current.Cents, nullMillis(g.TargetDate), g.Category,
		boolInt(g.Completed), g.Description, g.Priority, g.ID)
	if err != nil {
		return fmt.Errorf("update savings goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update savings goal %d: %w", g.ID, core.ErrNotFound)
	}
	r.hub.Publish(events.EntityGoal, events.OpUpdated, g.ID)
	return nil
}

// GetGoal implements ports.GoalStore
func (r *SQLiteRepository) GetGoal(ctx context.Context, id int64) (core.SavingsGoal, error) {
	g, err := scanGoal(r.db.QueryRowContext(ctx, `SELECT `+goalColumns+` FROM savings_goals WHERE id = ?`, id))
	if err != nil {
		return core.SavingsGoal{}, notFound(err, "get savings goal")
	}
	return g, nil
}

// ListGoals implements ports.GoalStore
func (r *SQLiteRepository) ListGoals(ctx context.Context) ([]core.SavingsGoal, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+goalColumns+` FROM savings_goals
		ORDER BY is_completed ASC, priority ASC, created_at_ms DESC`)
	if err != nil {
		return nil, fmt.Errorf("list savings goals: %w", err)
	}
	defer rows.Close()

	var out []core.SavingsGoal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan savings goal: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// DeleteGoal implements ports.GoalStore
func (r *SQLiteRepository) DeleteGoal(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM savings_goals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete savings goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete savings goal %d: %w", id, core.ErrNotFound)
	}
	r.hub.Publish(events.EntityGoal, events.OpDeleted, id)
	return nil
}
