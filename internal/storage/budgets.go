package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/events"
)

// UpsertBudget implements ports.BudgetStore.
//
// The UNIQUE(month, year) constraint makes the insert-or-update a single
// atomic statement; concurrent identical requests cannot produce two rows.
func (r *SQLiteRepository) UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, fmt.Errorf("validate budget: %w", err)
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}

	var createdMs int64
	err := r.db.QueryRowContext(ctx, `INSERT INTO budgets (amount_cents, month, year, description, created_at_ms)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (month, year) DO UPDATE SET
			amount_cents = excluded.amount_cents,
			description = excluded.description
		RETURNING id, created_at_ms`,
		b.Amount.Cents, b.Month, b.Year, nullString(b.Description), toMillis(b.CreatedAt)).Scan(&b.ID, &createdMs)
	if err != nil {
		return core.Budget{}, fmt.Errorf("upsert budget: %w", err)
	}
	b.CreatedAt = fromMillis(createdMs)

	slog.InfoContext(ctx, "Budget saved to SQLite",
		"id", b.ID,
		"month", b.Month,
		"year", b.Year,
		"amount_cents", b.Amount.Cents)

	r.hub.Publish(events.EntityBudget, events.OpUpdated, b.ID)
	return b, nil
}

func scanBudget(s rowScanner) (core.Budget, error) {
	var (
		b         core.Budget
		desc      sql.NullString
		createdMs int64
	)
	if err := s.Scan(&b.ID, &b.Amount.Cents, &b.Month, &b.Year, &desc, &createdMs); err != nil {
		return core.Budget{}, err
	}
	b.Description = desc.String
	b.CreatedAt = fromMillis(createdMs)
	return b, nil
}

// GetBudget implements ports.BudgetStore
func (r *SQLiteRepository) GetBudget(ctx context.Context, month, year int) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, amount_cents, month, year, description, created_at_ms
		FROM budgets WHERE month = ? AND year = ?`, month, year)
	b, err := scanBudget(row)
	if err != nil {
		return core.Budget{}, notFound(err, "get budget")
	}
	return b, nil
}

// ListBudgets implements ports.BudgetStore
func (r *SQLiteRepository) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, amount_cents, month, year, description, created_at_ms
		FROM budgets ORDER BY year DESC, month DESC`)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// DeleteBudget implements ports.BudgetStore
func (r *SQLiteRepository) DeleteBudget(ctx context.Context, month, year int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE month = ? AND year = ?`, month, year)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete budget %d/%d: %w", month, year, core.ErrNotFound)
	}
	r.hub.Publish(events.EntityBudget, events.OpDeleted, 0)
	return nil
}
