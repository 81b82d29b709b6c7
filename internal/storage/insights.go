package storage

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/events"
)

// CreateInsight implements ports.InsightStore
func (r *SQLiteRepository) CreateInsight(ctx context.Context, i core.FinancialInsight) (core.FinancialInsight, error) {
	if err := i.Validate(); err != nil {
		return core.FinancialInsight{}, fmt.Errorf("validate insight: %w", err)
	}
	if i.GeneratedAt.IsZero() {
		i.GeneratedAt = time.Now()
	}
	if i.RelevantData == "" {
		i.RelevantData = "{}"
	}
	res, err := r.db.ExecContext(ctx, `INSERT INTO financial_insights
		(title, description, insight_type, relevant_data, generated_at_ms, is_read, action_taken, priority, ai_confidence)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		i.Title, i.Description, string(i.Type), i.RelevantData, toMillis(i.GeneratedAt),
		boolInt(i.Read), boolInt(i.ActionTaken), string(i.Priority), i.Confidence)
	if err != nil {
		return core.FinancialInsight{}, fmt.Errorf("create insight: %w", err)
	}
	if i.ID, err = res.LastInsertId(); err != nil {
		return core.FinancialInsight{}, fmt.Errorf("create insight: %w", err)
	}
	r.hub.Publish(events.EntityInsight, events.OpCreated, i.ID)
	return i, nil
}

// ListInsights implements ports.InsightStore
func (r *SQLiteRepository) ListInsights(ctx context.Context, unreadOnly bool) ([]core.FinancialInsight, error) {
	query := `SELECT id, title, description, insight_type, relevant_data, generated_at_ms,
		is_read, action_taken, priority, ai_confidence FROM financial_insights`
	if unreadOnly {
		query += ` WHERE is_read = 0`
	}
	query += ` ORDER BY generated_at_ms DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list insights: %w", err)
	}
	defer rows.Close()

	var out []core.FinancialInsight
	for rows.Next() {
		var (
			i                 core.FinancialInsight
			typ, prio         string
			genMs             int64
			isRead, actionTkn int
		)
		if err := rows.Scan(&i.ID, &i.Title, &i.Description, &typ, &i.RelevantData, &genMs,
			&isRead, &actionTkn, &prio, &i.Confidence); err != nil {
			return nil, fmt.Errorf("scan insight: %w", err)
		}
		i.Type = core.InsightType(typ)
		i.Priority = core.InsightPriority(prio)
		i.GeneratedAt = fromMillis(genMs)
		i.Read = isRead == 1
		i.ActionTaken = actionTkn == 1
		out = append(out, i)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) setInsightFlag(ctx context.Context, column string, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE financial_insights SET `+column+` = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("update insight %s: %w", column, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update insight %d: %w", id, core.ErrNotFound)
	}
	r.hub.Publish(events.EntityInsight, events.OpUpdated, id)
	return nil
}

// MarkInsightRead implements ports.InsightStore
func (r *SQLiteRepository) MarkInsightRead(ctx context.Context, id int64) error {
	return r.setInsightFlag(ctx, "is_read", id)
}

// MarkInsightActionTaken implements ports.InsightStore
func (r *SQLiteRepository) MarkInsightActionTaken(ctx context.Context, id int64) error {
	return r.setInsightFlag(ctx, "action_taken", id)
}

// DeleteInsightsBefore implements ports.InsightStore
func (r *SQLiteRepository) DeleteInsightsBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM financial_insights WHERE generated_at_ms < ?`, toMillis(cutoff))
	if err != nil {
		return 0, fmt.Errorf("delete old insights: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		r.hub.Publish(events.EntityInsight, events.OpDeleted, 0)
	}
	return int(n), nil
}
