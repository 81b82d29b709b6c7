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

// AddMessage implements ports.ChatStore
func (r *SQLiteRepository) AddMessage(ctx context.Context, m core.ChatMessage) (core.ChatMessage, error) {
	if err := m.Validate(); err != nil {
		return core.ChatMessage{}, fmt.Errorf("validate chat message: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `INSERT INTO chat_messages (text, is_user, timestamp_ms, type, metadata)
		VALUES (?, ?, ?, ?, ?)`,
		m.Text, boolInt(m.IsUser), toMillis(m.Timestamp), string(m.Type), nullString(m.Metadata))
	if err != nil {
		return core.ChatMessage{}, fmt.Errorf("add chat message: %w", err)
	}
	if m.ID, err = res.LastInsertId(); err != nil {
		return core.ChatMessage{}, fmt.Errorf("add chat message: %w", err)
	}
	r.hub.Publish(events.EntityChat, events.OpCreated, m.ID)
	return m, nil
}

// ListMessages implements ports.ChatStore
func (r *SQLiteRepository) ListMessages(ctx context.Context) ([]core.ChatMessage, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, text, is_user, timestamp_ms, type, metadata
		FROM chat_messages ORDER BY timestamp_ms ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	defer rows.Close()

	var out []core.ChatMessage
	for rows.Next() {
		var (
			m      core.ChatMessage
			isUser int
			tsMs   int64
			typ    string
			meta   sql.NullString
		)
		if err := rows.Scan(&m.ID, &m.Text, &isUser, &tsMs, &typ, &meta); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		m.IsUser = isUser == 1
		m.Timestamp = fromMillis(tsMs)
		m.Type = core.MessageType(typ)
		m.Metadata = meta.String
		out = append(out, m)
	}
	return out, rows.Err()
}

// CountMessages implements ports.ChatStore
func (r *SQLiteRepository) CountMessages(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chat_messages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count chat messages: %w", err)
	}
	return n, nil
}

// DeleteMessagesBefore implements ports.ChatStore
func (r *SQLiteRepository) DeleteMessagesBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM chat_messages WHERE timestamp_ms < ?`, toMillis(cutoff))
	if err != nil {
		return 0, fmt.Errorf("delete old chat messages: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		slog.InfoContext(ctx, "Pruned chat history", "deleted", n, "cutoff", cutoff.Format(time.RFC3339))
		r.hub.Publish(events.EntityChat, events.OpDeleted, 0)
	}
	return int(n), nil
}

// DeleteAllMessages implements ports.ChatStore
func (r *SQLiteRepository) DeleteAllMessages(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM chat_messages`); err != nil {
		return fmt.Errorf("delete all chat messages: %w", err)
	}
	r.hub.Publish(events.EntityChat, events.OpDeleted, 0)
	return nil
}
