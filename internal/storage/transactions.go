package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/events"
)

const transactionColumns = `id, unique_id, amount_cents, category, description, date_ms, is_income,
	original_amount_cents, original_currency, exchange_rate, last_rate_update_ms`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s rowScanner) (core.Transaction, error) {
	var (
		tx           core.Transaction
		dateMs       int64
		isIncome     int
		origCents    sql.NullInt64
		origCurrency sql.NullString
		rate         sql.NullFloat64
		rateUpdateMs sql.NullInt64
	)
	if err := s.Scan(&tx.ID, &tx.UniqueID, &tx.Amount.Cents, &tx.Category, &tx.Description,
		&dateMs, &isIncome, &origCents, &origCurrency, &rate, &rateUpdateMs); err != nil {
		return core.Transaction{}, err
	}
	tx.Date = fromMillis(dateMs)
	tx.IsIncome = isIncome == 1
	if origCents.Valid && origCurrency.Valid {
		tx.Original = &core.OriginalCurrency{
			Amount:   core.Money{Cents: origCents.Int64},
			Currency: origCurrency.String,
			Rate:     rate.Float64,
		}
		if rateUpdateMs.Valid {
			tx.Original.UpdatedAt = fromMillis(rateUpdateMs.Int64)
		}
	}
	return tx, nil
}

func originalArgs(o *core.OriginalCurrency) (sql.NullInt64, sql.NullString, sql.NullFloat64, sql.NullInt64) {
	if o == nil {
		return sql.NullInt64{}, sql.NullString{}, sql.NullFloat64{}, sql.NullInt64{}
	}
	return sql.NullInt64{Int64: o.Amount.Cents, Valid: true},
		sql.NullString{String: o.Currency, Valid: true},
		sql.NullFloat64{Float64: o.Rate, Valid: true},
		nullMillis(o.UpdatedAt)
}

func (r *SQLiteRepository) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// CreateTransaction implements ports.TransactionStore
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("validate transaction: %w", err)
	}
	origCents, origCurrency, rate, rateUpdate := originalArgs(tx.Original)

	res, err := r.db.ExecContext(ctx, `INSERT INTO transactions
		(unique_id, amount_cents, category, description, date_ms, is_income,
		 original_amount_cents, original_currency, exchange_rate, last_rate_update_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.UniqueID, tx.Amount.Cents, tx.Category, tx.Description, toMillis(tx.Date), boolInt(tx.IsIncome),
		origCents, origCurrency, rate, rateUpdate)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	tx.ID = id

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", tx.ID,
		"unique_id", tx.UniqueID,
		"amount_cents", tx.Amount.Cents,
		"category", tx.Category,
		"is_income", tx.IsIncome)

	r.hub.Publish(events.EntityTransaction, events.OpCreated, id)
	return tx, nil
}

// UpdateTransaction implements ports.TransactionStore
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return fmt.Errorf("validate transaction: %w", err)
	}
	origCents, origCurrency, rate, rateUpdate := originalArgs(tx.Original)

	res, err := r.db.ExecContext(ctx, `UPDATE transactions SET
		unique_id = ?, amount_cents = ?, category = ?, description = ?, date_ms = ?, is_income = ?,
		original_amount_cents = ?, original_currency = ?, exchange_rate = ?, last_rate_update_ms = ?
		WHERE id = ?`,
		tx.UniqueID, tx.Amount.Cents, tx.Category, tx.Description, toMillis(tx.Date), boolInt(tx.IsIncome),
		origCents, origCurrency, rate, rateUpdate, tx.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update transaction %d: %w", tx.ID, core.ErrNotFound)
	}

	r.hub.Publish(events.EntityTransaction, events.OpUpdated, tx.ID)
	return nil
}

// GetTransaction implements ports.TransactionStore
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	tx, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, notFound(err, "get transaction by id")
	}
	return tx, nil
}

// GetTransactionByUniqueID implements ports.TransactionStore
func (r *SQLiteRepository) GetTransactionByUniqueID(ctx context.Context, uniqueID string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions
		WHERE unique_id = ? ORDER BY id LIMIT 1`, uniqueID)
	tx, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, notFound(err, "get transaction by unique id")
	}
	return tx, nil
}

// SearchByUniqueIDPrefix implements ports.TransactionStore
func (r *SQLiteRepository) SearchByUniqueIDPrefix(ctx context.Context, prefix string, limit int) ([]core.Transaction, error) {
	if limit <= 0 {
		limit = 10
	}
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(prefix)
	txs, err := r.queryTransactions(ctx, `SELECT `+transactionColumns+` FROM transactions
		WHERE unique_id LIKE ? ESCAPE '\' ORDER BY date_ms DESC LIMIT ?`, escaped+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("search by unique id prefix: %w", err)
	}
	return txs, nil
}

// ListTransactions implements ports.TransactionStore
func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	txs, err := r.queryTransactions(ctx, `SELECT `+transactionColumns+` FROM transactions ORDER BY date_ms DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// ListTransactionsInRange implements ports.TransactionStore
func (r *SQLiteRepository) ListTransactionsInRange(ctx context.Context, rng core.DateRange) ([]core.Transaction, error) {
	txs, err := r.queryTransactions(ctx, `SELECT `+transactionColumns+` FROM transactions
		WHERE date_ms BETWEEN ? AND ? ORDER BY date_ms DESC, id DESC`, toMillis(rng.Start), toMillis(rng.End))
	if err != nil {
		return nil, fmt.Errorf("list transactions in range: %w", err)
	}
	return txs, nil
}

// ListTransactionsByCategory implements ports.TransactionStore
func (r *SQLiteRepository) ListTransactionsByCategory(ctx context.Context, category string) ([]core.Transaction, error) {
	txs, err := r.queryTransactions(ctx, `SELECT `+transactionColumns+` FROM transactions
		WHERE category = ? ORDER BY date_ms DESC, id DESC`, category)
	if err != nil {
		return nil, fmt.Errorf("list transactions by category: %w", err)
	}
	return txs, nil
}

// ListForeignTransactions implements ports.TransactionStore
func (r *SQLiteRepository) ListForeignTransactions(ctx context.Context) ([]core.Transaction, error) {
	txs, err := r.queryTransactions(ctx, `SELECT `+transactionColumns+` FROM transactions
		WHERE original_currency IS NOT NULL AND original_amount_cents IS NOT NULL
		ORDER BY date_ms DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list foreign transactions: %w", err)
	}
	return txs, nil
}

// DeleteTransactions implements ports.TransactionStore
func (r *SQLiteRepository) DeleteTransactions(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `DELETE FROM transactions WHERE id = ?`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, id := range ids {
			if _, err := stmt.ExecContext(ctx, id); err != nil {
				return fmt.Errorf("delete transaction %d: %w", id, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete transactions: %w", err)
	}

	slog.InfoContext(ctx, "Transactions deleted from SQLite", "count", len(ids))
	for _, id := range ids {
		r.hub.Publish(events.EntityTransaction, events.OpDeleted, id)
	}
	return nil
}

// DeleteAllTransactions implements ports.TransactionStore
func (r *SQLiteRepository) DeleteAllTransactions(ctx context.Context) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions`)
	if err != nil {
		return 0, fmt.Errorf("delete all transactions: %w", err)
	}
	n, _ := res.RowsAffected()

	slog.InfoContext(ctx, "All transactions deleted from SQLite", "count", n)
	r.hub.Publish(events.EntityTransaction, events.OpDeleted, 0)
	return int(n), nil
}

// Totals implements ports.TransactionStore
func (r *SQLiteRepository) Totals(ctx context.Context) (core.Totals, error) {
	var t core.Totals
	err := r.db.QueryRowContext(ctx, `SELECT
		COALESCE(SUM(CASE WHEN is_income = 1 THEN amount_cents END), 0),
		COALESCE(SUM(CASE WHEN is_income = 0 THEN amount_cents END), 0),
		COUNT(*)
		FROM transactions`).Scan(&t.Income.Cents, &t.Expenses.Cents, &t.Count)
	if err != nil {
		return core.Totals{}, fmt.Errorf("get totals: %w", err)
	}
	return t, nil
}

// CategoryTotals implements ports.TransactionStore
func (r *SQLiteRepository) CategoryTotals(ctx context.Context, income bool, rng *core.DateRange) ([]core.CategoryAmount, error) {
	query := `SELECT category, SUM(amount_cents) AS total FROM transactions WHERE is_income = ?`
	args := []any{boolInt(income)}
	if rng != nil {
		query += ` AND date_ms BETWEEN ? AND ?`
		args = append(args, toMillis(rng.Start), toMillis(rng.End))
	}
	query += ` GROUP BY category ORDER BY total DESC, category`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get category totals: %w", err)
	}
	defer rows.Close()

	var out []core.CategoryAmount
	for rows.Next() {
		var ca core.CategoryAmount
		if err := rows.Scan(&ca.Name, &ca.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		out = append(out, ca)
	}
	return out, rows.Err()
}
