// Package ports declares the storage and outbound interfaces the services depend on.
package ports

import (
	"context"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/events"
)

type (
	TransactionStore interface {
		CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, tx core.Transaction) error
		GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
		GetTransactionByUniqueID(ctx context.Context, uniqueID string) (core.Transaction, error)
		// SearchByUniqueIDPrefix matches codes starting with prefix, at most limit rows.
		SearchByUniqueIDPrefix(ctx context.Context, prefix string, limit int) ([]core.Transaction, error)
		// ListTransactions returns every transaction, newest first.
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
		// ListTransactionsInRange returns transactions inside the inclusive range, newest first.
		ListTransactionsInRange(ctx context.Context, r core.DateRange) ([]core.Transaction, error)
		ListTransactionsByCategory(ctx context.Context, category string) ([]core.Transaction, error)
		// ListForeignTransactions returns transactions that carry original-currency fields.
		ListForeignTransactions(ctx context.Context) ([]core.Transaction, error)
		DeleteTransactions(ctx context.Context, ids []int64) error
		DeleteAllTransactions(ctx context.Context) (int, error)
		Totals(ctx context.Context) (core.Totals, error)
		// CategoryTotals sums amounts per category for one income flag, optionally limited to r.
		CategoryTotals(ctx context.Context, income bool, r *core.DateRange) ([]core.CategoryAmount, error)
	}

	BudgetStore interface {
		// UpsertBudget inserts or replaces the single budget of (month, year).
		UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		GetBudget(ctx context.Context, month, year int) (core.Budget, error)
		ListBudgets(ctx context.Context) ([]core.Budget, error)
		DeleteBudget(ctx context.Context, month, year int) error
	}

	ChatStore interface {
		AddMessage(ctx context.Context, m core.ChatMessage) (core.ChatMessage, error)
		// ListMessages returns the history oldest first.
		ListMessages(ctx context.Context) ([]core.ChatMessage, error)
		CountMessages(ctx context.Context) (int, error)
		DeleteMessagesBefore(ctx context.Context, cutoff time.Time) (int, error)
		DeleteAllMessages(ctx context.Context) error
	}

	GoalStore interface {
		CreateGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error)
		UpdateGoal(ctx context.Context, g core.SavingsGoal) error
		GetGoal(ctx context.Context, id int64) (core.SavingsGoal, error)
		ListGoals(ctx context.Context) ([]core.SavingsGoal, error)
		DeleteGoal(ctx context.Context, id int64) error
	}

	InsightStore interface {
		CreateInsight(ctx context.Context, i core.FinancialInsight) (core.FinancialInsight, error)
		ListInsights(ctx context.Context, unreadOnly bool) ([]core.FinancialInsight, error)
		MarkInsightRead(ctx context.Context, id int64) error
		MarkInsightActionTaken(ctx context.Context, id int64) error
		DeleteInsightsBefore(ctx context.Context, cutoff time.Time) (int, error)
	}

	// Notifier exposes the push-style change feed of a store.
	Notifier interface {
		Subscribe() (<-chan events.Change, func())
	}

	// Store is the full local persistence surface.
	Store interface {
		TransactionStore
		BudgetStore
		ChatStore
		GoalStore
		InsightStore
		Notifier
		Close() error
	}

	// TransactionExporter mirrors transactions into an external spreadsheet.
	TransactionExporter interface {
		Export(ctx context.Context, tx core.Transaction) (rowRef string, err error)
		Remove(ctx context.Context, uniqueID string) error
	}

	// EventPublisher announces transaction changes to other processes.
	EventPublisher interface {
		PublishTransactionCreated(ctx context.Context, tx core.Transaction) error
		PublishTransactionDeleted(ctx context.Context, uniqueID string) error
	}
)
