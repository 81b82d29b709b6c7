package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

// BudgetStatus compares one month's budget with what was spent in it.
type BudgetStatus struct {
	Budget    core.Budget
	Spent     core.Money
	Remaining core.Money // negative when over budget
	Percent   float64
}

func (s BudgetStatus) OverBudget() bool { return s.Remaining.Cents < 0 }

type BudgetService struct {
	budgets      ports.BudgetStore
	transactions ports.TransactionStore
	now          func() time.Time
}

func NewBudgetService(budgets ports.BudgetStore, transactions ports.TransactionStore) *BudgetService {
	return &BudgetService{budgets: budgets, transactions: transactions, now: time.Now}
}

// Set upserts the single budget of (month, year).
func (s *BudgetService) Set(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, fmt.Errorf("validate budget: %w", err)
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = s.now()
	}
	saved, err := s.budgets.UpsertBudget(ctx, b)
	if err != nil {
		return core.Budget{}, fmt.Errorf("upsert budget %d/%d: %w", b.Month, b.Year, err)
	}
	slog.InfoContext(ctx, "Budget set",
		"month", saved.Month,
		"year", saved.Year,
		"amount", saved.Amount.String())
	return saved, nil
}

func (s *BudgetService) Get(ctx context.Context, month, year int) (core.Budget, error) {
	return s.budgets.GetBudget(ctx, month, year)
}

func (s *BudgetService) List(ctx context.Context) ([]core.Budget, error) {
	return s.budgets.ListBudgets(ctx)
}

func (s *BudgetService) Delete(ctx context.Context, month, year int) error {
	return s.budgets.DeleteBudget(ctx, month, year)
}

// Status reports the expenses of the budget's month against its amount.
func (s *BudgetService) Status(ctx context.Context, month, year int) (BudgetStatus, error) {
	b, err := s.budgets.GetBudget(ctx, month, year)
	if err != nil {
		return BudgetStatus{}, err
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, s.now().Location())
	r := core.DateRange{Start: start, End: start.AddDate(0, 1, 0).Add(-time.Millisecond)}
	txs, err := s.transactions.ListTransactionsInRange(ctx, r)
	if err != nil {
		return BudgetStatus{}, fmt.Errorf("list month transactions: %w", err)
	}
	spent := core.ComputeTotals(txs).Expenses
	st := BudgetStatus{Budget: b, Spent: spent, Remaining: b.Amount.Sub(spent)}
	if b.Amount.Cents > 0 {
		st.Percent = float64(spent.Cents) / float64(b.Amount.Cents) * 100
	}
	return st, nil
}
