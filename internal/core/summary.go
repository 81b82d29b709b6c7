package core

import "time"

// Totals aggregates income and expenses over a set of transactions.
type Totals struct {
	Income   Money
	Expenses Money
	Count    int
}

// Balance is income minus expenses.
func (t Totals) Balance() Money {
	return t.Income.Sub(t.Expenses)
}

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name    string
	Amount  Money
	Percent float64 // share of the breakdown total, 0-100
}

// Summary is the balance report with per-category expense breakdown.
type Summary struct {
	Totals     Totals
	ByCategory []CategoryAmount
}

// DayTotal holds the income and expense sums of one calendar day.
type DayTotal struct {
	Date     time.Time
	Income   Money
	Expenses Money
}

// MonthTotal holds the income and expense sums of one calendar month.
type MonthTotal struct {
	Year     int
	Month    int // 1-12
	Income   Money
	Expenses Money
}

// ComputeTotals sums the given transactions.
func ComputeTotals(txs []Transaction) Totals {
	var t Totals
	for _, tx := range txs {
		if tx.IsIncome {
			t.Income = t.Income.Add(tx.Amount)
		} else {
			t.Expenses = t.Expenses.Add(tx.Amount)
		}
		t.Count++
	}
	return t
}
