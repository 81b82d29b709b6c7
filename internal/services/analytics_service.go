package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

const (
	DailyWindow   = 7
	MonthlyWindow = 6
)

// Dashboard bundles the three analytics views for one selected day.
type Dashboard struct {
	Daily      []core.DayTotal
	Monthly    []core.MonthTotal
	Categories []core.CategoryAmount
}

type AnalyticsService struct {
	store ports.TransactionStore
}

func NewAnalyticsService(store ports.TransactionStore) *AnalyticsService {
	return &AnalyticsService{store: store}
}

// Daily returns one total per day for the DailyWindow days ending at day, oldest first.
func (s *AnalyticsService) Daily(ctx context.Context, day time.Time) ([]core.DayTotal, error) {
	last := core.DayRange(day)
	first := last.Start.AddDate(0, 0, -(DailyWindow - 1))
	txs, err := s.store.ListTransactionsInRange(ctx, core.DateRange{Start: first, End: last.End})
	if err != nil {
		return nil, fmt.Errorf("list daily transactions: %w", err)
	}

	out := make([]core.DayTotal, DailyWindow)
	for i := range out {
		out[i].Date = first.AddDate(0, 0, i)
	}
	for _, tx := range txs {
		idx := dayIndex(out, tx.Date.In(first.Location()))
		if idx < 0 {
			continue
		}
		if tx.IsIncome {
			out[idx].Income = out[idx].Income.Add(tx.Amount)
		} else {
			out[idx].Expenses = out[idx].Expenses.Add(tx.Amount)
		}
	}
	return out, nil
}

func dayIndex(days []core.DayTotal, t time.Time) int {
	y, m, d := t.Date()
	for i, day := range days {
		if dy, dm, dd := day.Date.Date(); dy == y && dm == m && dd == d {
			return i
		}
	}
	return -1
}

// Monthly returns one total per month for the MonthlyWindow months ending at
// the month containing day, oldest first.
func (s *AnalyticsService) Monthly(ctx context.Context, day time.Time) ([]core.MonthTotal, error) {
	loc := day.Location()
	lastStart := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, loc)
	first := lastStart.AddDate(0, -(MonthlyWindow - 1), 0)
	end := lastStart.AddDate(0, 1, 0).Add(-time.Millisecond)
	txs, err := s.store.ListTransactionsInRange(ctx, core.DateRange{Start: first, End: end})
	if err != nil {
		return nil, fmt.Errorf("list monthly transactions: %w", err)
	}

	out := make([]core.MonthTotal, MonthlyWindow)
	for i := range out {
		m := first.AddDate(0, i, 0)
		out[i].Year, out[i].Month = m.Year(), int(m.Month())
	}
	for _, tx := range txs {
		d := tx.Date.In(loc)
		idx := (d.Year()-first.Year())*12 + int(d.Month()) - int(first.Month())
		if idx < 0 || idx >= MonthlyWindow {
			continue
		}
		if tx.IsIncome {
			out[idx].Income = out[idx].Income.Add(tx.Amount)
		} else {
			out[idx].Expenses = out[idx].Expenses.Add(tx.Amount)
		}
	}
	return out, nil
}

// Categories returns the expense breakdown, largest first, optionally limited to r.
func (s *AnalyticsService) Categories(ctx context.Context, r *core.DateRange) ([]core.CategoryAmount, error) {
	cats, err := s.store.CategoryTotals(ctx, false, r)
	if err != nil {
		return nil, fmt.Errorf("category totals: %w", err)
	}
	return withPercentages(cats), nil
}

// Dashboard loads the daily, monthly and category views concurrently.
func (s *AnalyticsService) Dashboard(ctx context.Context, day time.Time) (Dashboard, error) {
	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Daily, err = s.Daily(gctx, day)
		return err
	})
	g.Go(func() (err error) {
		d.Monthly, err = s.Monthly(gctx, day)
		return err
	})
	g.Go(func() (err error) {
		d.Categories, err = s.Categories(gctx, nil)
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return d, nil
}
