package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/storage/memory"
)

func TestAnalyticsService_Daily(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	seedTx(t, store, "DAY01", 100, false, "Food & Dining", refTime)
	seedTx(t, store, "DAY02", 40, false, "Food & Dining", refTime.Add(-2*time.Hour))
	seedTx(t, store, "DAY03", 500, true, "Other", refTime.AddDate(0, 0, -6))
	seedTx(t, store, "DAY04", 999, false, "Other", refTime.AddDate(0, 0, -7))

	days, err := NewAnalyticsService(store).Daily(ctx, refTime)
	require.NoError(t, err)
	require.Len(t, days, DailyWindow)

	assert.Equal(t, 8, days[0].Date.Day())
	assert.Equal(t, core.MustMoney(500), days[0].Income)
	assert.Equal(t, 14, days[6].Date.Day())
	assert.Equal(t, core.MustMoney(140), days[6].Expenses)
	for _, d := range days[1:6] {
		assert.True(t, d.Income.IsZero() && d.Expenses.IsZero())
	}
}

func TestAnalyticsService_Monthly(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	seedTx(t, store, "MON01", 100, false, "Other", refTime)
	seedTx(t, store, "MON02", 200, true, "Other", time.Date(2026, time.May, 31, 10, 0, 0, 0, time.UTC))
	seedTx(t, store, "MON03", 300, false, "Other", time.Date(2026, time.April, 30, 10, 0, 0, 0, time.UTC))

	months, err := NewAnalyticsService(store).Monthly(ctx, refTime)
	require.NoError(t, err)
	require.Len(t, months, MonthlyWindow)

	assert.Equal(t, 2026, months[0].Year)
	assert.Equal(t, 5, months[0].Month)
	assert.Equal(t, core.MustMoney(200), months[0].Income)
	assert.Equal(t, 10, months[5].Month)
	assert.Equal(t, core.MustMoney(100), months[5].Expenses)
}

func TestAnalyticsService_MonthlyAcrossYear(t *testing.T) {
	store := memory.New()
	seedTx(t, store, "YEAR1", 10, false, "Other", time.Date(2025, time.November, 3, 0, 0, 0, 0, time.UTC))

	months, err := NewAnalyticsService(store).Monthly(context.Background(), time.Date(2026, time.February, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 2025, months[0].Year)
	assert.Equal(t, 9, months[0].Month)
	assert.Equal(t, core.MustMoney(10), months[2].Expenses)
}

func TestAnalyticsService_Dashboard(t *testing.T) {
	store := memory.New()
	seedTx(t, store, "DSH01", 75, false, "Food & Dining", refTime)
	seedTx(t, store, "DSH02", 25, false, "Travel", refTime)

	d, err := NewAnalyticsService(store).Dashboard(context.Background(), refTime)
	require.NoError(t, err)
	assert.Len(t, d.Daily, DailyWindow)
	assert.Len(t, d.Monthly, MonthlyWindow)
	require.Len(t, d.Categories, 2)
	assert.Equal(t, "Food & Dining", d.Categories[0].Name)
	assert.InDelta(t, 75.0, d.Categories[0].Percent, 0.001)
}
