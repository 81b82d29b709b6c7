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

func TestBudgetService_SetIsUpsert(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewBudgetService(store, store)

	_, err := svc.Set(ctx, core.Budget{Amount: core.MustMoney(1000), Month: 10, Year: 2026})
	require.NoError(t, err)
	_, err = svc.Set(ctx, core.Budget{Amount: core.MustMoney(2500), Month: 10, Year: 2026})
	require.NoError(t, err)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, core.MustMoney(2500), all[0].Amount)

	got, err := svc.Get(ctx, 10, 2026)
	require.NoError(t, err)
	assert.Equal(t, core.MustMoney(2500), got.Amount)
}

func TestBudgetService_SetInvalid(t *testing.T) {
	svc := NewBudgetService(memory.New(), memory.New())
	_, err := svc.Set(context.Background(), core.Budget{Amount: core.MustMoney(10), Month: 13, Year: 2026})
	assert.ErrorIs(t, err, core.ErrInvalidMonth)
	_, err = svc.Set(context.Background(), core.Budget{Month: 1, Year: 2026})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
}

func TestBudgetService_Status(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewBudgetService(store, store)
	svc.now = fixedClock(refTime)

	_, err := svc.Set(ctx, core.Budget{Amount: core.MustMoney(1000), Month: 10, Year: 2026})
	require.NoError(t, err)
	seedTx(t, store, "EEEE1", 700, false, "Food & Dining", refTime)
	seedTx(t, store, "EEEE2", 600, false, "Shopping", time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC))
	seedTx(t, store, "EEEE3", 999, false, "Shopping", time.Date(2026, time.September, 30, 23, 0, 0, 0, time.UTC))
	seedTx(t, store, "EEEE4", 5000, true, "Other", refTime)

	st, err := svc.Status(ctx, 10, 2026)
	require.NoError(t, err)
	assert.Equal(t, core.MustMoney(1300), st.Spent)
	assert.Equal(t, int64(-30000), st.Remaining.Cents)
	assert.True(t, st.OverBudget())
	assert.InDelta(t, 130.0, st.Percent, 0.001)

	_, err = svc.Status(ctx, 11, 2026)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestBudgetService_Delete(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewBudgetService(store, store)
	_, err := svc.Set(ctx, core.Budget{Amount: core.MustMoney(1000), Month: 1, Year: 2027})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, 1, 2027))
	_, err = svc.Get(ctx, 1, 2027)
	assert.ErrorIs(t, err, core.ErrNotFound)
}
