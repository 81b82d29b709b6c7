package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func TestStoreTransactions(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now()

	for i, uid := range []string{"AAAA1", "AAAA2", "BBBB3"} {
		_, err := s.CreateTransaction(ctx, core.Transaction{
			UniqueID: uid, Amount: core.MustMoney(int64(100 * (i + 1))), Category: "Other",
			Description: "x", Date: now.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	all, err := s.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "BBBB3", all[0].UniqueID)

	prefixed, err := s.SearchByUniqueIDPrefix(ctx, "AAAA", 1)
	require.NoError(t, err)
	assert.Len(t, prefixed, 1)

	require.NoError(t, s.DeleteTransactions(ctx, []int64{all[0].ID}))
	totals, err := s.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.MustMoney(300), totals.Expenses)
	assert.Equal(t, 2, totals.Count)
}

func TestStoreRejectsInvalid(t *testing.T) {
	_, err := New().CreateTransaction(context.Background(), core.Transaction{UniqueID: "A"})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
}

func TestStoreBudgetUpsert(t *testing.T) {
	ctx := context.Background()
	s := New()

	a, err := s.UpsertBudget(ctx, core.Budget{Amount: core.MustMoney(1000), Month: 5, Year: 2026})
	require.NoError(t, err)
	b, err := s.UpsertBudget(ctx, core.Budget{Amount: core.MustMoney(2000), Month: 5, Year: 2026})
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)

	list, err := s.ListBudgets(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, core.MustMoney(2000), list[0].Amount)
}

func TestStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	created, err := s.CreateTransaction(ctx, core.Transaction{
		UniqueID: "USD01", Amount: core.MustMoney(83), Category: "Other", Description: "x", Date: time.Now(),
		Original: &core.OriginalCurrency{Amount: core.MustMoney(1), Currency: "USD", Rate: 83},
	})
	require.NoError(t, err)

	got, err := s.GetTransaction(ctx, created.ID)
	require.NoError(t, err)
	got.Original.Rate = 99

	again, err := s.GetTransaction(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 83.0, again.Original.Rate)
}
