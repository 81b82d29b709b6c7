package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/currency"
	"fintrack/internal/storage/memory"
)

type fixedRates struct {
	rate decimal.Decimal
	err  error
}

func (f fixedRates) Convert(_ context.Context, amount decimal.Decimal, _, _ string) (decimal.Decimal, decimal.Decimal, error) {
	if f.err != nil {
		return decimal.Zero, decimal.Zero, f.err
	}
	return amount.Mul(f.rate), f.rate, nil
}

func TestRateUpdater_UpdateAll(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	txs := NewTransactionService(store, nil)

	_, err := store.CreateTransaction(ctx, core.Transaction{
		UniqueID:    "USD01",
		Amount:      core.MustMoney(4162),
		Category:    "Travel",
		Description: "hotel 50 USD",
		Date:        refTime,
		Original:    &core.OriginalCurrency{Amount: core.MustMoney(50), Currency: "USD", Rate: 83.25},
	})
	require.NoError(t, err)
	seedTx(t, store, "INR01", 100, false, "Other", refTime)

	updater := NewRateUpdater(txs, currency.NewConverter(fixedRates{rate: decimal.RequireFromString("84")}))
	n, err := updater.UpdateAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := store.GetTransactionByUniqueID(ctx, "USD01")
	require.NoError(t, err)
	assert.Equal(t, core.MustMoney(4200), got.Amount)
	require.NotNil(t, got.Original)
	assert.InDelta(t, 84.0, got.Original.Rate, 1e-9)
	assert.Equal(t, core.MustMoney(50), got.Original.Amount)
	assert.False(t, got.Original.UpdatedAt.IsZero())

	// idempotent under unchanged rates
	n, err = updater.UpdateAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	again, err := store.GetTransactionByUniqueID(ctx, "USD01")
	require.NoError(t, err)
	assert.Equal(t, got.Amount, again.Amount)
}

func TestRateUpdater_OfflineFallback(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	_, err := store.CreateTransaction(ctx, core.Transaction{
		UniqueID:    "EUR01",
		Amount:      core.MustMoney(1),
		Category:    "Travel",
		Description: "museum",
		Date:        refTime,
		Original:    &core.OriginalCurrency{Amount: core.MustMoney(10), Currency: "EUR", Rate: 1},
	})
	require.NoError(t, err)

	updater := NewRateUpdater(NewTransactionService(store, nil), currency.NewConverter(fixedRates{err: errors.New("down")}))
	n, err := updater.UpdateAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := store.GetTransactionByUniqueID(ctx, "EUR01")
	require.NoError(t, err)
	assert.Equal(t, int64(90150), got.Amount.Cents)
}
