package services

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/currency"
)

// RateUpdater refreshes foreign-currency transactions with current exchange rates.
type RateUpdater struct {
	transactions *TransactionService
	converter    *currency.Converter
}

func NewRateUpdater(transactions *TransactionService, converter *currency.Converter) *RateUpdater {
	return &RateUpdater{transactions: transactions, converter: converter}
}

// UpdateAll recomputes every foreign transaction from its original amount.
// Running it twice with the same rates leaves the store unchanged. It returns
// the number of transactions updated; per-transaction failures are logged
// and skipped.
func (u *RateUpdater) UpdateAll(ctx context.Context) (int, error) {
	txs, err := u.transactions.ListForeign(ctx)
	if err != nil {
		return 0, fmt.Errorf("list foreign transactions: %w", err)
	}

	updated := 0
	for _, tx := range txs {
		if err := ctx.Err(); err != nil {
			return updated, err
		}
		if tx.Original == nil {
			continue
		}
		conv, err := u.converter.Recompute(ctx, *tx.Original)
		if err != nil {
			slog.WarnContext(ctx, "Rate recompute failed",
				"unique_id", tx.UniqueID,
				"currency", tx.Original.Currency,
				"error", err)
			continue
		}
		tx.Amount = conv.Converted
		tx.Original = conv.OriginalCurrency()
		if err := u.transactions.Update(ctx, tx); err != nil {
			slog.ErrorContext(ctx, "Failed to update transaction rate", "unique_id", tx.UniqueID, "error", err)
			continue
		}
		updated++
	}

	slog.InfoContext(ctx, "Exchange rates updated", "updated", updated, "foreign", len(txs))
	return updated, nil
}
