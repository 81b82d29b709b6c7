package currency

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// RateSource is the remote side of the converter; *Client implements it.
type RateSource interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to string) (result, rate decimal.Decimal, err error)
}

// Conversion is the outcome of converting a foreign amount to the base currency.
type Conversion struct {
	Original  Amount
	Converted core.Money
	Rate      decimal.Decimal
	Offline   bool
	At        time.Time
}

// OriginalCurrency builds the stored original-currency fields.
func (c Conversion) OriginalCurrency() *core.OriginalCurrency {
	rate, _ := c.Rate.Float64()
	return &core.OriginalCurrency{
		Amount:    c.Original.Money(),
		Currency:  c.Original.Currency,
		Rate:      rate,
		UpdatedAt: c.At,
	}
}

// Converter converts to core.BaseCurrency, preferring the remote API and
// falling back to the offline table.
type Converter struct {
	remote RateSource
	now    func() time.Time
}

// NewConverter accepts a nil remote for offline-only operation.
func NewConverter(remote RateSource) *Converter {
	return &Converter{remote: remote, now: time.Now}
}

// ToBase converts a into the base currency.
func (c *Converter) ToBase(ctx context.Context, a Amount) (Conversion, error) {
	conv := Conversion{Original: a, At: c.now()}
	if a.Currency == core.BaseCurrency {
		conv.Converted = a.Money()
		conv.Rate = decimal.NewFromInt(1)
		return conv, nil
	}

	if c.remote != nil {
		result, rate, err := c.remote.Convert(ctx, a.Value, a.Currency, core.BaseCurrency)
		if err == nil && result.IsPositive() {
			conv.Converted = ToMoney(result)
			conv.Rate = rate
			return conv, nil
		}
		slog.WarnContext(ctx, "Remote conversion failed, using offline rate",
			"currency", a.Currency, "error", err)
	}

	rate, ok := offlineRates[a.Currency]
	if !ok {
		return Conversion{}, fmt.Errorf("%s: %w", a.Currency, ErrUnsupportedCurrency)
	}
	conv.Converted = ToMoney(a.Value.Mul(rate))
	conv.Rate = rate
	conv.Offline = true
	return conv, nil
}

// Recompute converts a stored original amount again.
func (c *Converter) Recompute(ctx context.Context, o core.OriginalCurrency) (Conversion, error) {
	value := decimal.New(o.Amount.Cents, -2)
	return c.ToBase(ctx, Amount{Value: value, Currency: o.Currency})
}
