// Package currency detects foreign amounts in chat text and converts them
// to the base currency.
package currency

import (
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

var ErrUnsupportedCurrency = errors.New("unsupported currency")

// Supported maps ISO codes to display names.
var Supported = map[string]string{
	"USD": "US Dollar",
	"EUR": "Euro",
	"GBP": "British Pound",
	"JPY": "Japanese Yen",
	"CAD": "Canadian Dollar",
	"AUD": "Australian Dollar",
	"CHF": "Swiss Franc",
	"CNY": "Chinese Yuan",
	"SGD": "Singapore Dollar",
	"HKD": "Hong Kong Dollar",
	"INR": "Indian Rupee",
}

// Symbols maps ISO codes to their display symbol.
var Symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"CAD": "C$",
	"AUD": "A$",
	"CHF": "CHF",
	"CNY": "¥",
	"SGD": "S$",
	"HKD": "HK$",
	"INR": "₹",
}

// offlineRates are approximate base-currency units per unit, used when the
// remote API is unconfigured or failing.
var offlineRates = map[string]decimal.Decimal{
	"USD": decimal.RequireFromString("83.25"),
	"EUR": decimal.RequireFromString("90.15"),
	"GBP": decimal.RequireFromString("105.50"),
	"JPY": decimal.RequireFromString("0.56"),
	"CAD": decimal.RequireFromString("61.20"),
	"AUD": decimal.RequireFromString("55.30"),
	"CHF": decimal.RequireFromString("92.80"),
	"CNY": decimal.RequireFromString("11.60"),
	"SGD": decimal.RequireFromString("62.40"),
	"HKD": decimal.RequireFromString("10.65"),
}

// Amount is a value in a named currency.
type Amount struct {
	Value    decimal.Decimal
	Currency string
}

// Money rounds the value to minor units.
func (a Amount) Money() core.Money {
	return ToMoney(a.Value)
}

// ToMoney rounds a decimal value half-up to two places.
func ToMoney(d decimal.Decimal) core.Money {
	return core.Money{Cents: d.Round(2).Shift(2).IntPart()}
}

var (
	codeRe   = regexp.MustCompile(`(?i)([0-9]+(?:\.[0-9]+)?)\s*([A-Z]{3})\b`)
	symbolRe = regexp.MustCompile(`([$€£¥])([0-9]+(?:\.[0-9]+)?)`)
	wordRe   = regexp.MustCompile(`(?i)([0-9]+(?:\.[0-9]+)?)\s*(dollars?|euros?|pounds?|yen|yuan)\b`)

	symbolCodes = map[string]string{"$": "USD", "€": "EUR", "£": "GBP", "¥": "JPY"}
)

func wordCode(w string) string {
	w = strings.ToLower(w)
	switch {
	case strings.HasPrefix(w, "dollar"):
		return "USD"
	case strings.HasPrefix(w, "euro"):
		return "EUR"
	case strings.HasPrefix(w, "pound"):
		return "GBP"
	case w == "yen":
		return "JPY"
	case w == "yuan":
		return "CNY"
	}
	return ""
}

// Extract finds "100 USD", "$100" or "100 dollars" in text. The code or
// word must stand alone: "500 for" and "20 cadbury" are not amounts.
func Extract(text string) (Amount, bool) {
	for _, m := range codeRe.FindAllStringSubmatch(text, -1) {
		code := strings.ToUpper(m[2])
		if _, ok := Supported[code]; !ok {
			continue
		}
		if v, err := decimal.NewFromString(m[1]); err == nil {
			return Amount{Value: v, Currency: code}, true
		}
	}
	if m := symbolRe.FindStringSubmatch(text); m != nil {
		if v, err := decimal.NewFromString(m[2]); err == nil {
			return Amount{Value: v, Currency: symbolCodes[m[1]]}, true
		}
	}
	if m := wordRe.FindStringSubmatch(text); m != nil {
		if code := wordCode(m[2]); code != "" {
			if v, err := decimal.NewFromString(m[1]); err == nil {
				return Amount{Value: v, Currency: code}, true
			}
		}
	}
	return Amount{}, false
}
