package chat

import (
	"math/rand/v2"
	"regexp"
	"strings"

	"fintrack/internal/core"
)

// DefaultCategory is used when no keyword matches.
const DefaultCategory = "Other"

const maxDescriptionLen = 50

var amountRe = regexp.MustCompile(`(?i)(\d+(?:\.\d{1,2})?)(?:\s*(?:rs|rupees|₹|dollars?|usd))?`)

// ExtractAmount returns the first positive amount in text.
func ExtractAmount(text string) (core.Money, bool) {
	m := amountRe.FindStringSubmatch(text)
	if m == nil {
		return core.Money{}, false
	}
	cents, err := core.ParseDecimalToCents(m[1])
	if err != nil {
		return core.Money{}, false
	}
	return core.Money{Cents: cents}, true
}

type categoryKeyword struct {
	keyword  string
	category string
}

// categoryKeywords is scanned in order; the first contained keyword wins.
var categoryKeywords = []categoryKeyword{
	{"food", "Food & Dining"},
	{"restaurant", "Food & Dining"},
	{"lunch", "Food & Dining"},
	{"dinner", "Food & Dining"},
	{"snack", "Food & Dining"},
	{"coffee", "Food & Dining"},
	{"transport", "Transportation"},
	{"uber", "Transportation"},
	{"taxi", "Transportation"},
	{"bus", "Transportation"},
	{"metro", "Transportation"},
	{"petrol", "Transportation"},
	{"fuel", "Transportation"},
	{"shopping", "Shopping"},
	{"clothes", "Shopping"},
	{"shoes", "Shopping"},
	{"entertainment", "Entertainment"},
	{"movie", "Entertainment"},
	{"game", "Entertainment"},
	{"bill", "Bills & Utilities"},
	{"electricity", "Bills & Utilities"},
	{"internet", "Bills & Utilities"},
	{"phone", "Bills & Utilities"},
	{"rent", "Bills & Utilities"},
	{"doctor", "Healthcare"},
	{"medicine", "Healthcare"},
	{"hospital", "Healthcare"},
	{"health", "Healthcare"},
	{"education", "Education"},
	{"course", "Education"},
	{"book", "Education"},
	{"travel", "Travel"},
	{"hotel", "Travel"},
	{"flight", "Travel"},
	{"grocery", "Food & Dining"},
	{"groceries", "Food & Dining"},
}

// ExtractCategory maps the first known keyword in text to its category.
func ExtractCategory(text string) string {
	lower := strings.ToLower(text)
	for _, ck := range categoryKeywords {
		if strings.Contains(lower, ck.keyword) {
			return ck.category
		}
	}
	return DefaultCategory
}

// Describe truncates text to a 50 character description.
func Describe(text string) string {
	r := []rune(text)
	if len(r) > maxDescriptionLen {
		return string(r[:maxDescriptionLen-3]) + "..."
	}
	return text
}

// NewUniqueID draws a random transaction code from core.UniqueIDAlphabet.
func NewUniqueID() string {
	b := make([]byte, core.UniqueIDLength)
	for i := range b {
		b[i] = core.UniqueIDAlphabet[rand.IntN(len(core.UniqueIDAlphabet))]
	}
	return string(b)
}
