package chat

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/llm"
)

const defaultBudgetDescription = "Monthly budget"

// Plausible budget bounds for the numeric fallback, in cents.
const (
	minFallbackBudget = 50 * 100
	maxFallbackBudget = 10_000_000 * 100
)

// BudgetRequest is a parsed "set budget" command.
type BudgetRequest struct {
	Amount      core.Money
	Month       int
	Year        int
	Description string
}

// Budget converts the request into a storable record.
func (r BudgetRequest) Budget() core.Budget {
	return core.Budget{Amount: r.Amount, Month: r.Month, Year: r.Year, Description: r.Description}
}

var (
	budgetDirectRe  = regexp.MustCompile(`(set|my)\s+(?:monthly\s+)?budget\s+(?:of\s+|is\s+)?([0-9]+)(?:rs|₹|rupees)?`)
	budgetAroundRe  = regexp.MustCompile(`(?:([0-9]+)(?:rs|₹|rupees)?\s+)?(?:monthly\s+)?budget(?:\s+([0-9]+)(?:rs|₹|rupees)?)?`)
	jsonAmountRe    = regexp.MustCompile(`"amount"\s*:\s*([0-9]+\.?[0-9]*)`)
	jsonMonthRe     = regexp.MustCompile(`"month"\s*:\s*([0-9]+)`)
	jsonYearRe      = regexp.MustCompile(`"year"\s*:\s*([0-9]+)`)
	jsonDescRe      = regexp.MustCompile(`"description"\s*:\s*(?:"([^"]*)"|null)`)
	budgetNumbersRe = regexp.MustCompile(`(?i)([0-9]+(?:\.[0-9]+)?)(?:\s*(?:rs|₹|rupees|inr)?)?`)
)

// verdict is the outcome of one budget parsing tier.
type verdict int

const (
	verdictSkip   verdict = iota // try the next tier
	verdictMatch                 // use the result
	verdictReject                // stop, the message has no budget intent
)

// BudgetParser resolves an amount/month/year triple from free text.
type BudgetParser struct {
	llm llm.Completer
	now func() time.Time
}

func NewBudgetParser(c llm.Completer, now func() time.Time) *BudgetParser {
	if c == nil {
		c = llm.Disabled{}
	}
	if now == nil {
		now = time.Now
	}
	return &BudgetParser{llm: c, now: now}
}

type budgetAttempt func(ctx context.Context, text string, now time.Time) (BudgetRequest, verdict)

// Parse tries the direct patterns, then the remote parser, then the numeric fallback.
func (p *BudgetParser) Parse(ctx context.Context, text string) (BudgetRequest, bool) {
	now := p.now()
	attempts := []budgetAttempt{
		func(_ context.Context, text string, now time.Time) (BudgetRequest, verdict) {
			return matchOrSkip(ParseBudgetDirect(text, now))
		},
		p.remote,
		func(_ context.Context, text string, now time.Time) (BudgetRequest, verdict) {
			return matchOrSkip(ParseBudgetFallback(text, now))
		},
	}
	for _, attempt := range attempts {
		req, v := attempt(ctx, text, now)
		switch v {
		case verdictMatch:
			return req, true
		case verdictReject:
			return BudgetRequest{}, false
		}
	}
	return BudgetRequest{}, false
}

func matchOrSkip(req BudgetRequest, ok bool) (BudgetRequest, verdict) {
	if ok {
		return req, verdictMatch
	}
	return BudgetRequest{}, verdictSkip
}

func currentMonthBudget(amount core.Money, now time.Time) BudgetRequest {
	return BudgetRequest{Amount: amount, Month: int(now.Month()), Year: now.Year(), Description: defaultBudgetDescription}
}

func wholeAmount(s string) (core.Money, bool) {
	if s == "" {
		return core.Money{}, false
	}
	cents, err := core.ParseDecimalToCents(s)
	if err != nil {
		return core.Money{}, false
	}
	return core.Money{Cents: cents}, true
}

// ParseBudgetDirect matches "set/my (monthly) budget (of/is) N" and
// "N budget" / "budget N" for the current month.
func ParseBudgetDirect(text string, now time.Time) (BudgetRequest, bool) {
	lower := strings.ToLower(text)
	if m := budgetDirectRe.FindStringSubmatch(lower); m != nil {
		if amount, ok := wholeAmount(m[2]); ok {
			return currentMonthBudget(amount, now), true
		}
	}
	if m := budgetAroundRe.FindStringSubmatch(lower); m != nil {
		amount, ok := wholeAmount(m[1])
		if !ok {
			amount, ok = wholeAmount(m[2])
		}
		if ok {
			return currentMonthBudget(amount, now), true
		}
	}
	return BudgetRequest{}, false
}

// ParseBudgetReply reads the JSON-ish reply of the remote parser.
func ParseBudgetReply(reply string) (BudgetRequest, bool) {
	clean := llm.StripCodeFences(reply)
	if obj := llm.FirstObject(clean); obj != "" {
		clean = obj
	}
	am := jsonAmountRe.FindStringSubmatch(clean)
	mm := jsonMonthRe.FindStringSubmatch(clean)
	ym := jsonYearRe.FindStringSubmatch(clean)
	if am == nil || mm == nil || ym == nil {
		return BudgetRequest{}, false
	}
	amount, ok := wholeAmount(am[1])
	if !ok {
		return BudgetRequest{}, false
	}
	month, err := strconv.Atoi(mm[1])
	if err != nil || month < 1 || month > 12 {
		return BudgetRequest{}, false
	}
	year, err := strconv.Atoi(ym[1])
	if err != nil || year < 1000 || year > 9999 {
		return BudgetRequest{}, false
	}
	req := BudgetRequest{Amount: amount, Month: month, Year: year}
	if dm := jsonDescRe.FindStringSubmatch(clean); dm != nil {
		req.Description = dm[1]
	}
	return req, true
}

func (p *BudgetParser) remote(ctx context.Context, text string, now time.Time) (BudgetRequest, verdict) {
	out, err := p.llm.Complete(ctx, budgetPrompt(text, now))
	if err != nil {
		slog.WarnContext(ctx, "Remote budget parsing failed", "error", err)
		return BudgetRequest{}, verdictSkip
	}
	if strings.TrimSpace(out) == "null" {
		return BudgetRequest{}, verdictReject
	}
	req, ok := ParseBudgetReply(out)
	if !ok {
		slog.DebugContext(ctx, "Unparseable budget reply", "reply", out)
		return BudgetRequest{}, verdictSkip
	}
	return req, verdictMatch
}

// ParseBudgetFallback takes the largest number in [50, 10,000,000] as the
// budget for the current month.
func ParseBudgetFallback(text string, now time.Time) (BudgetRequest, bool) {
	var best core.Money
	for _, m := range budgetNumbersRe.FindAllStringSubmatch(text, -1) {
		amount, ok := wholeAmount(m[1])
		if !ok || amount.Cents < minFallbackBudget || amount.Cents > maxFallbackBudget {
			continue
		}
		if amount.Cents > best.Cents {
			best = amount
		}
	}
	if best.IsZero() {
		return BudgetRequest{}, false
	}
	return currentMonthBudget(best, now), true
}
