package chat

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"fintrack/internal/llm"
)

// Source records which tier decided a classification.
type Source string

const (
	SourceLocal    Source = "local"
	SourceRemote   Source = "remote"
	SourceFallback Source = "fallback"
)

// Classification is the income/expense verdict for a message.
type Classification struct {
	IsIncome bool
	Source   Source
}

var (
	strongIncome = []string{
		"i earned", "i got", "i received", "earned", "got paid", "received",
		"salary", "bonus", "refund", "cashback", "gave me", "paid me",
		"friend gave", "got money", "received money", "income", "profit",
	}
	strongExpense = []string{
		"i spent", "i paid", "spent", "paid", "bought", "cost", "gave to",
		"paid for", "lost", "expense", "purchase", "bill", "fee",
	}
	incomeKeywords = []string{
		"earned", "income", "salary", "bonus", "received", "got paid", "refund",
		"cashback", "revenue", "profit", "gave me", "paid me", "get", "got",
		"receive", "earn", "commission", "dividend", "interest", "allowance",
		"stipend", "reward", "prize",
	}
	expenseKeywords = []string{
		"spent", "paid", "bought", "purchased", "cost", "expense", "shopping",
		"bill", "gave to", "paid for", "lost", "lose", "fee", "charge", "tax",
		"fine", "donation", "tip",
	}

	explicitIncomeRe  = regexp.MustCompile(`i\s+(earned|got|received)`)
	explicitExpenseRe = regexp.MustCompile(`i\s+(spent|paid|lost)`)
)

// ClassifyLocal runs the high-confidence phrase lists. Income phrases are
// checked before expense phrases. ok is false when nothing matched.
func ClassifyLocal(text string) (isIncome, ok bool) {
	lower := strings.ToLower(text)
	for _, p := range strongIncome {
		if strings.Contains(lower, p) {
			return true, true
		}
	}
	for _, p := range strongExpense {
		if strings.Contains(lower, p) {
			return false, true
		}
	}
	if strings.Contains(lower, "spend") && !strings.Contains(lower, "spending money on me") {
		return false, true
	}
	return false, false
}

// ClassifyFallback scores keywords and always decides. Ties go to expense.
func ClassifyFallback(text string) bool {
	lower := strings.ToLower(text)
	var income, expense int
	for _, k := range incomeKeywords {
		if strings.Contains(lower, k) {
			income += 2
		}
	}
	for _, k := range expenseKeywords {
		if strings.Contains(lower, k) {
			expense += 2
		}
	}
	if explicitIncomeRe.MatchString(lower) {
		income += 3
	}
	if explicitExpenseRe.MatchString(lower) {
		expense += 3
	}
	if strings.Contains(lower, "give") {
		if strings.Contains(lower, "me") {
			income++
		} else {
			expense++
		}
	}
	return income > expense
}

// Classifier decides whether a transaction message is income or expense.
type Classifier struct {
	llm llm.Completer
}

func NewClassifier(c llm.Completer) *Classifier {
	if c == nil {
		c = llm.Disabled{}
	}
	return &Classifier{llm: c}
}

type classifyAttempt func(ctx context.Context, text string) (Classification, bool)

// Classify never fails: remote errors degrade to the keyword scorer.
func (c *Classifier) Classify(ctx context.Context, text string) Classification {
	attempts := []classifyAttempt{c.local, c.remote}
	for _, attempt := range attempts {
		if res, ok := attempt(ctx, text); ok {
			return res
		}
	}
	return Classification{IsIncome: ClassifyFallback(text), Source: SourceFallback}
}

func (c *Classifier) local(_ context.Context, text string) (Classification, bool) {
	income, ok := ClassifyLocal(text)
	return Classification{IsIncome: income, Source: SourceLocal}, ok
}

func (c *Classifier) remote(ctx context.Context, text string) (Classification, bool) {
	out, err := c.llm.Complete(ctx, classifyPrompt(text))
	if err != nil {
		slog.WarnContext(ctx, "Remote classification failed", "error", err)
		return Classification{}, false
	}
	switch strings.ToUpper(strings.TrimSpace(out)) {
	case "INCOME":
		return Classification{IsIncome: true, Source: SourceRemote}, true
	case "EXPENSE":
		return Classification{IsIncome: false, Source: SourceRemote}, true
	default:
		slog.DebugContext(ctx, "Unclear remote classification", "reply", out)
		return Classification{}, false
	}
}
