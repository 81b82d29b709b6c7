package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
	"fintrack/internal/llm"
	"fintrack/internal/ports"
)

const (
	// DefaultInsightRetention is how long insights are kept by Cleanup.
	DefaultInsightRetention = 90 * 24 * time.Hour

	recentContextSize = 20
	fallbackTitle     = "AI Financial Insight"
	monthlyTitle      = "Monthly Financial Summary"
)

const (
	spendingUnavailable = "Unable to analyze spending patterns at this time."
	savingsUnavailable  = "Unable to generate savings advice at this time."
	earningsUnavailable = "Unable to analyze earnings trends at this time."
)

// financialContext is the snapshot sent to the model with every insight prompt.
type financialContext struct {
	TotalExpenses        float64            `json:"totalExpenses"`
	TotalIncome          float64            `json:"totalIncome"`
	CurrentBalance       float64            `json:"currentBalance"`
	MonthlyIncome        float64            `json:"monthlyIncome"`
	Last30DaysExpenses   float64            `json:"last30DaysExpenses"`
	TransactionCount     int                `json:"transactionCount"`
	CategoryBreakdown    map[string]float64 `json:"categoryBreakdown"`
	SavingsTarget        float64            `json:"savingsTarget"`
	CurrentSavings       float64            `json:"currentSavings"`
	ActiveSavingsGoals   int                `json:"activeSavingsGoals"`
	CompletedGoalsCount  int                `json:"completedGoalsCount"`
	AverageTransaction   float64            `json:"averageTransactionAmount"`
	HighestExpenseCat    string             `json:"highestExpenseCategory"`
	RecentTransactionCnt int                `json:"recentTransactionsCount"`
}

type insightReply struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	Priority    string   `json:"priority"`
	Confidence  *float64 `json:"confidence"`
}

// InsightService asks the model for financial insights and stores them.
type InsightService struct {
	transactions ports.TransactionStore
	goals        ports.GoalStore
	insights     ports.InsightStore
	llm          llm.Completer
	now          func() time.Time
}

func NewInsightService(transactions ports.TransactionStore, goals ports.GoalStore, insights ports.InsightStore, c llm.Completer) *InsightService {
	if c == nil {
		c = llm.Disabled{}
	}
	return &InsightService{transactions: transactions, goals: goals, insights: insights, llm: c, now: time.Now}
}

// buildContext reads transactions, category totals and goals concurrently.
func (s *InsightService) buildContext(ctx context.Context) (string, error) {
	var (
		txs   []core.Transaction
		cats  []core.CategoryAmount
		goals []core.SavingsGoal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		txs, err = s.transactions.ListTransactions(gctx)
		return err
	})
	g.Go(func() (err error) {
		cats, err = s.transactions.CategoryTotals(gctx, false, nil)
		return err
	})
	g.Go(func() (err error) {
		goals, err = s.goals.ListGoals(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return "", fmt.Errorf("build financial context: %w", err)
	}

	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	last30 := now.AddDate(0, 0, -30)

	totals := core.ComputeTotals(txs)
	fc := financialContext{
		TotalExpenses:     totals.Expenses.Rupees(),
		TotalIncome:       totals.Income.Rupees(),
		CurrentBalance:    totals.Balance().Rupees(),
		TransactionCount:  len(txs),
		CategoryBreakdown: make(map[string]float64, len(cats)),
		HighestExpenseCat: "None",
	}
	var sum core.Money
	for _, tx := range txs {
		sum = sum.Add(tx.Amount)
		switch {
		case tx.IsIncome && !tx.Date.Before(monthStart):
			fc.MonthlyIncome += tx.Amount.Rupees()
		case !tx.IsIncome && !tx.Date.Before(last30):
			fc.Last30DaysExpenses += tx.Amount.Rupees()
		}
	}
	if len(txs) > 0 {
		fc.AverageTransaction = sum.Rupees() / float64(len(txs))
	}
	fc.RecentTransactionCnt = min(len(txs), recentContextSize)

	var highest core.Money
	for _, c := range cats {
		if c.Amount.Cents <= 0 {
			continue
		}
		fc.CategoryBreakdown[c.Name] = c.Amount.Rupees()
		if c.Amount.Cents > highest.Cents {
			highest, fc.HighestExpenseCat = c.Amount, c.Name
		}
	}
	for _, goal := range goals {
		fc.SavingsTarget += goal.Target.Rupees()
		fc.CurrentSavings += goal.Current.Rupees()
		if goal.Completed {
			fc.CompletedGoalsCount++
		} else {
			fc.ActiveSavingsGoals++
		}
	}

	b, err := json.Marshal(fc)
	if err != nil {
		return "", fmt.Errorf("marshal financial context: %w", err)
	}
	return string(b), nil
}

// Generate asks for one structured insight and stores it. A reply that is
// not valid insight JSON is stored verbatim as a generic spending insight.
func (s *InsightService) Generate(ctx context.Context) (core.FinancialInsight, error) {
	fc, err := s.buildContext(ctx)
	if err != nil {
		return core.FinancialInsight{}, err
	}
	out, err := s.llm.Complete(ctx, insightPrompt(fc))
	if err != nil {
		return core.FinancialInsight{}, fmt.Errorf("generate insight: %w", err)
	}
	if strings.TrimSpace(out) == "" {
		return core.FinancialInsight{}, fmt.Errorf("generate insight: empty reply")
	}

	insight, ok := parseInsight(out)
	if !ok {
		insight = core.FinancialInsight{
			Title:       fallbackTitle,
			Description: strings.TrimSpace(out),
			Type:        core.InsightSpendingPattern,
			Priority:    core.PriorityMedium,
			Confidence:  0.7,
		}
	}
	insight.RelevantData = fc
	return s.store(ctx, insight)
}

func parseInsight(out string) (core.FinancialInsight, bool) {
	body := llm.FirstObject(llm.StripCodeFences(out))
	if body == "" {
		return core.FinancialInsight{}, false
	}
	var r insightReply
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return core.FinancialInsight{}, false
	}
	if r.Confidence == nil || strings.TrimSpace(r.Description) == "" {
		return core.FinancialInsight{}, false
	}
	insight := core.FinancialInsight{
		Title:       strings.TrimSpace(r.Title),
		Description: strings.TrimSpace(r.Description),
		Type:        core.InsightType(strings.ToUpper(strings.TrimSpace(r.Type))),
		Priority:    core.InsightPriority(strings.ToUpper(strings.TrimSpace(r.Priority))),
		Confidence:  *r.Confidence,
	}
	if insight.Validate() != nil {
		return core.FinancialInsight{}, false
	}
	return insight, true
}

// MonthlySummary stores the model's free-text monthly summary as an insight.
func (s *InsightService) MonthlySummary(ctx context.Context) (core.FinancialInsight, error) {
	fc, err := s.buildContext(ctx)
	if err != nil {
		return core.FinancialInsight{}, err
	}
	out, err := s.llm.Complete(ctx, monthlySummaryPrompt(fc))
	if err != nil {
		return core.FinancialInsight{}, fmt.Errorf("monthly summary: %w", err)
	}
	return s.store(ctx, core.FinancialInsight{
		Title:        monthlyTitle,
		Description:  strings.TrimSpace(out),
		Type:         core.InsightMonthlySummary,
		RelevantData: fc,
		Priority:     core.PriorityMedium,
		Confidence:   0.9,
	})
}

func (s *InsightService) store(ctx context.Context, i core.FinancialInsight) (core.FinancialInsight, error) {
	i.GeneratedAt = s.now()
	saved, err := s.insights.CreateInsight(ctx, i)
	if err != nil {
		return core.FinancialInsight{}, fmt.Errorf("store insight: %w", err)
	}
	slog.InfoContext(ctx, "Financial insight stored",
		"id", saved.ID,
		"type", saved.Type,
		"priority", saved.Priority)
	return saved, nil
}

func (s *InsightService) SpendingAnalysis(ctx context.Context) string {
	return s.query(ctx, spendingAnalysisPrompt, spendingUnavailable)
}

func (s *InsightService) SavingsAdvice(ctx context.Context) string {
	return s.query(ctx, savingsAdvicePrompt, savingsUnavailable)
}

func (s *InsightService) EarningsTrends(ctx context.Context) string {
	return s.query(ctx, earningsPrompt, earningsUnavailable)
}

// query never fails; any error yields the fixed fallback text.
func (s *InsightService) query(ctx context.Context, prompt func(string) string, fallback string) string {
	fc, err := s.buildContext(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Financial context unavailable", "error", err)
		return fallback
	}
	out, err := s.llm.Complete(ctx, prompt(fc))
	if err != nil || strings.TrimSpace(out) == "" {
		slog.WarnContext(ctx, "Insight query failed", "error", err)
		return fallback
	}
	return strings.TrimSpace(out)
}

func (s *InsightService) Unread(ctx context.Context) ([]core.FinancialInsight, error) {
	return s.insights.ListInsights(ctx, true)
}

func (s *InsightService) List(ctx context.Context) ([]core.FinancialInsight, error) {
	return s.insights.ListInsights(ctx, false)
}

func (s *InsightService) MarkRead(ctx context.Context, id int64) error {
	return s.insights.MarkInsightRead(ctx, id)
}

func (s *InsightService) MarkActionTaken(ctx context.Context, id int64) error {
	return s.insights.MarkInsightActionTaken(ctx, id)
}

// Cleanup deletes insights generated more than retention ago.
func (s *InsightService) Cleanup(ctx context.Context, retention time.Duration) (int, error) {
	if retention <= 0 {
		retention = DefaultInsightRetention
	}
	n, err := s.insights.DeleteInsightsBefore(ctx, s.now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("delete old insights: %w", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "Old insights removed", "count", n)
	}
	return n, nil
}
