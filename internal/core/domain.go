package core

import (
	"errors"
	"strings"
	"time"
)

// BaseCurrency is the currency every stored Transaction.Amount is expressed in.
const BaseCurrency = "INR"

// UniqueIDAlphabet and UniqueIDLength define the short human-readable transaction code.
const (
	UniqueIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	UniqueIDLength   = 5
)

const (
	MessageUser              MessageType = "USER_MESSAGE"
	MessageAI                MessageType = "AI_RESPONSE"
	MessageSystem            MessageType = "SYSTEM_NOTIFICATION"
	MessageInsight           MessageType = "FINANCIAL_INSIGHT"
	MessageSavingsGoalUpdate MessageType = "SAVINGS_GOAL_UPDATE"
	MessageEarningAnalysis   MessageType = "EARNING_ANALYSIS"
)

const (
	InsightSpendingPattern      InsightType = "SPENDING_PATTERN"
	InsightSavingOpportunity    InsightType = "SAVING_OPPORTUNITY"
	InsightBudgetWarning        InsightType = "BUDGET_WARNING"
	InsightIncomeAnalysis       InsightType = "INCOME_ANALYSIS"
	InsightGoalProgress         InsightType = "GOAL_PROGRESS"
	InsightCategoryOptimization InsightType = "CATEGORY_OPTIMIZATION"
	InsightMonthlySummary       InsightType = "MONTHLY_SUMMARY"
)

const (
	PriorityLow      InsightPriority = "LOW"
	PriorityMedium   InsightPriority = "MEDIUM"
	PriorityHigh     InsightPriority = "HIGH"
	PriorityCritical InsightPriority = "CRITICAL"
)

type (
	MessageType     string
	InsightType     string
	InsightPriority string

	Money struct {
		Cents int64
	}

	// OriginalCurrency is set only on transactions entered in a foreign currency.
	OriginalCurrency struct {
		Amount    Money // minor units of Currency
		Currency  string
		Rate      float64 // base currency units per one unit of Currency
		UpdatedAt time.Time
	}

	Transaction struct {
		ID          int64 // Database ID
		UniqueID    string
		Amount      Money
		Category    string
		Description string
		Date        time.Time
		IsIncome    bool
		Original    *OriginalCurrency
	}

	Budget struct {
		ID          int64
		Amount      Money
		Month       int // 1-12
		Year        int
		Description string
		CreatedAt   time.Time
	}

	ChatMessage struct {
		ID        int64
		Text      string
		IsUser    bool
		Timestamp time.Time
		Type      MessageType
		Metadata  string // optional JSON blob
	}

	SavingsGoal struct {
		ID          int64
		Title       string
		Target      Money
		Current     Money
		TargetDate  time.Time // zero when open-ended
		CreatedAt   time.Time
		Category    string
		Completed   bool
		Description string
		Priority    int // 1 high, 2 medium, 3 low
	}

	FinancialInsight struct {
		ID           int64
		Title        string
		Description  string
		Type         InsightType
		RelevantData string // JSON
		GeneratedAt  time.Time
		Read         bool
		ActionTaken  bool
		Priority     InsightPriority
		Confidence   float64
	}

	// DateRange is an inclusive interval of instants.
	DateRange struct {
		Start time.Time
		End   time.Time
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrInvalidYear        = errors.New("invalid year")
	ErrInvalidUniqueID    = errors.New("invalid unique id")
	ErrInvalidDate        = errors.New("invalid date")
	ErrEmptyDescription   = errors.New("empty description")
	ErrEmptyCategory      = errors.New("empty category")
	ErrEmptyTitle         = errors.New("empty title")
	ErrInvalidPriority    = errors.New("invalid priority")
	ErrInvalidMessageType = errors.New("invalid message type")
	ErrNotFound           = errors.New("not found")
)

// DefaultCategories is the fixed category list offered to the user.
var DefaultCategories = []string{
	"Food & Dining",
	"Transportation",
	"Shopping",
	"Entertainment",
	"Bills & Utilities",
	"Healthcare",
	"Education",
	"Travel",
	"Groceries",
	"Other",
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// ValidUniqueID reports whether id has the exact length and alphabet of a transaction code.
func ValidUniqueID(id string) bool {
	if len(id) != UniqueIDLength {
		return false
	}
	for _, r := range id {
		if !strings.ContainsRune(UniqueIDAlphabet, r) {
			return false
		}
	}
	return true
}

func (t Transaction) Validate() error {
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !ValidUniqueID(t.UniqueID) {
		return ErrInvalidUniqueID
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if t.Original != nil {
		if err := t.Original.Amount.Validate(); err != nil {
			return err
		}
		if len(t.Original.Currency) != 3 {
			return errors.New("invalid original currency")
		}
	}
	return nil
}

// SignedAmount returns the amount negated for expenses.
func (t Transaction) SignedAmount() Money {
	if t.IsIncome {
		return t.Amount
	}
	return Money{Cents: -t.Amount.Cents}
}

func (b Budget) Validate() error {
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if b.Month < 1 || b.Month > 12 {
		return ErrInvalidMonth
	}
	if b.Year < 1000 || b.Year > 9999 {
		return ErrInvalidYear
	}
	return nil
}

func (t MessageType) IsValid() bool {
	switch t {
	case MessageUser, MessageAI, MessageSystem, MessageInsight, MessageSavingsGoalUpdate, MessageEarningAnalysis:
		return true
	}
	return false
}

func (m ChatMessage) Validate() error {
	if !m.Type.IsValid() {
		return ErrInvalidMessageType
	}
	if m.Timestamp.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (g SavingsGoal) Validate() error {
	if strings.TrimSpace(g.Title) == "" {
		return ErrEmptyTitle
	}
	if err := g.Target.Validate(); err != nil {
		return err
	}
	if g.Current.Cents < 0 {
		return ErrInvalidAmount
	}
	if g.Priority < 1 || g.Priority > 3 {
		return ErrInvalidPriority
	}
	return nil
}

// ProgressPercent returns current/target as a percentage, 0 when the target is unset.
func (g SavingsGoal) ProgressPercent() float64 {
	if g.Target.Cents <= 0 {
		return 0
	}
	return float64(g.Current.Cents) / float64(g.Target.Cents) * 100
}

// Remaining is the amount still missing, never negative.
func (g SavingsGoal) Remaining() Money {
	if g.Current.Cents >= g.Target.Cents {
		return Money{}
	}
	return g.Target.Sub(g.Current)
}

func (t InsightType) IsValid() bool {
	switch t {
	case InsightSpendingPattern, InsightSavingOpportunity, InsightBudgetWarning, InsightIncomeAnalysis,
		InsightGoalProgress, InsightCategoryOptimization, InsightMonthlySummary:
		return true
	}
	return false
}

func (p InsightPriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

func (i FinancialInsight) Validate() error {
	if strings.TrimSpace(i.Title) == "" {
		return ErrEmptyTitle
	}
	if !i.Type.IsValid() {
		return errors.New("invalid insight type")
	}
	if !i.Priority.IsValid() {
		return ErrInvalidPriority
	}
	if i.Confidence < 0 || i.Confidence > 1 {
		return errors.New("confidence must be between 0 and 1")
	}
	return nil
}

// Contains reports whether t falls inside the inclusive range.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// SingleDay reports whether start and end fall on the same calendar day.
func (r DateRange) SingleDay() bool {
	y1, m1, d1 := r.Start.Date()
	y2, m2, d2 := r.End.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// DayRange returns the [00:00:00.000, 23:59:59.999] window of the day containing t.
func DayRange(t time.Time) DateRange {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return DateRange{Start: start, End: start.AddDate(0, 0, 1).Add(-time.Millisecond)}
}
