package core

import (
	"errors"
	"testing"
	"time"
)

func validTransaction() Transaction {
	return Transaction{
		UniqueID:    "AB12Z",
		Amount:      MustMoney(50),
		Category:    "Transportation",
		Description: "Paid 50 for uber",
		Date:        time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC),
	}
}

func TestTransactionValidate(t *testing.T) {
	if err := validTransaction().Validate(); err != nil {
		t.Fatalf("expected valid transaction, got %v", err)
	}

	cases := []struct {
		name string
		mut  func(*Transaction)
		want error
	}{
		{"zero amount", func(tx *Transaction) { tx.Amount = Money{} }, ErrInvalidAmount},
		{"short id", func(tx *Transaction) { tx.UniqueID = "AB1" }, ErrInvalidUniqueID},
		{"lowercase id", func(tx *Transaction) { tx.UniqueID = "ab12z" }, ErrInvalidUniqueID},
		{"no date", func(tx *Transaction) { tx.Date = time.Time{} }, ErrInvalidDate},
		{"blank description", func(tx *Transaction) { tx.Description = "  " }, ErrEmptyDescription},
		{"blank category", func(tx *Transaction) { tx.Category = "" }, ErrEmptyCategory},
	}
	for _, tc := range cases {
		tx := validTransaction()
		tc.mut(&tx)
		if err := tx.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestBudgetValidate(t *testing.T) {
	ok := Budget{Amount: MustMoney(1000), Month: 3, Year: 2026}
	if err := ok.Validate(); err != nil {
		t.Fatalf("expected valid budget, got %v", err)
	}
	bad := ok
	bad.Month = 13
	if err := bad.Validate(); !errors.Is(err, ErrInvalidMonth) {
		t.Fatalf("expected ErrInvalidMonth, got %v", err)
	}
	bad = ok
	bad.Year = 26
	if err := bad.Validate(); !errors.Is(err, ErrInvalidYear) {
		t.Fatalf("expected ErrInvalidYear, got %v", err)
	}
}

func TestSavingsGoalProgress(t *testing.T) {
	g := SavingsGoal{Title: "Bike", Target: MustMoney(1000), Current: MustMoney(250), Priority: 2}
	if p := g.ProgressPercent(); p != 25 {
		t.Fatalf("expected 25%%, got %v", p)
	}
	if r := g.Remaining(); r != MustMoney(750) {
		t.Fatalf("expected 750 remaining, got %v", r)
	}
	g.Current = MustMoney(1500)
	if r := g.Remaining(); !r.IsZero() {
		t.Fatalf("expected zero remaining when over target, got %v", r)
	}
	if p := (SavingsGoal{}).ProgressPercent(); p != 0 {
		t.Fatalf("expected 0%% without target, got %v", p)
	}
}

func TestDayRange(t *testing.T) {
	at := time.Date(2026, 10, 14, 18, 30, 0, 0, time.UTC)
	r := DayRange(at)
	if !r.Start.Equal(time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start %v", r.Start)
	}
	if !r.End.Equal(time.Date(2026, 10, 14, 23, 59, 59, 999_000_000, time.UTC)) {
		t.Fatalf("unexpected end %v", r.End)
	}
	if !r.SingleDay() || !r.Contains(at) {
		t.Fatalf("expected single day range containing %v", at)
	}
}

func TestComputeTotals(t *testing.T) {
	txs := []Transaction{
		{Amount: MustMoney(5000), IsIncome: true},
		{Amount: MustMoney(50)},
		{Amount: MustMoney(25)},
	}
	got := ComputeTotals(txs)
	if got.Income != MustMoney(5000) || got.Expenses != MustMoney(75) || got.Count != 3 {
		t.Fatalf("unexpected totals %+v", got)
	}
	if got.Balance() != MustMoney(4925) {
		t.Fatalf("unexpected balance %v", got.Balance())
	}
}
