// Package memory is an in-process ports.Store used by the memory backend and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/events"
	"fintrack/internal/ports"
)

var _ ports.Store = (*Store)(nil)

type Store struct {
	mu       sync.Mutex
	hub      *events.Hub
	nextID   int64
	txs      []core.Transaction
	budgets  []core.Budget
	messages []core.ChatMessage
	goals    []core.SavingsGoal
	insights []core.FinancialInsight
}

func New() *Store {
	return &Store{hub: events.NewHub(32)}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) Close() error { return nil }

// Subscribe implements ports.Notifier
func (s *Store) Subscribe() (<-chan events.Change, func()) {
	return s.hub.Subscribe()
}

func cloneTx(tx core.Transaction) core.Transaction {
	if tx.Original != nil {
		o := *tx.Original
		tx.Original = &o
	}
	return tx
}

func sortNewestFirst(txs []core.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if txs[i].Date.Equal(txs[j].Date) {
			return txs[i].ID > txs[j].ID
		}
		return txs[i].Date.After(txs[j].Date)
	})
}

func (s *Store) filter(keep func(core.Transaction) bool) []core.Transaction {
	out := make([]core.Transaction, 0, len(s.txs))
	for _, tx := range s.txs {
		if keep(tx) {
			out = append(out, cloneTx(tx))
		}
	}
	sortNewestFirst(out)
	return out
}

func (s *Store) CreateTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("validate transaction: %w", err)
	}
	s.mu.Lock()
	tx.ID = s.id()
	s.txs = append(s.txs, cloneTx(tx))
	s.mu.Unlock()

	s.hub.Publish(events.EntityTransaction, events.OpCreated, tx.ID)
	return tx, nil
}

func (s *Store) UpdateTransaction(_ context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return fmt.Errorf("validate transaction: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.txs {
		if s.txs[i].ID == tx.ID {
			s.txs[i] = cloneTx(tx)
			s.hub.Publish(events.EntityTransaction, events.OpUpdated, tx.ID)
			return nil
		}
	}
	return fmt.Errorf("update transaction %d: %w", tx.ID, core.ErrNotFound)
}

func (s *Store) GetTransaction(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range s.txs {
		if tx.ID == id {
			return cloneTx(tx), nil
		}
	}
	return core.Transaction{}, fmt.Errorf("get transaction by id: %w", core.ErrNotFound)
}

func (s *Store) GetTransactionByUniqueID(_ context.Context, uniqueID string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range s.txs {
		if tx.UniqueID == uniqueID {
			return cloneTx(tx), nil
		}
	}
	return core.Transaction{}, fmt.Errorf("get transaction by unique id: %w", core.ErrNotFound)
}

func (s *Store) SearchByUniqueIDPrefix(_ context.Context, prefix string, limit int) ([]core.Transaction, error) {
	if limit <= 0 {
		limit = 10
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.filter(func(tx core.Transaction) bool { return strings.HasPrefix(tx.UniqueID, prefix) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter(func(core.Transaction) bool { return true }), nil
}

func (s *Store) ListTransactionsInRange(_ context.Context, r core.DateRange) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter(func(tx core.Transaction) bool { return r.Contains(tx.Date) }), nil
}

func (s *Store) ListTransactionsByCategory(_ context.Context, category string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter(func(tx core.Transaction) bool { return tx.Category == category }), nil
}

func (s *Store) ListForeignTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter(func(tx core.Transaction) bool { return tx.Original != nil }), nil
}

func (s *Store) DeleteTransactions(_ context.Context, ids []int64) error {
	drop := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	s.mu.Lock()
	kept := s.txs[:0]
	for _, tx := range s.txs {
		if _, ok := drop[tx.ID]; !ok {
			kept = append(kept, tx)
		}
	}
	s.txs = kept
	s.mu.Unlock()

	for _, id := range ids {
		s.hub.Publish(events.EntityTransaction, events.OpDeleted, id)
	}
	return nil
}

func (s *Store) DeleteAllTransactions(_ context.Context) (int, error) {
	s.mu.Lock()
	n := len(s.txs)
	s.txs = nil
	s.mu.Unlock()

	s.hub.Publish(events.EntityTransaction, events.OpDeleted, 0)
	return n, nil
}

func (s *Store) Totals(_ context.Context) (core.Totals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.ComputeTotals(s.txs), nil
}

func (s *Store) CategoryTotals(_ context.Context, income bool, r *core.DateRange) ([]core.CategoryAmount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sums := map[string]int64{}
	for _, tx := range s.txs {
		if tx.IsIncome != income || (r != nil && !r.Contains(tx.Date)) {
			continue
		}
		sums[tx.Category] += tx.Amount.Cents
	}
	out := make([]core.CategoryAmount, 0, len(sums))
	for name, cents := range sums {
		out = append(out, core.CategoryAmount{Name: name, Amount: core.Money{Cents: cents}})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents == out[j].Amount.Cents {
			return out[i].Name < out[j].Name
		}
		return out[i].Amount.Cents > out[j].Amount.Cents
	})
	return out, nil
}

func (s *Store) UpsertBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, fmt.Errorf("validate budget: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.budgets {
		if s.budgets[i].Month == b.Month && s.budgets[i].Year == b.Year {
			s.budgets[i].Amount = b.Amount
			s.budgets[i].Description = b.Description
			s.hub.Publish(events.EntityBudget, events.OpUpdated, s.budgets[i].ID)
			return s.budgets[i], nil
		}
	}
	b.ID = s.id()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	s.budgets = append(s.budgets, b)
	s.hub.Publish(events.EntityBudget, events.OpUpdated, b.ID)
	return b, nil
}

func (s *Store) GetBudget(_ context.Context, month, year int) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.budgets {
		if b.Month == month && b.Year == year {
			return b, nil
		}
	}
	return core.Budget{}, fmt.Errorf("get budget: %w", core.ErrNotFound)
}

func (s *Store) ListBudgets(_ context.Context) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]core.Budget(nil), s.budgets...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year == out[j].Year {
			return out[i].Month > out[j].Month
		}
		return out[i].Year > out[j].Year
	})
	return out, nil
}

func (s *Store) DeleteBudget(_ context.Context, month, year int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, b := range s.budgets {
		if b.Month == month && b.Year == year {
			s.budgets = append(s.budgets[:i], s.budgets[i+1:]...)
			s.hub.Publish(events.EntityBudget, events.OpDeleted, 0)
			return nil
		}
	}
	return fmt.Errorf("delete budget %d/%d: %w", month, year, core.ErrNotFound)
}

func (s *Store) AddMessage(_ context.Context, m core.ChatMessage) (core.ChatMessage, error) {
	if err := m.Validate(); err != nil {
		return core.ChatMessage{}, fmt.Errorf("validate chat message: %w", err)
	}
	s.mu.Lock()
	m.ID = s.id()
	s.messages = append(s.messages, m)
	s.mu.Unlock()

	s.hub.Publish(events.EntityChat, events.OpCreated, m.ID)
	return m, nil
}

func (s *Store) ListMessages(_ context.Context) ([]core.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]core.ChatMessage(nil), s.messages...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (s *Store) CountMessages(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages), nil
}

func (s *Store) DeleteMessagesBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	kept := s.messages[:0]
	for _, m := range s.messages {
		if !m.Timestamp.Before(cutoff) {
			kept = append(kept, m)
		}
	}
	n := len(s.messages) - len(kept)
	s.messages = kept
	s.mu.Unlock()

	if n > 0 {
		s.hub.Publish(events.EntityChat, events.OpDeleted, 0)
	}
	return n, nil
}

func (s *Store) DeleteAllMessages(_ context.Context) error {
	s.mu.Lock()
	s.messages = nil
	s.mu.Unlock()
	s.hub.Publish(events.EntityChat, events.OpDeleted, 0)
	return nil
}

func (s *Store) CreateGoal(_ context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, fmt.Errorf("validate savings goal: %w", err)
	}
	s.mu.Lock()
	g.ID = s.id()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now()
	}
	s.goals = append(s.goals, g)
	s.mu.Unlock()

	s.hub.Publish(events.EntityGoal, events.OpCreated, g.ID)
	return g, nil
}

func (s *Store) UpdateGoal(_ context.Context, g core.SavingsGoal) error {
	if err := g.Validate(); err != nil {
		return fmt.Errorf("validate savings goal: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.goals {
		if s.goals[i].ID == g.ID {
			g.CreatedAt = s.goals[i].CreatedAt
			s.goals[i] = g
			s.hub.Publish(events.EntityGoal, events.OpUpdated, g.ID)
			return nil
		}
	}
	return fmt.Errorf("update savings goal %d: %w", g.ID, core.ErrNotFound)
}

func (s *Store) GetGoal(_ context.Context, id int64) (core.SavingsGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.goals {
		if g.ID == id {
			return g, nil
		}
	}
	return core.SavingsGoal{}, fmt.Errorf("get savings goal: %w", core.ErrNotFound)
}

func (s *Store) ListGoals(_ context.Context) ([]core.SavingsGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]core.SavingsGoal(nil), s.goals...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Completed != out[j].Completed {
			return !out[i].Completed
		}
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) DeleteGoal(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, g := range s.goals {
		if g.ID == id {
			s.goals = append(s.goals[:i], s.goals[i+1:]...)
			s.hub.Publish(events.EntityGoal, events.OpDeleted, id)
			return nil
		}
	}
	return fmt.Errorf("delete savings goal %d: %w", id, core.ErrNotFound)
}

func (s *Store) CreateInsight(_ context.Context, in core.FinancialInsight) (core.FinancialInsight, error) {
	if err := in.Validate(); err != nil {
		return core.FinancialInsight{}, fmt.Errorf("validate insight: %w", err)
	}
	s.mu.Lock()
	in.ID = s.id()
	if in.GeneratedAt.IsZero() {
		in.GeneratedAt = time.Now()
	}
	if in.RelevantData == "" {
		in.RelevantData = "{}"
	}
	s.insights = append(s.insights, in)
	s.mu.Unlock()

	s.hub.Publish(events.EntityInsight, events.OpCreated, in.ID)
	return in, nil
}

func (s *Store) ListInsights(_ context.Context, unreadOnly bool) ([]core.FinancialInsight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.FinancialInsight, 0, len(s.insights))
	for _, in := range s.insights {
		if unreadOnly && in.Read {
			continue
		}
		out = append(out, in)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].GeneratedAt.After(out[j].GeneratedAt) })
	return out, nil
}

func (s *Store) updateInsight(id int64, fn func(*core.FinancialInsight)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.insights {
		if s.insights[i].ID == id {
			fn(&s.insights[i])
			s.hub.Publish(events.EntityInsight, events.OpUpdated, id)
			return nil
		}
	}
	return fmt.Errorf("update insight %d: %w", id, core.ErrNotFound)
}

func (s *Store) MarkInsightRead(_ context.Context, id int64) error {
	return s.updateInsight(id, func(i *core.FinancialInsight) { i.Read = true })
}

func (s *Store) MarkInsightActionTaken(_ context.Context, id int64) error {
	return s.updateInsight(id, func(i *core.FinancialInsight) { i.ActionTaken = true })
}

func (s *Store) DeleteInsightsBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	kept := s.insights[:0]
	for _, in := range s.insights {
		if !in.GeneratedAt.Before(cutoff) {
			kept = append(kept, in)
		}
	}
	n := len(s.insights) - len(kept)
	s.insights = kept
	s.mu.Unlock()

	if n > 0 {
		s.hub.Publish(events.EntityInsight, events.OpDeleted, 0)
	}
	return n, nil
}
