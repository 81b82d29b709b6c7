// Package services provides business logic and orchestration services.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/chat"
	"fintrack/internal/core"
	"fintrack/internal/ports"
)

const (
	// RecentDeleteCount is how many transactions "delete recent" removes.
	RecentDeleteCount = 5
	// PrefixSearchLimit caps unique-id prefix searches.
	PrefixSearchLimit = 10

	totalsCacheKey = "totals"
	totalsCacheTTL = 10 * time.Second
	maxIDAttempts  = 5
	trendWindow    = 30 * 24 * time.Hour
)

var ErrIDExhausted = errors.New("could not allocate a free transaction id")

// TransactionService orchestrates transaction writes across the store and
// the event publisher and caches the running totals. Writes are serialized
// so read-then-write sequences such as id allocation and "delete recent"
// see a consistent store.
type TransactionService struct {
	store     ports.TransactionStore
	publisher ports.EventPublisher
	newID     func() string
	now       func() time.Time

	writeMu sync.Mutex

	// gen counts invalidations; a totals read only fills the cache when
	// no write landed while it was in flight.
	totalsMu sync.Mutex
	gen      uint64
	totals   *cache.LRUCache[core.Totals]
}

// NewTransactionService accepts a nil publisher when events are disabled.
func NewTransactionService(store ports.TransactionStore, publisher ports.EventPublisher) *TransactionService {
	return &TransactionService{
		store:     store,
		publisher: publisher,
		totals:    cache.NewLRUCache[core.Totals](1, totalsCacheTTL),
		newID:     chat.NewUniqueID,
		now:       time.Now,
	}
}

// TotalsCache exposes the cache so a cache.Manager can sweep it.
func (s *TransactionService) TotalsCache() cache.Cleaner { return s.totals }

// Create assigns a free unique id when tx has none, stores it and publishes
// a created event.
func (s *TransactionService) Create(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if tx.Date.IsZero() {
		tx.Date = s.now()
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if tx.UniqueID == "" {
		id, err := s.freeID(ctx)
		if err != nil {
			return core.Transaction{}, err
		}
		tx.UniqueID = id
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("validate transaction: %w", err)
	}

	saved, err := s.store.CreateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.invalidate()

	slog.InfoContext(ctx, "Transaction created",
		"unique_id", saved.UniqueID,
		"amount", saved.Amount.String(),
		"income", saved.IsIncome,
		"category", saved.Category)

	if s.publisher != nil {
		if err := s.publisher.PublishTransactionCreated(ctx, saved); err != nil {
			// the transaction is saved locally
			slog.ErrorContext(ctx, "Failed to publish transaction created", "unique_id", saved.UniqueID, "error", err)
		}
	}
	return saved, nil
}

// freeID draws random ids until one is not taken.
func (s *TransactionService) freeID(ctx context.Context) (string, error) {
	for range maxIDAttempts {
		id := s.newID()
		_, err := s.store.GetTransactionByUniqueID(ctx, id)
		if errors.Is(err, core.ErrNotFound) {
			return id, nil
		}
		if err != nil {
			return "", fmt.Errorf("check unique id: %w", err)
		}
		slog.DebugContext(ctx, "Unique id collision, retrying", "unique_id", id)
	}
	return "", ErrIDExhausted
}

// Update rewrites a stored transaction, used by the rate updater.
func (s *TransactionService) Update(ctx context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return fmt.Errorf("validate transaction: %w", err)
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.store.UpdateTransaction(ctx, tx); err != nil {
		return fmt.Errorf("update transaction %s: %w", tx.UniqueID, err)
	}
	s.invalidate()
	return nil
}

// Totals returns income, expense and count, served from cache for a short while.
func (s *TransactionService) Totals(ctx context.Context) (core.Totals, error) {
	s.totalsMu.Lock()
	if t, ok := s.totals.Get(totalsCacheKey); ok {
		s.totalsMu.Unlock()
		return t, nil
	}
	gen := s.gen
	s.totalsMu.Unlock()

	t, err := s.store.Totals(ctx)
	if err != nil {
		return core.Totals{}, fmt.Errorf("load totals: %w", err)
	}

	s.totalsMu.Lock()
	if s.gen == gen {
		s.totals.Set(totalsCacheKey, t)
	}
	s.totalsMu.Unlock()
	return t, nil
}

func (s *TransactionService) invalidate() {
	s.totalsMu.Lock()
	defer s.totalsMu.Unlock()
	s.gen++
	s.totals.Delete(totalsCacheKey)
}

// Summary is the balance report with the expense breakdown by category.
func (s *TransactionService) Summary(ctx context.Context) (core.Summary, error) {
	totals, err := s.Totals(ctx)
	if err != nil {
		return core.Summary{}, err
	}
	cats, err := s.store.CategoryTotals(ctx, false, nil)
	if err != nil {
		return core.Summary{}, fmt.Errorf("load category totals: %w", err)
	}
	return core.Summary{Totals: totals, ByCategory: withPercentages(cats)}, nil
}

// SpendingTrends sums expenses per category over the last 30 days, largest first.
func (s *TransactionService) SpendingTrends(ctx context.Context) ([]core.CategoryAmount, error) {
	now := s.now()
	r := core.DateRange{Start: now.Add(-trendWindow), End: now}
	cats, err := s.store.CategoryTotals(ctx, false, &r)
	if err != nil {
		return nil, fmt.Errorf("load spending trends: %w", err)
	}
	return withPercentages(cats), nil
}

// CategoryTotal is the expense total of one category.
func (s *TransactionService) CategoryTotal(ctx context.Context, category string) (core.Money, error) {
	txs, err := s.store.ListTransactionsByCategory(ctx, category)
	if err != nil {
		return core.Money{}, fmt.Errorf("list category %s: %w", category, err)
	}
	return core.ComputeTotals(txs).Expenses, nil
}

func (s *TransactionService) List(ctx context.Context) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx)
}

func (s *TransactionService) InRange(ctx context.Context, r core.DateRange) ([]core.Transaction, error) {
	return s.store.ListTransactionsInRange(ctx, r)
}

func (s *TransactionService) ByCategory(ctx context.Context, category string) ([]core.Transaction, error) {
	return s.store.ListTransactionsByCategory(ctx, category)
}

func (s *TransactionService) GetByUniqueID(ctx context.Context, uniqueID string) (core.Transaction, error) {
	return s.store.GetTransactionByUniqueID(ctx, uniqueID)
}

func (s *TransactionService) SearchByPrefix(ctx context.Context, prefix string) ([]core.Transaction, error) {
	return s.store.SearchByUniqueIDPrefix(ctx, prefix, PrefixSearchLimit)
}

func (s *TransactionService) ListForeign(ctx context.Context) ([]core.Transaction, error) {
	return s.store.ListForeignTransactions(ctx)
}

// DeleteRecent removes the min(n, count) newest transactions and reports the
// removed amounts along with the totals that remain.
func (s *TransactionService) DeleteRecent(ctx context.Context, n int) (removed []core.Transaction, remaining core.Totals, err error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	all, err := s.store.ListTransactions(ctx)
	if err != nil {
		return nil, core.Totals{}, fmt.Errorf("list transactions: %w", err)
	}
	if len(all) == 0 {
		return nil, core.Totals{}, nil
	}
	removed = all[:min(n, len(all))]

	ids := make([]int64, len(removed))
	for i, tx := range removed {
		ids[i] = tx.ID
	}
	if err := s.store.DeleteTransactions(ctx, ids); err != nil {
		return nil, core.Totals{}, fmt.Errorf("delete recent transactions: %w", err)
	}
	s.invalidate()
	s.publishDeleted(ctx, removed)

	remaining, err = s.Totals(ctx)
	if err != nil {
		return removed, core.Totals{}, err
	}
	slog.InfoContext(ctx, "Deleted recent transactions", "count", len(removed), "remaining", remaining.Count)
	return removed, remaining, nil
}

// DeleteAll clears every transaction and returns the totals before deletion.
func (s *TransactionService) DeleteAll(ctx context.Context) (before core.Totals, deleted int, err error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	all, err := s.store.ListTransactions(ctx)
	if err != nil {
		return core.Totals{}, 0, fmt.Errorf("list transactions: %w", err)
	}
	before = core.ComputeTotals(all)

	deleted, err = s.store.DeleteAllTransactions(ctx)
	if err != nil {
		return before, 0, fmt.Errorf("delete all transactions: %w", err)
	}
	s.invalidate()
	s.publishDeleted(ctx, all)

	slog.InfoContext(ctx, "Deleted all transactions", "count", deleted)
	return before, deleted, nil
}

func (s *TransactionService) publishDeleted(ctx context.Context, txs []core.Transaction) {
	if s.publisher == nil {
		return
	}
	for _, tx := range txs {
		if err := s.publisher.PublishTransactionDeleted(ctx, tx.UniqueID); err != nil {
			slog.ErrorContext(ctx, "Failed to publish transaction deleted", "unique_id", tx.UniqueID, "error", err)
		}
	}
}

// withPercentages sorts descending by amount and fills each share of the total.
func withPercentages(cats []core.CategoryAmount) []core.CategoryAmount {
	out := make([]core.CategoryAmount, len(cats))
	copy(out, cats)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Amount.Cents > out[j].Amount.Cents })

	var total int64
	for _, c := range out {
		total += c.Amount.Cents
	}
	if total == 0 {
		return out
	}
	for i := range out {
		out[i].Percent = float64(out[i].Amount.Cents) / float64(total) * 100
	}
	return out
}
