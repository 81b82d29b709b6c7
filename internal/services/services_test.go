package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/storage/memory"
)

type recordingPublisher struct {
	mu      sync.Mutex
	created []string
	deleted []string
}

func (p *recordingPublisher) PublishTransactionCreated(_ context.Context, tx core.Transaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, tx.UniqueID)
	return nil
}

func (p *recordingPublisher) PublishTransactionDeleted(_ context.Context, uniqueID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleted = append(p.deleted, uniqueID)
	return nil
}

// sequence returns the given ids in order, repeating the last one.
func sequence(ids ...string) func() string {
	i := 0
	return func() string {
		id := ids[min(i, len(ids)-1)]
		i++
		return id
	}
}

var refTime = time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func seedTx(t *testing.T, store *memory.Store, id string, rupees int64, income bool, category string, at time.Time) core.Transaction {
	t.Helper()
	tx, err := store.CreateTransaction(context.Background(), core.Transaction{
		UniqueID:    id,
		Amount:      core.MustMoney(rupees),
		Category:    category,
		Description: "seed " + id,
		Date:        at,
		IsIncome:    income,
	})
	require.NoError(t, err)
	return tx
}
