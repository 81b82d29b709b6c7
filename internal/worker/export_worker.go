// Package worker holds the background jobs of the worker process.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/ports"
)

const DefaultBatchSize = 50

// Exporter is a ports.TransactionExporter that can list what it already holds.
type Exporter interface {
	ports.TransactionExporter
	ExportedIDs(ctx context.Context) (map[string]struct{}, error)
}

// ExportWorker mirrors transaction events into the spreadsheet.
type ExportWorker struct {
	exporter  Exporter
	store     ports.TransactionStore
	batchSize int
}

// NewExportWorker accepts a nil store, in which case Reconcile is a no-op.
func NewExportWorker(exporter Exporter, store ports.TransactionStore, batchSize int) *ExportWorker {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &ExportWorker{exporter: exporter, store: store, batchSize: batchSize}
}

// HandleEvent processes a single AMQP transaction event.
func (w *ExportWorker) HandleEvent(ctx context.Context, msg *amqp.TransactionEvent) error {
	slog.InfoContext(ctx, "Processing transaction event",
		"type", msg.Type,
		"unique_id", msg.UniqueID,
		"message_id", msg.MessageID)

	switch msg.Type {
	case amqp.EventTransactionCreated:
		if msg.Transaction == nil {
			return fmt.Errorf("created event %s without transaction", msg.MessageID)
		}
		ref, err := w.exporter.Export(ctx, msg.Transaction.CoreTransaction())
		if err != nil {
			return fmt.Errorf("export transaction %s: %w", msg.UniqueID, err)
		}
		slog.InfoContext(ctx, "Successfully exported transaction",
			"unique_id", msg.UniqueID,
			"sheets_ref", ref,
			"amount_cents", msg.Transaction.AmountCents)
	case amqp.EventTransactionDeleted:
		if err := w.exporter.Remove(ctx, msg.UniqueID); err != nil {
			return fmt.Errorf("remove transaction %s: %w", msg.UniqueID, err)
		}
		slog.InfoContext(ctx, "Successfully removed transaction", "unique_id", msg.UniqueID)
	default:
		return fmt.Errorf("unknown event type %q", msg.Type)
	}
	return nil
}

// Reconcile exports up to batchSize stored transactions missing from the
// sheet. It recovers from lost messages and worker downtime when the worker
// shares the API's store.
func (w *ExportWorker) Reconcile(ctx context.Context) (int, error) {
	if w.store == nil {
		return 0, nil
	}
	exported, err := w.exporter.ExportedIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("read exported ids: %w", err)
	}
	txs, err := w.store.ListTransactions(ctx)
	if err != nil {
		return 0, fmt.Errorf("list transactions: %w", err)
	}

	synced, failed := 0, 0
	for i := len(txs) - 1; i >= 0 && synced+failed < w.batchSize; i-- {
		tx := txs[i] // oldest first keeps sheet order chronological
		if _, ok := exported[tx.UniqueID]; ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return synced, err
		}
		if _, err := w.exporter.Export(ctx, tx); err != nil {
			slog.ErrorContext(ctx, "Failed to export pending transaction", "unique_id", tx.UniqueID, "error", err)
			failed++
			continue
		}
		synced++
	}

	if synced+failed > 0 {
		slog.InfoContext(ctx, "Reconcile completed",
			"synced", synced,
			"errors", failed)
	}
	return synced, nil
}
