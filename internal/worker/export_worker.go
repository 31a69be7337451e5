package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"saldo/internal/amqp"
	"saldo/internal/core"
	applog "saldo/internal/log"
	"saldo/internal/sheets"
)

// TransactionReader loads the current state of a transaction.
type TransactionReader interface {
	FindTransaction(ctx context.Context, id int64) (core.Transaction, error)
}

// ExportWorker mirrors transaction lifecycle events into a ledger sheet.
type ExportWorker struct {
	store  TransactionReader
	ledger sheets.LedgerWriter
}

func NewExportWorker(store TransactionReader, ledger sheets.LedgerWriter) *ExportWorker {
	return &ExportWorker{store: store, ledger: ledger}
}

// HandleEvent applies one event. Returning an error requeues the message.
func (w *ExportWorker) HandleEvent(ctx context.Context, msg *amqp.TransactionEvent) error {
	slog.InfoContext(ctx, "Processing transaction event",
		applog.FieldComponent, applog.ComponentWorker,
		applog.FieldOperation, applog.OpExport,
		"type", msg.Type,
		applog.FieldUserID, msg.UserID,
		applog.FieldRows, len(msg.IDs))

	switch msg.Type {
	case amqp.EventTransactionCreated, amqp.EventTransactionUpdated:
		return w.upsert(ctx, msg.IDs)
	case amqp.EventTransactionDeleted:
		if err := w.ledger.DeleteTransactions(ctx, msg.IDs); err != nil {
			return fmt.Errorf("delete ledger rows: %w", err)
		}
		return nil
	default:
		// Unknown types cannot succeed on retry.
		slog.WarnContext(ctx, "Ignoring unknown event type",
			applog.FieldComponent, applog.ComponentWorker,
			"type", msg.Type)
		return nil
	}
}

func (w *ExportWorker) upsert(ctx context.Context, ids []int64) error {
	txs := make([]core.Transaction, 0, len(ids))
	for _, id := range ids {
		tx, err := w.store.FindTransaction(ctx, id)
		if errors.Is(err, core.ErrNotFound) {
			// Deleted after the event was published; the delete event follows.
			slog.DebugContext(ctx, "Skipping vanished transaction", applog.FieldTransactionID, id)
			continue
		}
		if err != nil {
			return fmt.Errorf("load transaction %d: %w", id, err)
		}
		txs = append(txs, tx)
	}
	if len(txs) == 0 {
		return nil
	}

	if err := w.ledger.UpsertTransactions(ctx, txs); err != nil {
		return fmt.Errorf("write ledger rows: %w", err)
	}
	return nil
}
