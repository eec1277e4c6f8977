package worker

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/sheets"
	"fintrack/internal/storage"
)

// TransactionGetter loads a stored transaction by id.
type TransactionGetter interface {
	GetTransaction(ctx context.Context, id, userID int64) (core.Transaction, error)
}

// LedgerWorker copies stored transactions to an external ledger as their
// events arrive.
type LedgerWorker struct {
	storage TransactionGetter
	ledger  sheets.LedgerWriter
	logger  *applog.Logger
}

func NewLedgerWorker(storage TransactionGetter, ledger sheets.LedgerWriter, logger *applog.Logger) *LedgerWorker {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &LedgerWorker{
		storage: storage,
		ledger:  ledger,
		logger:  logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleEvent appends the transaction named by ev to the ledger. A
// transaction deleted before its event was handled is skipped. Any other
// failure is returned so the message is redelivered.
func (w *LedgerWorker) HandleEvent(ctx context.Context, ev *amqp.TransactionEvent) error {
	switch ev.Event {
	case amqp.EventCreated, amqp.EventMaterialized:
	default:
		w.logger.WarnContext(ctx, "Ignoring unknown event", "event", ev.Event, applog.FieldTransaction, ev.ID)
		return nil
	}

	tx, err := w.storage.GetTransaction(ctx, ev.ID, ev.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		w.logger.WarnContext(ctx, "Transaction no longer exists, skipping ledger sync",
			applog.FieldTransaction, ev.ID,
			applog.FieldSeriesID, ev.SeriesID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	ref, err := w.ledger.Append(ctx, tx)
	if err != nil {
		return fmt.Errorf("append transaction %d to ledger: %w", tx.ID, err)
	}

	w.logger.InfoContext(ctx, "Transaction synced to ledger",
		applog.FieldOperation, applog.OpSync,
		"event", ev.Event,
		applog.FieldTransaction, tx.ID,
		applog.FieldSeriesID, tx.SeriesID,
		applog.FieldDate, tx.Date.String(),
		"ref", ref)
	return nil
}
