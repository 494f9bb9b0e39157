package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"contas/internal/amqp"
	"contas/internal/core"
	"contas/internal/sheets"
	"contas/internal/storage"
)

// MirrorWorker copies committed transactions to the spreadsheet mirror.
// Events drive it; the periodic sweep picks up whatever an event missed.
type MirrorWorker struct {
	storage   *storage.SQLiteRepository
	mirror    sheets.TransactionMirror
	batchSize int
}

func NewMirrorWorker(storage *storage.SQLiteRepository, mirror sheets.TransactionMirror, batchSize int) *MirrorWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &MirrorWorker{storage: storage, mirror: mirror, batchSize: batchSize}
}

// HandleMessage adapts HandleLedgerEvent to the AMQP consumer.
func (w *MirrorWorker) HandleMessage(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	slog.InfoContext(ctx, "Processing ledger event",
		"id", msg.ID,
		"user_id", msg.UserID,
		"reason", msg.Reason)
	return w.HandleLedgerEvent(ctx, msg.Event())
}

// HandleLedgerEvent mirrors the event's transactions that are not mirrored
// yet. Redelivered events are no-ops.
func (w *MirrorWorker) HandleLedgerEvent(ctx context.Context, ev core.LedgerEvent) error {
	if len(ev.TransactionIDs) == 0 {
		return nil
	}
	txs, err := w.storage.Queries().ListUnmirroredByIDs(ctx, ev.TransactionIDs)
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}
	if _, err := w.mirrorBatch(ctx, txs); err != nil {
		return err
	}
	return nil
}

// ProcessPending mirrors up to one batch of transactions that have no mirror
// entry and returns how many it copied.
func (w *MirrorWorker) ProcessPending(ctx context.Context) (int, error) {
	txs, err := w.storage.Queries().ListUnmirrored(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("get pending transactions: %w", err)
	}
	if len(txs) == 0 {
		return 0, nil
	}
	slog.InfoContext(ctx, "Processing pending transactions", "count", len(txs))
	return w.mirrorBatch(ctx, txs)
}

// Drain runs ProcessPending until nothing is left. Used at startup to catch
// up after downtime.
func (w *MirrorWorker) Drain(ctx context.Context) (int, error) {
	total := 0
	for {
		n, err := w.ProcessPending(ctx)
		total += n
		if err != nil || n < w.batchSize {
			if err == nil && total > 0 {
				slog.InfoContext(ctx, "Startup mirror sync completed", "mirrored", total)
			}
			return total, err
		}
		if err := ctx.Err(); err != nil {
			return total, err
		}
	}
}

// Run sweeps every interval until ctx is done.
func (w *MirrorWorker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := w.ProcessPending(ctx); err != nil {
				slog.ErrorContext(ctx, "Pending mirror sweep failed", "error", err)
			}
		}
	}
}

func (w *MirrorWorker) mirrorBatch(ctx context.Context, txs []core.Transaction) (int, error) {
	if len(txs) == 0 {
		return 0, nil
	}
	ref, err := w.mirror.AppendTransactions(ctx, txs)
	if err != nil {
		return 0, fmt.Errorf("append to mirror: %w", err)
	}

	q := w.storage.Queries()
	for _, t := range txs {
		if err := q.MarkMirrored(ctx, t.ID, ref); err != nil {
			// The rows are already in the sheet; a later sweep would duplicate
			// them, so surface it loudly.
			slog.ErrorContext(ctx, "Failed to mark transaction as mirrored", "id", t.ID, "error", err)
			return 0, err
		}
	}

	slog.InfoContext(ctx, "Transactions mirrored",
		"count", len(txs),
		"first_id", txs[0].ID,
		"ref", ref)
	return len(txs), nil
}
