// Package worker keeps the spreadsheet mirror in step with the ledger.
package worker

import (
	"context"
	"errors"
	"fmt"

	"schoolaccounts/internal/amqp"
	"schoolaccounts/internal/core"
	"schoolaccounts/internal/ledger"
	"schoolaccounts/internal/log"
	"schoolaccounts/internal/sheets"
)

// Source is the slice of the ledger store the mirror worker reads and marks.
type Source interface {
	GetTransactionDetail(ctx context.Context, id string) (core.TransactionDetail, error)
	ledger.SyncStore
}

// MirrorWorker copies transactions from the ledger store into the mirror.
type MirrorWorker struct {
	store     Source
	mirror    sheets.LedgerMirror
	batchSize int
}

func NewMirrorWorker(store Source, mirror sheets.LedgerMirror, batchSize int) *MirrorWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &MirrorWorker{
		store:     store,
		mirror:    mirror,
		batchSize: batchSize,
	}
}

// HandleEvent mirrors the transaction named by ev. Events older than the
// stored version are skipped because a newer event follows them.
func (w *MirrorWorker) HandleEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	logger := log.FromContext(ctx).WithComponent(log.ComponentWorker)
	logger.Info("Processing ledger event",
		"kind", ev.Kind,
		log.FieldTransactionID, ev.TransactionID,
		log.FieldVersion, ev.Version)

	detail, err := w.store.GetTransactionDetail(ctx, ev.TransactionID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			logger.Warn("Dropping event for unknown transaction", log.FieldTransactionID, ev.TransactionID)
			return nil
		}
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	if ev.Version < detail.Version {
		logger.Debug("Skipping stale event",
			log.FieldTransactionID, ev.TransactionID,
			"event_version", ev.Version,
			"stored_version", detail.Version)
		return nil
	}

	if err := w.mirrorTransaction(ctx, detail); err != nil {
		return fmt.Errorf("mirror transaction: %w", err)
	}
	return nil
}

// ProcessPending mirrors up to one batch of pending transactions. This is a
// backup mechanism in case events are lost. It returns how many were mirrored.
func (w *MirrorWorker) ProcessPending(ctx context.Context) (int, error) {
	return w.processPending(ctx, w.batchSize)
}

// StartupSyncCheck drains a larger batch at worker startup to recover from
// downtime or missed events.
func (w *MirrorWorker) StartupSyncCheck(ctx context.Context) error {
	logger := log.FromContext(ctx).WithComponent(log.ComponentWorker)
	synced, err := w.processPending(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("startup sync check: %w", err)
	}
	if synced == 0 {
		logger.Info("No pending transactions found on startup")
		return nil
	}
	logger.Info("Startup sync completed", "synced", synced)
	return nil
}

func (w *MirrorWorker) processPending(ctx context.Context, limit int) (int, error) {
	logger := log.FromContext(ctx).WithComponent(log.ComponentWorker)

	pending, err := w.store.PendingSync(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("get pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}
	logger.Info("Processing pending transactions", "count", len(pending))

	synced, failed := 0, 0
	for _, item := range pending {
		if err := ctx.Err(); err != nil {
			return synced, err
		}
		detail, err := w.store.GetTransactionDetail(ctx, item.ID)
		if err != nil {
			logger.Error("Failed to get transaction", log.FieldTransactionID, item.ID, log.FieldError, err)
			w.markError(ctx, item.ID)
			failed++
			continue
		}
		if err := w.mirrorTransaction(ctx, detail); err != nil {
			logger.Error("Failed to mirror transaction", log.FieldTransactionID, item.ID, log.FieldError, err)
			failed++
			continue
		}
		synced++
	}

	if failed > 0 {
		logger.Warn("Pending batch finished with errors",
			"total", len(pending),
			"synced", synced,
			"errors", failed)
	}
	return synced, nil
}

// mirrorTransaction upserts t and records the outcome on the row.
func (w *MirrorWorker) mirrorTransaction(ctx context.Context, t core.TransactionDetail) error {
	logger := log.FromContext(ctx).WithComponent(log.ComponentWorker)

	ref, err := w.mirror.UpsertTransaction(ctx, t)
	if err != nil {
		w.markError(ctx, t.ID)
		return fmt.Errorf("upsert to mirror: %w", err)
	}

	// The row may have changed while it was being written; MarkSynced is a
	// no-op then and the row stays pending for the next pass.
	if err := w.store.MarkSynced(ctx, t.ID, t.Version); err != nil {
		logger.Error("Failed to mark as synced", log.FieldTransactionID, t.ID, log.FieldError, err)
	}

	logger.Info("Successfully mirrored transaction",
		log.FieldTransactionID, t.ID,
		log.FieldVersion, t.Version,
		log.FieldSheetsRef, ref,
		log.FieldAmount, t.Amount.String())
	return nil
}

func (w *MirrorWorker) markError(ctx context.Context, id string) {
	if err := w.store.MarkSyncError(ctx, id); err != nil {
		log.FromContext(ctx).WithComponent(log.ComponentWorker).
			Error("Failed to mark sync error", log.FieldTransactionID, id, log.FieldError, err)
	}
}
