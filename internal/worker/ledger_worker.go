// Package worker keeps external mirrors of the record store up to date.
package worker

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"tracker/internal/amqp"
	"tracker/internal/chrono"
	"tracker/internal/core"
	"tracker/internal/log"
	"tracker/internal/sheets"
	"tracker/internal/store"
)

// LedgerWorker mirrors the transaction ledger, newest first, into a sheet.
type LedgerWorker struct {
	store  store.RecordReader
	sink   sheets.LedgerSink
	logger *log.Logger

	mu         sync.Mutex
	lastDigest string
}

func NewLedgerWorker(st store.RecordReader, sink sheets.LedgerSink, logger *log.Logger) *LedgerWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &LedgerWorker{store: st, sink: sink, logger: logger.WithComponent(log.ComponentWorker)}
}

// HandleChange resyncs the ledger for transaction changes and ignores the rest.
func (w *LedgerWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	if msg.Kind != "transaction" {
		w.logger.DebugContext(ctx, "Ignoring change", "kind", msg.Kind, "id", msg.ID)
		return nil
	}
	w.logger.InfoContext(ctx, "Processing change message",
		log.FieldOperation, msg.Action, log.FieldCollection, msg.Collection, log.FieldRecordID, msg.ID)
	_, err := w.Sync(ctx)
	return err
}

// Sync exports the ledger unless it is unchanged since the last export.
// It reports whether the sheet was written. Concurrent syncs are serialised
// from read to write, so the last writer always exports the newest ledger.
func (w *LedgerWorker) Sync(ctx context.Context) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sync(ctx)
}

// sync must be called with w.mu held.
func (w *LedgerWorker) sync(ctx context.Context) (bool, error) {
	txs, err := w.ledger(ctx)
	if err != nil {
		return false, err
	}
	digest := ledgerDigest(txs)
	if digest == w.lastDigest {
		return false, nil
	}
	if _, err := w.sink.ReplaceLedger(ctx, txs); err != nil {
		return false, fmt.Errorf("replace ledger: %w", err)
	}
	w.lastDigest = digest
	w.logger.InfoContext(ctx, "Ledger synced", log.FieldOperation, log.OpSync, log.FieldCount, len(txs))
	return true, nil
}

// StartupSyncCheck compares the sheet with the store and rewrites it when
// they differ, recovering from messages missed while the worker was down.
func (w *LedgerWorker) StartupSyncCheck(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	want, err := w.ledger(ctx)
	if err != nil {
		return err
	}
	have, err := w.sink.ReadLedger(ctx)
	if err != nil {
		w.logger.WarnContext(ctx, "Could not read exported ledger, rewriting it", log.FieldError, err)
		have = nil
	}
	if ledgerDigest(have) == ledgerDigest(want) {
		w.lastDigest = ledgerDigest(want)
		w.logger.InfoContext(ctx, "Exported ledger is up to date", log.FieldCount, len(want))
		return nil
	}
	w.lastDigest = ""
	_, err = w.sync(ctx)
	return err
}

// Run resyncs every interval until ctx is done. Failures are logged and
// retried on the next tick.
func (w *LedgerWorker) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.Sync(ctx); err != nil {
				w.logger.ErrorContext(ctx, "Periodic ledger sync failed", log.FieldError, err)
			}
		}
	}
}

func (w *LedgerWorker) ledger(ctx context.Context) ([]core.Transaction, error) {
	recs, err := w.store.List(ctx, core.CollectionTransactions)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	txs := make([]core.Transaction, 0, len(recs))
	for _, rec := range recs {
		tx, err := core.TransactionFromRecord(rec)
		if err != nil {
			w.logger.WarnContext(ctx, "Skipping unreadable transaction", log.FieldError, err)
			continue
		}
		txs = append(txs, tx)
	}
	return chrono.Transactions(txs, false), nil
}

// ledgerDigest identifies the exported content of a ledger at day precision.
func ledgerDigest(txs []core.Transaction) string {
	h := sha256.New()
	for _, tx := range txs {
		date := ""
		if !tx.Date.IsZero() {
			date = tx.Date.Format("2006-01-02")
		}
		fmt.Fprintln(h, strings.Join([]string{tx.ID, date, tx.Title, string(tx.Type), tx.Amount.StringFixed(2), tx.Notes}, "\x1f"))
	}
	return hex.EncodeToString(h.Sum(nil))
}
