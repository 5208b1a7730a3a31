// Package worker mirrors the ledger to Google Sheets. It reacts to change
// messages by reloading the latest snapshot from storage and rewriting the
// month-to-date report, so it never needs the in-process ledger and can run
// as a separate binary.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"homeledger/internal/amqp"
	"homeledger/internal/ledger"
	"homeledger/internal/report"
	"homeledger/internal/sheets"
)

// SnapshotLoader is the storage dependency; *storage.SQLiteRepository
// satisfies it.
type SnapshotLoader interface {
	Load(ctx context.Context) (ledger.Snapshot, error)
}

type SyncWorker struct {
	storage SnapshotLoader
	sheets  sheets.ReportWriter
	now     func() time.Time
}

func NewSyncWorker(storage SnapshotLoader, sheets sheets.ReportWriter) *SyncWorker {
	return &SyncWorker{
		storage: storage,
		sheets:  sheets,
		now:     time.Now,
	}
}

// HandleChange processes a single ledger change message. The message only
// says "something changed"; the snapshot is reloaded so the mirror always
// reflects the newest persisted state regardless of message ordering.
func (w *SyncWorker) HandleChange(ctx context.Context, msg *amqp.LedgerChangeMessage) error {
	slog.InfoContext(ctx, "Processing ledger change", "revision", msg.Revision)

	snap, err := w.storage.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	now := w.now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	r := report.Build(snap, from, now)

	if err := w.sheets.WriteReport(ctx, r); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	slog.InfoContext(ctx, "Ledger mirrored",
		"revision", msg.Revision,
		"accounts", len(snap.Accounts),
		"transactions", len(snap.Transactions))

	return nil
}

// MirrorOnce runs one unconditional mirror pass. Called at worker startup to
// recover from missed messages.
func (w *SyncWorker) MirrorOnce(ctx context.Context) error {
	return w.HandleChange(ctx, amqp.NewLedgerChangeMessage(0))
}
