package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"spendlog/internal/amqp"
	"spendlog/internal/kv"
	"spendlog/internal/log"
	"spendlog/internal/metrics"
	"spendlog/internal/sheets"
)

// ExportWorker mirrors the shared expense list to an external sheet. It runs
// on change events and on a schedule, which covers events lost while the
// worker was down.
type ExportWorker struct {
	lister   sheets.ExpenseLister
	exporter sheets.ExpenseExporter
	engine   metrics.Engine
	logger   *log.Logger
	timeout  time.Duration

	// serializes exports so the sheet is never written by two runs at once
	mu           sync.Mutex
	lastExport   time.Time
	lastRevision uint64
	exports      int
	failures     int
}

// Stats is a point-in-time view of the worker's history.
type Stats struct {
	LastExport   time.Time
	LastRevision uint64
	Exports      int
	Failures     int
}

func NewExportWorker(lister sheets.ExpenseLister, exporter sheets.ExpenseExporter, engine metrics.Engine, timeout time.Duration, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &ExportWorker{
		lister:   lister,
		exporter: exporter,
		engine:   engine,
		logger:   logger.WithComponent(log.ComponentWorker),
		timeout:  timeout,
	}
}

// HandleChange processes one change event. Only expense writes trigger an
// export; category and budget changes are acknowledged and ignored.
func (w *ExportWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	if msg.Key != kv.KeyExpenses {
		w.logger.DebugContext(ctx, "Ignoring change event",
			log.FieldKey, msg.Key,
			log.FieldRevision, msg.Revision)
		return nil
	}

	w.logger.InfoContext(ctx, "Processing change event",
		log.FieldKey, msg.Key,
		log.FieldRevision, msg.Revision)

	if err := w.export(ctx, msg.Revision); err != nil {
		return fmt.Errorf("export after revision %d: %w", msg.Revision, err)
	}
	return nil
}

// ExportAll exports the current expense list unconditionally. Used by the
// cron schedule and at startup.
func (w *ExportWorker) ExportAll(ctx context.Context) error {
	return w.export(ctx, 0)
}

func (w *ExportWorker) export(ctx context.Context, revision uint64) error {
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	start := time.Now()
	expenses, err := w.lister.ListExpenses(ctx)
	if err != nil {
		w.failures++
		return fmt.Errorf("list expenses: %w", err)
	}

	res, err := w.exporter.Export(ctx, w.engine.SortNewestFirst(expenses))
	if err != nil {
		w.failures++
		w.logger.ErrorContext(ctx, "Export failed",
			log.FieldOperation, log.OpExport,
			log.FieldCount, len(expenses),
			log.FieldError, err)
		return fmt.Errorf("export expenses: %w", err)
	}

	w.exports++
	w.lastExport = time.Now()
	if revision > w.lastRevision {
		w.lastRevision = revision
	}

	w.logger.InfoContext(ctx, "Export completed",
		log.FieldOperation, log.OpExport,
		log.FieldCount, res.Rows,
		log.FieldRevision, revision,
		log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

func (w *ExportWorker) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Stats{
		LastExport:   w.lastExport,
		LastRevision: w.lastRevision,
		Exports:      w.exports,
		Failures:     w.failures,
	}
}
