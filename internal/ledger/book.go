// Package ledger owns the three persisted collections: expenses, categories
// and the monthly budget.
//
// Every mutation stages the new collection, writes it through the persist
// adapter and only then commits it in memory, returning the exact write. A
// failed write leaves the in-memory state untouched.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"spendlog/internal/core"
	"spendlog/internal/kv"
	"spendlog/internal/log"
	"spendlog/internal/persist"
)

var ErrNotReady = errors.New("ledger not loaded")

// ChangeNotifier is told about every persisted write.
type ChangeNotifier interface {
	NotifyChange(ctx context.Context, w persist.Write, revision uint64) error
}

// ChangeNotifierFunc adapts a function to ChangeNotifier.
type ChangeNotifierFunc func(ctx context.Context, w persist.Write, revision uint64) error

func (f ChangeNotifierFunc) NotifyChange(ctx context.Context, w persist.Write, revision uint64) error {
	return f(ctx, w, revision)
}

type Option func(*Book)

func WithLogger(l *log.Logger) Option {
	return func(b *Book) {
		if l != nil {
			b.logger = l.WithComponent(log.ComponentLedger)
		}
	}
}

func WithNotifier(n ChangeNotifier) Option {
	return func(b *Book) {
		if n != nil {
			b.notifiers = append(b.notifiers, n)
		}
	}
}

// Book groups the repositories around one adapter.
type Book struct {
	Expenses   *Expenses
	Categories *Categories
	Budget     *Budget

	adapter   *persist.Adapter
	logger    *log.Logger
	notifiers []ChangeNotifier
	revision  atomic.Uint64

	srcMu   sync.Mutex
	sources map[string]persist.Source
}

// Snapshot is a copy of the ledger state at one revision.
type Snapshot struct {
	Expenses   []core.Expense
	Categories []string
	Budget     float64
	Revision   uint64
}

// New builds an unloaded book. Call Load before mutating.
func New(adapter *persist.Adapter, opts ...Option) *Book {
	b := &Book{
		adapter: adapter,
		logger:  log.Discard().WithComponent(log.ComponentLedger),
		sources: map[string]persist.Source{},
	}
	for _, opt := range opts {
		opt(b)
	}
	b.Expenses = &Expenses{book: b}
	b.Categories = &Categories{book: b}
	b.Budget = &Budget{book: b}
	return b
}

// Open builds a book and loads all three collections.
func Open(ctx context.Context, adapter *persist.Adapter, opts ...Option) (*Book, error) {
	b := New(adapter, opts...)
	if err := b.Load(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

// Load reads every collection from the store. Unreadable data falls back to
// defaults; only store errors are returned.
func (b *Book) Load(ctx context.Context) error {
	exp, err := b.adapter.LoadExpenses(ctx)
	if err != nil {
		return fmt.Errorf("load expenses: %w", err)
	}
	cats, err := b.adapter.LoadCategories(ctx)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	budget, err := b.adapter.LoadBudget(ctx)
	if err != nil {
		return fmt.Errorf("load budget: %w", err)
	}

	b.Expenses.load(exp.Value)
	b.Categories.load(cats.Value)
	b.Budget.load(budget.Value)

	b.srcMu.Lock()
	b.sources[kv.KeyExpenses] = exp.Source
	b.sources[kv.KeyCategories] = cats.Source
	b.sources[kv.KeyMonthlyBudget] = budget.Source
	b.srcMu.Unlock()

	b.logger.InfoContext(ctx, "Ledger loaded",
		log.FieldOperation, log.OpLoad,
		"expenses", len(exp.Value),
		"expenses_source", exp.Source.String(),
		"categories", len(cats.Value),
		"categories_source", cats.Source.String(),
		"budget_source", budget.Source.String())
	return nil
}

// Ready reports whether all three collections have finished loading.
func (b *Book) Ready() bool {
	return b.Expenses.Ready() && b.Categories.Ready() && b.Budget.Ready()
}

// Revision counts persisted writes since the process started.
func (b *Book) Revision() uint64 {
	return b.revision.Load()
}

// Sources reports where each collection came from at load time.
func (b *Book) Sources() map[string]persist.Source {
	b.srcMu.Lock()
	defer b.srcMu.Unlock()
	out := make(map[string]persist.Source, len(b.sources))
	for k, v := range b.sources {
		out[k] = v
	}
	return out
}

func (b *Book) Snapshot() Snapshot {
	rev := b.Revision()
	return Snapshot{
		Expenses:   b.Expenses.List(),
		Categories: b.Categories.List(),
		Budget:     b.Budget.Get(),
		Revision:   rev,
	}
}

// committed bumps the revision. Callers hold their collection lock.
func (b *Book) committed() uint64 {
	return b.revision.Add(1)
}

// notify runs outside collection locks; failures never undo the write.
func (b *Book) notify(ctx context.Context, w persist.Write, rev uint64) {
	b.logger.DebugContext(ctx, "Write persisted", log.NewFields().WithWrite(w.Key, rev).ToSlice()...)
	for _, n := range b.notifiers {
		if err := n.NotifyChange(ctx, w, rev); err != nil {
			b.logger.WarnContext(ctx, "Change notification failed",
				log.FieldKey, w.Key,
				log.FieldRevision, rev,
				log.FieldError, err.Error())
		}
	}
}
