// Package persist moves ledger collections in and out of a kv.Store.
//
// Loads never fail on bad stored data: text that does not parse is replaced
// by the collection default and reported as SourceRecovered so callers can
// tell "first run" apart from "data was unreadable". Only store I/O errors
// are returned.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"spendlog/internal/core"
	"spendlog/internal/kv"
	"spendlog/internal/log"
)

// Source says where a loaded value came from.
type Source int

const (
	SourceStored Source = iota
	SourceDefault
	SourceRecovered
)

func (s Source) String() string {
	switch s {
	case SourceStored:
		return "stored"
	case SourceDefault:
		return "default"
	case SourceRecovered:
		return "recovered"
	default:
		return "unknown"
	}
}

// Loaded carries a value together with its provenance. Err is set only for
// SourceRecovered and holds the parse failure.
type Loaded[T any] struct {
	Value  T
	Source Source
	Err    error
}

// Write is exactly what a save put into the store.
type Write struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

var ErrNullValue = errors.New("stored value is null")

type Adapter struct {
	store  kv.Store
	logger *log.Logger
}

func New(store kv.Store, logger *log.Logger) *Adapter {
	if logger == nil {
		logger = log.Discard()
	}
	return &Adapter{store: store, logger: logger.WithComponent(log.ComponentPersist)}
}

// DefaultCategories returns a fresh copy of the seed list.
func DefaultCategories() []string {
	return append([]string(nil), core.DefaultCategories...)
}

func (a *Adapter) LoadExpenses(ctx context.Context) (Loaded[[]core.Expense], error) {
	return loadJSON(ctx, a, kv.KeyExpenses, func() []core.Expense { return []core.Expense{} })
}

// ListExpenses returns the stored expenses, or an empty list when the key is
// absent or unreadable. Used by processes that only read the shared store.
func (a *Adapter) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	l, err := a.LoadExpenses(ctx)
	if err != nil {
		return nil, err
	}
	return l.Value, nil
}

func (a *Adapter) LoadCategories(ctx context.Context) (Loaded[[]string], error) {
	return loadJSON(ctx, a, kv.KeyCategories, DefaultCategories)
}

func (a *Adapter) LoadBudget(ctx context.Context) (Loaded[float64], error) {
	raw, ok, err := a.store.Get(ctx, kv.KeyMonthlyBudget)
	if err != nil {
		return Loaded[float64]{}, fmt.Errorf("load %s: %w", kv.KeyMonthlyBudget, err)
	}
	if !ok || raw == "" {
		return Loaded[float64]{Value: 0, Source: SourceDefault}, nil
	}
	v, perr := ParseBudgetText(raw)
	if perr != nil {
		a.warnRecovered(ctx, kv.KeyMonthlyBudget, perr)
		return Loaded[float64]{Value: 0, Source: SourceRecovered, Err: perr}, nil
	}
	return Loaded[float64]{Value: v, Source: SourceStored}, nil
}

// ParseBudgetText reads the stored budget text. Anything that is not a
// finite number >= 0 is an error.
func ParseBudgetText(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("parse budget %q: %w", raw, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, fmt.Errorf("parse budget %q: %w", raw, core.ErrInvalidBudget)
	}
	return v, nil
}

func (a *Adapter) SaveExpenses(ctx context.Context, expenses []core.Expense) (Write, error) {
	if expenses == nil {
		expenses = []core.Expense{}
	}
	return a.saveJSON(ctx, kv.KeyExpenses, expenses)
}

func (a *Adapter) SaveCategories(ctx context.Context, categories []string) (Write, error) {
	if categories == nil {
		categories = []string{}
	}
	return a.saveJSON(ctx, kv.KeyCategories, categories)
}

func (a *Adapter) SaveBudget(ctx context.Context, amount float64) (Write, error) {
	return a.set(ctx, kv.KeyMonthlyBudget, core.FormatAmount(amount))
}

func loadJSON[T any](ctx context.Context, a *Adapter, key string, def func() T) (Loaded[T], error) {
	raw, ok, err := a.store.Get(ctx, key)
	if err != nil {
		return Loaded[T]{}, fmt.Errorf("load %s: %w", key, err)
	}
	if !ok || raw == "" {
		return Loaded[T]{Value: def(), Source: SourceDefault}, nil
	}
	if strings.TrimSpace(raw) == "null" {
		a.warnRecovered(ctx, key, ErrNullValue)
		return Loaded[T]{Value: def(), Source: SourceRecovered, Err: ErrNullValue}, nil
	}
	var v T
	if perr := json.Unmarshal([]byte(raw), &v); perr != nil {
		perr = fmt.Errorf("parse %s: %w", key, perr)
		a.warnRecovered(ctx, key, perr)
		return Loaded[T]{Value: def(), Source: SourceRecovered, Err: perr}, nil
	}
	return Loaded[T]{Value: v, Source: SourceStored}, nil
}

func (a *Adapter) saveJSON(ctx context.Context, key string, v any) (Write, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return Write{}, fmt.Errorf("encode %s: %w", key, err)
	}
	return a.set(ctx, key, string(b))
}

func (a *Adapter) set(ctx context.Context, key, value string) (Write, error) {
	if err := a.store.Set(ctx, key, value); err != nil {
		a.logger.ErrorContext(ctx, "Failed to persist key",
			log.FieldKey, key,
			log.FieldOperation, log.OpSave,
			log.FieldError, err.Error())
		return Write{}, fmt.Errorf("save %s: %w", key, err)
	}
	return Write{Key: key, Value: value}, nil
}

func (a *Adapter) warnRecovered(ctx context.Context, key string, err error) {
	a.logger.WarnContext(ctx, "Stored value unreadable, using default",
		log.FieldKey, key,
		log.FieldOperation, log.OpLoad,
		log.FieldSource, SourceRecovered.String(),
		log.FieldError, err.Error())
}
