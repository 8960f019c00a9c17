package ledger

import (
	"context"
	"slices"
	"sync"

	"spendlog/internal/core"
	"spendlog/internal/persist"
)

// Expenses is the expense repository. Order is insertion order.
type Expenses struct {
	book  *Book
	mu    sync.Mutex
	items []core.Expense
	ready bool
}

func (r *Expenses) load(items []core.Expense) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = slices.Clone(items)
	if r.items == nil {
		r.items = []core.Expense{}
	}
	r.ready = true
}

func (r *Expenses) Ready() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ready
}

// List returns a copy of all expenses in insertion order.
func (r *Expenses) List() []core.Expense {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.items)
}

func (r *Expenses) Get(id string) (core.Expense, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.items {
		if e.ID == id {
			return e, true
		}
	}
	return core.Expense{}, false
}

// Add appends e. Empty or duplicate ids and invalid amounts are rejected
// without writing.
func (r *Expenses) Add(ctx context.Context, e core.Expense) (persist.Write, error) {
	if err := e.Validate(); err != nil {
		return persist.Write{}, err
	}
	return r.mutate(ctx, func(cur []core.Expense) ([]core.Expense, error) {
		for _, x := range cur {
			if x.ID == e.ID {
				return nil, core.ErrDuplicateID
			}
		}
		return append(slices.Clone(cur), e), nil
	})
}

// DeleteByID removes every expense with id. A missing id is not an error and
// still produces a write.
func (r *Expenses) DeleteByID(ctx context.Context, id string) (persist.Write, error) {
	return r.mutate(ctx, func(cur []core.Expense) ([]core.Expense, error) {
		next := make([]core.Expense, 0, len(cur))
		for _, x := range cur {
			if x.ID != id {
				next = append(next, x)
			}
		}
		return next, nil
	})
}

// Update replaces the expense with the same id in place. If none matches the
// list is unchanged, but it is still written.
func (r *Expenses) Update(ctx context.Context, e core.Expense) (persist.Write, error) {
	if err := e.Validate(); err != nil {
		return persist.Write{}, err
	}
	return r.mutate(ctx, func(cur []core.Expense) ([]core.Expense, error) {
		next := slices.Clone(cur)
		for i := range next {
			if next[i].ID == e.ID {
				next[i] = e
			}
		}
		return next, nil
	})
}

func (r *Expenses) ClearAll(ctx context.Context) (persist.Write, error) {
	return r.mutate(ctx, func([]core.Expense) ([]core.Expense, error) {
		return []core.Expense{}, nil
	})
}

func (r *Expenses) mutate(ctx context.Context, stage func([]core.Expense) ([]core.Expense, error)) (persist.Write, error) {
	r.mu.Lock()
	if !r.ready {
		r.mu.Unlock()
		return persist.Write{}, ErrNotReady
	}
	next, err := stage(r.items)
	if err != nil {
		r.mu.Unlock()
		return persist.Write{}, err
	}
	w, err := r.book.adapter.SaveExpenses(ctx, next)
	if err != nil {
		r.mu.Unlock()
		return persist.Write{}, err
	}
	r.items = next
	rev := r.book.committed()
	r.mu.Unlock()

	r.book.notify(ctx, w, rev)
	return w, nil
}
