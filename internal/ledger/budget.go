package ledger

import (
	"context"
	"sync"

	"spendlog/internal/persist"
)

// Budget holds the monthly target. Set does not validate; callers parse user
// input with core.ParseBudget first.
type Budget struct {
	book   *Book
	mu     sync.Mutex
	amount float64
	ready  bool
}

func (b *Budget) load(v float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.amount = v
	b.ready = true
}

func (b *Budget) Ready() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ready
}

func (b *Budget) Get() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.amount
}

func (b *Budget) Set(ctx context.Context, amount float64) (persist.Write, error) {
	b.mu.Lock()
	if !b.ready {
		b.mu.Unlock()
		return persist.Write{}, ErrNotReady
	}
	w, err := b.book.adapter.SaveBudget(ctx, amount)
	if err != nil {
		b.mu.Unlock()
		return persist.Write{}, err
	}
	b.amount = amount
	rev := b.book.committed()
	b.mu.Unlock()

	b.book.notify(ctx, w, rev)
	return w, nil
}
