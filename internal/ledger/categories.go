package ledger

import (
	"context"
	"slices"
	"sync"

	"spendlog/internal/core"
	"spendlog/internal/persist"
)

// Categories is the category registry: unique trimmed labels in insertion
// order. Removing a label never touches expenses that use it.
type Categories struct {
	book   *Book
	mu     sync.Mutex
	labels []string
	ready  bool
}

func (c *Categories) load(labels []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.labels = slices.Clone(labels)
	if c.labels == nil {
		c.labels = []string{}
	}
	c.ready = true
}

func (c *Categories) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

func (c *Categories) List() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.labels)
}

func (c *Categories) Contains(label string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Contains(c.labels, label)
}

// Add appends the trimmed label. Empty and already-present labels return
// core.ErrEmptyCategory / core.ErrCategoryExists and nothing is written.
func (c *Categories) Add(ctx context.Context, label string) (persist.Write, error) {
	trimmed, err := core.NormalizeCategory(label)
	if err != nil {
		return persist.Write{}, err
	}
	return c.mutate(ctx, func(cur []string) ([]string, error) {
		if slices.Contains(cur, trimmed) {
			return nil, core.ErrCategoryExists
		}
		return append(slices.Clone(cur), trimmed), nil
	})
}

// Delete removes every entry equal to label.
func (c *Categories) Delete(ctx context.Context, label string) (persist.Write, error) {
	return c.mutate(ctx, func(cur []string) ([]string, error) {
		next := make([]string, 0, len(cur))
		for _, l := range cur {
			if l != label {
				next = append(next, l)
			}
		}
		return next, nil
	})
}

func (c *Categories) mutate(ctx context.Context, stage func([]string) ([]string, error)) (persist.Write, error) {
	c.mu.Lock()
	if !c.ready {
		c.mu.Unlock()
		return persist.Write{}, ErrNotReady
	}
	next, err := stage(c.labels)
	if err != nil {
		c.mu.Unlock()
		return persist.Write{}, err
	}
	w, err := c.book.adapter.SaveCategories(ctx, next)
	if err != nil {
		c.mu.Unlock()
		return persist.Write{}, err
	}
	c.labels = next
	rev := c.book.committed()
	c.mu.Unlock()

	c.book.notify(ctx, w, rev)
	return w, nil
}
