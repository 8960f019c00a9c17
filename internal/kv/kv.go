// Package kv defines the string key-value capability the ledger persists to
// and an in-memory implementation of it.
package kv

import "context"

// Keys used by the ledger. Values are JSON for collections and plain decimal
// text for the budget.
const (
	KeyExpenses      = "expenses"
	KeyCategories    = "categories"
	KeyMonthlyBudget = "monthlyBudget"
)

// Store is a flat string key-value store. Get reports ok=false when the key
// has never been written; err is reserved for I/O failures.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}
