package sheets

import (
	"context"

	"spendlog/internal/core"
)

// Ports for outbound adapters.
type (
	// ExpenseExporter mirrors the full expense list to an external sheet.
	// The mirror is one-way: nothing is ever read back from it.
	ExpenseExporter interface {
		Export(ctx context.Context, expenses []core.Expense) (ExportResult, error)
	}

	// ExpenseLister reads the current expense list from the ledger store.
	ExpenseLister interface {
		ListExpenses(ctx context.Context) ([]core.Expense, error)
	}
)

// ExportResult describes one export run.
type ExportResult struct {
	Range string `json:"range"`
	Rows  int    `json:"rows"`
}
