// Package export renders expense lists as CSV.
package export

import (
	"io"
	"strings"

	"spendlog/internal/core"
	"spendlog/internal/metrics"
)

var Header = []string{"Date", "Description", "Category", "Amount"}

// ContentType is what the HTTP layer sends with an export.
const ContentType = "text/csv; charset=utf-8"

// FileName returns expenses_<month>.csv, or expenses_all.csv for an empty or
// "all" month filter.
func FileName(month string) string {
	if month == "" || month == metrics.AllMonths {
		return "expenses_all.csv"
	}
	return "expenses_" + month + ".csv"
}

// CSV renders the rows in the order given. Text columns are always quoted,
// the amount never is, and lines are separated by a bare "\n" with no
// trailing newline.
func CSV(expenses []core.Expense) string {
	var b strings.Builder
	_ = Write(&b, expenses)
	return b.String()
}

// Write streams the same output as CSV to w.
func Write(w io.Writer, expenses []core.Expense) error {
	if _, err := io.WriteString(w, strings.Join(Header, ",")); err != nil {
		return err
	}
	for _, e := range expenses {
		line := "\n" + quote(e.Date) + "," + quote(e.Description) + "," + quote(e.Category) + "," + core.FormatAmount(e.Amount)
		if _, err := io.WriteString(w, line); err != nil {
			return err
		}
	}
	return nil
}

// Month filters expenses to month, orders them newest first and renders
// them. It returns the file name alongside the content.
func Month(engine metrics.Engine, expenses []core.Expense, month string) (name string, content string) {
	rows := engine.SortNewestFirst(engine.FilterMonth(expenses, month))
	return FileName(month), CSV(rows)
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
