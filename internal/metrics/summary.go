package metrics

import (
	"time"

	"spendlog/internal/core"
)

// Summary is everything the dashboard shows for one moment.
type Summary struct {
	Month             string   `json:"month"`
	CurrentMonthTotal float64  `json:"currentMonthTotal"`
	DailyAverage      float64  `json:"dailyAverage"`
	Budget            float64  `json:"budget"`
	HasBudget         bool     `json:"hasBudget"`
	BudgetUsage       float64  `json:"budgetUsagePercent"`
	Remaining         float64  `json:"remaining"`
	Exceeded          bool     `json:"exceeded"`
	GrandTotal        float64  `json:"grandTotal"`
	Count             int      `json:"count"`
	Empty             bool     `json:"empty"`
	Categories        []Bucket `json:"categories"`
	Monthly           []Bucket `json:"monthly"`
	Daily             []Bucket `json:"daily"`
}

func (e Engine) Summarize(expenses []core.Expense, budget float64, now time.Time) Summary {
	total := e.monthSum(expenses, now)
	pct, ok := budgetUsage(total, dec(budget))
	remaining := dec(budget).Sub(total)
	return Summary{
		Month:             now.In(e.loc()).Format(monthKeyLayout),
		CurrentMonthTotal: toFloat(total),
		DailyAverage:      toFloat(e.dailyAverage(total, now)),
		Budget:            toFloat(dec(budget)),
		HasBudget:         ok,
		BudgetUsage:       toFloat(pct),
		Remaining:         toFloat(remaining),
		Exceeded:          remaining.IsNegative(),
		GrandTotal:        e.GrandTotal(expenses),
		Count:             len(expenses),
		Empty:             len(expenses) == 0,
		Categories:        e.CategoryTotals(expenses),
		Monthly:           e.MonthlyTotals(expenses),
		Daily:             e.DailyTrend(expenses),
	}
}
