// Package metrics derives dashboard figures from an expense list.
//
// Everything here is a pure function of (expenses, now). Amounts are summed
// as decimals so that 0.1+0.2 style drift does not leak into totals. An
// expense whose date does not parse contributes to no aggregate at all,
// which keeps category totals a partition of GrandTotal.
package metrics

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"spendlog/internal/core"
)

const DefaultTrendWindow = 14

const (
	monthKeyLayout   = "2006-01"
	monthLabelLayout = "Jan 2006"
	dayLabelLayout   = "02 Jan"
)

// Bucket is one grouped total. Key is the sortable grouping key, Label is
// what a chart shows.
type Bucket struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Total float64 `json:"total"`
}

// Engine carries the calendar settings used for grouping. The zero value
// uses time.Local and a 14-day trend window.
type Engine struct {
	Location    *time.Location
	TrendWindow int
}

func NewEngine(loc *time.Location, trendWindow int) Engine {
	return Engine{Location: loc, TrendWindow: trendWindow}
}

func (e Engine) loc() *time.Location {
	if e.Location == nil {
		return time.Local
	}
	return e.Location
}

func (e Engine) window() int {
	if e.TrendWindow <= 0 {
		return DefaultTrendWindow
	}
	return e.TrendWindow
}

type dated struct {
	core.Expense
	at time.Time
}

// parsed drops expenses with unreadable dates and converts the rest into
// the engine location.
func (e Engine) parsed(expenses []core.Expense) []dated {
	out := make([]dated, 0, len(expenses))
	for _, x := range expenses {
		t, err := x.Time(e.loc())
		if err != nil {
			continue
		}
		out = append(out, dated{Expense: x, at: t})
	}
	return out
}

// MonthBounds returns the first and last instant of the calendar month that
// contains now, in the engine location.
func (e Engine) MonthBounds(now time.Time) (time.Time, time.Time) {
	now = now.In(e.loc())
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, e.loc())
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return start, end
}

func (e Engine) CurrentMonthTotal(expenses []core.Expense, now time.Time) float64 {
	return toFloat(e.monthSum(expenses, now))
}

func (e Engine) monthSum(expenses []core.Expense, now time.Time) decimal.Decimal {
	start, end := e.MonthBounds(now)
	sum := decimal.Zero
	for _, x := range e.parsed(expenses) {
		if x.at.Before(start) || x.at.After(end) {
			continue
		}
		sum = sum.Add(dec(x.Amount))
	}
	return sum
}

// DailyAverage divides the current-month total by the day of month of now,
// floored at 1.
func (e Engine) DailyAverage(expenses []core.Expense, now time.Time) float64 {
	return toFloat(e.dailyAverage(e.monthSum(expenses, now), now))
}

func (e Engine) dailyAverage(total decimal.Decimal, now time.Time) decimal.Decimal {
	days := max(1, now.In(e.loc()).Day())
	return total.Div(decimal.NewFromInt(int64(days)))
}

// BudgetUsage returns total/budget*100. ok is false when no budget is set
// (budget <= 0), in which case pct is 0.
func BudgetUsage(total, budget float64) (pct float64, ok bool) {
	d, ok := budgetUsage(dec(total), dec(budget))
	return toFloat(d), ok
}

func budgetUsage(total, budget decimal.Decimal) (decimal.Decimal, bool) {
	if !budget.IsPositive() {
		return decimal.Zero, false
	}
	return total.Div(budget).Mul(decimal.NewFromInt(100)), true
}

// Remaining is budget minus total; negative means over budget.
func Remaining(budget, total float64) float64 {
	return toFloat(dec(budget).Sub(dec(total)))
}

func (e Engine) GrandTotal(expenses []core.Expense) float64 {
	sum := decimal.Zero
	for _, x := range e.parsed(expenses) {
		sum = sum.Add(dec(x.Amount))
	}
	return toFloat(sum)
}

// dec converts a stored amount for summation. Non-finite values are clamped
// rather than handed to decimal, which panics on them.
func dec(v float64) decimal.Decimal {
	switch {
	case math.IsNaN(v):
		return decimal.Zero
	case math.IsInf(v, 1):
		v = math.MaxFloat64
	case math.IsInf(v, -1):
		v = -math.MaxFloat64
	}
	return decimal.NewFromFloat(v)
}

// toFloat saturates at the float64 range so every figure encodes as JSON.
func toFloat(d decimal.Decimal) float64 {
	f := d.InexactFloat64()
	switch {
	case math.IsInf(f, 1):
		return math.MaxFloat64
	case math.IsInf(f, -1):
		return -math.MaxFloat64
	}
	return f
}

// CategoryTotals groups by exact category over the whole list, largest
// first. Equal totals keep the order in which the categories first appear.
func (e Engine) CategoryTotals(expenses []core.Expense) []Bucket {
	buckets := e.group(expenses, func(x dated) (string, string) {
		return x.Category, x.Category
	})
	slices.SortStableFunc(buckets, func(a, b Bucket) int {
		return cmp.Compare(b.Total, a.Total)
	})
	return buckets
}

// MonthlyTotals groups by calendar month, oldest first.
func (e Engine) MonthlyTotals(expenses []core.Expense) []Bucket {
	buckets := e.group(expenses, func(x dated) (string, string) {
		return x.at.Format(monthKeyLayout), x.at.Format(monthLabelLayout)
	})
	slices.SortFunc(buckets, func(a, b Bucket) int {
		return monthStart(a.Key, e.loc()).Compare(monthStart(b.Key, e.loc()))
	})
	return buckets
}

// DailyTrend groups by calendar day, oldest first, keeping only the most
// recent TrendWindow days that have data.
func (e Engine) DailyTrend(expenses []core.Expense) []Bucket {
	buckets := e.group(expenses, func(x dated) (string, string) {
		return x.at.Format(core.DayLayout), x.at.Format(dayLabelLayout)
	})
	slices.SortFunc(buckets, func(a, b Bucket) int {
		return cmp.Compare(a.Key, b.Key)
	})
	if n := e.window(); len(buckets) > n {
		buckets = buckets[len(buckets)-n:]
	}
	return buckets
}

// group sums amounts per key, returning buckets in first-seen key order.
func (e Engine) group(expenses []core.Expense, keyOf func(dated) (key, label string)) []Bucket {
	sums := map[string]decimal.Decimal{}
	labels := map[string]string{}
	var order []string
	for _, x := range e.parsed(expenses) {
		k, l := keyOf(x)
		if _, ok := sums[k]; !ok {
			order = append(order, k)
			labels[k] = l
			sums[k] = decimal.Zero
		}
		sums[k] = sums[k].Add(dec(x.Amount))
	}
	out := make([]Bucket, 0, len(order))
	for _, k := range order {
		out = append(out, Bucket{Key: k, Label: labels[k], Total: toFloat(sums[k])})
	}
	return out
}

func monthStart(key string, loc *time.Location) time.Time {
	t, err := time.ParseInLocation(monthKeyLayout, key, loc)
	if err != nil {
		return time.Time{}
	}
	return t
}
