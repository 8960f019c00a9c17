package metrics

import (
	"cmp"
	"slices"
	"time"

	"spendlog/internal/core"
)

// AllMonths selects every expense in FilterMonth.
const AllMonths = "all"

// DayGroup is one day of the expense list view.
type DayGroup struct {
	Day      string         `json:"day"`
	Label    string         `json:"label"`
	Total    float64        `json:"total"`
	Expenses []core.Expense `json:"expenses"`
}

// Months lists the distinct YYYY-MM values present, newest first.
func (e Engine) Months(expenses []core.Expense) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, x := range e.parsed(expenses) {
		k := x.at.Format(monthKeyLayout)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	slices.SortFunc(out, func(a, b string) int { return cmp.Compare(b, a) })
	return out
}

// FilterMonth keeps the expenses that fall in month (YYYY-MM). An empty
// month or AllMonths returns a copy of the whole list.
func (e Engine) FilterMonth(expenses []core.Expense, month string) []core.Expense {
	if month == "" || month == AllMonths {
		return slices.Clone(expenses)
	}
	out := []core.Expense{}
	for _, x := range e.parsed(expenses) {
		if x.at.Format(monthKeyLayout) == month {
			out = append(out, x.Expense)
		}
	}
	return out
}

// SortNewestFirst returns a copy ordered by date descending. Expenses with
// unreadable dates go last, in their original order.
func (e Engine) SortNewestFirst(expenses []core.Expense) []core.Expense {
	type keyed struct {
		x  core.Expense
		at time.Time
		ok bool
	}
	ks := make([]keyed, len(expenses))
	for i, x := range expenses {
		t, err := x.Time(e.loc())
		ks[i] = keyed{x: x, at: t, ok: err == nil}
	}
	slices.SortStableFunc(ks, func(a, b keyed) int {
		switch {
		case a.ok && !b.ok:
			return -1
		case !a.ok && b.ok:
			return 1
		case !a.ok && !b.ok:
			return 0
		}
		return b.at.Compare(a.at)
	})
	out := make([]core.Expense, len(ks))
	for i, k := range ks {
		out[i] = k.x
	}
	return out
}

// GroupByDay buckets expenses per calendar day, newest day first, each day
// newest expense first.
func (e Engine) GroupByDay(expenses []core.Expense) []DayGroup {
	idx := map[string]int{}
	var groups []DayGroup
	for _, x := range e.parsed(e.SortNewestFirst(expenses)) {
		day := x.at.Format(core.DayLayout)
		i, ok := idx[day]
		if !ok {
			i = len(groups)
			idx[day] = i
			groups = append(groups, DayGroup{Day: day, Label: x.at.Format("January 02, 2006")})
		}
		groups[i].Expenses = append(groups[i].Expenses, x.Expense)
	}
	for i := range groups {
		groups[i].Total = e.GrandTotal(groups[i].Expenses)
	}
	slices.SortStableFunc(groups, func(a, b DayGroup) int { return cmp.Compare(b.Day, a.Day) })
	return groups
}
