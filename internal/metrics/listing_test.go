package metrics

import (
	"testing"

	"github.com/stretchr/testify/require"

	"spendlog/internal/core"
)

func listFixture() []core.Expense {
	return []core.Expense{
		exp("feb", "2024-02-20T09:00:00.000Z", "Food", 200),
		exp("mar-early", "2024-03-05T08:00:00.000Z", "Food", 100),
		exp("bad", "not a date", "Others", 5),
		exp("mar-late", "2024-03-05T18:30:00.000Z", "Transport", 50),
		exp("jan", "2024-01-02", "Personal", 30),
	}
}

func TestMonthsNewestFirst(t *testing.T) {
	require.Equal(t, []string{"2024-03", "2024-02", "2024-01"}, utc.Months(listFixture()))
	require.Empty(t, utc.Months(nil))
}

func TestFilterMonth(t *testing.T) {
	es := listFixture()

	all := utc.FilterMonth(es, AllMonths)
	require.Len(t, all, 5)
	require.Len(t, utc.FilterMonth(es, ""), 5)

	march := utc.FilterMonth(es, "2024-03")
	require.Equal(t, []string{"mar-early", "mar-late"}, expenseIDs(march))

	require.Empty(t, utc.FilterMonth(es, "1999-01"))
}

func TestSortNewestFirst(t *testing.T) {
	got := utc.SortNewestFirst(listFixture())
	require.Equal(t, []string{"mar-late", "mar-early", "feb", "jan", "bad"}, expenseIDs(got))
}

func TestGroupByDay(t *testing.T) {
	groups := utc.GroupByDay(listFixture())
	require.Len(t, groups, 3)

	require.Equal(t, "2024-03-05", groups[0].Day)
	require.Equal(t, "March 05, 2024", groups[0].Label)
	require.Equal(t, 150.0, groups[0].Total)
	require.Equal(t, []string{"mar-late", "mar-early"}, expenseIDs(groups[0].Expenses))

	require.Equal(t, "2024-02-20", groups[1].Day)
	require.Equal(t, "2024-01-02", groups[2].Day)
}

func expenseIDs(es []core.Expense) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.ID
	}
	return out
}
