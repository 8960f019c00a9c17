package export

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"spendlog/internal/core"
	"spendlog/internal/metrics"
)

func TestCSVFormat(t *testing.T) {
	got := CSV([]core.Expense{
		{ID: "1", Date: "2024-03-05T10:00:00.000Z", Description: `Dinner "at" Joe's`, Category: "Food", Amount: 250},
		{ID: "2", Date: "2024-03-04", Description: "Bus, ticket", Category: "Transport", Amount: 12.5},
	})
	want := "Date,Description,Category,Amount\n" +
		`"2024-03-05T10:00:00.000Z","Dinner ""at"" Joe's","Food",250` + "\n" +
		`"2024-03-04","Bus, ticket","Transport",12.5`
	require.Equal(t, want, got)
}

func TestCSVEmptyIsHeaderOnly(t *testing.T) {
	require.Equal(t, "Date,Description,Category,Amount", CSV(nil))
}

func TestFileName(t *testing.T) {
	require.Equal(t, "expenses_all.csv", FileName(""))
	require.Equal(t, "expenses_all.csv", FileName(metrics.AllMonths))
	require.Equal(t, "expenses_2024-03.csv", FileName("2024-03"))
}

func TestMonthFiltersAndSorts(t *testing.T) {
	engine := metrics.NewEngine(time.UTC, 14)
	es := []core.Expense{
		{ID: "a", Date: "2024-03-01T08:00:00.000Z", Description: "old", Category: "Food", Amount: 1},
		{ID: "b", Date: "2024-02-01T08:00:00.000Z", Description: "feb", Category: "Food", Amount: 2},
		{ID: "c", Date: "2024-03-09T08:00:00.000Z", Description: "new", Category: "Food", Amount: 3},
	}

	name, content := Month(engine, es, "2024-03")
	require.Equal(t, "expenses_2024-03.csv", name)
	require.Equal(t, "Date,Description,Category,Amount\n"+
		`"2024-03-09T08:00:00.000Z","new","Food",3`+"\n"+
		`"2024-03-01T08:00:00.000Z","old","Food",1`, content)

	name, content = Month(engine, es, "all")
	require.Equal(t, "expenses_all.csv", name)
	require.Contains(t, content, `"feb"`)
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestWritePropagatesErrors(t *testing.T) {
	require.Error(t, Write(brokenWriter{}, nil))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, nil))
	require.Equal(t, "Date,Description,Category,Amount", buf.String())
}
