package persist

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"spendlog/internal/core"
	"spendlog/internal/kv"
)

type failingStore struct{ err error }

func (f failingStore) Get(context.Context, string) (string, bool, error) { return "", false, f.err }
func (f failingStore) Set(context.Context, string, string) error { return f.err }

func TestLoadDefaultsWhenAbsent(t *testing.T) {
	ctx := context.Background()
	a := New(kv.NewMemory(), nil)

	exp, err := a.LoadExpenses(ctx)
	require.NoError(t, err)
	require.Equal(t, SourceDefault, exp.Source)
	require.NotNil(t, exp.Value)
	require.Empty(t, exp.Value)

	cats, err := a.LoadCategories(ctx)
	require.NoError(t, err)
	require.Equal(t, SourceDefault, cats.Source)
	require.Equal(t, core.DefaultCategories, cats.Value)

	budget, err := a.LoadBudget(ctx)
	require.NoError(t, err)
	require.Equal(t, SourceDefault, budget.Source)
	require.Zero(t, budget.Value)
}

func TestLoadRecoversFromMalformedData(t *testing.T) {
	ctx := context.Background()
	m := kv.NewMemory()
	require.NoError(t, m.Set(ctx, kv.KeyExpenses, "{not json"))
	require.NoError(t, m.Set(ctx, kv.KeyCategories, "null"))
	require.NoError(t, m.Set(ctx, kv.KeyMonthlyBudget, "abc"))
	a := New(m, nil)

	exp, err := a.LoadExpenses(ctx)
	require.NoError(t, err)
	require.Equal(t, SourceRecovered, exp.Source)
	require.Error(t, exp.Err)
	require.Empty(t, exp.Value)

	cats, err := a.LoadCategories(ctx)
	require.NoError(t, err)
	require.Equal(t, SourceRecovered, cats.Source)
	require.ErrorIs(t, cats.Err, ErrNullValue)
	require.Len(t, cats.Value, 7)

	budget, err := a.LoadBudget(ctx)
	require.NoError(t, err)
	require.Equal(t, SourceRecovered, budget.Source)
	require.Zero(t, budget.Value)
}

func TestLoadBudgetRejectsNegativeAndNonFinite(t *testing.T) {
	ctx := context.Background()
	for _, raw := range []string{"-5", "NaN", "Inf", "1e400"} {
		m := kv.NewMemory()
		require.NoError(t, m.Set(ctx, kv.KeyMonthlyBudget, raw))
		got, err := New(m, nil).LoadBudget(ctx)
		require.NoError(t, err)
		require.Equal(t, SourceRecovered, got.Source, raw)
		require.Zero(t, got.Value, raw)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	a := New(kv.NewMemory(), nil)

	expenses := []core.Expense{
		{ID: "a", Date: "2024-03-01T10:15:00.000Z", Category: "Food", Amount: 250, Description: "Lunch \"deluxe\""},
		{ID: "b", Date: "2024-03-05", Category: "Transport", Amount: 12.5, Description: ""},
		{ID: "c", Date: "not a date", Category: "Others", Amount: 0, Description: "kept verbatim"},
	}
	w, err := a.SaveExpenses(ctx, expenses)
	require.NoError(t, err)
	require.Equal(t, kv.KeyExpenses, w.Key)

	got, err := a.LoadExpenses(ctx)
	require.NoError(t, err)
	require.Equal(t, SourceStored, got.Source)
	require.Equal(t, expenses, got.Value)

	cats := []string{"Rent", "Food"}
	_, err = a.SaveCategories(ctx, cats)
	require.NoError(t, err)
	gotCats, err := a.LoadCategories(ctx)
	require.NoError(t, err)
	require.Equal(t, cats, gotCats.Value)

	w, err = a.SaveBudget(ctx, 15000)
	require.NoError(t, err)
	require.Equal(t, Write{Key: kv.KeyMonthlyBudget, Value: "15000"}, w)
	gotBudget, err := a.LoadBudget(ctx)
	require.NoError(t, err)
	require.Equal(t, SourceStored, gotBudget.Source)
	require.Equal(t, 15000.0, gotBudget.Value)
}

func TestSaveWritesEmptyArraysNotNull(t *testing.T) {
	ctx := context.Background()
	a := New(kv.NewMemory(), nil)

	w, err := a.SaveExpenses(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, "[]", w.Value)

	w, err = a.SaveCategories(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, "[]", w.Value)

	// an emptied category list stays empty after reload
	got, err := a.LoadCategories(ctx)
	require.NoError(t, err)
	require.Equal(t, SourceStored, got.Source)
	require.Empty(t, got.Value)
}

func TestSaveExpensesFieldOrder(t *testing.T) {
	w, err := New(kv.NewMemory(), nil).SaveExpenses(context.Background(), []core.Expense{
		{ID: "x", Date: "2024-03-01T10:15:00.000Z", Category: "Food", Amount: 12.5, Description: "Tea"},
	})
	require.NoError(t, err)
	require.Equal(t, `[{"id":"x","date":"2024-03-01T10:15:00.000Z","category":"Food","amount":12.5,"description":"Tea"}]`, w.Value)
}

func TestStoreErrorsArePropagated(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk full")
	a := New(failingStore{err: boom}, nil)

	_, err := a.LoadExpenses(ctx)
	require.ErrorIs(t, err, boom)
	_, err = a.LoadBudget(ctx)
	require.ErrorIs(t, err, boom)
	_, err = a.SaveCategories(ctx, []string{"A"})
	require.ErrorIs(t, err, boom)
}

func TestSourceString(t *testing.T) {
	require.Equal(t, "stored", SourceStored.String())
	require.Equal(t, "default", SourceDefault.String())
	require.Equal(t, "recovered", SourceRecovered.String())
}

func TestListExpenses(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	a := New(store, nil)

	list, err := a.ListExpenses(ctx)
	require.NoError(t, err)
	require.Empty(t, list)

	require.NoError(t, store.Set(ctx, kv.KeyExpenses, "{broken"))
	list, err = a.ListExpenses(ctx)
	require.NoError(t, err)
	require.Empty(t, list)

	_, err = a.SaveExpenses(ctx, []core.Expense{{ID: "a", Date: "2024-03-01", Amount: 3}})
	require.NoError(t, err)
	list, err = a.ListExpenses(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = New(failingStore{err: errors.New("down")}, nil).ListExpenses(ctx)
	require.Error(t, err)
}
