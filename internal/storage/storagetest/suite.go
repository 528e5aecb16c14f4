// Package storagetest holds the behaviour every storage.Store must share.
// Concrete stores call Run from their own tests.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studentspend/internal/core"
	"studentspend/internal/storage"
)

// Roster is the directory every suite run starts from.
func Roster() []core.Student {
	asha := core.NewStudent("11111111", "Asha Rao")
	asha.Email = "asha@university.edu"
	asha.Section = "A"
	return []core.Student{
		asha,
		core.NewStudent("22222222", "Bilal Khan"),
		core.NewStudent("33333333", "Chen Li"),
		core.NewStudent("12300000", "Ashwin Menon"),
	}
}

// Run exercises store against the shared contract. newStore must return an
// empty store.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Run("Directory", func(t *testing.T) { testDirectory(t, seeded(t, newStore)) })
	t.Run("Search", func(t *testing.T) { testSearch(t, seeded(t, newStore)) })
	t.Run("SearchFoldsNonASCII", func(t *testing.T) { testSearchNonASCII(t, newStore(t)) })
	t.Run("ReplaceStudents", func(t *testing.T) { testReplace(t, seeded(t, newStore)) })
	t.Run("Ledger", func(t *testing.T) { testLedger(t, newStore(t)) })
	t.Run("Splits", func(t *testing.T) { testSplits(t, newStore(t)) })
	t.Run("Ping", func(t *testing.T) { require.NoError(t, newStore(t).Ping(context.Background())) })
}

func seeded(t *testing.T, newStore func(t *testing.T) storage.Store) storage.Store {
	t.Helper()
	s := newStore(t)
	n, err := s.ReplaceStudents(context.Background(), Roster())
	require.NoError(t, err)
	require.Equal(t, len(Roster()), n)
	return s
}

func testDirectory(t *testing.T, s storage.Store) {
	ctx := context.Background()

	got, err := s.FindStudent(ctx, "11111111")
	require.NoError(t, err)
	assert.Equal(t, Roster()[0], got)

	_, err = s.FindStudent(ctx, "99999999")
	assert.ErrorIs(t, err, core.ErrStudentNotFound)

	updated, err := s.UpdateBudget(ctx, "22222222", core.Budget{Type: core.Weekly, Amount: 750})
	require.NoError(t, err)
	assert.Equal(t, core.Budget{Type: core.Weekly, Amount: 750}, updated.Budget)

	updated, err = s.UpdateIncome(ctx, "22222222", 12000)
	require.NoError(t, err)
	assert.Equal(t, 12000.0, updated.Income)
	assert.Equal(t, core.Weekly, updated.Budget.Type, "income update leaves budget alone")

	reloaded, err := s.FindStudent(ctx, "22222222")
	require.NoError(t, err)
	assert.Equal(t, updated, reloaded)

	_, err = s.UpdateBudget(ctx, "99999999", core.Budget{Type: core.Monthly, Amount: 1})
	assert.ErrorIs(t, err, core.ErrStudentNotFound)
	_, err = s.UpdateIncome(ctx, "99999999", 1)
	assert.ErrorIs(t, err, core.ErrStudentNotFound)
}

func regNos(students []core.Student) []string {
	out := make([]string, len(students))
	for i, s := range students {
		out[i] = s.RegNo
	}
	return out
}

func testSearch(t *testing.T, s storage.Store) {
	ctx := context.Background()

	got, err := s.SearchStudents(ctx, "ash", "", storage.DefaultSearchLimit)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"11111111", "12300000"}, regNos(got))

	got, err = s.SearchStudents(ctx, "ASH", "11111111", storage.DefaultSearchLimit)
	require.NoError(t, err)
	assert.Equal(t, []string{"12300000"}, regNos(got))

	got, err = s.SearchStudents(ctx, "222", "", storage.DefaultSearchLimit)
	require.NoError(t, err)
	assert.Equal(t, []string{"22222222"}, regNos(got))

	got, err = s.SearchStudents(ctx, "%", "", storage.DefaultSearchLimit)
	require.NoError(t, err)
	assert.Empty(t, got, "pattern characters match literally")

	got, err = s.SearchStudents(ctx, "a", "", 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func testSearchNonASCII(t *testing.T, s storage.Store) {
	ctx := context.Background()
	_, err := s.ReplaceStudents(ctx, []core.Student{
		core.NewStudent("44444444", "ÉLODIE Martin"),
		core.NewStudent("55555555", "Jürgen Öztürk"),
	})
	require.NoError(t, err)

	got, err := s.SearchStudents(ctx, "élodie", "", storage.DefaultSearchLimit)
	require.NoError(t, err)
	assert.Equal(t, []string{"44444444"}, regNos(got))

	got, err = s.SearchStudents(ctx, "ÖZT", "", storage.DefaultSearchLimit)
	require.NoError(t, err)
	assert.Equal(t, []string{"55555555"}, regNos(got))
}

func testReplace(t *testing.T, s storage.Store) {
	ctx := context.Background()

	n, err := s.ReplaceStudents(ctx, []core.Student{core.NewStudent("44444444", "Dana")})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.FindStudent(ctx, "11111111")
	assert.ErrorIs(t, err, core.ErrStudentNotFound)
	_, err = s.FindStudent(ctx, "44444444")
	assert.NoError(t, err)
}

func testLedger(t *testing.T, s storage.Store) {
	ctx := context.Background()

	lunch, err := s.CreateExpense(ctx, core.Expense{
		Name: "Lunch", Amount: 120, Category: core.CategoryFood, Date: core.NewDate(2025, 1, 5), RegNo: "11111111",
	})
	require.NoError(t, err)
	require.NotEmpty(t, lunch.ID)

	_, err = s.CreateExpense(ctx, core.Expense{
		Name: "Bus", Amount: 30, Category: core.CategoryTransport, Date: core.NewDate(2025, 1, 6), RegNo: "11111111",
	})
	require.NoError(t, err)
	_, err = s.CreateExpense(ctx, core.Expense{
		Name: "Book", Amount: 450, Category: core.CategoryBooks, Date: core.NewDate(2025, 1, 7), RegNo: "22222222",
	})
	require.NoError(t, err)

	list, err := s.ListExpenses(ctx, "11111111")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	empty, err := s.ListExpenses(ctx, "99999999")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	got, err := s.GetExpense(ctx, lunch.ID)
	require.NoError(t, err)
	assert.Equal(t, lunch, got)

	amount := 95.5
	cat := core.CategoryOthers
	updated, err := s.UpdateExpense(ctx, lunch.ID, core.ExpensePatch{Amount: &amount, Category: &cat})
	require.NoError(t, err)
	assert.Equal(t, "Lunch", updated.Name)
	assert.Equal(t, 95.5, updated.Amount)
	assert.Equal(t, core.CategoryOthers, updated.Category)
	assert.Equal(t, lunch.Date, updated.Date)

	_, err = s.UpdateExpense(ctx, "missing", core.ExpensePatch{Amount: &amount})
	assert.ErrorIs(t, err, core.ErrExpenseNotFound)

	require.NoError(t, s.DeleteExpense(ctx, lunch.ID))
	assert.ErrorIs(t, s.DeleteExpense(ctx, lunch.ID), core.ErrExpenseNotFound)
	_, err = s.GetExpense(ctx, lunch.ID)
	assert.ErrorIs(t, err, core.ErrExpenseNotFound)

	list, err = s.ListExpenses(ctx, "11111111")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func testSplits(t *testing.T, s storage.Store) {
	ctx := context.Background()
	roster := Roster()
	asha, bilal, chen := roster[0], roster[1], roster[2]
	when := time.Date(2025, 3, 1, 20, 15, 0, 0, time.UTC)

	dinner := core.AllocateSplit(core.SplitRequest{
		Name: "Dinner", TotalAmount: 90, Creator: asha, Participants: []core.Student{bilal, chen}, Date: when,
	})
	created, err := s.CreateSplit(ctx, dinner)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	// The creator also appears among the participants; the bill must still
	// come back once.
	cab := core.AllocateSplit(core.SplitRequest{
		Name: "Cab", TotalAmount: 40, Creator: bilal, Participants: []core.Student{bilal}, Date: when.Add(time.Hour),
	})
	_, err = s.CreateSplit(ctx, cab)
	require.NoError(t, err)

	forAsha, err := s.ListSplits(ctx, asha.RegNo)
	require.NoError(t, err)
	require.Len(t, forAsha, 1)
	assert.Equal(t, created.ID, forAsha[0].ID)
	assert.Equal(t, "Dinner", forAsha[0].Name)
	assert.Equal(t, 30.0, forAsha[0].AmountPerPerson)
	assert.True(t, forAsha[0].Date.Equal(when))
	require.Len(t, forAsha[0].Participants, 3)
	assert.Equal(t, dinner.Participants, forAsha[0].Participants)

	forBilal, err := s.ListSplits(ctx, bilal.RegNo)
	require.NoError(t, err)
	assert.Len(t, forBilal, 2)

	forChen, err := s.ListSplits(ctx, chen.RegNo)
	require.NoError(t, err)
	assert.Len(t, forChen, 1)

	none, err := s.ListSplits(ctx, "99999999")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
