package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studentspend/internal/core"
	"studentspend/internal/metrics"
	"studentspend/internal/storage/memory"
	"studentspend/internal/storage/storagetest"
)

type fakePublisher struct {
	mu       sync.Mutex
	contacts []core.ContactMessage
	splits   []core.SplitBill
	err      error
}

func (p *fakePublisher) PublishContact(_ context.Context, m core.ContactMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.contacts = append(p.contacts, m)
	return p.err
}

func (p *fakePublisher) PublishSplitCreated(_ context.Context, b core.SplitBill) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.splits = append(p.splits, b)
	return p.err
}

func fixedClock() time.Time {
	return time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC)
}

func TestDirectoryService_Login(t *testing.T) {
	ctx := context.Background()
	svc := NewDirectoryService(memory.New(storagetest.Roster()...), metrics.New())

	st, err := svc.Login(ctx, "  11111111 ")
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", st.Name)

	_, err = svc.Login(ctx, "12345678")
	assert.ErrorIs(t, err, core.ErrStudentNotFound)

	_, err = svc.Login(ctx, "   ")
	assert.ErrorIs(t, err, core.ErrStudentNotFound)
}

func TestDirectoryService_Updates(t *testing.T) {
	ctx := context.Background()
	svc := NewDirectoryService(memory.New(storagetest.Roster()...), nil)

	st, err := svc.UpdateBudget(ctx, "22222222", core.Budget{Type: core.Weekly, Amount: 1200})
	require.NoError(t, err)
	assert.Equal(t, core.Budget{Type: core.Weekly, Amount: 1200}, st.Budget)

	st, err = svc.UpdateIncome(ctx, "22222222", 8000)
	require.NoError(t, err)
	assert.Equal(t, 8000.0, st.Income)
	assert.Equal(t, core.Weekly, st.Budget.Type)

	_, err = svc.UpdateIncome(ctx, "99999999", 1)
	assert.ErrorIs(t, err, core.ErrStudentNotFound)

	profile, err := svc.Profile(ctx, "22222222")
	require.NoError(t, err)
	assert.Equal(t, st, profile)
}

type countingDirectory struct {
	*memory.Store
	searches int
}

func (d *countingDirectory) SearchStudents(ctx context.Context, term, exclude string, limit int) ([]core.Student, error) {
	d.searches++
	return d.Store.SearchStudents(ctx, term, exclude, limit)
}

func TestDirectoryService_Search(t *testing.T) {
	ctx := context.Background()
	dir := &countingDirectory{Store: memory.New(storagetest.Roster()...)}
	svc := NewDirectoryService(dir, nil)

	t.Run("short term skips the directory", func(t *testing.T) {
		for _, term := range []string{"", "a", "ab", "  ab  "} {
			got, err := svc.Search(ctx, term, "")
			require.NoError(t, err)
			assert.Empty(t, got)
			assert.NotNil(t, got)
		}
		assert.Equal(t, 0, dir.searches)
	})

	t.Run("matches name and excludes caller", func(t *testing.T) {
		got, err := svc.Search(ctx, "ASH", "11111111")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "12300000", got[0].RegNo)
		assert.Equal(t, 1, dir.searches)
	})

	t.Run("matches registration number", func(t *testing.T) {
		got, err := svc.Search(ctx, "123", "")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Ashwin Menon", got[0].Name)
	})

	t.Run("caps results", func(t *testing.T) {
		roster := make([]core.Student, 0, 15)
		for i := 0; i < 15; i++ {
			roster = append(roster, core.NewStudent(
				time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i).Format("20060102"),
				"Member"))
		}
		svc := NewDirectoryService(memory.New(roster...), nil)
		got, err := svc.Search(ctx, "member", "")
		require.NoError(t, err)
		assert.Len(t, got, 10)
	})
}

func TestLedgerService(t *testing.T) {
	ctx := context.Background()
	svc := NewLedgerService(memory.New(), metrics.New())
	svc.now = fixedClock

	created, err := svc.Create(ctx, core.Expense{
		ID: "client-chosen", Name: "Lunch", Amount: 120, Category: core.CategoryFood, RegNo: " 11111111 ",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.NotEqual(t, "client-chosen", created.ID)
	assert.Equal(t, "11111111", created.RegNo)
	assert.Equal(t, core.NewDate(2026, 3, 14), created.Date)

	_, err = svc.Create(ctx, core.Expense{Name: "Lunch", Amount: 1, Category: "Snacks", RegNo: "11111111"})
	assert.ErrorIs(t, err, core.ErrInvalidCategory)
	_, err = svc.Create(ctx, core.Expense{Amount: 1, Category: core.CategoryFood, RegNo: "11111111"})
	assert.ErrorIs(t, err, core.ErrEmptyName)

	amount := 150.0
	updated, err := svc.Update(ctx, created.ID, core.ExpensePatch{Amount: &amount})
	require.NoError(t, err)
	assert.Equal(t, 150.0, updated.Amount)
	assert.Equal(t, "Lunch", updated.Name)

	bad := core.Category("Snacks")
	_, err = svc.Update(ctx, created.ID, core.ExpensePatch{Category: &bad})
	assert.ErrorIs(t, err, core.ErrInvalidCategory)

	list, err := svc.List(ctx, "11111111")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, created.ID))
	assert.ErrorIs(t, svc.Delete(ctx, created.ID), core.ErrExpenseNotFound)
	_, err = svc.Update(ctx, created.ID, core.ExpensePatch{Amount: &amount})
	assert.ErrorIs(t, err, core.ErrExpenseNotFound)
}

func TestSplitService_Create(t *testing.T) {
	ctx := context.Background()
	store := memory.New(storagetest.Roster()...)
	pub := &fakePublisher{}
	svc := NewSplitService(store, store, pub, metrics.New())
	svc.now = fixedClock

	bill, err := svc.Create(ctx, CreateSplitInput{
		Name:        "Dinner",
		TotalAmount: 90,
		CreatedBy:   "11111111",
		Participants: []core.Student{
			{RegNo: "22222222", Name: "Bilal Khan"},
			{RegNo: "33333333", Name: "Chen Li"},
		},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, bill.ID)
	assert.Equal(t, 30.0, bill.AmountPerPerson)
	assert.Equal(t, fixedClock(), bill.Date)
	require.Len(t, bill.Participants, 3)
	assert.Equal(t, core.ParticipantSnapshot{RegNo: "11111111", Name: "Asha Rao", Paid: true, Amount: 30}, bill.Participants[0])
	assert.False(t, bill.Participants[1].Paid)
	assert.False(t, bill.Participants[2].Paid)

	require.Len(t, pub.splits, 1)
	assert.Equal(t, bill.ID, pub.splits[0].ID)

	for _, regNo := range []string{"11111111", "22222222", "33333333"} {
		got, err := svc.List(ctx, regNo)
		require.NoError(t, err)
		assert.Len(t, got, 1, regNo)
	}
	got, err := svc.List(ctx, "12300000")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSplitService_CreateErrors(t *testing.T) {
	ctx := context.Background()
	store := memory.New(storagetest.Roster()...)
	svc := NewSplitService(store, store, nil, nil)
	one := []core.Student{{RegNo: "22222222", Name: "Bilal Khan"}}

	tests := []struct {
		name string
		in   CreateSplitInput
		want error
	}{
		{"unknown creator", CreateSplitInput{Name: "x", TotalAmount: 10, CreatedBy: "99999999", Participants: one}, core.ErrStudentNotFound},
		{"empty name", CreateSplitInput{Name: "  ", TotalAmount: 10, CreatedBy: "11111111", Participants: one}, core.ErrEmptyName},
		{"zero total", CreateSplitInput{Name: "x", TotalAmount: 0, CreatedBy: "11111111", Participants: one}, core.ErrInvalidTotal},
		{"no participants", CreateSplitInput{Name: "x", TotalAmount: 10, CreatedBy: "11111111"}, core.ErrNoParticipants},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSplitService_PublishFailureIsNotFatal(t *testing.T) {
	store := memory.New(storagetest.Roster()...)
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewSplitService(store, store, pub, metrics.New())

	bill, err := svc.Create(context.Background(), CreateSplitInput{
		Name: "Cab", TotalAmount: 100, CreatedBy: "11111111",
		Participants: []core.Student{{RegNo: "22222222", Name: "Bilal Khan"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 50.0, bill.AmountPerPerson)
	assert.Len(t, pub.splits, 1)
}

func TestContactService(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	svc := NewContactService(pub, metrics.New())

	ack, err := svc.Submit(ctx, core.ContactMessage{Name: " Asha ", Email: "asha@university.edu", Message: "Hello"})
	require.NoError(t, err)
	assert.Equal(t, "Message received", ack)
	require.Len(t, pub.contacts, 1)
	assert.Equal(t, "Asha", pub.contacts[0].Name)

	_, err = svc.Submit(ctx, core.ContactMessage{Name: "Asha", Email: "asha@university.edu"})
	assert.ErrorIs(t, err, core.ErrEmptyContactBody)
	assert.Len(t, pub.contacts, 1)

	ack, err = NewContactService(nil, nil).Submit(ctx, core.ContactMessage{Name: "a", Email: "b", Message: "c"})
	require.NoError(t, err)
	assert.Equal(t, ContactAcknowledgement, ack)
}

func TestSummaryService(t *testing.T) {
	ctx := context.Background()
	store := memory.New(storagetest.Roster()...)
	_, err := store.UpdateIncome(ctx, "11111111", 1000)
	require.NoError(t, err)
	_, err = store.UpdateBudget(ctx, "11111111", core.Budget{Type: core.Monthly, Amount: 400})
	require.NoError(t, err)

	for _, e := range []core.Expense{
		{Name: "a", Amount: 100, Category: core.CategoryFood, Date: core.NewDate(2026, 2, 1), RegNo: "11111111"},
		{Name: "b", Amount: 50, Category: core.CategoryFood, Date: core.NewDate(2026, 1, 9), RegNo: "11111111"},
		{Name: "c", Amount: 30, Category: core.CategoryTransport, Date: core.NewDate(2026, 2, 3), RegNo: "11111111"},
		{Name: "other", Amount: 999, Category: core.CategoryBooks, Date: core.NewDate(2026, 2, 3), RegNo: "22222222"},
	} {
		_, err := store.CreateExpense(ctx, e)
		require.NoError(t, err)
	}
	splits := NewSplitService(store, store, nil, nil)
	_, err = splits.Create(ctx, CreateSplitInput{
		Name: "Dinner", TotalAmount: 90, CreatedBy: "22222222",
		Participants: []core.Student{{RegNo: "11111111", Name: "Asha Rao"}, {RegNo: "33333333", Name: "Chen Li"}},
	})
	require.NoError(t, err)

	sum, err := NewSummaryService(store).Summary(ctx, "11111111")
	require.NoError(t, err)
	assert.Equal(t, 180.0, sum.TotalExpenses)
	assert.Equal(t, 30.0, sum.TotalSplitShare)
	assert.Equal(t, 210.0, sum.CombinedExpenses)
	assert.Equal(t, 790.0, sum.Savings)
	assert.InDelta(t, 52.5, sum.BudgetUsedPercent, 1e-9)
	assert.Equal(t, core.BudgetOK, sum.BudgetStatus)
	assert.Equal(t, []core.CategoryAmount{{Name: core.CategoryFood, Value: 150}, {Name: core.CategoryTransport, Value: 30}}, sum.Categories)
	assert.Equal(t, []core.MonthAmount{{Month: "2026-01", Amount: 50}, {Month: "2026-02", Amount: 130}}, sum.Months)

	_, err = NewSummaryService(store).Summary(ctx, "99999999")
	assert.ErrorIs(t, err, core.ErrStudentNotFound)
}
