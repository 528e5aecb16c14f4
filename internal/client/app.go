package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"studentspend/internal/core"
	applog "studentspend/internal/log"
)

// ErrNotLoggedIn is returned by operations that need a current student.
var ErrNotLoggedIn = errors.New("not logged in")

// App holds the logged-in student and the collections loaded for them. It
// is not safe for concurrent use.
type App struct {
	api      *API
	sessions SessionStore
	now      func() time.Time

	Student  core.Student
	Expenses []core.Expense
	Splits   []core.SplitBill
}

func NewApp(api *API, sessions SessionStore) *App {
	return &App{api: api, sessions: sessions, now: time.Now}
}

func (a *App) LoggedIn() bool {
	return a.Student.RegNo != ""
}

// Login checks the format locally, authenticates and loads the student's
// data. State and the saved session change only when every call succeeds.
func (a *App) Login(ctx context.Context, regNo string) error {
	regNo = core.NormalizeRegNo(regNo)
	if err := ValidateRegNo(regNo); err != nil {
		return err
	}
	if _, err := a.api.Login(ctx, regNo); err != nil {
		return err
	}
	st, expenses, splits, err := a.load(ctx, regNo)
	if err != nil {
		return err
	}

	a.Student, a.Expenses, a.Splits = st, expenses, splits
	if a.sessions != nil {
		if err := a.sessions.Save(SavedSession{Student: st, SavedAt: a.now().UTC()}); err != nil {
			slog.WarnContext(ctx, "Failed to persist session", applog.FieldRegNo, st.RegNo, "error", err)
		}
	}
	return nil
}

// Restore resumes a saved session. It reports false when there is none.
func (a *App) Restore(ctx context.Context) (bool, error) {
	if a.sessions == nil {
		return false, nil
	}
	saved, ok, err := a.sessions.Load()
	if err != nil || !ok {
		return false, err
	}
	st, expenses, splits, err := a.load(ctx, saved.Student.RegNo)
	if IsNotFound(err) {
		_ = a.sessions.Clear()
		return false, nil
	}
	if err != nil {
		return false, err
	}
	a.Student, a.Expenses, a.Splits = st, expenses, splits
	return true, nil
}

func (a *App) Logout() error {
	a.reset()
	if a.sessions == nil {
		return nil
	}
	return a.sessions.Clear()
}

func (a *App) reset() {
	a.Student = core.Student{}
	a.Expenses = nil
	a.Splits = nil
}

// Reload fetches the profile, expenses and splits of the current student.
func (a *App) Reload(ctx context.Context) error {
	if !a.LoggedIn() {
		return ErrNotLoggedIn
	}
	st, expenses, splits, err := a.load(ctx, a.Student.RegNo)
	if err != nil {
		return err
	}
	a.Student, a.Expenses, a.Splits = st, expenses, splits
	return nil
}

// load fetches everything the dashboard needs concurrently.
func (a *App) load(ctx context.Context, regNo string) (core.Student, []core.Expense, []core.SplitBill, error) {
	var (
		st       core.Student
		expenses []core.Expense
		splits   []core.SplitBill
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		st, err = a.api.Student(gctx, regNo)
		return err
	})
	g.Go(func() (err error) {
		expenses, err = a.api.Expenses(gctx, regNo)
		return err
	})
	g.Go(func() (err error) {
		splits, err = a.api.Splits(gctx, regNo)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Student{}, nil, nil, fmt.Errorf("load data for %s: %w", regNo, err)
	}
	return st, expenses, splits, nil
}

// Dashboard derives the summary from the loaded collections.
func (a *App) Dashboard() core.Summary {
	return core.Summarize(a.Student, a.Expenses, a.Splits)
}

func (a *App) AddExpense(ctx context.Context, f ExpenseForm) (core.Expense, error) {
	if !a.LoggedIn() {
		return core.Expense{}, ErrNotLoggedIn
	}
	if err := f.Validate(); err != nil {
		return core.Expense{}, err
	}
	e, err := a.api.CreateExpense(ctx, f.fields(a.Student.RegNo))
	if err != nil {
		return core.Expense{}, err
	}
	a.Expenses = append(a.Expenses, e)
	return e, nil
}

func (a *App) EditExpense(ctx context.Context, id string, f ExpenseForm) (core.Expense, error) {
	if !a.LoggedIn() {
		return core.Expense{}, ErrNotLoggedIn
	}
	if err := f.Validate(); err != nil {
		return core.Expense{}, err
	}
	e, err := a.api.UpdateExpense(ctx, id, f.fields(a.Student.RegNo))
	if err != nil {
		return core.Expense{}, err
	}
	for i := range a.Expenses {
		if a.Expenses[i].ID == id {
			a.Expenses[i] = e
		}
	}
	return e, nil
}

func (a *App) DeleteExpense(ctx context.Context, id string) error {
	if !a.LoggedIn() {
		return ErrNotLoggedIn
	}
	if err := a.api.DeleteExpense(ctx, id); err != nil {
		return err
	}
	kept := a.Expenses[:0]
	for _, e := range a.Expenses {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	a.Expenses = kept
	return nil
}

func (a *App) SetBudget(ctx context.Context, b core.Budget) error {
	if !a.LoggedIn() {
		return ErrNotLoggedIn
	}
	st, err := a.api.UpdateBudget(ctx, a.Student.RegNo, b)
	if err != nil {
		return err
	}
	a.Student = st
	return nil
}

func (a *App) SetIncome(ctx context.Context, income float64) error {
	if !a.LoggedIn() {
		return ErrNotLoggedIn
	}
	st, err := a.api.UpdateIncome(ctx, a.Student.RegNo, income)
	if err != nil {
		return err
	}
	a.Student = st
	return nil
}

// Search looks up classmates by name or regNo prefix. Terms shorter than
// three characters return nothing without a request, and the current
// student is never among the results.
func (a *App) Search(ctx context.Context, term string) ([]core.Student, error) {
	term = strings.TrimSpace(term)
	if !ShouldSearch(term) {
		return []core.Student{}, nil
	}
	found, err := a.api.SearchStudents(ctx, term, a.Student.RegNo)
	if err != nil {
		return nil, err
	}
	out := make([]core.Student, 0, len(found))
	for _, s := range found {
		if s.RegNo != a.Student.RegNo {
			out = append(out, s)
		}
	}
	return out, nil
}

// Lookup fetches another student's profile by registration number.
func (a *App) Lookup(ctx context.Context, regNo string) (core.Student, error) {
	regNo = core.NormalizeRegNo(regNo)
	if err := ValidateRegNo(regNo); err != nil {
		return core.Student{}, err
	}
	return a.api.Student(ctx, regNo)
}

// CreateSplit submits the form and refreshes the split list.
func (a *App) CreateSplit(ctx context.Context, f *SplitForm) (core.SplitBill, error) {
	if !a.LoggedIn() {
		return core.SplitBill{}, ErrNotLoggedIn
	}
	if err := f.Validate(); err != nil {
		return core.SplitBill{}, err
	}
	bill, err := a.api.CreateSplit(ctx, strings.TrimSpace(f.Name), f.Amount, a.Student.RegNo, f.Participants())
	if err != nil {
		return core.SplitBill{}, err
	}
	splits, err := a.api.Splits(ctx, a.Student.RegNo)
	if err != nil {
		a.Splits = append(a.Splits, bill)
		return bill, nil
	}
	a.Splits = splits
	return bill, nil
}

// Contact sends a message on behalf of anyone, logged in or not.
func (a *App) Contact(ctx context.Context, m core.ContactMessage) (string, error) {
	if m.Validate() != nil {
		return "", &ValidationError{Message: MsgContactFields}
	}
	return a.api.Contact(ctx, m)
}
