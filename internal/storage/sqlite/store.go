package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"studentspend/internal/core"
	"studentspend/internal/storage"

	_ "modernc.org/sqlite"
)

type Store struct {
	db      *sql.DB
	queries *Queries
}

var _ storage.Store = (*Store)(nil)

func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{
		db:      db,
		queries: New(db),
	}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) FindStudent(ctx context.Context, regNo string) (core.Student, error) {
	r, err := s.queries.GetStudent(ctx, regNo)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Student{}, core.ErrStudentNotFound
	}
	if err != nil {
		return core.Student{}, fmt.Errorf("get student: %w", err)
	}
	return r.toCore(), nil
}

func (s *Store) UpdateBudget(ctx context.Context, regNo string, b core.Budget) (core.Student, error) {
	n, err := s.queries.UpdateStudentBudget(ctx, regNo, string(b.Type), b.Amount)
	if err != nil {
		return core.Student{}, fmt.Errorf("update budget: %w", err)
	}
	if n == 0 {
		return core.Student{}, core.ErrStudentNotFound
	}
	return s.FindStudent(ctx, regNo)
}

func (s *Store) UpdateIncome(ctx context.Context, regNo string, income float64) (core.Student, error) {
	n, err := s.queries.UpdateStudentIncome(ctx, regNo, income)
	if err != nil {
		return core.Student{}, fmt.Errorf("update income: %w", err)
	}
	if n == 0 {
		return core.Student{}, core.ErrStudentNotFound
	}
	return s.FindStudent(ctx, regNo)
}

func (s *Store) SearchStudents(ctx context.Context, term, exclude string, limit int) ([]core.Student, error) {
	rows, err := s.queries.SearchStudents(ctx, term, exclude, limit)
	if err != nil {
		return nil, fmt.Errorf("search students: %w", err)
	}
	out := make([]core.Student, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toCore())
	}
	return out, nil
}

func (s *Store) ReplaceStudents(ctx context.Context, students []core.Student) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := s.queries.WithTx(tx)
	if err := q.DeleteAllStudents(ctx); err != nil {
		return 0, fmt.Errorf("clear students: %w", err)
	}
	for _, st := range students {
		if err := q.InsertStudent(ctx, studentFromCore(st)); err != nil {
			return 0, fmt.Errorf("insert student %s: %w", st.RegNo, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit roster: %w", err)
	}

	slog.InfoContext(ctx, "Student roster replaced", "count", len(students))
	return len(students), nil
}

func (s *Store) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if e.ID == "" {
		e.ID = storage.NewID()
	}
	if err := s.queries.InsertExpense(ctx, expenseFromCore(e)); err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	slog.DebugContext(ctx, "Expense saved to SQLite", "id", e.ID, "reg_no", e.RegNo)
	return e, nil
}

func (s *Store) ListExpenses(ctx context.Context, regNo string) ([]core.Expense, error) {
	rows, err := s.queries.ListExpensesByRegNo(ctx, regNo)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	out := make([]core.Expense, 0, len(rows))
	for _, r := range rows {
		e, err := r.toCore()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Store) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	r, err := s.queries.GetExpense(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrExpenseNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return r.toCore()
}

func (s *Store) UpdateExpense(ctx context.Context, id string, p core.ExpensePatch) (core.Expense, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Expense{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := s.queries.WithTx(tx)
	r, err := q.GetExpense(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrExpenseNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	current, err := r.toCore()
	if err != nil {
		return core.Expense{}, err
	}

	updated := p.Apply(current)
	if _, err := q.UpdateExpense(ctx, expenseFromCore(updated)); err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Expense{}, fmt.Errorf("commit expense: %w", err)
	}
	return updated, nil
}

func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	n, err := s.queries.DeleteExpense(ctx, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n == 0 {
		return core.ErrExpenseNotFound
	}
	return nil
}

func (s *Store) CreateSplit(ctx context.Context, b core.SplitBill) (core.SplitBill, error) {
	if b.ID == "" {
		b.ID = storage.NewID()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.SplitBill{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := s.queries.WithTx(tx)
	if err := q.InsertSplit(ctx, splitRow{
		ID:              b.ID,
		Name:            b.Name,
		TotalAmount:     b.TotalAmount,
		AmountPerPerson: b.AmountPerPerson,
		CreatedBy:       b.CreatedBy,
		Date:            b.Date.UTC().Format(time.RFC3339Nano),
	}); err != nil {
		return core.SplitBill{}, fmt.Errorf("create split: %w", err)
	}
	for i, p := range b.Participants {
		if err := q.InsertParticipant(ctx, participantRow{
			SplitID:  b.ID,
			Position: int64(i),
			RegNo:    p.RegNo,
			Name:     p.Name,
			Paid:     p.Paid,
			Amount:   p.Amount,
		}); err != nil {
			return core.SplitBill{}, fmt.Errorf("add participant %s: %w", p.RegNo, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return core.SplitBill{}, fmt.Errorf("commit split: %w", err)
	}

	slog.DebugContext(ctx, "Split saved to SQLite", "id", b.ID, "participants", len(b.Participants))
	return b, nil
}

func (s *Store) ListSplits(ctx context.Context, regNo string) ([]core.SplitBill, error) {
	rows, err := s.queries.ListSplitsForRegNo(ctx, regNo)
	if err != nil {
		return nil, fmt.Errorf("list splits: %w", err)
	}

	out := make([]core.SplitBill, 0, len(rows))
	for _, r := range rows {
		date, err := time.Parse(time.RFC3339Nano, r.Date)
		if err != nil {
			return nil, fmt.Errorf("split %s: parse date %q: %w", r.ID, r.Date, err)
		}
		parts, err := s.queries.ListParticipants(ctx, r.ID)
		if err != nil {
			return nil, fmt.Errorf("list participants of %s: %w", r.ID, err)
		}

		bill := core.SplitBill{
			ID:              r.ID,
			Name:            r.Name,
			TotalAmount:     r.TotalAmount,
			AmountPerPerson: r.AmountPerPerson,
			CreatedBy:       r.CreatedBy,
			Date:            date,
			Participants:    make([]core.ParticipantSnapshot, 0, len(parts)),
		}
		for _, p := range parts {
			bill.Participants = append(bill.Participants, core.ParticipantSnapshot{
				RegNo:  p.RegNo,
				Name:   p.Name,
				Paid:   p.Paid,
				Amount: p.Amount,
			})
		}
		out = append(out, bill)
	}
	return out, nil
}

func (r studentRow) toCore() core.Student {
	return core.Student{
		RegNo:   r.RegNo,
		Name:    r.Name,
		Email:   r.Email,
		Section: r.Section,
		Budget:  core.Budget{Type: core.BudgetPeriod(r.BudgetType), Amount: r.BudgetAmount},
		Income:  r.Income,
	}
}

func studentFromCore(s core.Student) studentRow {
	return studentRow{
		RegNo:        s.RegNo,
		Name:         s.Name,
		Email:        s.Email,
		Section:      s.Section,
		BudgetType:   string(s.Budget.Type),
		BudgetAmount: s.Budget.Amount,
		Income:       s.Income,
	}
}

func (r expenseRow) toCore() (core.Expense, error) {
	date, err := core.ParseDate(r.Date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense %s: parse date %q: %w", r.ID, r.Date, err)
	}
	return core.Expense{
		ID:       r.ID,
		Name:     r.Name,
		Amount:   r.Amount,
		Category: core.Category(r.Category),
		Date:     date,
		RegNo:    r.RegNo,
	}, nil
}

func expenseFromCore(e core.Expense) expenseRow {
	return expenseRow{
		ID:       e.ID,
		Name:     e.Name,
		Amount:   e.Amount,
		Category: string(e.Category),
		Date:     e.Date.String(),
		RegNo:    e.RegNo,
	}
}
