package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"studentspend/internal/core"
	applog "studentspend/internal/log"
	"studentspend/internal/metrics"
	"studentspend/internal/storage"
)

// LedgerService is the CRUD surface of personal expenses.
type LedgerService struct {
	ledger  storage.ExpenseLedger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewLedgerService(ledger storage.ExpenseLedger, m *metrics.Metrics) *LedgerService {
	return &LedgerService{ledger: ledger, metrics: m, now: time.Now}
}

// Create stores a new expense, dating it today when no date is given.
func (s *LedgerService) Create(ctx context.Context, e core.Expense) (core.Expense, error) {
	e.ID = ""
	e.RegNo = core.NormalizeRegNo(e.RegNo)
	if e.Date.IsZero() {
		e.Date = core.DateOf(s.now())
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	created, err := s.ledger.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	s.metrics.ExpenseWrite("create")
	slog.InfoContext(ctx, "Expense created",
		applog.FieldExpenseID, created.ID, applog.FieldRegNo, created.RegNo,
		"category", created.Category, "amount", created.Amount)
	return created, nil
}

func (s *LedgerService) List(ctx context.Context, regNo string) ([]core.Expense, error) {
	return s.ledger.ListExpenses(ctx, core.NormalizeRegNo(regNo))
}

// Update applies the non-nil fields of p to the expense.
func (s *LedgerService) Update(ctx context.Context, id string, p core.ExpensePatch) (core.Expense, error) {
	if p.Category != nil && !p.Category.Valid() {
		return core.Expense{}, core.ErrInvalidCategory
	}
	if p.RegNo != nil {
		r := core.NormalizeRegNo(*p.RegNo)
		p.RegNo = &r
	}

	updated, err := s.ledger.UpdateExpense(ctx, id, p)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense %s: %w", id, err)
	}
	s.metrics.ExpenseWrite("update")
	slog.InfoContext(ctx, "Expense updated", applog.FieldExpenseID, id)
	return updated, nil
}

func (s *LedgerService) Delete(ctx context.Context, id string) error {
	if err := s.ledger.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense %s: %w", id, err)
	}
	s.metrics.ExpenseWrite("delete")
	slog.InfoContext(ctx, "Expense deleted", applog.FieldExpenseID, id)
	return nil
}
