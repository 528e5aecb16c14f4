// Package storage defines the persistence ports of the tracker. Concrete
// stores live in the memory, sqlite and mongo subpackages.
package storage

import (
	"context"

	"github.com/google/uuid"

	"studentspend/internal/core"
)

// DefaultSearchLimit caps directory search results.
const DefaultSearchLimit = 10

type (
	// StudentDirectory holds one record per student keyed by registration number.
	StudentDirectory interface {
		FindStudent(ctx context.Context, regNo string) (core.Student, error)
		UpdateBudget(ctx context.Context, regNo string, b core.Budget) (core.Student, error)
		UpdateIncome(ctx context.Context, regNo string, income float64) (core.Student, error)
		// SearchStudents matches term case-insensitively as a substring of the
		// registration number or the name, skipping exclude.
		SearchStudents(ctx context.Context, term, exclude string, limit int) ([]core.Student, error)
		// ReplaceStudents drops every student and inserts the given roster.
		ReplaceStudents(ctx context.Context, students []core.Student) (int, error)
	}

	ExpenseLedger interface {
		CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
		ListExpenses(ctx context.Context, regNo string) ([]core.Expense, error)
		GetExpense(ctx context.Context, id string) (core.Expense, error)
		UpdateExpense(ctx context.Context, id string, p core.ExpensePatch) (core.Expense, error)
		DeleteExpense(ctx context.Context, id string) error
	}

	SplitBillStore interface {
		CreateSplit(ctx context.Context, s core.SplitBill) (core.SplitBill, error)
		// ListSplits returns every bill created by regNo or listing it as a
		// participant, each bill at most once.
		ListSplits(ctx context.Context, regNo string) ([]core.SplitBill, error)
	}

	// Store is the full persistence surface a backend provides.
	Store interface {
		StudentDirectory
		ExpenseLedger
		SplitBillStore
		Ping(ctx context.Context) error
		Close() error
	}
)

// NewID returns an identifier for a new expense or split bill.
func NewID() string {
	return uuid.NewString()
}
