package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"studentspend/internal/core"
	applog "studentspend/internal/log"
	"studentspend/internal/metrics"
	"studentspend/internal/storage"
)

// MinSearchTermLength is the shortest term that reaches the directory.
const MinSearchTermLength = 3

// DirectoryService serves login, profile and search against the student directory.
type DirectoryService struct {
	students storage.StudentDirectory
	metrics  *metrics.Metrics
}

func NewDirectoryService(students storage.StudentDirectory, m *metrics.Metrics) *DirectoryService {
	return &DirectoryService{students: students, metrics: m}
}

// Login resolves a registration number to its student record. Only the
// surrounding whitespace of the input is ignored.
func (s *DirectoryService) Login(ctx context.Context, regNo string) (core.Student, error) {
	regNo = core.NormalizeRegNo(regNo)
	if regNo == "" {
		s.metrics.Login(false)
		return core.Student{}, core.ErrStudentNotFound
	}

	st, err := s.students.FindStudent(ctx, regNo)
	if err != nil {
		s.metrics.Login(false)
		if errors.Is(err, core.ErrStudentNotFound) {
			slog.InfoContext(ctx, "Login rejected", applog.FieldRegNo, regNo)
		}
		return core.Student{}, err
	}

	s.metrics.Login(true)
	slog.InfoContext(ctx, "Student logged in", applog.FieldRegNo, regNo)
	return st, nil
}

func (s *DirectoryService) Profile(ctx context.Context, regNo string) (core.Student, error) {
	return s.students.FindStudent(ctx, core.NormalizeRegNo(regNo))
}

// UpdateBudget replaces the budget wholesale.
func (s *DirectoryService) UpdateBudget(ctx context.Context, regNo string, b core.Budget) (core.Student, error) {
	st, err := s.students.UpdateBudget(ctx, core.NormalizeRegNo(regNo), b)
	if err != nil {
		return core.Student{}, fmt.Errorf("update budget: %w", err)
	}
	slog.InfoContext(ctx, "Budget updated", applog.FieldRegNo, st.RegNo, "budget_type", b.Type, "amount", b.Amount)
	return st, nil
}

func (s *DirectoryService) UpdateIncome(ctx context.Context, regNo string, income float64) (core.Student, error) {
	st, err := s.students.UpdateIncome(ctx, core.NormalizeRegNo(regNo), income)
	if err != nil {
		return core.Student{}, fmt.Errorf("update income: %w", err)
	}
	slog.InfoContext(ctx, "Income updated", applog.FieldRegNo, st.RegNo, "income", income)
	return st, nil
}

// Search returns up to storage.DefaultSearchLimit students whose registration
// number or name contains term, skipping exclude. Terms shorter than
// MinSearchTermLength characters return an empty result without a query.
func (s *DirectoryService) Search(ctx context.Context, term, exclude string) ([]core.Student, error) {
	term = strings.TrimSpace(term)
	if utf8.RuneCountInString(term) < MinSearchTermLength {
		s.metrics.Search(false)
		return []core.Student{}, nil
	}
	s.metrics.Search(true)

	found, err := s.students.SearchStudents(ctx, term, core.NormalizeRegNo(exclude), storage.DefaultSearchLimit)
	if err != nil {
		return nil, fmt.Errorf("search students: %w", err)
	}
	return found, nil
}
