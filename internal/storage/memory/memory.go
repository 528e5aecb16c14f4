package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"studentspend/internal/core"
	"studentspend/internal/storage"
)

// Store keeps every collection in process memory. Students keep their
// insertion order so search results are stable.
type Store struct {
	mu       sync.Mutex
	students []core.Student
	index    map[string]int
	expenses []core.Expense
	splits   []core.SplitBill
}

var _ storage.Store = (*Store)(nil)

func New(students ...core.Student) *Store {
	s := &Store{index: map[string]int{}}
	_, _ = s.ReplaceStudents(context.Background(), students)
	return s
}

func (s *Store) FindStudent(_ context.Context, regNo string) (core.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[regNo]
	if !ok {
		return core.Student{}, core.ErrStudentNotFound
	}
	return s.students[i], nil
}

func (s *Store) UpdateBudget(_ context.Context, regNo string, b core.Budget) (core.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[regNo]
	if !ok {
		return core.Student{}, core.ErrStudentNotFound
	}
	s.students[i].Budget = b
	return s.students[i], nil
}

func (s *Store) UpdateIncome(_ context.Context, regNo string, income float64) (core.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[regNo]
	if !ok {
		return core.Student{}, core.ErrStudentNotFound
	}
	s.students[i].Income = income
	return s.students[i], nil
}

func (s *Store) SearchStudents(_ context.Context, term, exclude string, limit int) ([]core.Student, error) {
	needle := strings.ToLower(term)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.Student{}
	for _, st := range s.students {
		if limit > 0 && len(out) >= limit {
			break
		}
		if st.RegNo == exclude {
			continue
		}
		if strings.Contains(strings.ToLower(st.RegNo), needle) || strings.Contains(strings.ToLower(st.Name), needle) {
			out = append(out, st)
		}
	}
	return out, nil
}

func (s *Store) ReplaceStudents(_ context.Context, students []core.Student) (int, error) {
	roster := make([]core.Student, 0, len(students))
	index := make(map[string]int, len(students))
	for _, st := range students {
		if _, dup := index[st.RegNo]; dup {
			return 0, fmt.Errorf("duplicate registration number %q", st.RegNo)
		}
		index[st.RegNo] = len(roster)
		roster = append(roster, st)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.students, s.index = roster, index
	return len(roster), nil
}

func (s *Store) CreateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	if e.ID == "" {
		e.ID = storage.NewID()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses = append(s.expenses, e)
	return e, nil
}

func (s *Store) ListExpenses(_ context.Context, regNo string) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.Expense{}
	for _, e := range s.expenses {
		if e.RegNo == regNo {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) GetExpense(_ context.Context, id string) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.expenseIndex(id)
	if i < 0 {
		return core.Expense{}, core.ErrExpenseNotFound
	}
	return s.expenses[i], nil
}

func (s *Store) UpdateExpense(_ context.Context, id string, p core.ExpensePatch) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.expenseIndex(id)
	if i < 0 {
		return core.Expense{}, core.ErrExpenseNotFound
	}
	s.expenses[i] = p.Apply(s.expenses[i])
	return s.expenses[i], nil
}

func (s *Store) DeleteExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.expenseIndex(id)
	if i < 0 {
		return core.ErrExpenseNotFound
	}
	s.expenses = append(s.expenses[:i], s.expenses[i+1:]...)
	return nil
}

func (s *Store) expenseIndex(id string) int {
	for i, e := range s.expenses {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) CreateSplit(_ context.Context, b core.SplitBill) (core.SplitBill, error) {
	if b.ID == "" {
		b.ID = storage.NewID()
	}
	b.Participants = append([]core.ParticipantSnapshot(nil), b.Participants...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.splits = append(s.splits, b)
	return cloneSplit(b), nil
}

func (s *Store) ListSplits(_ context.Context, regNo string) ([]core.SplitBill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.SplitBill{}
	for _, b := range s.splits {
		if b.Involves(regNo) {
			out = append(out, cloneSplit(b))
		}
	}
	return out, nil
}

func cloneSplit(b core.SplitBill) core.SplitBill {
	b.Participants = append([]core.ParticipantSnapshot(nil), b.Participants...)
	return b
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }
