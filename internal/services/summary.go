package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"studentspend/internal/core"
	"studentspend/internal/storage"
)

// SummaryService computes the dashboard view server-side from the raw
// collections, the same way the client does.
type SummaryService struct {
	store interface {
		storage.StudentDirectory
		storage.ExpenseLedger
		storage.SplitBillStore
	}
}

func NewSummaryService(store storage.Store) *SummaryService {
	return &SummaryService{store: store}
}

func (s *SummaryService) Summary(ctx context.Context, regNo string) (core.Summary, error) {
	regNo = core.NormalizeRegNo(regNo)

	var (
		student  core.Student
		expenses []core.Expense
		splits   []core.SplitBill
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		student, err = s.store.FindStudent(gctx, regNo)
		return err
	})
	g.Go(func() (err error) {
		expenses, err = s.store.ListExpenses(gctx, regNo)
		return err
	})
	g.Go(func() (err error) {
		splits, err = s.store.ListSplits(gctx, regNo)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Summary{}, err
	}
	return core.Summarize(student, expenses, splits), nil
}
