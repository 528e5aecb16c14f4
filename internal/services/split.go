package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"studentspend/internal/amqp"
	"studentspend/internal/core"
	applog "studentspend/internal/log"
	"studentspend/internal/metrics"
	"studentspend/internal/storage"
)

// SplitService creates split bills and lists the bills a student is part of.
type SplitService struct {
	students  storage.StudentDirectory
	splits    storage.SplitBillStore
	publisher EventPublisher
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewSplitService(students storage.StudentDirectory, splits storage.SplitBillStore, pub EventPublisher, m *metrics.Metrics) *SplitService {
	return &SplitService{students: students, splits: splits, publisher: pub, metrics: m, now: time.Now}
}

// CreateSplitInput names the creator by registration number. Participants
// are snapshotted as given; the creator is resolved from the directory.
type CreateSplitInput struct {
	Name         string
	TotalAmount  float64
	CreatedBy    string
	Participants []core.Student
}

// Create allocates and stores a split bill, then announces it. A failed
// announcement does not fail the call.
func (s *SplitService) Create(ctx context.Context, in CreateSplitInput) (core.SplitBill, error) {
	creator, err := s.students.FindStudent(ctx, core.NormalizeRegNo(in.CreatedBy))
	if err != nil {
		return core.SplitBill{}, fmt.Errorf("split creator: %w", err)
	}

	participants := make([]core.Student, 0, len(in.Participants))
	for _, p := range in.Participants {
		p.RegNo = core.NormalizeRegNo(p.RegNo)
		p.Name = strings.TrimSpace(p.Name)
		participants = append(participants, p)
	}

	req := core.SplitRequest{
		Name:         strings.TrimSpace(in.Name),
		TotalAmount:  in.TotalAmount,
		Creator:      creator,
		Participants: participants,
		Date:         s.now().UTC(),
	}
	if err := req.Validate(); err != nil {
		return core.SplitBill{}, err
	}

	bill, err := s.splits.CreateSplit(ctx, core.AllocateSplit(req))
	if err != nil {
		return core.SplitBill{}, fmt.Errorf("create split: %w", err)
	}
	s.metrics.SplitCreated(bill.TotalAmount)
	slog.InfoContext(ctx, "Split bill created",
		applog.FieldSplitID, bill.ID, applog.FieldRegNo, bill.CreatedBy,
		"participants", len(bill.Participants), "amount_per_person", bill.AmountPerPerson)

	s.announce(ctx, bill)
	return bill, nil
}

func (s *SplitService) announce(ctx context.Context, bill core.SplitBill) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "Event publisher not available, skipping split notification", applog.FieldSplitID, bill.ID)
		return
	}
	err := s.publisher.PublishSplitCreated(ctx, bill)
	s.metrics.EventPublished(amqp.TypeSplitCreated, err)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to publish split notification", applog.FieldSplitID, bill.ID, "error", err)
	}
}

// List returns every bill created by or shared with regNo.
func (s *SplitService) List(ctx context.Context, regNo string) ([]core.SplitBill, error) {
	return s.splits.ListSplits(ctx, core.NormalizeRegNo(regNo))
}
