package services

import (
	"context"
	"fmt"
	"log/slog"

	"studentspend/internal/importer"
	"studentspend/internal/sheets"
	"studentspend/internal/storage"
)

// RosterService replaces the student directory with an imported roster.
type RosterService struct {
	students storage.StudentDirectory
}

func NewRosterService(students storage.StudentDirectory) *RosterService {
	return &RosterService{students: students}
}

// Import normalises raw roster rows and replaces every student with them.
// Nothing is written when any row is rejected.
func (s *RosterService) Import(ctx context.Context, rows []map[string]any) (int, error) {
	students, err := importer.Normalize(rows)
	if err != nil {
		return 0, fmt.Errorf("normalize roster: %w", err)
	}
	n, err := s.students.ReplaceStudents(ctx, students)
	if err != nil {
		return 0, fmt.Errorf("replace students: %w", err)
	}
	slog.InfoContext(ctx, "Student roster imported", "count", n)
	return n, nil
}

// ImportFrom reads the roster from src before importing it.
func (s *RosterService) ImportFrom(ctx context.Context, src sheets.RosterReader) (int, error) {
	rows, err := src.ReadRoster(ctx)
	if err != nil {
		return 0, fmt.Errorf("read roster: %w", err)
	}
	return s.Import(ctx, rows)
}
