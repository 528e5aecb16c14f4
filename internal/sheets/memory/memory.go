package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"studentspend/internal/core"
	ports "studentspend/internal/sheets"
)

// ContactEntry is one recorded contact submission.
type ContactEntry struct {
	Message    core.ContactMessage
	ReceivedAt time.Time
}

// Store is an in-process stand-in for the spreadsheet: a fixed roster and an
// append-only contact inbox.
type Store struct {
	mu       sync.Mutex
	roster   []map[string]any
	contacts []ContactEntry
}

var (
	_ ports.RosterReader = (*Store)(nil)
	_ ports.ContactInbox = (*Store)(nil)
)

func New(roster []map[string]any) *Store {
	return &Store{roster: roster}
}

// NewFromFile loads a roster from a JSON array of objects, the format of
// students.json.
func NewFromFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster file: %w", err)
	}
	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parse roster file %s: %w", path, err)
	}
	return New(rows), nil
}

func (s *Store) ReadRoster(_ context.Context) ([]map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]any, len(s.roster))
	copy(out, s.roster)
	return out, nil
}

func (s *Store) AppendContact(_ context.Context, m core.ContactMessage, receivedAt time.Time) error {
	if err := m.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contacts = append(s.contacts, ContactEntry{Message: m, ReceivedAt: receivedAt})
	return nil
}

// Contacts returns a copy of the recorded submissions.
func (s *Store) Contacts() []ContactEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ContactEntry(nil), s.contacts...)
}
