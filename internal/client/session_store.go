package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"studentspend/internal/core"
)

// SavedSession is what survives between runs: the logged-in student.
type SavedSession struct {
	Student core.Student `json:"student"`
	SavedAt time.Time    `json:"savedAt"`
}

// SessionStore persists the logged-in student. Load returns ok=false when
// nothing is stored.
type SessionStore interface {
	Save(s SavedSession) error
	Load() (s SavedSession, ok bool, err error)
	Clear() error
}

// FileSessionStore keeps the session as a JSON file readable only by the user.
type FileSessionStore struct {
	path string
}

func NewFileSessionStore(path string) *FileSessionStore {
	return &FileSessionStore{path: path}
}

func (f *FileSessionStore) Save(s SavedSession) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return os.Rename(tmp, f.path)
}

func (f *FileSessionStore) Load() (SavedSession, bool, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return SavedSession{}, false, nil
	}
	if err != nil {
		return SavedSession{}, false, fmt.Errorf("read session: %w", err)
	}
	var s SavedSession
	if err := json.Unmarshal(data, &s); err != nil {
		return SavedSession{}, false, fmt.Errorf("decode session %s: %w", f.path, err)
	}
	if s.Student.RegNo == "" {
		return SavedSession{}, false, nil
	}
	return s, true, nil
}

// Clear removes the session file. A missing file is not an error.
func (f *FileSessionStore) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
