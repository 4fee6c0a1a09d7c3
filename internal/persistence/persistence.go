// Package persistence provides session-scoped timeline stores. Stores are
// best-effort collaborators: the timeline tolerates their failures.
package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/axisgrid/concentra/internal/scenario/timeline"
)

// Memory is an in-process store, used for tests and single-process serving.
type Memory struct {
	mu      sync.Mutex
	entries []timeline.Entry
	set     bool
}

// NewMemory builds an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Load returns the stored session, nil when nothing was saved yet.
func (m *Memory) Load() ([]timeline.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return nil, nil
	}
	out := make([]timeline.Entry, len(m.entries))
	copy(out, m.entries)
	return out, nil
}

// Save replaces the stored session.
func (m *Memory) Save(entries []timeline.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append([]timeline.Entry(nil), entries...)
	m.set = true
	return nil
}

// File stores the session as a JSON file. A missing file reads as an empty
// session.
type File struct {
	mu   sync.Mutex
	path string
}

// NewFile builds a file-backed store.
func NewFile(path string) (*File, error) {
	if path == "" {
		return nil, fmt.Errorf("store path is required")
	}
	return &File{path: path}, nil
}

// Load reads the persisted session.
func (f *File) Load() ([]timeline.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session store: %w", err)
	}
	var entries []timeline.Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode session store: %w", err)
	}
	return entries, nil
}

// Save writes the session atomically via a temp file rename.
func (f *File) Save(entries []timeline.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode session store: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write session store: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace session store: %w", err)
	}
	return nil
}
