// Package timeline keeps a capped, most-recent-first log of simulation runs
// for one entity's browsing session.
package timeline

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/axisgrid/concentra/api/dataset"
	"github.com/axisgrid/concentra/internal/axis"
)

// DefaultCapacity bounds the session log.
const DefaultCapacity = 10

// Entry records one simulation run.
type Entry struct {
	ID             string                 `json:"id"`
	Timestamp      time.Time              `json:"timestamp"`
	Adjustments    map[axis.Slug]float64  `json:"adjustments"`
	Composite      float64                `json:"composite"`
	Rank           int                    `json:"rank"`
	Classification dataset.Classification `json:"classification"`
	PresetLabel    string                 `json:"preset_label,omitempty"`
}

// Persistence is the session-scoped storage capability. Implementations may
// fail (storage quota, unavailable backend); the log tolerates save failures
// silently and treats load failures as an empty session.
type Persistence interface {
	Load() ([]Entry, error)
	Save([]Entry) error
}

// Config controls log behavior.
type Config struct {
	Capacity int
	Store    Persistence
	Now      func() time.Time
	NewID    func() string
}

// Log is a bounded most-recent-first session log owned by exactly one
// controller instance.
type Log struct {
	mu       sync.Mutex
	capacity int
	store    Persistence
	now      func() time.Time
	newID    func() string
	entries  []Entry
}

// NewLog builds a log, restoring any persisted session best-effort.
func NewLog(cfg Config) *Log {
	if cfg.Capacity < 1 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	l := &Log{
		capacity: cfg.Capacity,
		store:    cfg.Store,
		now:      cfg.Now,
		newID:    cfg.NewID,
	}
	if cfg.Store != nil {
		if restored, err := cfg.Store.Load(); err == nil && len(restored) > 0 {
			if len(restored) > l.capacity {
				restored = restored[:l.capacity]
			}
			l.entries = restored
		}
	}
	return l
}

// Append prepends an entry, assigning its id and timestamp, trims to
// capacity, and persists best-effort.
func (l *Log) Append(e Entry) Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e.ID == "" {
		e.ID = l.newID()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = l.now()
	}

	l.entries = append([]Entry{e}, l.entries...)
	if len(l.entries) > l.capacity {
		l.entries = l.entries[:l.capacity]
	}
	l.saveLocked()
	return e
}

// Entries returns a stable most-recent-first copy.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len reports the current entry count.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Clear drops all entries and persists the empty session best-effort.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
	l.saveLocked()
}

func (l *Log) saveLocked() {
	if l.store == nil {
		return
	}
	// Quota and backend failures are tolerated silently; the in-memory log
	// remains authoritative for the session.
	_ = l.store.Save(append([]Entry(nil), l.entries...))
}
