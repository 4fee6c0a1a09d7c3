package persistence

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/axisgrid/concentra/internal/scenario/timeline"
)

func writeRaw(path, contents string) error {
	return os.WriteFile(path, []byte(contents), 0o600)
}

func sampleEntries() []timeline.Entry {
	return []timeline.Entry{
		{ID: "a", Timestamp: time.Unix(100, 0).UTC(), Composite: 0.3, Rank: 2},
		{ID: "b", Timestamp: time.Unix(50, 0).UTC(), Composite: 0.2, Rank: 5},
	}
}

func TestMemoryRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewMemory()
	loaded, err := store.Load()
	if err != nil || loaded != nil {
		t.Fatalf("expected empty initial session, got %v %v", loaded, err)
	}

	if err := store.Save(sampleEntries()); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err = store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 2 || loaded[0].ID != "a" {
		t.Fatalf("unexpected session: %+v", loaded)
	}

	// The returned slice is a copy.
	loaded[0].ID = "mutated"
	again, _ := store.Load()
	if again[0].ID != "a" {
		t.Fatalf("store must not share its backing slice")
	}
}

func TestMemorySavedEmptyIsDistinctFromUnset(t *testing.T) {
	t.Parallel()

	store := NewMemory()
	if err := store.Save(nil); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded == nil || len(loaded) != 0 {
		t.Fatalf("expected empty saved session, got %v", loaded)
	}
}

func TestFileRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.json")
	store, err := NewFile(path)
	if err != nil {
		t.Fatalf("build store: %v", err)
	}

	loaded, err := store.Load()
	if err != nil || loaded != nil {
		t.Fatalf("missing file must read as empty session, got %v %v", loaded, err)
	}

	if err := store.Save(sampleEntries()); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err = store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 2 || loaded[1].Rank != 5 {
		t.Fatalf("unexpected session: %+v", loaded)
	}
}

func TestFileRejectsCorruptStore(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.json")
	store, err := NewFile(path)
	if err != nil {
		t.Fatalf("build store: %v", err)
	}
	if err := store.Save(sampleEntries()); err != nil {
		t.Fatalf("save: %v", err)
	}

	corrupt, err := NewFile(path)
	if err != nil {
		t.Fatalf("build store: %v", err)
	}
	if err := writeRaw(path, "{not json"); err != nil {
		t.Fatalf("corrupt store: %v", err)
	}
	if _, err := corrupt.Load(); err == nil {
		t.Fatalf("expected decode error for corrupt store")
	}
}

func TestNewFileRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := NewFile(""); err == nil {
		t.Fatalf("expected path requirement error")
	}
}
