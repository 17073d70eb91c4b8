package seenstore

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestSeenStore(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "seenstore-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			t.Logf("Error removing temp dir: %v", err)
		}
	}()

	dbPath := filepath.Join(tmpDir, "seen.db")
	store, err := Open(dbPath, nil)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}

	testFirstOfferIsNew(t, store)
	testEmptyIDNeverNew(t, store)

	if err := store.Close(); err != nil {
		t.Fatalf("Failed to close store: %v", err)
	}

	testPersistence(t, dbPath)
}

func testFirstOfferIsNew(t *testing.T, store *Store) {
	if !store.FirstSeen("p1") {
		t.Error("first offer of p1 should be new")
	}
	if store.FirstSeen("p1") {
		t.Error("second offer of p1 should not be new")
	}
	if !store.FirstSeen("p2") {
		t.Error("a different id should still be new")
	}
	if store.FirstSeen("p2") {
		t.Error("repeat of p2 should not be new")
	}
}

func testEmptyIDNeverNew(t *testing.T, store *Store) {
	if store.FirstSeen("") {
		t.Error("empty id must never count as new")
	}
}

// testPersistence reopens the database and checks that ids recorded by
// the previous instance stay known. This is the whole point of the
// store: a viewer restart must not re-highlight the session.
func testPersistence(t *testing.T, dbPath string) {
	store, err := Open(dbPath, nil)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			t.Logf("Error closing reopened store: %v", err)
		}
	}()

	if store.FirstSeen("p1") {
		t.Error("p1 should survive a reopen as already seen")
	}
	if store.FirstSeen("p2") {
		t.Error("p2 should survive a reopen as already seen")
	}
	if !store.FirstSeen("p3") {
		t.Error("an id never offered before should be new after reopen")
	}
}

func TestOpenRejectsUnusablePath(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "seenstore-collision-*")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer func() {
		if err := os.Remove(tmpFile.Name()); err != nil {
			t.Logf("Error removing temp file: %v", err)
		}
	}()
	if err := tmpFile.Close(); err != nil {
		t.Fatalf("Failed to close temp file: %v", err)
	}

	if _, err := Open(tmpFile.Name(), nil); err == nil {
		t.Error("Open on a plain file should fail")
	}
}

func TestCloseNilStore(t *testing.T) {
	var s *Store
	if err := s.Close(); err != nil {
		t.Errorf("Close on nil store = %v, want nil", err)
	}
}

func BenchmarkFirstSeen(b *testing.B) {
	tmpDir, err := os.MkdirTemp("", "seenstore-bench-*")
	if err != nil {
		b.Fatalf("Failed to create temp dir: %v", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			b.Logf("Error removing temp dir: %v", err)
		}
	}()

	store, err := Open(filepath.Join(tmpDir, "seen.db"), nil)
	if err != nil {
		b.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	// Pre-mark half the ids so the benchmark mixes hits and misses.
	for i := 0; i < 512; i++ {
		store.FirstSeen(fmt.Sprintf("warm-%d", i))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if i%2 == 0 {
			store.FirstSeen(fmt.Sprintf("warm-%d", i%512))
		} else {
			store.FirstSeen(fmt.Sprintf("cold-%d", i))
		}
	}
}
