package dedupe

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestFingerprintNormalization(t *testing.T) {
	a := Fingerprint("The  server MUST   retry")
	b := Fingerprint("the server must retry")
	c := Fingerprint("  the\tserver\nmust retry  ")
	if a != b || b != c {
		t.Fatalf("normalized variants should collide: %q %q %q", a, b, c)
	}
	if len(a) != 16 {
		t.Fatalf("fingerprint length = %d, want 16", len(a))
	}
	if Fingerprint("something else") == a {
		t.Fatal("distinct text should not collide")
	}
}

func TestIndexSeenAndPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	idx := NewIndex(path, 10)

	if idx.Seen("deploy only on fridays") {
		t.Fatal("empty index should not report seen")
	}
	if err := idx.MarkSeen("deploy only on fridays"); err != nil {
		t.Fatal(err)
	}
	if !idx.Seen("Deploy  only ON fridays") {
		t.Fatal("normalized variant should be seen")
	}

	// Fresh handle reads from disk.
	reload := NewIndex(path, 10)
	if !reload.Seen("deploy only on fridays") {
		t.Fatal("persisted entry lost after reload")
	}
}

func TestIndexEvictsOldestAtCap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	idx := NewIndex(path, 3)

	for i := 0; i < 5; i++ {
		if err := idx.MarkSeen(fmt.Sprintf("entry number %d", i)); err != nil {
			t.Fatal(err)
		}
	}
	if idx.Len() != 3 {
		t.Fatalf("len = %d, want 3", idx.Len())
	}
	if idx.Seen("entry number 0") || idx.Seen("entry number 1") {
		t.Fatal("oldest entries should have been evicted")
	}
	if !idx.Seen("entry number 4") {
		t.Fatal("newest entry missing")
	}
}

func TestIndexMarkSeenIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	idx := NewIndex(path, 10)
	for i := 0; i < 4; i++ {
		if err := idx.MarkSeen("same text"); err != nil {
			t.Fatal(err)
		}
	}
	if idx.Len() != 1 {
		t.Fatalf("len = %d, want 1", idx.Len())
	}
}

func TestIndexMalformedFileDegrades(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.json")
	writeFile(t, path, "{not json")
	idx := NewIndex(path, 10)
	if idx.Seen("anything") {
		t.Fatal("malformed index should behave as empty")
	}
	if err := idx.MarkSeen("anything"); err != nil {
		t.Fatal(err)
	}
	if !NewIndex(path, 10).Seen("anything") {
		t.Fatal("index should recover after rewrite")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
