package workdir

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"loom/internal/logging"
)

func TestNewCreatesUniqueDirectories(t *testing.T) {
	base := t.TempDir()

	first, err := New(base)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	second, err := New(base)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if first.Path == second.Path {
		t.Fatalf("expected unique scratch paths, both %s", first.Path)
	}
	for _, dir := range []*Dir{first, second} {
		info, err := os.Stat(dir.Path)
		if err != nil || !info.IsDir() {
			t.Fatalf("scratch dir missing: %v", err)
		}
		if !strings.HasPrefix(filepath.Base(dir.Path), "job-") {
			t.Fatalf("unexpected scratch name %s", dir.Path)
		}
	}
}

func TestNewRequiresBase(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatal("expected error for empty base")
	}
}

func TestJoin(t *testing.T) {
	dir, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := dir.Join("chunk-000.mp4")
	if got != filepath.Join(dir.Path, "chunk-000.mp4") {
		t.Fatalf("Join = %s", got)
	}
}

func TestRemoveDeletesContentsAndIsIdempotent(t *testing.T) {
	dir, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := os.WriteFile(dir.Join("scratch.bin"), []byte("x"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	dir.Remove(logging.NewNop())
	if _, err := os.Stat(dir.Path); !os.IsNotExist(err) {
		t.Fatalf("expected scratch dir gone, stat err = %v", err)
	}

	// Second call must be a no-op.
	dir.Remove(logging.NewNop())
}
