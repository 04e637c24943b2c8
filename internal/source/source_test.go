package source

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func write(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestList_RecursiveAndSorted(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "A", "B", "song2.json"), "{}")
	write(t, filepath.Join(root, "A", "song1.JSON"), "{}")
	write(t, filepath.Join(root, "readme.txt"), "not data")

	files, err := List(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("files=%v; want 2 JSON files", files)
	}
	if files[0] > files[1] {
		t.Fatalf("not sorted: %v", files)
	}
}

func TestList_EmptyRootIsError(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "notes.md"), "x")

	if _, err := List(root); err == nil {
		t.Fatal("expected error for a root with no JSON files")
	}
	if _, err := List(filepath.Join(root, "missing")); err == nil {
		t.Fatal("expected error for a missing root")
	}
}

func TestOpen(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "one.json")
	write(t, path, `{"ok":true}`)

	rc, err := Open(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()

	b, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"ok":true}` {
		t.Fatalf("contents=%q", b)
	}
}
