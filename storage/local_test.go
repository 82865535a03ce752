package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalBackendFetch(t *testing.T) {
	root := t.TempDir()
	b, err := NewLocalBackend(root, "bucket")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, "bucket", "albums"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "bucket", "albums", "a.mp3"), []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	rc, err := b.Fetch(context.Background(), "albums/a.mp3")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "hello" {
		t.Errorf("data = %q", data)
	}

	info, err := b.Stat(context.Background(), "albums/a.mp3")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Size != 5 || info.Key != "albums/a.mp3" {
		t.Errorf("info = %+v", info)
	}
}

func TestLocalBackendMissingAndEscape(t *testing.T) {
	b, err := NewLocalBackend(t.TempDir(), "bucket")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Fetch(context.Background(), "nope.mp3"); !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("Fetch missing err = %v, want ErrObjectNotFound", err)
	}
	// "../" is cleaned against the bucket root, so it can't reach outside.
	p, err := b.path("../../etc/passwd")
	if err != nil {
		t.Fatal(err)
	}
	if rel, _ := filepath.Rel(b.root, p); rel != filepath.Join("etc", "passwd") {
		t.Errorf("path escaped root: %s", p)
	}
	if _, err := b.path(""); err == nil {
		t.Error("empty key accepted")
	}
}

func TestAvailable(t *testing.T) {
	if Available(nil) {
		t.Error("Available(nil) = true")
	}
	b, _ := NewLocalBackend(t.TempDir(), "b")
	if !Available(b) {
		t.Error("Available(local) = false")
	}
}
