package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalBackendList(t *testing.T) {
	root := t.TempDir()
	b, err := NewLocalBackend(root, "bucket")
	if err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"albums/1/a.mp3": "aaaa",
		"albums/1/b.mp3": "bb",
		"albums/2/c.mp3": "c",
		"covers/1.jpg":   "img",
	}
	for key, body := range files {
		p := filepath.Join(root, "bucket", filepath.FromSlash(key))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}

	objects, err := b.List(context.Background(), "albums/1/")
	if err != nil {
		t.Fatal(err)
	}
	if len(objects) != 2 || objects[0].Key != "albums/1/a.mp3" || objects[1].Key != "albums/1/b.mp3" {
		t.Fatalf("objects = %+v", objects)
	}
	st := Summarize(objects)
	if st.TotalObjects != 2 || st.TotalSize != 6 {
		t.Errorf("stats = %+v", st)
	}

	all, _ := b.List(context.Background(), "")
	if len(all) != 4 {
		t.Errorf("listed %d objects, want 4", len(all))
	}
}

func TestFormatSize(t *testing.T) {
	tests := map[int64]string{
		512:             "512 B",
		2048:            "2.0 KB",
		5 * 1024 * 1024: "5.0 MB",
		3 << 30:         "3.0 GB",
	}
	for in, want := range tests {
		if got := FormatSize(in); got != want {
			t.Errorf("FormatSize(%d) = %q, want %q", in, got, want)
		}
	}
}
