package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestLocal(t *testing.T) *Local {
	t.Helper()
	s, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestLocalPutAndRead(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()

	const data = `[[0.1, 0.2]]`
	if err := s.Put(ctx, "whisper/mel_filters.json", []byte(data)); err != nil {
		t.Fatal(err)
	}
	got, err := ReadAll(ctx, s, "whisper/mel_filters.json")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != data {
		t.Fatalf("got %q, want %q", got, data)
	}
}

func TestLocalOpenNotExist(t *testing.T) {
	s := newTestLocal(t)
	_, err := s.Open(context.Background(), "no-such-file")
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}

func TestLocalExists(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()

	ok, err := s.Exists(ctx, "vocab.json")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected false for missing file")
	}
	if err := s.Put(ctx, "vocab.json", []byte(`{}`)); err != nil {
		t.Fatal(err)
	}
	ok, err = s.Exists(ctx, "vocab.json")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected true for existing file")
	}
	if err := os.MkdirAll(filepath.Join(s.Root(), "dir"), 0o755); err != nil {
		t.Fatal(err)
	}
	if ok, _ := s.Exists(ctx, "dir"); ok {
		t.Fatal("directories are not assets")
	}
}

func TestLocalPutReplaces(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()

	if err := s.Put(ctx, "f", []byte("long content here")); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "f", []byte("short")); err != nil {
		t.Fatal(err)
	}
	got, err := ReadAll(ctx, s, "f")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "short" {
		t.Fatalf("got %q, want %q", got, "short")
	}
	entries, err := os.ReadDir(s.Root())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("temporary files left behind: %v", entries)
	}
}

func TestLocalResolveStaysInRoot(t *testing.T) {
	s := newTestLocal(t)
	for _, name := range []string{"../escape", "/abs/x", "a/../../b"} {
		p := s.Path(name)
		if !strings.HasPrefix(p, s.Root()+string(filepath.Separator)) {
			t.Errorf("Path(%q) = %q escapes %q", name, p, s.Root())
		}
	}
}
