package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/terra-energy/inspecciones/internal/config"
)

func TestFileStorePutGet(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()

	loc, err := s.Put(ctx, DocumentKey("INF-2024-0001"), []byte("%PDF-1.3"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !strings.HasPrefix(loc, "file://") || !strings.HasSuffix(loc, "INF-2024-0001.pdf") {
		t.Errorf("location = %q", loc)
	}

	got, err := s.Get(ctx, "INF-2024-0001.pdf")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "%PDF-1.3" {
		t.Errorf("Get = %q", got)
	}

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestFileStoreOverwrite(t *testing.T) {
	s, _ := NewFileStore(t.TempDir())
	ctx := context.Background()

	s.Put(ctx, "a.pdf", []byte("one"))
	s.Put(ctx, "a.pdf", []byte("two"))

	got, _ := s.Get(ctx, "a.pdf")
	if string(got) != "two" {
		t.Errorf("Get = %q, want overwrite", got)
	}
}

func TestFileStoreMissing(t *testing.T) {
	s, _ := NewFileStore(t.TempDir())
	if _, err := s.Get(context.Background(), "nope.pdf"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get error = %v, want ErrNotFound", err)
	}
}

func TestFileStoreRejectsEscapingKeys(t *testing.T) {
	dir := t.TempDir()
	s, _ := NewFileStore(filepath.Join(dir, "docs"))

	if _, err := s.Put(context.Background(), "../outside.pdf", []byte("x")); err == nil {
		t.Fatal("expected error for key escaping the store")
	}
	if _, err := os.Stat(filepath.Join(dir, "outside.pdf")); err == nil {
		t.Fatal("file written outside the store")
	}
}

func TestNewSelectsDriver(t *testing.T) {
	s, err := New(context.Background(), config.StorageConfig{Driver: "file", Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := s.(*FileStore); !ok {
		t.Errorf("New(file) = %T", s)
	}

	if _, err := New(context.Background(), config.StorageConfig{Driver: "ftp"}); err == nil {
		t.Error("expected error for unknown driver")
	}
}
