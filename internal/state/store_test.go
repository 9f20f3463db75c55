package state

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestMemoryStoreRoundtrip(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing key should report ErrNotFound, got %v", err)
	}
	if err := s.Set("k", []byte("v1")); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := s.Get("k")
	if err != nil || string(got) != "v1" {
		t.Fatalf("get = %q, %v", got, err)
	}
	// The store must hold its own copy.
	got[0] = 'x'
	again, _ := s.Get("k")
	if string(again) != "v1" {
		t.Fatal("stored value was aliased to the returned slice")
	}
	if err := s.Delete("k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get("k"); !errors.Is(err, ErrNotFound) {
		t.Fatal("deleted key should be gone")
	}
}

func TestFileStoreRoundtrip(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := s.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing key should report ErrNotFound, got %v", err)
	}
	if err := s.Set("run", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := s.Get("run")
	if err != nil || string(got) != `{"a":1}` {
		t.Fatalf("get = %q, %v", got, err)
	}
	if err := s.Set("run", []byte(`{"a":2}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, _ = s.Get("run")
	if string(got) != `{"a":2}` {
		t.Fatalf("overwrite lost: %q", got)
	}
	if err := s.Delete("run"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete("run"); err != nil {
		t.Fatalf("double delete should be a no-op, got %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	for _, entry := range entries {
		if filepath.Ext(entry.Name()) != ".json" {
			t.Fatalf("leftover temp file %q", entry.Name())
		}
	}
}

func TestFileStoreCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "saves")
	if _, err := NewFileStore(dir); err != nil {
		t.Fatalf("nested dir should be created: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("dir missing: %v", err)
	}
}
