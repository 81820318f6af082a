package cache

import (
	"path/filepath"
	"testing"
)

func TestOpenPutGetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(dir)
	if err != nil {
		t.Fatalf("Open = %v", err)
	}
	defer c.Close()

	if err := c.Put("digest-1", []byte("payload")); err != nil {
		t.Fatalf("Put = %v", err)
	}
	got, ok, err := c.Get("digest-1")
	if err != nil {
		t.Fatalf("Get = %v", err)
	}
	if !ok {
		t.Fatalf("expected a hit for digest-1")
	}
	if string(got) != "payload" {
		t.Errorf("got %q, want %q", got, "payload")
	}
}

func TestGetMissReturnsFalse(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open = %v", err)
	}
	defer c.Close()

	_, ok, err := c.Get("nonexistent")
	if err != nil {
		t.Fatalf("Get = %v", err)
	}
	if ok {
		t.Errorf("expected a miss for an unwritten digest")
	}
}

func TestPutOverwritesExistingEntry(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open = %v", err)
	}
	defer c.Close()

	if err := c.Put("digest-1", []byte("first")); err != nil {
		t.Fatal(err)
	}
	if err := c.Put("digest-1", []byte("second")); err != nil {
		t.Fatal(err)
	}
	got, _, err := c.Get("digest-1")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second" {
		t.Errorf("got %q, want %q", got, "second")
	}
}

func TestOpenFailsWhenAlreadyLocked(t *testing.T) {
	dir := t.TempDir()
	first, err := Open(dir)
	if err != nil {
		t.Fatalf("Open = %v", err)
	}
	defer first.Close()

	if _, err := Open(dir); err == nil {
		t.Errorf("expected a second Open on the same dir to fail while the first holds the lock")
	}
}

func TestOpenCreatesDBFileUnderDir(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(dir)
	if err != nil {
		t.Fatalf("Open = %v", err)
	}
	defer c.Close()

	if c.path != filepath.Join(dir, "resolve-cache.db") {
		t.Errorf("path = %q", c.path)
	}
}
