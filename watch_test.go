package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfigWatcherReportsWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "world.yaml")
	other := filepath.Join(dir, "other.yaml")
	if err := os.WriteFile(path, []byte("objects: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := newConfigWatcher(path)
	if err != nil {
		t.Fatalf("newConfigWatcher: %v", err)
	}
	defer w.Close()

	// Files next to the config are ignored.
	if err := os.WriteFile(other, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case name := <-w.Events:
		t.Fatalf("unexpected event for %s", name)
	case <-time.After(300 * time.Millisecond):
	}

	if err := os.WriteFile(path, []byte("objects: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case name := <-w.Events:
		if filepath.Base(name) != "world.yaml" {
			t.Errorf("event for %s", name)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event for config write")
	}
}

func TestConfigWatcherCloseTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.yaml")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	w, err := newConfigWatcher(path)
	if err != nil {
		t.Fatalf("newConfigWatcher: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if _, ok := <-w.Events; ok {
		t.Errorf("Events should be closed")
	}
}
