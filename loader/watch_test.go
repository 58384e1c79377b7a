package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcher_ReportsWrites(t *testing.T) {
	dir := t.TempDir()
	mapFile := filepath.Join(dir, "map.toml")
	if err := os.WriteFile(mapFile, []byte("name = \"a\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(mapFile)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	script := filepath.Join(dir, "levels.xml")
	if err := os.WriteFile(script, []byte("<marathon_levels/>"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-w.Changes:
		if filepath.Base(got) != "levels.xml" {
			t.Errorf("changed file = %q, want levels.xml", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change")
	}
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w, err := NewWatcher(filepath.Join(t.TempDir(), "gone", "map.toml"))
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	if err := w.Start(); err == nil {
		w.Stop()
		t.Fatal("expected error watching a missing directory")
	}
	stopWithin(t, w, 2*time.Second)
}

// stopWithin fails the test if w.Stop does not return in time.
func stopWithin(t *testing.T, w *Watcher, d time.Duration) {
	t.Helper()
	stopped := make(chan struct{})
	go func() {
		w.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(d):
		t.Fatal("Stop did not return")
	}
}

func TestWatcher_StopWithUnreadChanges(t *testing.T) {
	dir := t.TempDir()
	mapFile := filepath.Join(dir, "map.toml")
	if err := os.WriteFile(mapFile, []byte("name = \"a\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(mapFile)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// More changed files than the Changes buffer holds, none of them read.
	for i := 0; i < 40; i++ {
		name := filepath.Join(dir, fmt.Sprintf("track%02d.wav", i))
		if err := os.WriteFile(name, []byte("RIFF"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	time.Sleep(3 * debounce)

	stopWithin(t, w, 2*time.Second)
}
