package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"myai/internal/model"
)

func newTestWatcher(t *testing.T, debounce time.Duration) (*Watcher, string) {
	t.Helper()

	dir := filepath.Join(t.TempDir(), ".myai")
	if err := os.MkdirAll(filepath.Join(dir, "agents"), 0755); err != nil {
		t.Fatalf("failed to create agents dir: %v", err)
	}

	w := New(Config{Debounce: debounce})
	if err := w.AddPath(dir, true, nil); err != nil {
		t.Fatalf("AddPath() failed: %v", err)
	}

	return w, dir
}

func collectEvents(w *Watcher) (*sync.Mutex, *[]model.WatchEvent) {
	var mu sync.Mutex
	var events []model.WatchEvent

	w.AddCallback(func(ev model.WatchEvent) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, ev)
	})

	return &mu, &events
}

func TestWatcher_StartStopIdempotent(t *testing.T) {
	w, _ := newTestWatcher(t, 50*time.Millisecond)

	if w.IsRunning() {
		t.Fatal("new watcher should not be running")
	}

	if err := w.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("second Start() failed: %v", err)
	}
	if !w.IsRunning() {
		t.Fatal("watcher should be running after Start()")
	}

	w.Stop()
	w.Stop()
	if w.IsRunning() {
		t.Fatal("watcher should not be running after Stop()")
	}
}

func TestWatcher_DebounceCoalescing(t *testing.T) {
	w, dir := newTestWatcher(t, 200*time.Millisecond)
	mu, events := collectEvents(w)

	if err := w.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	defer w.Stop()

	path := filepath.Join(dir, "agents", "reviewer.md")
	if err := os.WriteFile(path, []byte("# one"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(path, []byte("# two"), 0644); err != nil {
		t.Fatalf("second write failed: %v", err)
	}

	// Both writes land inside one debounce window.
	time.Sleep(600 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()

	if len(*events) != 1 {
		t.Fatalf("expected exactly 1 coalesced event, got %d: %v", len(*events), *events)
	}

	ev := (*events)[0]
	if ev.Target != model.TargetAgents {
		t.Errorf("event target = %q, want %q", ev.Target, model.TargetAgents)
	}
	if ev.Path != path {
		t.Errorf("event path = %q, want %q", ev.Path, path)
	}
}

func TestWatcher_SeparateKeysNotCoalesced(t *testing.T) {
	w, dir := newTestWatcher(t, 100*time.Millisecond)
	mu, events := collectEvents(w)

	if err := w.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	defer w.Stop()

	a := filepath.Join(dir, "agents", "a.md")
	b := filepath.Join(dir, "agents", "b.md")
	if err := os.WriteFile(a, []byte("a"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := os.WriteFile(b, []byte("b"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	time.Sleep(500 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()

	if len(*events) != 2 {
		t.Fatalf("expected 2 events for distinct paths, got %d", len(*events))
	}
}

func TestWatcher_CallbackPanicIsolated(t *testing.T) {
	w, dir := newTestWatcher(t, 50*time.Millisecond)

	w.AddCallback(func(model.WatchEvent) {
		panic("consumer bug")
	})
	mu, events := collectEvents(w)

	if err := w.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	defer w.Stop()

	path := filepath.Join(dir, "agents", "x.md")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	first := len(*events)
	mu.Unlock()

	if first != 1 {
		t.Fatalf("second callback should still run after panic, got %d events", first)
	}

	// The panicking callback must stay registered and keep panicking
	// without taking the watcher down.
	if err := os.WriteFile(path, []byte("xx"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(*events) != 2 {
		t.Fatalf("watcher should survive panicking callback, got %d events", len(*events))
	}
}

func TestWatcher_RemoveCallback(t *testing.T) {
	w, dir := newTestWatcher(t, 50*time.Millisecond)
	mu, events := collectEvents(w)

	var removedMu sync.Mutex
	removedCalls := 0
	id := w.AddCallback(func(model.WatchEvent) {
		removedMu.Lock()
		removedCalls++
		removedMu.Unlock()
	})
	w.RemoveCallback(id)

	if err := w.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "agents", "y.md"), []byte("y"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	got := len(*events)
	mu.Unlock()
	if got != 1 {
		t.Fatalf("remaining callback should fire once, got %d", got)
	}

	removedMu.Lock()
	defer removedMu.Unlock()
	if removedCalls != 0 {
		t.Fatalf("removed callback fired %d times", removedCalls)
	}
}

func TestWatcher_UnclassifiablePathDropped(t *testing.T) {
	w, dir := newTestWatcher(t, 50*time.Millisecond)
	mu, events := collectEvents(w)

	if err := w.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "blob.bin"), []byte{0}, 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(*events) != 0 {
		t.Fatalf("unclassifiable path should be dropped, got %d events", len(*events))
	}
}
