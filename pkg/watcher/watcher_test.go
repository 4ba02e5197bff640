package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func startWatcher(t *testing.T, root string, match func(string) bool) <-chan []string {
	t.Helper()
	w, err := New(Config{Root: root, Match: match, Debounce: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	batches := make(chan []string, 16)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(paths []string) { batches <- paths })
	}()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Run returned error: %v", err)
		}
		w.Close()
	})
	return batches
}

func waitBatch(t *testing.T, batches <-chan []string) []string {
	t.Helper()
	select {
	case batch := <-batches:
		return batch
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for a change batch")
		return nil
	}
}

func isPHP(path string) bool {
	return strings.HasSuffix(path, ".php")
}

func TestWatchReportsMatchingFiles(t *testing.T) {
	root := t.TempDir()
	batches := startWatcher(t, root, isPHP)

	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	target := filepath.Join(root, "index.php")
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(target, []byte("<?php echo 1;"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	batch := waitBatch(t, batches)
	if len(batch) != 1 || batch[0] != target {
		t.Errorf("Expected [%s], got %v", target, batch)
	}
}

func TestWatchNewDirectories(t *testing.T) {
	root := t.TempDir()
	batches := startWatcher(t, root, isPHP)

	sub := filepath.Join(root, "lib")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	// The new directory is added by the event loop; retry until a write is seen.
	target := filepath.Join(sub, "util.php")
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if err := os.WriteFile(target, []byte("<?php"), 0o644); err != nil {
			t.Fatal(err)
		}
		select {
		case batch := <-batches:
			if len(batch) != 1 || batch[0] != target {
				t.Errorf("Expected [%s], got %v", target, batch)
			}
			return
		case <-time.After(200 * time.Millisecond):
		}
	}
	t.Fatal("Timed out waiting for a change in the new directory")
}

func TestWatchDirectoryMovedIn(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(t.TempDir(), "vendor")
	if err := os.MkdirAll(filepath.Join(outside, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"a.php", "readme.txt", filepath.Join("sub", "b.php")} {
		if err := os.WriteFile(filepath.Join(outside, name), []byte("<?php"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	batches := startWatcher(t, root, isPHP)

	moved := filepath.Join(root, "vendor")
	if err := os.Rename(outside, moved); err != nil {
		t.Fatal(err)
	}
	batch := waitBatch(t, batches)
	expected := []string{filepath.Join(moved, "a.php"), filepath.Join(moved, "sub", "b.php")}
	if strings.Join(batch, "\n") != strings.Join(expected, "\n") {
		t.Errorf("Expected %v, got %v", expected, batch)
	}
}

func TestNewRejectsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "a.php")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(Config{Root: file}); err == nil {
		t.Error("Expected error when watching a file")
	}
	if _, err := New(Config{Root: filepath.Join(t.TempDir(), "missing")}); err == nil {
		t.Error("Expected error when watching a missing directory")
	}
}

func TestWatchStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, Config{Root: t.TempDir()}, func([]string) {})
	}()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected nil error, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not stop after cancel")
	}
}
