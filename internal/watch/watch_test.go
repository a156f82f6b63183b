package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileWatcherReportsWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "contour.csv")
	other := filepath.Join(dir, "other.csv")
	if err := os.WriteFile(path, []byte("0,100\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	fw, err := New(path, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer fw.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	changes := make(chan struct{}, 8)
	done := make(chan error, 1)
	go func() {
		done <- fw.Run(ctx, func() { changes <- struct{}{} }, nil)
	}()

	if err := os.WriteFile(other, []byte("ignored\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-changes:
		t.Fatal("change to another file must be ignored")
	case <-time.After(200 * time.Millisecond):
	}

	if err := os.WriteFile(path, []byte("0,100\n1,200\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-changes:
	case <-ctx.Done():
		t.Fatal("timed out waiting for change notification")
	}

	cancel()
	if err := <-done; err != context.Canceled && err != context.DeadlineExceeded {
		t.Fatalf("Run returned %v", err)
	}
}

func TestNewFailsForMissingDirectory(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "nope", "in.csv"), 0); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
