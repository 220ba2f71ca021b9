package watch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

const testDebounce = 50 * time.Millisecond

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startWatcher runs a watcher on root and returns the channel of bursts.
func startWatcher(t *testing.T, root string) <-chan []string {
	t.Helper()
	w, err := New(root, testDebounce, quietLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	bursts := make(chan []string, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx, func(changed []string) { bursts <- changed })
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return bursts
}

func next(t *testing.T, bursts <-chan []string) []string {
	t.Helper()
	select {
	case b := <-bursts:
		return b
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change notification")
		return nil
	}
}

func write(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("# doc\n"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func mkdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
}

func TestWatch_ReportsFeatureWrite(t *testing.T) {
	root := t.TempDir()
	mkdir(t, filepath.Join(root, "features"))
	bursts := startWatcher(t, root)

	write(t, filepath.Join(root, "features", "auth.md"))

	got := next(t, bursts)
	if !slices.Contains(got, "features/auth.md") {
		t.Errorf("changed = %v, want features/auth.md", got)
	}
}

func TestWatch_CoalescesBurst(t *testing.T) {
	root := t.TempDir()
	mkdir(t, filepath.Join(root, "features"))
	bursts := startWatcher(t, root)

	for _, name := range []string{"a.md", "b.md", "c.md"} {
		write(t, filepath.Join(root, "features", name))
	}

	got := next(t, bursts)
	want := []string{"features/a.md", "features/b.md", "features/c.md"}
	for _, w := range want {
		if !slices.Contains(got, w) {
			t.Errorf("burst %v missing %s", got, w)
		}
	}
	if !slices.IsSorted(got) {
		t.Errorf("burst not sorted: %v", got)
	}
}

func TestWatch_IgnoresForeignFiles(t *testing.T) {
	root := t.TempDir()
	mkdir(t, filepath.Join(root, "features"))
	bursts := startWatcher(t, root)

	write(t, filepath.Join(root, "README.md"))
	write(t, filepath.Join(root, "features", "notes.txt"))
	write(t, filepath.Join(root, "features", ".auth.md.123.tmp"))
	write(t, filepath.Join(root, "features", "auth.md"))

	got := next(t, bursts)
	if len(got) != 1 || got[0] != "features/auth.md" {
		t.Errorf("changed = %v, want only features/auth.md", got)
	}
}

func TestWatch_PicksUpNewDirectories(t *testing.T) {
	root := t.TempDir()
	bursts := startWatcher(t, root)

	mkdir(t, filepath.Join(root, "prompts"))
	if got := next(t, bursts); !slices.Contains(got, "prompts") {
		t.Fatalf("changed = %v, want prompts", got)
	}

	mkdir(t, filepath.Join(root, "prompts", "auth"))
	if got := next(t, bursts); !slices.Contains(got, "prompts/auth") {
		t.Fatalf("changed = %v, want prompts/auth", got)
	}

	write(t, filepath.Join(root, "prompts", "auth", "increment_01_login.md"))
	if got := next(t, bursts); !slices.Contains(got, "prompts/auth/increment_01_login.md") {
		t.Errorf("changed = %v, want the prompt file", got)
	}
}

func TestWatch_ExistingPromptDirsWatched(t *testing.T) {
	root := t.TempDir()
	mkdir(t, filepath.Join(root, "prompts", "billing"))
	bursts := startWatcher(t, root)

	write(t, filepath.Join(root, "prompts", "billing", "increment_02_invoice.md"))

	got := next(t, bursts)
	if !slices.Contains(got, "prompts/billing/increment_02_invoice.md") {
		t.Errorf("changed = %v", got)
	}
}

func TestNew_NonPositiveDebounce(t *testing.T) {
	w, err := New(t.TempDir(), 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = w.Close() }()
	if w.debounce != DefaultDebounce {
		t.Errorf("debounce = %v, want %v", w.debounce, DefaultDebounce)
	}
}

func TestNew_MissingRoot(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "absent"), testDebounce, nil); err == nil {
		t.Error("expected error for a missing root")
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	w, err := New(t.TempDir(), testDebounce, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, func([]string) {}) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
