// Package watch reports changes to a project's documents.
//
// It watches the project root, the three artifact directories and every
// prompts/<feature> directory, coalesces bursts of events and hands the
// changed paths to a callback. It never writes.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/HendryAvila/polly/internal/artifacts"
)

// DefaultDebounce is used when New is given a non-positive debounce.
const DefaultDebounce = 200 * time.Millisecond

var artifactDirs = []string{artifacts.FeaturesDir, artifacts.FutureFeaturesDir, artifacts.PromptsDir}

// Watcher watches one project root.
type Watcher struct {
	root     string
	debounce time.Duration
	fsw      *fsnotify.Watcher
	logger   *slog.Logger
}

// New creates a watcher for root and registers the existing directories.
// Directories created later are picked up as their events arrive.
func New(root string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	w := &Watcher{root: root, debounce: debounce, fsw: fsw, logger: logger}

	if err := fsw.Add(root); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", root, err)
	}
	for _, d := range artifactDirs {
		w.addDir(filepath.Join(root, d))
	}
	return w, nil
}

// Close releases the watcher. Run returns once the watcher is closed.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run delivers changes until ctx is done or the watcher is closed. Each
// call of onChange carries the sorted, de-duplicated, root-relative paths
// (slash separated) that changed during one burst.
func (w *Watcher) Run(ctx context.Context, onChange func(changed []string)) error {
	defer func() { _ = w.fsw.Close() }()

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			rel, ok := w.relevant(ev)
			if !ok {
				continue
			}
			if ev.Has(fsnotify.Create) {
				w.track(ev.Name)
			}
			pending[rel] = struct{}{}
			timer.Reset(w.debounce)
			fire = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "err", err)

		case <-fire:
			fire = nil
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			pending = make(map[string]struct{})
			onChange(changed)
		}
	}
}

// relevant maps an event to a root-relative path, filtering out
// everything that is not an artifact directory or a markdown document.
func (w *Watcher) relevant(ev fsnotify.Event) (string, bool) {
	if ev.Op == fsnotify.Chmod {
		return "", false
	}
	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	parts := strings.Split(rel, "/")
	if !isArtifactDir(parts[0]) {
		return "", false
	}
	base := parts[len(parts)-1]
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, ".tmp") {
		return "", false
	}

	switch {
	case len(parts) == 1:
		return rel, true
	case parts[0] == artifacts.PromptsDir && len(parts) == 2:
		// A feature's prompt directory, or a stray file beside them.
		return rel, isDir(ev.Name) || strings.HasSuffix(base, artifacts.Ext) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
	case parts[0] == artifacts.PromptsDir && len(parts) == 3:
		return rel, strings.HasSuffix(base, artifacts.Ext)
	case len(parts) == 2:
		return rel, strings.HasSuffix(base, artifacts.Ext)
	}
	return "", false
}

// track starts watching a newly created directory when it is one we care
// about: an artifact directory or a prompts/<feature> directory.
func (w *Watcher) track(path string) {
	if !isDir(path) {
		return
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	switch {
	case len(parts) == 1 && isArtifactDir(parts[0]):
		w.addDir(path)
	case len(parts) == 2 && parts[0] == artifacts.PromptsDir:
		w.add(path)
	}
}

// addDir watches dir and, for prompts/, each feature directory in it.
func (w *Watcher) addDir(dir string) {
	if !isDir(dir) {
		return
	}
	w.add(dir)
	if filepath.Base(dir) != artifacts.PromptsDir {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		w.logger.Warn("watch: listing failed", "dir", dir, "err", err)
		return
	}
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			w.add(filepath.Join(dir, e.Name()))
		}
	}
}

func (w *Watcher) add(dir string) {
	if err := w.fsw.Add(dir); err != nil {
		w.logger.Warn("watch: cannot watch directory", "dir", dir, "err", err)
		return
	}
	w.logger.Debug("watching directory", "dir", dir)
}

func isArtifactDir(name string) bool {
	for _, d := range artifactDirs {
		if name == d {
			return true
		}
	}
	return false
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
