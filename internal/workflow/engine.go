// Package workflow is the facade the collaborator drives.
//
// It exposes the six core operations (scan, resolve, validate, link,
// render, capture) plus typed save helpers that combine them the way a
// turn of the breakdown workflow needs: link dependencies, validate plans,
// enforce prompt order, then write. The engine keeps no state between
// calls; every operation starts from the filesystem.
package workflow

import (
	"log/slog"
	"path/filepath"
	"time"

	"github.com/HendryAvila/polly/internal/artifacts"
	"github.com/HendryAvila/polly/internal/capture"
	"github.com/HendryAvila/polly/internal/inventory"
	"github.com/HendryAvila/polly/internal/linker"
	"github.com/HendryAvila/polly/internal/pipeline"
	"github.com/HendryAvila/polly/internal/templates"
	"github.com/HendryAvila/polly/internal/validator"
)

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// Operations reported to observers.
const (
	OpRender  = "render"
	OpCapture = "capture"
)

// Event describes one successful write.
type Event struct {
	Root      string
	Operation string
	Kind      artifacts.Kind
	Slug      string
	Path      string
	Digest    string
	At        time.Time
}

// Observer is notified after every successful write. Notification is
// best-effort: observers handle their own failures and cannot fail the
// write that triggered them.
type Observer interface {
	OnWrite(ev Event)
}

// Engine wires the core components together.
type Engine struct {
	renderer *templates.Renderer
	scanner  *inventory.Scanner
	capturer *capture.Capturer
	observer Observer
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithObserver registers an observer for successful writes.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithLogger sets the engine logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an engine with the embedded templates.
func New(opts ...Option) (*Engine, error) {
	r, err := templates.NewRenderer()
	if err != nil {
		return nil, err
	}
	e := &Engine{renderer: r, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	e.scanner = inventory.NewScanner(e.logger)
	e.capturer = capture.New(r)
	return e, nil
}

// SetObserver replaces the observer after construction. A nil observer
// disables notification.
func (e *Engine) SetObserver(o Observer) {
	e.observer = o
}

// --- Core operations ---

// Scan rebuilds the inventory of root.
func (e *Engine) Scan(root string) *inventory.Inventory {
	return e.scanner.Scan(root)
}

// Resolve classifies every feature in inv.
func (e *Engine) Resolve(inv *inventory.Inventory) *pipeline.Resume {
	return pipeline.ResolveAll(inv)
}

// Status scans root and resolves it in one step.
func (e *Engine) Status(root string) (*inventory.Inventory, *pipeline.Resume) {
	inv := e.Scan(root)
	return inv, e.Resolve(inv)
}

// Validate checks a candidate plan.
func (e *Engine) Validate(plan *artifacts.IncrementPlan) []validator.Violation {
	return validator.Validate(plan)
}

// Link resolves references against the current contents of root.
func (e *Engine) Link(root string, refs []string) []linker.Resolution {
	return linker.New(e.Scan(root)).ResolveAll(refs)
}

// Render fills the template for kind and writes it to path.
func (e *Engine) Render(kind artifacts.Kind, fields templates.Fields, path string, overwrite bool) (*templates.Result, error) {
	res, err := e.renderer.Write(kind, fields, path, overwrite)
	if err != nil {
		return nil, err
	}
	e.wrote(rootOf(kind, res.Path), OpRender, kind, slugOf(kind, fields), res.Path, res.Digest)
	return res, nil
}

// Capture creates a future-feature stub for topic. origin is the slug of
// the feature being discussed, or "".
func (e *Engine) Capture(root, topic, origin string) (*capture.StubRef, error) {
	return e.CaptureRequest(root, capture.Request{Topic: topic, Origin: origin})
}

// CaptureRequest is Capture with a description and notes.
func (e *Engine) CaptureRequest(root string, req capture.Request) (*capture.StubRef, error) {
	ref, err := e.capturer.Capture(root, req)
	if err != nil {
		return nil, err
	}
	e.wrote(root, OpCapture, artifacts.KindFutureFeature, ref.Slug, ref.Path, ref.Digest)
	return ref, nil
}

// --- Internals ---

func (e *Engine) wrote(root, op string, kind artifacts.Kind, slug, path, digest string) {
	e.logger.Info("document written", "op", op, "kind", kind, "slug", slug, "path", path, "digest", digest)
	if e.observer == nil {
		return
	}
	e.observer.OnWrite(Event{
		Root:      root,
		Operation: op,
		Kind:      kind,
		Slug:      slug,
		Path:      path,
		Digest:    digest,
		At:        timeNow(),
	})
}

// rootOf recovers the project root from a document path laid out by the
// artifacts package.
func rootOf(kind artifacts.Kind, path string) string {
	dir := filepath.Dir(path)
	if kind == artifacts.KindPrompt {
		dir = filepath.Dir(dir)
	}
	return filepath.Dir(dir)
}

func slugOf(kind artifacts.Kind, fields templates.Fields) string {
	key := "slug"
	switch kind {
	case artifacts.KindIncrements:
		key = "feature"
	case artifacts.KindPrompt:
		key = "feature_slug"
	}
	if s, ok := fields[key].(string); ok {
		return s
	}
	return ""
}
