package inventory

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/HendryAvila/polly/internal/artifacts"
)

// promptPattern matches every prompt document below the project root.
const promptPattern = artifacts.PromptsDir + "/*/increment_*" + artifacts.Ext

// Scanner walks a project root and builds an Inventory. It only reads.
type Scanner struct {
	logger *slog.Logger
}

// NewScanner creates a scanner. A nil logger falls back to slog.Default().
func NewScanner(logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{logger: logger}
}

// Scan is a convenience wrapper using the default logger.
func Scan(root string) *Inventory {
	return NewScanner(nil).Scan(root)
}

// scan holds the per-call working state.
type scan struct {
	s       *Scanner
	root    string
	inv     *Inventory
	records map[string]*Record
	prompts map[string]map[int]bool
}

// Scan enumerates the three document sets under root. It never fails:
// absent or unreadable directories and documents become warnings and the
// rest of the project is still reported.
func (s *Scanner) Scan(root string) *Inventory {
	sc := &scan{
		s:       s,
		root:    root,
		inv:     &Inventory{Root: root, Records: make(map[string]Record)},
		records: make(map[string]*Record),
		prompts: make(map[string]map[int]bool),
	}

	sc.scanFeatures()
	sc.scanFutureFeatures()
	sc.scanPrompts()
	sc.finish()

	return sc.inv
}

// --- Directory walkers ---

func (sc *scan) scanFeatures() {
	for _, name := range sc.listDir(artifacts.FeaturesDir) {
		rel := path.Join(artifacts.FeaturesDir, name)
		kind, slug, ok := artifacts.ClassifyPath(rel)
		if !ok {
			sc.warn(rel, "not a feature or increments document name")
			continue
		}

		data, err := os.ReadFile(filepath.Join(sc.root, filepath.FromSlash(rel)))
		if err != nil {
			sc.warn(rel, fmt.Sprintf("unreadable: %v", err))
			if kind == artifacts.KindFeature {
				sc.record(slug).HasSpec = true
			}
			continue
		}

		switch kind {
		case artifacts.KindFeature:
			sc.addFeature(rel, slug, data)
		case artifacts.KindIncrements:
			r := sc.record(slug)
			r.IncrementCount = artifacts.CountIncrements(data)
		}
	}
}

func (sc *scan) scanFutureFeatures() {
	for _, name := range sc.listDir(artifacts.FutureFeaturesDir) {
		rel := path.Join(artifacts.FutureFeaturesDir, name)
		kind, slug, ok := artifacts.ClassifyPath(rel)
		if !ok || kind != artifacts.KindFutureFeature {
			sc.warn(rel, "not a future-feature document name")
			continue
		}

		r := sc.record(slug)
		r.HasStub = true

		data, err := os.ReadFile(filepath.Join(sc.root, filepath.FromSlash(rel)))
		if err != nil {
			sc.warn(rel, fmt.Sprintf("unreadable: %v", err))
			continue
		}
		doc := artifacts.ParseDocument(data)
		if doc.HeaderErr != nil {
			sc.warn(rel, doc.HeaderErr.Error())
		}
		if doc.Header.Origin != nil {
			r.CapturedDuring = doc.Header.Origin.CapturedDuring
		}
		if r.Title == "" {
			r.Title = doc.Title
		}
	}
}

func (sc *scan) scanPrompts() {
	if !sc.dirExists(artifacts.PromptsDir) {
		return
	}
	matches, err := doublestar.Glob(os.DirFS(sc.root), promptPattern)
	if err != nil {
		sc.warn(artifacts.PromptsDir, fmt.Sprintf("listing prompts: %v", err))
		return
	}
	for _, rel := range matches {
		_, slug, ok := artifacts.ClassifyPath(rel)
		if !ok {
			sc.warn(rel, "not a prompt document name")
			continue
		}
		idx, _, _ := artifacts.ParsePromptFileName(rel)
		if sc.prompts[slug] == nil {
			sc.prompts[slug] = make(map[int]bool)
		}
		sc.prompts[slug][idx] = true
	}
}

// --- Record assembly ---

func (sc *scan) addFeature(rel, slug string, data []byte) {
	r := sc.record(slug)
	r.HasSpec = true

	doc := artifacts.ParseDocument(data)
	if doc.HeaderErr != nil {
		sc.warn(rel, doc.HeaderErr.Error())
	}
	if doc.HasHeader && doc.Header.Slug != "" && doc.Header.Slug != slug {
		sc.warn(rel, fmt.Sprintf("header slug %q differs from file name; using %q", doc.Header.Slug, slug))
	}

	r.Title = doc.Title
	r.HasBody = doc.HasBody()
	if doc.Classifiable() {
		r.Status = doc.Status
	} else {
		r.Status = artifacts.StatusUnknown
	}

	r.Dependencies = doc.Header.Dependencies
	if len(r.Dependencies) == 0 {
		if s, ok := doc.Section("Dependencies"); ok {
			r.Dependencies = bulletItems(s.Body)
		}
	}
}

// finish derives status and missing artifacts once every directory is read.
func (sc *scan) finish() {
	for slug, idx := range sc.prompts {
		r, ok := sc.records[slug]
		if !ok {
			sc.warn(path.Join(artifacts.PromptsDir, slug), "prompts for a feature with no spec or plan")
			continue
		}
		r.PromptCount = len(idx)
	}

	for slug, r := range sc.records {
		switch {
		case r.HasSpec:
			// status already read from the spec
		case r.HasStub:
			r.Status = artifacts.StatusStub
		default:
			r.Status = artifacts.StatusUnknown
		}

		if r.IncrementCount > 0 {
			r.Status = artifacts.Advance(r.Status, artifacts.StatusIncrementsPlanned)
			if r.PromptCount >= r.IncrementCount {
				r.Status = artifacts.Advance(r.Status, artifacts.StatusPromptsGenerated)
			}
		}

		r.Missing = nil
		if !r.HasSpec {
			r.Missing = append(r.Missing, MissingSpec)
		}
		if r.IncrementCount == 0 {
			r.Missing = append(r.Missing, MissingIncrements)
		} else if r.PromptCount < r.IncrementCount {
			r.Missing = append(r.Missing, MissingPrompts)
		}

		if r.Dependencies == nil {
			r.Dependencies = []string{}
		}
		sc.inv.Records[slug] = *r
	}

	sort.SliceStable(sc.inv.Warnings, func(i, j int) bool {
		return sc.inv.Warnings[i].Path < sc.inv.Warnings[j].Path
	})
}

func (sc *scan) record(slug string) *Record {
	r, ok := sc.records[slug]
	if !ok {
		r = &Record{Slug: slug, Status: artifacts.StatusUnknown}
		sc.records[slug] = r
	}
	return r
}

// --- Filesystem helpers ---

// listDir returns the markdown file names in a project directory. An absent
// or unreadable directory yields nil and a warning.
func (sc *scan) listDir(dir string) []string {
	entries, err := os.ReadDir(filepath.Join(sc.root, dir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			sc.warn(dir, "directory does not exist")
		} else {
			sc.warn(dir, fmt.Sprintf("unreadable directory: %v", err))
		}
		return nil
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), artifacts.Ext) || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	return names
}

func (sc *scan) dirExists(dir string) bool {
	info, err := os.Stat(filepath.Join(sc.root, dir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			sc.warn(dir, "directory does not exist")
		} else {
			sc.warn(dir, fmt.Sprintf("unreadable directory: %v", err))
		}
		return false
	}
	if !info.IsDir() {
		sc.warn(dir, "not a directory")
		return false
	}
	return true
}

func (sc *scan) warn(rel, msg string) {
	sc.inv.Warnings = append(sc.inv.Warnings, Warning{Path: rel, Message: msg})
	sc.s.logger.Warn("scan", "path", rel, "problem", msg)
}

// bulletItems extracts "- item" lines from a markdown list, skipping
// placeholders such as "None".
func bulletItems(body string) []string {
	var out []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		item, ok := strings.CutPrefix(line, "- ")
		if !ok {
			item, ok = strings.CutPrefix(line, "* ")
		}
		if !ok {
			continue
		}
		item = strings.Trim(strings.TrimSpace(item), "`*_")
		switch strings.ToLower(strings.TrimRight(item, ".")) {
		case "", "none", "n/a":
			continue
		}
		out = append(out, item)
	}
	return out
}
