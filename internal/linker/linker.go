// Package linker turns free-form dependency references into links.
//
// A reference resolves to one of three things:
//
//   - internal: it names a feature spec or future-feature stub on disk
//   - external: it names nothing on disk and reads like plain text
//     ("stripe-api", "SendGrid"); it is kept as written
//   - dangling: it is written as an internal reference ("features/x.md",
//     "feature:x", "@x") but no such artifact exists
//
// Linking never fails. Dangling references are reported so callers can
// surface them as warnings.
package linker

import (
	"path"
	"strings"

	"github.com/HendryAvila/polly/internal/artifacts"
	"github.com/HendryAvila/polly/internal/inventory"
)

// Kind classifies a resolved reference.
type Kind string

const (
	Internal Kind = "internal"
	External Kind = "external"
	Dangling Kind = "dangling"
)

// Resolution is the outcome for one reference.
type Resolution struct {
	Ref  string `json:"ref"`
	Kind Kind   `json:"kind"`
	// Slug is set for internal and dangling references.
	Slug string `json:"slug,omitempty"`
	// Path is the project-relative document path of an internal reference.
	Path string `json:"path,omitempty"`
}

// Linker resolves references against one inventory snapshot.
type Linker struct {
	specs map[string]bool
	stubs map[string]bool
}

// New builds a linker over the features and stubs in inv.
func New(inv *inventory.Inventory) *Linker {
	l := &Linker{specs: make(map[string]bool), stubs: make(map[string]bool)}
	if inv == nil {
		return l
	}
	for slug, r := range inv.Records {
		if r.HasSpec {
			l.specs[slug] = true
		}
		if r.HasStub {
			l.stubs[slug] = true
		}
	}
	return l
}

// Link scans root and resolves refs in one call.
func Link(root string, refs []string) []Resolution {
	return New(inventory.Scan(root)).ResolveAll(refs)
}

// ResolveAll resolves each non-blank reference in order.
func (l *Linker) ResolveAll(refs []string) []Resolution {
	out := make([]Resolution, 0, len(refs))
	for _, ref := range refs {
		if strings.TrimSpace(ref) == "" {
			continue
		}
		out = append(out, l.Resolve(ref))
	}
	return out
}

// Resolve classifies a single reference.
func (l *Linker) Resolve(ref string) Resolution {
	raw := strings.TrimSpace(ref)
	res := Resolution{Ref: raw}

	if slug, set, explicit := parseInternal(raw); explicit {
		if p, ok := l.lookup(slug, set); ok {
			res.Kind, res.Slug, res.Path = Internal, slug, p
			return res
		}
		res.Kind, res.Slug = Dangling, slug
		return res
	}

	for _, candidate := range candidates(raw) {
		if p, ok := l.lookup(candidate, ""); ok {
			res.Kind, res.Slug, res.Path = Internal, candidate, p
			return res
		}
	}

	res.Kind = External
	return res
}

// lookup finds slug, preferring the named document set when one is given.
func (l *Linker) lookup(slug, set string) (string, bool) {
	spec := func() (string, bool) {
		return path.Join(artifacts.FeaturesDir, slug+artifacts.Ext), l.specs[slug]
	}
	stub := func() (string, bool) {
		return path.Join(artifacts.FutureFeaturesDir, slug+artifacts.Ext), l.stubs[slug]
	}

	order := []func() (string, bool){spec, stub}
	if set == artifacts.FutureFeaturesDir {
		order = []func() (string, bool){stub, spec}
	}
	for _, f := range order {
		if p, ok := f(); ok {
			return p, true
		}
	}
	return "", false
}

// parseInternal recognises the explicit internal-reference forms and
// returns the slug they name and the directory they point into ("" when
// the form names no directory).
func parseInternal(ref string) (slug, set string, explicit bool) {
	s := ref
	for strings.HasPrefix(s, "./") || strings.HasPrefix(s, "../") {
		s = strings.TrimPrefix(strings.TrimPrefix(s, "../"), "./")
	}

	for _, dir := range []string{artifacts.FutureFeaturesDir, artifacts.FeaturesDir} {
		if rest, ok := strings.CutPrefix(s, dir+"/"); ok {
			rest = strings.TrimSuffix(rest, artifacts.Ext)
			return artifacts.Slugify(rest), dir, true
		}
	}

	lower := strings.ToLower(s)
	for _, prefix := range []string{"feature:", "future-feature:"} {
		if strings.HasPrefix(lower, prefix) {
			set := artifacts.FeaturesDir
			if prefix == "future-feature:" {
				set = artifacts.FutureFeaturesDir
			}
			return artifacts.Slugify(strings.TrimSpace(s[len(prefix):])), set, true
		}
	}

	if rest, ok := strings.CutPrefix(s, "@"); ok && rest != "" {
		return artifacts.Slugify(rest), "", true
	}
	return "", "", false
}

// candidates lists the slugs a plain reference may name, most literal first.
func candidates(ref string) []string {
	out := []string{ref}
	slug := artifacts.Slugify(ref)
	if slug != ref && artifacts.IsSlug(slug) {
		out = append(out, slug)
	}
	for _, suffix := range []string{"-feature", "-spec"} {
		if trimmed, ok := strings.CutSuffix(slug, suffix); ok && trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// DanglingOnly returns the dangling resolutions in rs.
func DanglingOnly(rs []Resolution) []Resolution {
	var out []Resolution
	for _, r := range rs {
		if r.Kind == Dangling {
			out = append(out, r)
		}
	}
	return out
}

// SplitRefs splits a newline- or comma-separated list of references.
func SplitRefs(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		for _, part := range strings.Split(line, ",") {
			part = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(part), "-*"))
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
