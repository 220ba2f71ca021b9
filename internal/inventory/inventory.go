// Package inventory rebuilds the in-memory view of a project from its
// artifact directories.
//
// Nothing here is persisted. Every call to Scan re-reads the filesystem so
// the inventory always reflects what is on disk, including documents a
// person edited by hand between turns.
package inventory

import (
	"sort"

	"github.com/HendryAvila/polly/internal/artifacts"
)

// Missing artifact names reported in Record.Missing.
const (
	MissingSpec       = "spec"
	MissingIncrements = "increments"
	MissingPrompts    = "prompts"
)

// Record is everything the resolver needs to know about one feature slug.
type Record struct {
	Slug           string           `json:"slug"`
	Title          string           `json:"title"`
	Status         artifacts.Status `json:"status"`
	Dependencies   []string         `json:"dependencies"`
	IncrementCount int              `json:"increment_count"`
	PromptCount    int              `json:"prompt_count"`
	Missing        []string         `json:"missing_artifacts"`

	// HasSpec is true when features/{slug}.md exists.
	HasSpec bool `json:"has_spec"`
	// HasBody is true when the spec has at least one non-empty section.
	HasBody bool `json:"has_body"`
	// HasStub is true when future-features/{slug}.md exists.
	HasStub        bool    `json:"has_stub"`
	CapturedDuring *string `json:"captured_during,omitempty"`
}

// IsMissing reports whether name is listed in r.Missing.
func (r Record) IsMissing(name string) bool {
	for _, m := range r.Missing {
		if m == name {
			return true
		}
	}
	return false
}

// Warning is a non-fatal problem found while scanning.
type Warning struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	if w.Path == "" {
		return w.Message
	}
	return w.Path + ": " + w.Message
}

// Inventory is the result of one scan.
type Inventory struct {
	Root     string            `json:"root"`
	Records  map[string]Record `json:"records"`
	Warnings []Warning         `json:"warnings,omitempty"`
}

// Slugs returns the record slugs in lexical order.
func (inv *Inventory) Slugs() []string {
	out := make([]string, 0, len(inv.Records))
	for slug := range inv.Records {
		out = append(out, slug)
	}
	sort.Strings(out)
	return out
}

// Get returns the record for slug.
func (inv *Inventory) Get(slug string) (Record, bool) {
	r, ok := inv.Records[slug]
	return r, ok
}

// Empty reports whether the scan found no features or stubs at all.
func (inv *Inventory) Empty() bool {
	return len(inv.Records) == 0
}

// Known reports whether slug names a feature spec or a future-feature stub.
func (inv *Inventory) Known(slug string) bool {
	r, ok := inv.Records[slug]
	return ok && (r.HasSpec || r.HasStub)
}
