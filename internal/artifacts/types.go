// Package artifacts defines the on-disk document model of a Polly project.
//
// A project is a plain directory holding four document sets:
//
//	features/{slug}.md                                   feature specs
//	features/{slug}_increments.md                        increment plans
//	future-features/{slug}.md                            future-feature stubs
//	prompts/{feature-slug}/increment_{NN}_{desc-slug}.md coding prompts
//
// Every document starts with a small YAML front matter header followed by
// markdown sections. This package owns the types, the naming scheme, the
// header/section parser and the atomic write primitive. It holds no state:
// everything else in the repository re-reads the filesystem through it.
package artifacts

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// --- Document kind enum ---

// Kind identifies one of the document sets.
type Kind string

const (
	KindFeature       Kind = "feature"
	KindIncrements    Kind = "increments"
	KindFutureFeature Kind = "future-feature"
	KindPrompt        Kind = "prompt"
)

// validKinds is the set of recognised document kinds.
var validKinds = map[Kind]bool{
	KindFeature:       true,
	KindIncrements:    true,
	KindFutureFeature: true,
	KindPrompt:        true,
}

// ValidateKind returns an error if the kind is not recognised.
func ValidateKind(k Kind) error {
	if !validKinds[k] {
		return fmt.Errorf("invalid document kind %q: must be one of: feature, increments, future-feature, prompt", k)
	}
	return nil
}

// --- Feature status enum ---

// Status is the lifecycle position of a feature. Statuses only move forward.
type Status string

const (
	StatusUnknown           Status = "unknown"
	StatusStub              Status = "stub"
	StatusDiscovered        Status = "discovered"
	StatusIncrementsPlanned Status = "increments-planned"
	StatusPromptsGenerated  Status = "prompts-generated"
)

// statusRank orders statuses along the lifecycle. Unknown sorts first so
// any real evidence advances it.
var statusRank = map[Status]int{
	StatusUnknown:           0,
	StatusStub:              1,
	StatusDiscovered:        2,
	StatusIncrementsPlanned: 3,
	StatusPromptsGenerated:  4,
}

// ParseStatus reads a status from free text such as a header value or a
// "**Status**: discovered" marker. Only the first word is considered, so
// "stub (placeholder for future planning)" parses as StatusStub.
func ParseStatus(s string) Status {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.IndexAny(s, " \t(—,;"); i >= 0 {
		s = s[:i]
	}
	s = strings.Trim(s, "*_`.")
	st := Status(s)
	if _, ok := statusRank[st]; ok {
		return st
	}
	return StatusUnknown
}

// Rank returns the lifecycle position of s (unknown statuses rank 0).
func (s Status) Rank() int {
	return statusRank[s]
}

// Advance returns whichever of current and next is further along the
// lifecycle. It never moves a status backwards.
func Advance(current, next Status) Status {
	if next.Rank() > current.Rank() {
		return next
	}
	if current == "" {
		return StatusUnknown
	}
	return current
}

// --- Core data structures ---

// FeatureSpec is one discrete application capability (features/{slug}.md).
type FeatureSpec struct {
	Slug         string            `json:"slug"`
	Title        string            `json:"title"`
	Status       Status            `json:"status"`
	Dependencies []string          `json:"dependencies"`
	Sections     map[string]string `json:"sections,omitempty"`
}

// Origin records where a future-feature stub came from. A nil
// CapturedDuring means the stub was created outside any feature discussion.
type Origin struct {
	CapturedDuring *string `json:"captured_during" yaml:"captured_during"`
}

// FutureFeatureStub is a placeholder for scope creep or brainstorming
// (future-features/{slug}.md).
type FutureFeatureStub struct {
	Slug             string `json:"slug"`
	Title            string `json:"title"`
	Origin           Origin `json:"origin"`
	BriefDescription string `json:"brief_description"`
}

// Increment is one vertical slice of an IncrementPlan.
type Increment struct {
	Index     int            `json:"index"`
	Name      string         `json:"name"`
	UserValue string         `json:"user_value"`
	Scope     string         `json:"scope"`
	DependsOn DependencyList `json:"depends_on,omitempty"`
}

// IncrementPlan is the ordered decomposition of one feature.
type IncrementPlan struct {
	FeatureSlug string      `json:"feature"`
	Title       string      `json:"title,omitempty"`
	Increments  []Increment `json:"increments"`
}

// PromptDocument describes one generated coding prompt, 1:1 with an increment.
type PromptDocument struct {
	FeatureSlug    string `json:"feature"`
	IncrementIndex int    `json:"increment"`
	IncrementTotal int    `json:"increment_total"`
	GeneratedAt    string `json:"generated_at"`
	Path           string `json:"path"`
}

// --- Dependency references ---

// DependencyList holds the raw depends_on references of an increment.
// Entries are either earlier increment indices ("1", "#2", "increment 3")
// or feature slugs. JSON input may mix numbers and strings.
type DependencyList []string

// UnmarshalJSON accepts both numbers and strings so collaborators can send
// [1, "auth"] as well as ["1", "auth"].
func (d *DependencyList) UnmarshalJSON(data []byte) error {
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("depends_on must be a list: %w", err)
	}
	out := make(DependencyList, 0, len(raw))
	for _, v := range raw {
		switch val := v.(type) {
		case string:
			if s := strings.TrimSpace(val); s != "" {
				out = append(out, s)
			}
		case float64:
			out = append(out, strconv.Itoa(int(val)))
		default:
			return fmt.Errorf("depends_on entries must be strings or numbers, got %T", v)
		}
	}
	*d = out
	return nil
}

// Increments returns the intra-plan increment indices referenced.
func (d DependencyList) Increments() []int {
	var out []int
	for _, ref := range d {
		if n, ok := ParseIncrementRef(ref); ok {
			out = append(out, n)
		}
	}
	return out
}

// Features returns the references that are not increment indices.
func (d DependencyList) Features() []string {
	var out []string
	for _, ref := range d {
		if _, ok := ParseIncrementRef(ref); !ok {
			out = append(out, ref)
		}
	}
	return out
}

// ParseIncrementRef recognises an intra-plan reference: "2", "#2",
// "increment 2" or "increment-2".
func ParseIncrementRef(ref string) (int, bool) {
	s := strings.ToLower(strings.TrimSpace(ref))
	s = strings.TrimPrefix(s, "#")
	if rest, ok := strings.CutPrefix(s, "increment"); ok {
		s = strings.TrimLeft(rest, " -_#")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// --- Front matter header ---

// Header is the YAML front matter every document starts with. Field order
// here is the serialised order, which keeps rendered output stable.
type Header struct {
	Kind           Kind     `yaml:"kind"`
	Slug           string   `yaml:"slug,omitempty"`
	Feature        string   `yaml:"feature,omitempty"`
	Title          string   `yaml:"title,omitempty"`
	Status         Status   `yaml:"status,omitempty"`
	Dependencies   []string `yaml:"dependencies,omitempty"`
	Origin         *Origin  `yaml:"origin,omitempty"`
	IncrementCount int      `yaml:"increment_count,omitempty"`
	Increment      int      `yaml:"increment,omitempty"`
	IncrementTotal int      `yaml:"increment_total,omitempty"`
	Created        string   `yaml:"created,omitempty"`
	GeneratedAt    string   `yaml:"generated_at,omitempty"`
}
