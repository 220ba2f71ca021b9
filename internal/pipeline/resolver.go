// Package pipeline decides where each feature stands in the breakdown
// workflow.
//
// The stages are always derived from the inventory. There is no progress
// file: deleting a prompt on disk moves the feature back to needs_prompts
// on the next turn, and nothing else has to be reset.
package pipeline

import (
	"github.com/HendryAvila/polly/internal/artifacts"
	"github.com/HendryAvila/polly/internal/inventory"
)

// NextAction is the stage a feature should resume at.
type NextAction string

const (
	NeedsDiscovery NextAction = "needs_discovery"
	NeedsBreakdown NextAction = "needs_breakdown"
	NeedsPrompts   NextAction = "needs_prompts"
	Complete       NextAction = "complete"
)

// actionOrder is the pipeline order, used for progress displays.
var actionOrder = []NextAction{NeedsDiscovery, NeedsBreakdown, NeedsPrompts, Complete}

// Describe returns a one-line hint for the collaborator.
func Describe(a NextAction) string {
	switch a {
	case NeedsDiscovery:
		return "Run discovery and write the feature spec"
	case NeedsBreakdown:
		return "Break the feature into 2-8 vertical-slice increments"
	case NeedsPrompts:
		return "Generate the next implementation prompt"
	case Complete:
		return "All prompts generated; ready to implement"
	default:
		return "Unknown stage"
	}
}

// ActionIndex returns the position of a in the pipeline (0-based), or -1.
func ActionIndex(a NextAction) int {
	for i, x := range actionOrder {
		if x == a {
			return i
		}
	}
	return -1
}

// Resolve classifies one record. It is a pure function of the record's
// values: same record, same answer.
func Resolve(r inventory.Record) NextAction {
	switch {
	case r.Status == artifacts.StatusStub || !r.HasSpec || !r.HasBody:
		return NeedsDiscovery
	case r.IsMissing(inventory.MissingIncrements):
		return NeedsBreakdown
	case r.IsMissing(inventory.MissingPrompts):
		return NeedsPrompts
	default:
		return Complete
	}
}

// Resume is the resolved view of a whole inventory.
type Resume struct {
	Actions map[string]NextAction `json:"actions"`
	// Order is the record slugs in lexical order.
	Order []string `json:"order"`
	// Suggested is the first slug in Order that is not complete, or "".
	Suggested string `json:"suggested,omitempty"`
}

// ResolveAll resolves every record in inv.
func ResolveAll(inv *inventory.Inventory) *Resume {
	res := &Resume{
		Actions: make(map[string]NextAction, len(inv.Records)),
		Order:   inv.Slugs(),
	}
	for _, slug := range res.Order {
		a := Resolve(inv.Records[slug])
		res.Actions[slug] = a
		if res.Suggested == "" && a != Complete {
			res.Suggested = slug
		}
	}
	return res
}

// Count returns how many features resolved to a.
func (r *Resume) Count(a NextAction) int {
	n := 0
	for _, x := range r.Actions {
		if x == a {
			n++
		}
	}
	return n
}
