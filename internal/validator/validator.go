// Package validator checks increment plans against the vertical-slice rules.
//
// Violations are data, not errors. Validate always runs every rule and
// returns every violation it finds; callers decide whether to refuse a
// write with HasBlocking.
package validator

import (
	"fmt"
	"strings"

	"github.com/HendryAvila/polly/internal/artifacts"
)

// Plan size bounds.
const (
	MinIncrements = 2
	MaxIncrements = 8
)

// Severity of a violation. Only errors block a save.
type Severity string

const (
	SeverityError    Severity = "error"
	SeverityAdvisory Severity = "advisory"
)

// Rule names a structural check.
type Rule string

const (
	RuleIncrementCount     Rule = "increment-count"
	RuleUserValueRequired  Rule = "user-value-required"
	RuleScopeRequired      Rule = "scope-required"
	RuleDependencyOrder    Rule = "dependency-order"
	RuleDuplicateIndex     Rule = "duplicate-index"
	RuleIndexSequence      Rule = "index-sequence"
	RuleStartPoint         Rule = "start-point"
	RuleInfrastructureOnly Rule = "infrastructure-only"
)

// Violation is one broken rule. Index is nil for plan-level rules.
type Violation struct {
	Index    *int     `json:"increment_index"`
	Rule     Rule     `json:"rule"`
	Detail   string   `json:"detail"`
	Severity Severity `json:"severity"`
}

func (v Violation) String() string {
	where := "plan"
	if v.Index != nil {
		where = fmt.Sprintf("increment %d", *v.Index)
	}
	return fmt.Sprintf("[%s] %s (%s): %s", v.Severity, v.Rule, where, v.Detail)
}

// Blocking reports whether the violation refuses a save.
func (v Violation) Blocking() bool {
	return v.Severity == SeverityError
}

// HasBlocking reports whether any violation is an error.
func HasBlocking(vs []Violation) bool {
	for _, v := range vs {
		if v.Blocking() {
			return true
		}
	}
	return false
}

// Advisories returns only the advisory violations.
func Advisories(vs []Violation) []Violation {
	var out []Violation
	for _, v := range vs {
		if !v.Blocking() {
			out = append(out, v)
		}
	}
	return out
}

// Validate checks plan and returns all violations in a stable order:
// plan size first, then per-increment rules in plan order, then the
// start-point rule. An empty result means the plan is valid.
func Validate(plan *artifacts.IncrementPlan) []Violation {
	var out []Violation
	if plan == nil {
		return []Violation{planLevel(RuleIncrementCount, "plan is empty")}
	}

	n := len(plan.Increments)
	if n < MinIncrements || n > MaxIncrements {
		out = append(out, planLevel(RuleIncrementCount,
			fmt.Sprintf("plan has %d increments; must have between %d and %d", n, MinIncrements, MaxIncrements)))
	}

	seen := make(map[int]bool, n)
	for i, inc := range plan.Increments {
		pos := i + 1

		if seen[inc.Index] {
			out = append(out, at(inc.Index, RuleDuplicateIndex, SeverityError,
				fmt.Sprintf("index %d is used by more than one increment", inc.Index)))
		}
		if inc.Index != pos {
			out = append(out, at(inc.Index, RuleIndexSequence, SeverityError,
				fmt.Sprintf("increment at position %d has index %d; indices must be 1-based and contiguous", pos, inc.Index)))
		}
		seen[inc.Index] = true

		if strings.TrimSpace(inc.UserValue) == "" {
			out = append(out, at(inc.Index, RuleUserValueRequired, SeverityError,
				"increment must state the value it delivers to a user"))
		}
		if strings.TrimSpace(inc.Scope) == "" {
			out = append(out, at(inc.Index, RuleScopeRequired, SeverityError,
				"increment must state its scope"))
		}

		for _, dep := range inc.DependsOn.Increments() {
			if dep >= inc.Index || dep < 1 {
				out = append(out, at(inc.Index, RuleDependencyOrder, SeverityError,
					fmt.Sprintf("depends on increment %d; may only depend on earlier increments", dep)))
			}
		}

		if infrastructureOnly(inc) {
			out = append(out, at(inc.Index, RuleInfrastructureOnly, SeverityAdvisory,
				"scope reads like a technical layer with no user-facing behaviour; consider slicing vertically"))
		}
	}

	if n > 0 && !hasStartPoint(plan.Increments) {
		out = append(out, planLevel(RuleStartPoint,
			"every increment depends on another increment; at least one must be startable on its own"))
	}

	return out
}

func hasStartPoint(incs []artifacts.Increment) bool {
	for _, inc := range incs {
		if len(inc.DependsOn.Increments()) == 0 {
			return true
		}
	}
	return false
}

func at(index int, rule Rule, sev Severity, detail string) Violation {
	idx := index
	return Violation{Index: &idx, Rule: rule, Detail: detail, Severity: sev}
}

func planLevel(rule Rule, detail string) Violation {
	return Violation{Rule: rule, Detail: detail, Severity: SeverityError}
}
