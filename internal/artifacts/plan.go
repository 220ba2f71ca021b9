package artifacts

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	incrementHeading = regexp.MustCompile(`(?i)^increment\s+(\d+)\s*(?:[:.\-–—]\s*(.*))?$`)
	labelLine        = regexp.MustCompile(`^\*\*([A-Za-z ]+)\*\*:\s*(.*)$`)
)

// Labels written under each "## Increment N: Name" heading.
const (
	LabelUserValue = "User Value"
	LabelScope     = "Scope"
	LabelDependsOn = "Depends On"
)

// ParsePlan reads an increments document back into an IncrementPlan.
// Only level-2 "Increment N" sections count; anything else is ignored.
// The plan is returned as written, valid or not: structural checks belong
// to the validator.
func ParsePlan(data []byte) *IncrementPlan {
	doc := ParseDocument(data)
	plan := &IncrementPlan{
		FeatureSlug: doc.Header.Feature,
		Title:       doc.Title,
	}

	for _, s := range doc.Sections {
		if s.Level != 2 {
			continue
		}
		m := incrementHeading.FindStringSubmatch(s.Title)
		if m == nil {
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		inc := Increment{Index: idx, Name: strings.TrimSpace(m[2])}
		labels := parseLabels(s.Body)
		inc.UserValue = labels[LabelUserValue]
		inc.Scope = labels[LabelScope]
		inc.DependsOn = ParseDependsOn(labels[LabelDependsOn])
		plan.Increments = append(plan.Increments, inc)
	}
	return plan
}

// CountIncrements returns how many increments a plan document holds,
// falling back to the header count when the body has no parseable sections.
func CountIncrements(data []byte) int {
	plan := ParsePlan(data)
	if n := len(plan.Increments); n > 0 {
		return n
	}
	doc := ParseDocument(data)
	return doc.Header.IncrementCount
}

// ParseDependsOn splits a "Depends On" value. "None", "-" and empty
// values yield an empty list.
func ParseDependsOn(value string) DependencyList {
	value = strings.TrimSpace(value)
	switch strings.ToLower(strings.Trim(value, "._*")) {
	case "", "none", "-", "n/a":
		return nil
	}
	var out DependencyList
	for _, part := range strings.Split(value, ",") {
		part = strings.Trim(strings.TrimSpace(part), "`")
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// FormatDependsOn is the inverse of ParseDependsOn.
func FormatDependsOn(deps DependencyList) string {
	if len(deps) == 0 {
		return "None"
	}
	return strings.Join(deps, ", ")
}

// parseLabels collects "**Label**: value" entries. A value continues on
// the following lines until the next label.
func parseLabels(body string) map[string]string {
	out := make(map[string]string)
	var current string
	var buf []string
	flush := func() {
		if current != "" {
			out[current] = strings.TrimSpace(strings.Join(buf, "\n"))
		}
	}
	for _, line := range strings.Split(body, "\n") {
		if m := labelLine.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			flush()
			current = strings.TrimSpace(m[1])
			buf = []string{m[2]}
			continue
		}
		if current != "" {
			buf = append(buf, line)
		}
	}
	flush()
	return out
}
