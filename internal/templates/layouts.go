package templates

import "github.com/HendryAvila/polly/internal/artifacts"

// FieldType is the shape a field value must normalise to.
type FieldType int

const (
	// FieldText is a single string.
	FieldText FieldType = iota
	// FieldList is a list of strings. A newline-separated string is accepted.
	FieldList
	// FieldInt is a positive integer.
	FieldInt
	// FieldStatus is a known feature status other than unknown.
	FieldStatus
	// FieldIncrements is a list of artifacts.Increment.
	FieldIncrements
)

// Field is one entry of a layout.
type Field struct {
	Name     string
	Section  string
	Type     FieldType
	Required bool
	// MinItems applies to list fields. A required list with MinItems 0
	// must be present but may be empty.
	MinItems int
}

// Layout is the typed list of fields a document kind is rendered from.
type Layout struct {
	Kind     artifacts.Kind
	Template string
	Fields   []Field
	header   func(values map[string]any) artifacts.Header
}

func text(name, section string) Field {
	return Field{Name: name, Section: section, Type: FieldText, Required: true}
}

func optionalText(name, section string) Field {
	return Field{Name: name, Section: section, Type: FieldText}
}

func list(name, section string, min int) Field {
	return Field{Name: name, Section: section, Type: FieldList, Required: true, MinItems: min}
}

// MinAcceptanceCriteria is the minimum number of acceptance criteria a
// prompt must carry.
const MinAcceptanceCriteria = 3

var layouts = map[artifacts.Kind]Layout{
	artifacts.KindFeature: {
		Kind:     artifacts.KindFeature,
		Template: "feature.md.tmpl",
		Fields: []Field{
			text("title", "Title"),
			text("slug", "Header"),
			{Name: "status", Section: "Status", Type: FieldStatus, Required: true},
			text("created", "Header"),
			text("problem_statement", "Problem Statement"),
			text("target_users", "Target Users"),
			text("key_functionality", "Key Functionality"),
			text("technical_constraints", "Technical Constraints"),
			list("dependencies", "Dependencies", 0),
			text("expected_behavior", "Expected Behavior"),
		},
		header: func(v map[string]any) artifacts.Header {
			return artifacts.Header{
				Kind:         artifacts.KindFeature,
				Slug:         v["slug"].(string),
				Title:        v["title"].(string),
				Status:       artifacts.Status(v["status"].(string)),
				Dependencies: nonEmpty(v["dependencies"].([]string)),
				Created:      v["created"].(string),
			}
		},
	},

	artifacts.KindIncrements: {
		Kind:     artifacts.KindIncrements,
		Template: "increments.md.tmpl",
		Fields: []Field{
			text("feature", "Header"),
			text("title", "Title"),
			{Name: "increments", Section: "Increments", Type: FieldIncrements, Required: true, MinItems: 1},
			text("created", "Header"),
		},
		header: func(v map[string]any) artifacts.Header {
			return artifacts.Header{
				Kind:           artifacts.KindIncrements,
				Feature:        v["feature"].(string),
				Title:          v["title"].(string),
				IncrementCount: len(v["increments"].([]artifacts.Increment)),
				Created:        v["created"].(string),
			}
		},
	},

	artifacts.KindFutureFeature: {
		Kind:     artifacts.KindFutureFeature,
		Template: "future-feature.md.tmpl",
		Fields: []Field{
			text("title", "Title"),
			text("slug", "Header"),
			text("description", "Brief Description"),
			text("captured_at", "Mentioned In Context"),
			optionalText("captured_during", "Mentioned In Context"),
			optionalText("notes", "Initial Notes"),
		},
		header: func(v map[string]any) artifacts.Header {
			origin := &artifacts.Origin{}
			if during := v["captured_during"].(string); during != "" {
				origin.CapturedDuring = &during
			}
			return artifacts.Header{
				Kind:    artifacts.KindFutureFeature,
				Slug:    v["slug"].(string),
				Title:   v["title"].(string),
				Status:  artifacts.StatusStub,
				Origin:  origin,
				Created: v["captured_at"].(string),
			}
		},
	},

	artifacts.KindPrompt: {
		Kind:     artifacts.KindPrompt,
		Template: "prompt.md.tmpl",
		Fields: []Field{
			text("feature_slug", "Header"),
			text("title", "Title"),
			{Name: "increment_index", Section: "Header", Type: FieldInt, Required: true},
			{Name: "increment_total", Section: "Header", Type: FieldInt, Required: true},
			text("generated_at", "Footer"),
			text("overview", "Overview"),
			list("included", "What's Included", 1),
			list("excluded", "What's NOT Included", 0),
			list("previous_increments", "Previous Increments", 0),
			list("existing_features", "Existing Features", 0),
			list("external_dependencies", "External Dependencies", 0),
			text("user_story", "User Story"),
			list("acceptance_criteria", "Acceptance Criteria", MinAcceptanceCriteria),
			text("technical_constraints", "Technical Constraints"),
			text("testing_strategy", "Testing Strategy"),
			list("edge_cases", "Edge Cases", 1),
		},
		header: func(v map[string]any) artifacts.Header {
			return artifacts.Header{
				Kind:           artifacts.KindPrompt,
				Feature:        v["feature_slug"].(string),
				Title:          v["title"].(string),
				Increment:      v["increment_index"].(int),
				IncrementTotal: v["increment_total"].(int),
				GeneratedAt:    v["generated_at"].(string),
			}
		},
	},
}

// LayoutFor returns the layout of a document kind.
func LayoutFor(kind artifacts.Kind) (Layout, bool) {
	l, ok := layouts[kind]
	return l, ok
}

// RequiredFields returns the names of the required fields of a kind.
func RequiredFields(kind artifacts.Kind) []string {
	var out []string
	for _, f := range layouts[kind].Fields {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

func nonEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}
