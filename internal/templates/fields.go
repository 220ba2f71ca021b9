package templates

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/HendryAvila/polly/internal/artifacts"
)

// Fields is the caller-supplied field mapping for one document.
type Fields map[string]any

// normalize checks in against the layout and returns the canonical values
// the template and header are built from. Unknown keys are ignored.
func normalize(l Layout, in Fields) (map[string]any, error) {
	out := make(map[string]any, len(l.Fields))
	for _, f := range l.Fields {
		raw, present := in[f.Name]
		if present && isNil(raw) {
			present = false
		}
		missing := func(reason string) error {
			return &MissingFieldError{Kind: l.Kind, Field: f.Name, Section: f.Section, Reason: reason}
		}

		switch f.Type {
		case FieldText:
			s := ""
			if present {
				var ok bool
				if s, ok = asText(raw); !ok {
					return nil, missing(fmt.Sprintf("must be text, got %T", raw))
				}
			}
			if f.Required && s == "" {
				if !present {
					return nil, missing("is missing")
				}
				return nil, missing("is blank")
			}
			out[f.Name] = s

		case FieldStatus:
			if !present {
				return nil, missing("is missing")
			}
			s, ok := asText(raw)
			if !ok {
				return nil, missing(fmt.Sprintf("must be text, got %T", raw))
			}
			st := artifacts.ParseStatus(s)
			if st == artifacts.StatusUnknown {
				return nil, missing(fmt.Sprintf("has unrecognised status %q", s))
			}
			out[f.Name] = string(st)

		case FieldList:
			items := []string{}
			if present {
				var ok bool
				if items, ok = asList(raw); !ok {
					return nil, missing(fmt.Sprintf("must be a list, got %T", raw))
				}
			}
			if f.Required && !present {
				return nil, missing("is missing")
			}
			if len(items) < f.MinItems {
				return nil, missing(fmt.Sprintf("needs at least %d items, got %d", f.MinItems, len(items)))
			}
			out[f.Name] = items

		case FieldInt:
			if !present {
				return nil, missing("is missing")
			}
			n, ok := asInt(raw)
			if !ok || n < 1 {
				return nil, missing("must be a positive integer")
			}
			out[f.Name] = n

		case FieldIncrements:
			incs := []artifacts.Increment{}
			if present {
				var ok bool
				if incs, ok = asIncrements(raw); !ok {
					return nil, missing(fmt.Sprintf("must be a list of increments, got %T", raw))
				}
			}
			if len(incs) < f.MinItems {
				if !present {
					return nil, missing("is missing")
				}
				return nil, missing(fmt.Sprintf("needs at least %d items, got %d", f.MinItems, len(incs)))
			}
			out[f.Name] = incs
		}
	}
	if err := checkIncrementRange(l, out); err != nil {
		return nil, err
	}
	return out, nil
}

// checkIncrementRange rejects an increment_index past increment_total.
func checkIncrementRange(l Layout, values map[string]any) error {
	index, ok := values["increment_index"].(int)
	if !ok {
		return nil
	}
	total, ok := values["increment_total"].(int)
	if !ok || index <= total {
		return nil
	}
	section := ""
	for _, f := range l.Fields {
		if f.Name == "increment_index" {
			section = f.Section
		}
	}
	return &MissingFieldError{
		Kind:    l.Kind,
		Field:   "increment_index",
		Section: section,
		Reason:  fmt.Sprintf("is %d, past increment_total %d", index, total),
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func asText(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), true
	case *string:
		return strings.TrimSpace(*val), true
	case fmt.Stringer:
		return strings.TrimSpace(val.String()), true
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.String {
		return strings.TrimSpace(rv.String()), true
	}
	return "", false
}

func asList(v any) ([]string, bool) {
	var raw []string
	switch val := v.(type) {
	case []string:
		raw = val
	case artifacts.DependencyList:
		raw = val
	case []any:
		for _, item := range val {
			s, ok := asText(item)
			if !ok {
				return nil, false
			}
			raw = append(raw, s)
		}
	case string:
		for _, line := range strings.Split(val, "\n") {
			line = strings.TrimSpace(line)
			if rest, ok := strings.CutPrefix(line, "- "); ok {
				line = rest
			} else if rest, ok := strings.CutPrefix(line, "* "); ok {
				line = rest
			}
			raw = append(raw, line)
		}
	default:
		return nil, false
	}

	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, true
}

func asInt(v any) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case float64:
		if val != float64(int(val)) {
			return 0, false
		}
		return int(val), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		return n, err == nil
	}
	return 0, false
}

// asIncrements accepts typed increments or anything that JSON-decodes into
// them, such as the []any an MCP client sends.
func asIncrements(v any) ([]artifacts.Increment, bool) {
	if incs, ok := v.([]artifacts.Increment); ok {
		return incs, true
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	var incs []artifacts.Increment
	if err := json.Unmarshal(data, &incs); err != nil {
		return nil, false
	}
	return incs, true
}
