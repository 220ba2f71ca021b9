// Package templates renders project documents from typed field layouts.
//
// Each document kind has a Layout (the list of fields it needs) and a
// text/template body embedded in the binary. Rendering is pure: the same
// kind and fields always produce the same bytes, so timestamps are passed
// in as fields rather than read from the clock.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/HendryAvila/polly/internal/artifacts"
)

//go:embed *.md.tmpl
var templateFS embed.FS

// Renderer holds the parsed templates for every document kind.
type Renderer struct {
	templates map[artifacts.Kind]*template.Template
}

var funcs = template.FuncMap{
	"bullets":   bullets,
	"checklist": checklist,
	"dependsOn": func(d artifacts.DependencyList) string { return artifacts.FormatDependsOn(d) },
	"orDefault": func(s, def string) string {
		if strings.TrimSpace(s) == "" {
			return def
		}
		return s
	},
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{templates: make(map[artifacts.Kind]*template.Template, len(layouts))}
	for kind, l := range layouts {
		tmpl, err := template.New(l.Template).
			Funcs(funcs).
			Option("missingkey=error").
			ParseFS(templateFS, l.Template)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", l.Template, err)
		}
		r.templates[kind] = tmpl
	}
	return r, nil
}

// Render produces the full document (front matter and body) for kind.
func (r *Renderer) Render(kind artifacts.Kind, fields Fields) ([]byte, error) {
	l, ok := layouts[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	tmpl, ok := r.templates[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q has no template", ErrUnknownKind, kind)
	}

	values, err := normalize(l, fields)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := writeHeader(&buf, l.header(values)); err != nil {
		return nil, fmt.Errorf("rendering %s header: %w", kind, err)
	}
	if err := tmpl.Execute(&buf, values); err != nil {
		return nil, fmt.Errorf("rendering %s: %w", kind, err)
	}
	return buf.Bytes(), nil
}

// writeHeader writes the YAML front matter block.
func writeHeader(buf *bytes.Buffer, h artifacts.Header) error {
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(buf)
	enc.SetIndent(2)
	if err := enc.Encode(h); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	buf.WriteString("---\n")
	return nil
}

// --- Template helpers ---

// bullets renders a markdown list, or "None" for an empty one.
func bullets(items []string) string {
	if len(items) == 0 {
		return "- None"
	}
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(item)
	}
	return b.String()
}

// checklist renders a markdown task list.
func checklist(items []string) string {
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- [ ] ")
		b.WriteString(item)
	}
	return b.String()
}
