package artifacts

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

// markdown is the shared CommonMark parser. Parsing keeps no state between
// calls, so one instance serves every document.
var markdown = goldmark.New()

var statusMarker = regexp.MustCompile(`(?m)^\*\*Status\*\*:\s*(.+?)\s*$`)

// titlePrefixes are stripped from level-1 headings when the front matter
// carries no title.
var titlePrefixes = []string{"Future Feature:", "Feature:", "Increments:", "Prompt:"}

// Section is one markdown heading and the text below it up to the next heading.
type Section struct {
	Level int    `json:"level"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Document is a parsed artifact. Parsing never fails as a whole: a bad
// header is reported through HeaderErr and the body is still read, so a
// half-written file can be classified instead of aborting a scan.
type Document struct {
	Header    Header
	HasHeader bool
	HeaderErr error
	Title     string
	Status    Status
	Sections  []Section
}

// ParseDocument reads front matter, title, status marker and sections.
func ParseDocument(data []byte) *Document {
	doc := &Document{Status: StatusUnknown}

	fm, body, found := SplitFrontMatter(data)
	if found {
		if err := yaml.Unmarshal(fm, &doc.Header); err != nil {
			doc.HeaderErr = fmt.Errorf("parsing front matter: %w", err)
			doc.Header = Header{}
		} else {
			doc.HasHeader = true
		}
	}

	title, sections := parseSections(body)
	doc.Sections = sections

	doc.Title = strings.TrimSpace(doc.Header.Title)
	if doc.Title == "" {
		doc.Title = stripTitlePrefix(title)
	}

	if doc.Header.Status != "" {
		doc.Status = ParseStatus(string(doc.Header.Status))
	}
	if doc.Status == StatusUnknown {
		if m := statusMarker.FindSubmatch(body); m != nil {
			doc.Status = ParseStatus(string(m[1]))
		}
	}

	return doc
}

// Section returns the first section whose title matches name, ignoring case.
func (d *Document) Section(name string) (Section, bool) {
	for _, s := range d.Sections {
		if strings.EqualFold(s.Title, name) {
			return s, true
		}
	}
	return Section{}, false
}

// SectionMap returns section bodies keyed by title (first occurrence wins).
func (d *Document) SectionMap() map[string]string {
	out := make(map[string]string, len(d.Sections))
	for _, s := range d.Sections {
		if _, dup := out[s.Title]; !dup {
			out[s.Title] = s.Body
		}
	}
	return out
}

// HasBody reports whether any section carries text. A file holding only a
// title line is treated as not yet written.
func (d *Document) HasBody() bool {
	for _, s := range d.Sections {
		if s.Body != "" {
			return true
		}
	}
	return false
}

// Classifiable reports whether the document carries the minimum the scanner
// needs: a title line and a status marker or header.
func (d *Document) Classifiable() bool {
	return d.Title != "" && d.Status != StatusUnknown
}

// SplitFrontMatter separates a leading "---" delimited YAML block from the
// markdown body. found is false when the data has no front matter, in which
// case body is the whole input.
func SplitFrontMatter(data []byte) (fm, body []byte, found bool) {
	rest, ok := cutLine(data, "---")
	if !ok {
		return nil, data, false
	}
	for offset := 0; offset < len(rest); {
		end := bytes.IndexByte(rest[offset:], '\n')
		var line []byte
		next := len(rest)
		if end >= 0 {
			line = rest[offset : offset+end]
			next = offset + end + 1
		} else {
			line = rest[offset:]
		}
		if string(bytes.TrimRight(line, " \t\r")) == "---" {
			return rest[:offset], rest[next:], true
		}
		offset = next
	}
	// Unterminated front matter: treat everything as body.
	return nil, data, false
}

// cutLine strips a first line equal to want (ignoring trailing whitespace).
func cutLine(data []byte, want string) ([]byte, bool) {
	end := bytes.IndexByte(data, '\n')
	if end < 0 {
		return nil, false
	}
	if string(bytes.TrimRight(data[:end], " \t\r")) != want {
		return nil, false
	}
	return data[end+1:], true
}

// parseSections walks the top-level blocks of the body with goldmark and
// slices the source between headings. Headings inside code blocks or
// lists are not top-level and therefore never split a section.
func parseSections(body []byte) (string, []Section) {
	root := markdown.Parser().Parse(text.NewReader(body))

	type mark struct {
		level     int
		title     string
		lineStart int
		bodyStart int
	}
	var marks []mark

	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Lines().Len() == 0 {
			continue
		}
		first := h.Lines().At(0)
		last := h.Lines().At(h.Lines().Len() - 1)

		lineStart := bytes.LastIndexByte(body[:first.Start], '\n') + 1
		bodyStart := len(body)
		if i := bytes.IndexByte(body[last.Stop:], '\n'); i >= 0 {
			bodyStart = last.Stop + i + 1
		}
		marks = append(marks, mark{
			level:     h.Level,
			title:     strings.TrimSpace(string(first.Value(body))),
			lineStart: lineStart,
			bodyStart: bodyStart,
		})
	}

	var title string
	var sections []Section
	for i, m := range marks {
		end := len(body)
		if i+1 < len(marks) {
			end = marks[i+1].lineStart
		}
		start := m.bodyStart
		if start > end {
			start = end
		}
		if m.level == 1 && title == "" {
			title = m.title
			continue
		}
		sections = append(sections, Section{
			Level: m.level,
			Title: m.title,
			Body:  strings.TrimSpace(string(body[start:end])),
		})
	}
	return title, sections
}

func stripTitlePrefix(title string) string {
	for _, p := range titlePrefixes {
		if rest, ok := strings.CutPrefix(title, p); ok {
			return strings.TrimSpace(rest)
		}
	}
	return strings.TrimSpace(title)
}
