// Package capture records out-of-scope ideas as future-feature stubs.
//
// Capturing never touches the feature under discussion: it only creates
// future-features/{slug}.md, and refuses to replace an existing stub.
package capture

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/HendryAvila/polly/internal/artifacts"
	"github.com/HendryAvila/polly/internal/templates"
)

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// capturedAtLayout is the "Date Captured" format.
const capturedAtLayout = "2006-01-02 15:04:05"

// DuplicateSlugError is returned when a stub with the derived slug exists.
type DuplicateSlugError struct {
	Slug string
	Path string
}

func (e *DuplicateSlugError) Error() string {
	return fmt.Sprintf("future feature %q already exists at %s", e.Slug, e.Path)
}

// ErrDuplicateSlug matches *DuplicateSlugError with errors.Is.
var ErrDuplicateSlug = errors.New("duplicate future-feature slug")

func (e *DuplicateSlugError) Is(target error) bool { return target == ErrDuplicateSlug }

// Request describes one captured idea.
type Request struct {
	Topic       string
	Description string
	Notes       string
	// Origin is the slug of the feature being discussed, or "".
	Origin string
}

// StubRef points at a newly created stub.
type StubRef struct {
	Slug           string  `json:"slug"`
	Title          string  `json:"title"`
	Path           string  `json:"path"`
	CapturedDuring *string `json:"captured_during"`
	Digest         string  `json:"digest"`
}

// Capturer creates stubs through a renderer.
type Capturer struct {
	renderer *templates.Renderer
}

// New creates a Capturer.
func New(r *templates.Renderer) *Capturer {
	return &Capturer{renderer: r}
}

// Capture writes a stub for req under root.
func (c *Capturer) Capture(root string, req Request) (*StubRef, error) {
	title := strings.TrimSpace(req.Topic)
	if title == "" {
		return nil, errors.New("topic is required")
	}
	slug := artifacts.Slugify(title)
	path := artifacts.FutureFeaturePath(root, slug)

	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = title
	}

	fields := templates.Fields{
		"title":       title,
		"slug":        slug,
		"description": description,
		"captured_at": timeNow().Format(capturedAtLayout),
		"notes":       req.Notes,
	}
	var origin *string
	if o := strings.TrimSpace(req.Origin); o != "" {
		fields["captured_during"] = o
		origin = &o
	}

	res, err := c.renderer.Write(artifacts.KindFutureFeature, fields, path, false)
	if err != nil {
		if errors.Is(err, templates.ErrArtifactExists) {
			return nil, &DuplicateSlugError{Slug: slug, Path: path}
		}
		return nil, fmt.Errorf("capturing %q: %w", title, err)
	}

	return &StubRef{
		Slug:           slug,
		Title:          title,
		Path:           res.Path,
		CapturedDuring: origin,
		Digest:         res.Digest,
	}, nil
}
