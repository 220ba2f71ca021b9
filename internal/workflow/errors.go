package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/HendryAvila/polly/internal/artifacts"
	"github.com/HendryAvila/polly/internal/validator"
)

var (
	ErrFeatureNotFound = errors.New("feature spec not found")
	ErrPlanNotFound    = errors.New("increment plan not found")
	ErrPlanRejected    = errors.New("plan has blocking violations")
	ErrInvalidSlug     = errors.New("invalid slug")
)

// InvalidSlugError is returned when a caller-supplied slug is not a
// lowercase hyphenated identifier.
type InvalidSlugError struct {
	Field string
	Slug  string
}

func (e *InvalidSlugError) Error() string {
	return fmt.Sprintf("%s %q is not a valid slug (lowercase letters, digits and single hyphens, e.g. %q)",
		e.Field, e.Slug, artifacts.Slugify(e.Slug))
}

func (e *InvalidSlugError) Is(target error) bool { return target == ErrInvalidSlug }

// checkSlug returns *InvalidSlugError unless slug has slug syntax.
func checkSlug(field, slug string) error {
	if !artifacts.IsSlug(slug) {
		return &InvalidSlugError{Field: field, Slug: slug}
	}
	return nil
}

// PlanRejectedError carries the violations that refused a plan save.
type PlanRejectedError struct {
	Feature    string
	Violations []validator.Violation
}

func (e *PlanRejectedError) Error() string {
	var lines []string
	for _, v := range e.Violations {
		if v.Blocking() {
			lines = append(lines, v.String())
		}
	}
	return fmt.Sprintf("plan for %q rejected:\n%s", e.Feature, strings.Join(lines, "\n"))
}

func (e *PlanRejectedError) Is(target error) bool { return target == ErrPlanRejected }

// IncrementNotFoundError is returned when a prompt is requested for an
// index the saved plan does not contain.
type IncrementNotFoundError struct {
	Feature string
	Index   int
	Total   int
}

func (e *IncrementNotFoundError) Error() string {
	return fmt.Sprintf("increment %d not found in plan for %q (plan has %d increments)", e.Index, e.Feature, e.Total)
}
