package workflow

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/HendryAvila/polly/internal/artifacts"
	"github.com/HendryAvila/polly/internal/linker"
	"github.com/HendryAvila/polly/internal/templates"
	"github.com/HendryAvila/polly/internal/validator"
)

// --- Feature specs ---

// FeatureInput is the content of a feature spec.
type FeatureInput struct {
	Title string
	// Slug is the existing slug when updating a spec. Empty derives it
	// from Title.
	Slug                 string
	Status               artifacts.Status
	ProblemStatement     string
	TargetUsers          string
	KeyFunctionality     string
	TechnicalConstraints string
	ExpectedBehavior     string
	Dependencies         []string
	Overwrite            bool
}

// FeatureSaved is the outcome of SaveFeature.
type FeatureSaved struct {
	Slug     string              `json:"slug"`
	Result   *templates.Result   `json:"result"`
	Links    []linker.Resolution `json:"links"`
	Dangling []linker.Resolution `json:"dangling,omitempty"`
}

// SaveFeature renders features/{slug}.md. Dependencies are linked against
// the project and dangling ones are returned as warnings. Rewriting an
// existing spec keeps its created date and never lowers its status.
func (e *Engine) SaveFeature(root string, in FeatureInput) (*FeatureSaved, error) {
	slug := artifacts.StableSlug(in.Slug, in.Title)
	if err := checkSlug("slug", slug); err != nil {
		return nil, err
	}
	target := artifacts.FeaturePath(root, slug)

	status := in.Status
	if status == "" {
		status = artifacts.StatusDiscovered
	}
	created := timeNow().Format(time.DateOnly)

	if data, err := os.ReadFile(target); err == nil {
		existing := artifacts.ParseDocument(data)
		if existing.Classifiable() {
			status = artifacts.Advance(existing.Status, status)
		}
		if existing.Header.Created != "" {
			created = existing.Header.Created
		}
	}

	links := e.Link(root, in.Dependencies)

	res, err := e.Render(artifacts.KindFeature, templates.Fields{
		"title":                 in.Title,
		"slug":                  slug,
		"status":                string(status),
		"created":               created,
		"problem_statement":     in.ProblemStatement,
		"target_users":          in.TargetUsers,
		"key_functionality":     in.KeyFunctionality,
		"technical_constraints": in.TechnicalConstraints,
		"dependencies":          orEmpty(in.Dependencies),
		"expected_behavior":     in.ExpectedBehavior,
	}, target, in.Overwrite)
	if err != nil {
		return nil, err
	}

	return &FeatureSaved{
		Slug:     slug,
		Result:   res,
		Links:    links,
		Dangling: linker.DanglingOnly(links),
	}, nil
}

// --- Increment plans ---

// PlanSaved is the outcome of SavePlan.
type PlanSaved struct {
	Result     *templates.Result     `json:"result"`
	Advisories []validator.Violation `json:"advisories,omitempty"`
	Dangling   []linker.Resolution   `json:"dangling,omitempty"`
}

// SavePlan validates plan and renders features/{slug}_increments.md. A
// plan with blocking violations is refused with *PlanRejectedError;
// advisory violations are returned with the result.
func (e *Engine) SavePlan(root string, plan *artifacts.IncrementPlan, overwrite bool) (*PlanSaved, error) {
	if plan == nil || strings.TrimSpace(plan.FeatureSlug) == "" {
		return nil, fmt.Errorf("%w: plan names no feature", ErrFeatureNotFound)
	}
	slug := plan.FeatureSlug
	if err := checkSlug("feature", slug); err != nil {
		return nil, err
	}

	specData, err := os.ReadFile(artifacts.FeaturePath(root, slug))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFeatureNotFound, slug)
		}
		return nil, fmt.Errorf("reading feature %s: %w", slug, err)
	}

	violations := e.Validate(plan)
	if validator.HasBlocking(violations) {
		return nil, &PlanRejectedError{Feature: slug, Violations: violations}
	}

	title := strings.TrimSpace(plan.Title)
	if title == "" {
		title = artifacts.ParseDocument(specData).Title
	}
	if title == "" {
		title = slug
	}

	var featureRefs []string
	for _, inc := range plan.Increments {
		featureRefs = append(featureRefs, inc.DependsOn.Features()...)
	}
	links := e.Link(root, featureRefs)

	res, err := e.Render(artifacts.KindIncrements, templates.Fields{
		"feature":    slug,
		"title":      title,
		"increments": plan.Increments,
		"created":    timeNow().Format(time.DateOnly),
	}, artifacts.IncrementsPath(root, slug), overwrite)
	if err != nil {
		return nil, err
	}

	return &PlanSaved{
		Result:     res,
		Advisories: validator.Advisories(violations),
		Dangling:   linker.DanglingOnly(links),
	}, nil
}

// LoadPlan reads the saved plan of a feature.
func LoadPlan(root, slug string) (*artifacts.IncrementPlan, error) {
	if err := checkSlug("feature", slug); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(artifacts.IncrementsPath(root, slug))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrPlanNotFound, slug)
		}
		return nil, fmt.Errorf("reading plan for %s: %w", slug, err)
	}
	plan := artifacts.ParsePlan(data)
	if plan.FeatureSlug == "" {
		plan.FeatureSlug = slug
	}
	return plan, nil
}

// --- Prompts ---

// PromptInput is the content of one increment's prompt. Title, totals and
// previous-increment links come from the saved plan.
type PromptInput struct {
	Feature              string
	Index                int
	Overview             string
	Included             []string
	Excluded             []string
	ExistingFeatures     []string
	ExternalDependencies []string
	UserStory            string
	AcceptanceCriteria   []string
	TechnicalConstraints string
	TestingStrategy      string
	EdgeCases            []string
	Overwrite            bool
}

// PromptSaved is the outcome of SavePrompt.
type PromptSaved struct {
	Result   *templates.Result   `json:"result"`
	Index    int                 `json:"increment"`
	Total    int                 `json:"increment_total"`
	Dangling []linker.Resolution `json:"dangling,omitempty"`
}

// firstIncrementNote fills Previous Increments for increment 1.
const firstIncrementNote = "None (first increment)"

// SavePrompt renders prompts/{feature}/increment_NN_{name}.md for one
// planned increment. Prompts must be generated in index order.
func (e *Engine) SavePrompt(root string, in PromptInput) (*PromptSaved, error) {
	plan, err := LoadPlan(root, in.Feature)
	if err != nil {
		return nil, err
	}

	var inc *artifacts.Increment
	for i := range plan.Increments {
		if plan.Increments[i].Index == in.Index {
			inc = &plan.Increments[i]
			break
		}
	}
	if inc == nil {
		return nil, &IncrementNotFoundError{Feature: in.Feature, Index: in.Index, Total: len(plan.Increments)}
	}

	promptDir := artifacts.PromptDir(root, in.Feature)

	previous := []string{firstIncrementNote}
	if in.Index > 1 {
		previous = previousIncrements(promptDir, plan, in.Index)
	}

	existing, external := in.ExistingFeatures, in.ExternalDependencies
	var dangling []linker.Resolution
	if len(existing) == 0 && len(external) == 0 {
		existing, external, dangling = e.splitDependencies(root, inc.DependsOn.Features())
	}

	res, err := e.Render(artifacts.KindPrompt, templates.Fields{
		"feature_slug":          in.Feature,
		"title":                 inc.Name,
		"increment_index":       in.Index,
		"increment_total":       len(plan.Increments),
		"generated_at":          timeNow().UTC().Format(time.RFC3339),
		"overview":              in.Overview,
		"included":              in.Included,
		"excluded":              orEmpty(in.Excluded),
		"previous_increments":   previous,
		"existing_features":     orEmpty(existing),
		"external_dependencies": orEmpty(external),
		"user_story":            in.UserStory,
		"acceptance_criteria":   in.AcceptanceCriteria,
		"technical_constraints": in.TechnicalConstraints,
		"testing_strategy":      in.TestingStrategy,
		"edge_cases":            in.EdgeCases,
	}, artifacts.PromptPath(root, in.Feature, in.Index, inc.Name), in.Overwrite)
	if err != nil {
		return nil, err
	}

	return &PromptSaved{Result: res, Index: in.Index, Total: len(plan.Increments), Dangling: dangling}, nil
}

// previousIncrements lists increments 1..index-1, linking each to its
// prompt file when one exists.
func previousIncrements(promptDir string, plan *artifacts.IncrementPlan, index int) []string {
	names := make(map[int]string, len(plan.Increments))
	for _, inc := range plan.Increments {
		names[inc.Index] = inc.Name
	}

	var out []string
	for i := 1; i < index; i++ {
		label := fmt.Sprintf("Increment %d: %s", i, names[i])
		if file := findPrompt(promptDir, i); file != "" {
			label = fmt.Sprintf("[%s](%s)", label, file)
		}
		out = append(out, label)
	}
	return out
}

// findPrompt returns the file name of the prompt for index, or "".
func findPrompt(promptDir string, index int) string {
	matches, err := doublestar.Glob(os.DirFS(promptDir), artifacts.PromptGlob(index))
	if err != nil || len(matches) == 0 {
		return ""
	}
	sort.Strings(matches)
	return matches[0]
}

// splitDependencies links an increment's feature references and sorts them
// into existing features (linked relative to the prompt) and external ones.
func (e *Engine) splitDependencies(root string, refs []string) (existing, external []string, dangling []linker.Resolution) {
	for _, r := range e.Link(root, refs) {
		switch r.Kind {
		case linker.Internal:
			existing = append(existing, fmt.Sprintf("[%s](%s)", r.Slug, path.Join("..", "..", r.Path)))
		case linker.External:
			external = append(external, r.Ref)
		case linker.Dangling:
			external = append(external, r.Ref)
			dangling = append(dangling, r)
		}
	}
	return existing, external, dangling
}

// orEmpty returns items, or an empty list for nil.
func orEmpty(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
