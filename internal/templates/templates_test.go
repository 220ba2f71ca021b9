package templates

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/HendryAvila/polly/internal/artifacts"
)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return r
}

func featureFields() Fields {
	return Fields{
		"title":                 "Notifications",
		"slug":                  "notifications",
		"status":                "discovered",
		"created":               "2026-02-20",
		"problem_statement":     "Users miss important events.",
		"target_users":          "Everyone with an account.",
		"key_functionality":     "Email and in-app alerts.",
		"technical_constraints": "Must use the existing mail relay.",
		"dependencies":          []string{"auth", "stripe-api"},
		"expected_behavior":     "A mention triggers an email within a minute.",
	}
}

func promptFields(index, total int) Fields {
	return Fields{
		"feature_slug":          "notifications",
		"title":                 "Send a single email",
		"increment_index":       index,
		"increment_total":       total,
		"generated_at":          "2026-02-20T12:00:00Z",
		"overview":              "Send one email when a user is mentioned.",
		"included":              []string{"Mention detection", "Email send"},
		"excluded":              []string{"Preferences"},
		"previous_increments":   []string{"None (first increment)"},
		"existing_features":     []string{"auth"},
		"external_dependencies": []string{},
		"user_story":            "As a user I want to know when I'm mentioned.",
		"acceptance_criteria":   []string{"Email sent", "Email has link", "No email for self-mentions"},
		"technical_constraints": "Synchronous send is fine for now.",
		"testing_strategy":      "Unit test the mention parser; integration test the mailer.",
		"edge_cases":            []string{"User has no email address"},
	}
}

// --- NewRenderer ---

func TestNewRenderer_Succeeds(t *testing.T) {
	r := newRenderer(t)
	for kind := range layouts {
		if r.templates[kind] == nil {
			t.Errorf("no template parsed for %s", kind)
		}
	}
}

// --- Render: Feature ---

func TestRender_Feature(t *testing.T) {
	out, err := newRenderer(t).Render(artifacts.KindFeature, featureFields())
	if err != nil {
		t.Fatalf("Render(feature): %v", err)
	}
	result := string(out)

	checks := []string{
		"---\nkind: feature\nslug: notifications\n",
		"dependencies:\n  - auth\n  - stripe-api\n",
		"# Feature: Notifications",
		"**Status**: discovered",
		"## Problem Statement\n\nUsers miss important events.",
		"## Target Users",
		"## Key Functionality",
		"## Technical Constraints",
		"## Dependencies\n\n- auth\n- stripe-api",
		"## Expected Behavior",
	}
	for _, check := range checks {
		if !strings.Contains(result, check) {
			t.Errorf("feature output missing: %q", check)
		}
	}

	// The rendered document must parse back to the same identity.
	doc := artifacts.ParseDocument(out)
	if doc.Header.Slug != "notifications" || doc.Status != artifacts.StatusDiscovered || doc.Title != "Notifications" {
		t.Errorf("parsed back = slug %q status %s title %q", doc.Header.Slug, doc.Status, doc.Title)
	}
}

func TestRender_Feature_EmptyDependencies(t *testing.T) {
	f := featureFields()
	f["dependencies"] = []string{}

	out, err := newRenderer(t).Render(artifacts.KindFeature, f)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(string(out), "## Dependencies\n\n- None") {
		t.Error("empty dependencies should render as None")
	}
	if strings.Contains(string(out), "dependencies:") {
		t.Error("empty dependencies should be omitted from the header")
	}
}

// --- Render: Increments ---

func TestRender_Increments_RoundTrip(t *testing.T) {
	incs := []artifacts.Increment{
		{Index: 1, Name: "Send one email", UserValue: "Users learn about mentions", Scope: "One template"},
		{Index: 2, Name: "Preferences", UserValue: "Users can opt out", Scope: "Settings toggle", DependsOn: artifacts.DependencyList{"1", "auth"}},
	}
	out, err := newRenderer(t).Render(artifacts.KindIncrements, Fields{
		"feature":    "notifications",
		"title":      "Notifications",
		"increments": incs,
		"created":    "2026-02-20",
	})
	if err != nil {
		t.Fatalf("Render(increments): %v", err)
	}

	if !strings.Contains(string(out), "increment_count: 2") {
		t.Error("header should carry increment_count")
	}

	plan := artifacts.ParsePlan(out)
	if plan.FeatureSlug != "notifications" {
		t.Errorf("FeatureSlug = %q", plan.FeatureSlug)
	}
	if len(plan.Increments) != 2 {
		t.Fatalf("parsed %d increments, want 2", len(plan.Increments))
	}
	for i := range incs {
		got, want := plan.Increments[i], incs[i]
		if got.Index != want.Index || got.Name != want.Name || got.UserValue != want.UserValue || got.Scope != want.Scope {
			t.Errorf("increment %d = %+v, want %+v", i+1, got, want)
		}
	}
	if strings.Join(plan.Increments[1].DependsOn, ",") != "1,auth" {
		t.Errorf("DependsOn = %v", plan.Increments[1].DependsOn)
	}
}

func TestRender_Increments_AcceptsDecodedJSON(t *testing.T) {
	_, err := newRenderer(t).Render(artifacts.KindIncrements, Fields{
		"feature": "n",
		"title":   "N",
		"increments": []any{
			map[string]any{"index": float64(1), "name": "a", "user_value": "v", "scope": "s"},
			map[string]any{"index": float64(2), "name": "b", "user_value": "v", "scope": "s", "depends_on": []any{float64(1)}},
		},
		"created": "2026-02-20",
	})
	if err != nil {
		t.Fatalf("Render with decoded JSON increments: %v", err)
	}
}

// --- Render: Future feature ---

func TestRender_FutureFeature_NullOrigin(t *testing.T) {
	out, err := newRenderer(t).Render(artifacts.KindFutureFeature, Fields{
		"title":       "Payments",
		"slug":        "payments",
		"description": "Take card payments.",
		"captured_at": "2026-02-20 12:00:00",
	})
	if err != nil {
		t.Fatalf("Render(future-feature): %v", err)
	}
	result := string(out)

	for _, check := range []string{
		"origin:\n  captured_during: null\n",
		"status: stub",
		"# Future Feature: Payments",
		"captured outside any feature discussion",
		"**Date Captured**: 2026-02-20 12:00:00",
		"No additional notes.",
	} {
		if !strings.Contains(result, check) {
			t.Errorf("future-feature output missing: %q", check)
		}
	}

	doc := artifacts.ParseDocument(out)
	if doc.Status != artifacts.StatusStub {
		t.Errorf("Status = %s, want stub", doc.Status)
	}
	if doc.Header.Origin == nil || doc.Header.Origin.CapturedDuring != nil {
		t.Errorf("Origin = %+v, want captured_during null", doc.Header.Origin)
	}
}

func TestRender_FutureFeature_WithOrigin(t *testing.T) {
	out, err := newRenderer(t).Render(artifacts.KindFutureFeature, Fields{
		"title":           "Payments",
		"slug":            "payments",
		"description":     "Take card payments.",
		"captured_at":     "2026-02-20 12:00:00",
		"captured_during": "checkout",
		"notes":           "Came up while discussing the cart.",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	doc := artifacts.ParseDocument(out)
	if doc.Header.Origin == nil || doc.Header.Origin.CapturedDuring == nil || *doc.Header.Origin.CapturedDuring != "checkout" {
		t.Errorf("Origin = %+v, want captured_during checkout", doc.Header.Origin)
	}
	if !strings.Contains(string(out), "discovery phase for: **checkout**") {
		t.Error("missing context line")
	}
}

// --- Render: Prompt ---

func TestRender_Prompt_SectionOrder(t *testing.T) {
	out, err := newRenderer(t).Render(artifacts.KindPrompt, promptFields(1, 4))
	if err != nil {
		t.Fatalf("Render(prompt): %v", err)
	}
	result := string(out)

	order := []string{
		"## Overview",
		"## Scope of This Increment",
		"### What's Included",
		"### What's NOT Included",
		"## Dependencies",
		"### Previous Increments",
		"### Existing Features",
		"### External Dependencies",
		"## User Value",
		"### User Story",
		"## Acceptance Criteria",
		"## Technical Constraints",
		"## Testing Strategy",
		"## Edge Cases",
		"Increment 1 of 4",
	}
	last := -1
	for _, heading := range order {
		i := strings.Index(result, heading)
		if i < 0 {
			t.Errorf("prompt output missing %q", heading)
			continue
		}
		if i < last {
			t.Errorf("%q is out of order", heading)
		}
		last = i
	}

	if !strings.Contains(result, "- [ ] Email sent") {
		t.Error("acceptance criteria should render as a checklist")
	}
	if !strings.Contains(result, "### External Dependencies\n\n- None") {
		t.Error("empty external dependencies should render as None")
	}
	if !strings.Contains(result, "*Generated 2026-02-20T12:00:00Z") {
		t.Error("footer should carry the generation timestamp")
	}
}

// --- Missing fields ---

func TestRender_MissingFields(t *testing.T) {
	tests := []struct {
		name        string
		kind        artifacts.Kind
		fields      Fields
		wantField   string
		wantSection string
	}{
		{
			name:        "feature without problem statement",
			kind:        artifacts.KindFeature,
			fields:      without(featureFields(), "problem_statement"),
			wantField:   "problem_statement",
			wantSection: "Problem Statement",
		},
		{
			name:        "feature with blank expected behaviour",
			kind:        artifacts.KindFeature,
			fields:      with(featureFields(), "expected_behavior", "   "),
			wantField:   "expected_behavior",
			wantSection: "Expected Behavior",
		},
		{
			name:        "feature with unknown status",
			kind:        artifacts.KindFeature,
			fields:      with(featureFields(), "status", "in progress"),
			wantField:   "status",
			wantSection: "Status",
		},
		{
			name:        "prompt with two acceptance criteria",
			kind:        artifacts.KindPrompt,
			fields:      with(promptFields(1, 2), "acceptance_criteria", []string{"a", "b"}),
			wantField:   "acceptance_criteria",
			wantSection: "Acceptance Criteria",
		},
		{
			name:        "prompt with zero index",
			kind:        artifacts.KindPrompt,
			fields:      with(promptFields(1, 2), "increment_index", 0),
			wantField:   "increment_index",
			wantSection: "Header",
		},
		{
			name:        "prompt with no edge cases",
			kind:        artifacts.KindPrompt,
			fields:      without(promptFields(1, 2), "edge_cases"),
			wantField:   "edge_cases",
			wantSection: "Edge Cases",
		},
		{
			name:        "feature without dependencies",
			kind:        artifacts.KindFeature,
			fields:      without(featureFields(), "dependencies"),
			wantField:   "dependencies",
			wantSection: "Dependencies",
		},
		{
			name:        "prompt without exclusions",
			kind:        artifacts.KindPrompt,
			fields:      without(promptFields(1, 2), "excluded"),
			wantField:   "excluded",
			wantSection: "What's NOT Included",
		},
		{
			name:        "prompt without previous increments",
			kind:        artifacts.KindPrompt,
			fields:      without(promptFields(1, 2), "previous_increments"),
			wantField:   "previous_increments",
			wantSection: "Previous Increments",
		},
		{
			name:        "prompt without existing features",
			kind:        artifacts.KindPrompt,
			fields:      without(promptFields(1, 2), "existing_features"),
			wantField:   "existing_features",
			wantSection: "Existing Features",
		},
		{
			name:        "prompt with nil external dependencies",
			kind:        artifacts.KindPrompt,
			fields:      with(promptFields(1, 2), "external_dependencies", nil),
			wantField:   "external_dependencies",
			wantSection: "External Dependencies",
		},
		{
			name:        "prompt index past total",
			kind:        artifacts.KindPrompt,
			fields:      promptFields(5, 2),
			wantField:   "increment_index",
			wantSection: "Header",
		},
	}

	r := newRenderer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Render(tt.kind, tt.fields)
			var mf *MissingFieldError
			if !errors.As(err, &mf) {
				t.Fatalf("err = %v, want *MissingFieldError", err)
			}
			if mf.Field != tt.wantField || mf.Section != tt.wantSection {
				t.Errorf("MissingFieldError{Field: %q, Section: %q}, want {%q, %q}", mf.Field, mf.Section, tt.wantField, tt.wantSection)
			}
			if !errors.Is(err, ErrMissingField) {
				t.Error("errors.Is(err, ErrMissingField) should be true")
			}
		})
	}
}

func TestRender_UnknownKind(t *testing.T) {
	_, err := newRenderer(t).Render("changelog", Fields{})
	if !errors.Is(err, ErrUnknownKind) {
		t.Errorf("err = %v, want ErrUnknownKind", err)
	}
}

// --- Purity ---

func TestRender_Deterministic(t *testing.T) {
	r := newRenderer(t)
	first, err := r.Render(artifacts.KindPrompt, promptFields(1, 3))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := r.Render(artifacts.KindPrompt, promptFields(1, 3))
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("render %d differs from the first", i)
		}
	}
}

// --- Write ---

func TestWrite_OverwriteGuard(t *testing.T) {
	r := newRenderer(t)
	path := filepath.Join(t.TempDir(), "features", "notifications.md")

	res, err := r.Write(artifacts.KindFeature, featureFields(), path, false)
	if err != nil {
		t.Fatalf("first Write: %v", err)
	}
	if res.Overwrote {
		t.Error("first write should not report Overwrote")
	}
	if len(res.Digest) != 64 {
		t.Errorf("Digest = %q, want 64 hex chars", res.Digest)
	}

	_, err = r.Write(artifacts.KindFeature, featureFields(), path, false)
	var exists *ArtifactExistsError
	if !errors.As(err, &exists) {
		t.Fatalf("second Write err = %v, want *ArtifactExistsError", err)
	}
	if !errors.Is(err, ErrArtifactExists) {
		t.Error("errors.Is(err, ErrArtifactExists) should be true")
	}

	res2, err := r.Write(artifacts.KindFeature, featureFields(), path, true)
	if err != nil {
		t.Fatalf("overwrite Write: %v", err)
	}
	if !res2.Overwrote {
		t.Error("overwrite should report Overwrote")
	}

	onDisk, _ := os.ReadFile(path)
	fresh, _ := r.Render(artifacts.KindFeature, featureFields())
	if !bytes.Equal(onDisk, fresh) {
		t.Error("overwritten file should be byte-identical to a fresh render")
	}
	if res2.Digest != res.Digest {
		t.Error("identical content should have identical digests")
	}
}

func TestWrite_PromptOrder(t *testing.T) {
	r := newRenderer(t)
	dir := filepath.Join(t.TempDir(), "prompts", "notifications")

	second := filepath.Join(dir, artifacts.PromptFileName(2, "Preferences"))
	_, err := r.Write(artifacts.KindPrompt, promptFields(2, 4), second, false)
	var ooo *OutOfOrderError
	if !errors.As(err, &ooo) {
		t.Fatalf("err = %v, want *OutOfOrderError", err)
	}
	if ooo.Index != 2 || ooo.Missing != 1 {
		t.Errorf("OutOfOrderError = %+v", ooo)
	}
	if artifacts.Exists(second) {
		t.Error("refused prompt must not be written")
	}

	first := filepath.Join(dir, artifacts.PromptFileName(1, "Send a single email"))
	if _, err := r.Write(artifacts.KindPrompt, promptFields(1, 4), first, false); err != nil {
		t.Fatalf("Write prompt 1: %v", err)
	}
	if _, err := r.Write(artifacts.KindPrompt, promptFields(2, 4), second, false); err != nil {
		t.Fatalf("Write prompt 2 after prompt 1: %v", err)
	}
}

func TestWrite_MissingFieldWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "features", "x.md")
	_, err := newRenderer(t).Write(artifacts.KindFeature, without(featureFields(), "title"), path, false)
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("err = %v, want ErrMissingField", err)
	}
	if artifacts.Exists(path) {
		t.Error("nothing should be written when rendering fails")
	}
}

func TestRequiredFields(t *testing.T) {
	got := RequiredFields(artifacts.KindFutureFeature)
	want := "title,slug,description,captured_at"
	if strings.Join(got, ",") != want {
		t.Errorf("RequiredFields(future-feature) = %v, want %s", got, want)
	}
}

func with(f Fields, key string, value any) Fields {
	f[key] = value
	return f
}

func without(f Fields, key string) Fields {
	delete(f, key)
	return f
}
