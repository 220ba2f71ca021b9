package artifacts

import (
	"reflect"
	"testing"
)

const samplePlan = `---
kind: increments
feature: notifications
title: Notifications
status: increments-planned
increment_count: 3
---
# Increments: Notifications

## Increment 1: Send a single email notification

**User Value**: A user receives an email when someone mentions them.
**Scope**: One hard-coded template, sent synchronously.
**Depends On**: None

## Increment 2: Notification preferences

**User Value**: A user can turn email notifications off.
**Scope**: Settings page toggle
stored per account.
**Depends On**: 1, auth

## Increment 3 - Digest

**User Value**: A user gets one daily summary instead of many emails.
**Scope**: Daily batch job.
**Depends On**: #2

### Notes

Not an increment.
`

func TestParsePlan(t *testing.T) {
	plan := ParsePlan([]byte(samplePlan))

	if plan.FeatureSlug != "notifications" {
		t.Errorf("FeatureSlug = %q, want notifications", plan.FeatureSlug)
	}
	if plan.Title != "Notifications" {
		t.Errorf("Title = %q, want Notifications", plan.Title)
	}
	if len(plan.Increments) != 3 {
		t.Fatalf("got %d increments, want 3", len(plan.Increments))
	}

	first := plan.Increments[0]
	if first.Index != 1 || first.Name != "Send a single email notification" {
		t.Errorf("increment 1 = (%d, %q)", first.Index, first.Name)
	}
	if first.UserValue != "A user receives an email when someone mentions them." {
		t.Errorf("increment 1 user value = %q", first.UserValue)
	}
	if len(first.DependsOn) != 0 {
		t.Errorf("increment 1 depends on = %v, want none", first.DependsOn)
	}

	second := plan.Increments[1]
	if second.Scope != "Settings page toggle\nstored per account." {
		t.Errorf("multi-line scope = %q", second.Scope)
	}
	if !reflect.DeepEqual([]string(second.DependsOn), []string{"1", "auth"}) {
		t.Errorf("increment 2 depends on = %v, want [1 auth]", second.DependsOn)
	}

	third := plan.Increments[2]
	if third.Index != 3 || third.Name != "Digest" {
		t.Errorf("increment 3 = (%d, %q), want (3, Digest)", third.Index, third.Name)
	}
	if !reflect.DeepEqual(third.DependsOn.Increments(), []int{2}) {
		t.Errorf("increment 3 increment deps = %v, want [2]", third.DependsOn.Increments())
	}
}

func TestParsePlan_NoIncrements(t *testing.T) {
	plan := ParsePlan([]byte("# Increments: Empty\n\n## Overview\n\nNothing yet.\n"))
	if len(plan.Increments) != 0 {
		t.Errorf("got %d increments, want 0", len(plan.Increments))
	}
}

func TestCountIncrements(t *testing.T) {
	if got := CountIncrements([]byte(samplePlan)); got != 3 {
		t.Errorf("CountIncrements = %d, want 3", got)
	}
}

func TestCountIncrements_HeaderFallback(t *testing.T) {
	data := "---\nkind: increments\nfeature: x\nincrement_count: 4\n---\n# Increments: X\n"
	if got := CountIncrements([]byte(data)); got != 4 {
		t.Errorf("CountIncrements = %d, want 4 from header", got)
	}
}

// --- Depends On ---

func TestParseDependsOn(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"None", nil},
		{"none.", nil},
		{"_None_", nil},
		{"-", nil},
		{"n/a", nil},
		{"", nil},
		{"1", []string{"1"}},
		{"1, 2", []string{"1", "2"}},
		{"`auth`, stripe-api", []string{"auth", "stripe-api"}},
		{"1,,2", []string{"1", "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseDependsOn(tt.input)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual([]string(got), tt.want) {
				t.Errorf("ParseDependsOn(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatDependsOn(t *testing.T) {
	if got := FormatDependsOn(nil); got != "None" {
		t.Errorf("FormatDependsOn(nil) = %q, want None", got)
	}
	if got := FormatDependsOn(DependencyList{"1", "auth"}); got != "1, auth" {
		t.Errorf("FormatDependsOn = %q, want %q", got, "1, auth")
	}
}

func TestDependsOn_RoundTrip(t *testing.T) {
	deps := DependencyList{"1", "3", "billing"}
	got := ParseDependsOn(FormatDependsOn(deps))
	if !reflect.DeepEqual(got, deps) {
		t.Errorf("round trip = %v, want %v", got, deps)
	}
}
