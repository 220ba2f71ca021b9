package capture

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/HendryAvila/polly/internal/artifacts"
	"github.com/HendryAvila/polly/internal/templates"
)

func init() {
	// Freeze time for deterministic tests.
	timeNow = func() time.Time {
		return time.Date(2026, 2, 20, 12, 0, 0, 0, time.UTC)
	}
}

func newCapturer(t *testing.T) *Capturer {
	t.Helper()
	r, err := templates.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return New(r)
}

func TestCapture_FreshProject(t *testing.T) {
	root := t.TempDir()

	ref, err := newCapturer(t).Capture(root, Request{Topic: "Payments"})
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}

	want := filepath.Join(root, "future-features", "payments.md")
	if ref.Path != want {
		t.Errorf("Path = %s, want %s", ref.Path, want)
	}
	if ref.CapturedDuring != nil {
		t.Errorf("CapturedDuring = %v, want nil", *ref.CapturedDuring)
	}

	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("stub not written: %v", err)
	}
	if !strings.Contains(string(data), "captured_during: null") {
		t.Error("stub header should record captured_during: null")
	}
	if !strings.Contains(string(data), "**Date Captured**: 2026-02-20 12:00:00") {
		t.Error("stub should carry the capture date")
	}
}

func TestCapture_WithOriginLeavesFeatureUntouched(t *testing.T) {
	root := t.TempDir()
	featurePath := artifacts.FeaturePath(root, "checkout")
	original := []byte("# Feature: Checkout\n\n**Status**: discovered\n")
	if err := artifacts.WriteFileAtomic(featurePath, original, 0o644); err != nil {
		t.Fatal(err)
	}

	ref, err := newCapturer(t).Capture(root, Request{
		Topic:       "Gift Cards",
		Description: "Let customers pay with gift cards.",
		Origin:      "checkout",
	})
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if ref.Slug != "gift-cards" {
		t.Errorf("Slug = %s, want gift-cards", ref.Slug)
	}
	if ref.CapturedDuring == nil || *ref.CapturedDuring != "checkout" {
		t.Errorf("CapturedDuring = %v, want checkout", ref.CapturedDuring)
	}

	after, _ := os.ReadFile(featurePath)
	if string(after) != string(original) {
		t.Error("capturing must not modify the current feature")
	}

	doc := artifacts.ParseDocument(mustRead(t, ref.Path))
	if doc.Header.Origin == nil || doc.Header.Origin.CapturedDuring == nil || *doc.Header.Origin.CapturedDuring != "checkout" {
		t.Errorf("stub header origin = %+v", doc.Header.Origin)
	}
}

func TestCapture_DuplicateSlug(t *testing.T) {
	root := t.TempDir()
	c := newCapturer(t)

	if _, err := c.Capture(root, Request{Topic: "Payments"}); err != nil {
		t.Fatal(err)
	}
	before := mustRead(t, artifacts.FutureFeaturePath(root, "payments"))

	_, err := c.Capture(root, Request{Topic: "payments!", Description: "other"})
	var dup *DuplicateSlugError
	if !errors.As(err, &dup) {
		t.Fatalf("err = %v, want *DuplicateSlugError", err)
	}
	if dup.Slug != "payments" {
		t.Errorf("Slug = %s, want payments", dup.Slug)
	}
	if !errors.Is(err, ErrDuplicateSlug) {
		t.Error("errors.Is(err, ErrDuplicateSlug) should be true")
	}

	after := mustRead(t, artifacts.FutureFeaturePath(root, "payments"))
	if string(before) != string(after) {
		t.Error("existing stub must not be replaced")
	}
}

func TestCapture_EmptyTopic(t *testing.T) {
	if _, err := newCapturer(t).Capture(t.TempDir(), Request{Topic: "  "}); err == nil {
		t.Error("expected error for empty topic")
	}
}

func mustRead(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return data
}
