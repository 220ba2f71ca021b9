package artifacts

import (
	"path/filepath"
	"testing"
)

// --- Path helpers ---

func TestFeaturePath(t *testing.T) {
	got := FeaturePath("/root", "auth")
	want := filepath.Join("/root", "features", "auth.md")
	if got != want {
		t.Errorf("FeaturePath = %s, want %s", got, want)
	}
}

func TestIncrementsPath(t *testing.T) {
	got := IncrementsPath("/root", "auth")
	want := filepath.Join("/root", "features", "auth_increments.md")
	if got != want {
		t.Errorf("IncrementsPath = %s, want %s", got, want)
	}
}

func TestFutureFeaturePath(t *testing.T) {
	got := FutureFeaturePath("/root", "payments")
	want := filepath.Join("/root", "future-features", "payments.md")
	if got != want {
		t.Errorf("FutureFeaturePath = %s, want %s", got, want)
	}
}

func TestPromptPath(t *testing.T) {
	got := PromptPath("/root", "notifications", 3, "Email digest settings")
	want := filepath.Join("/root", "prompts", "notifications", "increment_03_email-digest-settings.md")
	if got != want {
		t.Errorf("PromptPath = %s, want %s", got, want)
	}
}

func TestPromptGlob(t *testing.T) {
	if got := PromptGlob(1); got != "increment_01_*.md" {
		t.Errorf("PromptGlob(1) = %s, want increment_01_*.md", got)
	}
}

// --- ParsePromptFileName ---

func TestParsePromptFileName(t *testing.T) {
	tests := []struct {
		name      string
		wantIndex int
		wantDesc  string
		wantOK    bool
	}{
		{"increment_01_send-email.md", 1, "send-email", true},
		{"increment_12_x.md", 12, "x", true},
		{"/abs/path/increment_02_list-view.md", 2, "list-view", true},
		{"increment_1_short-index.md", 0, "", false},
		{"increment_00_zero.md", 0, "", false},
		{"increment_03_.md", 0, "", false},
		{"notes.md", 0, "", false},
		{"increment_04_draft.txt", 0, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, desc, ok := ParsePromptFileName(tt.name)
			if ok != tt.wantOK || idx != tt.wantIndex || desc != tt.wantDesc {
				t.Errorf("ParsePromptFileName(%q) = (%d, %q, %v), want (%d, %q, %v)",
					tt.name, idx, desc, ok, tt.wantIndex, tt.wantDesc, tt.wantOK)
			}
		})
	}
}

// --- ClassifyPath ---

func TestClassifyPath(t *testing.T) {
	tests := []struct {
		rel      string
		wantKind Kind
		wantSlug string
		wantOK   bool
	}{
		{"features/auth.md", KindFeature, "auth", true},
		{"features/auth_increments.md", KindIncrements, "auth", true},
		{"future-features/payments.md", KindFutureFeature, "payments", true},
		{"prompts/auth/increment_01_login.md", KindPrompt, "auth", true},
		{"prompts/auth/notes.md", "", "", false},
		{"features/nested/auth.md", "", "", false},
		{"README.md", "", "", false},
		{"features/_increments.md", KindIncrements, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			kind, slug, ok := ClassifyPath(tt.rel)
			if kind != tt.wantKind || slug != tt.wantSlug || ok != tt.wantOK {
				t.Errorf("ClassifyPath(%q) = (%s, %q, %v), want (%s, %q, %v)",
					tt.rel, kind, slug, ok, tt.wantKind, tt.wantSlug, tt.wantOK)
			}
		})
	}
}
