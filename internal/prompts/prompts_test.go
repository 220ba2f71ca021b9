package prompts

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/polly/internal/skills"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(orig) })
	return dir
}

func promptText(t *testing.T, res *mcp.GetPromptResult) string {
	t.Helper()
	if res == nil || len(res.Messages) == 0 {
		t.Fatal("prompt returned no messages")
	}
	tc, ok := res.Messages[0].Content.(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want mcp.TextContent", res.Messages[0].Content)
	}
	return tc.Text
}

func TestStartPrompt_ListsSkills(t *testing.T) {
	chdirTemp(t)
	p := NewStartPrompt([]skills.Skill{
		{Name: "feature-discovery", Description: "Define one feature in detail"},
	}, "/opt/polly/skills")

	req := mcp.GetPromptRequest{}
	req.Params.Arguments = map[string]string{"idea": "a recipe app"}
	res, err := p.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	text := promptText(t, res)

	for _, want := range []string{
		"polly_resolve",
		"What I want to work on: a recipe app",
		"**feature-discovery**: Define one feature in detail",
		"/opt/polly/skills",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("start prompt missing %q:\n%s", want, text)
		}
	}
}

func TestStartPrompt_NoSkills(t *testing.T) {
	chdirTemp(t)
	res, err := NewStartPrompt(nil, "").Handle(context.Background(), mcp.GetPromptRequest{})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	text := promptText(t, res)
	if !strings.Contains(text, "No skills available.") {
		t.Errorf("expected empty skills note:\n%s", text)
	}
	if strings.Contains(text, "What I want to work on") {
		t.Error("no idea given, none should be quoted")
	}
}

func TestStatusPrompt(t *testing.T) {
	p := NewStatusPrompt()
	if got := p.Definition().Name; got != "polly-status" {
		t.Errorf("Name = %q", got)
	}
	res, err := p.Handle(context.Background(), mcp.GetPromptRequest{})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if text := promptText(t, res); !strings.Contains(text, "polly_resolve") {
		t.Errorf("status prompt should call polly_resolve:\n%s", text)
	}
}
