// Package prompts implements MCP prompt handlers for the breakdown workflow.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/polly/internal/config"
	"github.com/HendryAvila/polly/internal/skills"
)

// StartPrompt handles the polly-start MCP prompt.
// It opens a session: explore the project, then guide the user through
// identification, discovery, breakdown and prompt generation.
type StartPrompt struct {
	skills    []skills.Skill
	skillsDir string
}

// NewStartPrompt creates a StartPrompt that advertises the given skills.
func NewStartPrompt(available []skills.Skill, skillsDir string) *StartPrompt {
	return &StartPrompt{skills: available, skillsDir: skillsDir}
}

// Definition returns the MCP prompt definition for registration.
func (p *StartPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("polly-start",
		mcp.WithPromptDescription(
			"Start a feature breakdown session. Explores the project, summarizes what "+
				"is already defined and guides you from a feature idea to incremental coding prompts.",
		),
		mcp.WithArgument("idea",
			mcp.ArgumentDescription("Optional: the application or feature you want to work on"),
		),
	)
}

// Handle processes the polly-start prompt request.
func (p *StartPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	projectRoot, err := config.FindProjectRootFromCwd()
	if err != nil {
		return nil, fmt.Errorf("finding project root: %w", err)
	}

	idea := ""
	if args := req.Params.Arguments; args != nil {
		idea = strings.TrimSpace(args["idea"])
	}

	return &mcp.GetPromptResult{
		Description: "Start feature breakdown",
		Messages: []mcp.PromptMessage{
			{
				Role:    mcp.RoleUser,
				Content: mcp.NewTextContent(p.text(projectRoot, idea)),
			},
		},
	}, nil
}

func (p *StartPrompt) text(projectRoot, idea string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Help me break features of the project in `%s` into incremental coding prompts.\n\n", projectRoot)

	sb.WriteString("## First\n\n")
	sb.WriteString("1. Run `polly_resolve` to see which features exist and where each one stands\n")
	sb.WriteString("2. Summarize what you found, or tell me this is a new project\n")
	sb.WriteString("3. Suggest what to do next, but let me choose\n\n")

	if idea != "" {
		fmt.Fprintf(&sb, "What I want to work on: %s\n\n", idea)
	}

	sb.WriteString("## Workflow\n\n")
	sb.WriteString("- **Feature identification**: for a new application, list its features as discrete, " +
		"testable vertical slices\n")
	sb.WriteString("- **Feature discovery**: define one feature with me, then save it with `polly_save_feature`\n")
	sb.WriteString("- **Iteration breakdown**: split a discovered feature into 2-8 increments that each " +
		"deliver user value, check them with `polly_validate_plan`, save them with `polly_save_increments`\n")
	sb.WriteString("- **Prompt generation**: write one prompt per increment, in order, with `polly_save_prompt`\n\n")
	sb.WriteString("If I mention an idea that is a separate feature, park it with `polly_capture` and " +
		"return to the current discussion.\n\n")

	sb.WriteString("## Skills\n\n")
	if p.skillsDir != "" && len(p.skills) > 0 {
		fmt.Fprintf(&sb, "Detailed instructions live in `%s`. Read `<skill>/%s` before starting a phase.\n\n",
			p.skillsDir, skills.FileName)
	}
	sb.WriteString(skills.Format(p.skills))
	sb.WriteString("\n\nBefore using any tool, tell me what you're about to do.")
	return sb.String()
}
