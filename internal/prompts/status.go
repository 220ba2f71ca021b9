package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// StatusPrompt handles the polly-status MCP prompt.
// It instructs the AI to read and present where every feature stands.
type StatusPrompt struct{}

// NewStatusPrompt creates a StatusPrompt.
func NewStatusPrompt() *StatusPrompt {
	return &StatusPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StatusPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("polly-status",
		mcp.WithPromptDescription(
			"Check where every feature stands: discovered, broken into increments, "+
				"prompts generated, and what to do next.",
		),
	)
}

// Handle processes the polly-status prompt request.
func (p *StatusPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Feature breakdown status",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please run `polly_resolve` and `polly_scan` to check my project.\n\n" +
						"Then:\n" +
						"1. Show every feature with its status and next action in a clear, visual format\n" +
						"2. Point out incomplete work: missing increment plans, missing prompts\n" +
						"3. List captured future features that still need discovery\n" +
						"4. Mention any scan warnings\n" +
						"5. Tell me which feature to continue, and let me pick another one",
				),
			},
		},
	}, nil
}
