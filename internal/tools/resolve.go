package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/polly/internal/pipeline"
	"github.com/HendryAvila/polly/internal/workflow"
)

// ResolveTool handles the polly_resolve MCP tool.
// It tells the agent where each feature should resume.
type ResolveTool struct {
	engine *workflow.Engine
}

// NewResolveTool creates a ResolveTool.
func NewResolveTool(engine *workflow.Engine) *ResolveTool {
	return &ResolveTool{engine: engine}
}

// Definition returns the MCP tool definition for registration.
func (t *ResolveTool) Definition() mcp.Tool {
	return mcp.NewTool("polly_resolve",
		mcp.WithDescription(
			"Smart resume: compute the next action for every feature "+
				"(needs_discovery, needs_breakdown, needs_prompts, complete) from what is on disk, "+
				"and suggest which feature to continue. Read-only. "+
				"Use it when the user returns to a project or asks what to do next.",
		),
	)
}

// Handle processes the polly_resolve tool call.
func (t *ResolveTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectRoot, err := findProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("finding project root: %w", err)
	}

	inv, resume := t.engine.Status(projectRoot)

	var sb strings.Builder
	sb.WriteString("# Where Things Stand\n\n")
	if inv.Empty() {
		sb.WriteString("Nothing to resume: the project has no features yet.\n\n")
		sb.WriteString("## Next Step\n\nAsk the user to describe their application or the first feature, " +
			"then run discovery and save it with `polly_save_feature`.\n")
		return mcp.NewToolResultText(sb.String()), nil
	}

	sb.WriteString("| Feature | Next Action | What To Do |\n")
	sb.WriteString("|---------|-------------|------------|\n")
	for _, slug := range resume.Order {
		a := resume.Actions[slug]
		marker := ""
		if slug == resume.Suggested {
			marker = " **(suggested)**"
		}
		fmt.Fprintf(&sb, "| %s%s | %s | %s |\n", slug, marker, a, pipeline.Describe(a))
	}

	fmt.Fprintf(&sb, "\n**Progress:** %d complete, %d need prompts, %d need breakdown, %d need discovery\n",
		resume.Count(pipeline.Complete), resume.Count(pipeline.NeedsPrompts),
		resume.Count(pipeline.NeedsBreakdown), resume.Count(pipeline.NeedsDiscovery))

	sb.WriteString("\n## Next Step\n\n")
	if resume.Suggested == "" {
		sb.WriteString("Every feature is complete. Offer to start a new feature or expand a captured idea.\n")
	} else {
		a := resume.Actions[resume.Suggested]
		fmt.Fprintf(&sb, "Continue with **%s**: %s. %s\n", resume.Suggested, a, nextToolHint(a))
		sb.WriteString("\nOffer the suggestion, but let the user pick a different feature.\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func nextToolHint(a pipeline.NextAction) string {
	switch a {
	case pipeline.NeedsDiscovery:
		return "Run discovery with the user, then call `polly_save_feature`."
	case pipeline.NeedsBreakdown:
		return "Draft 2-8 vertical-slice increments, check them with `polly_validate_plan`, then call `polly_save_increments`."
	case pipeline.NeedsPrompts:
		return "Generate the next prompt with `polly_save_prompt`, in increment order."
	}
	return ""
}
