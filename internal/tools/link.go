package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/polly/internal/linker"
	"github.com/HendryAvila/polly/internal/workflow"
)

// LinkTool handles the polly_link MCP tool.
type LinkTool struct {
	engine *workflow.Engine
}

// NewLinkTool creates a LinkTool.
func NewLinkTool(engine *workflow.Engine) *LinkTool {
	return &LinkTool{engine: engine}
}

// Definition returns the MCP tool definition for registration.
func (t *LinkTool) Definition() mcp.Tool {
	return mcp.NewTool("polly_link",
		mcp.WithDescription(
			"Resolve dependency references against the project. Each reference comes back as "+
				"internal (an existing feature spec or stub, with its path), external (a library or "+
				"service), or dangling (written like a feature reference but nothing exists yet). "+
				"Read-only.",
		),
		mcp.WithString("references",
			mcp.Required(),
			mcp.Description("References separated by newlines or commas, e.g. "+
				"'auth, features/billing.md, stripe-api'"),
		),
	)
}

// Handle processes the polly_link tool call.
func (t *LinkTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	refs := linker.SplitRefs(req.GetString("references", ""))
	if len(refs) == 0 {
		return mcp.NewToolResultError("'references' is required: list at least one dependency"), nil
	}

	projectRoot, err := findProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("finding project root: %w", err)
	}

	links := t.engine.Link(projectRoot, refs)

	var sb strings.Builder
	sb.WriteString("# Dependency Links\n\n")
	sb.WriteString("| Reference | Kind | Target |\n")
	sb.WriteString("|-----------|------|--------|\n")
	for _, r := range links {
		target := "-"
		if r.Path != "" {
			target = "`" + r.Path + "`"
		}
		fmt.Fprintf(&sb, "| %s | %s | %s |\n", r.Ref, r.Kind, target)
	}
	writeDangling(&sb, linker.DanglingOnly(links))
	return mcp.NewToolResultText(sb.String()), nil
}
