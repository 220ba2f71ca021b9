package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/polly/internal/inventory"
	"github.com/HendryAvila/polly/internal/workflow"
)

// ScanTool handles the polly_scan MCP tool.
// It lists every feature found on disk with its artifact counts.
type ScanTool struct {
	engine *workflow.Engine
}

// NewScanTool creates a ScanTool.
func NewScanTool(engine *workflow.Engine) *ScanTool {
	return &ScanTool{engine: engine}
}

// Definition returns the MCP tool definition for registration.
func (t *ScanTool) Definition() mcp.Tool {
	return mcp.NewTool("polly_scan",
		mcp.WithDescription(
			"Scan the project and list every feature found in features/, future-features/ "+
				"and prompts/: status, dependencies, increment and prompt counts, and which "+
				"artifacts are missing. Read-only. Call this at the start of a session "+
				"before suggesting what to do next.",
		),
	)
}

// Handle processes the polly_scan tool call.
func (t *ScanTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectRoot, err := findProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("finding project root: %w", err)
	}

	inv := t.engine.Scan(projectRoot)
	return mcp.NewToolResultText(formatInventory(inv)), nil
}

func formatInventory(inv *inventory.Inventory) string {
	var sb strings.Builder
	sb.WriteString("# Project Inventory\n\n")
	fmt.Fprintf(&sb, "**Root:** `%s`\n\n", inv.Root)

	if inv.Empty() {
		sb.WriteString("No features yet. This is a new project: start with feature " +
			"identification or discovery.\n")
	} else {
		sb.WriteString("| Feature | Status | Dependencies | Increments | Prompts | Missing |\n")
		sb.WriteString("|---------|--------|--------------|------------|---------|---------|\n")
		for _, slug := range inv.Slugs() {
			r := inv.Records[slug]
			deps, missing := "-", "-"
			if len(r.Dependencies) > 0 {
				deps = strings.Join(r.Dependencies, ", ")
			}
			if len(r.Missing) > 0 {
				missing = strings.Join(r.Missing, ", ")
			}
			fmt.Fprintf(&sb, "| %s | %s | %s | %d | %d | %s |\n",
				slug, r.Status, deps, r.IncrementCount, r.PromptCount, missing)
		}
	}

	if len(inv.Warnings) > 0 {
		sb.WriteString("\n## Warnings\n\n")
		for _, w := range inv.Warnings {
			fmt.Fprintf(&sb, "- %s\n", w.String())
		}
	}
	return sb.String()
}
