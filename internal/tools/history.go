package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/polly/internal/journal"
)

// HistoryTool handles the polly_history MCP tool.
// Registered only when the journal opened.
type HistoryTool struct {
	store *journal.Store
}

// NewHistoryTool creates a HistoryTool.
func NewHistoryTool(store *journal.Store) *HistoryTool {
	return &HistoryTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *HistoryTool) Definition() mcp.Tool {
	return mcp.NewTool("polly_history",
		mcp.WithDescription(
			"Show the most recent documents written in this project, newest first: "+
				"feature specs, plans, prompts and captured ideas. History only: "+
				"use `polly_resolve` to decide what to do next.",
		),
		mcp.WithString("feature",
			mcp.Description("Only show entries for this slug"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum entries to return (default 20)"),
		),
	)
}

// Handle processes the polly_history tool call.
func (t *HistoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectRoot, err := findProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("finding project root: %w", err)
	}

	slug := strings.TrimSpace(req.GetString("feature", ""))
	entries, err := t.store.Recent(projectRoot, slug, intArg(req, "limit", 20))
	if err != nil {
		return nil, fmt.Errorf("reading journal: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("# Recent Activity\n\n")
	if len(entries) == 0 {
		sb.WriteString("No documents written yet.\n")
		return mcp.NewToolResultText(sb.String()), nil
	}
	sb.WriteString("| When | Operation | Kind | Slug | Path |\n")
	sb.WriteString("|------|-----------|------|------|------|\n")
	for _, e := range entries {
		fmt.Fprintf(&sb, "| %s | %s | %s | %s | `%s` |\n", e.CreatedAt, e.Operation, e.Kind, e.Slug, e.Path)
	}
	return mcp.NewToolResultText(sb.String()), nil
}
