package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/polly/internal/capture"
	"github.com/HendryAvila/polly/internal/workflow"
)

// CaptureTool handles the polly_capture MCP tool.
// It parks an idea that came up mid-discussion as a future-feature stub.
type CaptureTool struct {
	engine *workflow.Engine
}

// NewCaptureTool creates a CaptureTool.
func NewCaptureTool(engine *workflow.Engine) *CaptureTool {
	return &CaptureTool{engine: engine}
}

// Definition returns the MCP tool definition for registration.
func (t *CaptureTool) Definition() mcp.Tool {
	return mcp.NewTool("polly_capture",
		mcp.WithDescription(
			"Capture scope creep: save an idea that came up while discussing another feature as a "+
				"stub in future-features/{slug}.md, so the current discussion stays focused. "+
				"Use it when the user mentions something that is clearly a separate feature. "+
				"Never overwrites an existing stub.",
		),
		mcp.WithString("topic",
			mcp.Required(),
			mcp.Description("Short name of the idea, e.g. 'Export to CSV'"),
		),
		mcp.WithString("description",
			mcp.Description("One or two sentences on what the idea is (default: the topic)"),
		),
		mcp.WithString("captured_during",
			mcp.Description("Slug of the feature being discussed when the idea came up; omit if none"),
		),
		mcp.WithString("notes",
			mcp.Description("Anything else worth remembering"),
		),
	)
}

// Handle processes the polly_capture tool call.
func (t *CaptureTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	topic := strings.TrimSpace(req.GetString("topic", ""))
	if topic == "" {
		return mcp.NewToolResultError("'topic' is required: name the idea to capture"), nil
	}

	projectRoot, err := findProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("finding project root: %w", err)
	}

	ref, err := t.engine.CaptureRequest(projectRoot, capture.Request{
		Topic:       topic,
		Description: req.GetString("description", ""),
		Notes:       req.GetString("notes", ""),
		Origin:      req.GetString("captured_during", ""),
	})
	if err != nil {
		return toolError(err, "capturing idea")
	}

	var sb strings.Builder
	sb.WriteString("# Idea Captured\n\n")
	fmt.Fprintf(&sb, "Saved to `%s`\n\n", ref.Path)
	fmt.Fprintf(&sb, "**Slug:** `%s`\n", ref.Slug)
	if ref.CapturedDuring != nil {
		fmt.Fprintf(&sb, "**Captured during:** `%s`\n", *ref.CapturedDuring)
	}
	sb.WriteString("\n## Next Step\n\nTell the user the idea is parked and return to the current discussion. " +
		"It shows up as needs_discovery in `polly_resolve`.\n")
	return mcp.NewToolResultText(sb.String()), nil
}
