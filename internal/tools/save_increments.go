package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/polly/internal/artifacts"
	"github.com/HendryAvila/polly/internal/workflow"
)

// SaveIncrementsTool handles the polly_save_increments MCP tool.
// Plans with blocking violations are never written.
type SaveIncrementsTool struct {
	engine *workflow.Engine
}

// NewSaveIncrementsTool creates a SaveIncrementsTool.
func NewSaveIncrementsTool(engine *workflow.Engine) *SaveIncrementsTool {
	return &SaveIncrementsTool{engine: engine}
}

// Definition returns the MCP tool definition for registration.
func (t *SaveIncrementsTool) Definition() mcp.Tool {
	return mcp.NewTool("polly_save_increments",
		mcp.WithDescription(
			"Validate and save a feature's increment plan to features/{slug}_increments.md. "+
				"The feature spec must already exist. Plans that break the vertical-slice rules "+
				"are refused with the list of violations; advisories are reported but do not block.",
		),
		mcp.WithString("feature",
			mcp.Required(),
			mcp.Description("Slug of the feature being broken down"),
		),
		mcp.WithString("title",
			mcp.Description("Feature title for the plan heading (default: the spec's title)"),
		),
		mcp.WithString("increments",
			mcp.Required(),
			mcp.Description("JSON array of increments: [{\"index\": 1, \"name\": \"...\", "+
				"\"user_value\": \"...\", \"scope\": \"...\", \"depends_on\": [\"auth\"]}, "+
				"{\"index\": 2, ..., \"depends_on\": [1]}]. depends_on mixes earlier increment "+
				"numbers and feature slugs."),
		),
		mcp.WithBoolean("overwrite",
			mcp.Description("Replace an existing plan (default false)"),
		),
	)
}

// Handle processes the polly_save_increments tool call.
func (t *SaveIncrementsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	feature := strings.TrimSpace(req.GetString("feature", ""))
	if feature == "" {
		return mcp.NewToolResultError("'feature' is required"), nil
	}

	var increments []artifacts.Increment
	if err := decodeArg(req, "increments", &increments); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	projectRoot, err := findProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("finding project root: %w", err)
	}

	plan := &artifacts.IncrementPlan{
		FeatureSlug: feature,
		Title:       strings.TrimSpace(req.GetString("title", "")),
		Increments:  increments,
	}
	saved, err := t.engine.SavePlan(projectRoot, plan, boolArg(req, "overwrite", false))
	if err != nil {
		return toolError(err, "saving increment plan")
	}

	var sb strings.Builder
	writeResult(&sb, "Increment Plan Saved", saved.Result)
	fmt.Fprintf(&sb, "\n**Feature:** `%s`\n**Increments:** %d\n", feature, len(increments))

	if len(saved.Advisories) > 0 {
		sb.WriteString("\n")
		writeViolations(&sb, saved.Advisories)
	}
	writeDangling(&sb, saved.Dangling)

	sb.WriteString("\n## Next Step\n\n")
	sb.WriteString("Generate one implementation prompt per increment with `polly_save_prompt`, " +
		"starting at increment 1. Prompts must be generated in order.\n")
	return mcp.NewToolResultText(sb.String()), nil
}
