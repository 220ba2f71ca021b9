package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/polly/internal/artifacts"
	"github.com/HendryAvila/polly/internal/linker"
	"github.com/HendryAvila/polly/internal/workflow"
)

// SaveFeatureTool handles the polly_save_feature MCP tool.
// It stores the feature spec the agent wrote during discovery.
type SaveFeatureTool struct {
	engine *workflow.Engine
}

// NewSaveFeatureTool creates a SaveFeatureTool.
func NewSaveFeatureTool(engine *workflow.Engine) *SaveFeatureTool {
	return &SaveFeatureTool{engine: engine}
}

// Definition returns the MCP tool definition for registration.
func (t *SaveFeatureTool) Definition() mcp.Tool {
	return mcp.NewTool("polly_save_feature",
		mcp.WithDescription(
			"Save a feature spec to features/{slug}.md after discovery. "+
				"YOU write the content from the conversation; the tool links dependencies "+
				"against the project and warns about references to features that do not exist. "+
				"Refuses to replace an existing spec unless overwrite=true.",
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Feature name, e.g. 'User Authentication'. The slug is derived from it."),
		),
		mcp.WithString("slug",
			mcp.Description("Existing slug when updating a spec whose title changed"),
		),
		mcp.WithString("problem_statement",
			mcp.Required(),
			mcp.Description("What problem the feature solves, 2-3 sentences"),
		),
		mcp.WithString("target_users",
			mcp.Required(),
			mcp.Description("Who uses the feature and why they care"),
		),
		mcp.WithString("key_functionality",
			mcp.Required(),
			mcp.Description("What the feature does, as a markdown list"),
		),
		mcp.WithString("technical_constraints",
			mcp.Required(),
			mcp.Description("Stack, performance, security or compliance constraints"),
		),
		mcp.WithString("dependencies",
			mcp.Description("Other features or external services it depends on, one per line or comma separated"),
		),
		mcp.WithString("expected_behavior",
			mcp.Required(),
			mcp.Description("How the feature behaves from the user's point of view"),
		),
		mcp.WithString("status",
			mcp.Description("Document status: discovered (default), increments-planned, prompts-generated. "+
				"Never lowers the status of an existing spec."),
		),
		mcp.WithBoolean("overwrite",
			mcp.Description("Replace an existing spec (default false)"),
		),
	)
}

// Handle processes the polly_save_feature tool call.
func (t *SaveFeatureTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := strings.TrimSpace(req.GetString("title", ""))
	if title == "" {
		return mcp.NewToolResultError("'title' is required"), nil
	}

	var status artifacts.Status
	if s := strings.TrimSpace(req.GetString("status", "")); s != "" {
		status = artifacts.ParseStatus(s)
		if status == artifacts.StatusUnknown || status == artifacts.StatusStub {
			return mcp.NewToolResultError(fmt.Sprintf(
				"'status' must be one of discovered, increments-planned, prompts-generated (got %q)", s)), nil
		}
	}

	projectRoot, err := findProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("finding project root: %w", err)
	}

	saved, err := t.engine.SaveFeature(projectRoot, workflow.FeatureInput{
		Title:                title,
		Slug:                 strings.TrimSpace(req.GetString("slug", "")),
		Status:               status,
		ProblemStatement:     req.GetString("problem_statement", ""),
		TargetUsers:          req.GetString("target_users", ""),
		KeyFunctionality:     req.GetString("key_functionality", ""),
		TechnicalConstraints: req.GetString("technical_constraints", ""),
		ExpectedBehavior:     req.GetString("expected_behavior", ""),
		Dependencies:         linker.SplitRefs(req.GetString("dependencies", "")),
		Overwrite:            boolArg(req, "overwrite", false),
	})
	if err != nil {
		return toolError(err, "saving feature")
	}

	var sb strings.Builder
	writeResult(&sb, "Feature Saved", saved.Result)
	fmt.Fprintf(&sb, "\n**Slug:** `%s`\n", saved.Slug)

	if len(saved.Links) > 0 {
		sb.WriteString("\n## Dependencies\n\n")
		for _, l := range saved.Links {
			if l.Kind == linker.Internal {
				fmt.Fprintf(&sb, "- %s → `%s`\n", l.Ref, l.Path)
			} else {
				fmt.Fprintf(&sb, "- %s (%s)\n", l.Ref, l.Kind)
			}
		}
	}
	writeDangling(&sb, saved.Dangling)

	sb.WriteString("\n## Next Step\n\n")
	fmt.Fprintf(&sb, "Break `%s` into 2-8 vertical-slice increments. Check the draft with "+
		"`polly_validate_plan`, then save it with `polly_save_increments`.\n", saved.Slug)
	return mcp.NewToolResultText(sb.String()), nil
}
