package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/polly/internal/workflow"
)

// SavePromptTool handles the polly_save_prompt MCP tool.
// It writes the implementation prompt of one planned increment.
type SavePromptTool struct {
	engine *workflow.Engine
}

// NewSavePromptTool creates a SavePromptTool.
func NewSavePromptTool(engine *workflow.Engine) *SavePromptTool {
	return &SavePromptTool{engine: engine}
}

// Definition returns the MCP tool definition for registration.
func (t *SavePromptTool) Definition() mcp.Tool {
	return mcp.NewTool("polly_save_prompt",
		mcp.WithDescription(
			"Save the implementation prompt of one increment to "+
				"prompts/{feature}/increment_NN_{name}.md. The increment is looked up in the saved "+
				"plan; its name, total count and links to earlier prompts are filled in for you. "+
				"Prompts must be generated in increment order: increment N needs increment N-1's prompt.",
		),
		mcp.WithString("feature",
			mcp.Required(),
			mcp.Description("Feature slug"),
		),
		mcp.WithNumber("increment",
			mcp.Required(),
			mcp.Description("Increment index (1-based) from the saved plan"),
		),
		mcp.WithString("overview",
			mcp.Required(),
			mcp.Description("What this increment builds and why, 2-4 sentences"),
		),
		mcp.WithString("included",
			mcp.Required(),
			mcp.Description("What's included in this increment, one item per line"),
		),
		mcp.WithString("excluded",
			mcp.Description("What's NOT included (left for later increments), one item per line"),
		),
		mcp.WithString("existing_features",
			mcp.Description("Existing features this increment builds on, one per line. "+
				"Default: derived from the increment's depends_on."),
		),
		mcp.WithString("external_dependencies",
			mcp.Description("Libraries or services needed, one per line. "+
				"Default: derived from the increment's depends_on."),
		),
		mcp.WithString("user_story",
			mcp.Required(),
			mcp.Description("As a <user>, I want <goal>, so that <benefit>"),
		),
		mcp.WithString("acceptance_criteria",
			mcp.Required(),
			mcp.Description("At least 3 testable criteria, one per line"),
		),
		mcp.WithString("technical_constraints",
			mcp.Required(),
			mcp.Description("Constraints the implementation must respect"),
		),
		mcp.WithString("testing_strategy",
			mcp.Required(),
			mcp.Description("How to test this increment"),
		),
		mcp.WithString("edge_cases",
			mcp.Required(),
			mcp.Description("Edge cases to handle, one per line"),
		),
		mcp.WithBoolean("overwrite",
			mcp.Description("Replace an existing prompt (default false)"),
		),
	)
}

// Handle processes the polly_save_prompt tool call.
func (t *SavePromptTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	feature := strings.TrimSpace(req.GetString("feature", ""))
	if feature == "" {
		return mcp.NewToolResultError("'feature' is required"), nil
	}
	index := intArg(req, "increment", 0)
	if index < 1 {
		return mcp.NewToolResultError("'increment' must be a positive increment index"), nil
	}

	projectRoot, err := findProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("finding project root: %w", err)
	}

	saved, err := t.engine.SavePrompt(projectRoot, workflow.PromptInput{
		Feature:              feature,
		Index:                index,
		Overview:             req.GetString("overview", ""),
		Included:             listArg(req, "included"),
		Excluded:             listArg(req, "excluded"),
		ExistingFeatures:     listArg(req, "existing_features"),
		ExternalDependencies: listArg(req, "external_dependencies"),
		UserStory:            req.GetString("user_story", ""),
		AcceptanceCriteria:   listArg(req, "acceptance_criteria"),
		TechnicalConstraints: req.GetString("technical_constraints", ""),
		TestingStrategy:      req.GetString("testing_strategy", ""),
		EdgeCases:            listArg(req, "edge_cases"),
		Overwrite:            boolArg(req, "overwrite", false),
	})
	if err != nil {
		return toolError(err, "saving prompt")
	}

	var sb strings.Builder
	writeResult(&sb, fmt.Sprintf("Prompt Saved: Increment %d of %d", saved.Index, saved.Total), saved.Result)
	writeDangling(&sb, saved.Dangling)

	sb.WriteString("\n## Next Step\n\n")
	if saved.Index < saved.Total {
		fmt.Fprintf(&sb, "Generate the prompt for increment %d with `polly_save_prompt`.\n", saved.Index+1)
	} else {
		fmt.Fprintf(&sb, "That was the last increment of `%s`. "+
			"Run `polly_resolve` to pick the next feature.\n", feature)
	}
	return mcp.NewToolResultText(sb.String()), nil
}
