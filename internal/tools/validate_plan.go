package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/polly/internal/artifacts"
	"github.com/HendryAvila/polly/internal/validator"
	"github.com/HendryAvila/polly/internal/workflow"
)

// ValidatePlanTool handles the polly_validate_plan MCP tool.
// It checks a draft increment plan without writing anything.
type ValidatePlanTool struct {
	engine *workflow.Engine
}

// NewValidatePlanTool creates a ValidatePlanTool.
func NewValidatePlanTool(engine *workflow.Engine) *ValidatePlanTool {
	return &ValidatePlanTool{engine: engine}
}

// Definition returns the MCP tool definition for registration.
func (t *ValidatePlanTool) Definition() mcp.Tool {
	return mcp.NewTool("polly_validate_plan",
		mcp.WithDescription(
			"Check a draft increment plan against the vertical-slice rules before saving it: "+
				"2-8 increments, every increment has user value and scope, dependencies only point "+
				"to earlier increments, indices run 1..N. Also flags (advisory) increments that "+
				"look like infrastructure-only layers. Writes nothing.",
		),
		mcp.WithString("plan",
			mcp.Required(),
			mcp.Description("The plan as JSON: {\"feature\": \"slug\", \"increments\": "+
				"[{\"index\": 1, \"name\": \"...\", \"user_value\": \"...\", \"scope\": \"...\", \"depends_on\": []}]}. "+
				"A saved *_increments.md document is accepted too."),
		),
	)
}

// Handle processes the polly_validate_plan tool call.
func (t *ValidatePlanTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	plan, err := planArg(req, "plan")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	violations := t.engine.Validate(plan)

	var sb strings.Builder
	sb.WriteString("# Plan Check\n\n")
	fmt.Fprintf(&sb, "**Increments:** %d\n\n", len(plan.Increments))
	writeViolations(&sb, violations)

	sb.WriteString("\n## Next Step\n\n")
	if validator.HasBlocking(violations) {
		sb.WriteString("Fix the errors above and check again. `polly_save_increments` will refuse this plan.\n")
	} else {
		sb.WriteString("The plan can be saved with `polly_save_increments`.\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// planArg reads a plan given as JSON (object or string) or as the
// markdown of a saved plan.
func planArg(req mcp.CallToolRequest, key string) (*artifacts.IncrementPlan, error) {
	if s, ok := req.GetArguments()[key].(string); ok {
		trimmed := strings.TrimSpace(s)
		if trimmed == "" {
			return nil, fmt.Errorf("'%s' is required", key)
		}
		if !strings.HasPrefix(trimmed, "{") {
			return artifacts.ParsePlan([]byte(s)), nil
		}
	}
	var plan artifacts.IncrementPlan
	if err := decodeArg(req, key, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// writeViolations lists violations, blocking ones first.
func writeViolations(sb *strings.Builder, violations []validator.Violation) {
	if len(violations) == 0 {
		sb.WriteString("No violations. Every increment is a vertical slice.\n")
		return
	}
	var blocking, advisory []string
	for _, v := range violations {
		if v.Blocking() {
			blocking = append(blocking, v.String())
		} else {
			advisory = append(advisory, v.String())
		}
	}
	if len(blocking) > 0 {
		sb.WriteString("## Errors\n\n")
		for _, s := range blocking {
			fmt.Fprintf(sb, "- %s\n", s)
		}
	}
	if len(advisory) > 0 {
		if len(blocking) > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("## Advisories\n\n")
		for _, s := range advisory {
			fmt.Fprintf(sb, "- %s\n", s)
		}
	}
}
