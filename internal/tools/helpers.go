// Package tools implements the MCP tool handlers of the breakdown workflow.
//
// Each tool receives its dependencies through its struct and exposes
// Definition() for registration and Handle() for calls. Tools are storage
// tools: the agent writes the content, the tool validates, links and saves
// it through the workflow engine.
//
// Errors follow one rule: anything the agent can fix (missing fields,
// existing files, out-of-order prompts, rejected plans) comes back as a
// tool error result; filesystem and encoding failures are Go errors.
package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/polly/internal/capture"
	"github.com/HendryAvila/polly/internal/config"
	"github.com/HendryAvila/polly/internal/linker"
	"github.com/HendryAvila/polly/internal/templates"
	"github.com/HendryAvila/polly/internal/workflow"
)

// findProjectRoot walks up from the working directory looking for an
// existing project. If none is found, returns cwd.
func findProjectRoot() (string, error) {
	return config.FindProjectRootFromCwd()
}

// domainResult turns errors the agent can act on into a tool error result.
// ok is false for everything else, which the caller returns as a Go error.
func domainResult(err error) (*mcp.CallToolResult, bool) {
	var (
		missing   *templates.MissingFieldError
		exists    *templates.ArtifactExistsError
		order     *templates.OutOfOrderError
		dup       *capture.DuplicateSlugError
		rejected  *workflow.PlanRejectedError
		increment *workflow.IncrementNotFoundError
		slug      *workflow.InvalidSlugError
	)
	switch {
	case errors.As(err, &missing):
		return mcp.NewToolResultError(err.Error()), true
	case errors.As(err, &exists):
		return mcp.NewToolResultError(err.Error() +
			"\n\nPass overwrite=true to replace it, or pick another name."), true
	case errors.As(err, &order):
		return mcp.NewToolResultError(err.Error() +
			"\n\nGenerate the earlier prompts first, in increment order."), true
	case errors.As(err, &dup):
		return mcp.NewToolResultError(err.Error() +
			"\n\nThe idea is already captured; expand the existing stub instead."), true
	case errors.As(err, &rejected):
		return mcp.NewToolResultError(err.Error() +
			"\n\nFix the blocking violations and save the plan again."), true
	case errors.As(err, &increment):
		return mcp.NewToolResultError(err.Error()), true
	case errors.As(err, &slug):
		return mcp.NewToolResultError(err.Error()), true
	case errors.Is(err, workflow.ErrFeatureNotFound):
		return mcp.NewToolResultError(err.Error() +
			"\n\nSave the feature spec with `polly_save_feature` first."), true
	case errors.Is(err, workflow.ErrPlanNotFound):
		return mcp.NewToolResultError(err.Error() +
			"\n\nSave the increment plan with `polly_save_increments` first."), true
	}
	return nil, false
}

// toolError returns err as a tool result when the agent can fix it and as
// a Go error otherwise.
func toolError(err error, what string) (*mcp.CallToolResult, error) {
	if res, ok := domainResult(err); ok {
		return res, nil
	}
	return nil, fmt.Errorf("%s: %w", what, err)
}

// splitList splits a newline separated argument into trimmed, non-empty
// items. Leading list markers ("- ", "* ", "1. ") are dropped.
func splitList(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*• ")
		if i := strings.Index(line, ". "); i > 0 && i <= 3 && isDigits(line[:i]) {
			line = line[i+2:]
		}
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// listArg reads a list argument given either as a JSON array or as a
// newline separated string.
func listArg(req mcp.CallToolRequest, key string) []string {
	switch v := req.GetArguments()[key].(type) {
	case []any:
		var out []string
		for _, item := range v {
			if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return v
	case string:
		return splitList(v)
	}
	return nil
}

// decodeArg decodes a structured argument given either as a JSON value or
// as a string holding JSON.
func decodeArg(req mcp.CallToolRequest, key string, into any) error {
	raw, ok := req.GetArguments()[key]
	if !ok || raw == nil {
		return fmt.Errorf("'%s' is required", key)
	}
	var data []byte
	if s, isString := raw.(string); isString {
		data = []byte(s)
	} else {
		var err error
		if data, err = json.Marshal(raw); err != nil {
			return fmt.Errorf("'%s': %w", key, err)
		}
	}
	if err := json.Unmarshal(data, into); err != nil {
		return fmt.Errorf("'%s' is not valid JSON: %w", key, err)
	}
	return nil
}

// writeDangling appends a warnings block for dangling references.
func writeDangling(sb *strings.Builder, dangling []linker.Resolution) {
	if len(dangling) == 0 {
		return
	}
	sb.WriteString("\n## Warnings\n\n")
	for _, d := range dangling {
		fmt.Fprintf(sb, "- `%s` looks like a project feature but none exists. "+
			"Write it with `polly_save_feature` or capture it with `polly_capture`.\n", d.Ref)
	}
}

// writeResult appends the standard "saved" block.
func writeResult(sb *strings.Builder, heading string, res *templates.Result) {
	fmt.Fprintf(sb, "# %s\n\n", heading)
	fmt.Fprintf(sb, "Saved to `%s`", res.Path)
	if res.Overwrote {
		sb.WriteString(" (replaced the previous version)")
	}
	fmt.Fprintf(sb, "\n\nDigest: `%s`\n", res.Digest)
}

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	switch v := req.GetArguments()[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return defaultVal
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}
