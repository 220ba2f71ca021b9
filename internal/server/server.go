// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates concrete implementations and
// injects them into the tools, prompts and resources that depend on them.
// No business logic lives here, only wiring.
package server

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/server"

	"github.com/HendryAvila/polly/internal/config"
	"github.com/HendryAvila/polly/internal/journal"
	"github.com/HendryAvila/polly/internal/prompts"
	"github.com/HendryAvila/polly/internal/resources"
	"github.com/HendryAvila/polly/internal/skills"
	"github.com/HendryAvila/polly/internal/tools"
	"github.com/HendryAvila/polly/internal/workflow"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools, prompts,
// and resources registered. root is the project the server was started
// in; cfg is its loaded configuration.
//
// The returned cleanup function closes the journal database and must be
// called on shutdown (typically via defer). It is always non-nil and safe
// to call even if the journal is disabled or failed to open.
func New(root string, cfg *config.Config, logger *slog.Logger) (*server.MCPServer, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	// --- Create shared dependencies ---

	engine, err := workflow.New(workflow.WithLogger(logger))
	if err != nil {
		return nil, noop, fmt.Errorf("creating workflow engine: %w", err)
	}

	var available []skills.Skill
	if cfg.SkillsDir != "" {
		available = skills.Load(cfg.SkillsDir, logger)
	}

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"polly",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions(available)),
	)

	// --- Register workflow tools ---

	scanTool := tools.NewScanTool(engine)
	s.AddTool(scanTool.Definition(), scanTool.Handle)

	resolveTool := tools.NewResolveTool(engine)
	s.AddTool(resolveTool.Definition(), resolveTool.Handle)

	saveFeatureTool := tools.NewSaveFeatureTool(engine)
	s.AddTool(saveFeatureTool.Definition(), saveFeatureTool.Handle)

	validatePlanTool := tools.NewValidatePlanTool(engine)
	s.AddTool(validatePlanTool.Definition(), validatePlanTool.Handle)

	saveIncrementsTool := tools.NewSaveIncrementsTool(engine)
	s.AddTool(saveIncrementsTool.Definition(), saveIncrementsTool.Handle)

	savePromptTool := tools.NewSavePromptTool(engine)
	s.AddTool(savePromptTool.Definition(), savePromptTool.Handle)

	linkTool := tools.NewLinkTool(engine)
	s.AddTool(linkTool.Definition(), linkTool.Handle)

	captureTool := tools.NewCaptureTool(engine)
	s.AddTool(captureTool.Definition(), captureTool.Handle)

	// --- Activity journal (optional) ---
	//
	// The journal is an independent subsystem: if it is disabled or fails
	// to open, the workflow tools keep working without history.

	cleanup := noop
	if !cfg.Journal {
		logger.Info("journal disabled by configuration")
	} else if store, jErr := journal.New(journal.Config{DataDir: cfg.DataDir}); jErr != nil {
		logger.Warn("journal disabled", "err", jErr)
	} else {
		cleanup = func() {
			if err := store.Close(); err != nil {
				logger.Warn("journal close", "err", err)
			}
		}
		if bridge := journal.NewBridge(store, root, logger); bridge != nil {
			engine.SetObserver(bridge)
		}

		historyTool := tools.NewHistoryTool(store)
		s.AddTool(historyTool.Definition(), historyTool.Handle)
	}

	// --- Register prompts ---

	startPrompt := prompts.NewStartPrompt(available, cfg.SkillsDir)
	s.AddPrompt(startPrompt.Definition(), startPrompt.Handle)

	statusPrompt := prompts.NewStatusPrompt()
	s.AddPrompt(statusPrompt.Definition(), statusPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(engine, config.NewFileStore())
	s.AddResource(resourceHandler.InventoryResource(), resourceHandler.HandleInventory)
	s.AddResource(resourceHandler.ConfigResource(), resourceHandler.HandleConfig)

	return s, cleanup, nil
}

// noop is a no-op cleanup function used as the default when the journal
// is not open.
func noop() {}

func serverInstructions(available []skills.Skill) string {
	var sb strings.Builder
	sb.WriteString(`You have access to Polly, a feature breakdown MCP server. Polly turns
feature ideas into incremental, vertical-slice coding prompts and keeps
them as markdown documents in the project:

  features/          one spec per feature (features/{slug}.md)
  future-features/   stubs for ideas parked during discussion
  prompts/{slug}/    one coding prompt per increment

## WHEN TO ACTIVATE Polly

Suggest Polly when the user:
- Describes an application and wants to know what features it needs
- Wants to define one feature in detail before coding it
- Asks how to build a feature step by step
- Asks for implementation prompts or an incremental plan

## START OF A SESSION

Call polly_resolve first. It tells you, for every feature on disk, whether
it needs discovery, breakdown, prompts or is complete, and which one to
continue. Summarize it for the user and let them choose. Use polly_scan
when you need the details (dependencies, counts, warnings).

## THE WORKFLOW

1. Feature identification: for a new application, list its features as
   discrete, testable vertical slices. Save each one you discover, or
   capture the ones for later with polly_capture.
2. Feature discovery: ask about the problem, the users, what it does, the
   constraints, dependencies and expected behavior. Save the result with
   polly_save_feature. YOU write the content; the tool links dependencies
   and warns about references to features that do not exist.
3. Iteration breakdown: split the feature into 2-8 increments. Every
   increment delivers value to a user and is testable on its own. Never
   slice by technical layer ("database", "API", "UI"). Check the draft with
   polly_validate_plan, then save it with polly_save_increments, which
   refuses plans with blocking violations.
4. Prompt generation: write one prompt per increment with
   polly_save_prompt, strictly in order. Each prompt has at least three
   testable acceptance criteria and lists what is excluded.

## SCOPE CREEP

When the user brings up something that is clearly a separate feature,
call polly_capture with the topic and the slug being discussed, tell the
user it is parked, and return to the current feature.

## RULES

- Never overwrite a saved document unless the user asked for it; pass
  overwrite=true only then.
- Before calling a tool, say what you are about to do.
- Tool errors name what to fix. Fix it and call the tool again.`)

	sb.WriteString("\n\n## SKILLS\n\n")
	sb.WriteString(skills.Format(available))
	return sb.String()
}
