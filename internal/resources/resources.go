// Package resources implements MCP resource handlers for the breakdown
// workflow.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (polly://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/polly/internal/config"
	"github.com/HendryAvila/polly/internal/inventory"
	"github.com/HendryAvila/polly/internal/pipeline"
	"github.com/HendryAvila/polly/internal/workflow"
)

// Resource URIs.
const (
	InventoryURI = "polly://project/inventory"
	ConfigURI    = "polly://project/config"
)

// Handler manages the project resource endpoints.
type Handler struct {
	engine *workflow.Engine
	store  config.Store
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(engine *workflow.Engine, store config.Store) *Handler {
	return &Handler{engine: engine, store: store}
}

// Snapshot is the payload of the inventory resource.
type Snapshot struct {
	Inventory *inventory.Inventory `json:"inventory"`
	Resume    *pipeline.Resume     `json:"resume"`
}

// InventoryResource returns the MCP resource definition for the project
// inventory.
func (h *Handler) InventoryResource() mcp.Resource {
	return mcp.NewResource(
		InventoryURI,
		"Project Inventory",
		mcp.WithResourceDescription("Every feature on disk with its status, artifact counts and next action"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleInventory scans the project and returns inventory and next actions
// as JSON.
func (h *Handler) HandleInventory(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	projectRoot, err := findRoot()
	if err != nil {
		return nil, fmt.Errorf("finding project root: %w", err)
	}

	inv, resume := h.engine.Status(projectRoot)
	return jsonResource(req.Params.URI, Snapshot{Inventory: inv, Resume: resume})
}

// ConfigResource returns the MCP resource definition for the effective
// project configuration.
func (h *Handler) ConfigResource() mcp.Resource {
	return mcp.NewResource(
		ConfigURI,
		"Project Configuration",
		mcp.WithResourceDescription("Effective configuration: .polly/config.yaml merged with defaults and environment"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleConfig returns the effective configuration as JSON.
func (h *Handler) HandleConfig(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	projectRoot, err := findRoot()
	if err != nil {
		return nil, fmt.Errorf("finding project root: %w", err)
	}

	cfg, err := h.store.Load(projectRoot)
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	return jsonResource(req.Params.URI, cfg)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
