package resources

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/polly/internal/config"
	"github.com/HendryAvila/polly/internal/pipeline"
	"github.com/HendryAvila/polly/internal/workflow"
)

func setup(t *testing.T) (string, *Handler) {
	t.Helper()
	dir := t.TempDir()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(orig) })

	engine, err := workflow.New(workflow.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatal(err)
	}
	return dir, NewHandler(engine, config.NewFileStore())
}

func readText(t *testing.T, contents []mcp.ResourceContents) mcp.TextResourceContents {
	t.Helper()
	if len(contents) != 1 {
		t.Fatalf("got %d contents, want 1", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("content is %T", contents[0])
	}
	return tc
}

func TestHandleInventory(t *testing.T) {
	dir, h := setup(t)
	if _, err := h.engine.Capture(dir, "Payments", ""); err != nil {
		t.Fatal(err)
	}

	req := mcp.ReadResourceRequest{}
	req.Params.URI = InventoryURI
	contents, err := h.HandleInventory(context.Background(), req)
	if err != nil {
		t.Fatalf("HandleInventory: %v", err)
	}
	tc := readText(t, contents)
	if tc.MIMEType != "application/json" {
		t.Errorf("MIMEType = %q", tc.MIMEType)
	}

	var snap struct {
		Inventory struct {
			Records map[string]struct {
				Status string `json:"status"`
			} `json:"records"`
		} `json:"inventory"`
		Resume struct {
			Actions   map[string]pipeline.NextAction `json:"actions"`
			Suggested string                         `json:"suggested"`
		} `json:"resume"`
	}
	if err := json.Unmarshal([]byte(tc.Text), &snap); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, tc.Text)
	}
	if got := snap.Inventory.Records["payments"].Status; got != "stub" {
		t.Errorf("payments status = %q, want stub", got)
	}
	if got := snap.Resume.Actions["payments"]; got != pipeline.NeedsDiscovery {
		t.Errorf("payments action = %q, want needs_discovery", got)
	}
	if snap.Resume.Suggested != "payments" {
		t.Errorf("Suggested = %q", snap.Resume.Suggested)
	}
}

func TestHandleConfig(t *testing.T) {
	dir, h := setup(t)
	if err := os.MkdirAll(filepath.Join(dir, config.Dir), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(config.Path(dir), []byte("journal: false\nlog_level: debug\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	req := mcp.ReadResourceRequest{}
	req.Params.URI = ConfigURI
	contents, err := h.HandleConfig(context.Background(), req)
	if err != nil {
		t.Fatalf("HandleConfig: %v", err)
	}
	text := readText(t, contents).Text
	if !strings.Contains(text, `"journal": false`) || !strings.Contains(text, `"log_level": "debug"`) {
		t.Errorf("config not reflected:\n%s", text)
	}
}

func TestHandleConfig_Corrupt(t *testing.T) {
	dir, h := setup(t)
	if err := os.MkdirAll(filepath.Join(dir, config.Dir), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(config.Path(dir), []byte("journal: [\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	req := mcp.ReadResourceRequest{}
	req.Params.URI = ConfigURI
	contents, err := h.HandleConfig(context.Background(), req)
	if err != nil {
		t.Fatalf("corrupt config should be an error resource, got %v", err)
	}
	tc := readText(t, contents)
	if tc.MIMEType != "text/plain" || !strings.HasPrefix(tc.Text, "Error:") {
		t.Errorf("got %q %q", tc.MIMEType, tc.Text)
	}
}
