// Polly: feature breakdown MCP server
//
// Turns feature ideas into incremental, vertical-slice coding prompts
// stored as markdown in the project (features/, future-features/,
// prompts/). Works with any MCP-capable AI coding tool.
//
// Usage:
//
//	polly serve      # Start MCP server (stdio transport)
//	polly status     # Show where every feature stands
//	polly watch      # Re-print status whenever documents change
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/HendryAvila/polly/internal/config"
	"github.com/HendryAvila/polly/internal/ux"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, ux.Error(err))
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "polly",
		Usage: "Break features into incremental coding prompts",
		Description: "Run 'polly serve' from your AI tool's MCP config:\n\n" +
			"  {\"mcpServers\": {\"polly\": {\"command\": \"polly\", \"args\": [\"serve\"]}}}",
		Commands: []*cli.Command{
			serveCmd(),
			initCmd(),
			statusCmd(),
			validateCmd(),
			captureCmd(),
			historyCmd(),
			watchCmd(),
			versionCmd(),
		},
	}
}

// project is the context every command starts from.
type project struct {
	root   string
	cfg    *config.Config
	logger *slog.Logger
}

// loadProject finds the project root from cwd and loads its config. Logs
// go to stderr so they never mix with MCP traffic on stdout.
func loadProject() (*project, error) {
	root, err := config.FindProjectRootFromCwd()
	if err != nil {
		return nil, fmt.Errorf("finding project root: %w", err)
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	return &project{root: root, cfg: cfg, logger: logger}, nil
}

// out returns the writer for command output.
func out(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}
