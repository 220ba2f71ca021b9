package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	cli "github.com/urfave/cli/v3"

	"github.com/HendryAvila/polly/internal/artifacts"
	"github.com/HendryAvila/polly/internal/capture"
	"github.com/HendryAvila/polly/internal/config"
	"github.com/HendryAvila/polly/internal/journal"
	"github.com/HendryAvila/polly/internal/server"
	"github.com/HendryAvila/polly/internal/updater"
	"github.com/HendryAvila/polly/internal/ux"
	"github.com/HendryAvila/polly/internal/validator"
	"github.com/HendryAvila/polly/internal/watch"
	"github.com/HendryAvila/polly/internal/workflow"
)

// errBlocking makes `polly validate` exit non-zero.
var errBlocking = errors.New("plan has blocking violations")

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the MCP server (stdio transport)",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			p, err := loadProject()
			if err != nil {
				return err
			}
			s, cleanup, err := server.New(p.root, p.cfg, p.logger)
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}
			defer cleanup()

			p.logger.Info("serving", "root", p.root, "version", server.Version)
			return mcpserver.ServeStdio(s)
		},
	}
}

func initCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Create the document directories and a default .polly/config.yaml",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			root, err := os.Getwd()
			if err != nil {
				return err
			}
			for _, dir := range []string{
				artifacts.FeaturesPath(root),
				artifacts.FutureFeaturesPath(root),
				artifacts.PromptsPath(root),
			} {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("creating %s: %w", dir, err)
				}
			}

			w := out(cmd)
			if config.Exists(root) {
				fmt.Fprintln(w, ux.Warning("%s already exists, left unchanged", config.Path(root)))
			} else {
				if err := config.NewFileStore().Save(root, config.DefaultConfig()); err != nil {
					return err
				}
				fmt.Fprintln(w, ux.Success("wrote %s", config.Path(root)))
			}
			fmt.Fprintln(w, ux.Success("project ready in %s", root))
			return nil
		},
	}
}

func statusCmd() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show every feature, its artifacts and the next action",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			p, err := loadProject()
			if err != nil {
				return err
			}
			engine, err := workflow.New(workflow.WithLogger(p.logger))
			if err != nil {
				return err
			}
			fmt.Fprint(out(cmd), ux.Status(engine.Status(p.root)))
			return nil
		},
	}
}

func validateCmd() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Check an increment plan (markdown or JSON) against the vertical-slice rules",
		ArgsUsage: "<file>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return fmt.Errorf("file argument is required")
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			plan, err := readPlan(data)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			vs := validator.Validate(plan)
			fmt.Fprint(out(cmd), ux.Violations(vs))
			if validator.HasBlocking(vs) {
				return errBlocking
			}
			return nil
		},
	}
}

// readPlan accepts a saved increments document or a JSON plan.
func readPlan(data []byte) (*artifacts.IncrementPlan, error) {
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		var plan artifacts.IncrementPlan
		if err := json.Unmarshal(data, &plan); err != nil {
			return nil, fmt.Errorf("parsing JSON plan: %w", err)
		}
		return &plan, nil
	}
	return artifacts.ParsePlan(data), nil
}

func captureCmd() *cli.Command {
	return &cli.Command{
		Name:      "capture",
		Usage:     "Park an idea as a future-feature stub",
		ArgsUsage: "<topic>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "from", Usage: "Slug of the feature being discussed"},
			&cli.StringFlag{Name: "description", Usage: "What the idea is"},
			&cli.StringFlag{Name: "notes", Usage: "Anything else worth remembering"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			topic := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
			if topic == "" {
				return fmt.Errorf("topic argument is required")
			}
			p, err := loadProject()
			if err != nil {
				return err
			}
			engine, cleanup, err := journaledEngine(p)
			if err != nil {
				return err
			}
			defer cleanup()

			ref, err := engine.CaptureRequest(p.root, capture.Request{
				Topic:       topic,
				Description: cmd.String("description"),
				Notes:       cmd.String("notes"),
				Origin:      cmd.String("from"),
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(out(cmd), ux.Success("captured %s", ref.Path))
			return nil
		},
	}
}

func historyCmd() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recently written documents",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "feature", Usage: "Only show entries for this slug"},
			&cli.IntFlag{Name: "limit", Value: 20, Usage: "Maximum entries"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			p, err := loadProject()
			if err != nil {
				return err
			}
			store, err := journal.New(journal.Config{DataDir: p.cfg.DataDir})
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.Recent(p.root, cmd.String("feature"), int(cmd.Int("limit")))
			if err != nil {
				return err
			}
			fmt.Fprint(out(cmd), ux.History(entries))
			return nil
		},
	}
}

func watchCmd() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Re-print status whenever a feature, stub or prompt changes",
		Flags: []cli.Flag{
			&cli.DurationFlag{Name: "debounce", Usage: "Quiet period before re-scanning (default from config)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			p, err := loadProject()
			if err != nil {
				return err
			}
			engine, err := workflow.New(workflow.WithLogger(p.logger))
			if err != nil {
				return err
			}
			debounce := p.cfg.WatchDebounce
			if d := cmd.Duration("debounce"); d > 0 {
				debounce = d
			}

			w, err := watch.New(p.root, debounce, p.logger)
			if err != nil {
				return err
			}
			defer w.Close()

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			o := out(cmd)
			fmt.Fprint(o, ux.Status(engine.Status(p.root)))
			return w.Run(ctx, func(changed []string) {
				fmt.Fprintf(o, "\n%s\n", ux.Warning("changed: %s", strings.Join(changed, ", ")))
				fmt.Fprint(o, ux.Status(engine.Status(p.root)))
			})
		},
	}
}

func versionCmd() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print the version",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "check", Usage: "Also check GitHub for a newer release"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			o := out(cmd)
			fmt.Fprintf(o, "polly %s\n", server.Version)
			if !cmd.Bool("check") {
				return nil
			}
			res, err := updater.Check(ctx, server.Version)
			if err != nil {
				return err
			}
			if res.Newer {
				fmt.Fprintln(o, ux.Warning("v%s is available: %s", res.Latest, res.URL))
			} else {
				fmt.Fprintln(o, ux.Success("up to date"))
			}
			return nil
		},
	}
}

// journaledEngine builds an engine that records writes in the journal when
// it is enabled. A journal that fails to open is logged and skipped.
func journaledEngine(p *project) (*workflow.Engine, func(), error) {
	engine, err := workflow.New(workflow.WithLogger(p.logger))
	if err != nil {
		return nil, nil, err
	}
	if !p.cfg.Journal {
		return engine, func() {}, nil
	}
	store, err := journal.New(journal.Config{DataDir: p.cfg.DataDir})
	if err != nil {
		p.logger.Warn("journal disabled", "err", err)
		return engine, func() {}, nil
	}
	if bridge := journal.NewBridge(store, p.root, p.logger); bridge != nil {
		engine.SetObserver(bridge)
	}
	return engine, func() { _ = store.Close() }, nil
}
