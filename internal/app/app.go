// Package app assembles the application: configuration, logging, the
// Genkit runtime, the WoRMS client, the resolver and the research
// orchestrator. Commands depend on App instead of wiring components
// themselves.
package app

import (
	"context"
	"fmt"
	"io"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"

	"github.com/rijul21/worms-agent/internal/artifact"
	"github.com/rijul21/worms-agent/internal/config"
	"github.com/rijul21/worms-agent/internal/conversation"
	"github.com/rijul21/worms-agent/internal/log"
	"github.com/rijul21/worms-agent/internal/research"
	"github.com/rijul21/worms-agent/internal/resolver"
	"github.com/rijul21/worms-agent/internal/tui"
	"github.com/rijul21/worms-agent/internal/worms"
)

// App holds the long-lived application components. One App serves many
// requests; per-request state lives in research.Session.
type App struct {
	Config       *config.Config
	Logger       log.Logger
	Genkit       *genkit.Genkit
	Orchestrator *research.Orchestrator
	Artifacts    *artifact.Store
}

// New loads configuration and wires every component.
func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	logger := log.New(log.Config{
		Level: cfg.LogSlogLevel(),
		JSON:  cfg.LogJSON,
	})

	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		return nil, fmt.Errorf("initializing genkit")
	}

	client := worms.NewClient(cfg, logger.With("component", "worms"))
	res := resolver.New(client, cfg, logger.With("component", "resolver"))
	svc := research.NewService(client, res, cfg, logger.With("component", "tools"))

	planner := research.NewGenkitPlanner(g, cfg, logger.With("component", "planner"))
	decider := research.NewGenkitDecider(g, svc, cfg, logger.With("component", "decider"))
	orch := research.NewOrchestrator(planner, decider, svc, cfg, logger.With("component", "orchestrator"))

	return &App{
		Config:       cfg,
		Logger:       logger,
		Genkit:       g,
		Orchestrator: orch,
		Artifacts:    artifact.NewStore(logger.With("component", "artifacts")),
	}, nil
}

// NewConsoleHost builds a conversation host that writes markdown-rendered
// replies to out.
func (a *App) NewConsoleHost(out io.Writer) *conversation.Console {
	renderer := tui.NewMarkdownRenderer(0)
	render := func(s string) (string, error) { return renderer.Render(s), nil }
	return conversation.NewConsole(out, render, a.Artifacts, a.Logger.With("component", "console"))
}
