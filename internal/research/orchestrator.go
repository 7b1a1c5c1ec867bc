package research

import (
	"context"
	"fmt"

	"github.com/rijul21/worms-agent/internal/config"
	"github.com/rijul21/worms-agent/internal/conversation"
	"github.com/rijul21/worms-agent/internal/log"
)

// Orchestrator drives one request through its four states:
// PLANNING -> RESOLVING -> EXECUTING -> TERMINATED, single pass, no state
// re-entered. Whatever happens in between, a non-canceled request produces
// exactly one terminal reply.
type Orchestrator struct {
	planner Planner
	decider Decider
	service *Service
	cfg     *config.Config
	logger  log.Logger
}

// NewOrchestrator wires the run loop.
func NewOrchestrator(planner Planner, decider Decider, service *Service, cfg *config.Config, logger log.Logger) *Orchestrator {
	return &Orchestrator{
		planner: planner,
		decider: decider,
		service: service,
		cfg:     cfg,
		logger:  logger,
	}
}

// Run processes one request against the conversation host. The returned
// error is a hosting failure (process could not be opened, reply could not
// be delivered, request canceled); research failures never surface here,
// they become the terminal reply.
func (o *Orchestrator) Run(ctx context.Context, host conversation.Host, query string) error {
	proc, err := host.BeginProcess(ctx, "Researching: "+truncate(query, 120))
	if err != nil {
		return fmt.Errorf("beginning process: %w", err)
	}
	sess := NewSession(proc, o.logger)

	// PLANNING. Failures here are never fatal; the fallback plan keeps the
	// request moving.
	species, err := o.planner.ExtractSpecies(ctx, query)
	if err != nil {
		o.logger.Warn("species extraction failed",
			"category", log.CategoryAgent,
			"error", err)
		species = nil
	}

	plan, err := o.planner.Plan(ctx, query, species)
	if err != nil {
		o.logger.Warn("planning failed, using fallback plan",
			"category", log.CategoryAgent,
			"error", err)
		plan = FallbackPlan(species)
	}
	_ = proc.Log(ctx, "Research plan ready", map[string]any{
		"query_type": string(plan.QueryType),
		"species":    plan.Species,
		"tools":      len(plan.Tools),
	})

	// RESOLVING. One bulk call primes the identifier cache; an empty map
	// just means tools fall back to per-name resolution.
	if len(plan.Species) > 0 {
		resolved := o.service.Resolver().ResolveBatch(ctx, plan.Species, o.cfg.BatchTimeout)
		_ = proc.Log(ctx, fmt.Sprintf("Resolved %d of %d species", len(resolved), len(plan.Species)), nil)
	}

	// EXECUTING.
	decideErr := o.decider.Decide(ctx, sess, query, plan)

	// TERMINATED. A canceled request delivers nothing; everything else
	// delivers exactly one reply.
	if ctx.Err() != nil {
		return ctx.Err()
	}

	reply, kind := sess.Terminal()
	if kind == TerminalNone {
		if decideErr != nil {
			o.logger.Error("decision loop failed",
				"category", log.CategoryAgent,
				"error", decideErr)
			reply = fmt.Sprintf("An error occurred: %v", decideErr)
		} else {
			reply = "An error occurred: the research process ended without an answer."
		}
	}

	if err := host.Reply(ctx, reply); err != nil {
		return fmt.Errorf("delivering reply: %w", err)
	}
	return nil
}

// truncate shortens s to at most n runes. Cutting on rune boundaries keeps
// the process label valid UTF-8 for queries in any script.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
