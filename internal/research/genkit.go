package research

import (
	"context"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/rijul21/worms-agent/internal/config"
	"github.com/rijul21/worms-agent/internal/log"
)

// Decider runs the tool-selection loop for one request: given the plan as
// guidance, it invokes tools from the registered set until a control tool
// fires or its budget runs out. The production implementation delegates to
// the model runtime; tests script it.
type Decider interface {
	Decide(ctx context.Context, sess *Session, query string, plan *ResearchPlan) error
}

const decideSystemPrompt = `You are a marine species research agent backed by
the WoRMS database. Execute the research plan you are given: call every
must_call tool, then should_call tools as needed, then synthesize what you
learned. Tool results are cached per request, so repeating a call with the
same arguments returns the same text without cost. When you have enough
information, call finish exactly once with a complete answer for the user.
If the request cannot be served (species not found, all lookups failing),
call abort with a short reason instead. Never answer in plain text; always
end with finish or abort.`

// terminatedNotice is returned by every tool once a control tool has
// fired, so a runaway loop cannot reach the remote service again.
const terminatedNotice = "Research already terminated."

// Tool input schemas.

type speciesInput struct {
	ScientificName string `json:"scientific_name" jsonschema_description:"Scientific (binomial) name of the species"`
}

type externalIDInput struct {
	ScientificName string `json:"scientific_name" jsonschema_description:"Scientific (binomial) name of the species"`
	Database       string `json:"database" jsonschema_description:"External database: fishbase, ncbi, itis or gisd"`
}

type attributeDefinitionsInput struct {
	ID int `json:"id" jsonschema_description:"Attribute definition id; 0 for the top-level tree"`
}

type attributeValuesInput struct {
	CategoryID int `json:"category_id" jsonschema_description:"Attribute category id"`
}

type recentChangesInput struct {
	StartDate  string `json:"start_date" jsonschema_description:"ISO start date, e.g. 2024-01-01"`
	EndDate    string `json:"end_date,omitempty" jsonschema_description:"Optional ISO end date"`
	MarineOnly bool   `json:"marine_only,omitempty" jsonschema_description:"Restrict to marine taxa"`
	ExtantOnly bool   `json:"extant_only,omitempty" jsonschema_description:"Restrict to extant taxa"`
}

type commonNameInput struct {
	CommonName string `json:"common_name" jsonschema_description:"Common (vernacular) name to search, e.g. killer whale"`
}

type finishInput struct {
	Summary string `json:"summary" jsonschema_description:"Complete answer for the user"`
}

type abortInput struct {
	Reason string `json:"reason" jsonschema_description:"Why the request cannot be served"`
}

// GenkitDecider implements Decider on the Genkit tool-calling loop.
type GenkitDecider struct {
	g        *genkit.Genkit
	model    string
	maxTurns int
	tools    []ai.ToolRef
	logger   log.Logger
}

// NewGenkitDecider registers the tool set once and returns a decider bound
// to the configured model and turn budget.
func NewGenkitDecider(g *genkit.Genkit, svc *Service, cfg *config.Config, logger log.Logger) *GenkitDecider {
	return &GenkitDecider{
		g:        g,
		model:    cfg.FullModelName(),
		maxTurns: cfg.MaxTurns,
		tools:    defineTools(g, svc),
		logger:   logger,
	}
}

// Decide runs the model loop with the session attached to the context so
// tool handlers can reach the tracker and the conversation process.
func (d *GenkitDecider) Decide(ctx context.Context, sess *Session, query string, plan *ResearchPlan) error {
	ctx = ContextWithSession(ctx, sess)

	_, err := genkit.Generate(ctx, d.g,
		ai.WithModelName(d.model),
		ai.WithSystem(decideSystemPrompt),
		ai.WithPrompt(decidePrompt(query, plan)),
		ai.WithTools(d.tools...),
		ai.WithMaxTurns(d.maxTurns),
	)
	if err != nil {
		return fmt.Errorf("decision loop: %w", err)
	}
	return nil
}

// decidePrompt renders the request and the plan as guidance for the loop.
func decidePrompt(query string, plan *ResearchPlan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Request: %s\n\n", query)
	fmt.Fprintf(&b, "Query type: %s\n", plan.QueryType)
	if len(plan.Species) > 0 {
		fmt.Fprintf(&b, "Species mentioned: %s\n", strings.Join(plan.Species, ", "))
	}
	b.WriteString("Planned tools:\n")
	for _, t := range plan.Tools {
		fmt.Fprintf(&b, "- %s [%s]: %s\n", t.Tool, t.Priority, t.Reason)
	}
	if plan.Reasoning != "" {
		fmt.Fprintf(&b, "Plan rationale: %s\n", plan.Reasoning)
	}
	return b.String()
}

// defineTools registers every data tool plus the two control tools and
// returns their refs for ai.WithTools.
func defineTools(g *genkit.Genkit, svc *Service) []ai.ToolRef {
	var refs []ai.ToolRef

	for _, cat := range svc.Catalog() {
		refs = append(refs, defineCategoryTool(g, svc, cat))
	}

	refs = append(refs, genkit.DefineTool(g, ToolTaxonomicRecord,
		"Get the basic taxonomic record (rank, status, classification summary) for a marine species.",
		func(tc *ai.ToolContext, in speciesInput) (string, error) {
			sess, ok := SessionFromContext(tc)
			if !ok {
				return "", fmt.Errorf("no active research session")
			}
			if sess.Terminated() {
				return terminatedNotice, nil
			}
			return svc.TaxonomicRecord(tc, sess, in.ScientificName), nil
		}))

	refs = append(refs, genkit.DefineTool(g, ToolFinish,
		"Finish the research and deliver the final answer to the user. Call exactly once.",
		func(tc *ai.ToolContext, in finishInput) (string, error) {
			sess, ok := SessionFromContext(tc)
			if !ok {
				return "", fmt.Errorf("no active research session")
			}
			if !sess.Finish(in.Summary) {
				return terminatedNotice, nil
			}
			return "Final answer recorded.", nil
		}))

	refs = append(refs, genkit.DefineTool(g, ToolAbort,
		"Abort the research when the request cannot be served. Call at most once.",
		func(tc *ai.ToolContext, in abortInput) (string, error) {
			sess, ok := SessionFromContext(tc)
			if !ok {
				return "", fmt.Errorf("no active research session")
			}
			if !sess.Abort(in.Reason) {
				return terminatedNotice, nil
			}
			return "Abort recorded.", nil
		}))

	return refs
}

// defineCategoryTool registers one catalog entry with the input schema its
// argument shape needs.
func defineCategoryTool(g *genkit.Genkit, svc *Service, cat Category) ai.ToolRef {
	run := func(ctx context.Context, args map[string]any) (string, error) {
		sess, ok := SessionFromContext(ctx)
		if !ok {
			return "", fmt.Errorf("no active research session")
		}
		if sess.Terminated() {
			return terminatedNotice, nil
		}
		return svc.RunCategory(ctx, sess, cat, args), nil
	}

	switch cat.Tool {
	case ToolExternalIDs:
		return genkit.DefineTool(g, cat.Tool, cat.Description,
			func(tc *ai.ToolContext, in externalIDInput) (string, error) {
				return run(tc, map[string]any{
					"scientific_name": in.ScientificName,
					"database":        in.Database,
				})
			})
	case ToolAttributeDefinitions:
		return genkit.DefineTool(g, cat.Tool, cat.Description,
			func(tc *ai.ToolContext, in attributeDefinitionsInput) (string, error) {
				return run(tc, map[string]any{"id": in.ID})
			})
	case ToolAttributeValues:
		return genkit.DefineTool(g, cat.Tool, cat.Description,
			func(tc *ai.ToolContext, in attributeValuesInput) (string, error) {
				return run(tc, map[string]any{"category_id": in.CategoryID})
			})
	case ToolRecentChanges:
		return genkit.DefineTool(g, cat.Tool, cat.Description,
			func(tc *ai.ToolContext, in recentChangesInput) (string, error) {
				return run(tc, map[string]any{
					"start_date":  in.StartDate,
					"end_date":    in.EndDate,
					"marine_only": in.MarineOnly,
					"extant_only": in.ExtantOnly,
				})
			})
	case ToolSearchCommonName:
		return genkit.DefineTool(g, cat.Tool, cat.Description,
			func(tc *ai.ToolContext, in commonNameInput) (string, error) {
				return run(tc, map[string]any{"common_name": in.CommonName})
			})
	default:
		return genkit.DefineTool(g, cat.Tool, cat.Description,
			func(tc *ai.ToolContext, in speciesInput) (string, error) {
				return run(tc, map[string]any{"scientific_name": in.ScientificName})
			})
	}
}
