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

// Planner classifies a request and selects tools. Implementations may
// fail; the orchestrator substitutes FallbackPlan on any error, so a
// planner never needs its own fallback path.
type Planner interface {
	// Plan produces a research plan for the request. species carries the
	// names already identified by the caller, which the planner may extend.
	Plan(ctx context.Context, query string, species []string) (*ResearchPlan, error)

	// ExtractSpecies pulls species names out of free text when the request
	// arrived without pre-identified species.
	ExtractSpecies(ctx context.Context, query string) ([]string, error)
}

const planSystemPrompt = `You are a marine biology research planner working
against the WoRMS (World Register of Marine Species) database. Classify the
user's request into exactly one query_type: single_species, comparison,
conservation, distribution or taxonomy. List every species the request
mentions in species_mentioned (scientific names where possible). Select the
tools to run from this catalog, tagging each must_call, should_call or
optional, with a one-line reason:

%s

Conservation questions need get_species_attributes (IUCN status lives
there). Distribution questions need get_species_distribution. Taxonomy
questions need get_taxonomic_classification and usually get_child_taxa.
Comparisons need the same tools for each species mentioned.`

const extractSystemPrompt = `Extract the species names mentioned in the
user's request. Prefer scientific (binomial) names; keep common names as
given when no scientific name is stated. Return an empty list when the
request names no species.`

// GenkitPlanner implements Planner with structured-output model calls.
type GenkitPlanner struct {
	g      *genkit.Genkit
	model  string
	system string
	logger log.Logger
}

// NewGenkitPlanner builds a planner bound to the configured model.
func NewGenkitPlanner(g *genkit.Genkit, cfg *config.Config, logger log.Logger) *GenkitPlanner {
	var tools []string
	for _, cat := range Catalog() {
		tools = append(tools, fmt.Sprintf("- %s: %s", cat.Tool, cat.Description))
	}
	tools = append(tools, fmt.Sprintf("- %s: Get the basic taxonomic record for a species.", ToolTaxonomicRecord))

	return &GenkitPlanner{
		g:      g,
		model:  cfg.FullModelName(),
		system: fmt.Sprintf(planSystemPrompt, strings.Join(tools, "\n")),
		logger: logger,
	}
}

// Plan classifies the query via a schema-constrained generation call.
func (p *GenkitPlanner) Plan(ctx context.Context, query string, species []string) (*ResearchPlan, error) {
	prompt := fmt.Sprintf("Request: %s", query)
	if len(species) > 0 {
		prompt += fmt.Sprintf("\nSpecies already identified: %s", strings.Join(species, ", "))
	}

	response, err := genkit.Generate(ctx, p.g,
		ai.WithModelName(p.model),
		ai.WithSystem(p.system),
		ai.WithPrompt(prompt),
		ai.WithOutputType(ResearchPlan{}),
	)
	if err != nil {
		return nil, fmt.Errorf("plan generation: %w", err)
	}

	var plan ResearchPlan
	if err := response.Output(&plan); err != nil {
		return nil, fmt.Errorf("plan output: %w", err)
	}
	if err := validatePlan(&plan); err != nil {
		return nil, err
	}

	if len(plan.Species) == 0 {
		plan.Species = append([]string(nil), species...)
	}

	p.logger.Info("research plan created",
		"category", log.CategoryAgent,
		"query_type", plan.QueryType,
		"species", plan.Species,
		"tools", len(plan.Tools))
	return &plan, nil
}

// ExtractSpecies pulls species names from free text.
func (p *GenkitPlanner) ExtractSpecies(ctx context.Context, query string) ([]string, error) {
	response, err := genkit.Generate(ctx, p.g,
		ai.WithModelName(p.model),
		ai.WithSystem(extractSystemPrompt),
		ai.WithPrompt(query),
		ai.WithOutputType(SpeciesExtraction{}),
	)
	if err != nil {
		return nil, fmt.Errorf("species extraction: %w", err)
	}

	var out SpeciesExtraction
	if err := response.Output(&out); err != nil {
		return nil, fmt.Errorf("species extraction output: %w", err)
	}
	return out.Species, nil
}

// validatePlan rejects plans with an unknown query type or no tools; such
// output counts as a planning failure and triggers the fallback.
func validatePlan(plan *ResearchPlan) error {
	switch plan.QueryType {
	case QuerySingleSpecies, QueryComparison, QueryConservation, QueryDistribution, QueryTaxonomy:
	default:
		return fmt.Errorf("unknown query type %q", plan.QueryType)
	}
	if len(plan.Tools) == 0 {
		return fmt.Errorf("plan selected no tools")
	}
	return nil
}
