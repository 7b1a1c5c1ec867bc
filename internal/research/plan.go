// Package research implements the tool-orchestration core of the agent:
// the per-request call tracker, the catalog of WoRMS data tools, the query
// planner and the run loop that ties them to a conversation host.
package research

// QueryType classifies what a request is fundamentally asking for.
type QueryType string

const (
	QuerySingleSpecies QueryType = "single_species"
	QueryComparison    QueryType = "comparison"
	QueryConservation  QueryType = "conservation"
	QueryDistribution  QueryType = "distribution"
	QueryTaxonomy      QueryType = "taxonomy"
)

// Priority ranks how strongly the planner wants a tool to run.
type Priority string

const (
	PriorityMustCall   Priority = "must_call"
	PriorityShouldCall Priority = "should_call"
	PriorityOptional   Priority = "optional"
)

// PlannedTool is one tool the planner selected, with its priority and a
// short rationale.
type PlannedTool struct {
	Tool     string   `json:"tool_name"`
	Priority Priority `json:"priority"`
	Reason   string   `json:"reason"`
}

// ResearchPlan is the planner's structured output: the query class, the
// species the request mentions and a prioritized tool selection. Created
// once per request, read-only afterwards.
type ResearchPlan struct {
	QueryType QueryType     `json:"query_type"`
	Species   []string      `json:"species_mentioned"`
	Tools     []PlannedTool `json:"tools_planned"`
	Reasoning string        `json:"reasoning"`
}

// SpeciesExtraction is the structured output of the name-extraction call
// used when a request arrives without pre-identified species.
type SpeciesExtraction struct {
	Species []string `json:"species_names"`
}

// FallbackPlan is the deterministic plan substituted whenever planning
// fails. It never errs: attributes must run, the taxonomic record should
// run, nothing else.
func FallbackPlan(species []string) *ResearchPlan {
	return &ResearchPlan{
		QueryType: QuerySingleSpecies,
		Species:   append([]string(nil), species...),
		Tools: []PlannedTool{
			{Tool: ToolSpeciesAttributes, Priority: PriorityMustCall, Reason: "fallback plan"},
			{Tool: ToolTaxonomicRecord, Priority: PriorityShouldCall, Reason: "fallback plan"},
		},
		Reasoning: "fallback plan",
	}
}
