package research

import (
	"fmt"

	"github.com/rijul21/worms-agent/internal/worms"
)

// Tool names exposed to the decision process.
const (
	ToolSpeciesSynonyms      = "get_species_synonyms"
	ToolSpeciesDistribution  = "get_species_distribution"
	ToolCommonNames          = "get_common_names"
	ToolLiteratureSources    = "get_literature_sources"
	ToolTaxonomicRecord      = "get_taxonomic_record"
	ToolClassification       = "get_taxonomic_classification"
	ToolChildTaxa            = "get_child_taxa"
	ToolExternalIDs          = "get_external_ids"
	ToolSpeciesAttributes    = "get_species_attributes"
	ToolAttributeDefinitions = "get_attribute_definitions"
	ToolAttributeValues      = "get_attribute_values"
	ToolRecentChanges        = "get_recent_changes"
	ToolSearchCommonName     = "search_species_by_common_name"
	ToolFinish               = "finish"
	ToolAbort                = "abort"
)

// Category describes one list-shaped data tool. Every such tool shares a
// single routine (Service.RunCategory): resolve, fetch, normalize,
// summarize, register an artifact. The differences between categories are
// data, not code, and live in this table.
type Category struct {
	// Tool is the tool name the decision process calls.
	Tool string

	// Noun is the plural noun used in summaries ("synonyms", "child taxa").
	Noun string

	// Description is shown to the decision process when the tool is
	// registered.
	Description string

	// Species marks tools that take a scientific name and need identifier
	// resolution before fetching.
	Species bool

	// Paginated tools keep fetching with increasing offsets while pages
	// come back full.
	Paginated bool

	// Capped tools surface at most the configured record cap, reporting
	// the true total separately.
	Capped bool

	// EmptyNote is appended to the "no data found" message.
	EmptyNote string

	// Subject renders what the fetch was about for summaries and artifact
	// descriptions. For species tools the resolved name is passed in;
	// other tools derive the subject from their arguments.
	Subject func(args map[string]any) string

	// BuildURL constructs the request URL. offset is 1-based and only
	// meaningful for paginated categories.
	BuildURL func(c Client, id worms.AphiaID, args map[string]any, offset int) string

	// Facets extracts category-specific artifact metadata from the
	// fetched records. May be nil.
	Facets func(records []map[string]any) map[string]any

	// Examples picks a few representative values to show in the summary
	// line. May be nil.
	Examples func(records []map[string]any) []string
}

func speciesSubject(args map[string]any) string {
	s, _ := args["scientific_name"].(string)
	return s
}

// Catalog returns the table of list-shaped data tools. The single-object
// taxonomic record tool has a different response contract and lives in
// Service.TaxonomicRecord instead.
func Catalog() []Category {
	return []Category{
		{
			Tool:        ToolSpeciesSynonyms,
			Noun:        "synonyms",
			Description: "Get synonyms (alternative scientific names) for a marine species.",
			Species:     true,
			Paginated:   true,
			Subject:     speciesSubject,
			BuildURL: func(c Client, id worms.AphiaID, _ map[string]any, offset int) string {
				return c.SynonymsURL(id, offset)
			},
			Examples: fieldExamples("scientificname", 3),
		},
		{
			Tool:        ToolSpeciesDistribution,
			Noun:        "distribution records",
			Description: "Get geographic distribution records for a marine species.",
			Species:     true,
			Subject:     speciesSubject,
			BuildURL: func(c Client, id worms.AphiaID, _ map[string]any, _ int) string {
				return c.DistributionsURL(id)
			},
			Examples: fieldExamples("locality", 3),
		},
		{
			Tool:        ToolCommonNames,
			Noun:        "common names",
			Description: "Get vernacular (common) names recorded for a marine species.",
			Species:     true,
			Subject:     speciesSubject,
			BuildURL: func(c Client, id worms.AphiaID, _ map[string]any, _ int) string {
				return c.VernacularsURL(id)
			},
			Facets:   distinctFacet("languages", "language"),
			Examples: fieldExamples("vernacular", 3),
		},
		{
			Tool:        ToolLiteratureSources,
			Noun:        "literature sources",
			Description: "Get literature sources and references for a marine species.",
			Species:     true,
			Subject:     speciesSubject,
			BuildURL: func(c Client, id worms.AphiaID, _ map[string]any, _ int) string {
				return c.SourcesURL(id)
			},
		},
		{
			Tool:        ToolClassification,
			Noun:        "classification records",
			Description: "Get the taxonomic classification hierarchy for a marine species.",
			Species:     true,
			Subject:     speciesSubject,
			BuildURL: func(c Client, id worms.AphiaID, _ map[string]any, _ int) string {
				return c.ClassificationURL(id)
			},
		},
		{
			Tool:        ToolChildTaxa,
			Noun:        "child taxa",
			Description: "Get direct child taxa (e.g. subspecies) of a marine taxon.",
			Species:     true,
			Paginated:   true,
			EmptyNote:   " (this is normal for species without subspecies)",
			Subject:     speciesSubject,
			BuildURL: func(c Client, id worms.AphiaID, _ map[string]any, offset int) string {
				return c.ChildrenURL(id, offset)
			},
			Examples: fieldExamples("scientificname", 3),
		},
		{
			Tool:        ToolExternalIDs,
			Noun:        "external identifiers",
			Description: "Get a species' identifiers in an external database (fishbase, ncbi, itis, gisd).",
			Species:     true,
			Subject: func(args map[string]any) string {
				return fmt.Sprintf("%v in %v", args["scientific_name"], args["database"])
			},
			BuildURL: func(c Client, id worms.AphiaID, args map[string]any, _ int) string {
				db, _ := args["database"].(string)
				return c.ExternalIDURL(id, db)
			},
		},
		{
			Tool:        ToolSpeciesAttributes,
			Noun:        "attributes",
			Description: "Get measurement and trait attributes (e.g. IUCN status, body size) for a marine species.",
			Species:     true,
			Subject:     speciesSubject,
			BuildURL: func(c Client, id worms.AphiaID, _ map[string]any, _ int) string {
				return c.AttributesURL(id)
			},
			Facets: distinctFacet("measurement_types", "measurementType"),
		},
		{
			Tool:        ToolAttributeDefinitions,
			Noun:        "attribute definitions",
			Description: "Get the attribute definition tree. Use id 0 for the top-level definitions.",
			Subject: func(args map[string]any) string {
				return fmt.Sprintf("definition tree %v", args["id"])
			},
			BuildURL: func(c Client, _ worms.AphiaID, args map[string]any, _ int) string {
				return c.AttributeKeysURL(argInt(args, "id"))
			},
			Facets: distinctFacet("measurement_types", "measurementType"),
		},
		{
			Tool:        ToolAttributeValues,
			Noun:        "attribute values",
			Description: "Get the permitted values for an attribute category (e.g. the IUCN status codes).",
			Subject: func(args map[string]any) string {
				return fmt.Sprintf("category %v", args["category_id"])
			},
			BuildURL: func(c Client, _ worms.AphiaID, args map[string]any, _ int) string {
				return c.AttributeValuesURL(argInt(args, "category_id"))
			},
		},
		{
			Tool:        ToolRecentChanges,
			Noun:        "recent changes",
			Description: "List taxa added or edited in a date range (ISO dates). Optionally restrict to marine or extant taxa.",
			Paginated:   true,
			Capped:      true,
			Subject: func(args map[string]any) string {
				return fmt.Sprintf("the period since %v", args["start_date"])
			},
			BuildURL: func(c Client, _ worms.AphiaID, args map[string]any, offset int) string {
				start, _ := args["start_date"].(string)
				end, _ := args["end_date"].(string)
				marine, _ := args["marine_only"].(bool)
				extant, _ := args["extant_only"].(bool)
				return c.RecordsByDateURL(start, end, marine, extant, offset)
			},
			Examples: fieldExamples("scientificname", 3),
		},
		{
			Tool:        ToolSearchCommonName,
			Noun:        "matching species",
			Description: "Search marine species by a common (vernacular) name, e.g. 'killer whale'.",
			Subject: func(args map[string]any) string {
				return fmt.Sprintf("common name %q", args["common_name"])
			},
			BuildURL: func(c Client, _ worms.AphiaID, args map[string]any, _ int) string {
				name, _ := args["common_name"].(string)
				return c.VernacularSearchURL(name, true)
			},
			Examples: fieldExamples("scientificname", 3),
		},
	}
}

// fieldExamples returns an Examples func picking the first n non-empty
// string values of field.
func fieldExamples(field string, n int) func([]map[string]any) []string {
	return func(records []map[string]any) []string {
		var out []string
		for _, rec := range records {
			if s, ok := rec[field].(string); ok && s != "" {
				out = append(out, s)
				if len(out) == n {
					break
				}
			}
		}
		return out
	}
}

// distinctFacet returns a Facets func collecting the distinct string
// values of field under the given metadata key.
func distinctFacet(key, field string) func([]map[string]any) map[string]any {
	return func(records []map[string]any) map[string]any {
		seen := make(map[string]bool)
		var values []string
		for _, rec := range records {
			s, ok := rec[field].(string)
			if !ok || s == "" || seen[s] {
				continue
			}
			seen[s] = true
			values = append(values, s)
		}
		if len(values) == 0 {
			return nil
		}
		return map[string]any{key: values}
	}
}

// argInt reads an integer argument that may arrive as a JSON float.
func argInt(args map[string]any, name string) int {
	switch v := args[name].(type) {
	case int:
		return v
	case float64:
		return int(v)
	case int64:
		return int(v)
	default:
		return 0
	}
}
