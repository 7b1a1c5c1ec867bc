package research

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rijul21/worms-agent/internal/artifact"
	"github.com/rijul21/worms-agent/internal/config"
	"github.com/rijul21/worms-agent/internal/log"
	"github.com/rijul21/worms-agent/internal/worms"
)

// Client is the slice of the WoRMS client the tool set uses.
type Client interface {
	Get(ctx context.Context, url string) (worms.Payload, error)
	SynonymsURL(id worms.AphiaID, offset int) string
	DistributionsURL(id worms.AphiaID) string
	VernacularsURL(id worms.AphiaID) string
	VernacularSearchURL(name string, like bool) string
	SourcesURL(id worms.AphiaID) string
	RecordURL(id worms.AphiaID) string
	ClassificationURL(id worms.AphiaID) string
	ChildrenURL(id worms.AphiaID, offset int) string
	ExternalIDURL(id worms.AphiaID, typ string) string
	AttributesURL(id worms.AphiaID) string
	AttributeKeysURL(id int) string
	AttributeValuesURL(categoryID int) string
	RecordsByDateURL(start, end string, marineOnly, extantOnly bool, offset int) string
}

// Resolver is the slice of the identifier resolver the tool set uses.
type Resolver interface {
	Resolve(ctx context.Context, name string) (worms.AphiaID, bool)
	ResolveBatch(ctx context.Context, names []string, timeout time.Duration) map[string]worms.AphiaID
}

// Service executes the data tools. Every invocation goes through the
// session's call tracker, so within one request a given (tool, arguments)
// pair reaches the remote service at most once. Tool results are always
// plain text; errors of any kind degrade to a one-line string and are
// memoized like successes.
type Service struct {
	client   Client
	resolver Resolver
	cfg      *config.Config
	logger   log.Logger
	catalog  []Category
}

// NewService builds the tool service.
func NewService(client Client, resolver Resolver, cfg *config.Config, logger log.Logger) *Service {
	return &Service{
		client:   client,
		resolver: resolver,
		cfg:      cfg,
		logger:   logger,
		catalog:  Catalog(),
	}
}

// Catalog returns the list-shaped tool table.
func (s *Service) Catalog() []Category {
	return s.catalog
}

// CategoryByTool finds a catalog entry by tool name.
func (s *Service) CategoryByTool(tool string) (Category, bool) {
	for _, cat := range s.catalog {
		if cat.Tool == tool {
			return cat, true
		}
	}
	return Category{}, false
}

// Resolver exposes the identifier resolver for the orchestrator's batch
// priming step.
func (s *Service) Resolver() Resolver {
	return s.resolver
}

// RunCategory executes one list-shaped tool through the call tracker.
func (s *Service) RunCategory(ctx context.Context, sess *Session, cat Category, args map[string]any) string {
	key := CallKey(cat.Tool, args)
	result, err := sess.Tracker.Do(ctx, key, func(ctx context.Context) string {
		return s.execCategory(ctx, sess, cat, args)
	})
	if err != nil {
		return fmt.Sprintf("Error retrieving %s: %v", cat.Noun, err)
	}
	return result
}

func (s *Service) execCategory(ctx context.Context, sess *Session, cat Category, args map[string]any) string {
	subject := cat.Subject(args)

	var id worms.AphiaID
	if cat.Species {
		name, _ := args["scientific_name"].(string)
		var ok bool
		id, ok = s.resolver.Resolve(ctx, name)
		if !ok {
			s.logger.Info("species not found",
				"category", log.CategoryTool,
				"tool", cat.Tool,
				"name", name)
			return fmt.Sprintf("Species '%s' not found in WoRMS database.", name)
		}
	}

	records, urls, truncated, err := s.fetch(ctx, cat, id, args)
	if err != nil {
		s.logger.Warn("tool call failed",
			"category", log.CategoryTool,
			"tool", cat.Tool,
			"error", err)
		return fmt.Sprintf("Error retrieving %s: %v", cat.Noun, err)
	}

	// A canceled request must not emit artifacts or log entries after the
	// cancellation was observed.
	if ctx.Err() != nil {
		return fmt.Sprintf("Error retrieving %s: %v", cat.Noun, ctx.Err())
	}

	if len(records) == 0 {
		_ = sess.Process.Log(ctx, fmt.Sprintf("No %s found for %s", cat.Noun, subject), nil)
		return fmt.Sprintf("No %s found for %s.%s", cat.Noun, subject, cat.EmptyNote)
	}

	total := len(records)
	shown := total
	if cat.Capped && s.cfg.RecordCap > 0 && total > s.cfg.RecordCap {
		shown = s.cfg.RecordCap
	}

	metadata := map[string]any{"count": total}
	if cat.Species {
		metadata["aphia_id"] = int64(id)
		metadata["species"] = subject
	}
	if shown < total {
		metadata["shown"] = shown
	}
	if truncated {
		metadata["truncated"] = true
	}
	if cat.Facets != nil {
		for k, v := range cat.Facets(records) {
			metadata[k] = v
		}
	}

	if _, err := sess.Process.CreateArtifact(ctx, artifact.Draft{
		MimeType:    artifact.MimeTypeJSON,
		Description: fmt.Sprintf("WoRMS %s for %s", cat.Noun, subject),
		SourceURIs:  urls,
		Metadata:    metadata,
	}); err != nil {
		s.logger.Warn("artifact registration failed",
			"category", log.CategoryTool,
			"tool", cat.Tool,
			"error", err)
	}

	_ = sess.Process.Log(ctx, fmt.Sprintf("Retrieved %d %s for %s", total, cat.Noun, subject),
		map[string]any{"count": total, "url": urls[0]})

	return s.summarize(cat, subject, records, total, shown, truncated)
}

// fetch issues the remote call(s) for a category. Paginated categories
// keep requesting with increasing offsets while pages come back full,
// stopping once the record cap is exceeded so a wide query cannot issue an
// unbounded number of remote calls. The third return reports whether
// fetching stopped before the remote data ran out.
func (s *Service) fetch(ctx context.Context, cat Category, id worms.AphiaID, args map[string]any) ([]map[string]any, []string, bool, error) {
	if !cat.Paginated {
		url := cat.BuildURL(s.client, id, args, 1)
		payload, err := s.client.Get(ctx, url)
		if err != nil {
			return nil, nil, false, err
		}
		return payload.Records(), []string{url}, false, nil
	}

	var all []map[string]any
	var urls []string
	for offset := 1; ; offset += worms.PageSize {
		url := cat.BuildURL(s.client, id, args, offset)
		payload, err := s.client.Get(ctx, url)
		if err != nil {
			return nil, nil, false, err
		}
		page := payload.Records()
		all = append(all, page...)
		urls = append(urls, url)
		if len(page) < worms.PageSize {
			return all, urls, false, nil
		}
		if s.cfg.RecordCap > 0 && len(all) > s.cfg.RecordCap {
			return all, urls, true, nil
		}
	}
}

func (s *Service) summarize(cat Category, subject string, records []map[string]any, total, shown int, truncated bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d", total)
	if truncated {
		b.WriteString("+")
	}
	fmt.Fprintf(&b, " %s for %s", cat.Noun, subject)
	if shown < total {
		fmt.Fprintf(&b, " (showing first %d)", shown)
	}
	if cat.Examples != nil {
		if examples := cat.Examples(records); len(examples) > 0 {
			fmt.Fprintf(&b, ". Examples: %s", strings.Join(examples, ", "))
		}
	}
	b.WriteString(". Full data available in artifact.")
	return b.String()
}

// TaxonomicRecord executes the single-object record tool. Unlike the
// list-shaped categories, a non-object response here is a failure, not an
// empty result.
func (s *Service) TaxonomicRecord(ctx context.Context, sess *Session, name string) string {
	args := map[string]any{"scientific_name": name}
	key := CallKey(ToolTaxonomicRecord, args)
	result, err := sess.Tracker.Do(ctx, key, func(ctx context.Context) string {
		return s.execRecord(ctx, sess, name)
	})
	if err != nil {
		return fmt.Sprintf("Error retrieving taxonomic record: %v", err)
	}
	return result
}

func (s *Service) execRecord(ctx context.Context, sess *Session, name string) string {
	id, ok := s.resolver.Resolve(ctx, name)
	if !ok {
		s.logger.Info("species not found",
			"category", log.CategoryTool,
			"tool", ToolTaxonomicRecord,
			"name", name)
		return fmt.Sprintf("Species '%s' not found in WoRMS database.", name)
	}

	url := s.client.RecordURL(id)
	payload, err := s.client.Get(ctx, url)
	if err != nil {
		s.logger.Warn("tool call failed",
			"category", log.CategoryTool,
			"tool", ToolTaxonomicRecord,
			"error", err)
		return fmt.Sprintf("Error retrieving taxonomic record: %v", err)
	}
	if payload.Kind != worms.KindObject {
		return "Error retrieving taxonomic record: unexpected response format"
	}
	if ctx.Err() != nil {
		return fmt.Sprintf("Error retrieving taxonomic record: %v", ctx.Err())
	}

	rec := worms.ParseRecord(payload.Object)

	if _, err := sess.Process.CreateArtifact(ctx, artifact.Draft{
		MimeType:    artifact.MimeTypeJSON,
		Description: fmt.Sprintf("WoRMS taxonomic record for %s", name),
		SourceURIs:  []string{url},
		Metadata: map[string]any{
			"aphia_id": int64(id),
			"species":  name,
			"rank":     rec.Rank,
			"status":   rec.Status,
		},
	}); err != nil {
		s.logger.Warn("artifact registration failed",
			"category", log.CategoryTool,
			"tool", ToolTaxonomicRecord,
			"error", err)
	}

	_ = sess.Process.Log(ctx, fmt.Sprintf("Retrieved taxonomic record for %s", name),
		map[string]any{"aphia_id": int64(id), "url": url})

	return fmt.Sprintf(
		"Retrieved taxonomic record for %s (AphiaID %d): rank %s, status %s, kingdom %s, family %s. Full data available in artifact.",
		rec.ScientificName, rec.AphiaID, rec.Rank, rec.Status, rec.Kingdom, rec.Family)
}
