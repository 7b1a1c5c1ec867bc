package research

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rijul21/worms-agent/internal/config"
	"github.com/rijul21/worms-agent/internal/conversation"
	"github.com/rijul21/worms-agent/internal/log"
	"github.com/rijul21/worms-agent/internal/worms"
)

// stubClient implements Client with deterministic synthetic URLs and a
// per-URL response script.
type stubClient struct {
	mu      sync.Mutex
	calls   map[string]int
	respond map[string]worms.Payload
	errs    map[string]error
}

func newStubClient() *stubClient {
	return &stubClient{
		calls:   make(map[string]int),
		respond: make(map[string]worms.Payload),
		errs:    make(map[string]error),
	}
}

func (c *stubClient) Get(ctx context.Context, url string) (worms.Payload, error) {
	c.mu.Lock()
	c.calls[url]++
	c.mu.Unlock()
	if err, ok := c.errs[url]; ok {
		return worms.Payload{}, err
	}
	if p, ok := c.respond[url]; ok {
		return p, nil
	}
	return worms.Payload{Kind: worms.KindEmpty}, nil
}

func (c *stubClient) callCount(url string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[url]
}

func (c *stubClient) totalCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, n := range c.calls {
		total += n
	}
	return total
}

func (c *stubClient) SynonymsURL(id worms.AphiaID, offset int) string {
	return fmt.Sprintf("synonyms/%d?offset=%d", id, offset)
}
func (c *stubClient) DistributionsURL(id worms.AphiaID) string {
	return fmt.Sprintf("distributions/%d", id)
}
func (c *stubClient) VernacularsURL(id worms.AphiaID) string {
	return fmt.Sprintf("vernaculars/%d", id)
}
func (c *stubClient) VernacularSearchURL(name string, like bool) string {
	return "vernacular-search/" + name
}
func (c *stubClient) SourcesURL(id worms.AphiaID) string {
	return fmt.Sprintf("sources/%d", id)
}
func (c *stubClient) RecordURL(id worms.AphiaID) string {
	return fmt.Sprintf("record/%d", id)
}
func (c *stubClient) ClassificationURL(id worms.AphiaID) string {
	return fmt.Sprintf("classification/%d", id)
}
func (c *stubClient) ChildrenURL(id worms.AphiaID, offset int) string {
	return fmt.Sprintf("children/%d?offset=%d", id, offset)
}
func (c *stubClient) ExternalIDURL(id worms.AphiaID, typ string) string {
	return fmt.Sprintf("external/%d?type=%s", id, typ)
}
func (c *stubClient) AttributesURL(id worms.AphiaID) string {
	return fmt.Sprintf("attributes/%d", id)
}
func (c *stubClient) AttributeKeysURL(id int) string {
	return fmt.Sprintf("attribute-keys/%d", id)
}
func (c *stubClient) AttributeValuesURL(categoryID int) string {
	return fmt.Sprintf("attribute-values/%d", categoryID)
}
func (c *stubClient) RecordsByDateURL(start, end string, marineOnly, extantOnly bool, offset int) string {
	return fmt.Sprintf("changes?start=%s&offset=%d", start, offset)
}

// The next two builders make stubClient usable behind the real identifier
// resolver as well.
func (c *stubClient) RecordsByNameURL(name string, like, marineOnly bool) string {
	return "records-by-name/" + name
}
func (c *stubClient) MatchNamesURL(names []string, marineOnly bool) string {
	return "match-names/" + strings.Join(names, ",")
}

// stubResolver resolves from a fixed table and counts lookups.
type stubResolver struct {
	mu           sync.Mutex
	ids          map[string]worms.AphiaID
	resolveCalls int
	batchCalls   int
}

func (r *stubResolver) Resolve(ctx context.Context, name string) (worms.AphiaID, bool) {
	r.mu.Lock()
	r.resolveCalls++
	r.mu.Unlock()
	id, ok := r.ids[name]
	return id, ok
}

func (r *stubResolver) ResolveBatch(ctx context.Context, names []string, timeout time.Duration) map[string]worms.AphiaID {
	r.mu.Lock()
	r.batchCalls++
	r.mu.Unlock()
	out := make(map[string]worms.AphiaID)
	for _, n := range names {
		if id, ok := r.ids[n]; ok {
			out[n] = id
		}
	}
	return out
}

func listOf(n int, field string) worms.Payload {
	records := make([]map[string]any, n)
	for i := range records {
		records[i] = map[string]any{field: fmt.Sprintf("%s %d", field, i)}
	}
	return worms.Payload{Kind: worms.KindList, List: records}
}

type serviceFixture struct {
	svc      *Service
	client   *stubClient
	resolver *stubResolver
	sess     *Session
	recorder *conversation.Recorder
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	client := newStubClient()
	res := &stubResolver{ids: map[string]worms.AphiaID{"Orcinus orca": 137102}}
	svc := NewService(client, res, config.Default(), log.NewNop())

	recorder := conversation.NewRecorder()
	proc, err := recorder.BeginProcess(context.Background(), "Researching: test")
	require.NoError(t, err)

	return &serviceFixture{
		svc:      svc,
		client:   client,
		resolver: res,
		sess:     NewSession(proc, log.NewNop()),
		recorder: recorder,
	}
}

func (f *serviceFixture) category(t *testing.T, tool string) Category {
	t.Helper()
	cat, ok := f.svc.CategoryByTool(tool)
	require.True(t, ok, "catalog entry for %s", tool)
	return cat
}

func TestRunCategorySynonyms(t *testing.T) {
	t.Parallel()

	t.Run("reports count and creates one artifact", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)
		f.client.respond["synonyms/137102?offset=1"] = listOf(12, "scientificname")

		got := f.svc.RunCategory(context.Background(), f.sess,
			f.category(t, ToolSpeciesSynonyms),
			map[string]any{"scientific_name": "Orcinus orca"})

		assert.Contains(t, got, "Found 12 synonyms for Orcinus orca")
		assert.Contains(t, got, "Full data available in artifact.")

		artifacts := f.recorder.Artifacts()
		require.Len(t, artifacts, 1)
		assert.Equal(t, 12, artifacts[0].Metadata["count"])
		assert.Equal(t, int64(137102), artifacts[0].Metadata["aphia_id"])
		assert.Equal(t, "Orcinus orca", artifacts[0].Metadata["species"])
	})

	t.Run("same call twice issues one remote call", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)
		f.client.respond["synonyms/137102?offset=1"] = listOf(12, "scientificname")
		args := map[string]any{"scientific_name": "Orcinus orca"}
		cat := f.category(t, ToolSpeciesSynonyms)

		first := f.svc.RunCategory(context.Background(), f.sess, cat, args)
		second := f.svc.RunCategory(context.Background(), f.sess, cat, args)

		assert.Equal(t, first, second)
		assert.Equal(t, 1, f.client.callCount("synonyms/137102?offset=1"))
		assert.Len(t, f.recorder.Artifacts(), 1)
	})

	t.Run("paginates until a partial page", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)
		f.client.respond["synonyms/137102?offset=1"] = listOf(50, "scientificname")
		f.client.respond["synonyms/137102?offset=51"] = listOf(20, "scientificname")

		got := f.svc.RunCategory(context.Background(), f.sess,
			f.category(t, ToolSpeciesSynonyms),
			map[string]any{"scientific_name": "Orcinus orca"})

		assert.Contains(t, got, "Found 70 synonyms")
		assert.Equal(t, 1, f.client.callCount("synonyms/137102?offset=1"))
		assert.Equal(t, 1, f.client.callCount("synonyms/137102?offset=51"))
		assert.Equal(t, 0, f.client.callCount("synonyms/137102?offset=101"))

		artifacts := f.recorder.Artifacts()
		require.Len(t, artifacts, 1)
		assert.Len(t, artifacts[0].SourceURIs, 2)
	})
}

func TestRunCategoryNotFound(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	for _, tool := range []string{ToolSpeciesSynonyms, ToolSpeciesDistribution, ToolSpeciesAttributes} {
		got := f.svc.RunCategory(context.Background(), f.sess,
			f.category(t, tool),
			map[string]any{"scientific_name": "Fakeus nonexistentus"})
		assert.Equal(t, "Species 'Fakeus nonexistentus' not found in WoRMS database.", got)
	}

	// Resolution failed, so nothing reached the remote service.
	assert.Zero(t, f.client.totalCalls())
	assert.Empty(t, f.recorder.Artifacts())
}

func TestRunCategoryCardinality(t *testing.T) {
	t.Parallel()

	t.Run("empty list yields no-data message and no artifact", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)
		f.client.respond["distributions/137102"] = worms.Payload{Kind: worms.KindList, List: []map[string]any{}}

		got := f.svc.RunCategory(context.Background(), f.sess,
			f.category(t, ToolSpeciesDistribution),
			map[string]any{"scientific_name": "Orcinus orca"})

		assert.Equal(t, "No distribution records found for Orcinus orca.", got)
		assert.Empty(t, f.recorder.Artifacts())
	})

	t.Run("bare object counts like a one-element list", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)
		f.client.respond["distributions/137102"] = worms.Payload{
			Kind:   worms.KindObject,
			Object: map[string]any{"locality": "North Atlantic"},
		}

		got := f.svc.RunCategory(context.Background(), f.sess,
			f.category(t, ToolSpeciesDistribution),
			map[string]any{"scientific_name": "Orcinus orca"})

		assert.Contains(t, got, "Found 1 distribution records for Orcinus orca")
	})

	t.Run("children empty result is annotated as normal", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)

		got := f.svc.RunCategory(context.Background(), f.sess,
			f.category(t, ToolChildTaxa),
			map[string]any{"scientific_name": "Orcinus orca"})

		assert.Equal(t, "No child taxa found for Orcinus orca. (this is normal for species without subspecies)", got)
	})
}

func TestRunCategoryErrors(t *testing.T) {
	t.Parallel()

	t.Run("transport failure degrades and memoizes", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)
		f.client.errs["sources/137102"] = errors.New("connection refused")
		args := map[string]any{"scientific_name": "Orcinus orca"}
		cat := f.category(t, ToolLiteratureSources)

		first := f.svc.RunCategory(context.Background(), f.sess, cat, args)
		second := f.svc.RunCategory(context.Background(), f.sess, cat, args)

		assert.Contains(t, first, "Error retrieving literature sources:")
		assert.Equal(t, first, second)
		assert.Equal(t, 1, f.client.callCount("sources/137102"))
		assert.Empty(t, f.recorder.Artifacts())
	})

	t.Run("canceled context emits no artifact", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)
		ctx, cancel := context.WithCancel(context.Background())
		f.client.respond["vernaculars/137102"] = listOf(3, "vernacular")
		cancel()

		got := f.svc.RunCategory(ctx, f.sess,
			f.category(t, ToolCommonNames),
			map[string]any{"scientific_name": "Orcinus orca"})

		assert.Contains(t, got, "Error retrieving common names:")
		assert.Empty(t, f.recorder.Artifacts())
	})
}

func TestAttributeDefinitionsMemoized(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	f.client.respond["attribute-keys/0"] = listOf(7, "measurementType")
	cat := f.category(t, ToolAttributeDefinitions)

	first := f.svc.RunCategory(context.Background(), f.sess, cat, map[string]any{"id": 0})
	second := f.svc.RunCategory(context.Background(), f.sess, cat, map[string]any{"id": 0})

	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.client.callCount("attribute-keys/0"))
}

func TestRecentChangesCap(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	f.client.respond["changes?start=2024-01-01&offset=1"] = listOf(50, "scientificname")
	f.client.respond["changes?start=2024-01-01&offset=51"] = listOf(30, "scientificname")

	got := f.svc.RunCategory(context.Background(), f.sess,
		f.category(t, ToolRecentChanges),
		map[string]any{"start_date": "2024-01-01", "end_date": "", "marine_only": true, "extant_only": false})

	assert.Contains(t, got, "Found 80 recent changes for the period since 2024-01-01")
	assert.Contains(t, got, "(showing first 50)")

	artifacts := f.recorder.Artifacts()
	require.Len(t, artifacts, 1)
	assert.Equal(t, 80, artifacts[0].Metadata["count"])
	assert.Equal(t, 50, artifacts[0].Metadata["shown"])
}

func TestRecentChangesPaginationBound(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	f.client.respond["changes?start=2024-01-01&offset=1"] = listOf(50, "scientificname")
	f.client.respond["changes?start=2024-01-01&offset=51"] = listOf(50, "scientificname")
	f.client.respond["changes?start=2024-01-01&offset=101"] = listOf(50, "scientificname")

	got := f.svc.RunCategory(context.Background(), f.sess,
		f.category(t, ToolRecentChanges),
		map[string]any{"start_date": "2024-01-01", "end_date": "", "marine_only": true, "extant_only": false})

	// Fetching stops once the cap is exceeded; the total is reported as
	// open-ended instead of issuing further remote calls.
	assert.Contains(t, got, "Found 100+ recent changes")
	assert.Contains(t, got, "(showing first 50)")
	assert.Equal(t, 1, f.client.callCount("changes?start=2024-01-01&offset=51"))
	assert.Equal(t, 0, f.client.callCount("changes?start=2024-01-01&offset=101"))

	artifacts := f.recorder.Artifacts()
	require.Len(t, artifacts, 1)
	assert.Equal(t, 100, artifacts[0].Metadata["count"])
	assert.Equal(t, 50, artifacts[0].Metadata["shown"])
	assert.Equal(t, true, artifacts[0].Metadata["truncated"])
}

func TestCommonNameSearch(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	f.client.respond["vernacular-search/killer whale"] = worms.Payload{
		Kind: worms.KindList,
		List: []map[string]any{{"AphiaID": float64(137102), "scientificname": "Orcinus orca"}},
	}

	got := f.svc.RunCategory(context.Background(), f.sess,
		f.category(t, ToolSearchCommonName),
		map[string]any{"common_name": "killer whale"})

	assert.Contains(t, got, `Found 1 matching species for common name "killer whale"`)
	assert.Contains(t, got, "Examples: Orcinus orca")
	// No species resolution happens for a free-text search.
	assert.Zero(t, f.resolver.resolveCalls)
}

func TestVernacularFacets(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	f.client.respond["vernaculars/137102"] = worms.Payload{
		Kind: worms.KindList,
		List: []map[string]any{
			{"vernacular": "killer whale", "language": "English"},
			{"vernacular": "orque", "language": "French"},
			{"vernacular": "orca", "language": "English"},
		},
	}

	_ = f.svc.RunCategory(context.Background(), f.sess,
		f.category(t, ToolCommonNames),
		map[string]any{"scientific_name": "Orcinus orca"})

	artifacts := f.recorder.Artifacts()
	require.Len(t, artifacts, 1)
	assert.ElementsMatch(t, []string{"English", "French"}, artifacts[0].Metadata["languages"])
}

func TestTaxonomicRecord(t *testing.T) {
	t.Parallel()

	t.Run("summarizes the record", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)
		f.client.respond["record/137102"] = worms.Payload{
			Kind: worms.KindObject,
			Object: map[string]any{
				"AphiaID":        float64(137102),
				"scientificname": "Orcinus orca",
				"rank":           "Species",
				"status":         "accepted",
				"kingdom":        "Animalia",
				"family":         "Delphinidae",
			},
		}

		got := f.svc.TaxonomicRecord(context.Background(), f.sess, "Orcinus orca")
		assert.Contains(t, got, "Retrieved taxonomic record for Orcinus orca (AphiaID 137102)")
		assert.Contains(t, got, "rank Species")
		assert.Contains(t, got, "status accepted")

		artifacts := f.recorder.Artifacts()
		require.Len(t, artifacts, 1)
		assert.Equal(t, "Species", artifacts[0].Metadata["rank"])
	})

	t.Run("non-object response is a format failure", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)
		f.client.respond["record/137102"] = listOf(2, "scientificname")

		got := f.svc.TaxonomicRecord(context.Background(), f.sess, "Orcinus orca")
		assert.Equal(t, "Error retrieving taxonomic record: unexpected response format", got)
		assert.Empty(t, f.recorder.Artifacts())
	})

	t.Run("unknown species never fetches", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)

		got := f.svc.TaxonomicRecord(context.Background(), f.sess, "Fakeus nonexistentus")
		assert.Equal(t, "Species 'Fakeus nonexistentus' not found in WoRMS database.", got)
		assert.Zero(t, f.client.totalCalls())
	})
}

func TestCatalogShape(t *testing.T) {
	t.Parallel()

	catalog := Catalog()
	assert.Len(t, catalog, 12)

	seen := make(map[string]bool)
	for _, cat := range catalog {
		assert.False(t, seen[cat.Tool], "duplicate tool %s", cat.Tool)
		seen[cat.Tool] = true
		assert.NotEmpty(t, cat.Noun)
		assert.NotEmpty(t, cat.Description)
		assert.NotNil(t, cat.Subject)
		assert.NotNil(t, cat.BuildURL)
	}
}
