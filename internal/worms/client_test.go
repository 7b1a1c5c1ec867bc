package worms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rijul21/worms-agent/internal/config"
	"github.com/rijul21/worms-agent/internal/log"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.BaseURL = server.URL
	return NewClient(cfg, log.NewNop())
}

func TestDecodePayload(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		kind Kind
	}{
		{name: "empty body", body: "", kind: KindEmpty},
		{name: "whitespace body", body: "  \n", kind: KindEmpty},
		{name: "object", body: `{"AphiaID": 127160}`, kind: KindObject},
		{name: "list of objects", body: `[{"a":1},{"b":2}]`, kind: KindList},
		{name: "empty list", body: `[]`, kind: KindList},
		{name: "list of scalars", body: `[1,2,3]`, kind: KindMalformed},
		{name: "mixed list", body: `[{"a":1}, 2]`, kind: KindMalformed},
		{name: "grouped lists", body: `[[{"a":1}],[]]`, kind: KindGroups},
		{name: "bare string", body: `"nope"`, kind: KindMalformed},
		{name: "invalid json", body: `{broken`, kind: KindMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := decodePayload([]byte(tt.body))
			assert.Equal(t, tt.kind, p.Kind)
		})
	}
}

func TestPayloadRecords(t *testing.T) {
	t.Parallel()

	t.Run("bare object becomes one-element list", func(t *testing.T) {
		t.Parallel()
		p := decodePayload([]byte(`{"AphiaID": 1}`))
		records := p.Records()
		require.Len(t, records, 1)
		assert.Equal(t, float64(1), records[0]["AphiaID"])
	})

	t.Run("empty payload yields no records", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, Payload{Kind: KindEmpty}.Records())
	})

	t.Run("malformed payload yields no records", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, Payload{Kind: KindMalformed}.Records())
	})

	t.Run("list passes through", func(t *testing.T) {
		t.Parallel()
		p := decodePayload([]byte(`[{"a":1},{"b":2}]`))
		assert.Len(t, p.Records(), 2)
	})
}

func TestClientGet(t *testing.T) {
	t.Parallel()

	t.Run("decodes object response", func(t *testing.T) {
		t.Parallel()
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"AphiaID": 127160, "scientificname": "Scomber scombrus"}`))
		}))

		p, err := client.Get(context.Background(), client.RecordURL(127160))
		require.NoError(t, err)
		assert.Equal(t, KindObject, p.Kind)
		assert.Equal(t, "Scomber scombrus", p.Object["scientificname"])
	})

	t.Run("204 decodes as empty", func(t *testing.T) {
		t.Parallel()
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

		p, err := client.Get(context.Background(), client.DistributionsURL(1))
		require.NoError(t, err)
		assert.Equal(t, KindEmpty, p.Kind)
	})

	t.Run("non-2xx is an error", func(t *testing.T) {
		t.Parallel()
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))

		_, err := client.Get(context.Background(), client.SourcesURL(1))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected status 500")
	})

	t.Run("canceled context aborts", func(t *testing.T) {
		t.Parallel()
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[]`))
		}))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := client.Get(ctx, client.VernacularsURL(1))
		require.Error(t, err)
	})
}

func TestURLBuilders(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.BaseURL = "https://example.org/rest/"
	client := NewClient(cfg, log.NewNop())

	t.Run("trailing slash trimmed", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "https://example.org/rest/AphiaRecordByAphiaID/42", client.RecordURL(42))
	})

	t.Run("name path escaped", func(t *testing.T) {
		t.Parallel()
		u := client.RecordsByNameURL("Scomber scombrus", false, true)
		assert.Contains(t, u, "/AphiaRecordsByName/Scomber%20scombrus")
		assert.Contains(t, u, "like=false")
		assert.Contains(t, u, "marine_only=true")
	})

	t.Run("match names carries every input", func(t *testing.T) {
		t.Parallel()
		u := client.MatchNamesURL([]string{"Orcinus orca", "Delphinus delphis"}, true)
		assert.Contains(t, u, "scientificnames%5B%5D=Orcinus+orca")
		assert.Contains(t, u, "scientificnames%5B%5D=Delphinus+delphis")
	})

	t.Run("synonyms offset", func(t *testing.T) {
		t.Parallel()
		assert.Contains(t, client.SynonymsURL(7, 51), "AphiaSynonymsByAphiaID/7?offset=51")
	})

	t.Run("records by date omits empty end date", func(t *testing.T) {
		t.Parallel()
		u := client.RecordsByDateURL("2024-01-01", "", true, false, 1)
		assert.Contains(t, u, "startdate=2024-01-01")
		assert.NotContains(t, u, "enddate")
		assert.NotContains(t, u, "extant_only")
	})
}

func TestParseRecord(t *testing.T) {
	t.Parallel()

	obj := map[string]any{
		"AphiaID":        float64(127160),
		"scientificname": "Scomber scombrus",
		"status":         "accepted",
		"rank":           "Species",
		"kingdom":        "Animalia",
		"family":         "Scombridae",
		"match_type":     "exact",
		"isMarine":       float64(1),
		"isExtinct":      float64(0),
	}

	rec := ParseRecord(obj)
	assert.Equal(t, AphiaID(127160), rec.AphiaID)
	assert.Equal(t, "Scomber scombrus", rec.ScientificName)
	assert.Equal(t, "accepted", rec.Status)
	assert.Equal(t, "exact", rec.MatchType)
	assert.True(t, rec.IsMarine)
	assert.False(t, rec.IsExtinct)
}
