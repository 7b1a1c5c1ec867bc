// Package worms is a thin client for the WoRMS (World Register of Marine
// Species) public REST API. It owns the HTTP boundary: URL construction,
// outbound rate limiting, a bounded concurrency gate, the per-call timeout,
// and the single point where response bodies are decoded into tagged
// payloads.
package worms

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/rijul21/worms-agent/internal/config"
	"github.com/rijul21/worms-agent/internal/log"
)

// PageSize is the fixed page size WoRMS uses for paginated endpoints
// (synonyms, children, records-by-date). Offsets are 1-based record
// indices.
const PageSize = 50

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 16 << 20

// Client issues read-only requests against a WoRMS REST endpoint.
type Client struct {
	baseURL string
	httpc   *http.Client
	limiter *rate.Limiter
	sem     chan struct{}
	logger  log.Logger
}

// NewClient builds a client from configuration. The base URL, request
// timeout, rate limit and concurrency bound all come from cfg; tests point
// BaseURL at an httptest server.
func NewClient(cfg *config.Config, logger log.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpc:   &http.Client{Timeout: cfg.RequestTimeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst),
		sem:     make(chan struct{}, cfg.MaxConcurrent),
		logger:  logger,
	}
}

// Get fetches a WoRMS URL and decodes the body into a tagged Payload.
// A 204 status decodes as KindEmpty. Any non-2xx status is an error;
// callers degrade errors to user-facing text, they never panic.
func (c *Client) Get(ctx context.Context, rawURL string) (Payload, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Payload{}, fmt.Errorf("rate limit wait: %w", err)
	}

	select {
	case c.sem <- struct{}{}:
		defer func() { <-c.sem }()
	case <-ctx.Done():
		return Payload{}, ctx.Err()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Payload{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return Payload{}, fmt.Errorf("calling WoRMS: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("WoRMS API call",
		"category", log.CategoryTool,
		"url", rawURL,
		"status", resp.StatusCode)

	if resp.StatusCode == http.StatusNoContent {
		return Payload{Kind: KindEmpty}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Payload{}, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Payload{}, fmt.Errorf("reading response body: %w", err)
	}

	return decodePayload(body), nil
}

// ============ URL builders ============
//
// Each builder returns the full request URL. The URL doubles as the
// artifact source URI, so builders are exported and deterministic.

// RecordsByNameURL searches records by scientific name.
func (c *Client) RecordsByNameURL(name string, like, marineOnly bool) string {
	q := url.Values{}
	q.Set("like", strconv.FormatBool(like))
	q.Set("marine_only", strconv.FormatBool(marineOnly))
	return c.baseURL + "/AphiaRecordsByName/" + url.PathEscape(name) + "?" + q.Encode()
}

// MatchNamesURL performs fuzzy batch matching of scientific names.
func (c *Client) MatchNamesURL(names []string, marineOnly bool) string {
	q := url.Values{}
	for _, n := range names {
		q.Add("scientificnames[]", n)
	}
	q.Set("marine_only", strconv.FormatBool(marineOnly))
	return c.baseURL + "/AphiaRecordsByMatchNames?" + q.Encode()
}

// SynonymsURL lists synonyms for a taxon, paginated. offset is 1-based.
func (c *Client) SynonymsURL(id AphiaID, offset int) string {
	return fmt.Sprintf("%s/AphiaSynonymsByAphiaID/%d?offset=%d", c.baseURL, id, offset)
}

// DistributionsURL lists geographic distribution records for a taxon.
func (c *Client) DistributionsURL(id AphiaID) string {
	return fmt.Sprintf("%s/AphiaDistributionsByAphiaID/%d", c.baseURL, id)
}

// VernacularsURL lists common names recorded for a taxon.
func (c *Client) VernacularsURL(id AphiaID) string {
	return fmt.Sprintf("%s/AphiaVernacularsByAphiaID/%d", c.baseURL, id)
}

// VernacularSearchURL searches taxa by common name.
func (c *Client) VernacularSearchURL(name string, like bool) string {
	q := url.Values{}
	q.Set("like", strconv.FormatBool(like))
	return c.baseURL + "/AphiaRecordsByVernacular/" + url.PathEscape(name) + "?" + q.Encode()
}

// SourcesURL lists literature sources for a taxon.
func (c *Client) SourcesURL(id AphiaID) string {
	return fmt.Sprintf("%s/AphiaSourcesByAphiaID/%d", c.baseURL, id)
}

// RecordURL fetches the full taxonomic record for a taxon.
func (c *Client) RecordURL(id AphiaID) string {
	return fmt.Sprintf("%s/AphiaRecordByAphiaID/%d", c.baseURL, id)
}

// ClassificationURL fetches the classification hierarchy for a taxon.
func (c *Client) ClassificationURL(id AphiaID) string {
	return fmt.Sprintf("%s/AphiaClassificationByAphiaID/%d", c.baseURL, id)
}

// ChildrenURL lists direct child taxa. offset is 1-based.
func (c *Client) ChildrenURL(id AphiaID, offset int) string {
	return fmt.Sprintf("%s/AphiaChildrenByAphiaID/%d?marine_only=true&offset=%d", c.baseURL, id, offset)
}

// ExternalIDURL lists identifiers in an external database (e.g. "fishbase",
// "ncbi", "itis").
func (c *Client) ExternalIDURL(id AphiaID, typ string) string {
	q := url.Values{}
	q.Set("type", typ)
	return fmt.Sprintf("%s/AphiaExternalIDByAphiaID/%d?%s", c.baseURL, id, q.Encode())
}

// AttributesURL lists measurement and trait attributes for a taxon,
// including inherited ones.
func (c *Client) AttributesURL(id AphiaID) string {
	return fmt.Sprintf("%s/AphiaAttributesByAphiaID/%d?include_inherited=true", c.baseURL, id)
}

// AttributeKeysURL fetches the attribute definition tree rooted at id.
// id 0 returns the top-level definitions.
func (c *Client) AttributeKeysURL(id int) string {
	return fmt.Sprintf("%s/AphiaAttributeKeysByID/%d?include_children=true", c.baseURL, id)
}

// AttributeValuesURL lists the permitted values for an attribute category.
func (c *Client) AttributeValuesURL(categoryID int) string {
	return fmt.Sprintf("%s/AphiaAttributeValuesByCategoryID/%d", c.baseURL, categoryID)
}

// RecordsByDateURL lists records added or changed in a date range.
// Dates are ISO 8601. offset is 1-based.
func (c *Client) RecordsByDateURL(start, end string, marineOnly, extantOnly bool, offset int) string {
	q := url.Values{}
	q.Set("startdate", start)
	if end != "" {
		q.Set("enddate", end)
	}
	q.Set("marine_only", strconv.FormatBool(marineOnly))
	if extantOnly {
		q.Set("extant_only", "true")
	}
	q.Set("offset", strconv.Itoa(offset))
	return c.baseURL + "/AphiaRecordsByDate?" + q.Encode()
}
