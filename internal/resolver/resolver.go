// Package resolver maps scientific names to WoRMS AphiaIDs. Resolution is
// the hottest path in the agent, so outcomes are cached for the lifetime of
// the process in a bounded LRU, misses included. Lookup failures of any
// kind (transport, decode, no match) degrade to "not found"; the resolver
// never surfaces an error to its callers.
package resolver

import (
	"context"
	"strings"

	"github.com/rijul21/worms-agent/internal/config"
	"github.com/rijul21/worms-agent/internal/log"
	"github.com/rijul21/worms-agent/internal/worms"
)

// Client is the slice of the WoRMS client the resolver uses.
type Client interface {
	Get(ctx context.Context, url string) (worms.Payload, error)
	RecordsByNameURL(name string, like, marineOnly bool) string
	MatchNamesURL(names []string, marineOnly bool) string
}

// Resolver resolves scientific names to AphiaIDs with a process-lifetime
// cache.
type Resolver struct {
	client Client
	cache  *lruCache
	logger log.Logger
}

// New builds a resolver. Cache capacity comes from cfg.CacheCapacity.
func New(client Client, cfg *config.Config, logger log.Logger) *Resolver {
	return &Resolver{
		client: client,
		cache:  newLRUCache(cfg.CacheCapacity),
		logger: logger,
	}
}

// normalize is the cache key function: lower-cased, whitespace-trimmed.
func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Resolve returns the AphiaID for a scientific name. The second return is
// false when the name is unknown to WoRMS or the lookup failed.
func (r *Resolver) Resolve(ctx context.Context, name string) (worms.AphiaID, bool) {
	key := normalize(name)
	if key == "" {
		return 0, false
	}

	if cached, ok := r.cache.get(key); ok {
		r.logger.Debug("cache hit",
			"category", log.CategoryCache,
			"name", name,
			"found", cached.found)
		return worms.AphiaID(cached.id), cached.found
	}

	id, found := r.lookup(ctx, name)
	r.cache.put(key, entry{id: int64(id), found: found})
	return id, found
}

// lookup performs the remote search. The first returned record wins.
func (r *Resolver) lookup(ctx context.Context, name string) (worms.AphiaID, bool) {
	url := r.client.RecordsByNameURL(name, false, true)
	payload, err := r.client.Get(ctx, url)
	if err != nil {
		r.logger.Warn("name lookup failed",
			"category", log.CategoryCache,
			"name", name,
			"error", err)
		return 0, false
	}

	records := payload.Records()
	if len(records) == 0 {
		r.logger.Info("species not found",
			"category", log.CategoryCache,
			"name", name)
		return 0, false
	}

	rec := worms.ParseRecord(records[0])
	if rec.AphiaID == 0 {
		return 0, false
	}

	r.logger.Debug("resolved name",
		"category", log.CategoryCache,
		"name", name,
		"aphia_id", rec.AphiaID)
	return rec.AphiaID, true
}

// Prime inserts a known resolution, bypassing the remote lookup. Used by
// the batch resolver to warm the cache.
func (r *Resolver) Prime(name string, id worms.AphiaID, found bool) {
	key := normalize(name)
	if key == "" {
		return
	}
	r.cache.put(key, entry{id: int64(id), found: found})
}

// CacheLen reports the number of cached names. Exposed for tests.
func (r *Resolver) CacheLen() int {
	return r.cache.len()
}
