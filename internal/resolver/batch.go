package resolver

import (
	"context"
	"time"

	"github.com/rijul21/worms-agent/internal/log"
	"github.com/rijul21/worms-agent/internal/worms"
)

// ResolveBatch resolves several names with one bulk matching call and
// primes the cache with every outcome, misses included. The call runs
// under its own deadline; on timeout, transport failure or a response that
// does not carry exactly one match group per input name, the batch
// degrades to an empty map and per-name resolution takes over later.
func (r *Resolver) ResolveBatch(ctx context.Context, names []string, timeout time.Duration) map[string]worms.AphiaID {
	if len(names) == 0 {
		return map[string]worms.AphiaID{}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := r.client.MatchNamesURL(names, true)
	payload, err := r.client.Get(ctx, url)
	if err != nil {
		r.logger.Warn("batch name matching failed",
			"category", log.CategoryCache,
			"names", len(names),
			"error", err)
		return map[string]worms.AphiaID{}
	}

	groups := payload.Groups
	if payload.Kind != worms.KindGroups || len(groups) != len(names) {
		// An empty (204) response also lands here: without one group per
		// input there is no safe way to attribute matches to names.
		if payload.Kind != worms.KindEmpty {
			r.logger.Warn("batch name matching returned unexpected shape",
				"category", log.CategoryCache,
				"kind", payload.Kind,
				"groups", len(groups),
				"names", len(names))
		}
		return map[string]worms.AphiaID{}
	}

	resolved := make(map[string]worms.AphiaID, len(names))
	for i, name := range names {
		if len(groups[i]) == 0 {
			r.Prime(name, 0, false)
			r.logger.Info("species not found",
				"category", log.CategoryCache,
				"name", name)
			continue
		}

		rec := worms.ParseRecord(groups[i][0])
		if rec.AphiaID == 0 {
			r.Prime(name, 0, false)
			continue
		}

		r.Prime(name, rec.AphiaID, true)
		resolved[name] = rec.AphiaID
		r.logger.Debug("batch resolved name",
			"category", log.CategoryCache,
			"name", name,
			"aphia_id", rec.AphiaID,
			"match_type", rec.MatchType)
	}

	return resolved
}
