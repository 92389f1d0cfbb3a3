package coingecko

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"crypto-pulse/internal/clients/cache"
	"crypto-pulse/internal/services/watchlist"
)

// Cached decorates a MarketData source with short-lived Redis entries.
// Cache failures fall through to the source.
type Cached struct {
	next  watchlist.MarketData
	cache *cache.Client
	ttl   time.Duration
}

// NewCached wraps next. A nil cache or non-positive ttl returns next unchanged.
func NewCached(next watchlist.MarketData, c *cache.Client, ttl time.Duration) watchlist.MarketData {
	if c == nil || ttl <= 0 {
		return next
	}
	return &Cached{next: next, cache: c, ttl: ttl}
}

// Markets serves the snapshot for the id set from cache when fresh.
func (c *Cached) Markets(ctx context.Context, ids []string) ([]watchlist.Coin, error) {
	key := marketsKey(ids)

	var coins []watchlist.Coin
	if c.load(ctx, key, &coins) {
		return coins, nil
	}

	coins, err := c.next.Markets(ctx, ids)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, coins)
	return coins, nil
}

// Search serves candidates for query from cache when fresh.
func (c *Cached) Search(ctx context.Context, query string) ([]watchlist.Candidate, error) {
	key := "cg:search:" + query

	var hits []watchlist.Candidate
	if c.load(ctx, key, &hits) {
		return hits, nil
	}

	hits, err := c.next.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, hits)
	return hits, nil
}

func (c *Cached) load(ctx context.Context, key string, out any) bool {
	raw := c.cache.Get(ctx, key)
	if raw == nil {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		// unreadable entries are evicted so the next call refills them
		c.cache.Delete(ctx, key)
		return false
	}
	return true
}

func (c *Cached) store(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.cache.Set(ctx, key, raw, c.ttl)
}

// marketsKey is order-independent so the same set shares one entry.
func marketsKey(ids []string) string {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	return "cg:markets:" + strings.Join(sorted, ",")
}
