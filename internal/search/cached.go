package search

import (
	"slices"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"

	"newsdesk/internal/index"
	"newsdesk/internal/query"
)

// DefaultCacheSize is the number of (snapshot, query) results kept.
const DefaultCacheSize = 512

// CachedEngine memoizes results per snapshot version and canonical query.
// Snapshots are immutable, so an entry never goes stale; entries for old
// versions simply age out.
type CachedEngine struct {
	inner Searcher
	cache *lru.Cache[string, []int64]
}

// NewCachedEngine wraps inner with an LRU cache of the given size.
func NewCachedEngine(inner Searcher, size int) *CachedEngine {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, _ := lru.New[string, []int64](size)
	return &CachedEngine{inner: inner, cache: cache}
}

func cacheKey(q query.Query, snap *index.Snapshot) string {
	return strconv.FormatUint(snap.Version(), 10) + "|" + q.String()
}

// Search returns a copy of the cached result or computes and stores it.
func (c *CachedEngine) Search(q query.Query, snap *index.Snapshot) []int64 {
	key := cacheKey(q, snap)
	if ids, ok := c.cache.Get(key); ok {
		return slices.Clone(ids)
	}
	ids := c.inner.Search(q, snap)
	c.cache.Add(key, slices.Clone(ids))
	return ids
}

// Len is the number of cached results.
func (c *CachedEngine) Len() int { return c.cache.Len() }
