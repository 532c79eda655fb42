package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync"
	"time"

	"cmsrag/internal/domain"
	"cmsrag/internal/port"
)

// QueryCache keeps recent retrieval results keyed by query text and k.
// Entries expire after ttl and are dropped when the index generation moves
// on, which happens on Invalidate.
type QueryCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	order   []string // least recently used first
	maxSize int
	ttl     time.Duration
	gen     uint64
	now     func() time.Time
}

type cacheEntry struct {
	result   domain.RetrievalResult
	stored   time.Time
	indexGen uint64
}

func NewQueryCache(maxSize int, ttl time.Duration) *QueryCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &QueryCache{
		entries: make(map[string]*cacheEntry),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

func cacheKey(query string, k int) string {
	hash := sha256.Sum256([]byte(strconv.Itoa(k) + "\x00" + query))
	return hex.EncodeToString(hash[:16])
}

// Get returns a copy of the cached result for query and k.
func (c *QueryCache) Get(query string, k int) (domain.RetrievalResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(query, k)
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if entry.indexGen != c.gen || c.now().Sub(entry.stored) > c.ttl {
		c.remove(key)
		return nil, false
	}

	c.touch(key)
	return clone(entry.result), true
}

func (c *QueryCache) Put(query string, k int, result domain.RetrievalResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(query, k)
	if _, ok := c.entries[key]; ok {
		c.touch(key)
	} else {
		if len(c.entries) >= c.maxSize {
			c.remove(c.order[0])
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = &cacheEntry{
		result:   clone(result),
		stored:   c.now(),
		indexGen: c.gen,
	}
}

// Invalidate drops every entry. Call it after the index is reloaded.
func (c *QueryCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.order = c.order[:0]
	c.gen++
}

func (c *QueryCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *QueryCache) touch(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *QueryCache) remove(key string) {
	delete(c.entries, key)
	c.removeFromOrder(key)
}

func (c *QueryCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

func clone(r domain.RetrievalResult) domain.RetrievalResult {
	out := make(domain.RetrievalResult, len(r))
	copy(out, r)
	return out
}

// CachedRetriever answers repeated queries from a QueryCache. Errors are
// never cached.
type CachedRetriever struct {
	retriever port.Retriever
	cache     *QueryCache
}

func NewCachedRetriever(retriever port.Retriever, cache *QueryCache) *CachedRetriever {
	return &CachedRetriever{
		retriever: retriever,
		cache:     cache,
	}
}

func (r *CachedRetriever) Retrieve(ctx context.Context, query string, k int) (domain.RetrievalResult, error) {
	if result, hit := r.cache.Get(query, k); hit {
		return result, nil
	}

	result, err := r.retriever.Retrieve(ctx, query, k)
	if err != nil {
		return nil, err
	}

	r.cache.Put(query, k, result)
	return result, nil
}
