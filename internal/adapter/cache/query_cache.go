package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync"
	"time"

	"supportagent/internal/domain"
)

// QueryCache is a small LRU of search results with a TTL. Invalidate bumps
// a generation counter so results computed against an older index are never
// stored.
type QueryCache struct {
	mu       sync.Mutex
	entries  map[string]*cacheEntry
	order    []string
	maxSize  int
	ttl      time.Duration
	indexGen uint64
	now      func() time.Time
}

type cacheEntry struct {
	results   []domain.SearchResult
	timestamp time.Time
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

func cacheKey(query string, k int, filter *domain.Filter) string {
	h := sha256.New()
	h.Write([]byte(query))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(k)))
	if filter != nil {
		h.Write([]byte{0})
		h.Write([]byte(filter.Source))
		h.Write([]byte{0})
		h.Write([]byte(strconv.Itoa(filter.Page)))
	}
	return hex.EncodeToString(h.Sum(nil)[:16])
}

// Generation returns the current index generation. Pass it to Put.
func (c *QueryCache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.indexGen
}

func (c *QueryCache) Get(query string, k int, filter *domain.Filter) ([]domain.SearchResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(query, k, filter)
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.timestamp) > c.ttl {
		delete(c.entries, key)
		c.removeFromOrder(key)
		return nil, false
	}

	c.moveToEnd(key)
	return cloneResults(entry.results), true
}

// Put stores results computed while the index was at generation gen. Stale
// generations are dropped.
func (c *QueryCache) Put(query string, k int, filter *domain.Filter, gen uint64, results []domain.SearchResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.indexGen {
		return
	}

	key := cacheKey(query, k, filter)
	entry := &cacheEntry{results: cloneResults(results), timestamp: c.now()}

	if _, exists := c.entries[key]; exists {
		c.entries[key] = entry
		c.moveToEnd(key)
		return
	}
	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}
	c.entries[key] = entry
	c.order = append(c.order, key)
}

func (c *QueryCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.order = c.order[:0]
	c.indexGen++
}

func (c *QueryCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *QueryCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *QueryCache) moveToEnd(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *QueryCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

func cloneResults(in []domain.SearchResult) []domain.SearchResult {
	if in == nil {
		return nil
	}
	out := make([]domain.SearchResult, len(in))
	copy(out, in)
	return out
}
