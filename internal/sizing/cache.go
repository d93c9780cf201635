package sizing

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/couchcryptid/storm-data-wqflow/internal/domain"
	"github.com/couchcryptid/storm-data-wqflow/internal/observability"
)

// CachedSizer wraps a Sizer with an in-memory LRU cache. A hit returns the
// original result, run id included.
type CachedSizer struct {
	inner   Sizer
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedSizer creates a cache decorator around a sizer.
func NewCachedSizer(inner Sizer, maxEntries int, metrics *observability.Metrics) *CachedSizer {
	return &CachedSizer{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedSizer) Size(ctx context.Context, req Request) (domain.SizingResult, error) {
	key := cacheKey(req)
	if result, ok := c.cache.get(key); ok {
		c.metrics.ResultCache.WithLabelValues("hit").Inc()
		return result, nil
	}
	c.metrics.ResultCache.WithLabelValues("miss").Inc()

	result, err := c.inner.Size(ctx, req)
	if err != nil {
		return result, err
	}
	c.cache.put(key, result)
	return result, nil
}

// cacheKey keeps percentage order and duplicates, both of which shape the result.
func cacheKey(req Request) string {
	parts := make([]string, len(req.CapturePercentages))
	for i, p := range req.CapturePercentages {
		parts[i] = strconv.FormatFloat(p, 'g', -1, 64)
	}
	return fmt.Sprintf("%s|%s|%s",
		strconv.FormatFloat(req.AreaHa, 'g', -1, 64),
		strconv.FormatFloat(req.ImperviousPct, 'g', -1, 64),
		strings.Join(parts, ","),
	)
}

// lruCache is a simple thread-safe LRU cache for SizingResults.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value domain.SizingResult
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (domain.SizingResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.SizingResult{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value domain.SizingResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
