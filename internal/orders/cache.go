package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/besy-hub/besy-orders/internal/observability"
)

// DefaultCacheTTL bounds how long a listing result may be served from cache.
const DefaultCacheTTL = 5 * time.Minute

// Lister performs the underlying order listing request.
type Lister interface {
	ListOrders(ctx context.Context, page, size int, sort []string, filters ListFilters, search string) (Page, error)
}

type cacheEntry struct {
	page     Page
	storedAt time.Time
}

// CachedLister memoises listing queries keyed by the full argument tuple.
// Entries expire after the configured TTL, and a change in the backend's
// reported total element count clears the whole cache since every other
// cached page may have shifted.
//
// Concurrent identical queries issued before the first resolves are not
// deduplicated against in-flight requests, only against completed entries.
type CachedLister struct {
	lister  Lister
	ttl     time.Duration
	metrics *observability.Metrics

	mu         sync.Mutex
	entries    map[string]cacheEntry
	lastTotal  int64
	totalKnown bool

	now func() time.Time
}

// NewCachedLister wraps a Lister with memoisation. A non-positive ttl falls
// back to DefaultCacheTTL; metrics may be nil.
func NewCachedLister(lister Lister, ttl time.Duration, metrics *observability.Metrics) *CachedLister {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedLister{
		lister:  lister,
		ttl:     ttl,
		metrics: metrics,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// AllOrders returns the page for the argument tuple, from cache when a live
// entry exists. Network failures propagate unmodified and are not cached.
func (c *CachedLister) AllOrders(ctx context.Context, page, size int, sort []string, filters ListFilters, search string) (Page, error) {
	key := cacheKey(page, size, sort, filters, search)

	c.mu.Lock()
	c.purgeExpiredLocked()
	if entry, ok := c.entries[key]; ok {
		c.mu.Unlock()
		c.metrics.OrdersCacheHit()
		return entry.page, nil
	}
	c.mu.Unlock()

	c.metrics.OrdersCacheMiss()
	result, err := c.lister.ListOrders(ctx, page, size, sort, filters, search)
	if err != nil {
		return Page{}, err
	}

	c.mu.Lock()
	if c.totalKnown && result.TotalElements != c.lastTotal {
		c.entries = make(map[string]cacheEntry)
		c.metrics.OrdersCacheClear()
	}
	c.lastTotal = result.TotalElements
	c.totalKnown = true
	c.entries[key] = cacheEntry{page: result, storedAt: c.now()}
	c.mu.Unlock()

	return result, nil
}

// ClearCache drops every cached entry.
func (c *CachedLister) ClearCache() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

func (c *CachedLister) purgeExpiredLocked() {
	cutoff := c.now().Add(-c.ttl)
	for key, entry := range c.entries {
		if entry.storedAt.Before(cutoff) {
			delete(c.entries, key)
		}
	}
}

func cacheKey(page, size int, sort []string, filters ListFilters, search string) string {
	encoded, _ := json.Marshal(filters)
	return fmt.Sprintf("%d|%d|%s|%s|%s", page, size, strings.Join(sort, ","), encoded, search)
}
