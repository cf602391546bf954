package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	apptaxonomy "github.com/retailops/backend/internal/application/taxonomy"
	"github.com/retailops/backend/internal/domain/taxonomy"
)

// Constants for in-memory cache configuration
const (
	defaultTTL             = 5 * time.Minute
	defaultCleanupInterval = 30 * time.Second

	tableKey = "codetable"
)

// InMemoryTaxonomyCache caches taxonomy entries and the curated code table in
// process memory. Suitable for single-instance deployments; use the Redis
// variant when several instances must share invalidations.
type InMemoryTaxonomyCache struct {
	entries sync.Map // map[string]*cacheEntry[[]taxonomy.Entry], keyed by kind
	tables  sync.Map // map[string]*cacheEntry[taxonomy.CodeTable]
	ttl     time.Duration
	logger  *zap.Logger
	stopCh  chan struct{}
	stopped int32

	// Stats for monitoring
	hits   int64
	misses int64
}

// cacheEntry wraps a cached value with expiration time
type cacheEntry[T any] struct {
	value     T
	expiresAt time.Time
}

// isExpired checks if the cache entry has expired
func (e *cacheEntry[T]) isExpired() bool {
	return time.Now().After(e.expiresAt)
}

// InMemoryTaxonomyCacheOption is a functional option for configuring the cache
type InMemoryTaxonomyCacheOption func(*InMemoryTaxonomyCache)

// WithInMemoryTTL sets the entry lifetime
func WithInMemoryTTL(ttl time.Duration) InMemoryTaxonomyCacheOption {
	return func(c *InMemoryTaxonomyCache) {
		c.ttl = ttl
	}
}

// WithInMemoryLogger sets the logger for the cache
func WithInMemoryLogger(logger *zap.Logger) InMemoryTaxonomyCacheOption {
	return func(c *InMemoryTaxonomyCache) {
		c.logger = logger
	}
}

// NewInMemoryTaxonomyCache creates a new in-memory taxonomy cache
func NewInMemoryTaxonomyCache(opts ...InMemoryTaxonomyCacheOption) *InMemoryTaxonomyCache {
	cache := &InMemoryTaxonomyCache{
		ttl:    defaultTTL,
		logger: zap.NewNop(),
		stopCh: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(cache)
	}

	go cache.cleanupExpired()

	return cache
}

// GetEntries retrieves the cached entries for a taxonomy kind
func (c *InMemoryTaxonomyCache) GetEntries(_ context.Context, kind taxonomy.Kind) ([]taxonomy.Entry, bool) {
	if value, ok := c.entries.Load(string(kind)); ok {
		entry := value.(*cacheEntry[[]taxonomy.Entry])
		if !entry.isExpired() {
			atomic.AddInt64(&c.hits, 1)
			return entry.value, true
		}
		c.entries.Delete(string(kind))
	}

	atomic.AddInt64(&c.misses, 1)
	c.logger.Debug("taxonomy entry cache miss", zap.String("kind", string(kind)))
	return nil, false
}

// SetEntries stores entries for a taxonomy kind
func (c *InMemoryTaxonomyCache) SetEntries(_ context.Context, kind taxonomy.Kind, entries []taxonomy.Entry) {
	c.entries.Store(string(kind), &cacheEntry[[]taxonomy.Entry]{
		value:     entries,
		expiresAt: time.Now().Add(c.ttl),
	})
}

// InvalidateEntries drops the cached entries for a taxonomy kind
func (c *InMemoryTaxonomyCache) InvalidateEntries(_ context.Context, kind taxonomy.Kind) {
	c.entries.Delete(string(kind))
	c.logger.Debug("invalidated taxonomy entries", zap.String("kind", string(kind)))
}

// GetTable retrieves the cached code table
func (c *InMemoryTaxonomyCache) GetTable(_ context.Context) (taxonomy.CodeTable, bool) {
	if value, ok := c.tables.Load(tableKey); ok {
		entry := value.(*cacheEntry[taxonomy.CodeTable])
		if !entry.isExpired() {
			atomic.AddInt64(&c.hits, 1)
			return entry.value, true
		}
		c.tables.Delete(tableKey)
	}

	atomic.AddInt64(&c.misses, 1)
	c.logger.Debug("code table cache miss")
	return nil, false
}

// SetTable stores the code table
func (c *InMemoryTaxonomyCache) SetTable(_ context.Context, table taxonomy.CodeTable) {
	c.tables.Store(tableKey, &cacheEntry[taxonomy.CodeTable]{
		value:     table,
		expiresAt: time.Now().Add(c.ttl),
	})
}

// InvalidateTable drops the cached code table
func (c *InMemoryTaxonomyCache) InvalidateTable(_ context.Context) {
	c.tables.Delete(tableKey)
	c.logger.Debug("invalidated code table")
}

// Close stops the background cleanup goroutine
func (c *InMemoryTaxonomyCache) Close() error {
	if atomic.CompareAndSwapInt32(&c.stopped, 0, 1) {
		close(c.stopCh)
	}
	return nil
}

// GetStats returns cache statistics
func (c *InMemoryTaxonomyCache) GetStats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

// cleanupExpired periodically removes expired entries from the cache
func (c *InMemoryTaxonomyCache) cleanupExpired() {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.doCleanup()
		}
	}
}

// doCleanup removes expired entries from both maps
func (c *InMemoryTaxonomyCache) doCleanup() {
	c.entries.Range(func(key, value any) bool {
		if value.(*cacheEntry[[]taxonomy.Entry]).isExpired() {
			c.entries.Delete(key)
		}
		return true
	})
	c.tables.Range(func(key, value any) bool {
		if value.(*cacheEntry[taxonomy.CodeTable]).isExpired() {
			c.tables.Delete(key)
		}
		return true
	})
}

// Ensure InMemoryTaxonomyCache implements TaxonomyCache
var _ apptaxonomy.TaxonomyCache = (*InMemoryTaxonomyCache)(nil)
