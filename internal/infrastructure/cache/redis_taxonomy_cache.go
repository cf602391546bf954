package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	apptaxonomy "github.com/retailops/backend/internal/application/taxonomy"
	"github.com/retailops/backend/internal/domain/taxonomy"
)

// RedisTaxonomyCache caches taxonomy entries and the code table in Redis so
// invalidations are shared across instances. Transport errors are logged and
// reported as misses; the repositories remain the source of truth.
type RedisTaxonomyCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	logger    *zap.Logger
}

// RedisCacheConfig holds Redis connection configuration for the cache
type RedisCacheConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedisTaxonomyCache creates a new Redis-backed taxonomy cache
func NewRedisTaxonomyCache(cfg RedisCacheConfig, logger *zap.Logger) (*RedisTaxonomyCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = defaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RedisTaxonomyCache{
		client:    client,
		keyPrefix: "taxonomy:",
		ttl:       ttl,
		logger:    logger,
	}, nil
}

// NewRedisTaxonomyCacheWithClient creates a cache with an existing Redis
// client, useful for testing or when sharing a client across components.
func NewRedisTaxonomyCacheWithClient(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisTaxonomyCache {
	if ttl == 0 {
		ttl = defaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisTaxonomyCache{
		client:    client,
		keyPrefix: "taxonomy:",
		ttl:       ttl,
		logger:    logger,
	}
}

func (c *RedisTaxonomyCache) entriesKey(kind taxonomy.Kind) string {
	return c.keyPrefix + "entries:" + string(kind)
}

func (c *RedisTaxonomyCache) tableCacheKey() string {
	return c.keyPrefix + "codetable"
}

// GetEntries retrieves the cached entries for a taxonomy kind
func (c *RedisTaxonomyCache) GetEntries(ctx context.Context, kind taxonomy.Kind) ([]taxonomy.Entry, bool) {
	raw, err := c.client.Get(ctx, c.entriesKey(kind)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("redis get failed for taxonomy entries",
				zap.String("kind", string(kind)), zap.Error(err))
		}
		return nil, false
	}

	var entries []taxonomy.Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		c.logger.Warn("corrupt taxonomy entry payload, dropping key",
			zap.String("kind", string(kind)), zap.Error(err))
		c.client.Del(ctx, c.entriesKey(kind))
		return nil, false
	}
	return entries, true
}

// SetEntries stores entries for a taxonomy kind
func (c *RedisTaxonomyCache) SetEntries(ctx context.Context, kind taxonomy.Kind, entries []taxonomy.Entry) {
	raw, err := json.Marshal(entries)
	if err != nil {
		c.logger.Warn("failed to marshal taxonomy entries", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, c.entriesKey(kind), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("redis set failed for taxonomy entries",
			zap.String("kind", string(kind)), zap.Error(err))
	}
}

// InvalidateEntries drops the cached entries for a taxonomy kind
func (c *RedisTaxonomyCache) InvalidateEntries(ctx context.Context, kind taxonomy.Kind) {
	if err := c.client.Del(ctx, c.entriesKey(kind)).Err(); err != nil {
		c.logger.Warn("redis delete failed for taxonomy entries",
			zap.String("kind", string(kind)), zap.Error(err))
	}
}

// GetTable retrieves the cached code table
func (c *RedisTaxonomyCache) GetTable(ctx context.Context) (taxonomy.CodeTable, bool) {
	raw, err := c.client.Get(ctx, c.tableCacheKey()).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("redis get failed for code table", zap.Error(err))
		}
		return nil, false
	}

	var table taxonomy.CodeTable
	if err := json.Unmarshal(raw, &table); err != nil {
		c.logger.Warn("corrupt code table payload, dropping key", zap.Error(err))
		c.client.Del(ctx, c.tableCacheKey())
		return nil, false
	}
	return table, true
}

// SetTable stores the code table
func (c *RedisTaxonomyCache) SetTable(ctx context.Context, table taxonomy.CodeTable) {
	raw, err := json.Marshal(table)
	if err != nil {
		c.logger.Warn("failed to marshal code table", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, c.tableCacheKey(), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("redis set failed for code table", zap.Error(err))
	}
}

// InvalidateTable drops the cached code table
func (c *RedisTaxonomyCache) InvalidateTable(ctx context.Context) {
	if err := c.client.Del(ctx, c.tableCacheKey()).Err(); err != nil {
		c.logger.Warn("redis delete failed for code table", zap.Error(err))
	}
}

// Close closes the Redis client
func (c *RedisTaxonomyCache) Close() error {
	return c.client.Close()
}

// Ensure RedisTaxonomyCache implements TaxonomyCache
var _ apptaxonomy.TaxonomyCache = (*RedisTaxonomyCache)(nil)
