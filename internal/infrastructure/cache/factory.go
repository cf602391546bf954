package cache

import (
	"fmt"

	"go.uber.org/zap"

	apptaxonomy "github.com/retailops/backend/internal/application/taxonomy"
	"github.com/retailops/backend/internal/infrastructure/config"
)

// TaxonomyCacheFactory creates taxonomy caches based on configuration
type TaxonomyCacheFactory struct {
	cacheConfig           config.CacheConfig
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// TaxonomyCacheFactoryOption is a functional option for configuring the factory
type TaxonomyCacheFactoryOption func(*TaxonomyCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) TaxonomyCacheFactoryOption {
	return func(f *TaxonomyCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory cache
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) TaxonomyCacheFactoryOption {
	return func(f *TaxonomyCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewTaxonomyCacheFactory creates a new factory
func NewTaxonomyCacheFactory(cacheCfg config.CacheConfig, redisCfg config.RedisConfig, opts ...TaxonomyCacheFactoryOption) *TaxonomyCacheFactory {
	f := &TaxonomyCacheFactory{
		cacheConfig:           cacheCfg,
		redisConfig:           redisCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateCache creates the taxonomy cache selected by configuration. With the
// redis backend it falls back to in-memory when Redis is unreachable, unless
// fallback is disabled.
func (f *TaxonomyCacheFactory) CreateCache() (apptaxonomy.TaxonomyCache, error) {
	switch f.cacheConfig.Backend {
	case "memory":
		return f.createInMemory(), nil
	case "redis":
		cache, err := NewRedisTaxonomyCache(RedisCacheConfig{
			Host:     f.redisConfig.Host,
			Port:     f.redisConfig.Port,
			Password: f.redisConfig.Password,
			DB:       f.redisConfig.DB,
			TTL:      f.cacheConfig.TTL,
		}, f.logger)
		if err == nil {
			f.logger.Info("using Redis taxonomy cache")
			return cache, nil
		}
		if !f.allowInMemoryFallback {
			return nil, fmt.Errorf("Redis required for taxonomy cache but unavailable: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory taxonomy cache. "+
			"Cache invalidations will not be shared across instances.",
			zap.Error(err),
		)
		return f.createInMemory(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", f.cacheConfig.Backend)
	}
}

func (f *TaxonomyCacheFactory) createInMemory() apptaxonomy.TaxonomyCache {
	return NewInMemoryTaxonomyCache(
		WithInMemoryTTL(f.cacheConfig.TTL),
		WithInMemoryLogger(f.logger),
	)
}
