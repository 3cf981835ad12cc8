package adapter

import (
	"fmt"

	"sop-quiz/internal/cache"
	"sop-quiz/internal/config"
	"sop-quiz/internal/domain"
)

// NewCache builds the completion cache selected by cfg.Cache.Backend. The
// returned close function releases any connection the cache holds.
func NewCache(cfg *config.Config) (domain.Cache, func() error, error) {
	noClose := func() error { return nil }

	switch cfg.Cache.Backend {
	case config.CacheMemory:
		return NewMemoryCacheAdapter(cfg.Cache.Size, cfg.Cache.TTL), noClose, nil
	case config.CacheRedis:
		client, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return NewRedisCacheAdapter(client), client.Close, nil
	case config.CacheNone:
		return NewNoopCacheAdapter(), noClose, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}
