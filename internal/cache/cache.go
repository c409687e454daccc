package cache

import (
	"fmt"

	"github.com/samarth3301/payment-simulator/internal/domain"
)

// New creates a new cache based on configuration.
// Single-node deployments use the in-process LRU cache; distributed
// deployments use Redis so verdicts and counters are shared.
func New(cfg domain.CacheConfig) (domain.Cache, error) {
	switch cfg.Type {
	case "memory":
		return NewLRUCache(cfg.LocalMaxSize), nil

	case "redis":
		return NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Type)
	}
}
