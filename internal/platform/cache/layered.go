package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// DefaultL1MaxTTL caps how long entries live in the in-memory layer.
// L2 keeps the full TTL; L1 stays fresh by expiring earlier.
const DefaultL1MaxTTL = 1 * time.Minute

// LayeredCache implements a two-tier cache (L1: memory, L2: Redis)
type LayeredCache struct {
	l1       Cache
	l2       Cache
	l1MaxTTL time.Duration
	logger   *slog.Logger
}

// LayeredCacheConfig holds layered cache configuration
type LayeredCacheConfig struct {
	L1       Cache
	L2       Cache
	L1MaxTTL time.Duration
	Logger   *slog.Logger
}

// NewLayeredCache creates a new layered cache with default settings
func NewLayeredCache(l1, l2 Cache) *LayeredCache {
	return NewLayeredCacheWithConfig(LayeredCacheConfig{L1: l1, L2: l2})
}

// NewLayeredCacheWithLogger creates a layered cache that logs degradation warnings
func NewLayeredCacheWithLogger(l1, l2 Cache, logger *slog.Logger) *LayeredCache {
	return NewLayeredCacheWithConfig(LayeredCacheConfig{L1: l1, L2: l2, Logger: logger})
}

// NewLayeredCacheWithConfig creates a new layered cache
func NewLayeredCacheWithConfig(cfg LayeredCacheConfig) *LayeredCache {
	if cfg.L1MaxTTL <= 0 {
		cfg.L1MaxTTL = DefaultL1MaxTTL
	}

	return &LayeredCache{
		l1:       cfg.L1,
		l2:       cfg.L2,
		l1MaxTTL: cfg.L1MaxTTL,
		logger:   cfg.Logger,
	}
}

// Get retrieves a value from cache (L1 → L2 → miss).
// L1 errors degrade to L2; L2 infrastructure errors are propagated so
// callers can distinguish an outage from a plain miss.
func (lc *LayeredCache) Get(ctx context.Context, key string) (interface{}, error) {
	if lc.l1 != nil {
		val, err := lc.l1.Get(ctx, key)
		if err == nil {
			return val, nil
		}
		if !errors.Is(err, ErrNotFound) && lc.logger != nil {
			lc.logger.Warn("L1 cache error, falling back to L2",
				slog.String("key", key),
				slog.Any("error", err))
		}
	}

	if lc.l2 != nil {
		val, err := lc.l2.Get(ctx, key)
		if err == nil {
			// Backfill L1 on L2 hit
			if lc.l1 != nil {
				_ = lc.l1.Set(ctx, key, val, lc.l1MaxTTL)
			}
			return val, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	return nil, ErrNotFound
}

// Set stores a value in both cache layers (write-through)
func (lc *LayeredCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	var l1Err, l2Err error

	if lc.l1 != nil {
		// L1 gets the capped TTL
		l1TTL := ttl
		if ttl > lc.l1MaxTTL {
			l1TTL = lc.l1MaxTTL
		}
		l1Err = lc.l1.Set(ctx, key, value, l1TTL)
	}

	if lc.l2 != nil {
		l2Err = lc.l2.Set(ctx, key, value, ttl)
	}

	// Return error only if both layers failed
	if l1Err != nil && l2Err != nil {
		return l2Err
	}
	if lc.l1 == nil && l2Err != nil {
		return l2Err
	}
	if lc.l2 == nil && l1Err != nil {
		return l1Err
	}

	return nil
}

// Delete removes a key from both cache layers
func (lc *LayeredCache) Delete(ctx context.Context, key string) error {
	var l1Err, l2Err error

	if lc.l1 != nil {
		l1Err = lc.l1.Delete(ctx, key)
	}

	if lc.l2 != nil {
		l2Err = lc.l2.Delete(ctx, key)
	}

	if l1Err != nil {
		return l1Err
	}
	if l2Err != nil {
		return l2Err
	}

	return nil
}

// Close closes both cache layers
func (lc *LayeredCache) Close() error {
	var l1Err, l2Err error

	if lc.l1 != nil {
		l1Err = lc.l1.Close()
	}

	if lc.l2 != nil {
		l2Err = lc.l2.Close()
	}

	if l1Err != nil {
		return l1Err
	}
	return l2Err
}

// InvalidateL1 invalidates only L1 cache for a key,
// forcing the next read through to L2.
func (lc *LayeredCache) InvalidateL1(ctx context.Context, key string) error {
	if lc.l1 != nil {
		return lc.l1.Delete(ctx, key)
	}
	return nil
}
