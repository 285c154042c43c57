// Package cache stores JSON responses in the KV store with a TTL.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/evidex/internal/db"
	"github.com/kailas-cloud/evidex/internal/domain"
)

// store is the consumer interface for the response cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Cache is a best-effort response cache: store failures are logged and read
// as misses, never returned to the caller. Entries that no longer decode are
// evicted.
type Cache struct {
	store      store
	name       string
	prefix     string
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a response cache namespaced by name.
// cacheTotal is a counter vec with labels {cache, result}, passed explicitly.
func New(
	s store,
	name string,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *Cache {
	return &Cache{
		store:      s,
		name:       name,
		prefix:     domain.KeyPrefix + "cache:" + name + ":",
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Get decodes the cached value for key into dst and reports whether it was found.
func (c *Cache) Get(ctx context.Context, key string, dst any) bool {
	k := c.key(key)
	data, err := c.store.Get(ctx, k)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to read cached response", zap.String("key", k), zap.Error(err))
		}
		c.inc("miss")
		return false
	}
	if len(data) == 0 {
		c.inc("miss")
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.logger.Warn("Failed to decode cached response", zap.String("key", k), zap.Error(err))
		if err := c.store.Delete(ctx, k); err != nil {
			c.logger.Warn("Failed to evict cached response", zap.String("key", k), zap.Error(err))
		}
		c.inc("miss")
		return false
	}
	c.inc("hit")
	return true
}

// Put stores v under key with the cache TTL.
func (c *Cache) Put(ctx context.Context, key string, v any) {
	k := c.key(key)
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("Failed to encode response for cache", zap.String("key", k), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, k, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache response", zap.String("key", k), zap.Error(err))
	}
}

func (c *Cache) key(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return c.prefix + hex.EncodeToString(h[:])
}

func (c *Cache) inc(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(c.name, result).Inc()
	}
}
