// Package cache memoises distance results in Redis. Keys are scoped by
// corpus name and content hash, so a corpus re-registered with different
// content never sees stale entries.
package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	pkgredis "github.com/Adithya-Monish-Kumar-K/worddistance/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/worddistance/pkg/resilience"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "distance:"

// Backend is the slice of *pkgredis.Client the cache uses.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

// Key identifies one query. Word order does not matter.
type Key struct {
	Corpus      string
	ContentHash string
	Word1       string
	Word2       string
}

func (k Key) String() string {
	a, b := k.Word1, k.Word2
	if b < a {
		a, b = b, a
	}
	raw := k.ContentHash + "\x00" + a + "\x00" + b
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%s:%x", keyPrefix, k.Corpus, hash[:16])
}

type Stats struct {
	Hits         int64  `json:"hits"`
	Misses       int64  `json:"misses"`
	BreakerState string `json:"breaker_state"`
}

// DistanceCache never fails a query: backend errors count as misses, and
// repeated errors trip the breaker so Redis is skipped until it recovers.
type DistanceCache struct {
	backend Backend
	ttl     time.Duration
	breaker *resilience.CircuitBreaker
	group   singleflight.Group
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

func New(backend Backend, ttl time.Duration, breaker *resilience.CircuitBreaker) *DistanceCache {
	if breaker == nil {
		breaker = resilience.NewCircuitBreaker("redis-cache", resilience.CircuitBreakerConfig{})
	}
	return &DistanceCache{
		backend: backend,
		ttl:     ttl,
		breaker: breaker,
		logger:  slog.Default().With("component", "distance-cache"),
	}
}

func (c *DistanceCache) Get(ctx context.Context, key Key) (int, bool) {
	k := key.String()
	var data string
	err := c.breaker.Execute(func() error {
		var err error
		data, err = c.backend.Get(ctx, k)
		if pkgredis.IsNilError(err) {
			return nil
		}
		return err
	})
	if err != nil {
		c.logger.Warn("cache get failed", "key", k, "error", err)
		c.misses.Add(1)
		return 0, false
	}
	if data == "" {
		c.misses.Add(1)
		return 0, false
	}
	d, err := strconv.Atoi(data)
	if err != nil || d < 0 {
		c.logger.Error("cache entry corrupt", "key", k, "value", data)
		c.misses.Add(1)
		return 0, false
	}
	c.hits.Add(1)
	return d, true
}

func (c *DistanceCache) Set(ctx context.Context, key Key, distance int) {
	k := key.String()
	err := c.breaker.Execute(func() error {
		return c.backend.Set(ctx, k, strconv.Itoa(distance), c.ttl)
	})
	if err != nil {
		c.logger.Warn("cache set failed", "key", k, "error", err)
	}
}

// GetOrCompute returns the cached distance or runs compute once per key
// across concurrent callers. Errors from compute are returned and never
// cached. The bool reports a cache hit.
func (c *DistanceCache) GetOrCompute(ctx context.Context, key Key, compute func() (int, error)) (int, bool, error) {
	if d, ok := c.Get(ctx, key); ok {
		return d, true, nil
	}
	val, err, _ := c.group.Do(key.String(), func() (any, error) {
		d, err := compute()
		if err != nil {
			return 0, err
		}
		// The caller has given up; do not fill the cache behind its back.
		if ctx.Err() != nil {
			return d, nil
		}
		c.Set(ctx, key, d)
		return d, nil
	})
	if err != nil {
		return 0, false, err
	}
	return val.(int), false, nil
}

// Invalidate drops cached entries for corpus, or every entry when corpus is
// empty.
func (c *DistanceCache) Invalidate(ctx context.Context, corpus string) (int64, error) {
	pattern := keyPrefix + "*"
	if corpus != "" {
		pattern = keyPrefix + corpus + ":*"
	}
	deleted, err := c.backend.FlushByPattern(ctx, pattern)
	if err != nil {
		return deleted, fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "pattern", pattern, "keys_deleted", deleted)
	return deleted, nil
}

func (c *DistanceCache) Stats() Stats {
	return Stats{
		Hits:         c.hits.Load(),
		Misses:       c.misses.Load(),
		BreakerState: c.breaker.GetState().String(),
	}
}
