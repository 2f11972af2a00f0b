// Package cache provides the short-TTL response cache the HTTP layer
// consults before dispatching to the search backend, keyed on the
// dataset scope + query + filter fingerprint rather than a tenant id —
// this platform has datasets, not tenants.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Entry is one cached value and its expiry.
type Entry struct {
	Data      interface{}
	ExpiresAt time.Time
}

// Config holds cache sizing.
type Config struct {
	TTL     time.Duration
	MaxSize int
}

// DefaultConfig mirrors spec.md §6's http_cache_duration default of 60s.
func DefaultConfig() Config {
	return Config{TTL: 60 * time.Second, MaxSize: 10000}
}

// Cache is an in-memory TTL cache, one instance per process. When
// built with a Redis client (WithRedis), Set/Get also go through Redis
// so that multiple bragi instances behind a load balancer share one
// result cache, the same role go-redis plays for the teacher's
// sync_service cursor tracking, adapted here from sync state to cache
// coherence across replicas.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	ttl     time.Duration
	maxSize int

	redis *redis.Client
}

// NewCache creates a cache and starts its background eviction loop.
func NewCache(cfg Config) *Cache {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultConfig().TTL
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultConfig().MaxSize
	}
	c := &Cache{entries: make(map[string]*Entry), ttl: cfg.TTL, maxSize: cfg.MaxSize}
	go c.cleanup()
	return c
}

// WithRedis attaches a shared Redis-backed second tier: misses in the
// local map fall through to Redis before being reported as a cache
// miss, and every Set is mirrored to Redis under the same key.
func (c *Cache) WithRedis(client *redis.Client) *Cache {
	c.redis = client
	return c
}

// Key fingerprints a query for one index scope (a sorted index list)
// plus its parameters into a stable cache key.
func Key(indices []string, params interface{}) string {
	data, _ := json.Marshal(params)
	h := sha256.New()
	for _, idx := range indices {
		h.Write([]byte(idx))
		h.Write([]byte{0})
	}
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Get retrieves an item, reporting whether it was present and
// unexpired. A local miss falls through to Redis, when attached, so a
// cold instance can still serve a result a sibling instance cached.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		if time.Now().After(entry.ExpiresAt) {
			c.Delete(key)
			return nil, false
		}
		return entry.Data, true
	}
	if c.redis == nil {
		return nil, false
	}
	raw, err := c.redis.Get(context.Background(), key).Result()
	if err != nil {
		return nil, false
	}
	var data interface{}
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, false
	}
	c.mu.Lock()
	c.entries[key] = &Entry{Data: data, ExpiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
	return data, true
}

// Set stores an item with the cache's configured TTL.
func (c *Cache) Set(key string, data interface{}) {
	c.SetWithTTL(key, data, c.ttl)
}

// SetWithTTL stores an item with a custom TTL, mirroring to Redis when
// attached.
func (c *Cache) SetWithTTL(key string, data interface{}, ttl time.Duration) {
	c.mu.Lock()
	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}
	c.entries[key] = &Entry{Data: data, ExpiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()

	if c.redis == nil {
		return
	}
	if encoded, err := json.Marshal(data); err == nil {
		c.redis.Set(context.Background(), key, encoded, ttl)
	}
}

// Delete removes an item.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear removes every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*Entry)
	c.mu.Unlock()
}

// Stats reports current occupancy.
func (c *Cache) Stats() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return map[string]any{"entries": len(c.entries), "max_size": c.maxSize, "ttl": c.ttl.String()}
}

func (c *Cache) evictOldest() {
	toRemove := c.maxSize / 10
	if toRemove == 0 {
		toRemove = 1
	}
	type keyed struct {
		key     string
		expires time.Time
	}
	oldest := make([]keyed, 0, len(c.entries))
	for k, v := range c.entries {
		oldest = append(oldest, keyed{k, v.ExpiresAt})
	}
	for i := 0; i < len(oldest)-1; i++ {
		for j := i + 1; j < len(oldest); j++ {
			if oldest[j].expires.Before(oldest[i].expires) {
				oldest[i], oldest[j] = oldest[j], oldest[i]
			}
		}
	}
	for i := 0; i < toRemove && i < len(oldest); i++ {
		delete(c.entries, oldest[i].key)
	}
}

func (c *Cache) cleanup() {
	ticker := time.NewTicker(time.Minute)
	for range ticker.C {
		c.mu.Lock()
		now := time.Now()
		for key, entry := range c.entries {
			if now.After(entry.ExpiresAt) {
				delete(c.entries, key)
			}
		}
		c.mu.Unlock()
	}
}
