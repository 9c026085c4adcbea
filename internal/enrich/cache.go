package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/tokenscout/tokenscout/internal/model"
)

// Cache fronts enrichment responses so repeated cycles do not re-pay provider
// calls for the same token within the TTL.
type Cache interface {
	Get(ctx context.Context, provider, key string) (*model.PartialRecord, bool)
	Set(ctx context.Context, provider, key string, rec model.PartialRecord, ttl time.Duration)
}

func cacheKey(provider, key string) string {
	return fmt.Sprintf("enrich:%s:%s", provider, key)
}

// RedisCache stores enrichment records in Redis with per-entry TTL.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache wraps an existing Redis client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, provider, key string) (*model.PartialRecord, bool) {
	data, err := c.client.Get(ctx, cacheKey(provider, key)).Bytes()
	if err != nil {
		return nil, false
	}
	var rec model.PartialRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, false
	}
	return &rec, true
}

func (c *RedisCache) Set(ctx context.Context, provider, key string, rec model.PartialRecord, ttl time.Duration) {
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}
	c.client.Set(ctx, cacheKey(provider, key), data, ttl)
}

// MemoryCache is the in-process fallback used when no Redis is configured.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	rec     model.PartialRecord
	expires time.Time
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

func (c *MemoryCache) Get(_ context.Context, provider, key string) (*model.PartialRecord, bool) {
	c.mu.RLock()
	entry, ok := c.entries[cacheKey(provider, key)]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expires) {
		return nil, false
	}
	rec := entry.rec
	return &rec, true
}

func (c *MemoryCache) Set(_ context.Context, provider, key string, rec model.PartialRecord, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(provider, key)] = memoryEntry{rec: rec, expires: time.Now().Add(ttl)}
}
