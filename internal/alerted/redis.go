package alerted

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisSet keys alerted tokens in Redis with native TTL expiry, so the
// suppression window survives restarts without any sweeper.
type RedisSet struct {
	client *redis.Client
}

// NewRedisSet wraps an existing Redis client.
func NewRedisSet(client *redis.Client) *RedisSet {
	return &RedisSet{client: client}
}

func alertKey(tokenKey string) string {
	return fmt.Sprintf("alerted:%s", tokenKey)
}

func (s *RedisSet) Contains(ctx context.Context, tokenKey string) bool {
	n, err := s.client.Exists(ctx, alertKey(tokenKey)).Result()
	return err == nil && n > 0
}

func (s *RedisSet) Add(ctx context.Context, tokenKey string, ttl time.Duration) error {
	return s.client.Set(ctx, alertKey(tokenKey), 1, ttl).Err()
}
