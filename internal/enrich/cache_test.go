package enrich

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenscout/tokenscout/internal/model"
)

func TestMemoryCacheExpiry(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	cache.Set(ctx, "meta", "tok1", model.PartialRecord{MarketCap: 100}, 20*time.Millisecond)

	rec, ok := cache.Get(ctx, "meta", "tok1")
	require.True(t, ok)
	assert.Equal(t, 100.0, rec.MarketCap)

	time.Sleep(30 * time.Millisecond)
	_, ok = cache.Get(ctx, "meta", "tok1")
	assert.False(t, ok)
}

func TestMemoryCacheMissOnUnknownKey(t *testing.T) {
	cache := NewMemoryCache()
	_, ok := cache.Get(context.Background(), "meta", "nope")
	assert.False(t, ok)
}

func TestRedisCacheRoundTrip(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewRedisCache(client)
	ctx := context.Background()

	rec := model.PartialRecord{MarketCap: 42_000, Provider: "meta"}
	payload, err := json.Marshal(rec)
	require.NoError(t, err)

	mock.ExpectSet("enrich:meta:tok1", payload, time.Minute).SetVal("OK")
	cache.Set(ctx, "meta", "tok1", rec, time.Minute)

	mock.ExpectGet("enrich:meta:tok1").SetVal(string(payload))
	got, ok := cache.Get(ctx, "meta", "tok1")
	require.True(t, ok)
	assert.Equal(t, 42_000.0, got.MarketCap)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCacheMiss(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewRedisCache(client)

	mock.ExpectGet("enrich:meta:tok1").RedisNil()
	_, ok := cache.Get(context.Background(), "meta", "tok1")
	assert.False(t, ok)
}
