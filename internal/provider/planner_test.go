package provider

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenscout/tokenscout/internal/model"
)

func testPlanner(threshold uint32) (*Planner, *Breaker) {
	gate := NewGate()
	gate.Configure("test", GateLimits{Concurrency: 4})
	breaker := testBreaker(threshold, time.Minute)
	return NewPlanner(gate, breaker), breaker
}

func keysOf(n int) []string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = fmt.Sprintf("token-%02d", i)
	}
	return keys
}

func echoBatch(ctx context.Context, keys []string) (map[string]model.PartialRecord, error) {
	out := make(map[string]model.PartialRecord, len(keys))
	for _, k := range keys {
		out[k] = model.PartialRecord{MarketCap: 1000, Provider: "test", FromBatch: true}
	}
	return out, nil
}

func TestPlannerChunksBatches(t *testing.T) {
	planner, _ := testPlanner(5)

	var batches int32
	res := planner.Fetch(context.Background(), "test", keysOf(25), 10,
		func(ctx context.Context, keys []string) (map[string]model.PartialRecord, error) {
			atomic.AddInt32(&batches, 1)
			assert.LessOrEqual(t, len(keys), 10)
			return echoBatch(ctx, keys)
		},
		nil,
	)

	assert.Equal(t, int32(3), atomic.LoadInt32(&batches))
	assert.Equal(t, 3, res.BatchCalls)
	assert.Equal(t, 0, res.IndividualCalls)
	assert.Len(t, res.Records, 25)
	assert.False(t, res.Partial)
}

func TestPlannerFallsBackToIndividual(t *testing.T) {
	planner, _ := testPlanner(10)

	res := planner.Fetch(context.Background(), "test", keysOf(4), 4,
		func(ctx context.Context, keys []string) (map[string]model.PartialRecord, error) {
			return nil, NewError("test", ErrCodeServer, "batch endpoint down")
		},
		func(ctx context.Context, key string) (*model.PartialRecord, error) {
			return &model.PartialRecord{MarketCap: 500, Provider: "test"}, nil
		},
	)

	assert.Equal(t, 0, res.BatchCalls)
	assert.Equal(t, 4, res.IndividualCalls)
	assert.Len(t, res.Records, 4)
}

func TestPlannerAbortsOnCircuitOpen(t *testing.T) {
	planner, breaker := testPlanner(1)

	// Trip the breaker with one prior failure.
	require.True(t, breaker.Permit("test"))
	breaker.Record("test", false)
	require.True(t, breaker.Open("test"))

	res := planner.Fetch(context.Background(), "test", keysOf(6), 2, echoBatch, nil)
	assert.True(t, res.Partial)
	assert.Empty(t, res.Records)
	assert.Zero(t, res.BatchCalls)
}

func TestPlannerAbortsOnAuthFailure(t *testing.T) {
	planner, breaker := testPlanner(10)

	var calls int32
	res := planner.Fetch(context.Background(), "test", keysOf(8), 2,
		func(ctx context.Context, keys []string) (map[string]model.PartialRecord, error) {
			atomic.AddInt32(&calls, 1)
			return nil, NewError("test", ErrCodeAuth, "bad key")
		},
		func(ctx context.Context, key string) (*model.PartialRecord, error) {
			t.Fatal("individual fallback must not run after auth failure")
			return nil, nil
		},
	)

	assert.True(t, res.AuthFailed)
	assert.True(t, res.Partial)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	// Auth failures do not trip the breaker.
	assert.False(t, breaker.Open("test"))
}

func TestPlannerSkipsFailedIndividuals(t *testing.T) {
	planner, _ := testPlanner(20)

	res := planner.Fetch(context.Background(), "test", keysOf(3), 3,
		func(ctx context.Context, keys []string) (map[string]model.PartialRecord, error) {
			return nil, NewError("test", ErrCodeServer, "down")
		},
		func(ctx context.Context, key string) (*model.PartialRecord, error) {
			if key == "token-01" {
				return nil, NewError("test", ErrCodeNotFound, "missing")
			}
			return &model.PartialRecord{Price: 1}, nil
		},
	)

	assert.Equal(t, 3, res.IndividualCalls)
	assert.Len(t, res.Records, 2)
	assert.NotContains(t, res.Records, "token-01")
}
