package dexscreener

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenscout/tokenscout/internal/provider"
)

const pairsPayload = `{"pairs":[
	{"baseToken":{"address":"mint1"},"priceUsd":"0.002","marketCap":50000,
	 "liquidity":{"usd":8000},"volume":{"h24":30000},
	 "txns":{"h24":{"buys":120,"sells":80}},"priceChange":{"h24":12.5}},
	{"baseToken":{"address":"mint1"},"priceUsd":"0.002","marketCap":50000,
	 "liquidity":{"usd":20000},"volume":{"h24":45000},
	 "txns":{"h24":{"buys":300,"sells":150}},"priceChange":{"h24":10.0}}
]}`

func TestBatchFetchPicksDeepestPair(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(pairsPayload))
	}))
	defer srv.Close()

	client := New(srv.URL, 5*time.Second)
	records, err := client.BatchFetch(context.Background(), []string{"mint1"}, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records["mint1"]
	assert.Equal(t, 20_000.0, rec.Liquidity, "the deepest-liquidity pair wins")
	assert.Equal(t, 45_000.0, rec.Volume24h)
	assert.Equal(t, 450.0, rec.Trades24h)
	assert.Equal(t, "dexscreener", rec.Provider)
}

func TestSingleFetchNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"pairs":[]}`))
	}))
	defer srv.Close()

	client := New(srv.URL, 5*time.Second)
	_, err := client.SingleFetch(context.Background(), "mint9", nil)
	require.Error(t, err)
	assert.Equal(t, provider.ErrCodeNotFound, provider.CodeOf(err))
}

func TestOHLCVUnsupported(t *testing.T) {
	client := New("http://localhost", time.Second)
	_, err := client.OHLCVFetch(context.Background(), "mint1", "15m", 20)
	require.Error(t, err)
	assert.Equal(t, provider.ErrCodeNotFound, provider.CodeOf(err))
}
