package birdeye

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenscout/tokenscout/internal/model"
	"github.com/tokenscout/tokenscout/internal/provider"
)

func TestOHLCVFetchNormalizesShortFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/defi/ohlcv", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-API-KEY"))
		w.Write([]byte(`{"data":{"items":[
			{"o":1.0,"h":1.2,"l":0.9,"c":1.1,"v":5000,"unixTime":1700000000},
			{"o":1.1,"h":1.3,"l":1.0,"c":1.25,"v":8000,"unixTime":1700000900}
		]}}`))
	}))
	defer srv.Close()

	client := New(srv.URL, "test-key", 5*time.Second)
	candles, err := client.OHLCVFetch(context.Background(), "mint1", model.TF15m, 20)
	require.NoError(t, err)
	require.Len(t, candles, 2)

	assert.Equal(t, 1.1, candles[0].Close)
	assert.Equal(t, 8000.0, candles[1].Volume)
	assert.Equal(t, int64(1700000900), candles[1].UnixTime)
}

func TestOHLCVFetchNormalizesLongFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"items":[
			{"open":2.0,"high":2.2,"low":1.9,"close":2.1,"volume":7000,"unix_time":1700001800}
		]}}`))
	}))
	defer srv.Close()

	client := New(srv.URL, "", 5*time.Second)
	candles, err := client.OHLCVFetch(context.Background(), "mint1", model.TF30m, 20)
	require.NoError(t, err)
	require.Len(t, candles, 1)

	assert.Equal(t, 2.1, candles[0].Close)
	assert.Equal(t, 7000.0, candles[0].Volume)
	assert.Equal(t, int64(1700001800), candles[0].UnixTime)
}

func TestBatchFetchNormalizesOverview(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{
			"mint1":{"value":0.005,"mc":120000,"liquidity":45000,"v24hUSD":90000,"trade24h":800,"holder":350},
			"mint2":{"value":0.010,"mc":80000}
		}}`))
	}))
	defer srv.Close()

	client := New(srv.URL, "k", 5*time.Second)
	records, err := client.BatchFetch(context.Background(), []string{"mint1", "mint2", "mint3"}, nil)
	require.NoError(t, err)
	require.Len(t, records, 2)

	rec := records["mint1"]
	assert.Equal(t, 120_000.0, rec.MarketCap)
	assert.Equal(t, 0.005, rec.Price)
	assert.Equal(t, 800.0, rec.Trades24h)
	assert.Equal(t, 350, rec.HolderCount)
	assert.True(t, rec.FromBatch)
	assert.Equal(t, "birdeye", rec.Provider)

	_, ok := records["mint3"]
	assert.False(t, ok, "unknown keys are simply absent")
}

func TestErrorClassification(t *testing.T) {
	cases := []struct {
		status int
		code   provider.ErrorCode
	}{
		{http.StatusTooManyRequests, provider.ErrCodeRateLimit},
		{http.StatusUnauthorized, provider.ErrCodeAuth},
		{http.StatusForbidden, provider.ErrCodeAuth},
		{http.StatusNotFound, provider.ErrCodeNotFound},
		{http.StatusInternalServerError, provider.ErrCodeServer},
		{http.StatusBadGateway, provider.ErrCodeServer},
	}

	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		client := New(srv.URL, "", 5*time.Second)
		_, err := client.SingleFetch(context.Background(), "mint1", nil)
		require.Error(t, err, "status %d", tc.status)
		assert.Equal(t, tc.code, provider.CodeOf(err), "status %d", tc.status)
		srv.Close()
	}
}

func TestParseErrorOnBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": not-json`))
	}))
	defer srv.Close()

	client := New(srv.URL, "", 5*time.Second)
	_, err := client.SingleFetch(context.Background(), "mint1", nil)
	require.Error(t, err)
	assert.Equal(t, provider.ErrCodeParse, provider.CodeOf(err))
}
