package dexscreener

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/tokenscout/tokenscout/internal/model"
	"github.com/tokenscout/tokenscout/internal/provider"
)

const providerName = "dexscreener"

// Client is the free-class adapter for pair metadata and liquidity. No API
// key; batch fetches join keys into a single path segment.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client against the given API base.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 12 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Name() string { return providerName }

// BatchFetch requests up to 30 tokens in one call, comma-joined.
func (c *Client) BatchFetch(ctx context.Context, keys []string, _ provider.FieldSet) (map[string]model.PartialRecord, error) {
	endpoint := fmt.Sprintf("%s/latest/dex/tokens/%s", c.baseURL, url.PathEscape(strings.Join(keys, ",")))
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	pairs := gjson.GetBytes(body, "pairs")
	if !pairs.Exists() {
		return nil, provider.NewError(providerName, provider.ErrCodeParse, "missing pairs array")
	}

	now := time.Now().Unix()
	out := make(map[string]model.PartialRecord, len(keys))
	pairs.ForEach(func(_, pair gjson.Result) bool {
		key := pair.Get("baseToken.address").String()
		if key == "" {
			return true
		}
		rec := normalizePair(pair)
		rec.Provider = providerName
		rec.FromBatch = true
		rec.UnixTime = now
		// The deepest-liquidity pair wins when a token trades on several.
		if existing, ok := out[key]; !ok || rec.Liquidity > existing.Liquidity {
			out[key] = rec
		}
		return true
	})
	return out, nil
}

// SingleFetch requests one token's best pair.
func (c *Client) SingleFetch(ctx context.Context, key string, fields provider.FieldSet) (*model.PartialRecord, error) {
	records, err := c.BatchFetch(ctx, []string{key}, fields)
	if err != nil {
		return nil, err
	}
	rec, ok := records[key]
	if !ok {
		return nil, provider.NewError(providerName, provider.ErrCodeNotFound, "no pairs for token")
	}
	rec.FromBatch = false
	return &rec, nil
}

// OHLCVFetch is unsupported on the free tier.
func (c *Client) OHLCVFetch(_ context.Context, _ string, _ model.Timeframe, _ int) ([]model.Candle, error) {
	return nil, provider.NewError(providerName, provider.ErrCodeNotFound, "ohlcv not offered")
}

func normalizePair(pair gjson.Result) model.PartialRecord {
	trades := pair.Get("txns.h24.buys").Float() + pair.Get("txns.h24.sells").Float()
	return model.PartialRecord{
		MarketCap:      pair.Get("marketCap").Float(),
		Price:          pair.Get("priceUsd").Float(),
		Liquidity:      pair.Get("liquidity.usd").Float(),
		Volume24h:      pair.Get("volume.h24").Float(),
		Trades24h:      trades,
		PriceChange24h: pair.Get("priceChange.h24").Float(),
	}
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, provider.WrapError(providerName, provider.ErrCodeServer, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, provider.WrapError(providerName, provider.ErrCodeTimeout, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, provider.NewError(providerName, provider.ErrCodeRateLimit, "quota exhausted")
	case resp.StatusCode == http.StatusNotFound:
		return nil, provider.NewError(providerName, provider.ErrCodeNotFound, "unknown token")
	case resp.StatusCode >= 500:
		return nil, provider.NewError(providerName, provider.ErrCodeServer, resp.Status)
	case resp.StatusCode != http.StatusOK:
		return nil, provider.NewError(providerName, provider.ErrCodeServer, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, provider.WrapError(providerName, provider.ErrCodeParse, err)
	}
	if !gjson.ValidBytes(body) {
		return nil, provider.NewError(providerName, provider.ErrCodeParse, "invalid json")
	}
	return body, nil
}
