package birdeye

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

const providerName = "birdeye"

// Client is the premium-class adapter: batch token overviews and
// short-timeframe OHLCV. All response-shape normalization happens here; the
// core only ever sees the candidate schema.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New creates a client against the given API base.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Name() string { return providerName }

// BatchFetch pulls token overviews for up to the provider's batch limit of
// keys in one call.
func (c *Client) BatchFetch(ctx context.Context, keys []string, _ provider.FieldSet) (map[string]model.PartialRecord, error) {
	endpoint := fmt.Sprintf("%s/defi/multi_price?list_address=%s", c.baseURL, url.QueryEscape(strings.Join(keys, ",")))
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	data := gjson.GetBytes(body, "data")
	if !data.Exists() {
		return nil, provider.NewError(providerName, provider.ErrCodeParse, "missing data envelope")
	}

	now := time.Now().Unix()
	out := make(map[string]model.PartialRecord, len(keys))
	for _, key := range keys {
		item := data.Get(escapeKey(key))
		if !item.Exists() {
			continue
		}
		rec := normalizeOverview(item)
		rec.Provider = providerName
		rec.FromBatch = true
		rec.UnixTime = now
		out[key] = rec
	}
	return out, nil
}

// SingleFetch pulls one token's full overview.
func (c *Client) SingleFetch(ctx context.Context, key string, _ provider.FieldSet) (*model.PartialRecord, error) {
	endpoint := fmt.Sprintf("%s/defi/token_overview?address=%s", c.baseURL, url.QueryEscape(key))
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	data := gjson.GetBytes(body, "data")
	if !data.Exists() {
		return nil, provider.NewError(providerName, provider.ErrCodeParse, "missing data envelope")
	}
	rec := normalizeOverview(data)
	rec.Provider = providerName
	rec.UnixTime = time.Now().Unix()
	return &rec, nil
}

// OHLCVFetch pulls n candles for the timeframe, accepting both the short and
// long candle field spellings the API emits and normalizing onto the
// standard candle.
func (c *Client) OHLCVFetch(ctx context.Context, key string, tf model.Timeframe, n int) ([]model.Candle, error) {
	endpoint := fmt.Sprintf("%s/defi/ohlcv?address=%s&type=%s&limit=%d",
		c.baseURL, url.QueryEscape(key), url.QueryEscape(string(tf)), n)
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	items := gjson.GetBytes(body, "data.items")
	if !items.Exists() || !items.IsArray() {
		return nil, provider.NewError(providerName, provider.ErrCodeParse, "missing candle items")
	}

	var candles []model.Candle
	items.ForEach(func(_, item gjson.Result) bool {
		candles = append(candles, model.Candle{
			Open:     firstFloat(item, "o", "open"),
			High:     firstFloat(item, "h", "high"),
			Low:      firstFloat(item, "l", "low"),
			Close:    firstFloat(item, "c", "close"),
			Volume:   firstFloat(item, "v", "volume"),
			UnixTime: firstInt(item, "unixTime", "unix_time", "t"),
		})
		return true
	})
	if len(candles) > n {
		candles = candles[len(candles)-n:]
	}
	return candles, nil
}

// normalizeOverview maps an overview payload onto the candidate schema.
func normalizeOverview(item gjson.Result) model.PartialRecord {
	rec := model.PartialRecord{
		MarketCap:        firstFloat(item, "mc", "marketCap", "market_cap"),
		Price:            firstFloat(item, "value", "price"),
		Liquidity:        firstFloat(item, "liquidity"),
		Volume24h:        firstFloat(item, "v24hUSD", "volume_24h"),
		Trades24h:        firstFloat(item, "trade24h", "trades_24h"),
		HolderCount:      int(firstFloat(item, "holder", "holder_count")),
		UniqueTraders24h: int(firstFloat(item, "uniqueWallet24h", "unique_traders_24h")),
		PriceChange24h:   firstFloat(item, "priceChange24hPercent", "price_change_24h"),
	}
	if sec := item.Get("security.score"); sec.Exists() {
		rec.SecurityScore = sec.Float()
	}
	if dev := item.Get("security.devHoldingPct"); dev.Exists() {
		rec.DevHoldingPct = dev.Float()
		rec.DevHoldingSet = true
	}
	return rec
}

// get performs one HTTP call and maps the transport and status outcomes onto
// the adapter error classes.
func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, provider.WrapError(providerName, provider.ErrCodeServer, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-KEY", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, provider.WrapError(providerName, provider.ErrCodeTimeout, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, provider.NewError(providerName, provider.ErrCodeRateLimit, "quota exhausted")
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, provider.NewError(providerName, provider.ErrCodeAuth, "credentials rejected")
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

func firstFloat(item gjson.Result, paths ...string) float64 {
	for _, p := range paths {
		if v := item.Get(p); v.Exists() {
			return v.Float()
		}
	}
	return 0
}

func firstInt(item gjson.Result, paths ...string) int64 {
	for _, p := range paths {
		if v := item.Get(p); v.Exists() {
			return v.Int()
		}
	}
	return 0
}

// escapeKey guards gjson path meta-characters in mint addresses.
func escapeKey(key string) string {
	replacer := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`)
	return replacer.Replace(key)
}
