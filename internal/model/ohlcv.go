package model

// Timeframe names an OHLCV candle interval as accepted by provider adapters.
type Timeframe string

const (
	TF5m  Timeframe = "5m"
	TF15m Timeframe = "15m"
	TF30m Timeframe = "30m"
	TF1h  Timeframe = "1h"
	TF6h  Timeframe = "6h"
	TF24h Timeframe = "24h"
)

// Candle is the adapter-boundary OHLCV record. Adapters normalize every
// provider envelope (short field names, nested payloads) into this shape;
// the core never sees provider-specific keys.
type Candle struct {
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	Volume   float64 `json:"volume"`
	UnixTime int64   `json:"unix_time"`
}

// PartialRecord is the normalized subset of candidate fields a provider call
// returned. Zero values mean the provider did not supply the field, except
// where the matching Set flag is raised.
type PartialRecord struct {
	MarketCap        float64 `json:"market_cap,omitempty"`
	Price            float64 `json:"price,omitempty"`
	Liquidity        float64 `json:"liquidity,omitempty"`
	Volume24h        float64 `json:"volume_24h,omitempty"`
	Trades24h        float64 `json:"trades_24h,omitempty"`
	HolderCount      int     `json:"holder_count,omitempty"`
	UniqueTraders24h int     `json:"unique_traders_24h,omitempty"`
	SecurityScore    float64 `json:"security_score,omitempty"`
	DevHoldingPct    float64 `json:"dev_holding_pct,omitempty"`
	PriceChange24h   float64 `json:"price_change_24h,omitempty"`

	HoneypotRisk        HoneypotRisk `json:"honeypot_risk,omitempty"`
	LiquidityLockedSet  bool         `json:"-"`
	LiquidityLocked     bool         `json:"liquidity_locked,omitempty"`
	VerifiedContractSet bool         `json:"-"`
	VerifiedContract    bool         `json:"verified_contract,omitempty"`
	DevHoldingSet       bool         `json:"-"`

	// Merge metadata
	Provider  string `json:"provider,omitempty"`
	FromBatch bool   `json:"from_batch,omitempty"`
	Verified  bool   `json:"verified,omitempty"`
	UnixTime  int64  `json:"unix_time,omitempty"`
}
