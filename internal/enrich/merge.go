package enrich

import (
	"time"

	"github.com/tokenscout/tokenscout/internal/model"
)

// writeMeta remembers who last wrote a candidate field so later responses can
// be ranked against it.
type writeMeta struct {
	provider string
	unixTime int64
	elevated bool // verified or batch response
}

// Merger applies the documented field precedence when multiple providers
// supply the same field within a cycle:
//
//  1. same-provider newer timestamp wins,
//  2. an explicit verified or batch response wins over a plain one,
//  3. any non-null value wins over the sentinel,
//
// with ties resolving to the first writer. Discovery-time values count as the
// first writer for fields they populated.
type Merger struct {
	writers map[string]map[string]writeMeta
}

// NewMerger creates a merger scoped to one cycle.
func NewMerger() *Merger {
	return &Merger{writers: make(map[string]map[string]writeMeta)}
}

func (m *Merger) fieldWriters(tokenKey string) map[string]writeMeta {
	w, ok := m.writers[tokenKey]
	if !ok {
		w = make(map[string]writeMeta)
		m.writers[tokenKey] = w
	}
	return w
}

// shouldWrite decides whether the incoming write beats the current holder.
func shouldWrite(existing writeMeta, hasExisting bool, incoming writeMeta) bool {
	if !hasExisting {
		return true
	}
	if existing.provider == incoming.provider {
		return incoming.unixTime > existing.unixTime
	}
	if incoming.elevated && !existing.elevated {
		return true
	}
	return false
}

// Apply merges a provider response into the candidate. Only non-null incoming
// values are considered; fields the candidate never had are always taken.
func (m *Merger) Apply(c *model.Candidate, rec model.PartialRecord) {
	writers := m.fieldWriters(c.TokenKey)
	incoming := writeMeta{
		provider: rec.Provider,
		unixTime: rec.UnixTime,
		elevated: rec.Verified || rec.FromBatch,
	}

	writeFloat := func(field string, current *float64, value float64) {
		if value == 0 {
			return
		}
		existing, has := writers[field]
		if !has && *current != 0 {
			// Discovery populated this field first.
			existing, has = writeMeta{provider: "discovery"}, true
		}
		if shouldWrite(existing, has, incoming) {
			*current = value
			writers[field] = incoming
		}
	}
	writeInt := func(field string, current *int, value int) {
		f := float64(*current)
		writeFloat(field, &f, float64(value))
		*current = int(f)
	}

	writeFloat("market_cap", &c.MarketCap, rec.MarketCap)
	writeFloat("price", &c.Price, rec.Price)
	writeFloat("liquidity", &c.Liquidity, rec.Liquidity)
	writeFloat("volume_24h", &c.Volume24h, rec.Volume24h)
	writeFloat("trades_24h", &c.Trades24h, rec.Trades24h)
	writeFloat("security_score", &c.SecurityScore, rec.SecurityScore)
	writeFloat("price_change_24h", &c.PriceChange24h, rec.PriceChange24h)
	writeInt("holder_count", &c.HolderCount, rec.HolderCount)
	writeInt("unique_traders_24h", &c.UniqueTraders24h, rec.UniqueTraders24h)

	if rec.DevHoldingSet {
		existing, has := writers["dev_holding_pct"]
		if shouldWrite(existing, has, incoming) {
			c.DevHoldingPct = rec.DevHoldingPct
			writers["dev_holding_pct"] = incoming
		}
	}
	if rec.HoneypotRisk != "" && rec.HoneypotRisk != model.HoneypotUnknown {
		existing, has := writers["honeypot_risk"]
		if !has && c.HoneypotRisk != "" && c.HoneypotRisk != model.HoneypotUnknown {
			existing, has = writeMeta{provider: "discovery"}, true
		}
		if shouldWrite(existing, has, incoming) {
			c.HoneypotRisk = rec.HoneypotRisk
			writers["honeypot_risk"] = incoming
		}
	}
	if rec.LiquidityLockedSet {
		existing, has := writers["liquidity_locked"]
		if shouldWrite(existing, has, incoming) {
			c.LiquidityLocked = rec.LiquidityLocked
			writers["liquidity_locked"] = incoming
		}
	}
	if rec.VerifiedContractSet {
		existing, has := writers["verified_contract"]
		if shouldWrite(existing, has, incoming) {
			c.VerifiedContract = rec.VerifiedContract
			writers["verified_contract"] = incoming
		}
	}

	c.EnrichmentTimestamp = time.Now().UTC()
	c.AttestedProviderCount++
}
