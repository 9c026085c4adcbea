package score

import (
	"github.com/tokenscout/tokenscout/internal/model"
)

// Safety composes contract and liquidity safety signals, 0-25. A base factor
// accumulates security attributes; liquidity quality rates the
// liquidity-to-market-cap ratio; the two average onto the 0-25 band.
func Safety(c *model.Candidate) float64 {
	base := 0.6
	if c.VerifiedContract {
		base += 0.15
	}
	if c.LiquidityLocked {
		base += 0.15
	}
	if c.DevHoldingPct >= 0 && c.DevHoldingPct < 5 {
		base += 0.10
	}
	if c.DevHoldingPct > 20 {
		base -= 0.20
	}
	switch c.HoneypotRisk {
	case model.HoneypotLow:
		base += 0.10
	case model.HoneypotHigh:
		base -= 0.30
	}
	base = clamp(base, 0, 1)

	return (base + liquidityQuality(c)) / 2 * 25
}

// liquidityQuality maps the liquidity/market-cap ratio onto [0.3, 1.0].
func liquidityQuality(c *model.Candidate) float64 {
	if c.MarketCap <= 0 || c.Liquidity <= 0 {
		return 0.3
	}
	ratio := clamp(c.Liquidity/c.MarketCap, 0, 1)
	switch {
	case ratio > 0.3:
		return 1.0
	case ratio > 0.1:
		return 0.8
	case ratio > 0.05:
		return 0.6
	default:
		return 0.3
	}
}

// CrossPlatform rewards attestation by multiple sources and presence on
// premium providers, 0-12.
func CrossPlatform(c *model.Candidate) float64 {
	var total float64
	switch {
	case c.AttestedProviderCount >= 4:
		total += 8
	case c.AttestedProviderCount >= 2:
		total += 5
	case c.AttestedProviderCount >= 1:
		total += 2
	}
	switch {
	case c.PremiumProviderCount >= 2:
		total += 4
	case c.PremiumProviderCount == 1:
		total += 2
	}
	return clamp(total, 0, 12)
}
