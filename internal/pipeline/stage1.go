package pipeline

import (
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tokenscout/tokenscout/internal/config"
	"github.com/tokenscout/tokenscout/internal/model"
)

// runTriage is stage 1: source-aware scoring over discovery data only. No
// outbound calls are made; candidates below the per-source admission
// threshold are dropped, and the output is capped at the configured width.
func runTriage(candidates []*model.Candidate, cfg config.StagesConfig, now time.Time) []*model.Candidate {
	survivors := make([]*model.Candidate, 0, len(candidates))
	for _, c := range candidates {
		c.DiscoveryScore = discoveryScore(c, now)
		c.Stage = model.StageTriage
		if c.DiscoveryScore >= stage1Threshold(cfg, c.Source) {
			survivors = append(survivors, c)
		}
	}

	sort.Slice(survivors, func(i, j int) bool {
		return model.Less(survivors[i], survivors[j], func(c *model.Candidate) float64 { return c.DiscoveryScore })
	})
	if len(survivors) > cfg.Stage1Cap {
		survivors = survivors[:cfg.Stage1Cap]
	}

	log.Debug().Int("in", len(candidates)).Int("out", len(survivors)).Msg("stage 1 triage complete")
	return survivors
}

func stage1Threshold(cfg config.StagesConfig, source model.Source) float64 {
	if v, ok := cfg.Stage1Thresholds[string(source)]; ok {
		return v
	}
	return cfg.Stage1Thresholds["default"]
}

// discoveryScore sums the source-specific and universal triage bonuses.
func discoveryScore(c *model.Candidate, now time.Time) float64 {
	var total float64

	switch c.Source {
	case model.SourceGraduated:
		total += graduatedFreshnessBonus(c, now)
		switch {
		case c.MarketCap >= 50_000 && c.MarketCap <= 2_000_000:
			total += 20
		case c.MarketCap >= 10_000 && c.MarketCap < 50_000:
			total += 15
		case c.MarketCap > 2_000_000:
			total += 5
		}
		switch {
		case c.Liquidity > 50_000:
			total += 15
		case c.Liquidity > 10_000:
			total += 10
		case c.Liquidity > 1_000:
			total += 5
		}

	case model.SourceBonding:
		switch {
		case c.BondingCurveProgress >= 95:
			total += 50
		case c.BondingCurveProgress >= 90:
			total += 35
		case c.BondingCurveProgress >= 85:
			total += 25
		case c.BondingCurveProgress >= 75:
			total += 15
		case c.BondingCurveProgress >= 50:
			total += 10
		}
		switch {
		case c.MarketCap >= 5_000 && c.MarketCap <= 500_000:
			total += 15
		case c.MarketCap > 0 && c.MarketCap < 5_000:
			total += 10
		}

	case model.SourceTrending:
		// Trending lists are already market-validated.
		total += 30

	case model.SourceEcosystemBonding:
		total += 20
		if c.SolRaisedCurrent > 50 {
			total += 10
		}
	}

	if c.ValidAddress() {
		total += 5
	}
	if c.ReasonableSymbol() {
		total += 3
	}

	age := c.AgeMinutes(now)
	switch {
	case age < 0:
		// Unknown age earns nothing.
	case age <= 60:
		total += 8
	case age <= 360:
		total += 5
	case age <= 1440:
		total += 2
	}

	return total
}

func graduatedFreshnessBonus(c *model.Candidate, now time.Time) float64 {
	hours := c.HoursSinceGraduation
	if hours <= 0 {
		if age := c.AgeMinutes(now); age >= 0 {
			hours = age / 60
		} else {
			return 0
		}
	}
	switch {
	case hours <= 1:
		return 40
	case hours <= 6:
		return 25
	case hours <= 12:
		return 15
	default:
		return 0
	}
}
