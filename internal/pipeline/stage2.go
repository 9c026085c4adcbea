package pipeline

import (
	"context"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/tokenscout/tokenscout/internal/config"
	"github.com/tokenscout/tokenscout/internal/enrich"
	"github.com/tokenscout/tokenscout/internal/model"
	"github.com/tokenscout/tokenscout/internal/provider"
)

// needsEnrichment reports whether the candidate is missing any of the fields
// enhanced analysis scores on; anything missing is batch-enriched.
func needsEnrichment(c *model.Candidate) bool {
	return c.Volume24h == 0 || c.Trades24h == 0 || c.HolderCount == 0 || c.SecurityScore == 0
}

// runEnhanced is stage 2: batch-enrich the triage survivors with medium-cost
// metadata, then add enrichment bonuses on top of the discovery score.
func (ctl *Controller) runEnhanced(ctx context.Context, candidates []*model.Candidate, merger *enrich.Merger) []*model.Candidate {
	var missing []*model.Candidate
	for _, c := range candidates {
		if needsEnrichment(c) {
			missing = append(missing, c)
		}
	}

	if len(missing) > 0 && ctl.metadataProvider != "" {
		fields := append(append(provider.FieldSet{}, provider.FieldsMarket...), provider.FieldsHolders...)
		fields = append(fields, provider.FieldsSecurity...)
		stats := ctl.fetcher.Enrich(ctx, missing, ctl.metadataProvider, fields, merger)
		ctl.recordFetch(stats)
	}

	cfg := ctl.cfg.Stages
	survivors := make([]*model.Candidate, 0, len(candidates))
	for _, c := range candidates {
		// Data quality derives from whether the market cap is known.
		if c.MarketCap > 0 {
			if c.DataQuality != model.QualityLow {
				c.DataQuality = model.QualityHigh
			}
		} else {
			c.DataQuality = model.QualityLow
		}

		c.EnhancedScore = c.DiscoveryScore + enrichmentBonus(c)
		c.Stage = model.StageEnhanced
		if c.EnhancedScore >= stage2Threshold(cfg, c) {
			survivors = append(survivors, c)
		}
	}

	sort.Slice(survivors, func(i, j int) bool {
		return model.Less(survivors[i], survivors[j], func(c *model.Candidate) float64 { return c.EnhancedScore })
	})
	if len(survivors) > cfg.Stage2Cap {
		survivors = survivors[:cfg.Stage2Cap]
	}

	log.Debug().Int("in", len(candidates)).Int("out", len(survivors)).
		Int("enriched", len(missing)).Msg("stage 2 enhanced analysis complete")
	return survivors
}

// enrichmentBonus rewards newly learned volume, activity, holder and security
// data, additively on the discovery score.
func enrichmentBonus(c *model.Candidate) float64 {
	var bonus float64

	switch {
	case c.Volume24h > 100_000:
		bonus += 15
	case c.Volume24h > 50_000:
		bonus += 10
	case c.Volume24h > 10_000:
		bonus += 5
	}

	switch {
	case c.Trades24h > 500:
		bonus += 10
	case c.Trades24h > 100:
		bonus += 5
	}

	switch {
	case c.HolderCount > 200:
		bonus += 10
	case c.HolderCount > 50:
		bonus += 5
	}

	switch {
	case c.SecurityScore > 80:
		bonus += 8
	case c.SecurityScore > 60:
		bonus += 4
	}

	return bonus
}

func stage2Threshold(cfg config.StagesConfig, c *model.Candidate) float64 {
	highQuality := c.DataQuality == model.QualityHigh
	switch {
	case c.Source == model.SourceBonding && highQuality:
		return cfg.Stage2Thresholds["bonding_high"]
	case c.Source == model.SourceGraduated && highQuality:
		return cfg.Stage2Thresholds["graduated_high"]
	case c.Source == model.SourceTrending:
		return cfg.Stage2Thresholds["trending"]
	default:
		return cfg.Stage2Thresholds["default"]
	}
}
