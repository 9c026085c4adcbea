package pipeline

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tokenscout/tokenscout/internal/model"
	"github.com/tokenscout/tokenscout/internal/provider"
	"github.com/tokenscout/tokenscout/internal/score"
)

const (
	ohlcvCandleCount = 20
	// typicalTradeUSD backs the volume-derived trade-count estimate.
	typicalTradeUSD = 250.0
)

// runVelocity is stage 4: fetch expensive short-timeframe OHLCV for the
// survivors only, derive velocity fields, and produce the final conviction
// score with the age-aware confidence adjustment. Candidates whose fetch was
// cancelled or failed keep their validation score as the final score, flagged
// partial, and rank below any complete result.
func (ctl *Controller) runVelocity(ctx context.Context, candidates []*model.Candidate, now time.Time) []*model.Candidate {
	parallel := ctl.cfg.Stages.Stage4Parallel
	if parallel <= 0 {
		parallel = 3
	}

	complete := make(map[string]bool, len(candidates))
	var mu sync.Mutex

	sem := make(chan struct{}, parallel)
	var wg sync.WaitGroup
	for _, c := range candidates {
		wg.Add(1)
		sem <- struct{}{}
		go func(c *model.Candidate) {
			defer wg.Done()
			defer func() { <-sem }()
			ok := ctl.scoreVelocity(ctx, c, now)
			mu.Lock()
			complete[c.TokenKey] = ok
			mu.Unlock()
		}(c)
	}
	wg.Wait()

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if complete[a.TokenKey] != complete[b.TokenKey] {
			return complete[a.TokenKey]
		}
		return model.Less(a, b, func(c *model.Candidate) float64 { return c.FinalScore })
	})

	log.Debug().Int("in", len(candidates)).Msg("stage 4 velocity scoring complete")
	return candidates
}

// scoreVelocity fetches and applies short-timeframe data for one candidate.
// Returns false when the candidate had to fall back to its validation score.
func (ctl *Controller) scoreVelocity(ctx context.Context, c *model.Candidate, now time.Time) bool {
	fetched := false
	if !ctl.cfg.Flags.ForceBasicStage4 && ctl.ohlcvProvider != "" {
		candles15 := ctl.fetchOHLCV(ctx, c.TokenKey, model.TF15m)
		candles30 := ctl.fetchOHLCV(ctx, c.TokenKey, model.TF30m)
		if len(candles15) > 0 || len(candles30) > 0 {
			applyVelocity(c, candles15, candles30)
			fetched = true
			c.AttestedProviderCount++
			if ctl.registry.LimitsFor(ctl.ohlcvProvider).Premium {
				c.PremiumProviderCount++
			}
		}
	}

	c.Stage = model.StageVelocity
	age := c.AgeMinutes(now)

	if !fetched && !ctl.cfg.Flags.ForceBasicStage4 && ctl.ohlcvProvider != "" {
		c.FinalScore = c.ValidationScore
		c.DataQuality = model.QualityPartial
		conf := score.AssessConfidence(c, age)
		c.Confidence = conf.Label
		return false
	}

	total, breakdown := score.Conviction(c, now)
	conf := score.AssessConfidence(c, age)
	c.Confidence = conf.Label
	breakdown.ConfidenceMult = conf.Multiplier

	c.FinalScore = clampScore(total * conf.Multiplier)
	c.Breakdown = &breakdown
	return true
}

// fetchOHLCV pulls one timeframe through the gate and breaker, charging the
// expensive-call counter for every attempt that was permitted.
func (ctl *Controller) fetchOHLCV(ctx context.Context, key string, tf model.Timeframe) []model.Candle {
	providerName := ctl.ohlcvProvider
	adapter := ctl.registry.Get(providerName)
	if adapter == nil {
		return nil
	}

	if !ctl.breaker.Permit(providerName) {
		return nil
	}
	release, err := ctl.gate.Acquire(ctx, providerName)
	if err != nil {
		ctl.breaker.Record(providerName, true)
		return nil
	}
	defer release()

	limits := ctl.registry.LimitsFor(providerName)
	callCtx, cancel := context.WithTimeout(ctx, limits.Timeout)
	defer cancel()

	ctl.cost.AddExpensiveMade(1)
	candles, err := adapter.OHLCVFetch(callCtx, key, tf, ohlcvCandleCount)
	ctl.breaker.RecordErr(providerName, err)
	if err != nil {
		if provider.CodeOf(err) == provider.ErrCodeParse {
			ctl.cost.AddParseErrors(1)
		}
		return nil
	}
	return candles
}

// applyVelocity derives the candidate's short-timeframe fields from raw
// candles: volume as the mean of the latest three candles, price change as
// last-vs-previous close, trades as a volume-derived estimate. A 5m estimate
// is projected from the newest 15m candle so brand-new tokens still register
// early activity.
func applyVelocity(c *model.Candidate, candles15, candles30 []model.Candle) {
	if len(candles15) > 0 {
		c.Volume15m = meanRecentVolume(candles15, 3)
		c.PriceChange15m = lastChangePct(candles15)
		c.Trades15m = c.Volume15m / typicalTradeUSD

		last := candles15[len(candles15)-1]
		c.Volume5m = last.Volume / 3
		c.PriceChange5m = c.PriceChange15m / 3
		c.Trades5m = c.Trades15m / 3
	}
	if len(candles30) > 0 {
		c.Volume30m = meanRecentVolume(candles30, 3)
		c.PriceChange30m = lastChangePct(candles30)
		c.Trades30m = c.Volume30m / typicalTradeUSD
	}
}

// meanRecentVolume averages the newest n candle volumes.
func meanRecentVolume(candles []model.Candle, n int) float64 {
	if len(candles) < n {
		n = len(candles)
	}
	if n == 0 {
		return 0
	}
	var sum float64
	for _, candle := range candles[len(candles)-n:] {
		sum += candle.Volume
	}
	return sum / float64(n)
}

// lastChangePct is the percent move of the newest close against the previous.
func lastChangePct(candles []model.Candle) float64 {
	if len(candles) < 2 {
		return 0
	}
	prev := candles[len(candles)-2].Close
	last := candles[len(candles)-1].Close
	if prev == 0 {
		return 0
	}
	return (last - prev) / prev * 100
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
