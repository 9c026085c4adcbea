package pipeline

import (
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/tokenscout/tokenscout/internal/model"
)

// runValidation is stage 3: score market cap, liquidity, 24h volume and 24h
// trade count on the validation rubric. No short-timeframe data is fetched.
// The width argument is the expensive-stage width, possibly already tightened
// by the controller under breaker pressure.
func (ctl *Controller) runValidation(candidates []*model.Candidate, width int) []*model.Candidate {
	parallel := ctl.cfg.Stages.Stage3Parallel
	if parallel <= 0 {
		parallel = 8
	}

	sem := make(chan struct{}, parallel)
	var wg sync.WaitGroup
	for _, c := range candidates {
		wg.Add(1)
		sem <- struct{}{}
		go func(c *model.Candidate) {
			defer wg.Done()
			defer func() { <-sem }()
			c.ValidationScore = validationScore(c)
			c.Stage = model.StageValidation
		}(c)
	}
	wg.Wait()

	survivors := make([]*model.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.ValidationScore >= ctl.cfg.Stages.Stage3Threshold {
			survivors = append(survivors, c)
		}
	}

	sort.Slice(survivors, func(i, j int) bool {
		return model.Less(survivors[i], survivors[j], func(c *model.Candidate) float64 { return c.ValidationScore })
	})
	if len(survivors) > width {
		survivors = survivors[:width]
	}

	// Two hypothetical OHLCV calls saved per candidate not promoted.
	if held := len(candidates) - len(survivors); held > 0 {
		ctl.cost.AddExpensiveSaved(held * 2)
	}

	log.Debug().Int("in", len(candidates)).Int("out", len(survivors)).Int("width", width).
		Msg("stage 3 market validation complete")
	return survivors
}

// validationScore applies the market-validation rubric, 0-100: market cap
// 30%, liquidity 25%, 24h volume 25%, trading activity 20%.
func validationScore(c *model.Candidate) float64 {
	var total float64

	switch {
	case c.MarketCap >= 50_000 && c.MarketCap <= 5_000_000:
		total += 30
	case c.MarketCap >= 10_000 && c.MarketCap < 50_000:
		total += 25
	case c.MarketCap > 5_000_000:
		total += 15
	}

	switch {
	case c.Liquidity > 100_000:
		total += 25
	case c.Liquidity > 50_000:
		total += 20
	case c.Liquidity > 10_000:
		total += 10
	}

	switch {
	case c.Volume24h > 500_000:
		total += 25
	case c.Volume24h > 100_000:
		total += 20
	case c.Volume24h > 10_000:
		total += 10
	}

	switch {
	case c.Trades24h > 1000:
		total += 20
	case c.Trades24h > 500:
		total += 15
	case c.Trades24h > 100:
		total += 10
	}

	return total
}
