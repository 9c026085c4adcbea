package score

import (
	"github.com/tokenscout/tokenscout/internal/model"
)

// Momentum scores short-horizon velocity, 0-38: volume acceleration (0-15) +
// momentum cascade (0-13) + activity surge (0-10). Null inputs contribute
// zero; the result is never NaN.
func Momentum(c *model.Candidate) float64 {
	return VolumeAcceleration(c) + MomentumCascade(c) + ActivitySurge(c)
}

// MomentumBasic is the cheap variant: it ignores the 15m/30m fields that only
// the expensive OHLCV fetch populates. Only ConvictionBasic calls it; no
// pipeline stage does.
func MomentumBasic(c *model.Candidate) float64 {
	stripped := *c
	stripped.Volume15m = 0
	stripped.Volume30m = 0
	stripped.PriceChange15m = 0
	stripped.PriceChange30m = 0
	stripped.Trades15m = 0
	stripped.Trades30m = 0
	return Momentum(&stripped)
}

// VolumeAcceleration compares recent volume rates against their longer
// baselines, 0-15. A short ratio above 1 means the latest 15m outpaces the
// 30m average; the medium ratio does the same for 1h vs 6h.
func VolumeAcceleration(c *model.Candidate) float64 {
	var raw float64

	if c.Volume15m > 0 && c.Volume30m > 0 {
		shortRatio := c.Volume15m / (c.Volume30m / 2)
		switch {
		case shortRatio > 3:
			raw += 0.15
		case shortRatio > 2:
			raw += 0.12
		case shortRatio > 1.5:
			raw += 0.08
		}
	}

	if c.Volume1h > 0 && c.Volume6h > 0 {
		mediumRatio := c.Volume1h / (c.Volume6h / 6)
		switch {
		case mediumRatio > 2:
			raw += 0.10
		case mediumRatio > 1.5:
			raw += 0.07
		case mediumRatio > 1.2:
			raw += 0.04
		}
	}

	// raw peaks at 0.25; scale onto 0-15.
	return clamp(raw/0.25*15, 0, 15)
}

// cascade weights favor the shortest timeframes.
var cascadeWeights = []struct {
	change func(*model.Candidate) float64
	weight float64
}{
	{func(c *model.Candidate) float64 { return c.PriceChange5m }, 0.25},
	{func(c *model.Candidate) float64 { return c.PriceChange15m }, 0.25},
	{func(c *model.Candidate) float64 { return c.PriceChange30m }, 0.20},
	{func(c *model.Candidate) float64 { return c.PriceChange1h }, 0.15},
	{func(c *model.Candidate) float64 { return c.PriceChange6h }, 0.10},
	{func(c *model.Candidate) float64 { return c.PriceChange24h }, 0.05},
}

// MomentumCascade aggregates signed price changes across timeframes, weighted
// toward the short end, 0-13. Agreement across at least two short timeframes
// with the same sign earns a bonus.
func MomentumCascade(c *model.Candidate) float64 {
	var weighted float64
	for _, cw := range cascadeWeights {
		weighted += cw.weight * clamp(cw.change(c), -10, 10)
	}

	// weighted is in [-10, 10]; map onto 0-10 so flat action lands mid-scale.
	base := (weighted + 10) / 20 * 10

	positives, negatives := 0, 0
	for _, ch := range []float64{c.PriceChange5m, c.PriceChange15m, c.PriceChange30m} {
		if ch > 0 {
			positives++
		} else if ch < 0 {
			negatives++
		}
	}
	if positives >= 2 || negatives >= 2 {
		base += 3
	}

	return clamp(base, 0, 13)
}

// ActivitySurge scores trade-count intensity, 0-10: short-term trade rate vs
// the 24h average rate, unique traders, and absolute short-term activity.
func ActivitySurge(c *model.Candidate) float64 {
	var total float64

	if c.Trades24h > 0 {
		avgPerMin := c.Trades24h / (24 * 60)
		shortRate := shortTradeRate(c)
		if avgPerMin > 0 && shortRate > 0 {
			ratio := shortRate / avgPerMin
			switch {
			case ratio >= 5:
				total += 6
			case ratio >= 3:
				total += 4
			case ratio >= 2:
				total += 2
			}
		}
	}

	switch {
	case c.UniqueTraders24h > 500:
		total += 2
	case c.UniqueTraders24h > 100:
		total += 1
	}

	shortTrades := c.Trades15m + c.Trades30m + c.Trades1h
	switch {
	case shortTrades > 50:
		total += 2
	case shortTrades > 10:
		total += 1
	}

	return clamp(total, 0, 10)
}

// shortTradeRate picks the fastest available short-timeframe trade rate in
// trades per minute.
func shortTradeRate(c *model.Candidate) float64 {
	var best float64
	for _, tr := range []struct {
		trades  float64
		minutes float64
	}{
		{c.Trades15m, 15},
		{c.Trades30m, 30},
		{c.Trades1h, 60},
	} {
		if tr.trades > 0 {
			if rate := tr.trades / tr.minutes; rate > best {
				best = rate
			}
		}
	}
	return best
}
